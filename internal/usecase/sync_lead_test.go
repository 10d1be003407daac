package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/lead-sync/internal/entity"
	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
)

// MockCRMGateway
type MockCRMGateway struct {
	mock.Mock
}

func (m *MockCRMGateway) SearchContactByEmail(ctx context.Context, email string) (*highlevel.ContactMatch, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*highlevel.ContactMatch), args.Error(1)
}

func (m *MockCRMGateway) CreateContact(ctx context.Context, input highlevel.CreateContactInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockCRMGateway) UpdateContact(ctx context.Context, contactID string, input highlevel.UpdateContactInput) error {
	args := m.Called(ctx, contactID, input)
	return args.Error(0)
}

func (m *MockCRMGateway) CreateOpportunity(ctx context.Context, input highlevel.CreateOpportunityInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockPipelineResolver
type MockPipelineResolver struct {
	mock.Mock
}

func (m *MockPipelineResolver) ResolvePipeline(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPipelineResolver) ResolveStage(ctx context.Context, pipelineID, stageName string) (string, error) {
	args := m.Called(ctx, pipelineID, stageName)
	return args.String(0), args.Error(1)
}

// ============ TESTES DO USECASE ============

// TestSyncLeadCreateThenUpdate - Upsert idempotente: primeira vez cria, segunda atualiza
func TestSyncLeadCreateThenUpdate(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, "joao@example.com").
		Return(nil, nil).Once()
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).
		Return("contact-123", nil).Once()

	mockGateway.On("SearchContactByEmail", mock.Anything, "joao@example.com").
		Return(&highlevel.ContactMatch{ID: "contact-123"}, nil).Once()
	mockGateway.On("UpdateContact", mock.Anything, "contact-123", mock.Anything).
		Return(nil).Once()

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	input := SyncLeadInput{
		Email:     "Joao@Example.com", // normalização entra em jogo aqui
		FirstName: "João",
		LastName:  "Silva",
		Source:    "landing-botox",
	}

	out1, err := uc.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, entity.ActionCreated, out1.Action)
	assert.Equal(t, "contact-123", out1.ContactID)

	out2, err := uc.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, entity.ActionUpdated, out2.Action)
	assert.Equal(t, "contact-123", out2.ContactID)

	mockGateway.AssertExpectations(t)
}

// TestSyncLeadMissingEmail - Sem email não chega nem perto do CRM
func TestSyncLeadMissingEmail(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	_, err := uc.Execute(context.Background(), SyncLeadInput{
		FirstName: "João",
		Phone:     "(11) 99999-9999",
	})

	assert.Error(t, err)
	assert.True(t, IsDomainError(err))
	assert.Equal(t, "Valid email is required", err.Error())
	mockGateway.AssertNotCalled(t, "SearchContactByEmail", mock.Anything, mock.Anything)
}

// TestSyncLeadMalformedEmail
func TestSyncLeadMalformedEmail(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	_, err := uc.Execute(context.Background(), SyncLeadInput{Email: "not-an-email"})

	assert.Error(t, err)
	assert.True(t, IsDomainError(err))
	mockGateway.AssertNotCalled(t, "SearchContactByEmail", mock.Anything, mock.Anything)
}

// TestSyncLeadSearchFailureNeverCreates - "não sei" é diferente de "não existe":
// depois de erro na busca não pode rolar create (viraria contato duplicado)
func TestSyncLeadSearchFailureNeverCreates(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, "joao@example.com").
		Return(nil, errors.New("timeout upstream"))

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	_, err := uc.Execute(context.Background(), SyncLeadInput{Email: "joao@example.com"})

	assert.Error(t, err)
	assert.True(t, IsTechnicalError(err))
	mockGateway.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
	mockGateway.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything)
}

// TestSyncLeadUnknownPipelineSkipsOpportunity - Pipeline inexistente: skip
// silencioso, o contato responde sucesso mesmo assim
func TestSyncLeadUnknownPipelineSkipsOpportunity(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-9", nil)
	mockPipelines.On("ResolvePipeline", mock.Anything, "Funil Fantasma").Return("", false, nil)

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	out, err := uc.Execute(context.Background(), SyncLeadInput{
		Email:    "maria@example.com",
		Pipeline: "Funil Fantasma",
	})

	assert.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "contact-9", out.ContactID)
	assert.Empty(t, out.OpportunityID)
	mockGateway.AssertNotCalled(t, "CreateOpportunity", mock.Anything, mock.Anything)
}

// TestSyncLeadOpportunityFailureIsSwallowed - Falha na oportunidade não
// derruba o request nem desfaz o upsert do contato
func TestSyncLeadOpportunityFailureIsSwallowed(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-7", nil)
	mockPipelines.On("ResolvePipeline", mock.Anything, "Vendas").Return("pipe-1", true, nil)
	mockPipelines.On("ResolveStage", mock.Anything, "pipe-1", "Novo").Return("stage-1", nil)
	mockGateway.On("CreateOpportunity", mock.Anything, mock.Anything).
		Return("", errors.New("CRM indisponível"))

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	out, err := uc.Execute(context.Background(), SyncLeadInput{
		Email:    "maria@example.com",
		Pipeline: "Vendas",
		Stage:    "Novo",
	})

	assert.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "contact-7", out.ContactID)
	assert.Empty(t, out.OpportunityID)
}

// TestSyncLeadCreatesOpportunity - Caminho feliz com pipeline + estágio
func TestSyncLeadCreatesOpportunity(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-7", nil)
	mockPipelines.On("ResolvePipeline", mock.Anything, "Vendas").Return("pipe-1", true, nil)
	mockPipelines.On("ResolveStage", mock.Anything, "pipe-1", "Qualificado").Return("stage-2", nil)
	mockGateway.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(input highlevel.CreateOpportunityInput) bool {
		return input.ContactID == "contact-7" &&
			input.PipelineID == "pipe-1" &&
			input.PipelineStageID == "stage-2" &&
			input.Name == "Maria Souza - google-ads"
	})).Return("opp-55", nil)

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	out, err := uc.Execute(context.Background(), SyncLeadInput{
		Email:     "maria@example.com",
		FirstName: "Maria",
		LastName:  "Souza",
		Source:    "google-ads",
		Pipeline:  "Vendas",
		Stage:     "Qualificado",
	})

	assert.NoError(t, err)
	assert.Equal(t, "opp-55", out.OpportunityID)
	mockGateway.AssertExpectations(t)
}

// TestSyncLeadUpdateMergesTags - Tags já existentes no CRM são preservadas
func TestSyncLeadUpdateMergesTags(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).
		Return(&highlevel.ContactMatch{ID: "contact-3", Tags: []string{"vip", "landing-lead"}}, nil)
	mockGateway.On("UpdateContact", mock.Anything, "contact-3", mock.MatchedBy(func(input highlevel.UpdateContactInput) bool {
		return assert.ObjectsAreEqual([]string{"vip", "landing-lead", "black-friday"}, input.Tags)
	})).Return(nil)

	uc := NewSyncLeadUseCase(mockGateway, mockPipelines, nil, nil)

	out, err := uc.Execute(context.Background(), SyncLeadInput{
		Email:    "maria@example.com",
		Campaign: "black-friday",
	})

	assert.NoError(t, err)
	assert.Equal(t, entity.ActionUpdated, out.Action)
	mockGateway.AssertExpectations(t)
}
