package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
	"github.com/xavierca1/lead-sync/internal/infra/ratelimit"
	"github.com/xavierca1/lead-sync/internal/usecase"
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

func newLeadHandler(gateway *MockCRMGateway, pipelines *MockPipelineResolver) *LeadHandler {
	uc := usecase.NewSyncLeadUseCase(gateway, pipelines, nil, nil)
	return NewLeadHandler(uc, ratelimit.NewMemoryLimiter("salt-teste"))
}

func postLead(handler *LeadHandler, body string, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/landing_leads", bytes.NewReader([]byte(body)))
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	w := httptest.NewRecorder()
	handler.Handle(w, req)
	return w
}

// ============ TESTES DO HANDLER ============

// TestLeadHandlerCreated - Contato novo responde 201 com action created
func TestLeadHandlerCreated(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)
	mockGateway.On("SearchContactByEmail", mock.Anything, "joao@example.com").Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)

	handler := newLeadHandler(mockGateway, mockPipelines)

	w := postLead(handler, `{"email":"joao@example.com","firstName":"João","source":"landing-botox"}`, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	var response usecase.SyncLeadOutput
	json.NewDecoder(w.Body).Decode(&response)
	assert.True(t, response.Success)
	assert.Equal(t, "contact-1", response.ContactID)
	assert.Equal(t, "created", response.Action)
	assert.Empty(t, response.OpportunityID)
}

// TestLeadHandlerUpdated - Contato existente responde 200 com action updated
func TestLeadHandlerUpdated(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)
	mockGateway.On("SearchContactByEmail", mock.Anything, "joao@example.com").
		Return(&highlevel.ContactMatch{ID: "contact-1"}, nil)
	mockGateway.On("UpdateContact", mock.Anything, "contact-1", mock.Anything).Return(nil)

	handler := newLeadHandler(mockGateway, mockPipelines)

	w := postLead(handler, `{"email":"joao@example.com"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)

	var response usecase.SyncLeadOutput
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "updated", response.Action)
	assert.Equal(t, "contact-1", response.ContactID)
}

// TestLeadHandlerMissingEmail - 422 sem chegar no CRM
func TestLeadHandlerMissingEmail(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	handler := newLeadHandler(mockGateway, new(MockPipelineResolver))

	w := postLead(handler, `{"firstName":"João","phone":"(11) 99999-9999"}`, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response map[string]interface{}
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Valid email is required", response["error"])
	mockGateway.AssertNotCalled(t, "SearchContactByEmail", mock.Anything, mock.Anything)
}

// TestLeadHandlerMalformedEmail
func TestLeadHandlerMalformedEmail(t *testing.T) {
	handler := newLeadHandler(new(MockCRMGateway), new(MockPipelineResolver))

	w := postLead(handler, `{"email":"not-an-email"}`, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// TestLeadHandlerInvalidJSON
func TestLeadHandlerInvalidJSON(t *testing.T) {
	handler := newLeadHandler(new(MockCRMGateway), new(MockPipelineResolver))

	w := postLead(handler, `not json`, "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// TestLeadHandlerCRMFailure - Erro do CRM vira 500 genérico, sem vazar detalhe
func TestLeadHandlerCRMFailure(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).
		Return(nil, errors.New("highlevel 502: gateway error com stacktrace interno"))

	handler := newLeadHandler(mockGateway, new(MockPipelineResolver))

	w := postLead(handler, `{"email":"joao@example.com"}`, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, false, response["success"])
	assert.Equal(t, "Failed to process lead. Please try again.", response["error"])
	assert.NotContains(t, w.Body.String(), "stacktrace")
}

// TestLeadHandlerIPRateLimit - 11º request do mesmo IP dentro do minuto leva 429
func TestLeadHandlerIPRateLimit(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-x", nil)

	handler := newLeadHandler(mockGateway, new(MockPipelineResolver))

	// Emails distintos pra não esbarrar no limite por email
	for i := 0; i < ratelimit.IPLimit; i++ {
		body := fmt.Sprintf(`{"email":"lead%d@example.com"}`, i)
		w := postLead(handler, body, "203.0.113.7")
		assert.Equal(t, http.StatusCreated, w.Code, "request %d deveria passar", i+1)
	}

	w := postLead(handler, `{"email":"lead-final@example.com"}`, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestLeadHandlerEmailRateLimit - 4º request do mesmo email leva 429, mesmo
// trocando de IP
func TestLeadHandlerEmailRateLimit(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil).Once()
	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).
		Return(&highlevel.ContactMatch{ID: "contact-1"}, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
	mockGateway.On("UpdateContact", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	handler := newLeadHandler(mockGateway, new(MockPipelineResolver))

	for i := 0; i < ratelimit.EmailLimit; i++ {
		ip := fmt.Sprintf("198.51.100.%d", i+1)
		w := postLead(handler, `{"email":"Joao@Example.com"}`, ip)
		assert.True(t, w.Code == http.StatusCreated || w.Code == http.StatusOK,
			"request %d deveria passar, veio %d", i+1, w.Code)
	}

	w := postLead(handler, `{"email":"joao@example.com"}`, "198.51.100.99")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// TestLeadHandlerOpportunityInResponse - Pipeline resolvido devolve opportunity_id
func TestLeadHandlerOpportunityInResponse(t *testing.T) {
	mockGateway := new(MockCRMGateway)
	mockPipelines := new(MockPipelineResolver)

	mockGateway.On("SearchContactByEmail", mock.Anything, mock.Anything).Return(nil, nil)
	mockGateway.On("CreateContact", mock.Anything, mock.Anything).Return("contact-1", nil)
	mockPipelines.On("ResolvePipeline", mock.Anything, "Vendas").Return("pipe-1", true, nil)
	mockPipelines.On("ResolveStage", mock.Anything, "pipe-1", "").Return("stage-1", nil)
	mockGateway.On("CreateOpportunity", mock.Anything, mock.Anything).Return("opp-1", nil)

	handler := newLeadHandler(mockGateway, mockPipelines)

	w := postLead(handler, `{"email":"joao@example.com","pipeline":"Vendas"}`, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	var response usecase.SyncLeadOutput
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "opp-1", response.OpportunityID)
}
