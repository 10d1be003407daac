package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/lead-sync/internal/entity"
	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
	"github.com/xavierca1/lead-sync/internal/infra/queue"
)

type SyncLeadInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	Page      string `json:"page"`
	Campaign  string `json:"campaign"`
	Pipeline  string `json:"pipeline"`
	Stage     string `json:"stage"`
}

type SyncLeadOutput struct {
	Success       bool   `json:"success"`
	ContactID     string `json:"contact_id"`
	Action        string `json:"action"`
	OpportunityID string `json:"opportunity_id,omitempty"`
}

type SyncLeadUseCase struct {
	Gateway   CRMGateway
	Pipelines PipelineResolver
	Repo      entity.SyncEventRepositoryInterface
	Queue     QueueProducerInterface
}

func NewSyncLeadUseCase(
	gateway CRMGateway,
	pipelines PipelineResolver,
	repo entity.SyncEventRepositoryInterface,
	producer QueueProducerInterface,
) *SyncLeadUseCase {
	return &SyncLeadUseCase{
		Gateway:   gateway,
		Pipelines: pipelines,
		Repo:      repo,
		Queue:     producer,
	}
}

// Execute roda o fluxo completo: resolve → upsert → (opcional) oportunidade.
// O upsert do contato é a garantia primária: se ele falha, o request falha.
// Tudo depois dele (oportunidade, auditoria, fila) é melhor-esforço.
func (uc *SyncLeadUseCase) Execute(ctx context.Context, input SyncLeadInput) (*SyncLeadOutput, error) {
	validationErrors := ValidateSyncLeadInput(input)
	if len(validationErrors) > 0 {
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "Valid email is required",
		}
	}

	email := NormalizeEmail(input.Email)

	lead := entity.Lead{
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Source:    strings.TrimSpace(input.Source),
		Page:      strings.TrimSpace(input.Page),
		Campaign:  strings.TrimSpace(input.Campaign),
		Tags:      leadTags(input),
	}

	// 1. Resolver: existe contato com esse email?
	// Erro aqui aborta tudo: criar contato depois de um "não sei" é receita
	// de duplicata.
	match, err := uc.Gateway.SearchContactByEmail(ctx, email)
	if err != nil {
		uc.audit(lead, "", "", "", "CRM_SEARCH_ERROR")
		return nil, &TechnicalError{
			Code:    "CRM_SEARCH_ERROR",
			Message: "contact resolution failed: " + err.Error(),
		}
	}

	// 2. Upserter: caminhos de create e update são builders distintos no
	// client (locationId só existe no create).
	var contactID string
	var action string

	if match == nil {
		contactID, err = uc.Gateway.CreateContact(ctx, highlevel.CreateContactInput{
			Email:     lead.Email,
			FirstName: lead.FirstName,
			LastName:  lead.LastName,
			Phone:     lead.Phone,
			Source:    lead.Source,
			Tags:      lead.Tags,
		})
		if err != nil {
			uc.audit(lead, "", "", "", "CRM_CREATE_ERROR")
			return nil, &TechnicalError{
				Code:    "CRM_CREATE_ERROR",
				Message: "contact create failed: " + err.Error(),
			}
		}
		action = entity.ActionCreated
	} else {
		contactID = match.ID
		err = uc.Gateway.UpdateContact(ctx, contactID, highlevel.UpdateContactInput{
			FirstName: lead.FirstName,
			LastName:  lead.LastName,
			Phone:     lead.Phone,
			Source:    lead.Source,
			// Tags existentes no CRM são preservadas: mandamos a união,
			// nunca só as novas.
			Tags: mergeTags(match.Tags, lead.Tags),
		})
		if err != nil {
			uc.audit(lead, "", "", "", "CRM_UPDATE_ERROR")
			return nil, &TechnicalError{
				Code:    "CRM_UPDATE_ERROR",
				Message: "contact update failed: " + err.Error(),
			}
		}
		action = entity.ActionUpdated
	}

	// 3. Oportunidade: só quando o lead pediu pipeline, e qualquer falha
	// daqui pra frente NÃO derruba o request — o contato já está no CRM.
	opportunityID := uc.createOpportunity(ctx, lead, contactID, input.Pipeline, input.Stage)

	// 4. Auditoria + fila fora do caminho da resposta.
	uc.audit(lead, action, contactID, opportunityID, "")
	uc.publish(lead, action, contactID, opportunityID)

	return &SyncLeadOutput{
		Success:       true,
		ContactID:     contactID,
		Action:        action,
		OpportunityID: opportunityID,
	}, nil
}

// createOpportunity é melhor-esforço por contrato: pipeline desconhecido é
// skip silencioso (logado), erro do CRM é engolido e logado. Devolve "" em
// qualquer falha.
func (uc *SyncLeadUseCase) createOpportunity(ctx context.Context, lead entity.Lead, contactID, pipelineName, stageName string) string {
	pipelineName = strings.TrimSpace(pipelineName)
	if pipelineName == "" {
		return ""
	}

	pipelineID, ok, err := uc.Pipelines.ResolvePipeline(ctx, pipelineName)
	if err != nil {
		log.Printf("⚠️ Oportunidade pulada: erro ao resolver pipeline %q: %s", pipelineName, err)
		return ""
	}
	if !ok {
		log.Printf("⚠️ Oportunidade pulada: pipeline %q não existe no CRM", pipelineName)
		return ""
	}

	stageID, err := uc.Pipelines.ResolveStage(ctx, pipelineID, stageName)
	if err != nil {
		log.Printf("⚠️ Oportunidade pulada: erro ao resolver estágio %q: %s", stageName, err)
		return ""
	}

	opportunityID, err := uc.Gateway.CreateOpportunity(ctx, highlevel.CreateOpportunityInput{
		ContactID:       contactID,
		PipelineID:      pipelineID,
		PipelineStageID: stageID,
		Name:            opportunityName(lead),
	})
	if err != nil {
		log.Printf("❌ Oportunidade falhou para contato %s (contato segue criado): %s", contactID, err)
		return ""
	}

	return opportunityID
}

// opportunityName: nome legível derivado da origem da submissão.
func opportunityName(lead entity.Lead) string {
	source := lead.Source
	if source == "" {
		source = "website"
	}
	return lead.FullName() + " - " + source
}

// leadTags marca a origem do lead no CRM. No update essas tags entram em
// merge com as que já existem lá.
func leadTags(input SyncLeadInput) []string {
	tags := []string{"landing-lead"}
	if s := strings.TrimSpace(input.Source); s != "" {
		tags = append(tags, s)
	}
	if c := strings.TrimSpace(input.Campaign); c != "" {
		tags = append(tags, c)
	}
	return tags
}

func mergeTags(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	for _, t := range incoming {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}

// audit grava a trilha em background. Falha de banco nunca chega no caller.
func (uc *SyncLeadUseCase) audit(lead entity.Lead, action, contactID, opportunityID, errorClass string) {
	if uc.Repo == nil {
		return
	}

	event := &entity.SyncEvent{
		ID:            uuid.New().String(),
		Email:         lead.Email,
		Action:        action,
		ContactID:     contactID,
		OpportunityID: opportunityID,
		Source:        lead.Source,
		Page:          lead.Page,
		Campaign:      lead.Campaign,
		ErrorClass:    errorClass,
		CreatedAt:     time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.Repo.Save(ctx, event); err != nil {
			log.Printf("⚠️ Auditoria falhou para %s: %s", lead.Email, err)
		}
	}()
}

// publish manda o evento pra fila em background, pro worker de alerta e
// quem mais quiser consumir. Também melhor-esforço.
func (uc *SyncLeadUseCase) publish(lead entity.Lead, action, contactID, opportunityID string) {
	if uc.Queue == nil {
		return
	}

	payload := queue.LeadSyncedPayload{
		Email:         lead.Email,
		Name:          lead.FullName(),
		Phone:         lead.Phone,
		ContactID:     contactID,
		Action:        action,
		OpportunityID: opportunityID,
		Source:        lead.Source,
		Page:          lead.Page,
		Campaign:      lead.Campaign,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.Queue.PublishLeadSynced(ctx, payload); err != nil {
			log.Printf("⚠️ Publicação na fila falhou para %s: %s", lead.Email, err)
		}
	}()
}
