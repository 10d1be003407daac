package usecase

import (
	"context"

	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
	"github.com/xavierca1/lead-sync/internal/infra/queue"
)

// CRMGateway é o contrato com o CRM remoto (HighLevel v2).
// SearchContactByEmail devolve nil quando o contato não existe; erro é um
// desfecho diferente ("não sei") e nunca pode virar create.
type CRMGateway interface {
	SearchContactByEmail(ctx context.Context, email string) (*highlevel.ContactMatch, error)
	CreateContact(ctx context.Context, input highlevel.CreateContactInput) (string, error)
	UpdateContact(ctx context.Context, contactID string, input highlevel.UpdateContactInput) error
	CreateOpportunity(ctx context.Context, input highlevel.CreateOpportunityInput) (string, error)
}

// PipelineResolver traduz nomes legíveis em IDs do CRM (com cache atrás).
type PipelineResolver interface {
	// ResolvePipeline: ok=false quando o nome não existe na location.
	ResolvePipeline(ctx context.Context, name string) (pipelineID string, ok bool, err error)
	// ResolveStage cai no primeiro estágio do pipeline quando o nome não
	// bate (comportamento documentado, não é erro).
	ResolveStage(ctx context.Context, pipelineID, stageName string) (stageID string, err error)
}

type QueueProducerInterface interface {
	PublishLeadSynced(ctx context.Context, payload queue.LeadSyncedPayload) error
}
