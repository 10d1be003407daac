package entity

import (
	"context"
	"time"
	// IMPORTANTE: NÃO adicione imports de usecase ou infra aqui!
)

// Entidade: Lead
// Representa uma submissão vinda das landing pages. É transitória: quem é
// dono do contato de verdade é o CRM, aqui só carregamos os dados durante
// o request.
type Lead struct {
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Source    string   `json:"source,omitempty"`
	Page      string   `json:"page,omitempty"`
	Campaign  string   `json:"campaign,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// FullName monta o nome de exibição. Se não veio nome, usa o email.
func (l Lead) FullName() string {
	name := l.FirstName
	if l.LastName != "" {
		if name != "" {
			name += " "
		}
		name += l.LastName
	}
	if name == "" {
		return l.Email
	}
	return name
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// SyncEvent é o registro de auditoria de uma sincronização (sucesso ou
// falha). Não é fonte de verdade de nada — é trilha operacional.
type SyncEvent struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Action        string    `json:"action,omitempty"`
	ContactID     string    `json:"contact_id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	Source        string    `json:"source,omitempty"`
	Page          string    `json:"page,omitempty"`
	Campaign      string    `json:"campaign,omitempty"`
	ErrorClass    string    `json:"error_class,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SyncEventRepositoryInterface persiste a trilha de auditoria.
// A implementação pode ser nula (o serviço roda sem banco).
type SyncEventRepositoryInterface interface {
	Save(ctx context.Context, event *SyncEvent) error
}
