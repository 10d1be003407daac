package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/lead-sync/internal/entity"
)

// SyncEventRepository grava a trilha de auditoria em lead_sync_events.
// Tabela append-only: não há update nem delete por aqui.
type SyncEventRepository struct {
	DB *sql.DB
}

func NewSyncEventRepository(db *sql.DB) *SyncEventRepository {
	return &SyncEventRepository{DB: db}
}

func (r *SyncEventRepository) Save(ctx context.Context, event *entity.SyncEvent) error {
	query := `
		INSERT INTO lead_sync_events
			(id, email, action, contact_id, opportunity_id, source, page, campaign, error_class, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		event.ID,
		event.Email,
		nullString(event.Action),
		nullString(event.ContactID),
		nullString(event.OpportunityID),
		nullString(event.Source),
		nullString(event.Page),
		nullString(event.Campaign),
		nullString(event.ErrorClass),
		event.CreatedAt,
	)

	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
