package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// OutboxRepository пишет события в append-only таблицу outbox_events.
// Доставку событий выполняют внешние консьюмеры, опрашивающие таблицу.
type OutboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append добавляет событие.
func (r *OutboxRepository) Append(ctx context.Context, eventType string, payload json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_events (event_type, payload) VALUES ($1, $2)
	`, eventType, payload)
	if err != nil {
		return fmt.Errorf("outbox repository: append %w", err)
	}
	return nil
}

// ListRecent возвращает последние события (админский просмотр).
func (r *OutboxRepository) ListRecent(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM outbox_events ORDER BY created_at DESC LIMIT $1
	`, limit)
	return events, err
}
