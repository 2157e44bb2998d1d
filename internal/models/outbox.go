package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent — запись в таблице событий. Таблица append-only,
// читается внешними консьюмерами (боты, аналитика); сам бэкенд
// события только пишет.
type OutboxEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	EventType string          `db:"event_type" json:"event_type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Типы событий outbox.
const (
	EventJobPublished        = "job.published"
	EventJobApproved         = "job.moderation_approved"
	EventJobRejected         = "job.moderation_rejected"
	EventJobCompleted        = "job.completed"
	EventJobCanceled         = "job.canceled"
	EventApplicationAccepted = "application.accepted"
	EventEscrowFunded        = "escrow.funded"
	EventEscrowReleased      = "escrow.released"
	EventEscrowRefunded      = "escrow.refunded"
	EventDisputeOpened       = "dispute.opened"
	EventDisputeResolved     = "dispute.resolved"
	EventPayoutRequested     = "payout.requested"
	EventPayoutProcessed     = "payout.processed"
)
