package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute представляет спор по заданию. Одновременно по заданию
// может быть только один OPEN спор; RESOLVED терминален.
type Dispute struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	JobID            uuid.UUID  `db:"job_id" json:"job_id"`
	OpenedByUserID   uuid.UUID  `db:"opened_by_user_id" json:"opened_by_user_id"`
	OpenedByRole     string     `db:"opened_by_role" json:"opened_by_role"`
	Reason           string     `db:"reason" json:"reason"`
	Status           string     `db:"status" json:"status"`
	Resolution       *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedByUserID *uuid.UUID `db:"resolved_by_user_id" json:"resolved_by_user_id,omitempty"`
	AdminNote        *string    `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt       *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// DisputeMessage — сообщение в треде спора. Тред append-only.
type DisputeMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DisputeID uuid.UUID `db:"dispute_id" json:"dispute_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Kind      string    `db:"kind" json:"kind"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
