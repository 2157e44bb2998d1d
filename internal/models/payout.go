package models

import (
	"time"

	"github.com/google/uuid"
)

// PayoutRequest — заявка создателя на вывод средств.
// Создание заявки сразу списывает сумму с кошелька (оптимистичный холд);
// отклонение или отмена возвращают холд обратно.
type PayoutRequest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	Currency        string     `db:"currency" json:"currency"`
	Status          string     `db:"status" json:"status"`
	PayoutMethod    string     `db:"payout_method" json:"payout_method"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
