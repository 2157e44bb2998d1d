package models

import (
	"time"

	"github.com/google/uuid"
)

// Job описывает задание бренда на создание UGC-контента.
// Деньги храним только в минорных единицах (копейки, центы).
type Job struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	BrandID          uuid.UUID  `db:"brand_id" json:"brand_id"`
	Title            string     `db:"title" json:"title"`
	Description      string     `db:"description" json:"description"`
	BudgetMinCents   *int64     `db:"budget_min_cents" json:"budget_min_cents,omitempty"`
	BudgetMaxCents   *int64     `db:"budget_max_cents" json:"budget_max_cents,omitempty"`
	Currency         string     `db:"currency" json:"currency"`
	Status           string     `db:"status" json:"status"`
	ModerationStatus string     `db:"moderation_status" json:"moderation_status"`
	ActiveCreatorID  *uuid.UUID `db:"active_creator_id" json:"active_creator_id,omitempty"`
	CancelReason     *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	DeadlineAt       *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Submission описывает версию сданной работы по заданию.
// Версии монотонно растут с 1; ревью работает только с последней.
type Submission struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	JobID     uuid.UUID  `db:"job_id" json:"job_id"`
	CreatorID uuid.UUID  `db:"creator_id" json:"creator_id"`
	Version   int        `db:"version" json:"version"`
	Status    string     `db:"status" json:"status"`
	Content   string     `db:"content" json:"content"`
	MediaID   *uuid.UUID `db:"media_id" json:"media_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Application представляет отклик создателя на задание.
type Application struct {
	ID               uuid.UUID `db:"id" json:"id"`
	JobID            uuid.UUID `db:"job_id" json:"job_id"`
	CreatorID        uuid.UUID `db:"creator_id" json:"creator_id"`
	CoverLetter      string    `db:"cover_letter" json:"cover_letter"`
	QuotedPriceCents *int64    `db:"quoted_price_cents" json:"quoted_price_cents,omitempty"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Invitation представляет приглашение создателя брендом.
type Invitation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	JobID     uuid.UUID `db:"job_id" json:"job_id"`
	BrandID   uuid.UUID `db:"brand_id" json:"brand_id"`
	CreatorID uuid.UUID `db:"creator_id" json:"creator_id"`
	Message   *string   `db:"message" json:"message,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
