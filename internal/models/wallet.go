package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet представляет баланс пользователя в конкретной валюте.
// Баланс меняется только в транзакции, которая записывает LedgerEntry.
type Wallet struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Currency     string    `db:"currency" json:"currency"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerEntry — неизменяемая запись о движении денег.
// Reference уникален и служит ключом идемпотентности: повторная вставка
// с тем же reference упирается в unique constraint.
type LedgerEntry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Type            string     `db:"type" json:"type"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	Currency        string     `db:"currency" json:"currency"`
	FromUserID      *uuid.UUID `db:"from_user_id" json:"from_user_id,omitempty"`
	ToUserID        *uuid.UUID `db:"to_user_id" json:"to_user_id,omitempty"`
	EscrowID        *uuid.UUID `db:"escrow_id" json:"escrow_id,omitempty"`
	PayoutRequestID *uuid.UUID `db:"payout_request_id" json:"payout_request_id,omitempty"`
	Reference       string     `db:"reference" json:"reference"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Escrow — запись о средствах, зарезервированных брендом под задание.
// Один escrow на задание; RELEASED и REFUNDED — финальные статусы.
type Escrow struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	JobID       uuid.UUID  `db:"job_id" json:"job_id"`
	BrandID     uuid.UUID  `db:"brand_id" json:"brand_id"`
	CreatorID   uuid.UUID  `db:"creator_id" json:"creator_id"`
	AmountCents int64      `db:"amount_cents" json:"amount_cents"`
	Currency    string     `db:"currency" json:"currency"`
	Status      string     `db:"status" json:"status"`
	FundedAt    *time.Time `db:"funded_at" json:"funded_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	SettledAt   *time.Time `db:"settled_at" json:"settled_at,omitempty"`
}

// Результаты попытки release/refund escrow. Сервисы транслируют их
// в ответ клиенту: часть — успех, часть — предупреждение, часть — конфликт.
const (
	EscrowResultReleased        = "released"
	EscrowResultRefunded        = "refunded"
	EscrowResultUnfunded        = "unfunded"
	EscrowResultAlreadyReleased = "already_released"
	EscrowResultAlreadyRefunded = "already_refunded"
	EscrowResultMissing         = "missing"
	EscrowResultNoActiveCreator = "no_active_creator"
)

// EscrowSettlement описывает итог расчёта по escrow.
type EscrowSettlement struct {
	Result          string  `json:"result"`
	Escrow          *Escrow `json:"escrow,omitempty"`
	CreatorNetCents int64   `json:"creator_net_cents"`
	CommissionCents int64   `json:"commission_cents"`
}

// CommissionFor считает комиссию платформы в минорных единицах.
// Базисные пункты зажимаются в [0, 10000], комиссия — в [0, amount],
// так что creatorNet + commission == amount без потерь на округлении.
func CommissionFor(amountCents int64, commissionBps int64) (commission, creatorNet int64) {
	if commissionBps < 0 {
		commissionBps = 0
	}
	if commissionBps > 10000 {
		commissionBps = 10000
	}
	commission = amountCents * commissionBps / 10000
	if commission < 0 {
		commission = 0
	}
	if commission > amountCents {
		commission = amountCents
	}
	creatorNet = amountCents - commission
	return commission, creatorNet
}
