package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// ErrPayoutPendingExists: у пользователя уже есть активная заявка на вывод.
var ErrPayoutPendingExists = errors.New("pending payout request already exists")

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create создаёт заявку на вывод и сразу списывает сумму с кошелька
// (оптимистичный холд) одной транзакцией. Условный UPDATE с проверкой
// balance_cents >= amount исключает частичное списание и уход в минус.
func (r *PayoutRepository) Create(ctx context.Context, userID uuid.UUID, amountCents int64, currency, payoutMethod string) (*models.PayoutRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance_cents = balance_cents - $3, updated_at = NOW()
		WHERE user_id = $1 AND currency = $2 AND balance_cents >= $3
	`, userID, currency, amountCents)
	if err != nil {
		return nil, fmt.Errorf("payout repository: hold funds %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrInsufficientFunds
	}

	var payout models.PayoutRequest
	err = tx.GetContext(ctx, &payout, `
		INSERT INTO payout_requests (user_id, amount_cents, currency, status, payout_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, userID, amountCents, currency, models.PayoutStatusPending, payoutMethod)
	if err != nil {
		// Частичный unique индекс: не больше одной PENDING заявки на пользователя.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "payout_requests_one_pending_per_user" {
			return nil, ErrPayoutPendingExists
		}
		return nil, fmt.Errorf("payout repository: create %w", err)
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:            models.LedgerPayoutRequested,
		AmountCents:     amountCents,
		Currency:        currency,
		FromUserID:      &userID,
		PayoutRequestID: &payout.ID,
		Reference:       fmt.Sprintf("payout_request:%s", payout.ID),
	}); err != nil {
		return nil, err
	}

	return &payout, tx.Commit()
}

// GetByID возвращает заявку на вывод.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	if err := r.db.GetContext(ctx, &payout, `SELECT * FROM payout_requests WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("payout repository: get by id %w", err)
	}
	return &payout, nil
}

// GetPendingByUser возвращает активную заявку пользователя.
func (r *PayoutRepository) GetPendingByUser(ctx context.Context, userID uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.db.GetContext(ctx, &payout, `
		SELECT * FROM payout_requests WHERE user_id = $1 AND status = $2
	`, userID, models.PayoutStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, fmt.Errorf("payout repository: get pending %w", err)
	}
	return &payout, nil
}

// ListByUser возвращает заявки пользователя.
func (r *PayoutRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payout_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return payouts, err
}

// ListByStatus возвращает заявки в статусе (очередь администратора).
func (r *PayoutRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payout_requests WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return payouts, err
}

// Approve переводит заявку PENDING -> APPROVED. Кошелёк не меняется:
// средства были списаны при создании заявки.
func (r *PayoutRepository) Approve(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payout, err := r.transitionTx(ctx, tx, id, models.PayoutStatusApproved, nil)
	if err != nil {
		return nil, err
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:            models.LedgerPayoutApproved,
		AmountCents:     payout.AmountCents,
		Currency:        payout.Currency,
		FromUserID:      &payout.UserID,
		PayoutRequestID: &payout.ID,
		Reference:       fmt.Sprintf("payout_approve:%s", payout.ID),
	}); err != nil {
		return nil, err
	}

	return payout, tx.Commit()
}

// Reject переводит заявку PENDING -> REJECTED и возвращает холд на кошелёк.
func (r *PayoutRepository) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.PayoutRequest, error) {
	return r.releaseHold(ctx, id, models.PayoutStatusRejected, models.LedgerPayoutRejected, &reason, "payout_reject")
}

// Cancel переводит заявку PENDING -> CANCELED и возвращает холд на кошелёк.
func (r *PayoutRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	return r.releaseHold(ctx, id, models.PayoutStatusCanceled, models.LedgerPayoutCanceled, nil, "payout_cancel")
}

func (r *PayoutRepository) releaseHold(ctx context.Context, id uuid.UUID, toStatus, ledgerType string, reason *string, refPrefix string) (*models.PayoutRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	payout, err := r.transitionTx(ctx, tx, id, toStatus, reason)
	if err != nil {
		return nil, err
	}

	if err := creditWallet(ctx, tx, payout.UserID, payout.Currency, payout.AmountCents); err != nil {
		return nil, err
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:            ledgerType,
		AmountCents:     payout.AmountCents,
		Currency:        payout.Currency,
		ToUserID:        &payout.UserID,
		PayoutRequestID: &payout.ID,
		Reference:       fmt.Sprintf("%s:%s", refPrefix, payout.ID),
	}); err != nil {
		return nil, err
	}

	return payout, tx.Commit()
}

// transitionTx выполняет условный переход PENDING -> toStatus внутри
// транзакции. Ноль затронутых строк — конфликт состояния, не no-op.
func (r *PayoutRepository) transitionTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, toStatus string, reason *string) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := tx.GetContext(ctx, &payout, `SELECT * FROM payout_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE payout_requests SET status = $2, rejection_reason = $3, processed_at = NOW()
		WHERE id = $1 AND status = $4
	`, id, toStatus, reason, models.PayoutStatusPending)
	if err != nil {
		return nil, fmt.Errorf("payout repository: transition %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStateConflict
	}

	payout.Status = toStatus
	payout.RejectionReason = reason
	return &payout, nil
}
