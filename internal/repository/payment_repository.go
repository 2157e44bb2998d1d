package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// PaymentRepository владеет всеми денежными транзакциями: кошельки, леджер,
// escrow. Каждая мутация статуса выполняется условным UPDATE по ожидаемому
// предыдущему статусу; количество затронутых строк решает исход гонки.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetWallet возвращает кошелёк пользователя в валюте, создаёт если не существует.
func (r *PaymentRepository) GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `
		INSERT INTO wallets (user_id, currency, balance_cents)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, currency) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, currency, balance_cents, updated_at
	`
	if err := r.db.GetContext(ctx, &wallet, query, userID, currency); err != nil {
		return nil, fmt.Errorf("payment repository: get wallet %w", err)
	}
	return &wallet, nil
}

// ListWallets возвращает все кошельки пользователя.
func (r *PaymentRepository) ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.SelectContext(ctx, &wallets, `
		SELECT * FROM wallets WHERE user_id = $1 ORDER BY currency
	`, userID)
	return wallets, err
}

// ListLedger возвращает записи леджера, касающиеся пользователя.
func (r *PaymentRepository) ListLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return entries, err
}

// GetEscrowByJobID возвращает escrow по заданию.
func (r *PaymentRepository) GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrows WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, fmt.Errorf("payment repository: get escrow %w", err)
	}
	return &escrow, nil
}

// FundEscrow переводит escrow в FUNDED. Идемпотентна: если условный UPDATE
// не затронул строк, а escrow уже FUNDED/RELEASED — возвращаем текущую строку
// и признак того, что фондирование выполнено не этим вызовом.
// Кошелёк бренда не списывается: оплата брендом происходит вне платформы.
func (r *PaymentRepository) FundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `SELECT * FROM escrows WHERE job_id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrEscrowNotFound
		}
		return nil, false, err
	}

	if !models.CanEscrowTransition(escrow.Status, models.EscrowStatusFunded) {
		// Уже FUNDED/RELEASED/REFUNDED: фондирование выполнено не этим вызовом.
		return &escrow, false, tx.Commit()
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE escrows SET status = $2, funded_at = NOW()
		WHERE id = $1 AND status = $3
	`, escrow.ID, models.EscrowStatusFunded, models.EscrowStatusUnfunded)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		// Проиграли гонку или escrow уже профондирован: отдаём как есть.
		return &escrow, false, tx.Commit()
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:        models.LedgerEscrowFunded,
		AmountCents: escrow.AmountCents,
		Currency:    escrow.Currency,
		FromUserID:  &escrow.BrandID,
		EscrowID:    &escrow.ID,
		Reference:   fmt.Sprintf("escrow_fund:%s", escrow.ID),
	}); err != nil {
		return nil, false, err
	}

	escrow.Status = models.EscrowStatusFunded
	now := time.Now()
	escrow.FundedAt = &now
	return &escrow, true, tx.Commit()
}

// ApproveAndRelease выполняет одобрение последней сдачи и выплату одной
// транзакцией: submission -> APPROVED, job -> COMPLETED, escrow -> RELEASED,
// кошелёк создателя пополняется суммой за вычетом комиссии.
func (r *PaymentRepository) ApproveAndRelease(ctx context.Context, jobID uuid.UUID, commissionBps int64) (*models.EscrowSettlement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.ActiveCreatorID == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &models.EscrowSettlement{Result: models.EscrowResultNoActiveCreator}, nil
	}

	settlement, err := releaseEscrowTx(ctx, tx, &job, commissionBps)
	if err != nil {
		return nil, err
	}
	if settlement.Result == models.EscrowResultAlreadyReleased {
		// Повторный вызов после успешной выплаты: ничего не трогаем.
		return settlement, tx.Commit()
	}

	// Последняя версия сдачи становится одобренной.
	res, err := tx.ExecContext(ctx, `
		UPDATE submissions SET status = $2, updated_at = NOW()
		WHERE job_id = $1 AND version = (SELECT MAX(version) FROM submissions WHERE job_id = $1)
		  AND status = $3
	`, jobID, models.SubmissionStatusApproved, models.SubmissionStatusSubmitted)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStateConflict
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusCompleted, models.JobStatusInReview)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStateConflict
	}

	return settlement, tx.Commit()
}

// ForceRelease выполняет выплату по решению администратора (resolve-release):
// та же логика расчёта, но задание завершается из любого нетерминального
// статуса, а сдача одобряется независимо от её текущего статуса.
func (r *PaymentRepository) ForceRelease(ctx context.Context, jobID uuid.UUID, commissionBps int64) (*models.EscrowSettlement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.ActiveCreatorID == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &models.EscrowSettlement{Result: models.EscrowResultNoActiveCreator}, nil
	}

	settlement, err := releaseEscrowTx(ctx, tx, &job, commissionBps)
	if err != nil {
		return nil, err
	}
	if settlement.Result == models.EscrowResultAlreadyReleased {
		return settlement, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE submissions SET status = $2, updated_at = NOW()
		WHERE job_id = $1 AND version = (SELECT MAX(version) FROM submissions WHERE job_id = $1)
	`, jobID, models.SubmissionStatusApproved)
	if err != nil {
		return nil, err
	}

	if !models.IsJobTerminal(job.Status) {
		_, err = tx.ExecContext(ctx, `
			UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1
		`, jobID, models.JobStatusCompleted)
		if err != nil {
			return nil, err
		}
	}

	return settlement, tx.Commit()
}

// releaseEscrowTx считает комиссию и пополняет кошелёк создателя внутри
// уже открытой транзакции. Не трогает job/submission.
func releaseEscrowTx(ctx context.Context, tx *sqlx.Tx, job *models.Job, commissionBps int64) (*models.EscrowSettlement, error) {
	var escrow models.Escrow
	err := tx.GetContext(ctx, &escrow, `SELECT * FROM escrows WHERE job_id = $1 FOR UPDATE`, job.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.EscrowSettlement{Result: models.EscrowResultMissing}, nil
		}
		return nil, err
	}

	switch escrow.Status {
	case models.EscrowStatusReleased:
		return &models.EscrowSettlement{Result: models.EscrowResultAlreadyReleased, Escrow: &escrow}, nil
	case models.EscrowStatusUnfunded:
		// Фондирования не было: задание завершаем, выплаты нет.
		return &models.EscrowSettlement{Result: models.EscrowResultUnfunded, Escrow: &escrow}, nil
	case models.EscrowStatusRefunded:
		return nil, ErrStateConflict
	}
	if !models.CanEscrowTransition(escrow.Status, models.EscrowStatusReleased) {
		return nil, ErrStateConflict
	}

	commission, creatorNet := models.CommissionFor(escrow.AmountCents, commissionBps)

	res, err := tx.ExecContext(ctx, `
		UPDATE escrows SET status = $2, settled_at = NOW()
		WHERE id = $1 AND status = $3
	`, escrow.ID, models.EscrowStatusReleased, models.EscrowStatusFunded)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrStateConflict
	}

	if err := creditWallet(ctx, tx, escrow.CreatorID, escrow.Currency, creatorNet); err != nil {
		return nil, err
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:        models.LedgerEscrowReleased,
		AmountCents: creatorNet,
		Currency:    escrow.Currency,
		FromUserID:  &escrow.BrandID,
		ToUserID:    &escrow.CreatorID,
		EscrowID:    &escrow.ID,
		Reference:   fmt.Sprintf("escrow_release:%s", escrow.ID),
	}); err != nil {
		return nil, err
	}
	if commission > 0 {
		if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
			Type:        models.LedgerEscrowCommission,
			AmountCents: commission,
			Currency:    escrow.Currency,
			FromUserID:  &escrow.BrandID,
			EscrowID:    &escrow.ID,
			Reference:   fmt.Sprintf("escrow_commission:%s", escrow.ID),
		}); err != nil {
			return nil, err
		}
	}

	escrow.Status = models.EscrowStatusReleased
	now := time.Now()
	escrow.SettledAt = &now
	return &models.EscrowSettlement{
		Result:          models.EscrowResultReleased,
		Escrow:          &escrow,
		CreatorNetCents: creatorNet,
		CommissionCents: commission,
	}, nil
}

// CancelAndRefund отменяет задание и возвращает средства бренду одной
// транзакцией. allowedFrom перечисляет статусы, из которых отмена разрешена
// этому вызывающему; escrow в RELEASED делает отмену невозможной.
func (r *PaymentRepository) CancelAndRefund(ctx context.Context, jobID uuid.UUID, allowedFrom []string, reason string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	refundResult, err := refundEscrowTx(ctx, tx, jobID)
	if err != nil {
		return "", err
	}

	query, args, err := sqlx.In(`
		UPDATE jobs SET status = ?, cancel_reason = ?, updated_at = NOW()
		WHERE id = ? AND status IN (?)
	`, models.JobStatusCanceled, reason, jobID, allowedFrom)
	if err != nil {
		return "", err
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrStateConflict
	}

	return refundResult, tx.Commit()
}

// RefundEscrow возвращает средства бренду без смены статуса задания
// (используется при разрешении спора, где задание меняется отдельно).
func (r *PaymentRepository) RefundEscrow(ctx context.Context, jobID uuid.UUID) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	result, err := refundEscrowTx(ctx, tx, jobID)
	if err != nil {
		return "", err
	}
	return result, tx.Commit()
}

// refundEscrowTx возвращает средства бренду внутри открытой транзакции.
// Возврат после выплаты — жёсткая ошибка: деньги уже у создателя.
func refundEscrowTx(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID) (string, error) {
	var escrow models.Escrow
	err := tx.GetContext(ctx, &escrow, `SELECT * FROM escrows WHERE job_id = $1 FOR UPDATE`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EscrowResultMissing, nil
		}
		return "", err
	}

	switch escrow.Status {
	case models.EscrowStatusReleased:
		return "", ErrRefundAfterRelease
	case models.EscrowStatusRefunded:
		return models.EscrowResultAlreadyRefunded, nil
	case models.EscrowStatusUnfunded:
		return models.EscrowResultUnfunded, nil
	}
	if !models.CanEscrowTransition(escrow.Status, models.EscrowStatusRefunded) {
		return "", ErrStateConflict
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE escrows SET status = $2, settled_at = NOW()
		WHERE id = $1 AND status = $3
	`, escrow.ID, models.EscrowStatusRefunded, models.EscrowStatusFunded)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrStateConflict
	}

	if err := creditWallet(ctx, tx, escrow.BrandID, escrow.Currency, escrow.AmountCents); err != nil {
		return "", err
	}

	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:        models.LedgerEscrowRefunded,
		AmountCents: escrow.AmountCents,
		Currency:    escrow.Currency,
		ToUserID:    &escrow.BrandID,
		EscrowID:    &escrow.ID,
		Reference:   fmt.Sprintf("escrow_refund:%s", escrow.ID),
	}); err != nil {
		return "", err
	}

	return models.EscrowResultRefunded, nil
}

// ManualAdjust изменяет баланс кошелька на deltaCents по решению
// администратора. Увод баланса в минус допустим только с allowNegative.
func (r *PaymentRepository) ManualAdjust(ctx context.Context, userID uuid.UUID, currency string, deltaCents int64, allowNegative bool) (*models.Wallet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency, balance_cents)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, currency) DO NOTHING
	`, userID, currency)
	if err != nil {
		return nil, err
	}

	var query string
	if allowNegative {
		query = `
			UPDATE wallets SET balance_cents = balance_cents + $3, updated_at = NOW()
			WHERE user_id = $1 AND currency = $2
		`
	} else {
		query = `
			UPDATE wallets SET balance_cents = balance_cents + $3, updated_at = NOW()
			WHERE user_id = $1 AND currency = $2 AND balance_cents + $3 >= 0
		`
	}
	res, err := tx.ExecContext(ctx, query, userID, currency, deltaCents)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrInsufficientFunds
	}

	amount := deltaCents
	var from, to *uuid.UUID
	if deltaCents >= 0 {
		to = &userID
	} else {
		amount = -deltaCents
		from = &userID
	}
	if err := insertLedgerEntry(ctx, tx, &models.LedgerEntry{
		Type:        models.LedgerManualAdjustment,
		AmountCents: amount,
		Currency:    currency,
		FromUserID:  from,
		ToUserID:    to,
		Reference:   fmt.Sprintf("manual_adjust:%s:%s:%s", userID, currency, uuid.New()),
	}); err != nil {
		return nil, err
	}

	var wallet models.Wallet
	if err := tx.GetContext(ctx, &wallet, `
		SELECT * FROM wallets WHERE user_id = $1 AND currency = $2
	`, userID, currency); err != nil {
		return nil, err
	}

	return &wallet, tx.Commit()
}

// creditWallet пополняет кошелёк внутри открытой транзакции.
func creditWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, currency string, amountCents int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency, balance_cents)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, currency) DO UPDATE
		SET balance_cents = wallets.balance_cents + $3, updated_at = NOW()
	`, userID, currency, amountCents)
	if err != nil {
		return fmt.Errorf("payment repository: credit wallet %w", err)
	}
	return nil
}

// insertLedgerEntry пишет запись леджера. Дубликат reference означает,
// что операция уже выполнялась — наружу уходит ErrDuplicateReference.
func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, entry *models.LedgerEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (type, amount_cents, currency, from_user_id, to_user_id, escrow_id, payout_request_id, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.Type, entry.AmountCents, entry.Currency, entry.FromUserID, entry.ToUserID, entry.EscrowID, entry.PayoutRequestID, entry.Reference)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("payment repository: insert ledger entry %w", err)
	}
	return nil
}
