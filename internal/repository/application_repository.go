package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create создаёт отклик. Повторный отклик того же создателя на задание
// упирается в unique constraint.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (job_id, creator_id, cover_letter, quoted_price_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		app.JobID, app.CreatorID, app.CoverLetter, app.QuotedPriceCents, models.ApplicationStatusPending,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStateConflict
		}
		return fmt.Errorf("application repository: create %w", err)
	}
	app.Status = models.ApplicationStatusPending
	return nil
}

// GetByID возвращает отклик по идентификатору.
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.GetContext(ctx, &app, `SELECT * FROM applications WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: get by id %w", err)
	}
	return &app, nil
}

// GetByJobAndCreator возвращает отклик создателя на конкретное задание.
func (r *ApplicationRepository) GetByJobAndCreator(ctx context.Context, jobID, creatorID uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.GetContext(ctx, &app, `
		SELECT * FROM applications WHERE job_id = $1 AND creator_id = $2
	`, jobID, creatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: get by job and creator %w", err)
	}
	return &app, nil
}

// ListByJob возвращает отклики на задание.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications WHERE job_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, jobID, limit, offset)
	return apps, err
}

// ListByCreator возвращает отклики создателя.
func (r *ApplicationRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications WHERE creator_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, creatorID, limit, offset)
	return apps, err
}

// UpdateStatus выполняет условный переход статуса отклика.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, id, to, from)
	if err != nil {
		return fmt.Errorf("application repository: update status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}

// Accept принимает отклик одной транзакцией: ровно один победитель,
// остальные PENDING отклики отклоняются пачкой, задание уходит в PAUSED
// с назначенным исполнителем, создаются escrow и диалог.
// Сумма escrow — цена из отклика, иначе максимум бюджета задания.
func (r *ApplicationRepository) Accept(ctx context.Context, applicationID uuid.UUID) (*models.Application, *models.Escrow, *models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback()

	var app models.Application
	err = tx.GetContext(ctx, &app, `SELECT * FROM applications WHERE id = $1 FOR UPDATE`, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, ErrApplicationNotFound
		}
		return nil, nil, nil, err
	}

	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, app.JobID)
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, app.ID, models.ApplicationStatusAccepted, models.ApplicationStatusPending)
	if err != nil {
		return nil, nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, nil, ErrStateConflict
	}

	// Остальные активные отклики отклоняются атомарно с победителем.
	_, err = tx.ExecContext(ctx, `
		UPDATE applications SET status = $3, updated_at = NOW()
		WHERE job_id = $1 AND id <> $2 AND status = $4
	`, app.JobID, app.ID, models.ApplicationStatusRejected, models.ApplicationStatusPending)
	if err != nil {
		return nil, nil, nil, err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, active_creator_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND active_creator_id IS NULL
	`, job.ID, models.JobStatusPaused, app.CreatorID, models.JobStatusPublished)
	if err != nil {
		return nil, nil, nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, nil, ErrStateConflict
	}

	amount := int64(0)
	if app.QuotedPriceCents != nil {
		amount = *app.QuotedPriceCents
	} else if job.BudgetMaxCents != nil {
		amount = *job.BudgetMaxCents
	}

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `
		INSERT INTO escrows (job_id, brand_id, creator_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id) DO UPDATE SET creator_id = $3, amount_cents = $4
		RETURNING *
	`, job.ID, job.BrandID, app.CreatorID, amount, job.Currency, models.EscrowStatusUnfunded)
	if err != nil {
		return nil, nil, nil, err
	}

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv, `
		INSERT INTO conversations (job_id, brand_id, creator_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id, creator_id) DO UPDATE SET updated_at = NOW()
		RETURNING *
	`, job.ID, job.BrandID, app.CreatorID)
	if err != nil {
		return nil, nil, nil, err
	}

	app.Status = models.ApplicationStatusAccepted
	return &app, &escrow, &conv, tx.Commit()
}

// --- Приглашения ---

// CreateInvitation создаёт приглашение создателя на задание.
func (r *ApplicationRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (job_id, brand_id, creator_id, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		inv.JobID, inv.BrandID, inv.CreatorID, inv.Message, models.InvitationStatusPending,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStateConflict
		}
		return fmt.Errorf("application repository: create invitation %w", err)
	}
	inv.Status = models.InvitationStatusPending
	return nil
}

// GetInvitationByID возвращает приглашение.
func (r *ApplicationRepository) GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.GetContext(ctx, &inv, `SELECT * FROM invitations WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("application repository: get invitation %w", err)
	}
	return &inv, nil
}

// ListInvitationsByCreator возвращает приглашения создателя.
func (r *ApplicationRepository) ListInvitationsByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Invitation, error) {
	var invs []models.Invitation
	err := r.db.SelectContext(ctx, &invs, `
		SELECT * FROM invitations WHERE creator_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, creatorID, limit, offset)
	return invs, err
}

// UpdateInvitationStatus выполняет условный переход статуса приглашения.
func (r *ApplicationRepository) UpdateInvitationStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, id, to, from)
	if err != nil {
		return fmt.Errorf("application repository: update invitation status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}
