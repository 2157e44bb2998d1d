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

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create создаёт задание в статусе DRAFT с модерацией PENDING.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (brand_id, title, description, budget_min_cents, budget_max_cents, currency, status, moderation_status, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		job.BrandID, job.Title, job.Description, job.BudgetMinCents, job.BudgetMaxCents,
		job.Currency, models.JobStatusDraft, models.ModerationStatusPending, job.DeadlineAt,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}
	job.Status = models.JobStatusDraft
	job.ModerationStatus = models.ModerationStatusPending
	return nil
}

// GetByID возвращает задание по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return &job, nil
}

// Update обновляет редактируемые поля задания (только до публикации).
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET title = $2, description = $3, budget_min_cents = $4,
			budget_max_cents = $5, currency = $6, deadline_at = $7, updated_at = NOW()
		WHERE id = $1 AND status = $8
	`, job.ID, job.Title, job.Description, job.BudgetMinCents, job.BudgetMaxCents,
		job.Currency, job.DeadlineAt, models.JobStatusDraft)
	if err != nil {
		return fmt.Errorf("job repository: update %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}

// UpdateStatus выполняет условный переход статуса задания.
// Ноль затронутых строк означает проигранную гонку или недопустимый переход.
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, id, to, from)
	if err != nil {
		return fmt.Errorf("job repository: update status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}

// UpdateModeration выполняет условный переход статуса модерации.
func (r *JobRepository) UpdateModeration(ctx context.Context, id uuid.UUID, from []string, to string) error {
	query, args, err := sqlx.In(`
		UPDATE jobs SET moderation_status = ?, updated_at = NOW()
		WHERE id = ? AND moderation_status IN (?)
	`, to, id, from)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("job repository: update moderation %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}

// ListVisible возвращает задания, видимые создателям:
// опубликованные и одобренные модерацией.
func (r *JobRepository) ListVisible(ctx context.Context, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs
		WHERE status = $1 AND moderation_status = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, models.JobStatusPublished, models.ModerationStatusApproved, limit, offset)
	return jobs, err
}

// ListByBrand возвращает задания бренда.
func (r *JobRepository) ListByBrand(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE brand_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, brandID, limit, offset)
	return jobs, err
}

// ListByActiveCreator возвращает задания, где создатель выбран исполнителем.
func (r *JobRepository) ListByActiveCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE active_creator_id = $1 ORDER BY updated_at DESC LIMIT $2 OFFSET $3
	`, creatorID, limit, offset)
	return jobs, err
}

// ListModerationQueue возвращает задания, ожидающие модерации.
func (r *JobRepository) ListModerationQueue(ctx context.Context, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs
		WHERE moderation_status = $1 AND status <> $2
		ORDER BY created_at ASC LIMIT $3 OFFSET $4
	`, models.ModerationStatusPending, models.JobStatusDraft, limit, offset)
	return jobs, err
}
