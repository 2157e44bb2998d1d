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

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// CreateAndMoveToReview создаёт новую версию сдачи (version = max+1) и
// переводит задание PAUSED -> IN_REVIEW одной транзакцией.
func (r *SubmissionRepository) CreateAndMoveToReview(ctx context.Context, sub *models.Submission) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Блокируем задание, чтобы версия считалась без гонок.
	var job models.Job
	err = tx.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1 FOR UPDATE`, sub.JobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrJobNotFound
		}
		return err
	}

	query := `
		INSERT INTO submissions (job_id, creator_id, version, status, content, media_id)
		VALUES ($1, $2, (SELECT COALESCE(MAX(version), 0) + 1 FROM submissions WHERE job_id = $1), $3, $4, $5)
		RETURNING id, version, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		sub.JobID, sub.CreatorID, models.SubmissionStatusSubmitted, sub.Content, sub.MediaID,
	).Scan(&sub.ID, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("submission repository: create %w", err)
	}
	sub.Status = models.SubmissionStatusSubmitted

	res, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, sub.JobID, models.JobStatusInReview, models.JobStatusPaused)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}

	return tx.Commit()
}

// GetLatestByJob возвращает последнюю версию сдачи по заданию.
func (r *SubmissionRepository) GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Submission, error) {
	var sub models.Submission
	err := r.db.GetContext(ctx, &sub, `
		SELECT * FROM submissions WHERE job_id = $1 ORDER BY version DESC LIMIT 1
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("submission repository: get latest %w", err)
	}
	return &sub, nil
}

// ListByJob возвращает все версии сдач по заданию.
func (r *SubmissionRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Submission, error) {
	var subs []models.Submission
	err := r.db.SelectContext(ctx, &subs, `
		SELECT * FROM submissions WHERE job_id = $1 ORDER BY version ASC
	`, jobID)
	return subs, err
}

// RequestChanges помечает последнюю сдачу CHANGES_REQUESTED и возвращает
// задание IN_REVIEW -> PAUSED одной транзакцией.
func (r *SubmissionRepository) RequestChanges(ctx context.Context, jobID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE submissions SET status = $2, updated_at = NOW()
		WHERE job_id = $1 AND version = (SELECT MAX(version) FROM submissions WHERE job_id = $1)
		  AND status = $3
	`, jobID, models.SubmissionStatusChangesRequested, models.SubmissionStatusSubmitted)
	if err != nil {
		return fmt.Errorf("submission repository: request changes %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusPaused, models.JobStatusInReview)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}

	return tx.Commit()
}
