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

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create создаёт спор. Частичный unique индекс по (job_id) WHERE status='OPEN'
// гарантирует не больше одного открытого спора на задание; проигравший
// гонку получает ErrStateConflict и перечитывает существующий спор.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (job_id, opened_by_user_id, opened_by_role, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		d.JobID, d.OpenedByUserID, d.OpenedByRole, d.Reason, models.DisputeStatusOpen,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStateConflict
		}
		return fmt.Errorf("dispute repository: create %w", err)
	}
	d.Status = models.DisputeStatusOpen
	return nil
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	if err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// GetOpenByJobID возвращает открытый спор по заданию.
func (r *DisputeRepository) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes WHERE job_id = $1 AND status = $2
	`, jobID, models.DisputeStatusOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get open by job %w", err)
	}
	return &d, nil
}

// GetLatestByJobID возвращает последний спор по заданию (любого статуса).
func (r *DisputeRepository) GetLatestByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get latest by job %w", err)
	}
	return &d, nil
}

// Resolve переводит спор OPEN -> RESOLVED условным UPDATE.
func (r *DisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedBy uuid.UUID, adminNote string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, resolution = $3, resolved_by_user_id = $4,
			admin_note = $5, resolved_at = NOW()
		WHERE id = $1 AND status = $6
	`, id, models.DisputeStatusResolved, resolution, resolvedBy, adminNote, models.DisputeStatusOpen)
	if err != nil {
		return fmt.Errorf("dispute repository: resolve %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStateConflict
	}
	return nil
}

// ListOpen возвращает открытые споры (очередь администратора).
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, models.DisputeStatusOpen, limit, offset)
	return disputes, err
}

// ListByUser возвращает споры по заданиям, где пользователь — бренд или исполнитель.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT d.* FROM disputes d
		JOIN jobs j ON d.job_id = j.id
		WHERE j.brand_id = $1 OR j.active_creator_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return disputes, err
}

// AddMessage добавляет сообщение в тред спора.
func (r *DisputeRepository) AddMessage(ctx context.Context, m *models.DisputeMessage) error {
	query := `
		INSERT INTO dispute_messages (dispute_id, author_id, kind, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, m.DisputeID, m.AuthorID, m.Kind, m.Body).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: add message %w", err)
	}
	return nil
}

// ListMessages возвращает тред спора в хронологическом порядке.
func (r *DisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID, limit, offset int) ([]models.DisputeMessage, error) {
	var messages []models.DisputeMessage
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM dispute_messages WHERE dispute_id = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, disputeID, limit, offset)
	return messages, err
}
