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

// MediaRepository хранит метаданные загруженных файлов.
type MediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, file *models.MediaFile) (*models.MediaFile, error) {
	var created models.MediaFile
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO media_files (owner_id, file_name, mime_type, size_bytes, storage_path, url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, file.OwnerID, file.FileName, file.MimeType, file.SizeBytes, file.StoragePath, file.URL)
	if err != nil {
		return nil, fmt.Errorf("media repository: create %w", err)
	}
	return &created, nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaFile, error) {
	var file models.MediaFile
	err := r.db.GetContext(ctx, &file, `SELECT * FROM media_files WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("media repository: get by id %w", err)
	}
	return &file, nil
}

func (r *MediaRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.MediaFile, error) {
	var files []models.MediaFile
	err := r.db.SelectContext(ctx, &files, `
		SELECT * FROM media_files WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	return files, err
}

func (r *MediaRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM media_files WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return fmt.Errorf("media repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMediaNotFound
	}
	return nil
}
