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

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт пользователя и пустой профиль соответствующей роли.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (email, username, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStateConflict
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	switch user.Role {
	case models.RoleBrand:
		_, err = tx.ExecContext(ctx, `INSERT INTO brand_profiles (user_id) VALUES ($1)`, user.ID)
	case models.RoleCreator:
		_, err = tx.ExecContext(ctx, `INSERT INTO creator_profiles (user_id, display_name) VALUES ($1, $2)`, user.ID, user.Username)
	}
	if err != nil {
		return fmt.Errorf("user repository: create profile %w", err)
	}

	return tx.Commit()
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// TouchLastLogin обновляет отметку последнего входа.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// GetBrandProfile возвращает профиль бренда.
func (r *UserRepository) GetBrandProfile(ctx context.Context, userID uuid.UUID) (*models.BrandProfile, error) {
	var profile models.BrandProfile
	if err := r.db.GetContext(ctx, &profile, `SELECT * FROM brand_profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get brand profile %w", err)
	}
	return &profile, nil
}

// UpdateBrandProfile обновляет профиль бренда.
func (r *UserRepository) UpdateBrandProfile(ctx context.Context, profile *models.BrandProfile) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE brand_profiles SET company_name = $2, description = $3, website = $4, updated_at = NOW()
		WHERE user_id = $1
	`, profile.UserID, profile.CompanyName, profile.Description, profile.Website)
	if err != nil {
		return fmt.Errorf("user repository: update brand profile %w", err)
	}
	return nil
}

// GetCreatorProfile возвращает профиль создателя.
func (r *UserRepository) GetCreatorProfile(ctx context.Context, userID uuid.UUID) (*models.CreatorProfile, error) {
	var profile models.CreatorProfile
	if err := r.db.GetContext(ctx, &profile, `SELECT * FROM creator_profiles WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get creator profile %w", err)
	}
	return &profile, nil
}

// UpdateCreatorProfile обновляет профиль создателя.
func (r *UserRepository) UpdateCreatorProfile(ctx context.Context, profile *models.CreatorProfile) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE creator_profiles SET display_name = $2, bio = $3, categories = $4, telegram = $5, updated_at = NOW()
		WHERE user_id = $1
	`, profile.UserID, profile.DisplayName, profile.Bio, profile.Categories, profile.Telegram)
	if err != nil {
		return fmt.Errorf("user repository: update creator profile %w", err)
	}
	return nil
}

// --- Сессии ---

// CreateSession сохраняет refresh-сессию.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}
	return nil
}

// GetSessionByToken возвращает живую сессию по refresh токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM sessions WHERE refresh_token = $1 AND expires_at > $2
	`, token, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию.
func (r *UserRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
