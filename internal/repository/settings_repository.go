package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// SettingsRepository хранит единственную строку настроек платформы.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает настройки платформы. Если строка ещё не создана,
// возвращаются значения по умолчанию.
func (r *SettingsRepository) Get(ctx context.Context) (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	err := r.db.GetContext(ctx, &settings, `SELECT * FROM platform_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.PlatformSettings{
			CommissionBps:   models.DefaultCommissionBps,
			DefaultCurrency: "RUB",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings repository: get %w", err)
	}
	return &settings, nil
}

// EnsureExists создаёт строку настроек со стартовыми значениями,
// если её ещё нет. Уже заданные админом значения не трогает.
func (r *SettingsRepository) EnsureExists(ctx context.Context, commissionBps int64, defaultCurrency string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO platform_settings (id, commission_bps, default_currency)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO NOTHING
	`, commissionBps, defaultCurrency)
	if err != nil {
		return fmt.Errorf("settings repository: ensure exists %w", err)
	}
	return nil
}

// Update изменяет настройки (upsert единственной строки).
func (r *SettingsRepository) Update(ctx context.Context, commissionBps int64, defaultCurrency string) (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	err := r.db.GetContext(ctx, &settings, `
		INSERT INTO platform_settings (id, commission_bps, default_currency, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET commission_bps = EXCLUDED.commission_bps,
		    default_currency = EXCLUDED.default_currency,
		    updated_at = NOW()
		RETURNING *
	`, commissionBps, defaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("settings repository: update %w", err)
	}
	return &settings, nil
}
