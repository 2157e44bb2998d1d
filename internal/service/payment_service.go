package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/validation"
)

// PaymentRepository описывает денежные операции слоя хранилища.
type PaymentRepository interface {
	GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	ListLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
	GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
	FundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, bool, error)
	ManualAdjust(ctx context.Context, userID uuid.UUID, currency string, deltaCents int64, allowNegative bool) (*models.Wallet, error)
}

// SettingsRepository описывает доступ к настройкам платформы.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	Update(ctx context.Context, commissionBps int64, defaultCurrency string) (*models.PlatformSettings, error)
}

// JobGetter — минимальная зависимость платёжного сервиса от заданий.
type JobGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// PaymentService — кошельки, леджер и финансирование escrow.
type PaymentService struct {
	repo     PaymentRepository
	jobs     JobGetter
	settings SettingsRepository
	events   *EventEmitter
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(repo PaymentRepository, jobs JobGetter, settings SettingsRepository, events *EventEmitter) *PaymentService {
	return &PaymentService{
		repo:     repo,
		jobs:     jobs,
		settings: settings,
		events:   events,
	}
}

// GetWallet возвращает кошелёк пользователя в указанной валюте.
func (s *PaymentService) GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return s.repo.GetWallet(ctx, userID, currency)
}

// ListWallets возвращает все кошельки пользователя.
func (s *PaymentService) ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	return s.repo.ListWallets(ctx, userID)
}

// ListLedger возвращает историю операций пользователя.
func (s *PaymentService) ListLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListLedger(ctx, userID, limit, offset)
}

// GetEscrow возвращает escrow по заданию. Доступ только участникам и админу.
func (s *PaymentService) GetEscrow(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.repo.GetEscrowByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotFound) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, err
	}

	if escrow.BrandID != actor.ID && escrow.CreatorID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	return escrow, nil
}

// FundEscrow фиксирует поступление внешнего платежа бренда по заданию.
// Повторный вызов по уже финансированному escrow идемпотентен.
func (s *PaymentService) FundEscrow(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Escrow, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}

	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if job.ModerationStatus != models.ModerationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не прошло модерацию")
	}
	if job.ActiveCreatorID == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заданию нет принятого исполнителя")
	}

	escrow, funded, err := s.repo.FundEscrow(ctx, jobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEscrowNotFound):
			return nil, apperror.ErrEscrowNotFound
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.ErrStateConflict
		}
		return nil, err
	}

	if funded {
		s.events.Emit(models.EventEscrowFunded, map[string]interface{}{
			"job_id":       jobID,
			"escrow_id":    escrow.ID,
			"amount_cents": escrow.AmountCents,
			"currency":     escrow.Currency,
		})
		s.events.Notify(escrow.CreatorID, models.NotificationPayload{
			Type:  "escrow.funded",
			Title: "Оплата зарезервирована",
			Body:  fmt.Sprintf("Бренд зарезервировал оплату по заданию «%s». Можно приступать к работе.", job.Title),
			Href:  "/jobs/" + jobID.String(),
		})
	}

	return escrow, nil
}

// ManualAdjust — ручная корректировка баланса администратором.
func (s *PaymentService) ManualAdjust(ctx context.Context, actor Actor, userID uuid.UUID, currency string, deltaCents int64) (*models.Wallet, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if deltaCents == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "корректировка не может быть нулевой")
	}

	wallet, err := s.repo.ManualAdjust(ctx, userID, currency, deltaCents, false)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds
		}
		return nil, err
	}
	return wallet, nil
}

// GetSettings возвращает настройки платформы.
func (s *PaymentService) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettings изменяет комиссию и валюту по умолчанию (только админ).
func (s *PaymentService) UpdateSettings(ctx context.Context, actor Actor, commissionBps int64, defaultCurrency string) (*models.PlatformSettings, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if commissionBps < 0 || commissionBps > 10000 {
		return nil, apperror.New(apperror.ErrCodeValidation, "комиссия должна быть от 0 до 10000 базисных пунктов")
	}
	if err := validation.ValidateCurrency(defaultCurrency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return s.settings.Update(ctx, commissionBps, defaultCurrency)
}
