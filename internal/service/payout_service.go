package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/validation"
)

// Минимальная сумма заявки на вывод в минорных единицах.
const MinPayoutCents = int64(10000)

// PayoutRepository описывает операции с заявками на вывод.
type PayoutRepository interface {
	Create(ctx context.Context, userID uuid.UUID, amountCents int64, currency, payoutMethod string) (*models.PayoutRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	GetPendingByUser(ctx context.Context, userID uuid.UUID) (*models.PayoutRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PayoutRequest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.PayoutRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.PayoutRequest, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
}

// PayoutService — вывод средств с баланса. Сумма резервируется при
// создании заявки; отклонение и отмена возвращают её на баланс.
type PayoutService struct {
	repo   PayoutRepository
	events *EventEmitter
}

// NewPayoutService создаёт сервис выводов.
func NewPayoutService(repo PayoutRepository, events *EventEmitter) *PayoutService {
	return &PayoutService{repo: repo, events: events}
}

// Request создаёт заявку на вывод. Выводить средства могут только
// исполнители, и одновременно у пользователя может быть только одна
// активная заявка.
func (s *PayoutService) Request(ctx context.Context, actor Actor, amountCents int64, currency, payoutMethod string) (*models.PayoutRequest, error) {
	if actor.Role != models.RoleCreator {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmountCents("сумма вывода", amountCents); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if amountCents < MinPayoutCents {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма вывода меньше минимальной")
	}
	if err := validation.ValidateLength("способ вывода", payoutMethod, 3, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	// Активная заявка блокирует новую; её id отдаём в деталях, чтобы
	// клиент мог сразу показать или отменить её.
	pending, err := s.repo.GetPendingByUser(ctx, actor.ID)
	switch {
	case err == nil:
		return nil, apperror.ErrPayoutPending.WithDetails(map[string]interface{}{
			"pending_payout_id": pending.ID.String(),
		})
	case !errors.Is(err, repository.ErrPayoutNotFound):
		return nil, err
	}

	payout, err := s.repo.Create(ctx, actor.ID, amountCents, currency, payoutMethod)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, apperror.ErrInsufficientFunds
		case errors.Is(err, repository.ErrPayoutPendingExists):
			return nil, apperror.ErrPayoutPending
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		}
		return nil, err
	}

	s.events.Emit(models.EventPayoutRequested, map[string]interface{}{
		"payout_id":    payout.ID,
		"user_id":      actor.ID,
		"amount_cents": amountCents,
		"currency":     currency,
	})
	return payout, nil
}

// Get возвращает заявку. Доступ у владельца и админа.
func (s *PayoutService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.PayoutRequest, error) {
	payout, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if payout.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return payout, nil
}

// ListMine возвращает заявки актора.
func (s *PayoutService) ListMine(ctx context.Context, actor Actor, limit, offset int) ([]models.PayoutRequest, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByUser(ctx, actor.ID, limit, offset)
}

// ListPending возвращает очередь заявок на обработку (только админ).
func (s *PayoutService) ListPending(ctx context.Context, actor Actor, limit, offset int) ([]models.PayoutRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByStatus(ctx, models.PayoutStatusPending, limit, offset)
}

// Cancel отменяет собственную заявку, сумма возвращается на баланс.
func (s *PayoutService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*models.PayoutRequest, error) {
	payout, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if payout.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if !models.CanPayoutTransition(payout.Status, models.PayoutStatusCanceled) {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	}

	canceled, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, s.mapTransitionErr(err)
	}
	return canceled, nil
}

// Approve подтверждает выплату (только админ). Средства уже
// зарезервированы, баланс не меняется.
func (s *PayoutService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*models.PayoutRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	current, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanPayoutTransition(current.Status, models.PayoutStatusApproved) {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	}

	payout, err := s.repo.Approve(ctx, id)
	if err != nil {
		return nil, s.mapTransitionErr(err)
	}

	s.events.Emit(models.EventPayoutProcessed, map[string]interface{}{
		"payout_id": payout.ID,
		"user_id":   payout.UserID,
		"status":    payout.Status,
	})
	s.events.Notify(payout.UserID, models.NotificationPayload{
		Type:  "payout.approved",
		Title: "Выплата подтверждена",
		Body:  "Заявка на вывод обработана, средства отправлены.",
		Href:  "/payouts",
	})
	return payout, nil
}

// Reject отклоняет выплату (только админ), сумма возвращается на баланс.
func (s *PayoutService) Reject(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.PayoutRequest, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("причина отклонения", reason, 3, validation.MaxRejectionReason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	current, err := s.getPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanPayoutTransition(current.Status, models.PayoutStatusRejected) {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	}

	payout, err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		return nil, s.mapTransitionErr(err)
	}

	s.events.Emit(models.EventPayoutProcessed, map[string]interface{}{
		"payout_id": payout.ID,
		"user_id":   payout.UserID,
		"status":    payout.Status,
	})
	s.events.Notify(payout.UserID, models.NotificationPayload{
		Type:  "payout.rejected",
		Title: "Выплата отклонена",
		Body:  "Заявка на вывод отклонена, сумма возвращена на баланс: " + reason,
		Href:  "/payouts",
	})
	return payout, nil
}

func (s *PayoutService) getPayout(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	payout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPayoutNotFound) {
			return nil, apperror.ErrPayoutNotFound
		}
		return nil, err
	}
	return payout, nil
}

func (s *PayoutService) mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrPayoutNotFound):
		return apperror.ErrPayoutNotFound
	case errors.Is(err, repository.ErrStateConflict):
		return apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	case errors.Is(err, repository.ErrDuplicateReference):
		return apperror.ErrOperationReplayed
	}
	return err
}
