package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
)

// mockPayoutRepository реализует PayoutRepository поверх карты в памяти.
// Балансы моделируются полем balances: создание заявки списывает холд,
// отклонение и отмена возвращают его.
type mockPayoutRepository struct {
	payouts  map[uuid.UUID]*models.PayoutRequest
	balances map[uuid.UUID]int64
}

func newMockPayoutRepository() *mockPayoutRepository {
	return &mockPayoutRepository{
		payouts:  make(map[uuid.UUID]*models.PayoutRequest),
		balances: make(map[uuid.UUID]int64),
	}
}

func (m *mockPayoutRepository) Create(ctx context.Context, userID uuid.UUID, amountCents int64, currency, payoutMethod string) (*models.PayoutRequest, error) {
	for _, p := range m.payouts {
		if p.UserID == userID && p.Status == models.PayoutStatusPending {
			return nil, repository.ErrPayoutPendingExists
		}
	}
	if m.balances[userID] < amountCents {
		return nil, repository.ErrInsufficientFunds
	}
	m.balances[userID] -= amountCents

	payout := &models.PayoutRequest{
		ID:           uuid.New(),
		UserID:       userID,
		AmountCents:  amountCents,
		Currency:     currency,
		Status:       models.PayoutStatusPending,
		PayoutMethod: payoutMethod,
	}
	m.payouts[payout.ID] = payout
	return payout, nil
}

func (m *mockPayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	if p, ok := m.payouts[id]; ok {
		return p, nil
	}
	return nil, repository.ErrPayoutNotFound
}

func (m *mockPayoutRepository) GetPendingByUser(ctx context.Context, userID uuid.UUID) (*models.PayoutRequest, error) {
	for _, p := range m.payouts {
		if p.UserID == userID && p.Status == models.PayoutStatusPending {
			return p, nil
		}
	}
	return nil, repository.ErrPayoutNotFound
}

func (m *mockPayoutRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PayoutRequest, error) {
	var result []models.PayoutRequest
	for _, p := range m.payouts {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPayoutRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.PayoutRequest, error) {
	var result []models.PayoutRequest
	for _, p := range m.payouts {
		if p.Status == status {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPayoutRepository) transition(id uuid.UUID, to string) (*models.PayoutRequest, error) {
	p, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrPayoutNotFound
	}
	if !models.CanPayoutTransition(p.Status, to) {
		return nil, repository.ErrStateConflict
	}
	p.Status = to
	return p, nil
}

func (m *mockPayoutRepository) Approve(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	return m.transition(id, models.PayoutStatusApproved)
}

func (m *mockPayoutRepository) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.PayoutRequest, error) {
	p, err := m.transition(id, models.PayoutStatusRejected)
	if err != nil {
		return nil, err
	}
	p.RejectionReason = &reason
	m.balances[p.UserID] += p.AmountCents
	return p, nil
}

func (m *mockPayoutRepository) Cancel(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	p, err := m.transition(id, models.PayoutStatusCanceled)
	if err != nil {
		return nil, err
	}
	m.balances[p.UserID] += p.AmountCents
	return p, nil
}

func TestPayoutService_Request(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	repo.balances[creator.ID] = 50000

	payout, err := service.Request(context.Background(), creator, 20000, "RUB", "card:2202********1234")
	if err != nil {
		t.Fatalf("request вернул ошибку: %v", err)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("статус = %s, ожидался PENDING", payout.Status)
	}
	if repo.balances[creator.ID] != 30000 {
		t.Errorf("баланс = %d, сумма должна быть зарезервирована", repo.balances[creator.ID])
	}
}

func TestPayoutService_RequestValidation(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)
	ctx := context.Background()

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	repo.balances[creator.ID] = 1000000

	if _, err := service.Request(ctx, Actor{ID: uuid.New(), Role: models.RoleAdmin}, 20000, "RUB", "card"); !apperror.IsForbidden(err) {
		t.Errorf("админ не выводит средства, получили %v", err)
	}
	if _, err := service.Request(ctx, Actor{ID: uuid.New(), Role: models.RoleBrand}, 20000, "RUB", "card:1234"); !apperror.IsForbidden(err) {
		t.Errorf("бренд не выводит средства, получили %v", err)
	}
	if _, err := service.Request(ctx, creator, MinPayoutCents-1, "RUB", "card:1234"); err == nil {
		t.Error("сумма ниже минимальной должна быть отклонена")
	}
	if _, err := service.Request(ctx, creator, 20000, "GBP", "card:1234"); err == nil {
		t.Error("неподдерживаемая валюта должна быть отклонена")
	}
	if _, err := service.Request(ctx, creator, 20000, "RUB", "xx"); err == nil {
		t.Error("слишком короткий способ вывода должен быть отклонён")
	}
}

func TestPayoutService_RequestInsufficientFunds(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	repo.balances[creator.ID] = 5000

	_, err := service.Request(context.Background(), creator, 20000, "RUB", "card:1234")
	if err != apperror.ErrInsufficientFunds {
		t.Fatalf("ожидался ErrInsufficientFunds, получили %v", err)
	}
}

func TestPayoutService_SecondPendingRequestRejected(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)
	ctx := context.Background()

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	repo.balances[creator.ID] = 100000

	first, err := service.Request(ctx, creator, 20000, "RUB", "card:1234")
	if err != nil {
		t.Fatalf("первая заявка вернула ошибку: %v", err)
	}
	_, err = service.Request(ctx, creator, 20000, "RUB", "card:1234")
	if !apperror.IsConflict(err) {
		t.Fatalf("ожидался конфликт PAYOUT_PENDING, получили %v", err)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("ожидался AppError, получили %v", err)
	}
	if appErr.Details["pending_payout_id"] != first.ID.String() {
		t.Errorf("в деталях должен быть id активной заявки, получили %v", appErr.Details)
	}
}

func TestPayoutService_CancelReturnsHold(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)
	ctx := context.Background()

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	repo.balances[creator.ID] = 50000

	payout, err := service.Request(ctx, creator, 20000, "RUB", "card:1234")
	if err != nil {
		t.Fatalf("request вернул ошибку: %v", err)
	}

	// Чужую заявку отменить нельзя.
	stranger := Actor{ID: uuid.New(), Role: models.RoleCreator}
	if _, err := service.Cancel(ctx, stranger, payout.ID); !apperror.IsForbidden(err) {
		t.Fatalf("отмена чужой заявки должна быть запрещена, получили %v", err)
	}

	canceled, err := service.Cancel(ctx, creator, payout.ID)
	if err != nil {
		t.Fatalf("cancel вернул ошибку: %v", err)
	}
	if canceled.Status != models.PayoutStatusCanceled {
		t.Errorf("статус = %s, ожидался CANCELED", canceled.Status)
	}
	if repo.balances[creator.ID] != 50000 {
		t.Errorf("баланс = %d, холд должен вернуться", repo.balances[creator.ID])
	}

	// Обработанную заявку нельзя отменить повторно.
	if _, err := service.Cancel(ctx, creator, payout.ID); !apperror.IsConflict(err) {
		t.Fatalf("повторная отмена должна вернуть конфликт, получили %v", err)
	}
}

func TestPayoutService_ApproveAndReject(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)
	ctx := context.Background()

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	repo.balances[creator.ID] = 100000

	payout, err := service.Request(ctx, creator, 20000, "RUB", "card:1234")
	if err != nil {
		t.Fatalf("request вернул ошибку: %v", err)
	}

	if _, err := service.Approve(ctx, creator, payout.ID); !apperror.IsForbidden(err) {
		t.Fatalf("approve доступен только админу, получили %v", err)
	}

	approved, err := service.Approve(ctx, admin, payout.ID)
	if err != nil {
		t.Fatalf("approve вернул ошибку: %v", err)
	}
	if approved.Status != models.PayoutStatusApproved {
		t.Errorf("статус = %s, ожидался APPROVED", approved.Status)
	}
	// Холд уже списан, баланс не меняется.
	if repo.balances[creator.ID] != 80000 {
		t.Errorf("баланс = %d, ожидалось 80000", repo.balances[creator.ID])
	}

	// Одобренную заявку нельзя отклонить.
	if _, err := service.Reject(ctx, admin, payout.ID, "поздно"); !apperror.IsConflict(err) {
		t.Fatalf("reject обработанной заявки должен вернуть конфликт, получили %v", err)
	}
}

func TestPayoutService_RejectReturnsHold(t *testing.T) {
	repo := newMockPayoutRepository()
	service := NewPayoutService(repo, nil)
	ctx := context.Background()

	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	repo.balances[creator.ID] = 30000

	payout, err := service.Request(ctx, creator, 30000, "RUB", "card:1234")
	if err != nil {
		t.Fatalf("request вернул ошибку: %v", err)
	}

	rejected, err := service.Reject(ctx, admin, payout.ID, "реквизиты не прошли проверку")
	if err != nil {
		t.Fatalf("reject вернул ошибку: %v", err)
	}
	if rejected.Status != models.PayoutStatusRejected {
		t.Errorf("статус = %s, ожидался REJECTED", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason == "" {
		t.Error("причина отклонения должна сохраняться")
	}
	if repo.balances[creator.ID] != 30000 {
		t.Errorf("баланс = %d, холд должен вернуться", repo.balances[creator.ID])
	}
}
