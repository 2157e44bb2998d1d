package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
)

type walletKey struct {
	userID   uuid.UUID
	currency string
}

// mockPaymentRepository реализует PaymentRepository в памяти.
type mockPaymentRepository struct {
	wallets map[walletKey]*models.Wallet
	escrows map[uuid.UUID]*models.Escrow
	ledger  []models.LedgerEntry
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		wallets: make(map[walletKey]*models.Wallet),
		escrows: make(map[uuid.UUID]*models.Escrow),
	}
}

func (m *mockPaymentRepository) GetWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	key := walletKey{userID, currency}
	if wallet, ok := m.wallets[key]; ok {
		copied := *wallet
		return &copied, nil
	}
	// Кошелёк создаётся лениво с нулевым балансом.
	return &models.Wallet{UserID: userID, Currency: currency}, nil
}

func (m *mockPaymentRepository) ListWallets(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	var result []models.Wallet
	for _, wallet := range m.wallets {
		if wallet.UserID == userID {
			result = append(result, *wallet)
		}
	}
	return result, nil
}

func (m *mockPaymentRepository) ListLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	return m.ledger, nil
}

func (m *mockPaymentRepository) GetEscrowByJobID(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	if escrow, ok := m.escrows[jobID]; ok {
		copied := *escrow
		return &copied, nil
	}
	return nil, repository.ErrEscrowNotFound
}

func (m *mockPaymentRepository) FundEscrow(ctx context.Context, jobID uuid.UUID) (*models.Escrow, bool, error) {
	escrow, ok := m.escrows[jobID]
	if !ok {
		return nil, false, repository.ErrEscrowNotFound
	}
	switch escrow.Status {
	case models.EscrowStatusUnfunded:
		escrow.Status = models.EscrowStatusFunded
		copied := *escrow
		return &copied, true, nil
	case models.EscrowStatusFunded:
		// Повторный платёж по финансированному escrow идемпотентен.
		copied := *escrow
		return &copied, false, nil
	}
	return nil, false, repository.ErrStateConflict
}

func (m *mockPaymentRepository) ManualAdjust(ctx context.Context, userID uuid.UUID, currency string, deltaCents int64, allowNegative bool) (*models.Wallet, error) {
	key := walletKey{userID, currency}
	wallet, ok := m.wallets[key]
	if !ok {
		wallet = &models.Wallet{UserID: userID, Currency: currency}
		m.wallets[key] = wallet
	}
	if !allowNegative && wallet.BalanceCents+deltaCents < 0 {
		return nil, repository.ErrInsufficientFunds
	}
	wallet.BalanceCents += deltaCents
	copied := *wallet
	return &copied, nil
}

type paymentServiceFixture struct {
	repo    *mockPaymentRepository
	jobs    *mockJobRepository
	service *PaymentService
}

func newPaymentServiceFixture() *paymentServiceFixture {
	repo := newMockPaymentRepository()
	jobs := newMockJobRepository()
	return &paymentServiceFixture{
		repo:    repo,
		jobs:    jobs,
		service: NewPaymentService(repo, jobs, newMockSettingsRepository(), nil),
	}
}

func TestPaymentService_GetWalletValidatesCurrency(t *testing.T) {
	f := newPaymentServiceFixture()

	if _, err := f.service.GetWallet(context.Background(), uuid.New(), "GBP"); err == nil {
		t.Fatal("неподдерживаемая валюта должна быть отклонена")
	}

	wallet, err := f.service.GetWallet(context.Background(), uuid.New(), "RUB")
	if err != nil {
		t.Fatalf("get wallet вернул ошибку: %v", err)
	}
	if wallet.BalanceCents != 0 {
		t.Errorf("новый кошелёк должен быть пустым, получили %d", wallet.BalanceCents)
	}
}

func TestPaymentService_FundEscrow(t *testing.T) {
	f := newPaymentServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creatorID := uuid.New()

	job := &models.Job{
		ID:               uuid.New(),
		BrandID:          brand.ID,
		Title:            "Обзор набора чая",
		Status:           models.JobStatusPaused,
		ModerationStatus: models.ModerationStatusApproved,
		ActiveCreatorID:  &creatorID,
	}
	f.jobs.jobs[job.ID] = job
	f.repo.escrows[job.ID] = &models.Escrow{
		ID:          uuid.New(),
		JobID:       job.ID,
		BrandID:     brand.ID,
		CreatorID:   creatorID,
		AmountCents: 50000,
		Currency:    "RUB",
		Status:      models.EscrowStatusUnfunded,
	}

	if _, err := f.service.FundEscrow(ctx, Actor{ID: uuid.New(), Role: models.RoleBrand}, job.ID); !apperror.IsForbidden(err) {
		t.Fatalf("финансировать может только владелец задания, получили %v", err)
	}

	escrow, err := f.service.FundEscrow(ctx, brand, job.ID)
	if err != nil {
		t.Fatalf("fund вернул ошибку: %v", err)
	}
	if escrow.Status != models.EscrowStatusFunded {
		t.Errorf("статус = %s, ожидался FUNDED", escrow.Status)
	}

	// Повторное финансирование идемпотентно.
	again, err := f.service.FundEscrow(ctx, brand, job.ID)
	if err != nil {
		t.Fatalf("повторный fund вернул ошибку: %v", err)
	}
	if again.Status != models.EscrowStatusFunded {
		t.Errorf("статус = %s, ожидался FUNDED", again.Status)
	}
}

func TestPaymentService_FundEscrowGuards(t *testing.T) {
	f := newPaymentServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}

	// Без принятого исполнителя финансировать нечего.
	job := &models.Job{
		ID:               uuid.New(),
		BrandID:          brand.ID,
		Status:           models.JobStatusPublished,
		ModerationStatus: models.ModerationStatusApproved,
	}
	f.jobs.jobs[job.ID] = job
	if _, err := f.service.FundEscrow(ctx, brand, job.ID); !apperror.IsConflict(err) {
		t.Fatalf("fund без исполнителя должен вернуть конфликт, получили %v", err)
	}

	// Немодерированное задание не финансируется.
	creatorID := uuid.New()
	pending := &models.Job{
		ID:               uuid.New(),
		BrandID:          brand.ID,
		Status:           models.JobStatusPaused,
		ModerationStatus: models.ModerationStatusPending,
		ActiveCreatorID:  &creatorID,
	}
	f.jobs.jobs[pending.ID] = pending
	if _, err := f.service.FundEscrow(ctx, brand, pending.ID); !apperror.IsConflict(err) {
		t.Fatalf("fund немодерированного задания должен вернуть конфликт, получили %v", err)
	}
}

func TestPaymentService_ManualAdjust(t *testing.T) {
	f := newPaymentServiceFixture()
	ctx := context.Background()
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	userID := uuid.New()

	if _, err := f.service.ManualAdjust(ctx, Actor{ID: uuid.New(), Role: models.RoleBrand}, userID, "RUB", 1000); !apperror.IsForbidden(err) {
		t.Fatalf("корректировка доступна только админу, получили %v", err)
	}
	if _, err := f.service.ManualAdjust(ctx, admin, userID, "RUB", 0); err == nil {
		t.Fatal("нулевая корректировка должна быть отклонена")
	}

	wallet, err := f.service.ManualAdjust(ctx, admin, userID, "RUB", 5000)
	if err != nil {
		t.Fatalf("adjust вернул ошибку: %v", err)
	}
	if wallet.BalanceCents != 5000 {
		t.Errorf("баланс = %d, ожидалось 5000", wallet.BalanceCents)
	}

	// Баланс не уводится в минус.
	if _, err := f.service.ManualAdjust(ctx, admin, userID, "RUB", -10000); err != apperror.ErrInsufficientFunds {
		t.Fatalf("ожидался ErrInsufficientFunds, получили %v", err)
	}
}

func TestPaymentService_UpdateSettings(t *testing.T) {
	f := newPaymentServiceFixture()
	ctx := context.Background()
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}

	if _, err := f.service.UpdateSettings(ctx, Actor{ID: uuid.New(), Role: models.RoleBrand}, 1000, "RUB"); !apperror.IsForbidden(err) {
		t.Fatalf("настройки меняет только админ, получили %v", err)
	}
	if _, err := f.service.UpdateSettings(ctx, admin, 10001, "RUB"); err == nil {
		t.Fatal("комиссия выше 10000 bps должна быть отклонена")
	}
	if _, err := f.service.UpdateSettings(ctx, admin, 1000, "GBP"); err == nil {
		t.Fatal("неподдерживаемая валюта должна быть отклонена")
	}

	settings, err := f.service.UpdateSettings(ctx, admin, 1000, "USD")
	if err != nil {
		t.Fatalf("update вернул ошибку: %v", err)
	}
	if settings.CommissionBps != 1000 || settings.DefaultCurrency != "USD" {
		t.Errorf("настройки не применились: %+v", settings)
	}

	got, err := f.service.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get вернул ошибку: %v", err)
	}
	if got.CommissionBps != 1000 {
		t.Errorf("комиссия = %d, ожидалось 1000", got.CommissionBps)
	}
}
