package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
)

// mockDisputeRepository реализует DisputeRepository в памяти.
// Порядок создания хранится отдельно, чтобы GetLatestByJobID был детерминирован.
type mockDisputeRepository struct {
	disputes map[uuid.UUID]*models.Dispute
	order    []uuid.UUID
	messages map[uuid.UUID][]models.DisputeMessage
}

func newMockDisputeRepository() *mockDisputeRepository {
	return &mockDisputeRepository{
		disputes: make(map[uuid.UUID]*models.Dispute),
		messages: make(map[uuid.UUID][]models.DisputeMessage),
	}
}

func (m *mockDisputeRepository) addOpen(jobID, openedBy uuid.UUID) *models.Dispute {
	dispute := &models.Dispute{
		ID:             uuid.New(),
		JobID:          jobID,
		OpenedByUserID: openedBy,
		OpenedByRole:   models.RoleBrand,
		Reason:         models.DisputeReasonQuality,
		Status:         models.DisputeStatusOpen,
		CreatedAt:      time.Now(),
	}
	m.disputes[dispute.ID] = dispute
	m.order = append(m.order, dispute.ID)
	return dispute
}

func (m *mockDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	for _, existing := range m.disputes {
		if existing.JobID == d.JobID && existing.Status == models.DisputeStatusOpen {
			return repository.ErrStateConflict
		}
	}
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.disputes[d.ID] = d
	m.order = append(m.order, d.ID)
	return nil
}

func (m *mockDisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	if d, ok := m.disputes[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrDisputeNotFound
}

func (m *mockDisputeRepository) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	for _, d := range m.disputes {
		if d.JobID == jobID && d.Status == models.DisputeStatusOpen {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (m *mockDisputeRepository) GetLatestByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		if d := m.disputes[m.order[i]]; d.JobID == jobID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (m *mockDisputeRepository) Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedBy uuid.UUID, adminNote string) error {
	d, ok := m.disputes[id]
	if !ok || d.Status != models.DisputeStatusOpen {
		return repository.ErrStateConflict
	}
	now := time.Now()
	d.Status = models.DisputeStatusResolved
	d.Resolution = &resolution
	d.ResolvedByUserID = &resolvedBy
	d.ResolvedAt = &now
	if adminNote != "" {
		d.AdminNote = &adminNote
	}
	return nil
}

func (m *mockDisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var result []models.Dispute
	for _, d := range m.disputes {
		if d.Status == models.DisputeStatusOpen {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var result []models.Dispute
	for _, d := range m.disputes {
		if d.OpenedByUserID == userID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDisputeRepository) AddMessage(ctx context.Context, msg *models.DisputeMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages[msg.DisputeID] = append(m.messages[msg.DisputeID], *msg)
	return nil
}

func (m *mockDisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID, limit, offset int) ([]models.DisputeMessage, error) {
	return m.messages[disputeID], nil
}

type disputeServiceFixture struct {
	repo    *mockDisputeRepository
	jobs    *mockJobRepository
	escrow  *mockEscrowOps
	service *DisputeService
}

func newDisputeServiceFixture() *disputeServiceFixture {
	jobs := newMockJobRepository()
	repo := newMockDisputeRepository()
	escrow := newMockEscrowOps(jobs)
	return &disputeServiceFixture{
		repo:    repo,
		jobs:    jobs,
		escrow:  escrow,
		service: NewDisputeService(repo, jobs, escrow, newMockSettingsRepository(), nil),
	}
}

// addFundedJob создаёт задание с исполнителем и финансированным escrow —
// минимальное состояние, в котором спор возможен.
func (f *disputeServiceFixture) addFundedJob(brandID, creatorID uuid.UUID) *models.Job {
	job := &models.Job{
		ID:              uuid.New(),
		BrandID:         brandID,
		Title:           "Обзор ромашкового чая",
		Status:          models.JobStatusPaused,
		ActiveCreatorID: &creatorID,
	}
	f.jobs.jobs[job.ID] = job
	f.escrow.escrows[job.ID] = &models.Escrow{
		JobID:       job.ID,
		BrandID:     brandID,
		CreatorID:   creatorID,
		AmountCents: 100000,
		Currency:    "RUB",
		Status:      models.EscrowStatusFunded,
	}
	return job
}

func TestDisputeService_OpenIdempotent(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	job := f.addFundedJob(brand.ID, creator.ID)

	dispute, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}
	if dispute.Status != models.DisputeStatusOpen {
		t.Errorf("статус = %s, ожидался OPEN", dispute.Status)
	}
	if dispute.OpenedByRole != models.RoleBrand {
		t.Errorf("роль инициатора = %s, ожидалась BRAND", dispute.OpenedByRole)
	}

	// Повторное открытие, в том числе второй стороной, отдаёт тот же спор.
	again, err := f.service.Open(ctx, creator, job.ID, models.DisputeReasonDeadline)
	if err != nil {
		t.Fatalf("повторный open вернул ошибку: %v", err)
	}
	if again.ID != dispute.ID {
		t.Fatalf("ожидался существующий спор %s, получили %s", dispute.ID, again.ID)
	}
}

func TestDisputeService_OpenAccessAndState(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	job := f.addFundedJob(brand.ID, creator.ID)

	if _, err := f.service.Open(ctx, brand, job.ID, "WHATEVER"); err == nil {
		t.Error("неизвестная причина должна быть отклонена")
	}
	stranger := Actor{ID: uuid.New(), Role: models.RoleCreator}
	if _, err := f.service.Open(ctx, stranger, job.ID, models.DisputeReasonQuality); !apperror.IsForbidden(err) {
		t.Errorf("посторонний не открывает спор, получили %v", err)
	}

	// Без активного исполнителя спор недоступен.
	f.jobs.jobs[job.ID].ActiveCreatorID = nil
	if _, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality); err != apperror.ErrDisputeNotAllowed {
		t.Errorf("ожидался ErrDisputeNotAllowed, получили %v", err)
	}
	f.jobs.jobs[job.ID].ActiveCreatorID = &creator.ID

	// По завершённому заданию спор тоже недоступен.
	f.jobs.jobs[job.ID].Status = models.JobStatusCompleted
	if _, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality); err != apperror.ErrDisputeNotAllowed {
		t.Errorf("ожидался ErrDisputeNotAllowed, получили %v", err)
	}

	// Нефинансированный escrow спор не блокирует: конфликт возможен
	// и до резервирования средств.
	f.jobs.jobs[job.ID].Status = models.JobStatusPaused
	f.escrow.escrows[job.ID].Status = models.EscrowStatusUnfunded
	if _, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality); err != nil {
		t.Errorf("спор по нефинансированному escrow должен открываться, получили %v", err)
	}
}

func TestDisputeService_NoReopenAfterResolve(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	job := f.addFundedJob(brand.ID, creator.ID)

	dispute, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}
	if _, err := f.service.ResolveRefund(ctx, admin, dispute.ID, "бренд прав"); err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}

	// Задание после возврата отменено, но даже до терминального статуса
	// повторный спор по разрешённому заданию не открывается.
	f.jobs.jobs[job.ID].Status = models.JobStatusPaused
	f.escrow.escrows[job.ID].Status = models.EscrowStatusFunded
	if _, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonOther); !apperror.IsConflict(err) {
		t.Fatalf("повторное открытие должно вернуть конфликт, получили %v", err)
	}
}

func TestDisputeService_ResolveRefund(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	job := f.addFundedJob(brand.ID, creator.ID)

	dispute, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonDeadline)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}

	if _, err := f.service.ResolveRefund(ctx, brand, dispute.ID, ""); !apperror.IsForbidden(err) {
		t.Fatalf("resolve доступен только админу, получили %v", err)
	}

	resolved, err := f.service.ResolveRefund(ctx, admin, dispute.ID, "сроки сорваны")
	if err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}
	if resolved.Status != models.DisputeStatusResolved {
		t.Errorf("статус = %s, ожидался RESOLVED", resolved.Status)
	}
	if resolved.Resolution == nil || *resolved.Resolution != models.DisputeResolutionRefund {
		t.Error("решение должно быть REFUND")
	}
	if f.jobs.jobs[job.ID].Status != models.JobStatusCanceled {
		t.Errorf("задание = %s, ожидался CANCELED", f.jobs.jobs[job.ID].Status)
	}
	if f.escrow.escrows[job.ID].Status != models.EscrowStatusRefunded {
		t.Errorf("escrow = %s, ожидался REFUNDED", f.escrow.escrows[job.ID].Status)
	}

	// Повторный вызов с тем же решением идемпотентен.
	if _, err := f.service.ResolveRefund(ctx, admin, dispute.ID, ""); err != nil {
		t.Fatalf("повторный resolve вернул ошибку: %v", err)
	}
	// С противоположным решением — конфликт.
	if _, err := f.service.ResolveRelease(ctx, admin, dispute.ID, ""); !apperror.IsConflict(err) {
		t.Fatalf("смена решения должна вернуть конфликт, получили %v", err)
	}
}

func TestDisputeService_ResolveRelease(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	job := f.addFundedJob(brand.ID, creator.ID)

	dispute, err := f.service.Open(ctx, creator, job.ID, models.DisputeReasonCommunication)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}
	f.escrow.settlement = &models.EscrowSettlement{
		Result:          models.EscrowResultReleased,
		CreatorNetCents: 85000,
		CommissionCents: 15000,
	}

	resolved, err := f.service.ResolveRelease(ctx, admin, dispute.ID, "работа выполнена")
	if err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}
	if resolved.Resolution == nil || *resolved.Resolution != models.DisputeResolutionRelease {
		t.Error("решение должно быть RELEASE")
	}
	if f.escrow.escrows[job.ID].Status != models.EscrowStatusReleased {
		t.Errorf("escrow = %s, ожидался RELEASED", f.escrow.escrows[job.ID].Status)
	}
}

func TestDisputeService_ResolveReleaseUnfundedEscrow(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	job := f.addFundedJob(brand.ID, creator.ID)
	f.escrow.escrows[job.ID].Status = models.EscrowStatusUnfunded

	dispute, err := f.service.Open(ctx, creator, job.ID, models.DisputeReasonCommunication)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}
	f.escrow.settlement = &models.EscrowSettlement{Result: models.EscrowResultUnfunded}

	// Отсутствие фондирования не оставляет спор открытым: задание
	// завершается без выплаты, спор закрывается.
	resolved, err := f.service.ResolveRelease(ctx, admin, dispute.ID, "работа выполнена")
	if err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}
	if resolved.Status != models.DisputeStatusResolved {
		t.Errorf("статус спора = %s, ожидался RESOLVED", resolved.Status)
	}
	if f.jobs.jobs[job.ID].Status != models.JobStatusCompleted {
		t.Errorf("задание = %s, ожидался COMPLETED", f.jobs.jobs[job.ID].Status)
	}
	if f.escrow.escrows[job.ID].Status != models.EscrowStatusUnfunded {
		t.Errorf("escrow = %s, должен остаться UNFUNDED", f.escrow.escrows[job.ID].Status)
	}
}

func TestDisputeService_Messages(t *testing.T) {
	f := newDisputeServiceFixture()
	ctx := context.Background()
	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	admin := Actor{ID: uuid.New(), Role: models.RoleAdmin}
	job := f.addFundedJob(brand.ID, creator.ID)

	dispute, err := f.service.Open(ctx, brand, job.ID, models.DisputeReasonQuality)
	if err != nil {
		t.Fatalf("open вернул ошибку: %v", err)
	}

	if _, err := f.service.AddMessage(ctx, creator, dispute.ID, models.DisputeMessageKindMessage, "видео соответствует брифу"); err != nil {
		t.Fatalf("message вернул ошибку: %v", err)
	}
	if _, err := f.service.AddMessage(ctx, brand, dispute.ID, models.DisputeMessageKindEvidenceLink, "https://example.com/brief.pdf"); err != nil {
		t.Fatalf("evidence link вернул ошибку: %v", err)
	}
	if _, err := f.service.AddMessage(ctx, brand, dispute.ID, models.DisputeMessageKindEvidenceLink, "не ссылка"); err == nil {
		t.Error("EVIDENCE_LINK без корректного URL должен быть отклонён")
	}
	if _, err := f.service.AddMessage(ctx, brand, dispute.ID, models.DisputeMessageKindAdminNote, "заметка"); !apperror.IsForbidden(err) {
		t.Errorf("ADMIN_NOTE пишет только админ, получили %v", err)
	}
	if _, err := f.service.AddMessage(ctx, admin, dispute.ID, models.DisputeMessageKindAdminNote, "эскалация"); err != nil {
		t.Fatalf("admin note вернул ошибку: %v", err)
	}
	if _, err := f.service.AddMessage(ctx, brand, dispute.ID, "SHOUT", "эй"); err == nil {
		t.Error("неизвестный тип сообщения должен быть отклонён")
	}

	stranger := Actor{ID: uuid.New(), Role: models.RoleCreator}
	if _, err := f.service.ListMessages(ctx, stranger, dispute.ID, 0, 0); !apperror.IsForbidden(err) {
		t.Errorf("тред виден только участникам, получили %v", err)
	}

	messages, err := f.service.ListMessages(ctx, brand, dispute.ID, 0, 0)
	if err != nil {
		t.Fatalf("list вернул ошибку: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("в треде должно быть 3 сообщения, получили %d", len(messages))
	}

	// После разрешения тред закрыт.
	if _, err := f.service.ResolveRefund(ctx, admin, dispute.ID, ""); err != nil {
		t.Fatalf("resolve вернул ошибку: %v", err)
	}
	if _, err := f.service.AddMessage(ctx, brand, dispute.ID, models.DisputeMessageKindMessage, "ещё слово"); !apperror.IsConflict(err) {
		t.Fatalf("сообщение в закрытый тред должно вернуть конфликт, получили %v", err)
	}
}
