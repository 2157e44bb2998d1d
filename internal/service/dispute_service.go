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

// DisputeRepository описывает операции со спорами.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
	GetLatestByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
	Resolve(ctx context.Context, id uuid.UUID, resolution string, resolvedBy uuid.UUID, adminNote string) error
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	AddMessage(ctx context.Context, m *models.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID, limit, offset int) ([]models.DisputeMessage, error)
}

// DisputeSettler — денежные операции, доступные при разрешении спора.
type DisputeSettler interface {
	ForceRelease(ctx context.Context, jobID uuid.UUID, commissionBps int64) (*models.EscrowSettlement, error)
	CancelAndRefund(ctx context.Context, jobID uuid.UUID, allowedFrom []string, reason string) (string, error)
}

// DisputeService — открытие, ведение и разрешение споров по заданиям.
type DisputeService struct {
	repo     DisputeRepository
	jobs     JobGetter
	escrow   DisputeSettler
	settings SettingsRepository
	events   *EventEmitter
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(repo DisputeRepository, jobs JobGetter, escrow DisputeSettler, settings SettingsRepository, events *EventEmitter) *DisputeService {
	return &DisputeService{
		repo:     repo,
		jobs:     jobs,
		escrow:   escrow,
		settings: settings,
		events:   events,
	}
}

// Open открывает спор по заданию. Если спор уже открыт, возвращается
// существующий: операция идемпотентна. Повторный спор по разрешённому
// заданию не открывается.
func (s *DisputeService) Open(ctx context.Context, actor Actor, jobID uuid.UUID, reason string) (*models.Dispute, error) {
	if err := validation.ValidateDisputeReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}

	isBrand := job.BrandID == actor.ID
	isCreator := job.ActiveCreatorID != nil && *job.ActiveCreatorID == actor.ID
	if !isBrand && !isCreator {
		return nil, apperror.ErrForbidden
	}

	// Спор возможен по незавершённому заданию с активным исполнителем.
	if models.IsJobTerminal(job.Status) || job.ActiveCreatorID == nil {
		return nil, apperror.ErrDisputeNotAllowed
	}

	if existing, err := s.repo.GetOpenByJobID(ctx, jobID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, err
	}

	if latest, err := s.repo.GetLatestByJobID(ctx, jobID); err == nil && latest.Status == models.DisputeStatusResolved {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор по этому заданию уже был разрешён")
	}

	role := models.RoleBrand
	if isCreator {
		role = models.RoleCreator
	}
	dispute := &models.Dispute{
		JobID:          jobID,
		OpenedByUserID: actor.ID,
		OpenedByRole:   role,
		Reason:         reason,
		Status:         models.DisputeStatusOpen,
	}
	if err := s.repo.Create(ctx, dispute); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			// Проиграли гонку с параллельным открытием — отдаём существующий.
			if existing, getErr := s.repo.GetOpenByJobID(ctx, jobID); getErr == nil {
				return existing, nil
			}
			return nil, apperror.ErrStateConflict
		}
		return nil, err
	}

	s.events.Emit(models.EventDisputeOpened, map[string]interface{}{
		"job_id":     jobID,
		"dispute_id": dispute.ID,
		"reason":     reason,
	})
	counterparty := job.BrandID
	if isBrand && job.ActiveCreatorID != nil {
		counterparty = *job.ActiveCreatorID
	}
	s.events.Notify(counterparty, models.NotificationPayload{
		Type:  "dispute.opened",
		Title: "Открыт спор",
		Body:  fmt.Sprintf("По заданию «%s» открыт спор. Все операции по заданию заморожены до решения поддержки.", job.Title),
		Href:  "/disputes/" + dispute.ID.String(),
	})

	return dispute, nil
}

// Get возвращает спор. Доступ у участников задания и админа.
func (s *DisputeService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.getDispute(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, actor, dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

// ListOpen возвращает открытые споры (только админ).
func (s *DisputeService) ListOpen(ctx context.Context, actor Actor, limit, offset int) ([]models.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListOpen(ctx, limit, offset)
}

// ListMine возвращает споры по заданиям актора.
func (s *DisputeService) ListMine(ctx context.Context, actor Actor, limit, offset int) ([]models.Dispute, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByUser(ctx, actor.ID, limit, offset)
}

// ResolveRefund разрешает спор в пользу бренда: escrow возвращается,
// задание отменяется. Только админ. Повторный вызов по уже разрешённому
// спору идемпотентен.
func (s *DisputeService) ResolveRefund(ctx context.Context, actor Actor, disputeID uuid.UUID, adminNote string) (*models.Dispute, error) {
	dispute, err := s.prepareResolve(ctx, actor, disputeID, models.DisputeResolutionRefund)
	if err != nil || dispute.Status == models.DisputeStatusResolved {
		return dispute, err
	}

	allowedFrom := []string{
		models.JobStatusPublished,
		models.JobStatusPaused,
		models.JobStatusInReview,
	}
	if _, err := s.escrow.CancelAndRefund(ctx, dispute.JobID, allowedFrom, "спор разрешён в пользу бренда"); err != nil {
		switch {
		case errors.Is(err, repository.ErrRefundAfterRelease):
			return nil, apperror.ErrRefundAfterRelease
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.ErrStateConflict
		}
		return nil, err
	}

	return s.finishResolve(ctx, actor, dispute, models.DisputeResolutionRefund, adminNote)
}

// ResolveRelease разрешает спор в пользу создателя: escrow выплачивается,
// задание завершается. Только админ.
func (s *DisputeService) ResolveRelease(ctx context.Context, actor Actor, disputeID uuid.UUID, adminNote string) (*models.Dispute, error) {
	dispute, err := s.prepareResolve(ctx, actor, disputeID, models.DisputeResolutionRelease)
	if err != nil || dispute.Status == models.DisputeStatusResolved {
		return dispute, err
	}

	// Нефинансированный escrow не блокирует решение: задание завершается
	// без выплаты, спор закрывается.
	if _, err := s.escrow.ForceRelease(ctx, dispute.JobID, s.commissionBps(ctx)); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.ErrStateConflict
		}
		return nil, err
	}

	return s.finishResolve(ctx, actor, dispute, models.DisputeResolutionRelease, adminNote)
}

// AddMessage добавляет сообщение в тред спора. ADMIN_NOTE пишет только админ.
func (s *DisputeService) AddMessage(ctx context.Context, actor Actor, disputeID uuid.UUID, kind, body string) (*models.DisputeMessage, error) {
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, actor, dispute); err != nil {
		return nil, err
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор уже разрешён, тред закрыт")
	}

	switch kind {
	case models.DisputeMessageKindMessage, models.DisputeMessageKindEvidenceLink:
	case models.DisputeMessageKindAdminNote:
		if !actor.IsAdmin() {
			return nil, apperror.ErrForbidden
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип сообщения")
	}

	if err := validation.ValidateLength("сообщение", body, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if kind == models.DisputeMessageKindEvidenceLink {
		if err := validation.ValidateURL("ссылка на материалы", body); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	msg := &models.DisputeMessage{
		DisputeID: disputeID,
		AuthorID:  actor.ID,
		Kind:      kind,
		Body:      body,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages возвращает тред спора.
func (s *DisputeService) ListMessages(ctx context.Context, actor Actor, disputeID uuid.UUID, limit, offset int) ([]models.DisputeMessage, error) {
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureParticipant(ctx, actor, dispute); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListMessages(ctx, disputeID, limit, offset)
}

// prepareResolve проверяет права и текущее состояние спора. Для уже
// разрешённого спора с тем же решением возвращает его без ошибки.
func (s *DisputeService) prepareResolve(ctx context.Context, actor Actor, disputeID uuid.UUID, resolution string) (*models.Dispute, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	dispute, err := s.getDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status == models.DisputeStatusResolved {
		if dispute.Resolution != nil && *dispute.Resolution == resolution {
			return dispute, nil
		}
		return nil, apperror.New(apperror.ErrCodeConflict, "спор уже разрешён с другим решением")
	}
	return dispute, nil
}

func (s *DisputeService) finishResolve(ctx context.Context, actor Actor, dispute *models.Dispute, resolution, adminNote string) (*models.Dispute, error) {
	if err := s.repo.Resolve(ctx, dispute.ID, resolution, actor.ID, adminNote); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			// Деньги уже двигались идемпотентно, статус обновил параллельный запрос.
			return s.getDispute(ctx, dispute.ID)
		}
		return nil, err
	}

	s.events.Emit(models.EventDisputeResolved, map[string]interface{}{
		"dispute_id": dispute.ID,
		"job_id":     dispute.JobID,
		"resolution": resolution,
	})

	if job, err := s.jobs.GetByID(ctx, dispute.JobID); err == nil {
		payload := models.NotificationPayload{
			Type:  "dispute.resolved",
			Title: "Спор разрешён",
			Body:  fmt.Sprintf("Поддержка разрешила спор по заданию «%s».", job.Title),
			Href:  "/disputes/" + dispute.ID.String(),
		}
		s.events.Notify(job.BrandID, payload)
		if job.ActiveCreatorID != nil {
			s.events.Notify(*job.ActiveCreatorID, payload)
		}
	}

	return s.getDispute(ctx, dispute.ID)
}

func (s *DisputeService) getDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}
	return dispute, nil
}

func (s *DisputeService) ensureParticipant(ctx context.Context, actor Actor, dispute *models.Dispute) error {
	if actor.IsAdmin() {
		return nil
	}
	job, err := s.jobs.GetByID(ctx, dispute.JobID)
	if err != nil {
		return err
	}
	if job.BrandID == actor.ID {
		return nil
	}
	if job.ActiveCreatorID != nil && *job.ActiveCreatorID == actor.ID {
		return nil
	}
	return apperror.ErrForbidden
}

func (s *DisputeService) commissionBps(ctx context.Context) int64 {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.DefaultCommissionBps
	}
	return settings.CommissionBps
}
