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

// ApplicationRepository описывает операции с откликами и приглашениями.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]models.Application, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Application, error)
	GetByJobAndCreator(ctx context.Context, jobID, creatorID uuid.UUID) (*models.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	Accept(ctx context.Context, applicationID uuid.UUID) (*models.Application, *models.Escrow, *models.Conversation, error)
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	ListInvitationsByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, id uuid.UUID, from, to string) error
}

// ApplicationService — отклики создателей и приглашения брендов.
type ApplicationService struct {
	repo   ApplicationRepository
	jobs   JobGetter
	events *EventEmitter
}

// NewApplicationService создаёт сервис откликов.
func NewApplicationService(repo ApplicationRepository, jobs JobGetter, events *EventEmitter) *ApplicationService {
	return &ApplicationService{
		repo:   repo,
		jobs:   jobs,
		events: events,
	}
}

// ApplyInput — данные отклика.
type ApplyInput struct {
	JobID            uuid.UUID
	CoverLetter      string
	QuotedPriceCents *int64
}

// Apply создаёт отклик создателя на задание. Повторный отклик на то же
// задание невозможен.
func (s *ApplicationService) Apply(ctx context.Context, actor Actor, in ApplyInput) (*models.Application, error) {
	if actor.Role != models.RoleCreator {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("сопроводительное письмо", in.CoverLetter, validation.MinCoverLetterLength, validation.MaxCoverLetterLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.QuotedPriceCents != nil {
		if err := validation.ValidateAmountCents("предложенная цена", *in.QuotedPriceCents); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	if job.Status != models.JobStatusPublished || job.ModerationStatus != models.ModerationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание не принимает отклики")
	}
	if job.BrandID == actor.ID {
		return nil, apperror.New(apperror.ErrCodeConflict, "нельзя откликнуться на собственное задание")
	}

	app := &models.Application{
		JobID:            in.JobID,
		CreatorID:        actor.ID,
		CoverLetter:      validation.SanitizeString(in.CoverLetter),
		QuotedPriceCents: in.QuotedPriceCents,
		Status:           models.ApplicationStatusPending,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на это задание")
		}
		return nil, err
	}

	s.events.Notify(job.BrandID, models.NotificationPayload{
		Type:  "application.created",
		Title: "Новый отклик",
		Body:  fmt.Sprintf("На задание «%s» откликнулся создатель.", job.Title),
		Href:  "/jobs/" + job.ID.String() + "/applications",
	})
	return app, nil
}

// Get возвращает отклик. Доступ у его автора, владельца задания и админа.
func (s *ApplicationService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Application, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.CreatorID == actor.ID || actor.IsAdmin() {
		return app, nil
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err == nil && job.BrandID == actor.ID {
		return app, nil
	}
	return nil, apperror.ErrForbidden
}

// ListByJob возвращает отклики на задание (владельцу задания и админу).
func (s *ApplicationService) ListByJob(ctx context.Context, actor Actor, jobID uuid.UUID, limit, offset int) ([]models.Application, error) {
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
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByJob(ctx, jobID, limit, offset)
}

// ListMine возвращает отклики актора.
func (s *ApplicationService) ListMine(ctx context.Context, actor Actor, limit, offset int) ([]models.Application, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByCreator(ctx, actor.ID, limit, offset)
}

// Withdraw отзывает собственный отклик, пока он не рассмотрен.
func (s *ApplicationService) Withdraw(ctx context.Context, actor Actor, id uuid.UUID) error {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return err
	}
	if app.CreatorID != actor.ID {
		return apperror.ErrForbidden
	}
	if err := s.repo.UpdateStatus(ctx, id, models.ApplicationStatusPending, models.ApplicationStatusWithdrawn); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return apperror.New(apperror.ErrCodeConflict, "отклик уже рассмотрен")
		}
		return err
	}
	return nil
}

// Reject отклоняет отклик (владелец задания).
func (s *ApplicationService) Reject(ctx context.Context, actor Actor, id uuid.UUID) error {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return err
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return apperror.ErrForbidden
	}
	if err := s.repo.UpdateStatus(ctx, id, models.ApplicationStatusPending, models.ApplicationStatusRejected); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return apperror.New(apperror.ErrCodeConflict, "отклик уже рассмотрен")
		}
		return err
	}

	s.events.Notify(app.CreatorID, models.NotificationPayload{
		Type:  "application.rejected",
		Title: "Отклик отклонён",
		Body:  fmt.Sprintf("Бренд отклонил ваш отклик на задание «%s».", job.Title),
		Href:  "/applications",
	})
	return nil
}

// AcceptResult — итог принятия отклика.
type AcceptResult struct {
	Application  *models.Application  `json:"application"`
	Escrow       *models.Escrow       `json:"escrow"`
	Conversation *models.Conversation `json:"conversation"`
}

// Accept принимает отклик: назначает исполнителя, отклоняет остальные
// отклики, создаёт escrow и диалог. Всё в одной транзакции.
func (s *ApplicationService) Accept(ctx context.Context, actor Actor, id uuid.UUID) (*AcceptResult, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	accepted, escrow, conversation, err := s.repo.Accept(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.New(apperror.ErrCodeConflict, "отклик нельзя принять: задание или отклик уже в другом статусе")
		case errors.Is(err, repository.ErrApplicationNotFound):
			return nil, apperror.ErrApplicationNotFound
		}
		return nil, err
	}

	s.events.Emit(models.EventApplicationAccepted, map[string]interface{}{
		"job_id":         job.ID,
		"application_id": accepted.ID,
		"creator_id":     accepted.CreatorID,
	})
	s.events.Notify(accepted.CreatorID, models.NotificationPayload{
		Type:  "application.accepted",
		Title: "Отклик принят",
		Body:  fmt.Sprintf("Бренд выбрал вас исполнителем задания «%s».", job.Title),
		Href:  "/jobs/" + job.ID.String(),
	})

	return &AcceptResult{
		Application:  accepted,
		Escrow:       escrow,
		Conversation: conversation,
	}, nil
}

// InviteInput — данные приглашения.
type InviteInput struct {
	JobID     uuid.UUID
	CreatorID uuid.UUID
	Message   *string
}

// Invite приглашает создателя на задание.
func (s *ApplicationService) Invite(ctx context.Context, actor Actor, in InviteInput) (*models.Invitation, error) {
	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusPublished || job.ModerationStatus != models.ModerationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeConflict, "приглашать можно только на опубликованное задание")
	}
	if in.Message != nil {
		if err := validation.ValidateLength("сообщение", *in.Message, 0, validation.MaxMessageLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	inv := &models.Invitation{
		JobID:     in.JobID,
		BrandID:   job.BrandID,
		CreatorID: in.CreatorID,
		Message:   in.Message,
		Status:    models.InvitationStatusPending,
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "создатель уже приглашён на это задание")
		}
		return nil, err
	}

	s.events.Notify(in.CreatorID, models.NotificationPayload{
		Type:  "invitation.created",
		Title: "Приглашение на задание",
		Body:  fmt.Sprintf("Бренд приглашает вас выполнить задание «%s».", job.Title),
		Href:  "/invitations",
	})
	return inv, nil
}

// ListInvitations возвращает приглашения создателя.
func (s *ApplicationService) ListInvitations(ctx context.Context, actor Actor, limit, offset int) ([]models.Invitation, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListInvitationsByCreator(ctx, actor.ID, limit, offset)
}

// DeclineInvitation отклоняет приглашение.
func (s *ApplicationService) DeclineInvitation(ctx context.Context, actor Actor, id uuid.UUID) error {
	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return err
	}
	if inv.CreatorID != actor.ID {
		return apperror.ErrForbidden
	}
	if err := s.repo.UpdateInvitationStatus(ctx, id, models.InvitationStatusPending, models.InvitationStatusDeclined); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return apperror.New(apperror.ErrCodeConflict, "приглашение уже рассмотрено")
		}
		return err
	}
	return nil
}

// AcceptInvitation принимает приглашение: создаётся отклик и сразу
// принимается — создатель становится активным исполнителем.
func (s *ApplicationService) AcceptInvitation(ctx context.Context, actor Actor, id uuid.UUID) (*AcceptResult, error) {
	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.CreatorID != actor.ID {
		return nil, apperror.ErrForbidden
	}

	if err := s.repo.UpdateInvitationStatus(ctx, id, models.InvitationStatusPending, models.InvitationStatusAccepted); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "приглашение уже рассмотрено")
		}
		return nil, err
	}

	app := &models.Application{
		JobID:       inv.JobID,
		CreatorID:   actor.ID,
		CoverLetter: "Принято приглашение бренда",
		Status:      models.ApplicationStatusPending,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if !errors.Is(err, repository.ErrStateConflict) {
			return nil, err
		}
		// Создатель уже откликался — используем его отклик.
		existing, getErr := s.repo.GetByJobAndCreator(ctx, inv.JobID, actor.ID)
		if getErr != nil {
			return nil, getErr
		}
		app = existing
	}

	accepted, escrow, conversation, err := s.repo.Accept(ctx, app.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "задание уже занято другим исполнителем")
		}
		return nil, err
	}

	s.events.Emit(models.EventApplicationAccepted, map[string]interface{}{
		"job_id":         inv.JobID,
		"application_id": accepted.ID,
		"creator_id":     accepted.CreatorID,
	})
	s.events.Notify(inv.BrandID, models.NotificationPayload{
		Type:  "invitation.accepted",
		Title: "Приглашение принято",
		Body:  "Создатель принял ваше приглашение и назначен исполнителем.",
		Href:  "/jobs/" + inv.JobID.String(),
	})

	return &AcceptResult{
		Application:  accepted,
		Escrow:       escrow,
		Conversation: conversation,
	}, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return nil, apperror.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) getInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, err := s.repo.GetInvitationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvitationNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "приглашение не найдено")
		}
		return nil, err
	}
	return inv, nil
}
