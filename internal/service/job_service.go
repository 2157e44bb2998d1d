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

// JobRepository описывает зависимости сервиса заданий от слоя хранилища.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	UpdateModeration(ctx context.Context, id uuid.UUID, from []string, to string) error
	ListVisible(ctx context.Context, limit, offset int) ([]models.Job, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListByActiveCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListModerationQueue(ctx context.Context, limit, offset int) ([]models.Job, error)
}

// SubmissionRepository описывает операции со сдачами работ.
type SubmissionRepository interface {
	CreateAndMoveToReview(ctx context.Context, sub *models.Submission) error
	GetLatestByJob(ctx context.Context, jobID uuid.UUID) (*models.Submission, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Submission, error)
	RequestChanges(ctx context.Context, jobID uuid.UUID) error
}

// EscrowSettler — денежные операции, завязанные на жизненный цикл задания.
type EscrowSettler interface {
	ApproveAndRelease(ctx context.Context, jobID uuid.UUID, commissionBps int64) (*models.EscrowSettlement, error)
	CancelAndRefund(ctx context.Context, jobID uuid.UUID, allowedFrom []string, reason string) (string, error)
}

// OpenDisputeChecker сообщает, есть ли по заданию открытый спор.
type OpenDisputeChecker interface {
	GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
}

// BrandProfileGetter отдаёт профиль бренда для проверки полноты.
type BrandProfileGetter interface {
	GetBrandProfile(ctx context.Context, userID uuid.UUID) (*models.BrandProfile, error)
}

// JobService — жизненный цикл заданий: черновики, публикация, модерация,
// сдача и приёмка работы, отмена с возвратом средств.
type JobService struct {
	repo        JobRepository
	submissions SubmissionRepository
	escrow      EscrowSettler
	disputes    OpenDisputeChecker
	profiles    BrandProfileGetter
	settings    SettingsRepository
	events      *EventEmitter
}

// NewJobService создаёт сервис заданий.
func NewJobService(
	repo JobRepository,
	submissions SubmissionRepository,
	escrow EscrowSettler,
	disputes OpenDisputeChecker,
	profiles BrandProfileGetter,
	settings SettingsRepository,
	events *EventEmitter,
) *JobService {
	return &JobService{
		repo:        repo,
		submissions: submissions,
		escrow:      escrow,
		disputes:    disputes,
		profiles:    profiles,
		settings:    settings,
		events:      events,
	}
}

// JobInput — данные задания при создании и редактировании.
type JobInput struct {
	Title          string
	Description    string
	BudgetMinCents *int64
	BudgetMaxCents *int64
	Currency       string
}

func (s *JobService) validateInput(in JobInput) error {
	if err := validation.ValidateLength("название задания", in.Title, validation.MinJobTitleLength, validation.MaxJobTitleLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание задания", in.Description, validation.MinJobBriefLength, validation.MaxJobBriefLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var minC, maxC int64
	if in.BudgetMinCents != nil {
		minC = *in.BudgetMinCents
	}
	if in.BudgetMaxCents != nil {
		maxC = *in.BudgetMaxCents
	}
	if err := validation.ValidateBudgetRange(minC, maxC); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if in.Currency != "" {
		if err := validation.ValidateCurrency(in.Currency); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return nil
}

// Create создаёт черновик задания. Модерация стартует в PENDING.
func (s *JobService) Create(ctx context.Context, actor Actor, in JobInput) (*models.Job, error) {
	if actor.Role != models.RoleBrand {
		return nil, apperror.ErrForbidden
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		currency = settings.DefaultCurrency
	}

	job := &models.Job{
		BrandID:          actor.ID,
		Title:            validation.SanitizeString(in.Title),
		Description:      validation.SanitizeString(in.Description),
		BudgetMinCents:   in.BudgetMinCents,
		BudgetMaxCents:   in.BudgetMaxCents,
		Currency:         currency,
		Status:           models.JobStatusDraft,
		ModerationStatus: models.ModerationStatusPending,
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get возвращает задание. Чужие черновики и немодерированные задания
// видят только владелец, активный исполнитель и админ.
func (s *JobService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.Status == models.JobStatusPublished && job.ModerationStatus == models.ModerationStatusApproved {
		return job, nil
	}
	if s.isParticipant(job, actor) || actor.IsAdmin() {
		return job, nil
	}
	return nil, apperror.ErrJobNotFound
}

// ListVisible возвращает опубликованные и одобренные модерацией задания.
func (s *JobService) ListVisible(ctx context.Context, limit, offset int) ([]models.Job, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListVisible(ctx, limit, offset)
}

// ListMine возвращает задания актора: бренду — его задания,
// создателю — задания, где он активный исполнитель.
func (s *JobService) ListMine(ctx context.Context, actor Actor, limit, offset int) ([]models.Job, error) {
	limit, offset = clampPage(limit, offset)
	if actor.Role == models.RoleBrand {
		return s.repo.ListByBrand(ctx, actor.ID, limit, offset)
	}
	return s.repo.ListByActiveCreator(ctx, actor.ID, limit, offset)
}

// Update редактирует черновик. Задание вне DRAFT не редактируется.
func (s *JobService) Update(ctx context.Context, actor Actor, id uuid.UUID, in JobInput) (*models.Job, error) {
	job, err := s.getOwnedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	job.Title = validation.SanitizeString(in.Title)
	job.Description = validation.SanitizeString(in.Description)
	job.BudgetMinCents = in.BudgetMinCents
	job.BudgetMaxCents = in.BudgetMaxCents
	if in.Currency != "" {
		job.Currency = in.Currency
	}

	if err := s.repo.Update(ctx, job); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "редактировать можно только черновик")
		}
		return nil, err
	}
	return job, nil
}

// Publish публикует черновик. Требуется заполненный профиль бренда.
func (s *JobService) Publish(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.getOwnedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetBrandProfile(ctx, job.BrandID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if err := validation.ValidateBrandProfileComplete(profile); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "профиль бренда не заполнен: "+err.Error())
	}

	if err := s.transition(ctx, id, models.JobStatusDraft, models.JobStatusPublished); err != nil {
		return nil, err
	}

	s.events.Emit(models.EventJobPublished, map[string]interface{}{"job_id": id})
	return s.getJob(ctx, id)
}

// Pause скрывает задание из выдачи.
func (s *JobService) Pause(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	if _, err := s.getOwnedJob(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, id, models.JobStatusPublished, models.JobStatusPaused); err != nil {
		return nil, err
	}
	return s.getJob(ctx, id)
}

// Unpause возвращает задание в выдачу. Недоступно, когда по заданию
// уже есть активный исполнитель.
func (s *JobService) Unpause(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.getOwnedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if job.ActiveCreatorID != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заданию уже выбран исполнитель")
	}
	if err := s.transition(ctx, id, models.JobStatusPaused, models.JobStatusPublished); err != nil {
		return nil, err
	}
	return s.getJob(ctx, id)
}

// Close закрывает набор откликов без отмены задания.
func (s *JobService) Close(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	if _, err := s.getOwnedJob(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, id, models.JobStatusPublished, models.JobStatusClosed); err != nil {
		return nil, err
	}
	return s.getJob(ctx, id)
}

// Cancel отменяет задание и возвращает средства бренду, если escrow
// был финансирован. Задание на приёмке или со спором отменяет только админ.
func (s *JobService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Job, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if !models.CanJobTransition(job.Status, models.JobStatusCanceled) {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание уже завершено")
	}

	if !actor.IsAdmin() {
		if job.Status == models.JobStatusInReview {
			return nil, apperror.New(apperror.ErrCodeConflict, "работа на приёмке, отменить может только поддержка")
		}
		if err := s.ensureNoOpenDispute(ctx, id); err != nil {
			return nil, err
		}
	}

	allowedFrom := []string{
		models.JobStatusDraft,
		models.JobStatusPublished,
		models.JobStatusPaused,
		models.JobStatusInReview,
	}
	result, err := s.escrow.CancelAndRefund(ctx, id, allowedFrom, reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRefundAfterRelease):
			return nil, apperror.ErrRefundAfterRelease
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.ErrStateConflict
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		}
		return nil, err
	}

	s.events.Emit(models.EventJobCanceled, map[string]interface{}{
		"job_id": id,
		"reason": reason,
	})
	if result == models.EscrowResultRefunded {
		s.events.Emit(models.EventEscrowRefunded, map[string]interface{}{"job_id": id})
		s.events.Notify(job.BrandID, models.NotificationPayload{
			Type:  "escrow.refunded",
			Title: "Средства возвращены",
			Body:  fmt.Sprintf("Задание «%s» отменено, зарезервированная сумма возвращена на баланс.", job.Title),
			Href:  "/jobs/" + id.String(),
		})
	}
	if job.ActiveCreatorID != nil {
		s.events.Notify(*job.ActiveCreatorID, models.NotificationPayload{
			Type:  "job.canceled",
			Title: "Задание отменено",
			Body:  fmt.Sprintf("Задание «%s» отменено брендом.", job.Title),
			Href:  "/jobs/" + id.String(),
		})
	}

	return s.getJob(ctx, id)
}

// ApproveModeration одобряет задание (только админ).
func (s *JobService) ApproveModeration(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	err := s.repo.UpdateModeration(ctx, id, []string{models.ModerationStatusPending}, models.ModerationStatusApproved)
	if err != nil {
		return nil, s.mapModerationErr(ctx, err, id)
	}

	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Emit(models.EventJobApproved, map[string]interface{}{"job_id": id})
	s.events.Notify(job.BrandID, models.NotificationPayload{
		Type:  "job.moderation_approved",
		Title: "Задание одобрено",
		Body:  fmt.Sprintf("Задание «%s» прошло модерацию и видно создателям.", job.Title),
		Href:  "/jobs/" + id.String(),
	})
	return job, nil
}

// RejectModeration отклоняет задание (только админ).
func (s *JobService) RejectModeration(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	from := []string{models.ModerationStatusPending, models.ModerationStatusApproved}
	if err := s.repo.UpdateModeration(ctx, id, from, models.ModerationStatusRejected); err != nil {
		return nil, s.mapModerationErr(ctx, err, id)
	}

	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Emit(models.EventJobRejected, map[string]interface{}{"job_id": id})
	s.events.Notify(job.BrandID, models.NotificationPayload{
		Type:  "job.moderation_rejected",
		Title: "Задание отклонено",
		Body:  fmt.Sprintf("Задание «%s» не прошло модерацию. Исправьте описание и отправьте повторно.", job.Title),
		Href:  "/jobs/" + id.String(),
	})
	return job, nil
}

// ResubmitModeration отправляет задание на повторную модерацию. Повторная
// отправка из PENDING идемпотентна, уже одобренное задание не отправляется.
func (s *JobService) ResubmitModeration(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.getOwnedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if job.ModerationStatus == models.ModerationStatusApproved {
		return nil, apperror.New(apperror.ErrCodeConflict, "задание уже одобрено модерацией")
	}

	from := []string{models.ModerationStatusRejected, models.ModerationStatusPending}
	err = s.repo.UpdateModeration(ctx, id, from, models.ModerationStatusPending)
	if err != nil {
		return nil, s.mapModerationErr(ctx, err, id)
	}
	return s.getJob(ctx, id)
}

// ListModerationQueue возвращает очередь модерации (только админ).
func (s *JobService) ListModerationQueue(ctx context.Context, actor Actor, limit, offset int) ([]models.Job, error) {
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListModerationQueue(ctx, limit, offset)
}

// SubmitWork сдаёт новую версию работы и переводит задание на приёмку.
func (s *JobService) SubmitWork(ctx context.Context, actor Actor, jobID uuid.UUID, content string, mediaID *uuid.UUID) (*models.Submission, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ActiveCreatorID == nil || *job.ActiveCreatorID != actor.ID {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("описание работы", content, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := s.ensureNoOpenDispute(ctx, jobID); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		JobID:     jobID,
		CreatorID: actor.ID,
		Status:    models.SubmissionStatusSubmitted,
		Content:   content,
		MediaID:   mediaID,
	}
	if err := s.submissions.CreateAndMoveToReview(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "сдать работу можно только по заданию в работе")
		}
		return nil, err
	}

	s.events.Notify(job.BrandID, models.NotificationPayload{
		Type:  "submission.created",
		Title: "Работа сдана на приёмку",
		Body:  fmt.Sprintf("Создатель сдал работу по заданию «%s» (версия %d).", job.Title, sub.Version),
		Href:  "/jobs/" + jobID.String(),
	})
	return sub, nil
}

// ApproveWork принимает работу: одобряет последнюю сдачу, выплачивает
// исполнителю сумму за вычетом комиссии и завершает задание. Если escrow
// не был финансирован, задание завершается без выплаты.
func (s *JobService) ApproveWork(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.EscrowSettlement, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if !actor.IsAdmin() {
		if err := s.ensureNoOpenDispute(ctx, jobID); err != nil {
			return nil, err
		}
	}

	settlement, err := s.escrow.ApproveAndRelease(ctx, jobID, s.commissionBps(ctx))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStateConflict):
			return nil, apperror.New(apperror.ErrCodeConflict, "нет сданной работы на приёмке")
		case errors.Is(err, repository.ErrEscrowNotFound):
			return nil, apperror.ErrEscrowNotFound
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, apperror.ErrOperationReplayed
		}
		return nil, err
	}

	switch settlement.Result {
	case models.EscrowResultNoActiveCreator:
		return nil, apperror.New(apperror.ErrCodeConflict, "по заданию нет активного исполнителя")
	case models.EscrowResultUnfunded:
		// Фондирования не было: задание завершено без выплаты.
		s.events.Emit(models.EventJobCompleted, map[string]interface{}{"job_id": jobID})
	case models.EscrowResultReleased:
		s.events.Emit(models.EventJobCompleted, map[string]interface{}{"job_id": jobID})
		s.events.Emit(models.EventEscrowReleased, map[string]interface{}{
			"job_id":            jobID,
			"creator_net_cents": settlement.CreatorNetCents,
			"commission_cents":  settlement.CommissionCents,
		})
		if job.ActiveCreatorID != nil {
			s.events.Notify(*job.ActiveCreatorID, models.NotificationPayload{
				Type:  "escrow.released",
				Title: "Работа принята",
				Body:  fmt.Sprintf("Бренд принял работу по заданию «%s», оплата зачислена на баланс.", job.Title),
				Href:  "/wallet",
			})
		}
	}

	return settlement, nil
}

// RequestChanges возвращает работу на доработку.
func (s *JobService) RequestChanges(ctx context.Context, actor Actor, jobID uuid.UUID) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return apperror.ErrForbidden
	}
	if !actor.IsAdmin() {
		if err := s.ensureNoOpenDispute(ctx, jobID); err != nil {
			return err
		}
	}

	if err := s.submissions.RequestChanges(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return apperror.New(apperror.ErrCodeConflict, "нет сданной работы на приёмке")
		}
		return err
	}

	if job.ActiveCreatorID != nil {
		s.events.Notify(*job.ActiveCreatorID, models.NotificationPayload{
			Type:  "submission.changes_requested",
			Title: "Нужны доработки",
			Body:  fmt.Sprintf("Бренд вернул работу по заданию «%s» на доработку.", job.Title),
			Href:  "/jobs/" + jobID.String(),
		})
	}
	return nil
}

// ListSubmissions возвращает историю сдач по заданию (участникам и админу).
func (s *JobService) ListSubmissions(ctx context.Context, actor Actor, jobID uuid.UUID) ([]models.Submission, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(job, actor) && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return s.submissions.ListByJob(ctx, jobID)
}

func (s *JobService) getJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) getOwnedJob(ctx context.Context, actor Actor, id uuid.UUID) (*models.Job, error) {
	job, err := s.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.BrandID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	return job, nil
}

func (s *JobService) isParticipant(job *models.Job, actor Actor) bool {
	if job.BrandID == actor.ID {
		return true
	}
	return job.ActiveCreatorID != nil && *job.ActiveCreatorID == actor.ID
}

func (s *JobService) transition(ctx context.Context, id uuid.UUID, from, to string) error {
	if !models.CanJobTransition(from, to) {
		return apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("переход из статуса %s в %s недопустим", from, to))
	}
	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return apperror.New(apperror.ErrCodeConflict,
				fmt.Sprintf("операция доступна только из статуса %s", from))
		}
		return err
	}
	return nil
}

func (s *JobService) ensureNoOpenDispute(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.disputes.GetOpenByJobID(ctx, jobID)
	if err == nil {
		return apperror.ErrDisputeOpen
	}
	if errors.Is(err, repository.ErrDisputeNotFound) {
		return nil
	}
	return err
}

func (s *JobService) mapModerationErr(ctx context.Context, err error, id uuid.UUID) error {
	if !errors.Is(err, repository.ErrStateConflict) {
		return err
	}
	if _, getErr := s.repo.GetByID(ctx, id); errors.Is(getErr, repository.ErrJobNotFound) {
		return apperror.ErrJobNotFound
	}
	return apperror.New(apperror.ErrCodeConflict, "статус модерации уже изменился")
}

func (s *JobService) commissionBps(ctx context.Context) int64 {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return models.DefaultCommissionBps
	}
	return settings.CommissionBps
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
