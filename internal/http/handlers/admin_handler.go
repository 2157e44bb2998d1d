package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/dto"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// AdminHandler — модерация и административные операции.
// Роль ADMIN гарантирует middleware.RequireRole на группе маршрутов.
type AdminHandler struct {
	jobs     *service.JobService
	payments *service.PaymentService
	outbox   *repository.OutboxRepository
}

// NewAdminHandler создаёт админский хэндлер.
func NewAdminHandler(jobs *service.JobService, payments *service.PaymentService, outbox *repository.OutboxRepository) *AdminHandler {
	return &AdminHandler{jobs: jobs, payments: payments, outbox: outbox}
}

// ModerationQueue обрабатывает GET /admin/moderation.
func (h *AdminHandler) ModerationQueue(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	jobs, err := h.jobs.ListModerationQueue(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, jobs)
}

// ApproveJob обрабатывает POST /admin/moderation/:id/approve.
func (h *AdminHandler) ApproveJob(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	job, err := h.jobs.ApproveModeration(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

// RejectJob обрабатывает POST /admin/moderation/:id/reject.
func (h *AdminHandler) RejectJob(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	job, err := h.jobs.RejectModeration(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, job)
}

// ManualAdjust обрабатывает POST /admin/wallets/adjust.
func (h *AdminHandler) ManualAdjust(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.ManualAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	wallet, err := h.payments.ManualAdjust(c.Request.Context(), actor, req.UserID, req.Currency, req.DeltaCents)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, wallet)
}

// GetSettings обрабатывает GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.payments.GetSettings(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, settings)
}

// UpdateSettings обрабатывает PUT /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	settings, err := h.payments.UpdateSettings(c.Request.Context(), actor, req.CommissionBps, req.DefaultCurrency)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, settings)
}

// ListEvents обрабатывает GET /admin/events — последние события outbox.
func (h *AdminHandler) ListEvents(c *gin.Context) {
	limit, _ := common.GetPagination(c)
	events, err := h.outbox.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, events)
}
