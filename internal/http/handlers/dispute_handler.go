package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/dto"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// DisputeHandler — споры по заданиям.
type DisputeHandler struct {
	disputes *service.DisputeService
}

// NewDisputeHandler создаёт хэндлер споров.
func NewDisputeHandler(disputes *service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

// Open обрабатывает POST /jobs/:id/disputes.
func (h *DisputeHandler) Open(c *gin.Context) {
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

	var req dto.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	dispute, err := h.disputes.Open(c.Request.Context(), actor, jobID, req.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, dispute)
}

// Get обрабатывает GET /disputes/:id.
func (h *DisputeHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	dispute, err := h.disputes.Get(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, dispute)
}

// ListMine обрабатывает GET /disputes/my.
func (h *DisputeHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, disputes)
}

// AddMessage обрабатывает POST /disputes/:id/messages.
func (h *DisputeHandler) AddMessage(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.DisputeMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	msg, err := h.disputes.AddMessage(c.Request.Context(), actor, disputeID, req.Kind, req.Body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, msg)
}

// ListMessages обрабатывает GET /disputes/:id/messages.
func (h *DisputeHandler) ListMessages(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.disputes.ListMessages(c.Request.Context(), actor, disputeID, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, messages)
}

// ListOpen обрабатывает GET /admin/disputes.
func (h *DisputeHandler) ListOpen(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	disputes, err := h.disputes.ListOpen(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, disputes)
}

// ResolveRefund обрабатывает POST /admin/disputes/:id/resolve-refund.
func (h *DisputeHandler) ResolveRefund(c *gin.Context) {
	h.resolve(c, h.disputes.ResolveRefund)
}

// ResolveRelease обрабатывает POST /admin/disputes/:id/resolve-release.
func (h *DisputeHandler) ResolveRelease(c *gin.Context) {
	h.resolve(c, h.disputes.ResolveRelease)
}

func (h *DisputeHandler) resolve(c *gin.Context, fn func(context.Context, service.Actor, uuid.UUID, string) (*models.Dispute, error)) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	_ = c.ShouldBindJSON(&req)

	dispute, err := fn(c.Request.Context(), actor, disputeID, req.AdminNote)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, dispute)
}
