package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/dto"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// ApplicationHandler — отклики и приглашения.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

// NewApplicationHandler создаёт хэндлер откликов.
func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Apply обрабатывает POST /jobs/:id/applications.
func (h *ApplicationHandler) Apply(c *gin.Context) {
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

	var req dto.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	app, err := h.applications.Apply(c.Request.Context(), actor, service.ApplyInput{
		JobID:            jobID,
		CoverLetter:      req.CoverLetter,
		QuotedPriceCents: req.QuotedPriceCents,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, app)
}

// ListByJob обрабатывает GET /jobs/:id/applications.
func (h *ApplicationHandler) ListByJob(c *gin.Context) {
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

	limit, offset := common.GetPagination(c)
	apps, err := h.applications.ListByJob(c.Request.Context(), actor, jobID, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, apps)
}

// ListMine обрабатывает GET /applications/my.
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	apps, err := h.applications.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, apps)
}

// Get обрабатывает GET /applications/:id.
func (h *ApplicationHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	app, err := h.applications.Get(c.Request.Context(), actor, appID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, app)
}

// Accept обрабатывает POST /applications/:id/accept.
func (h *ApplicationHandler) Accept(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	result, err := h.applications.Accept(c.Request.Context(), actor, appID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// Reject обрабатывает POST /applications/:id/reject.
func (h *ApplicationHandler) Reject(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	if err := h.applications.Reject(c.Request.Context(), actor, appID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"rejected": true})
}

// Withdraw обрабатывает POST /applications/:id/withdraw.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	if err := h.applications.Withdraw(c.Request.Context(), actor, appID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"withdrawn": true})
}

// Invite обрабатывает POST /jobs/:id/invitations.
func (h *ApplicationHandler) Invite(c *gin.Context) {
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

	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	inv, err := h.applications.Invite(c.Request.Context(), actor, service.InviteInput{
		JobID:     jobID,
		CreatorID: req.CreatorID,
		Message:   req.Message,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, inv)
}

// ListInvitations обрабатывает GET /invitations/my.
func (h *ApplicationHandler) ListInvitations(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	invitations, err := h.applications.ListInvitations(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, invitations)
}

// AcceptInvitation обрабатывает POST /invitations/:id/accept.
func (h *ApplicationHandler) AcceptInvitation(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	invID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	result, err := h.applications.AcceptInvitation(c.Request.Context(), actor, invID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}

// DeclineInvitation обрабатывает POST /invitations/:id/decline.
func (h *ApplicationHandler) DeclineInvitation(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	invID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	if err := h.applications.DeclineInvitation(c.Request.Context(), actor, invID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"declined": true})
}
