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

// PayoutHandler — заявки на вывод средств.
type PayoutHandler struct {
	payouts *service.PayoutService
}

// NewPayoutHandler создаёт хэндлер выводов.
func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Request обрабатывает POST /payouts.
func (h *PayoutHandler) Request(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	var req dto.PayoutRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	payout, err := h.payouts.Request(c.Request.Context(), actor, req.AmountCents, req.Currency, req.PayoutMethod)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, payout)
}

// ListMine обрабатывает GET /payouts/my.
func (h *PayoutHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payouts)
}

// Get обрабатывает GET /payouts/:id.
func (h *PayoutHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	payout, err := h.payouts.Get(c.Request.Context(), actor, payoutID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payout)
}

// Cancel обрабатывает POST /payouts/:id/cancel.
func (h *PayoutHandler) Cancel(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	payout, err := h.payouts.Cancel(c.Request.Context(), actor, payoutID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payout)
}

// ListPending обрабатывает GET /admin/payouts — очередь на обработку.
func (h *PayoutHandler) ListPending(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListPending(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payouts)
}

// Approve обрабатывает POST /admin/payouts/:id/approve.
func (h *PayoutHandler) Approve(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	payout, err := h.payouts.Approve(c.Request.Context(), actor, payoutID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payout)
}

// Reject обрабатывает POST /admin/payouts/:id/reject.
func (h *PayoutHandler) Reject(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.RejectPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	payout, err := h.payouts.Reject(c.Request.Context(), actor, payoutID, req.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, payout)
}
