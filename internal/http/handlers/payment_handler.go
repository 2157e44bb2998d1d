package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/http/handlers/common"
	"github.com/ugcmarket/ugc-backend/internal/http/response"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// PaymentHandler — кошельки, леджер и escrow.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт платёжный хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// ListWallets обрабатывает GET /payments/wallets.
func (h *PaymentHandler) ListWallets(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	wallets, err := h.payments.ListWallets(c.Request.Context(), actor.ID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, wallets)
}

// GetWallet обрабатывает GET /payments/wallets/:currency.
func (h *PaymentHandler) GetWallet(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	wallet, err := h.payments.GetWallet(c.Request.Context(), actor.ID, c.Param("currency"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, wallet)
}

// ListLedger обрабатывает GET /payments/ledger.
func (h *PaymentHandler) ListLedger(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	entries, err := h.payments.ListLedger(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, entries)
}

// GetEscrow обрабатывает GET /jobs/:id/escrow.
func (h *PaymentHandler) GetEscrow(c *gin.Context) {
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

	escrow, err := h.payments.GetEscrow(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, escrow)
}

// FundEscrow обрабатывает POST /jobs/:id/escrow/fund.
func (h *PaymentHandler) FundEscrow(c *gin.Context) {
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

	escrow, err := h.payments.FundEscrow(c.Request.Context(), actor, jobID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, escrow)
}
