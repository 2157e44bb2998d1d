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

// ConversationHandler — переписка по заданиям.
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler создаёт хэндлер диалогов.
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// ListMine обрабатывает GET /conversations.
func (h *ConversationHandler) ListMine(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	limit, offset := common.GetPagination(c)
	conversations, err := h.conversations.ListMine(c.Request.Context(), actor, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, conversations)
}

// Get обрабатывает GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	convID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	conv, err := h.conversations.Get(c.Request.Context(), actor, convID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, conv)
}

// ListMessages обрабатывает GET /conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	convID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.conversations.ListMessages(c.Request.Context(), actor, convID, limit, offset)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, messages)
}

// SendMessage обрабатывает POST /conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}

	convID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		response.FailValidation(c, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailValidation(c, "некорректное тело запроса")
		return
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), actor, convID, req.Body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusCreated, msg)
}
