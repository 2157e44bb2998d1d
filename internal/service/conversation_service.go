package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/validation"
)

// ConversationRepository описывает хранилище диалогов.
type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
	AddMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// ConversationService — переписка бренда и создателя по заданию.
type ConversationService struct {
	repo   ConversationRepository
	events *EventEmitter
}

// NewConversationService создаёт сервис диалогов.
func NewConversationService(repo ConversationRepository, events *EventEmitter) *ConversationService {
	return &ConversationService{repo: repo, events: events}
}

// Get возвращает диалог. Доступ только у его участников и админа.
func (s *ConversationService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(conv, actor) {
		return nil, apperror.ErrForbidden
	}
	return conv, nil
}

// ListMine возвращает диалоги актора.
func (s *ConversationService) ListMine(ctx context.Context, actor Actor, limit, offset int) ([]models.Conversation, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByUser(ctx, actor.ID, limit, offset)
}

// SendMessage отправляет сообщение в диалог.
func (s *ConversationService) SendMessage(ctx context.Context, actor Actor, conversationID uuid.UUID, body string) (*models.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(conv, actor) {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateLength("сообщение", body, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       actor.ID,
		Body:           body,
	}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	recipient := conv.BrandID
	if actor.ID == conv.BrandID {
		recipient = conv.CreatorID
	}
	s.events.Notify(recipient, models.NotificationPayload{
		Type:  "message.created",
		Title: "Новое сообщение",
		Body:  "У вас новое сообщение по заданию.",
		Href:  "/conversations/" + conversationID.String(),
	})

	return msg, nil
}

// ListMessages возвращает сообщения диалога.
func (s *ConversationService) ListMessages(ctx context.Context, actor Actor, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !s.isParticipant(conv, actor) {
		return nil, apperror.ErrForbidden
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}

func (s *ConversationService) getConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "диалог не найден")
		}
		return nil, err
	}
	return conv, nil
}

func (s *ConversationService) isParticipant(conv *models.Conversation, actor Actor) bool {
	return conv.BrandID == actor.ID || conv.CreatorID == actor.ID || actor.IsAdmin()
}
