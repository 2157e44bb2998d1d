package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
)

// mockConversationRepository реализует ConversationRepository в памяти.
type mockConversationRepository struct {
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]models.Message
}

func newMockConversationRepository() *mockConversationRepository {
	return &mockConversationRepository{
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]models.Message),
	}
}

func (m *mockConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	if conv, ok := m.conversations[id]; ok {
		copied := *conv
		return &copied, nil
	}
	return nil, repository.ErrConversationNotFound
}

func (m *mockConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	var result []models.Conversation
	for _, conv := range m.conversations {
		if conv.BrandID == userID || conv.CreatorID == userID {
			result = append(result, *conv)
		}
	}
	return result, nil
}

func (m *mockConversationRepository) AddMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)
	return nil
}

func (m *mockConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	return m.messages[conversationID], nil
}

func TestConversationService_SendMessage(t *testing.T) {
	repo := newMockConversationRepository()
	service := NewConversationService(repo, nil)
	ctx := context.Background()

	brand := Actor{ID: uuid.New(), Role: models.RoleBrand}
	creator := Actor{ID: uuid.New(), Role: models.RoleCreator}
	conv := &models.Conversation{
		ID:        uuid.New(),
		JobID:     uuid.New(),
		BrandID:   brand.ID,
		CreatorID: creator.ID,
	}
	repo.conversations[conv.ID] = conv

	msg, err := service.SendMessage(ctx, creator, conv.ID, "Добрый день! Когда ждать бриф?")
	if err != nil {
		t.Fatalf("send вернул ошибку: %v", err)
	}
	if msg.SenderID != creator.ID {
		t.Errorf("отправитель = %s, ожидался создатель", msg.SenderID)
	}

	stranger := Actor{ID: uuid.New(), Role: models.RoleCreator}
	if _, err := service.SendMessage(ctx, stranger, conv.ID, "привет"); !apperror.IsForbidden(err) {
		t.Fatalf("писать может только участник, получили %v", err)
	}
	if _, err := service.SendMessage(ctx, brand, conv.ID, ""); err == nil {
		t.Fatal("пустое сообщение должно быть отклонено")
	}
	if _, err := service.SendMessage(ctx, brand, conv.ID, strings.Repeat("а", 5001)); err == nil {
		t.Fatal("слишком длинное сообщение должно быть отклонено")
	}

	messages, err := service.ListMessages(ctx, brand, conv.ID, 0, 0)
	if err != nil {
		t.Fatalf("list вернул ошибку: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("в диалоге должно быть одно сообщение, получили %d", len(messages))
	}

	if _, err := service.ListMessages(ctx, stranger, conv.ID, 0, 0); !apperror.IsForbidden(err) {
		t.Fatalf("читать может только участник, получили %v", err)
	}
	// Админ видит любой диалог.
	if _, err := service.ListMessages(ctx, Actor{ID: uuid.New(), Role: models.RoleAdmin}, conv.ID, 0, 0); err != nil {
		t.Fatalf("админ должен видеть диалог: %v", err)
	}
}

func TestConversationService_GetNotFound(t *testing.T) {
	service := NewConversationService(newMockConversationRepository(), nil)

	_, err := service.Get(context.Background(), Actor{ID: uuid.New(), Role: models.RoleBrand}, uuid.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("ожидался 404, получили %v", err)
	}
}
