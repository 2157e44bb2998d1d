package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/goroutine"
	"github.com/ugcmarket/ugc-backend/internal/logger"
	"github.com/ugcmarket/ugc-backend/internal/models"
)

// OutboxWriter описывает зависимость эмиттера от таблицы событий.
type OutboxWriter interface {
	Append(ctx context.Context, eventType string, payload json.RawMessage) error
}

// UserNotifier доставляет уведомление подключённому пользователю (WebSocket).
type UserNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// EventEmitter публикует доменные события в outbox и рассылает
// уведомления. Всё best-effort: ошибки логируются и отбрасываются,
// на исход денежных операций они не влияют.
type EventEmitter struct {
	outbox        OutboxWriter
	notifications *NotificationService
	notifier      UserNotifier
}

// NewEventEmitter создаёт эмиттер. notifier может быть nil (без WebSocket).
func NewEventEmitter(outbox OutboxWriter, notifications *NotificationService, notifier UserNotifier) *EventEmitter {
	return &EventEmitter{
		outbox:        outbox,
		notifications: notifications,
		notifier:      notifier,
	}
}

// Emit пишет событие в outbox в фоне.
func (e *EventEmitter) Emit(eventType string, payload interface{}) {
	if e == nil || e.outbox == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Error("events: не удалось сериализовать payload")
		return
	}

	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.outbox.Append(ctx, eventType, raw); err != nil {
			logger.Log.WithError(err).WithField("event_type", eventType).Error("events: не удалось записать событие в outbox")
		}
	})
}

// Notify создаёт уведомление пользователю и пушит его по WebSocket в фоне.
func (e *EventEmitter) Notify(userID uuid.UUID, payload models.NotificationPayload) {
	if e == nil || e.notifications == nil {
		return
	}

	goroutine.SafeGo(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := e.notifications.Create(ctx, userID, payload); err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).Error("events: не удалось создать уведомление")
			return
		}

		if e.notifier != nil {
			if err := e.notifier.BroadcastToUser(userID, payload.Type, payload); err != nil {
				logger.Log.WithError(err).WithField("user_id", userID).Warn("events: не удалось отправить push")
			}
		}
	})
}
