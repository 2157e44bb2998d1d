package service

import (
	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// Actor — аутентифицированный пользователь, выполняющий операцию.
// Заполняется middleware из access токена.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin сообщает, является ли актор администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
