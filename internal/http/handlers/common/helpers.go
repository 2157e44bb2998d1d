package common

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ugcmarket/ugc-backend/internal/http/middleware"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// ErrNoActor возвращается, когда в контексте нет аутентифицированного пользователя.
var ErrNoActor = errors.New("пользователь не найден в контексте")

// CurrentActor извлекает актора из контекста запроса.
func CurrentActor(c *gin.Context) (service.Actor, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return service.Actor{}, ErrNoActor
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return service.Actor{}, ErrNoActor
	}

	return service.Actor{
		ID:   userID,
		Role: c.GetString(middleware.ContextRoleKey),
	}, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, errors.New("неверный формат UUID")
	}
	return parsed, nil
}

// GetPagination извлекает limit и offset из query-параметров.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = parseIntQuery(c, "limit", 20)
	offset = parseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
