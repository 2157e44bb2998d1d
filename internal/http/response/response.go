package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/logger"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
)

// RequestIDKey — ключ request id в gin.Context. Заполняется middleware.
const RequestIDKey = "request_id"

// Envelope — единый формат ответа API.
type Envelope struct {
	OK        bool        `json:"ok"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	RequestID string      `json:"request_id"`
}

// ErrorBody — тело ошибки в ответе.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// OK отправляет успешный ответ.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{
		OK:        true,
		Data:      data,
		RequestID: c.GetString(RequestIDKey),
	})
}

// Fail отправляет ошибку. AppError маппится на свой HTTP статус,
// всё остальное маскируется как INTERNAL_ERROR.
func Fail(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.WithRequestID(requestID).WithError(err).Error("внутренняя ошибка")
		}
		c.AbortWithStatusJSON(appErr.HTTPStatus, Envelope{
			OK: false,
			Error: &ErrorBody{
				Code:    string(appErr.Code),
				Message: appErr.Message,
				Details: appErr.Details,
			},
			RequestID: requestID,
		})
		return
	}

	logger.WithRequestID(requestID).WithError(err).Error("внутренняя ошибка")
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		OK: false,
		Error: &ErrorBody{
			Code:    string(apperror.ErrCodeInternal),
			Message: "внутренняя ошибка сервера",
		},
		RequestID: requestID,
	})
}

// FailValidation — короткий путь для ошибок разбора запроса.
func FailValidation(c *gin.Context, message string) {
	Fail(c, apperror.New(apperror.ErrCodeValidation, message))
}
