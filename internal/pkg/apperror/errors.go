package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodePaymentsState ErrorCode = "PAYMENTS_STATE_ERROR"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// AppError — типизированная ошибка приложения. Код определяет HTTP статус,
// Message всегда человекочитаем и уходит клиенту, Cause остаётся в логах.
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    map[string]interface{}
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// WithDetails добавляет машинночитаемые детали к ошибке.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodePaymentsState:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && (appErr.Code == ErrCodeConflict || appErr.Code == ErrCodePaymentsState)
}

var (
	ErrJobNotFound         = New(ErrCodeNotFound, "задание не найдено")
	ErrEscrowNotFound      = New(ErrCodeNotFound, "escrow не найден")
	ErrDisputeNotFound     = New(ErrCodeNotFound, "спор не найден")
	ErrPayoutNotFound      = New(ErrCodeNotFound, "заявка на вывод не найдена")
	ErrApplicationNotFound = New(ErrCodeNotFound, "отклик не найден")
	ErrUserNotFound        = New(ErrCodeNotFound, "пользователь не найден")
	ErrUnauthorized        = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden           = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials  = New(ErrCodeUnauthorized, "неверные учетные данные")

	// ErrOperationReplayed возвращается при повторной денежной операции:
	// вставка записи леджера с тем же reference упёрлась в unique constraint.
	ErrOperationReplayed = New(ErrCodeConflict, "операция уже выполнена")

	ErrRefundAfterRelease = New(ErrCodePaymentsState, "нельзя вернуть средства после выплаты")
	ErrInsufficientFunds  = New(ErrCodePaymentsState, "недостаточно средств на балансе")
	ErrPayoutPending      = New(ErrCodeConflict, "PAYOUT_PENDING: у вас уже есть активная заявка на вывод")
	ErrDisputeOpen        = New(ErrCodeConflict, "DISPUTE_OPEN: по заданию открыт спор")
	ErrDisputeNotAllowed  = New(ErrCodeConflict, "DISPUTE_NOT_ALLOWED: спор по этому заданию недоступен")
	ErrStateConflict      = New(ErrCodeConflict, "состояние изменилось, операция не применена")
)
