package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Сентинельные ошибки репозиториев. Сервисы оборачивают их в apperror.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrJobNotFound          = errors.New("job not found")
	ErrEscrowNotFound       = errors.New("escrow not found")
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrPayoutNotFound       = errors.New("payout request not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMediaNotFound        = errors.New("media not found")
	ErrWalletNotFound       = errors.New("wallet not found")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRefundAfterRelease: попытка вернуть средства по escrow,
	// который уже выплачен создателю.
	ErrRefundAfterRelease = errors.New("cannot refund after payout")

	// ErrStateConflict: условный UPDATE по ожидаемому статусу не затронул
	// ни одной строки — запрос проиграл гонку или состояние уже другое.
	ErrStateConflict = errors.New("state conflict")

	// ErrDuplicateReference: запись леджера с таким reference уже есть,
	// то есть денежная операция уже выполнялась.
	ErrDuplicateReference = errors.New("duplicate ledger reference")
)

// isUniqueViolation проверяет, является ли ошибка нарушением unique constraint.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
