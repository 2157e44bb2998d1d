package models

// JobStatus константы статусов заданий
const (
	JobStatusDraft     = "DRAFT"
	JobStatusPublished = "PUBLISHED"
	JobStatusPaused    = "PAUSED"
	JobStatusInReview  = "IN_REVIEW"
	JobStatusCompleted = "COMPLETED"
	JobStatusCanceled  = "CANCELED"
	JobStatusClosed    = "CLOSED"
)

// ModerationStatus константы статусов модерации заданий
const (
	ModerationStatusPending  = "PENDING"
	ModerationStatusApproved = "APPROVED"
	ModerationStatusRejected = "REJECTED"
)

// EscrowStatus константы статусов escrow
const (
	EscrowStatusUnfunded = "UNFUNDED"
	EscrowStatusFunded   = "FUNDED"
	EscrowStatusReleased = "RELEASED"
	EscrowStatusRefunded = "REFUNDED"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen     = "OPEN"
	DisputeStatusResolved = "RESOLVED"
)

// DisputeResolution варианты решения спора
const (
	DisputeResolutionRefund  = "REFUND"
	DisputeResolutionRelease = "RELEASE"
)

// DisputeReason причины открытия спора
const (
	DisputeReasonQuality       = "QUALITY"
	DisputeReasonDeadline      = "DEADLINE"
	DisputeReasonCommunication = "COMMUNICATION"
	DisputeReasonOther         = "OTHER"
)

// DisputeMessageKind виды сообщений в споре
const (
	DisputeMessageKindMessage      = "MESSAGE"
	DisputeMessageKindEvidenceLink = "EVIDENCE_LINK"
	DisputeMessageKindAdminNote    = "ADMIN_NOTE"
)

// SubmissionStatus константы статусов сдачи работы
const (
	SubmissionStatusSubmitted        = "SUBMITTED"
	SubmissionStatusChangesRequested = "CHANGES_REQUESTED"
	SubmissionStatusApproved         = "APPROVED"
)

// PayoutStatus константы статусов заявок на вывод средств
const (
	PayoutStatusPending  = "PENDING"
	PayoutStatusApproved = "APPROVED"
	PayoutStatusRejected = "REJECTED"
	PayoutStatusCanceled = "CANCELED"
)

// ApplicationStatus константы статусов откликов
const (
	ApplicationStatusPending   = "PENDING"
	ApplicationStatusAccepted  = "ACCEPTED"
	ApplicationStatusRejected  = "REJECTED"
	ApplicationStatusWithdrawn = "WITHDRAWN"
)

// InvitationStatus константы статусов приглашений
const (
	InvitationStatusPending  = "PENDING"
	InvitationStatusAccepted = "ACCEPTED"
	InvitationStatusDeclined = "DECLINED"
)

// Роли пользователей
const (
	RoleCreator = "CREATOR"
	RoleBrand   = "BRAND"
	RoleAdmin   = "ADMIN"
)

// Типы записей в леджере
const (
	LedgerEscrowFunded     = "ESCROW_FUNDED"
	LedgerEscrowReleased   = "ESCROW_RELEASED"
	LedgerEscrowCommission = "ESCROW_COMMISSION"
	LedgerEscrowRefunded   = "ESCROW_REFUNDED"
	LedgerPayoutRequested  = "PAYOUT_REQUESTED"
	LedgerPayoutApproved   = "PAYOUT_APPROVED"
	LedgerPayoutRejected   = "PAYOUT_REJECTED"
	LedgerPayoutCanceled   = "PAYOUT_CANCELED"
	LedgerManualAdjustment = "MANUAL_ADJUSTMENT"
)

// ValidCurrencies список поддерживаемых валют
var ValidCurrencies = map[string]struct{}{
	"RUB": {},
	"USD": {},
	"EUR": {},
	"KZT": {},
	"UAH": {},
	"BYN": {},
}

// ValidDisputeReasons список валидных причин спора
var ValidDisputeReasons = map[string]struct{}{
	DisputeReasonQuality:       {},
	DisputeReasonDeadline:      {},
	DisputeReasonCommunication: {},
	DisputeReasonOther:         {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleCreator: {},
	RoleBrand:   {},
	RoleAdmin:   {},
}

// jobTransitions таблица переходов статусов задания.
// COMPLETED, CANCELED и CLOSED — поглощающие состояния: выхода из них нет.
var jobTransitions = map[string]map[string]struct{}{
	JobStatusDraft: {
		JobStatusPublished: {},
		JobStatusCanceled:  {},
	},
	JobStatusPublished: {
		JobStatusPaused:   {},
		JobStatusCanceled: {},
		JobStatusClosed:   {},
	},
	JobStatusPaused: {
		JobStatusPublished: {},
		JobStatusInReview:  {},
		JobStatusCanceled:  {},
	},
	JobStatusInReview: {
		JobStatusPaused:    {},
		JobStatusCompleted: {},
		JobStatusCanceled:  {},
	},
	JobStatusCompleted: {},
	JobStatusCanceled:  {},
	JobStatusClosed:    {},
}

// escrowTransitions таблица переходов статусов escrow.
// RELEASED и REFUNDED терминальны.
var escrowTransitions = map[string]map[string]struct{}{
	EscrowStatusUnfunded: {
		EscrowStatusFunded: {},
	},
	EscrowStatusFunded: {
		EscrowStatusReleased: {},
		EscrowStatusRefunded: {},
	},
	EscrowStatusReleased: {},
	EscrowStatusRefunded: {},
}

// payoutTransitions таблица переходов статусов заявок на вывод.
var payoutTransitions = map[string]map[string]struct{}{
	PayoutStatusPending: {
		PayoutStatusApproved: {},
		PayoutStatusRejected: {},
		PayoutStatusCanceled: {},
	},
	PayoutStatusApproved: {},
	PayoutStatusRejected: {},
	PayoutStatusCanceled: {},
}

// CanJobTransition проверяет допустимость перехода статуса задания.
func CanJobTransition(from, to string) bool {
	next, ok := jobTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// CanEscrowTransition проверяет допустимость перехода статуса escrow.
func CanEscrowTransition(from, to string) bool {
	next, ok := escrowTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// CanPayoutTransition проверяет допустимость перехода статуса заявки на вывод.
func CanPayoutTransition(from, to string) bool {
	next, ok := payoutTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// IsJobTerminal сообщает, является ли статус задания терминальным.
func IsJobTerminal(status string) bool {
	next, ok := jobTransitions[status]
	return ok && len(next) == 0
}
