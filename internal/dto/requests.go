package dto

import "github.com/google/uuid"

// RegisterRequest — тело запроса регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest — тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateBrandProfileRequest — изменение профиля бренда.
type UpdateBrandProfileRequest struct {
	CompanyName *string `json:"company_name"`
	Description *string `json:"description"`
	Website     *string `json:"website"`
}

// UpdateCreatorProfileRequest — изменение профиля создателя.
type UpdateCreatorProfileRequest struct {
	DisplayName string  `json:"display_name" binding:"required"`
	Bio         *string `json:"bio"`
	Categories  *string `json:"categories"`
	Telegram    *string `json:"telegram"`
}

// JobRequest — создание и редактирование задания.
type JobRequest struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description" binding:"required"`
	BudgetMinCents *int64 `json:"budget_min_cents"`
	BudgetMaxCents *int64 `json:"budget_max_cents"`
	Currency       string `json:"currency"`
}

// CancelJobRequest — отмена задания.
type CancelJobRequest struct {
	Reason string `json:"reason"`
}

// ApplyRequest — отклик на задание.
type ApplyRequest struct {
	CoverLetter      string `json:"cover_letter" binding:"required"`
	QuotedPriceCents *int64 `json:"quoted_price_cents"`
}

// InviteRequest — приглашение создателя.
type InviteRequest struct {
	CreatorID uuid.UUID `json:"creator_id" binding:"required"`
	Message   *string   `json:"message"`
}

// SubmitWorkRequest — сдача работы.
type SubmitWorkRequest struct {
	Content string     `json:"content" binding:"required"`
	MediaID *uuid.UUID `json:"media_id"`
}

// OpenDisputeRequest — открытие спора.
type OpenDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest — разрешение спора админом.
type ResolveDisputeRequest struct {
	AdminNote string `json:"admin_note"`
}

// DisputeMessageRequest — сообщение в тред спора.
type DisputeMessageRequest struct {
	Kind string `json:"kind" binding:"required"`
	Body string `json:"body" binding:"required"`
}

// SendMessageRequest — сообщение в диалог.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// PayoutRequestBody — заявка на вывод средств.
type PayoutRequestBody struct {
	AmountCents  int64  `json:"amount_cents" binding:"required"`
	Currency     string `json:"currency" binding:"required"`
	PayoutMethod string `json:"payout_method" binding:"required"`
}

// RejectPayoutRequest — отклонение выплаты админом.
type RejectPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ManualAdjustRequest — ручная корректировка баланса админом.
type ManualAdjustRequest struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Currency   string    `json:"currency" binding:"required"`
	DeltaCents int64     `json:"delta_cents" binding:"required"`
}

// UpdateSettingsRequest — изменение настроек платформы.
type UpdateSettingsRequest struct {
	CommissionBps   int64  `json:"commission_bps"`
	DefaultCurrency string `json:"default_currency" binding:"required"`
}
