package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

// Константы валидации
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinDisplayNameLength    = 2
	MaxDisplayNameLength    = 100
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MinJobBriefLength       = 10
	MaxJobBriefLength       = 5000
	MinCompanyNameLength    = 2
	MaxCompanyNameLength    = 200
	MinBrandDescription     = 20
	MaxBrandDescription     = 2000
	MaxBioLength            = 1000
	MinMessageLength        = 1
	MaxMessageLength        = 5000
	MinCoverLetterLength    = 10
	MaxCoverLetterLength    = 2000
	MaxRejectionReason      = 1000
	MaxWebsiteLength        = 500

	// Бюджеты в минорных единицах (копейки/центы).
	MinBudgetCents = int64(0)
	MaxBudgetCents = int64(10_000_000_000) // 100 миллионов в основных единицах
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("некорректный формат email")
	}
	return nil
}

// ValidateURL проверяет необязательный URL (http/https).
func ValidateURL(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if utf8.RuneCountInString(value) > MaxWebsiteLength {
		return fmt.Errorf("%s слишком длинный", fieldName)
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s должен быть корректной ссылкой http(s)", fieldName)
	}
	return nil
}

// ValidateRole проверяет роль пользователя при регистрации.
// Роль ADMIN через публичную регистрацию недоступна.
func ValidateRole(role string) error {
	if role == models.RoleCreator || role == models.RoleBrand {
		return nil
	}
	return fmt.Errorf("недопустимая роль: %s", role)
}

// ValidateCurrency проверяет, что валюта из списка поддерживаемых.
func ValidateCurrency(currency string) error {
	if _, ok := models.ValidCurrencies[currency]; ok {
		return nil
	}
	return fmt.Errorf("валюта %s не поддерживается", currency)
}

// ValidateAmountCents проверяет денежную сумму в минорных единицах.
func ValidateAmountCents(fieldName string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%s должен быть положительным", fieldName)
	}
	if amount > MaxBudgetCents {
		return fmt.Errorf("%s превышает допустимый максимум", fieldName)
	}
	return nil
}

// ValidateBudgetRange проверяет вилку бюджета задания.
func ValidateBudgetRange(minCents, maxCents int64) error {
	if minCents < MinBudgetCents || maxCents < MinBudgetCents {
		return fmt.Errorf("бюджет не может быть отрицательным")
	}
	if maxCents > MaxBudgetCents {
		return fmt.Errorf("бюджет превышает допустимый максимум")
	}
	if maxCents > 0 && minCents > maxCents {
		return fmt.Errorf("минимальный бюджет больше максимального")
	}
	return nil
}

// ValidateDisputeReason проверяет причину открытия спора.
func ValidateDisputeReason(reason string) error {
	if _, ok := models.ValidDisputeReasons[reason]; ok {
		return nil
	}
	return fmt.Errorf("недопустимая причина спора: %s", reason)
}

// ValidateBrandProfileComplete проверяет полноту профиля бренда.
// Полнота профиля — условие публикации заданий.
func ValidateBrandProfileComplete(profile *models.BrandProfile) error {
	if profile == nil || profile.CompanyName == nil || strings.TrimSpace(*profile.CompanyName) == "" {
		return fmt.Errorf("укажите название компании")
	}
	if err := ValidateLength("название компании", *profile.CompanyName, MinCompanyNameLength, MaxCompanyNameLength); err != nil {
		return err
	}
	if profile.Description == nil || strings.TrimSpace(*profile.Description) == "" {
		return fmt.Errorf("заполните описание компании")
	}
	if err := ValidateLength("описание компании", *profile.Description, MinBrandDescription, MaxBrandDescription); err != nil {
		return err
	}
	if profile.Website != nil {
		if err := ValidateURL("сайт компании", *profile.Website); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeString обрезает пробелы и управляющие символы по краям.
func SanitizeString(value string) string {
	return strings.TrimSpace(value)
}
