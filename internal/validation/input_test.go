package validation

import (
	"strings"
	"testing"

	"github.com/ugcmarket/ugc-backend/internal/models"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@mail.ru",
		"name+tag@sub.domain.org",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("email %q должен быть валидным: %v", email, err)
		}
	}

	invalid := []string{
		"",
		"без-собаки",
		"user@",
		"@example.com",
		"user@domain",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("email %q должен быть отклонён", email)
		}
	}
}

func TestValidateLength(t *testing.T) {
	if err := ValidateLength("поле", "abc", 3, 10); err != nil {
		t.Errorf("длина ровно min должна проходить: %v", err)
	}
	if err := ValidateLength("поле", "ab", 3, 10); err == nil {
		t.Error("строка короче min должна быть отклонена")
	}
	if err := ValidateLength("поле", strings.Repeat("x", 11), 3, 10); err == nil {
		t.Error("строка длиннее max должна быть отклонена")
	}
	// Длина считается в рунах, не в байтах.
	if err := ValidateLength("поле", "привет", 3, 10); err != nil {
		t.Errorf("кириллица из 6 рун должна проходить: %v", err)
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("сайт", ""); err != nil {
		t.Errorf("пустой URL необязателен: %v", err)
	}
	if err := ValidateURL("сайт", "https://example.com/page"); err != nil {
		t.Errorf("корректный https URL должен проходить: %v", err)
	}
	for _, u := range []string{"ftp://example.com", "not-a-url", "https://"} {
		if err := ValidateURL("сайт", u); err == nil {
			t.Errorf("URL %q должен быть отклонён", u)
		}
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(models.RoleCreator); err != nil {
		t.Errorf("роль CREATOR должна проходить: %v", err)
	}
	if err := ValidateRole(models.RoleBrand); err != nil {
		t.Errorf("роль BRAND должна проходить: %v", err)
	}
	// Админа нельзя создать через публичную регистрацию.
	if err := ValidateRole(models.RoleAdmin); err == nil {
		t.Error("роль ADMIN должна быть отклонена")
	}
	if err := ValidateRole("MANAGER"); err == nil {
		t.Error("неизвестная роль должна быть отклонена")
	}
}

func TestValidateCurrency(t *testing.T) {
	for currency := range models.ValidCurrencies {
		if err := ValidateCurrency(currency); err != nil {
			t.Errorf("валюта %s должна поддерживаться: %v", currency, err)
		}
	}
	for _, currency := range []string{"GBP", "rub", ""} {
		if err := ValidateCurrency(currency); err == nil {
			t.Errorf("валюта %q должна быть отклонена", currency)
		}
	}
}

func TestValidateAmountCents(t *testing.T) {
	if err := ValidateAmountCents("сумма", 1); err != nil {
		t.Errorf("минимальная положительная сумма должна проходить: %v", err)
	}
	if err := ValidateAmountCents("сумма", 0); err == nil {
		t.Error("нулевая сумма должна быть отклонена")
	}
	if err := ValidateAmountCents("сумма", -100); err == nil {
		t.Error("отрицательная сумма должна быть отклонена")
	}
	if err := ValidateAmountCents("сумма", MaxBudgetCents+1); err == nil {
		t.Error("сумма выше максимума должна быть отклонена")
	}
}

func TestValidateBudgetRange(t *testing.T) {
	if err := ValidateBudgetRange(10000, 50000); err != nil {
		t.Errorf("корректная вилка должна проходить: %v", err)
	}
	// Ноль означает «не задано», вилка без максимума допустима.
	if err := ValidateBudgetRange(10000, 0); err != nil {
		t.Errorf("вилка без максимума должна проходить: %v", err)
	}
	if err := ValidateBudgetRange(50000, 10000); err == nil {
		t.Error("min > max должен быть отклонён")
	}
	if err := ValidateBudgetRange(-1, 10000); err == nil {
		t.Error("отрицательный бюджет должен быть отклонён")
	}
}

func TestValidateDisputeReason(t *testing.T) {
	for reason := range models.ValidDisputeReasons {
		if err := ValidateDisputeReason(reason); err != nil {
			t.Errorf("причина %s должна проходить: %v", reason, err)
		}
	}
	if err := ValidateDisputeReason("WHATEVER"); err == nil {
		t.Error("неизвестная причина должна быть отклонена")
	}
}

func TestValidateBrandProfileComplete(t *testing.T) {
	company := "ООО Ромашка"
	description := strings.Repeat("о компании ", 3)
	website := "https://romashka.example"

	profile := &models.BrandProfile{
		CompanyName: &company,
		Description: &description,
		Website:     &website,
	}
	if err := ValidateBrandProfileComplete(profile); err != nil {
		t.Errorf("полный профиль должен проходить: %v", err)
	}

	if err := ValidateBrandProfileComplete(nil); err == nil {
		t.Error("nil профиль должен быть отклонён")
	}

	empty := "   "
	if err := ValidateBrandProfileComplete(&models.BrandProfile{CompanyName: &empty}); err == nil {
		t.Error("профиль без названия компании должен быть отклонён")
	}

	short := "мало"
	if err := ValidateBrandProfileComplete(&models.BrandProfile{CompanyName: &company, Description: &short}); err == nil {
		t.Error("слишком короткое описание должно быть отклонено")
	}

	badSite := "not-a-url"
	if err := ValidateBrandProfileComplete(&models.BrandProfile{
		CompanyName: &company,
		Description: &description,
		Website:     &badSite,
	}); err == nil {
		t.Error("некорректный сайт должен быть отклонён")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Password1"); err != nil {
		t.Errorf("корректный пароль должен проходить: %v", err)
	}

	invalid := map[string]string{
		"Pa1":       "короткий пароль",
		"password1": "без заглавной буквы",
		"PASSWORD1": "без строчной буквы",
		"Passwordd": "без цифры",
	}
	for password, reason := range invalid {
		if err := ValidatePassword(password); err == nil {
			t.Errorf("пароль %q должен быть отклонён: %s", password, reason)
		}
	}
}
