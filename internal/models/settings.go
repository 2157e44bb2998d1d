package models

import "time"

// DefaultCommissionBps — комиссия платформы по умолчанию, 15.00%.
const DefaultCommissionBps = 1500

// PlatformSettings — настройки платформы, единственная строка в таблице.
// Комиссия задаётся в базисных пунктах (1/100 процента).
type PlatformSettings struct {
	ID              int       `db:"id" json:"id"`
	CommissionBps   int64     `db:"commission_bps" json:"commission_bps"`
	DefaultCurrency string    `db:"default_currency" json:"default_currency"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
