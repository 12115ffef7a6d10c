package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a supported currency. At most one currency per process
// carries IsBaseCurrency = true.
type Currency struct {
	CurrencyCode   string `json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol         string `json:"symbol"`       // e.g., "$"
	Name           string `json:"name"`         // e.g., "US Dollar"
	DecimalPlaces  int32  `json:"decimalPlaces"`
	IsBaseCurrency bool   `json:"isBaseCurrency"`
	AuditFields
}

// ExchangeRate is a directed, time-bounded conversion factor between two
// currencies. Lookups select the most recent rate whose window contains the
// as-of date; absence is an error, never a default of 1.0.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	EffectiveFrom    time.Time       `json:"effectiveFrom"`
	EffectiveTo      *time.Time      `json:"effectiveTo,omitempty"` // nil = open-ended
	AuditFields
}

// EffectiveAt reports whether the rate's effective window contains the date.
func (r ExchangeRate) EffectiveAt(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !date.After(*r.EffectiveTo)
}
