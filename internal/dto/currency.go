package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCurrencyRequest defines the data needed to register a currency.
type CreateCurrencyRequest struct {
	CurrencyCode   string `json:"currencyCode" binding:"required,len=3,uppercase"`
	Symbol         string `json:"symbol" binding:"required"`
	Name           string `json:"name" binding:"required"`
	DecimalPlaces  int32  `json:"decimalPlaces" binding:"min=0,max=8"`
	IsBaseCurrency bool   `json:"isBaseCurrency"`
}

// CurrencyResponse defines the data returned for a currency.
type CurrencyResponse struct {
	CurrencyCode   string `json:"currencyCode"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	DecimalPlaces  int32  `json:"decimalPlaces"`
	IsBaseCurrency bool   `json:"isBaseCurrency"`
}

// CreateExchangeRateRequest defines the structure for creating a new exchange rate.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,len=3,uppercase"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,len=3,uppercase"`
	Rate             decimal.Decimal `json:"rate" binding:"required"`
	EffectiveFrom    time.Time       `json:"effectiveFrom" binding:"required"`
	EffectiveTo      *time.Time      `json:"effectiveTo"`
}

// ConvertRequest defines a currency conversion command.
type ConvertRequest struct {
	Amount           string    `json:"amount" binding:"required,decimal"` // Fixed-scale decimal string
	FromCurrencyCode string    `json:"fromCurrencyCode" binding:"required,len=3,uppercase"`
	ToCurrencyCode   string    `json:"toCurrencyCode" binding:"required,len=3,uppercase"`
	AsOfDate         time.Time `json:"asOfDate" binding:"required"`
}

// ConvertResponse carries the converted amount at the target currency's scale.
type ConvertResponse struct {
	Amount           string    `json:"amount"`
	FromCurrencyCode string    `json:"fromCurrencyCode"`
	ToCurrencyCode   string    `json:"toCurrencyCode"`
	Converted        string    `json:"converted"`
	AsOfDate         time.Time `json:"asOfDate"`
}

// RevalueAccountRequest drives the unrealized gain/loss posting for one
// foreign-currency account after a rate change.
type RevalueAccountRequest struct {
	GainLossAccountID string          `json:"gainLossAccountID" binding:"required"`
	OldRate           decimal.Decimal `json:"oldRate" binding:"required"`
	NewRate           decimal.Decimal `json:"newRate" binding:"required"`
	AsOfDate          time.Time       `json:"asOfDate" binding:"required"`
}

// ToCurrencyResponse converts a domain.Currency to CurrencyResponse DTO.
func ToCurrencyResponse(c *domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		CurrencyCode:   c.CurrencyCode,
		Symbol:         c.Symbol,
		Name:           c.Name,
		DecimalPlaces:  c.DecimalPlaces,
		IsBaseCurrency: c.IsBaseCurrency,
	}
}
