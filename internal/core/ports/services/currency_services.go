package services

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/shopspring/decimal"
)

// CurrencyConverterSvc converts amounts between currencies.
type CurrencyConverterSvc interface {
	// Convert resolves the effective rate (falling back to the reciprocal of
	// the inverse rate) and re-quantizes to the target currency's scale.
	// Identity when from == to. Fails with ErrNoExchangeRate when neither
	// direction has an effective rate.
	Convert(ctx context.Context, amount domain.Money, fromCode, toCode string, asOf time.Time) (domain.Money, error)

	// Revalue computes balance × (newRate − oldRate), the unrealized
	// gain/loss adjustment. It never mutates the balance.
	Revalue(balance domain.Money, oldRate, newRate decimal.Decimal) domain.Money
}

// CurrencySvcFacade combines conversion with currency and rate management.
type CurrencySvcFacade interface {
	CurrencyConverterSvc

	// GetCurrencyByCode retrieves a currency definition.
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)

	// CreateCurrency registers a new currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorUserID string) (*domain.Currency, error)

	// CreateExchangeRate registers a new time-bounded rate.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)

	// RevalueAccount posts the unrealized gain/loss entry for a
	// foreign-currency account after a rate change, offsetting against the
	// given gain/loss account. The original balance is untouched.
	RevalueAccount(ctx context.Context, tenantID, accountID, gainLossAccountID string, oldRate, newRate decimal.Decimal, asOf time.Time, userID string) (*domain.JournalEntry, error)
}
