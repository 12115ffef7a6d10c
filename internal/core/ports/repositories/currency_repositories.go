package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// CurrencyReader defines read operations for currency data
type CurrencyReader interface {
	// FindCurrencyByCode retrieves a specific currency by its code.
	FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)

	// FindBaseCurrency retrieves the single currency flagged as base.
	FindBaseCurrency(ctx context.Context) (*domain.Currency, error)

	// ListCurrencies retrieves all available currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriter defines write operations for currency data
type CurrencyWriter interface {
	// SaveCurrency persists a new currency.
	SaveCurrency(ctx context.Context, currency domain.Currency) error
}

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindEffectiveRate retrieves the most recent rate for from→to whose
	// effective window contains asOf, or ErrNotFound.
	FindEffectiveRate(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// SaveExchangeRate persists a new time-bounded rate.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error
}

// CurrencyRepositoryFacade combines all currency-related repository interfaces
type CurrencyRepositoryFacade interface {
	CurrencyReader
	CurrencyWriter
}

// ExchangeRateRepositoryFacade combines all rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
