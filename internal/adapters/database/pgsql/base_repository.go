// Package pgsql implements the repository ports on PostgreSQL via pgx.
package pgsql

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgx repositories over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		AccountRepo:      NewPgxAccountRepository(pool),
		JournalRepo:      NewPgxJournalRepository(pool),
		PeriodRepo:       NewPgxFiscalPeriodRepository(pool),
		InvoiceRepo:      NewPgxInvoiceRepository(pool),
		PaymentRepo:      NewPgxPaymentRepository(pool),
		TaxRepo:          NewPgxTaxRepository(pool),
		CurrencyRepo:     NewPgxCurrencyRepository(pool),
		ExchangeRateRepo: NewPgxExchangeRateRepository(pool),
	}
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}

// money rebuilds a domain amount from a scanned numeric and the currency's
// decimal places, fetched alongside via a join on currencies.
func money(value decimal.Decimal, decimalPlaces int32) domain.Money {
	return domain.NewMoney(value, decimalPlaces)
}

// mapNotFound converts the driver's empty-result error to the application's.
func mapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
