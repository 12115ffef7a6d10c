package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
)

type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// NewPgxCurrencyRepository creates a new repository for currency data.
func NewPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepositoryFacade {
	return &PgxCurrencyRepository{pool: pool}
}

const currencyColumns = `currency_code, symbol, name, decimal_places, is_base_currency, created_at, created_by, last_updated_at, last_updated_by`

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var c domain.Currency
	err := row.Scan(
		&c.CurrencyCode,
		&c.Symbol,
		&c.Name,
		&c.DecimalPlaces,
		&c.IsBaseCurrency,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCurrency persists a new currency.
func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	query := `
		INSERT INTO currencies (` + currencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.pool.Exec(ctx, query,
		currency.CurrencyCode,
		currency.Symbol,
		currency.Name,
		currency.DecimalPlaces,
		currency.IsBaseCurrency,
		currency.CreatedAt,
		currency.CreatedBy,
		currency.LastUpdatedAt,
		currency.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, currency.CurrencyCode)
		}
		return fmt.Errorf("failed to insert currency %s: %w", currency.CurrencyCode, err)
	}
	return nil
}

// FindCurrencyByCode retrieves a specific currency by its code.
func (r *PgxCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE currency_code = $1;`
	c, err := scanCurrency(r.pool.QueryRow(ctx, query, currencyCode))
	if err != nil {
		return nil, mapNotFound(err, "failed to find currency %s", currencyCode)
	}
	return c, nil
}

// FindBaseCurrency retrieves the single currency flagged as base.
func (r *PgxCurrencyRepository) FindBaseCurrency(ctx context.Context) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE is_base_currency LIMIT 1;`
	c, err := scanCurrency(r.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, mapNotFound(err, "failed to find base currency")
	}
	return c, nil
}

// ListCurrencies retrieves all available currencies.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies ORDER BY currency_code;`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []domain.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan currency row: %w", err)
		}
		currencies = append(currencies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}
	return currencies, nil
}
