package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
)

type PgxExchangeRateRepository struct {
	pool *pgxpool.Pool
}

// NewPgxExchangeRateRepository creates a new repository for exchange rate data.
func NewPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{pool: pool}
}

// SaveExchangeRate persists a new time-bounded rate.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (exchange_rate_id, from_currency_code, to_currency_code, rate, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.pool.Exec(ctx, query,
		rate.ExchangeRateID,
		rate.FromCurrencyCode,
		rate.ToCurrencyCode,
		rate.Rate,
		rate.EffectiveFrom,
		rate.EffectiveTo,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: rate %s/%s effective %s", apperrors.ErrDuplicate,
				rate.FromCurrencyCode, rate.ToCurrencyCode, rate.EffectiveFrom.Format("2006-01-02"))
		}
		return fmt.Errorf("failed to insert exchange rate %s: %w", rate.ExchangeRateID, err)
	}
	return nil
}

// FindEffectiveRate retrieves the most recent rate for from→to whose
// effective window contains asOf.
func (r *PgxExchangeRateRepository) FindEffectiveRate(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	query := `
		SELECT exchange_rate_id, from_currency_code, to_currency_code, rate, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
		LIMIT 1;
	`
	var rate domain.ExchangeRate
	err := r.pool.QueryRow(ctx, query, fromCode, toCode, asOf).Scan(
		&rate.ExchangeRateID,
		&rate.FromCurrencyCode,
		&rate.ToCurrencyCode,
		&rate.Rate,
		&rate.EffectiveFrom,
		&rate.EffectiveTo,
		&rate.CreatedAt,
		&rate.CreatedBy,
		&rate.LastUpdatedAt,
		&rate.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNotFound(err, "failed to find rate %s/%s", fromCode, toCode)
	}
	return &rate, nil
}
