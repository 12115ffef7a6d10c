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

type PgxTaxRepository struct {
	pool *pgxpool.Pool
}

// NewPgxTaxRepository creates a new repository for jurisdiction and rate data.
func NewPgxTaxRepository(pool *pgxpool.Pool) portsrepo.TaxRepositoryFacade {
	return &PgxTaxRepository{pool: pool}
}

// SaveJurisdiction persists a new jurisdiction.
func (r *PgxTaxRepository) SaveJurisdiction(ctx context.Context, jurisdiction domain.TaxJurisdiction) error {
	query := `
		INSERT INTO tax_jurisdictions (code, name, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.pool.Exec(ctx, query,
		jurisdiction.Code,
		jurisdiction.Name,
		jurisdiction.CreatedAt,
		jurisdiction.CreatedBy,
		jurisdiction.LastUpdatedAt,
		jurisdiction.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: jurisdiction %s", apperrors.ErrDuplicate, jurisdiction.Code)
		}
		return fmt.Errorf("failed to insert jurisdiction %s: %w", jurisdiction.Code, err)
	}
	return nil
}

// FindJurisdictionByCode retrieves a jurisdiction by its code.
func (r *PgxTaxRepository) FindJurisdictionByCode(ctx context.Context, code string) (*domain.TaxJurisdiction, error) {
	query := `
		SELECT code, name, created_at, created_by, last_updated_at, last_updated_by
		FROM tax_jurisdictions
		WHERE code = $1;
	`
	var j domain.TaxJurisdiction
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&j.Code,
		&j.Name,
		&j.CreatedAt,
		&j.CreatedBy,
		&j.LastUpdatedAt,
		&j.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNotFound(err, "failed to find jurisdiction %s", code)
	}
	return &j, nil
}

// SaveRate persists a new time-bounded rate. Brackets are stored as JSONB.
func (r *PgxTaxRepository) SaveRate(ctx context.Context, rate domain.TaxRate) error {
	query := `
		INSERT INTO tax_rates (rate_id, jurisdiction_code, tax_type, method, rate, flat_amount, brackets, min_taxable, max_taxable, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.pool.Exec(ctx, query,
		rate.RateID,
		rate.JurisdictionCode,
		rate.TaxType,
		rate.Method,
		rate.Rate,
		rate.FlatAmount,
		rate.Brackets,
		rate.MinTaxable,
		rate.MaxTaxable,
		rate.EffectiveFrom,
		rate.EffectiveTo,
		rate.CreatedAt,
		rate.CreatedBy,
		rate.LastUpdatedAt,
		rate.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tax rate %s: %w", rate.RateID, err)
	}
	return nil
}

// FindEffectiveRate retrieves the single rate effective for (jurisdiction,
// taxType) at the given date. The most recent effective_from wins when
// windows were set up back to back.
func (r *PgxTaxRepository) FindEffectiveRate(ctx context.Context, jurisdictionCode, taxType string, asOf time.Time) (*domain.TaxRate, error) {
	query := `
		SELECT rate_id, jurisdiction_code, tax_type, method, rate, flat_amount, brackets, min_taxable, max_taxable, effective_from, effective_to, created_at, created_by, last_updated_at, last_updated_by
		FROM tax_rates
		WHERE jurisdiction_code = $1 AND tax_type = $2
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
		LIMIT 1;
	`
	var rate domain.TaxRate
	err := r.pool.QueryRow(ctx, query, jurisdictionCode, taxType, asOf).Scan(
		&rate.RateID,
		&rate.JurisdictionCode,
		&rate.TaxType,
		&rate.Method,
		&rate.Rate,
		&rate.FlatAmount,
		&rate.Brackets,
		&rate.MinTaxable,
		&rate.MaxTaxable,
		&rate.EffectiveFrom,
		&rate.EffectiveTo,
		&rate.CreatedAt,
		&rate.CreatedBy,
		&rate.LastUpdatedAt,
		&rate.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapNotFound(err, "failed to find effective rate for (%s, %s)", jurisdictionCode, taxType)
	}
	return &rate, nil
}
