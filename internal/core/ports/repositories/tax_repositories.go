package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// TaxRateReader defines read operations for jurisdiction and rate data
type TaxRateReader interface {
	// FindJurisdictionByCode retrieves a jurisdiction by its code.
	FindJurisdictionByCode(ctx context.Context, code string) (*domain.TaxJurisdiction, error)

	// FindEffectiveRate retrieves the single rate effective for
	// (jurisdiction, taxType) at the given date, or ErrNotFound.
	FindEffectiveRate(ctx context.Context, jurisdictionCode, taxType string, asOf time.Time) (*domain.TaxRate, error)
}

// TaxRateWriter defines write operations for jurisdiction and rate data
type TaxRateWriter interface {
	// SaveJurisdiction persists a new jurisdiction.
	SaveJurisdiction(ctx context.Context, jurisdiction domain.TaxJurisdiction) error

	// SaveRate persists a new time-bounded rate.
	SaveRate(ctx context.Context, rate domain.TaxRate) error
}

// TaxRepositoryFacade combines all tax-related repository interfaces
type TaxRepositoryFacade interface {
	TaxRateReader
	TaxRateWriter
}
