package services

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// TaxCalculatorSvc computes tax amounts for a taxable base.
type TaxCalculatorSvc interface {
	// CalculateTax resolves the single effective rate per jurisdiction and
	// aggregates per-jurisdiction detail plus a grand total. A jurisdiction
	// with no effective rate fails with ErrNoEffectiveRate, never 0%.
	CalculateTax(ctx context.Context, taxableAmount domain.Money, jurisdictionCodes []string, taxType string, asOf time.Time) (*domain.TaxCalculationResult, error)
}

// TaxSvcFacade combines calculation with jurisdiction and rate management.
type TaxSvcFacade interface {
	TaxCalculatorSvc

	// CreateJurisdiction registers a new taxing authority.
	CreateJurisdiction(ctx context.Context, jurisdiction domain.TaxJurisdiction, creatorUserID string) (*domain.TaxJurisdiction, error)

	// CreateRate registers a new time-bounded rate.
	CreateRate(ctx context.Context, req dto.CreateTaxRateRequest, creatorUserID string) (*domain.TaxRate, error)
}
