package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
)

var oneHundred = decimal.NewFromInt(100)

// taxService resolves jurisdiction rates and computes tax amounts.
type taxService struct {
	BaseService
	taxRepo portsrepo.TaxRepositoryFacade
}

// NewTaxService creates a new TaxService.
func NewTaxService(taxRepo portsrepo.TaxRepositoryFacade) portssvc.TaxSvcFacade {
	return &taxService{taxRepo: taxRepo}
}

var _ portssvc.TaxSvcFacade = (*taxService)(nil)

// CalculateTax evaluates each jurisdiction independently and sums the
// results. A jurisdiction with no rate effective at asOf fails the whole
// calculation; tax omission is a correctness bug, not a default.
func (s *taxService) CalculateTax(ctx context.Context, taxableAmount domain.Money, jurisdictionCodes []string, taxType string, asOf time.Time) (*domain.TaxCalculationResult, error) {
	if taxableAmount.IsNegative() {
		return nil, fmt.Errorf("%w: taxable amount %s is negative", apperrors.ErrValidation, taxableAmount)
	}

	result := &domain.TaxCalculationResult{
		TaxableAmount: taxableAmount,
		Details:       make([]domain.TaxDetail, 0, len(jurisdictionCodes)),
		TotalTax:      domain.ZeroMoney(taxableAmount.Scale()),
	}

	for _, code := range jurisdictionCodes {
		rate, err := s.taxRepo.FindEffectiveRate(ctx, code, taxType, asOf)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: jurisdiction %s, tax type %s, as of %s",
					apperrors.ErrNoEffectiveRate, code, taxType, asOf.Format("2006-01-02"))
			}
			return nil, fmt.Errorf("failed to resolve tax rate for jurisdiction %s: %w", code, err)
		}

		taxAmount := applyRate(taxableAmount, *rate)
		result.Details = append(result.Details, domain.TaxDetail{
			JurisdictionCode: code,
			RateID:           rate.RateID,
			Method:           rate.Method,
			Rate:             rate.Rate,
			TaxAmount:        taxAmount,
		})
		result.TotalTax = result.TotalTax.Add(taxAmount)
	}

	s.LogDebug(ctx, "Tax calculated",
		slog.String("taxable", taxableAmount.String()),
		slog.String("total_tax", result.TotalTax.String()),
		slog.Int("jurisdictions", len(jurisdictionCodes)))
	return result, nil
}

// applyRate evaluates one rate's tagged calculation method. All rounding
// happens in a single quantization per jurisdiction, inside Money.
func applyRate(taxable domain.Money, rate domain.TaxRate) domain.Money {
	scale := taxable.Scale()
	base := taxable.Decimal()

	// Min acts as a threshold: below it nothing is taxed. Max caps the base.
	if rate.MinTaxable != nil && base.LessThan(*rate.MinTaxable) {
		return domain.ZeroMoney(scale)
	}
	if rate.MaxTaxable != nil && base.GreaterThan(*rate.MaxTaxable) {
		base = *rate.MaxTaxable
	}

	switch rate.Method {
	case domain.TaxFlat:
		if rate.FlatAmount == nil {
			return domain.ZeroMoney(scale)
		}
		return domain.NewMoney(*rate.FlatAmount, scale)

	case domain.TaxTiered:
		total := decimal.Zero
		lower := decimal.Zero
		for _, bracket := range rate.Brackets {
			upper := base
			if bracket.UpTo != nil && bracket.UpTo.LessThan(base) {
				upper = *bracket.UpTo
			}
			inBracket := upper.Sub(lower)
			if inBracket.IsPositive() {
				total = total.Add(inBracket.Mul(bracket.Rate).Div(oneHundred))
			}
			if bracket.UpTo == nil || !bracket.UpTo.LessThan(base) {
				break
			}
			lower = *bracket.UpTo
		}
		return domain.NewMoney(total, scale)

	default: // PERCENTAGE
		return domain.NewMoney(base, scale).MulRatio(rate.Rate.Div(oneHundred), domain.RoundHalfUp)
	}
}

// CreateJurisdiction registers a new taxing authority.
func (s *taxService) CreateJurisdiction(ctx context.Context, jurisdiction domain.TaxJurisdiction, creatorUserID string) (*domain.TaxJurisdiction, error) {
	if jurisdiction.Code == "" {
		return nil, fmt.Errorf("%w: jurisdiction code is required", apperrors.ErrValidation)
	}
	now := time.Now().UTC()
	jurisdiction.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}
	if err := s.taxRepo.SaveJurisdiction(ctx, jurisdiction); err != nil {
		return nil, fmt.Errorf("failed to save jurisdiction %s: %w", jurisdiction.Code, err)
	}
	s.LogInfo(ctx, "Tax jurisdiction created", slog.String("code", jurisdiction.Code))
	return &jurisdiction, nil
}

// CreateRate registers a new time-bounded rate after validating per-method
// fields. Overlap with an existing effective window is rejected so the
// at-most-one-effective-rate invariant holds.
func (s *taxService) CreateRate(ctx context.Context, req dto.CreateTaxRateRequest, creatorUserID string) (*domain.TaxRate, error) {
	switch req.Method {
	case domain.TaxPercentage:
		if req.Rate.IsNegative() {
			return nil, fmt.Errorf("%w: percentage rate must not be negative", apperrors.ErrValidation)
		}
	case domain.TaxFlat:
		if req.FlatAmount == nil {
			return nil, fmt.Errorf("%w: flat method requires flatAmount", apperrors.ErrValidation)
		}
	case domain.TaxTiered:
		if len(req.Brackets) == 0 {
			return nil, fmt.Errorf("%w: tiered method requires at least one bracket", apperrors.ErrValidation)
		}
		for i := 1; i < len(req.Brackets); i++ {
			prev, cur := req.Brackets[i-1].UpTo, req.Brackets[i].UpTo
			if prev == nil || (cur != nil && !prev.LessThan(*cur)) {
				return nil, fmt.Errorf("%w: brackets must be ordered by ascending upper bound", apperrors.ErrValidation)
			}
		}
	}
	if req.EffectiveTo != nil && req.EffectiveTo.Before(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effectiveTo precedes effectiveFrom", apperrors.ErrValidation)
	}

	// Reject a window that would make two rates effective on its start date.
	if existing, err := s.taxRepo.FindEffectiveRate(ctx, req.JurisdictionCode, req.TaxType, req.EffectiveFrom); err == nil {
		return nil, fmt.Errorf("%w: rate %s already effective for (%s, %s) at %s",
			apperrors.ErrDuplicate, existing.RateID, req.JurisdictionCode, req.TaxType, req.EffectiveFrom.Format("2006-01-02"))
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for overlapping rate: %w", err)
	}

	now := time.Now().UTC()
	rate := domain.TaxRate{
		RateID:           uuid.NewString(),
		JurisdictionCode: req.JurisdictionCode,
		TaxType:          req.TaxType,
		Method:           req.Method,
		Rate:             req.Rate,
		FlatAmount:       req.FlatAmount,
		Brackets:         req.Brackets,
		MinTaxable:       req.MinTaxable,
		MaxTaxable:       req.MaxTaxable,
		EffectiveFrom:    req.EffectiveFrom,
		EffectiveTo:      req.EffectiveTo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.taxRepo.SaveRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to save tax rate: %w", err)
	}
	s.LogInfo(ctx, "Tax rate created",
		slog.String("rate_id", rate.RateID),
		slog.String("jurisdiction", rate.JurisdictionCode),
		slog.String("method", string(rate.Method)))
	return &rate, nil
}
