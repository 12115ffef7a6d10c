package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateJurisdictionRequest defines the data needed to register a taxing authority.
type CreateJurisdictionRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// CreateTaxRateRequest defines the data needed to create a time-bounded rate.
type CreateTaxRateRequest struct {
	JurisdictionCode string              `json:"jurisdictionCode" binding:"required"`
	TaxType          string              `json:"taxType" binding:"required"`
	Method           domain.TaxMethod    `json:"method" binding:"required,oneof=PERCENTAGE FLAT TIERED"`
	Rate             decimal.Decimal     `json:"rate"`
	FlatAmount       *decimal.Decimal    `json:"flatAmount"`
	Brackets         []domain.TaxBracket `json:"brackets"`
	MinTaxable       *decimal.Decimal    `json:"minTaxable"`
	MaxTaxable       *decimal.Decimal    `json:"maxTaxable"`
	EffectiveFrom    time.Time           `json:"effectiveFrom" binding:"required"`
	EffectiveTo      *time.Time          `json:"effectiveTo"`
}

// CalculateTaxRequest defines the inputs of a tax calculation.
type CalculateTaxRequest struct {
	TaxableAmount     string    `json:"taxableAmount" binding:"required,decimal"` // Fixed-scale decimal string
	CurrencyCode      string    `json:"currencyCode" binding:"required,len=3,uppercase"`
	JurisdictionCodes []string  `json:"jurisdictionCodes" binding:"required,min=1"`
	TaxType           string    `json:"taxType" binding:"required"`
	AsOfDate          time.Time `json:"asOfDate" binding:"required"`
}

// TaxDetailResponse is the per-jurisdiction portion of a calculation result.
type TaxDetailResponse struct {
	JurisdictionCode string          `json:"jurisdictionCode"`
	RateID           string          `json:"rateID"`
	Method           string          `json:"method"`
	Rate             decimal.Decimal `json:"rate"`
	TaxAmount        string          `json:"taxAmount"`
}

// CalculateTaxResponse aggregates detail plus a grand total.
type CalculateTaxResponse struct {
	TaxableAmount string              `json:"taxableAmount"`
	Details       []TaxDetailResponse `json:"details"`
	TotalTax      string              `json:"totalTax"`
}

// ToCalculateTaxResponse converts a domain result to its response DTO.
func ToCalculateTaxResponse(r *domain.TaxCalculationResult) CalculateTaxResponse {
	details := make([]TaxDetailResponse, len(r.Details))
	for i, d := range r.Details {
		details[i] = TaxDetailResponse{
			JurisdictionCode: d.JurisdictionCode,
			RateID:           d.RateID,
			Method:           string(d.Method),
			Rate:             d.Rate,
			TaxAmount:        d.TaxAmount.String(),
		}
	}
	return CalculateTaxResponse{
		TaxableAmount: r.TaxableAmount.String(),
		Details:       details,
		TotalTax:      r.TotalTax.String(),
	}
}
