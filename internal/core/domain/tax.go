package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxMethod is the calculation method of a tax rate, a tagged variant
// evaluated by a single switch in the tax service.
type TaxMethod string

const (
	TaxPercentage TaxMethod = "PERCENTAGE"
	TaxFlat       TaxMethod = "FLAT"
	TaxTiered     TaxMethod = "TIERED"
)

// TaxJurisdiction identifies a taxing authority.
type TaxJurisdiction struct {
	Code string `json:"code"` // Primary Key, e.g. "US-CA"
	Name string `json:"name"`
	AuditFields
}

// TaxBracket is one tier of a tiered rate. UpTo is the exclusive upper bound
// of the bracket's taxable amount; nil means unbounded (the last bracket).
type TaxBracket struct {
	UpTo *decimal.Decimal `json:"upTo,omitempty"`
	Rate decimal.Decimal  `json:"rate"` // Percentage applied within the bracket
}

// TaxRate is one time-bounded rate of a jurisdiction. For a given
// (jurisdiction, taxType, date) at most one rate is effective.
type TaxRate struct {
	RateID           string           `json:"rateID"` // Primary Key (UUID)
	JurisdictionCode string           `json:"jurisdictionCode"`
	TaxType          string           `json:"taxType"` // Product/tax category, e.g. "SALES"
	Method           TaxMethod        `json:"method"`
	Rate             decimal.Decimal  `json:"rate"`                 // Percentage for PERCENTAGE method
	FlatAmount       *decimal.Decimal `json:"flatAmount,omitempty"` // Amount for FLAT method
	Brackets         []TaxBracket     `json:"brackets,omitempty"`   // Tiers for TIERED method
	MinTaxable       *decimal.Decimal `json:"minTaxable,omitempty"`
	MaxTaxable       *decimal.Decimal `json:"maxTaxable,omitempty"`
	EffectiveFrom    time.Time        `json:"effectiveFrom"`
	EffectiveTo      *time.Time       `json:"effectiveTo,omitempty"` // nil = open-ended
	AuditFields
}

// EffectiveAt reports whether the rate's effective window contains the date.
func (r TaxRate) EffectiveAt(date time.Time) bool {
	if date.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !date.After(*r.EffectiveTo)
}

// TaxDetail is the per-jurisdiction result of a tax calculation.
type TaxDetail struct {
	JurisdictionCode string          `json:"jurisdictionCode"`
	RateID           string          `json:"rateID"`
	Method           TaxMethod       `json:"method"`
	Rate             decimal.Decimal `json:"rate"`
	TaxAmount        Money           `json:"taxAmount"`
}

// TaxCalculationResult aggregates per-jurisdiction detail plus a grand total.
type TaxCalculationResult struct {
	TaxableAmount Money       `json:"taxableAmount"`
	Details       []TaxDetail `json:"details"`
	TotalTax      Money       `json:"totalTax"`
}
