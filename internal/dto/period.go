package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// CreatePeriodRequest defines the data needed to create a fiscal period.
type CreatePeriodRequest struct {
	FiscalYear   int       `json:"fiscalYear" binding:"required"`
	PeriodNumber int       `json:"periodNumber" binding:"required,min=1"`
	StartDate    time.Time `json:"startDate" binding:"required"`
	EndDate      time.Time `json:"endDate" binding:"required"`
}

// PeriodResponse defines the data returned for a fiscal period.
type PeriodResponse struct {
	PeriodID     string              `json:"periodID"`
	FiscalYear   int                 `json:"fiscalYear"`
	PeriodNumber int                 `json:"periodNumber"`
	StartDate    time.Time           `json:"startDate"`
	EndDate      time.Time           `json:"endDate"`
	Status       domain.PeriodStatus `json:"status"`
}

// YearEndRequest drives ProcessYearEnd for one fiscal year.
type YearEndRequest struct {
	FiscalYear                int    `json:"fiscalYear" binding:"required"`
	RetainedEarningsAccountID string `json:"retainedEarningsAccountID" binding:"required"`
}

// ToPeriodResponse converts a domain.FiscalPeriod to PeriodResponse DTO.
func ToPeriodResponse(p *domain.FiscalPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:     p.PeriodID,
		FiscalYear:   p.FiscalYear,
		PeriodNumber: p.PeriodNumber,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		Status:       p.Status,
	}
}
