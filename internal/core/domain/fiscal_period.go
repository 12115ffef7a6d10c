package domain

import "time"

// PeriodStatus is the lifecycle state of a fiscal period. Closed is terminal;
// reopening requires a compensating administrative process outside this core.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod is a bounded accounting window within a fiscal year. Periods
// within a year are contiguous and non-overlapping, and close in
// chronological order only.
type FiscalPeriod struct {
	PeriodID     string       `json:"periodID"` // Primary Key (UUID)
	TenantID     string       `json:"tenantID"`
	FiscalYear   int          `json:"fiscalYear"`
	PeriodNumber int          `json:"periodNumber"` // 1-based within the year
	StartDate    time.Time    `json:"startDate"`    // Inclusive
	EndDate      time.Time    `json:"endDate"`      // Inclusive
	Status       PeriodStatus `json:"status"`
	AuditFields
}

// Contains reports whether a date falls inside the period's range, comparing
// wall-clock dates so intraday times and zone offsets never shift a date
// across the boundary.
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// DateOnly strips the time of day, keeping the timestamp's own calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
