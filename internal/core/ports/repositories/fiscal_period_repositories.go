package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// FiscalPeriodReader defines read operations for fiscal period data
type FiscalPeriodReader interface {
	// FindPeriodByID retrieves a specific period by its unique identifier.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodByDate retrieves the period whose date range contains the date.
	FindPeriodByDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error)

	// FindPeriodsByYear retrieves all periods of a fiscal year ordered by
	// period number.
	FindPeriodsByYear(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error)
}

// FiscalPeriodWriter defines write operations for fiscal period data
type FiscalPeriodWriter interface {
	// SavePeriod persists a new fiscal period.
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// MarkPeriodClosed transitions a period to Closed.
	MarkPeriodClosed(ctx context.Context, periodID string, closedBy string, closedAt time.Time) error
}

// FiscalPeriodRepositoryFacade combines all period-related repository interfaces
type FiscalPeriodRepositoryFacade interface {
	FiscalPeriodReader
	FiscalPeriodWriter
}
