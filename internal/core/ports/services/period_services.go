package services

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// PostingGate serializes period close against in-flight postings. Postings
// hold the read side for their duration; ClosePeriod and ProcessYearEnd take
// the write side, so new postings queue rather than fail.
type PostingGate interface {
	// AcquirePosting blocks while a period close is running and returns a
	// release func the posting must call when its transaction finishes.
	AcquirePosting() (release func())
}

// PeriodCheckerSvc is the posting-time collaborator of the ledger.
type PeriodCheckerSvc interface {
	PostingGate

	// EnsureOpen fails with ErrPeriodClosed when the date falls inside a
	// Closed period, and with ErrNotFound when no period covers the date.
	EnsureOpen(ctx context.Context, tenantID string, date time.Time) error
}

// FiscalPeriodSvcFacade owns the period lifecycle and year-end close.
type FiscalPeriodSvcFacade interface {
	PeriodCheckerSvc

	// CreatePeriod registers a new Open period, enforcing contiguity and
	// non-overlap within the fiscal year.
	CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error)

	// GetPeriodByID retrieves a specific period.
	GetPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error)

	// ClosePeriod transitions a period to Closed after verifying that all
	// earlier periods of the year are Closed and the period's trial balance
	// nets to zero.
	ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) error

	// ProcessYearEnd posts the closing entry that zeroes revenue and expense
	// accounts into retained earnings and closes the year's final period.
	// Both effects commit together or not at all; a detected partial
	// application fails with ErrFatalInconsistency.
	ProcessYearEnd(ctx context.Context, tenantID string, req dto.YearEndRequest, userID string) (*domain.JournalEntry, error)
}
