package services

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// LedgerReaderSvc defines read operations for journal entry data
type LedgerReaderSvc interface {
	// GetEntryByID retrieves a specific entry with its lines.
	GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)

	// GetAccountBalance derives an account's balance from its Posted line
	// history up to asOf, net of the account's normal balance side.
	GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time) (domain.Money, error)

	// ListEntries retrieves a paginated list of entries for a tenant,
	// newest first, headers only.
	ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error)
}

// LedgerWriterSvc defines write operations for journal entry data
type LedgerWriterSvc interface {
	// CreateDraftEntry persists a new Draft entry with its lines. A draft may
	// be temporarily unbalanced.
	CreateDraftEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// UpdateDraftEntry replaces the lines of a Draft entry. Posted and
	// Reversed entries are immutable.
	UpdateDraftEntry(ctx context.Context, tenantID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntry validates and atomically transitions an entry to Posted.
	// Re-posting an already-Posted entry is a no-op.
	PostEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error)

	// ReverseEntry creates and posts the debit/credit-swapped reversing entry
	// and sets the original's one-shot back-reference.
	ReverseEntry(ctx context.Context, tenantID string, entryID string, reason string, userID string) (*domain.JournalEntry, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
