package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// JournalReader defines read operations for journal entry data
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindPostedEntriesByDateRange retrieves Posted entries (with lines)
	// whose entry date falls in [from, to] for a tenant.
	FindPostedEntriesByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]domain.JournalEntry, error)

	// FindPostedLinesByAccount retrieves all lines of Posted entries touching
	// the account, dated up to and including asOf, in posting order.
	FindPostedLinesByAccount(ctx context.Context, tenantID, accountID string, asOf time.Time) ([]domain.JournalEntryLine, error)

	// ListEntries retrieves a paginated list of entries for a tenant.
	ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error)
}

// JournalWriter defines write operations for journal entry data. Methods that
// span multiple rows run inside one repository transaction.
type JournalWriter interface {
	// SaveEntry persists a new Draft entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntryLines replaces the lines of a Draft entry.
	UpdateEntryLines(ctx context.Context, entryID string, expectedVersion int64, lines []domain.JournalEntryLine, updatedBy string, updatedAt time.Time) error

	// MarkEntryPosted atomically transitions an entry to Posted, assigning the
	// tenant's next sequence number. Fails with ErrConcurrentModification when
	// the stored version differs from expectedVersion.
	MarkEntryPosted(ctx context.Context, entryID string, expectedVersion int64, postedBy string, postedAt time.Time) (int64, error)

	// SaveReversal persists the reversing entry as Posted (with its own
	// sequence number) and sets the original's status to Reversed plus its
	// ReversedByEntryID back-reference, all in one transaction.
	SaveReversal(ctx context.Context, reversing domain.JournalEntry, originalEntryID string, expectedVersion int64, reversedBy string, reversedAt time.Time) (int64, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
