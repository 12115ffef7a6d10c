package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
)

type PgxJournalRepository struct {
	pool *pgxpool.Pool
}

// NewPgxJournalRepository creates a new repository for journal entry data.
func NewPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{pool: pool}
}

const entryColumns = `e.entry_id, e.tenant_id, e.entry_date, e.description, e.source_ref, e.currency_code, e.status, e.sequence_number, e.reversal_of_entry_id, e.reversed_by_entry_id, e.version, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by`

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var seq *int64
	err := row.Scan(
		&entry.EntryID,
		&entry.TenantID,
		&entry.EntryDate,
		&entry.Description,
		&entry.SourceRef,
		&entry.CurrencyCode,
		&entry.Status,
		&seq,
		&entry.ReversalOfEntryID,
		&entry.ReversedByEntryID,
		&entry.Version,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if seq != nil {
		entry.SequenceNumber = *seq
	}
	return &entry, nil
}

// lineRow carries a scanned line plus the currency scale joined in.
func scanLines(rows pgx.Rows) ([]domain.JournalEntryLine, error) {
	var lines []domain.JournalEntryLine
	for rows.Next() {
		var line domain.JournalEntryLine
		var debit, credit decimal.Decimal
		var scale int32
		err := rows.Scan(
			&line.LineID,
			&line.EntryID,
			&line.AccountID,
			&debit,
			&credit,
			&line.Reconciliation,
			&line.Dimensions,
			&line.CreatedAt,
			&line.CreatedBy,
			&line.LastUpdatedAt,
			&line.LastUpdatedBy,
			&scale,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry line: %w", err)
		}
		line.Debit = money(debit, scale)
		line.Credit = money(credit, scale)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry lines: %w", err)
	}
	return lines, nil
}

const lineSelect = `
	SELECT l.line_id, l.entry_id, l.account_id, l.debit_amount, l.credit_amount, l.reconciliation, l.dimensions,
	       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, c.decimal_places
	FROM journal_entry_lines l
	JOIN journal_entries e ON e.entry_id = l.entry_id
	JOIN currencies c ON c.currency_code = e.currency_code`

func (r *PgxJournalRepository) loadLines(ctx context.Context, entryIDs []string) (map[string][]domain.JournalEntryLine, error) {
	query := lineSelect + ` WHERE l.entry_id = ANY($1) ORDER BY l.created_at, l.line_id;`
	rows, err := r.pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry lines: %w", err)
	}
	defer rows.Close()

	lines, err := scanLines(rows)
	if err != nil {
		return nil, err
	}
	byEntry := make(map[string][]domain.JournalEntryLine, len(entryIDs))
	for _, line := range lines {
		byEntry[line.EntryID] = append(byEntry[line.EntryID], line)
	}
	return byEntry, nil
}

// SaveEntry persists a new Draft entry and its lines in one transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	entryQuery := `
		INSERT INTO journal_entries (entry_id, tenant_id, entry_date, description, source_ref, currency_code, status, reversal_of_entry_id, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, entryQuery,
		entry.EntryID,
		entry.TenantID,
		entry.EntryDate,
		entry.Description,
		entry.SourceRef,
		entry.CurrencyCode,
		entry.Status,
		entry.ReversalOfEntryID,
		entry.Version,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}

	if err := insertLines(ctx, tx, entry.Lines); err != nil {
		return fmt.Errorf("failed to insert lines for entry %s: %w", entry.EntryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entry %s: %w", entry.EntryID, err)
	}
	return nil
}

func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalEntryLine) error {
	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_entry_lines (line_id, entry_id, account_id, debit_amount, credit_amount, reconciliation, dimensions, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, line := range lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.Debit.Decimal(),
			line.Credit.Decimal(),
			line.Reconciliation,
			line.Dimensions,
			line.CreatedAt,
			line.CreatedBy,
			line.LastUpdatedAt,
			line.LastUpdatedBy,
		)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries e WHERE e.entry_id = $1;`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, entryID))
	if err != nil {
		return nil, mapNotFound(err, "failed to find entry by ID %s", entryID)
	}

	byEntry, err := r.loadLines(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry.Lines = byEntry[entryID]
	return entry, nil
}

// FindPostedEntriesByDateRange retrieves Posted entries with lines whose
// entry date falls in [from, to] for a tenant.
func (r *PgxJournalRepository) FindPostedEntriesByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries e
		WHERE e.tenant_id = $1 AND e.status IN ('POSTED', 'REVERSED') AND e.entry_date BETWEEN $2 AND $3
		ORDER BY e.sequence_number;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries by date range: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	var entryIDs []string
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
		entryIDs = append(entryIDs, entry.EntryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	byEntry, err := r.loadLines(ctx, entryIDs)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = byEntry[entries[i].EntryID]
	}
	return entries, nil
}

// FindPostedLinesByAccount retrieves all lines of Posted entries touching the
// account, dated up to and including asOf, in posting order. Reversed
// originals stay included; their reversing entries cancel them numerically.
func (r *PgxJournalRepository) FindPostedLinesByAccount(ctx context.Context, tenantID, accountID string, asOf time.Time) ([]domain.JournalEntryLine, error) {
	query := lineSelect + `
	WHERE e.tenant_id = $1 AND l.account_id = $2 AND e.status IN ('POSTED', 'REVERSED') AND e.entry_date <= $3
	ORDER BY e.sequence_number, l.line_id;`
	rows, err := r.pool.Query(ctx, query, tenantID, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for account %s: %w", accountID, err)
	}
	defer rows.Close()
	return scanLines(rows)
}

// ListEntries retrieves a paginated list of entries for a tenant, newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries e
		WHERE e.tenant_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

// UpdateEntryLines replaces the lines of a Draft entry.
func (r *PgxJournalRepository) UpdateEntryLines(ctx context.Context, entryID string, expectedVersion int64, lines []domain.JournalEntryLine, updatedBy string, updatedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE journal_entries
		SET version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND version = $2 AND status = 'DRAFT';
	`, entryID, expectedVersion, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflict(ctx, tx, entryID, expectedVersion)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete lines of entry %s: %w", entryID, err)
	}
	if err := insertLines(ctx, tx, lines); err != nil {
		return fmt.Errorf("failed to insert lines for entry %s: %w", entryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit line update for entry %s: %w", entryID, err)
	}
	return nil
}

// versionConflict distinguishes a stale version from a missing row after a
// zero-row optimistic update.
func versionConflict(ctx context.Context, tx pgx.Tx, entryID string, expectedVersion int64) error {
	var current int64
	err := tx.QueryRow(ctx, `SELECT version FROM journal_entries WHERE entry_id = $1;`, entryID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to inspect entry %s after version conflict: %w", entryID, err)
	}
	return fmt.Errorf("%w: entry %s at version %d, expected %d",
		apperrors.ErrConcurrentModification, entryID, current, expectedVersion)
}

// nextSequenceNumber atomically claims the tenant's next posting sequence.
func nextSequenceNumber(ctx context.Context, tx pgx.Tx, tenantID string) (int64, error) {
	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO posting_sequences (tenant_id, next_value)
		VALUES ($1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET next_value = posting_sequences.next_value + 1
		RETURNING next_value;
	`, tenantID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to claim posting sequence for tenant %s: %w", tenantID, err)
	}
	return seq, nil
}

// MarkEntryPosted atomically transitions an entry to Posted, assigning the
// tenant's next sequence number.
func (r *PgxJournalRepository) MarkEntryPosted(ctx context.Context, entryID string, expectedVersion int64, postedBy string, postedAt time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var tenantID string
	err = tx.QueryRow(ctx, `SELECT tenant_id FROM journal_entries WHERE entry_id = $1;`, entryID).Scan(&tenantID)
	if err != nil {
		return 0, mapNotFound(err, "failed to find entry %s", entryID)
	}

	seq, err := nextSequenceNumber(ctx, tx, tenantID)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'POSTED', sequence_number = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1 AND version = $2 AND status IN ('DRAFT', 'PENDING_APPROVAL');
	`, entryID, expectedVersion, seq, postedAt, postedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to mark entry %s posted: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, versionConflict(ctx, tx, entryID, expectedVersion)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit post of entry %s: %w", entryID, err)
	}
	return seq, nil
}

// SaveReversal persists the reversing entry as Posted with its own sequence
// number and flips the original to Reversed with its back-reference, all in
// one transaction.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversing domain.JournalEntry, originalEntryID string, expectedVersion int64, reversedBy string, reversedAt time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	seq, err := nextSequenceNumber(ctx, tx, reversing.TenantID)
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO journal_entries (entry_id, tenant_id, entry_date, description, source_ref, currency_code, status, sequence_number, reversal_of_entry_id, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`,
		reversing.EntryID,
		reversing.TenantID,
		reversing.EntryDate,
		reversing.Description,
		reversing.SourceRef,
		reversing.CurrencyCode,
		reversing.Status,
		seq,
		reversing.ReversalOfEntryID,
		reversing.Version,
		reversing.CreatedAt,
		reversing.CreatedBy,
		reversing.LastUpdatedAt,
		reversing.LastUpdatedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reversing entry %s: %w", reversing.EntryID, err)
	}

	if err := insertLines(ctx, tx, reversing.Lines); err != nil {
		return 0, fmt.Errorf("failed to insert lines for reversing entry %s: %w", reversing.EntryID, err)
	}

	// The one-shot back-reference: only an unreversed Posted original accepts it.
	tag, err := tx.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'REVERSED', reversed_by_entry_id = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE entry_id = $1 AND version = $2 AND status = 'POSTED' AND reversed_by_entry_id IS NULL;
	`, originalEntryID, expectedVersion, reversing.EntryID, reversedAt, reversedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to mark entry %s reversed: %w", originalEntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, versionConflict(ctx, tx, originalEntryID, expectedVersion)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit reversal of entry %s: %w", originalEntryID, err)
	}
	return seq, nil
}
