package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/events"
	"github.com/corefin/ledgercore/internal/utils/accounting"
)

// ledgerService posts, validates and reverses double-entry journal entries
// and derives account balances from the immutable Posted line history.
type ledgerService struct {
	BaseService
	journalRepo  portsrepo.JournalRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	periodSvc    portssvc.PeriodCheckerSvc
	sink         events.Sink
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	periodSvc portssvc.PeriodCheckerSvc,
	sink events.Sink,
) portssvc.LedgerSvcFacade {
	if sink == nil {
		sink = events.NoopSink{}
	}
	return &ledgerService{
		journalRepo:  journalRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		periodSvc:    periodSvc,
		sink:         sink,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// parseLineAmount converts an optional decimal string to Money at the
// currency's scale. Empty means zero.
func parseLineAmount(raw string, scale int32) (domain.Money, error) {
	if raw == "" {
		return domain.ZeroMoney(scale), nil
	}
	return domain.ParseMoney(raw, scale)
}

// CreateDraftEntry persists a new Draft entry with its lines. Drafts may be
// temporarily unbalanced; balance is enforced at post time.
func (s *ledgerService) CreateDraftEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", req.CurrencyCode, err)
	}
	scale := currency.DecimalPlaces

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines, accountIDs, err := buildEntryLines(req.Lines, entryID, scale, creatorUserID, now)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccounts(ctx, tenantID, accountIDs, req.CurrencyCode); err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:      entryID,
		TenantID:     tenantID,
		EntryDate:    req.Date,
		Description:  req.Description,
		SourceRef:    req.SourceRef,
		CurrencyCode: req.CurrencyCode,
		Status:       domain.Draft,
		Version:      1,
		Lines:        lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.journalRepo.SaveEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save draft entry", slog.String("tenant_id", tenantID))
		return nil, fmt.Errorf("failed to save draft entry: %w", err)
	}

	s.LogInfo(ctx, "Draft entry created",
		slog.String("entry_id", entryID),
		slog.String("tenant_id", tenantID),
		slog.Int("line_count", len(lines)))
	return &entry, nil
}

// buildEntryLines parses and validates request lines into domain lines owned
// by entryID, returning the referenced account IDs alongside.
func buildEntryLines(reqLines []dto.CreateEntryLineRequest, entryID string, scale int32, userID string, now time.Time) ([]domain.JournalEntryLine, []string, error) {
	lines := make([]domain.JournalEntryLine, len(reqLines))
	accountIDs := make([]string, 0, len(reqLines))
	for i, lineReq := range reqLines {
		debit, err := parseLineAmount(lineReq.Debit, scale)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d debit: %w", i, err)
		}
		credit, err := parseLineAmount(lineReq.Credit, scale)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d credit: %w", i, err)
		}
		if debit.IsNegative() || credit.IsNegative() {
			return nil, nil, fmt.Errorf("%w: line %d amounts must not be negative", apperrors.ErrValidation, i)
		}
		// Canonical form: a line is a debit or a credit, never both.
		if debit.IsZero() == credit.IsZero() {
			return nil, nil, fmt.Errorf("%w: line %d must carry exactly one of debit and credit", apperrors.ErrValidation, i)
		}
		lines[i] = domain.JournalEntryLine{
			LineID:         uuid.NewString(),
			EntryID:        entryID,
			AccountID:      lineReq.AccountID,
			Debit:          debit,
			Credit:         credit,
			Reconciliation: domain.Unreconciled,
			Dimensions:     lineReq.Dimensions,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		accountIDs = append(accountIDs, lineReq.AccountID)
	}
	return lines, accountIDs, nil
}

// UpdateDraftEntry replaces the full line set of a Draft entry. Posted and
// Reversed entries are immutable; a concurrent update surfaces as
// ErrConcurrentModification from the version check.
func (s *ledgerService) UpdateDraftEntry(ctx context.Context, tenantID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if entry.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("%w: entry %s in status %s cannot be edited", apperrors.ErrValidation, entryID, entry.Status)
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, entry.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", entry.CurrencyCode, err)
	}

	now := time.Now().UTC()
	lines, accountIDs, err := buildEntryLines(req.Lines, entryID, currency.DecimalPlaces, userID, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, tenantID, accountIDs, entry.CurrencyCode); err != nil {
		return nil, err
	}

	if err := s.journalRepo.UpdateEntryLines(ctx, entryID, entry.Version, lines, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update draft entry lines", slog.String("entry_id", entryID))
		return nil, err
	}

	entry.Lines = lines
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	s.LogInfo(ctx, "Draft entry lines replaced",
		slog.String("entry_id", entryID),
		slog.Int("line_count", len(lines)))
	return entry, nil
}

// checkAccounts verifies that every referenced account exists, belongs to the
// tenant, is active and matches the entry currency.
func (s *ledgerService) checkAccounts(ctx context.Context, tenantID string, accountIDs []string, currencyCode string) error {
	unique := uniqueStrings(accountIDs)
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, unique)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range unique {
		acc, found := accounts[id]
		if !found || acc.TenantID != tenantID {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if acc.CurrencyCode != currencyCode {
			return fmt.Errorf("%w: account %s currency %s does not match entry currency %s",
				apperrors.ErrValidation, id, acc.CurrencyCode, currencyCode)
		}
	}
	return nil
}

// validateBalanced enforces the double-entry invariant at the minor unit.
func validateBalanced(entry *domain.JournalEntry, scale int32) error {
	if len(entry.Lines) < 2 {
		return fmt.Errorf("%w: entry %s has %d line(s)", apperrors.ErrEmptyEntry, entry.EntryID, len(entry.Lines))
	}
	debits, credits := accounting.SumDebitsCredits(entry.Lines, scale)
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: entry %s debits %s, credits %s",
			apperrors.ErrUnbalancedEntry, entry.EntryID, debits, credits)
	}
	return nil
}

// PostEntry validates and atomically transitions a Draft or PendingApproval
// entry to Posted. The period write gate is held on the read side for the
// duration, so a concurrent period close excludes this posting or waits for
// it. Re-posting an already-Posted entry is a no-op.
func (s *ledgerService) PostEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	release := s.periodSvc.AcquirePosting()
	defer release()

	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if entry.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	switch entry.Status {
	case domain.Posted:
		// Idempotent: a second post on the same entry ID is a no-op.
		s.LogDebug(ctx, "Entry already posted, no-op", slog.String("entry_id", entryID))
		return entry, nil
	case domain.Draft, domain.PendingApproval:
		// eligible
	default:
		return nil, fmt.Errorf("%w: entry %s in status %s cannot be posted", apperrors.ErrValidation, entryID, entry.Status)
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, entry.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", entry.CurrencyCode, err)
	}
	if err := validateBalanced(entry, currency.DecimalPlaces); err != nil {
		return nil, err
	}

	if err := s.periodSvc.EnsureOpen(ctx, tenantID, entry.EntryDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seq, err := s.journalRepo.MarkEntryPosted(ctx, entryID, entry.Version, userID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			s.LogInfo(ctx, "Concurrent post detected", slog.String("entry_id", entryID))
		} else {
			s.LogError(ctx, err, "Failed to mark entry posted", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	entry.Status = domain.Posted
	entry.SequenceNumber = seq
	entry.Version++
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	debits, _ := accounting.SumDebitsCredits(entry.Lines, currency.DecimalPlaces)
	s.sink.Publish(ctx, events.Event{
		EntityType:  "JournalEntry",
		EntityID:    entryID,
		Action:      "POSTED",
		TenantID:    tenantID,
		Actor:       userID,
		AfterAmount: debits.String(),
		OccurredAt:  now,
	})

	s.LogInfo(ctx, "Entry posted",
		slog.String("entry_id", entryID),
		slog.Int64("sequence", seq),
		slog.String("amount", debits.String()))
	return entry, nil
}

// ReverseEntry creates the debit/credit-swapped reversing entry and posts it
// through the same validation path. The original's lines are never mutated;
// only its status and one-shot back-reference change.
func (s *ledgerService) ReverseEntry(ctx context.Context, tenantID string, entryID string, reason string, userID string) (*domain.JournalEntry, error) {
	release := s.periodSvc.AcquirePosting()
	defer release()

	original, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if original.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s in status %s cannot be reversed", apperrors.ErrValidation, entryID, original.Status)
	}
	if original.ReversedByEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s already reversed by %s", apperrors.ErrDuplicate, entryID, *original.ReversedByEntryID)
	}
	if original.ReversalOfEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrValidation, entryID)
	}

	if err := s.periodSvc.EnsureOpen(ctx, tenantID, original.EntryDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reversingID := uuid.NewString()

	reversingLines := make([]domain.JournalEntryLine, len(original.Lines))
	for i, origLine := range original.Lines {
		reversingLines[i] = domain.JournalEntryLine{
			LineID:         uuid.NewString(),
			EntryID:        reversingID,
			AccountID:      origLine.AccountID,
			Debit:          origLine.Credit,
			Credit:         origLine.Debit,
			Reconciliation: domain.Unreconciled,
			Dimensions:     origLine.Dimensions,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	reversing := domain.JournalEntry{
		EntryID:           reversingID,
		TenantID:          tenantID,
		EntryDate:         original.EntryDate,
		Description:       fmt.Sprintf("Reversal of %s: %s", original.EntryID, reason),
		SourceRef:         original.SourceRef,
		CurrencyCode:      original.CurrencyCode,
		Status:            domain.Posted,
		ReversalOfEntryID: &original.EntryID,
		Version:           1,
		Lines:             reversingLines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, original.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", original.CurrencyCode, err)
	}
	if err := validateBalanced(&reversing, currency.DecimalPlaces); err != nil {
		return nil, err
	}

	seq, err := s.journalRepo.SaveReversal(ctx, reversing, original.EntryID, original.Version, userID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to save reversal",
			slog.String("entry_id", entryID),
			slog.String("reversing_id", reversingID))
		return nil, err
	}
	reversing.SequenceNumber = seq

	debits, _ := accounting.SumDebitsCredits(reversing.Lines, currency.DecimalPlaces)
	s.sink.Publish(ctx, events.Event{
		EntityType:  "JournalEntry",
		EntityID:    entryID,
		Action:      "REVERSED",
		TenantID:    tenantID,
		Actor:       userID,
		AfterAmount: debits.String(),
		OccurredAt:  now,
	})

	s.LogInfo(ctx, "Entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversing_id", reversingID))
	return &reversing, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *ledgerService) GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}
	if entry.TenantID != tenantID {
		// Obscure existence across tenants.
		return nil, apperrors.ErrNotFound
	}
	return entry, nil
}

// ListEntries retrieves a paginated list of entry headers for a tenant,
// newest first.
func (s *ledgerService) ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	entries, err := s.journalRepo.ListEntries(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// GetAccountBalance derives the balance purely from the immutable Posted line
// history up to asOf, net of the account's normal balance side. No cached
// balance is consulted.
func (s *ledgerService) GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time) (domain.Money, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if account.TenantID != tenantID {
		return domain.Money{}, apperrors.ErrNotFound
	}

	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, account.CurrencyCode)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to resolve currency %s: %w", account.CurrencyCode, err)
	}

	lines, err := s.journalRepo.FindPostedLinesByAccount(ctx, tenantID, accountID, asOf)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to load posted lines for account %s: %w", accountID, err)
	}

	return accounting.NetBalance(lines, account.NormalSide, currency.DecimalPlaces), nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
