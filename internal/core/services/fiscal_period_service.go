package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
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

// FiscalPeriodService owns the open/closed period lifecycle, gates postings
// against it and drives year-end close.
//
// The embedded RWMutex is the posting gate: every posting holds the read
// side, ClosePeriod holds the write side. Closes are rare and
// operator-triggered, so queuing posters behind one is acceptable.
type FiscalPeriodService struct {
	BaseService
	periodRepo   portsrepo.FiscalPeriodRepositoryFacade
	journalRepo  portsrepo.JournalRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	ledgerSvc    portssvc.LedgerSvcFacade
	sink         events.Sink

	gate sync.RWMutex
}

// NewFiscalPeriodService creates a new FiscalPeriodService. The ledger
// dependency is wired afterwards via SetLedger since the ledger itself needs
// this service as its period checker.
func NewFiscalPeriodService(
	periodRepo portsrepo.FiscalPeriodRepositoryFacade,
	journalRepo portsrepo.JournalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	sink events.Sink,
) *FiscalPeriodService {
	if sink == nil {
		sink = events.NoopSink{}
	}
	return &FiscalPeriodService{
		periodRepo:   periodRepo,
		journalRepo:  journalRepo,
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
		sink:         sink,
	}
}

// SetLedger wires the ledger used by ProcessYearEnd to post the closing entry.
func (s *FiscalPeriodService) SetLedger(ledgerSvc portssvc.LedgerSvcFacade) {
	s.ledgerSvc = ledgerSvc
}

var _ portssvc.FiscalPeriodSvcFacade = (*FiscalPeriodService)(nil)

// AcquirePosting implements the posting gate's read side.
func (s *FiscalPeriodService) AcquirePosting() (release func()) {
	s.gate.RLock()
	return s.gate.RUnlock
}

// EnsureOpen fails with ErrPeriodClosed when date falls inside a Closed
// period. A date no period covers is ErrNotFound; postings require an
// explicitly open period, not the absence of a closed one.
func (s *FiscalPeriodService) EnsureOpen(ctx context.Context, tenantID string, date time.Time) error {
	period, err := s.periodRepo.FindPeriodByDate(ctx, tenantID, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrNotFound, date.Format("2006-01-02"))
		}
		return fmt.Errorf("failed to resolve fiscal period for %s: %w", date.Format("2006-01-02"), err)
	}
	if period.Status == domain.PeriodClosed {
		return fmt.Errorf("%w: period %d/%d (%s)", apperrors.ErrPeriodClosed,
			period.FiscalYear, period.PeriodNumber, period.PeriodID)
	}
	return nil
}

// CreatePeriod registers a new Open period, enforcing contiguity and
// non-overlap within the fiscal year.
func (s *FiscalPeriodService) CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", apperrors.ErrValidation)
	}

	existing, err := s.periodRepo.FindPeriodsByYear(ctx, tenantID, req.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods for fiscal year %d: %w", req.FiscalYear, err)
	}
	for _, p := range existing {
		if p.PeriodNumber == req.PeriodNumber {
			return nil, fmt.Errorf("%w: period %d/%d", apperrors.ErrDuplicate, req.FiscalYear, req.PeriodNumber)
		}
	}
	if req.PeriodNumber != len(existing)+1 {
		return nil, fmt.Errorf("%w: period number %d must follow the %d existing period(s)",
			apperrors.ErrValidation, req.PeriodNumber, len(existing))
	}
	if len(existing) > 0 {
		prev := existing[len(existing)-1]
		if !req.StartDate.Equal(prev.EndDate.AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("%w: period %d must start the day after period %d ends (%s)",
				apperrors.ErrValidation, req.PeriodNumber, prev.PeriodNumber, prev.EndDate.Format("2006-01-02"))
		}
	}

	now := time.Now().UTC()
	period := domain.FiscalPeriod{
		PeriodID:     uuid.NewString(),
		TenantID:     tenantID,
		FiscalYear:   req.FiscalYear,
		PeriodNumber: req.PeriodNumber,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		return nil, fmt.Errorf("failed to save fiscal period: %w", err)
	}

	s.LogInfo(ctx, "Fiscal period created",
		slog.String("period_id", period.PeriodID),
		slog.Int("fiscal_year", period.FiscalYear),
		slog.Int("period_number", period.PeriodNumber))
	return &period, nil
}

// GetPeriodByID retrieves a specific period.
func (s *FiscalPeriodService) GetPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return period, nil
}

// ClosePeriod transitions a period to Closed. It holds the posting gate's
// write side, so in-flight postings drain first and new ones queue until the
// close finishes. Closing an already-Closed period is a no-op.
func (s *FiscalPeriodService) ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	if period.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	if period.Status == domain.PeriodClosed {
		s.LogDebug(ctx, "Period already closed, no-op", slog.String("period_id", periodID))
		return nil
	}

	// Periods close in chronological order only.
	siblings, err := s.periodRepo.FindPeriodsByYear(ctx, tenantID, period.FiscalYear)
	if err != nil {
		return fmt.Errorf("failed to list periods for fiscal year %d: %w", period.FiscalYear, err)
	}
	for _, p := range siblings {
		if p.PeriodNumber < period.PeriodNumber && p.Status == domain.PeriodOpen {
			return fmt.Errorf("%w: period %d/%d", apperrors.ErrPriorPeriodOpen, p.FiscalYear, p.PeriodNumber)
		}
	}

	// Redundant trial-balance check over the period, guarding against
	// corruption introduced outside the ledger's posting path.
	if err := s.checkTrialBalance(ctx, tenantID, period); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.periodRepo.MarkPeriodClosed(ctx, periodID, userID, now); err != nil {
		return fmt.Errorf("failed to mark period %s closed: %w", periodID, err)
	}

	s.sink.Publish(ctx, events.Event{
		EntityType: "FiscalPeriod",
		EntityID:   periodID,
		Action:     "CLOSED",
		TenantID:   tenantID,
		Actor:      userID,
		OccurredAt: now,
	})

	s.LogInfo(ctx, "Fiscal period closed",
		slog.String("period_id", periodID),
		slog.Int("fiscal_year", period.FiscalYear),
		slog.Int("period_number", period.PeriodNumber))
	return nil
}

// checkTrialBalance verifies that all Posted entries dated in the period net
// to equal debits and credits per currency.
func (s *FiscalPeriodService) checkTrialBalance(ctx context.Context, tenantID string, period *domain.FiscalPeriod) error {
	entries, err := s.journalRepo.FindPostedEntriesByDateRange(ctx, tenantID, period.StartDate, period.EndDate)
	if err != nil {
		return fmt.Errorf("failed to load entries for trial balance: %w", err)
	}

	scales := make(map[string]int32)
	for _, entry := range entries {
		scale, ok := scales[entry.CurrencyCode]
		if !ok {
			currency, err := s.currencyRepo.FindCurrencyByCode(ctx, entry.CurrencyCode)
			if err != nil {
				return fmt.Errorf("failed to resolve currency %s: %w", entry.CurrencyCode, err)
			}
			scale = currency.DecimalPlaces
			scales[entry.CurrencyCode] = scale
		}
		debits, credits := accounting.SumDebitsCredits(entry.Lines, scale)
		if !debits.Equal(credits) {
			return fmt.Errorf("%w: entry %s debits %s, credits %s",
				apperrors.ErrUnbalancedPeriod, entry.EntryID, debits, credits)
		}
	}
	return nil
}

// yearEndSourceRef tags the closing entry so a partially applied year end can
// be detected on retry.
func yearEndSourceRef(fiscalYear int) string {
	return fmt.Sprintf("YEAREND-%d", fiscalYear)
}

// ProcessYearEnd computes net income over the fiscal year, posts a single
// closing entry that zeroes revenue and expense accounts into retained
// earnings, and closes the year's final period. The persistence collaborator
// is expected to run this inside one transaction; if the period close fails
// after the closing entry posted, the partial state is reported as
// ErrFatalInconsistency and further close attempts must wait for repair.
func (s *FiscalPeriodService) ProcessYearEnd(ctx context.Context, tenantID string, req dto.YearEndRequest, userID string) (*domain.JournalEntry, error) {
	periods, err := s.periodRepo.FindPeriodsByYear(ctx, tenantID, req.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods for fiscal year %d: %w", req.FiscalYear, err)
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: fiscal year %d has no periods", apperrors.ErrNotFound, req.FiscalYear)
	}
	final := periods[len(periods)-1]
	for _, p := range periods[:len(periods)-1] {
		if p.Status == domain.PeriodOpen {
			return nil, fmt.Errorf("%w: period %d/%d", apperrors.ErrPriorPeriodOpen, p.FiscalYear, p.PeriodNumber)
		}
	}
	if final.Status == domain.PeriodClosed {
		// Detect a partially applied prior run: a closed final period must
		// have its closing entry posted.
		entries, err := s.journalRepo.FindPostedEntriesByDateRange(ctx, tenantID, final.StartDate, final.EndDate)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect final period: %w", err)
		}
		for i := range entries {
			if entries[i].SourceRef == yearEndSourceRef(req.FiscalYear) {
				s.LogDebug(ctx, "Year end already processed, no-op", slog.Int("fiscal_year", req.FiscalYear))
				return &entries[i], nil
			}
		}
		return nil, fmt.Errorf("%w: fiscal year %d final period is closed but no closing entry exists",
			apperrors.ErrFatalInconsistency, req.FiscalYear)
	}

	retained, err := s.accountRepo.FindAccountByID(ctx, req.RetainedEarningsAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find retained earnings account: %w", err)
	}
	if retained.TenantID != tenantID || retained.AccountType != domain.Equity {
		return nil, fmt.Errorf("%w: retained earnings account must be an equity account of the tenant", apperrors.ErrValidation)
	}
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, retained.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve currency %s: %w", retained.CurrencyCode, err)
	}
	scale := currency.DecimalPlaces

	lines, netIncome, err := s.buildClosingLines(ctx, tenantID, final.EndDate, scale)
	if err != nil {
		return nil, err
	}

	var closing *domain.JournalEntry
	if len(lines) > 0 {
		// Retained earnings takes the offsetting side of net income.
		reLine := dto.CreateEntryLineRequest{AccountID: retained.AccountID}
		switch {
		case netIncome.IsPositive():
			reLine.Credit = netIncome.String()
		case netIncome.IsNegative():
			reLine.Debit = netIncome.Abs().String()
		}
		if !netIncome.IsZero() {
			lines = append(lines, reLine)
		}

		draft, err := s.ledgerSvc.CreateDraftEntry(ctx, tenantID, dto.CreateEntryRequest{
			Date:         final.EndDate,
			Description:  fmt.Sprintf("Year-end closing for fiscal year %d", req.FiscalYear),
			CurrencyCode: retained.CurrencyCode,
			SourceRef:    yearEndSourceRef(req.FiscalYear),
			Lines:        lines,
		}, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create year-end closing entry: %w", err)
		}
		closing, err = s.ledgerSvc.PostEntry(ctx, tenantID, draft.EntryID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to post year-end closing entry: %w", err)
		}
	}

	if err := s.ClosePeriod(ctx, tenantID, final.PeriodID, userID); err != nil {
		if closing != nil {
			// The closing entry is committed but the period is still open:
			// partial application, manual repair required.
			return nil, fmt.Errorf("%w: closing entry %s posted but period %s not closed: %v",
				apperrors.ErrFatalInconsistency, closing.EntryID, final.PeriodID, err)
		}
		return nil, err
	}

	now := time.Now().UTC()
	s.sink.Publish(ctx, events.Event{
		EntityType:  "FiscalPeriod",
		EntityID:    final.PeriodID,
		Action:      "YEAR_END",
		TenantID:    tenantID,
		Actor:       userID,
		AfterAmount: netIncome.String(),
		OccurredAt:  now,
	})

	s.LogInfo(ctx, "Year end processed",
		slog.Int("fiscal_year", req.FiscalYear),
		slog.String("net_income", netIncome.String()))
	return closing, nil
}

// buildClosingLines produces the lines zeroing each revenue and expense
// account, plus the resulting net income (revenue − expense).
func (s *FiscalPeriodService) buildClosingLines(ctx context.Context, tenantID string, asOf time.Time, scale int32) ([]dto.CreateEntryLineRequest, domain.Money, error) {
	accounts, err := s.accountRepo.FindAccountsByType(ctx, tenantID, []domain.AccountType{domain.Revenue, domain.Expense})
	if err != nil {
		return nil, domain.Money{}, fmt.Errorf("failed to list revenue and expense accounts: %w", err)
	}

	lines := make([]dto.CreateEntryLineRequest, 0, len(accounts)+1)
	netIncome := domain.ZeroMoney(scale)
	for _, acc := range accounts {
		balance, err := s.ledgerSvc.GetAccountBalance(ctx, tenantID, acc.AccountID, asOf)
		if err != nil {
			return nil, domain.Money{}, fmt.Errorf("failed to compute balance of account %s: %w", acc.AccountID, err)
		}
		if balance.IsZero() {
			continue
		}

		// Zeroing an account means booking its balance on the opposite of
		// its normal side. A negative (contra) balance flips the side.
		line := dto.CreateEntryLineRequest{AccountID: acc.AccountID}
		onNormal := balance.IsPositive()
		debits := (acc.NormalSide == domain.CreditSide) == onNormal
		if debits {
			line.Debit = balance.Abs().String()
		} else {
			line.Credit = balance.Abs().String()
		}
		lines = append(lines, line)

		if acc.AccountType == domain.Revenue {
			netIncome = netIncome.Add(balance)
		} else {
			netIncome = netIncome.Sub(balance)
		}
	}
	return lines, netIncome, nil
}
