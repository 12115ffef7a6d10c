package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
)

// currencyService implements the CurrencySvcFacade interface.
type currencyService struct {
	BaseService
	currencyRepo portsrepo.CurrencyRepositoryFacade
	rateRepo     portsrepo.ExchangeRateRepositoryFacade
	accountRepo  portsrepo.AccountRepositoryFacade
	ledgerSvc    portssvc.LedgerSvcFacade
}

// NewCurrencyService creates a new currency service instance.
func NewCurrencyService(
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	rateRepo portsrepo.ExchangeRateRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	ledgerSvc portssvc.LedgerSvcFacade,
) *currencyService {
	return &currencyService{
		currencyRepo: currencyRepo,
		rateRepo:     rateRepo,
		accountRepo:  accountRepo,
		ledgerSvc:    ledgerSvc,
	}
}

var _ portssvc.CurrencySvcFacade = (*currencyService)(nil)

// GetCurrencyByCode retrieves a currency definition.
func (s *currencyService) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
	}
	return currency, nil
}

// CreateCurrency registers a new currency. At most one currency may be the
// base currency.
func (s *currencyService) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorUserID string) (*domain.Currency, error) {
	if existing, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, req.CurrencyCode)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check currency %s: %w", req.CurrencyCode, err)
	}
	if req.IsBaseCurrency {
		if base, err := s.currencyRepo.FindBaseCurrency(ctx); err == nil && base != nil {
			return nil, fmt.Errorf("%w: %s is already the base currency", apperrors.ErrDuplicate, base.CurrencyCode)
		} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to check base currency: %w", err)
		}
	}

	now := time.Now().UTC()
	currency := domain.Currency{
		CurrencyCode:   req.CurrencyCode,
		Symbol:         req.Symbol,
		Name:           req.Name,
		DecimalPlaces:  req.DecimalPlaces,
		IsBaseCurrency: req.IsBaseCurrency,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.currencyRepo.SaveCurrency(ctx, currency); err != nil {
		return nil, fmt.Errorf("failed to save currency: %w", err)
	}

	s.LogInfo(ctx, "Currency created", slog.String("currency_code", currency.CurrencyCode))
	return &currency, nil
}

// CreateExchangeRate registers a new time-bounded rate.
func (s *currencyService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	if req.FromCurrencyCode == req.ToCurrencyCode {
		return nil, fmt.Errorf("%w: from and to currency are the same", apperrors.ErrValidation)
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if req.EffectiveTo != nil && req.EffectiveTo.Before(req.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effectiveTo precedes effectiveFrom", apperrors.ErrValidation)
	}
	for _, code := range []string{req.FromCurrencyCode, req.ToCurrencyCode} {
		if _, err := s.currencyRepo.FindCurrencyByCode(ctx, code); err != nil {
			return nil, fmt.Errorf("failed to find currency %s: %w", code, err)
		}
	}

	now := time.Now().UTC()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: req.FromCurrencyCode,
		ToCurrencyCode:   req.ToCurrencyCode,
		Rate:             req.Rate,
		EffectiveFrom:    req.EffectiveFrom,
		EffectiveTo:      req.EffectiveTo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to save exchange rate: %w", err)
	}

	s.LogInfo(ctx, "Exchange rate created",
		slog.String("from", rate.FromCurrencyCode),
		slog.String("to", rate.ToCurrencyCode),
		slog.String("rate", rate.Rate.String()))
	return &rate, nil
}

// resolveRate finds the effective from→to factor, falling back to the
// reciprocal of the inverse direction.
func (s *currencyService) resolveRate(ctx context.Context, fromCode, toCode string, asOf time.Time) (decimal.Decimal, error) {
	rate, err := s.rateRepo.FindEffectiveRate(ctx, fromCode, toCode, asOf)
	if err == nil {
		return rate.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return decimal.Decimal{}, fmt.Errorf("failed to find rate %s/%s: %w", fromCode, toCode, err)
	}

	inverse, err := s.rateRepo.FindEffectiveRate(ctx, toCode, fromCode, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Decimal{}, fmt.Errorf("%w: %s/%s as of %s", apperrors.ErrNoExchangeRate,
				fromCode, toCode, asOf.Format("2006-01-02"))
		}
		return decimal.Decimal{}, fmt.Errorf("failed to find rate %s/%s: %w", toCode, fromCode, err)
	}
	return decimal.NewFromInt(1).Div(inverse.Rate), nil
}

// Convert resolves the effective rate and re-quantizes the result to the
// target currency's scale. The intermediate product is kept at full precision
// so only one rounding happens.
func (s *currencyService) Convert(ctx context.Context, amount domain.Money, fromCode, toCode string, asOf time.Time) (domain.Money, error) {
	toCurrency, err := s.currencyRepo.FindCurrencyByCode(ctx, toCode)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to find currency %s: %w", toCode, err)
	}
	if fromCode == toCode {
		return amount.ToFixed(toCurrency.DecimalPlaces, domain.RoundHalfUp), nil
	}

	factor, err := s.resolveRate(ctx, fromCode, toCode, asOf)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(amount.Decimal().Mul(factor), toCurrency.DecimalPlaces), nil
}

// Revalue computes balance × (newRate − oldRate), the unrealized gain/loss
// adjustment at the balance's own scale.
func (s *currencyService) Revalue(balance domain.Money, oldRate, newRate decimal.Decimal) domain.Money {
	return domain.NewMoney(balance.Decimal().Mul(newRate.Sub(oldRate)), balance.Scale())
}

// RevalueAccount posts the unrealized gain/loss adjustment for an account
// after a rate change. A positive adjustment on a debit-normal account is an
// unrealized gain (debit the account, credit gain/loss); signs flip for
// losses and credit-normal accounts. A zero adjustment posts nothing.
func (s *currencyService) RevalueAccount(ctx context.Context, tenantID, accountID, gainLossAccountID string, oldRate, newRate decimal.Decimal, asOf time.Time, userID string) (*domain.JournalEntry, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if account.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	gainLoss, err := s.accountRepo.FindAccountByID(ctx, gainLossAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find gain/loss account %s: %w", gainLossAccountID, err)
	}
	if gainLoss.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if gainLoss.CurrencyCode != account.CurrencyCode {
		return nil, fmt.Errorf("%w: gain/loss account currency %s does not match account currency %s",
			apperrors.ErrValidation, gainLoss.CurrencyCode, account.CurrencyCode)
	}

	balance, err := s.ledgerSvc.GetAccountBalance(ctx, tenantID, accountID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance of account %s: %w", accountID, err)
	}
	adjustment := s.Revalue(balance, oldRate, newRate)
	if adjustment.IsZero() {
		s.LogDebug(ctx, "Revaluation adjustment is zero, nothing to post",
			slog.String("account_id", accountID))
		return nil, nil
	}

	amount := adjustment.Abs().String()
	accountLine := dto.CreateEntryLineRequest{AccountID: accountID}
	offsetLine := dto.CreateEntryLineRequest{AccountID: gainLossAccountID}
	gain := adjustment.IsPositive()
	if (account.NormalSide == domain.DebitSide) == gain {
		accountLine.Debit = amount
		offsetLine.Credit = amount
	} else {
		accountLine.Credit = amount
		offsetLine.Debit = amount
	}

	draft, err := s.ledgerSvc.CreateDraftEntry(ctx, tenantID, dto.CreateEntryRequest{
		Date:         asOf,
		Description:  fmt.Sprintf("Revaluation of account %s at rate %s", account.Code, newRate.String()),
		CurrencyCode: account.CurrencyCode,
		SourceRef:    fmt.Sprintf("REVAL-%s-%s", account.Code, asOf.Format("20060102")),
		Lines:        []dto.CreateEntryLineRequest{accountLine, offsetLine},
	}, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create revaluation entry: %w", err)
	}
	posted, err := s.ledgerSvc.PostEntry(ctx, tenantID, draft.EntryID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to post revaluation entry: %w", err)
	}

	s.LogInfo(ctx, "Account revalued",
		slog.String("account_id", accountID),
		slog.String("adjustment", adjustment.String()),
		slog.String("entry_id", posted.EntryID))
	return posted, nil
}
