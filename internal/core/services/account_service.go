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
)

// accountService implements the AccountSvcFacade interface.
type accountService struct {
	BaseService
	accountRepo  portsrepo.AccountRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
}

// NewAccountService creates a new account service instance.
func NewAccountService(
	accountRepo portsrepo.AccountRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
) *accountService {
	return &accountService{
		accountRepo:  accountRepo,
		currencyRepo: currencyRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount registers a new active account in the tenant's chart.
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	if _, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: currency %s is not registered", apperrors.ErrValidation, req.CurrencyCode)
		}
		return nil, fmt.Errorf("failed to check currency %s: %w", req.CurrencyCode, err)
	}

	normalSide := req.NormalSide
	if normalSide == "" {
		normalSide = domain.NormalSideFor(req.AccountType)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:    uuid.NewString(),
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		AccountType:  req.AccountType,
		NormalSide:   normalSide,
		CurrencyCode: req.CurrencyCode,
		Description:  req.Description,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.LogInfo(ctx, "Account created",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves a specific account of the tenant.
func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	if account.TenantID != tenantID {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of the tenant's accounts.
func (s *accountService) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// DeactivateAccount marks an account inactive. Already-inactive accounts are
// a no-op.
func (s *accountService) DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error {
	account, err := s.GetAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return nil
	}
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}
