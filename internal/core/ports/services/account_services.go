package services

import (
	"context"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// AccountReaderSvc defines read operations for chart-of-accounts data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account.
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of the tenant's accounts.
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for chart-of-accounts data
type AccountWriterSvc interface {
	// CreateAccount registers a new active account. When the request omits the
	// normal side it defaults to the account type's convention.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// DeactivateAccount marks an account inactive so new lines cannot
	// reference it. Posted history is untouched.
	DeactivateAccount(ctx context.Context, tenantID string, accountID string, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
