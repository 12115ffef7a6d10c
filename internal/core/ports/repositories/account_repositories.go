package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// AccountReader defines read operations for chart-of-accounts data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// FindAccountsByType retrieves all active accounts of the given types for a tenant.
	FindAccountsByType(ctx context.Context, tenantID string, types []domain.AccountType) ([]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts for a given tenant.
	ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for chart-of-accounts data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
