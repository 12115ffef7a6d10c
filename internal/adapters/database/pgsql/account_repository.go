package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
)

type PgxAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPgxAccountRepository creates a new repository for chart-of-accounts data.
func NewPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{pool: pool}
}

const accountColumns = `account_id, tenant_id, code, name, account_type, normal_side, currency_code, description, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	err := row.Scan(
		&acc.AccountID,
		&acc.TenantID,
		&acc.Code,
		&acc.Name,
		&acc.AccountType,
		&acc.NormalSide,
		&acc.CurrencyCode,
		&acc.Description,
		&acc.IsActive,
		&acc.CreatedAt,
		&acc.CreatedBy,
		&acc.LastUpdatedAt,
		&acc.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// SaveAccount persists a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.TenantID,
		account.Code,
		account.Name,
		account.AccountType,
		account.NormalSide,
		account.CurrencyCode,
		account.Description,
		account.IsActive,
		account.CreatedAt,
		account.CreatedBy,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
		}
		return fmt.Errorf("failed to insert account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves a specific account by its unique identifier.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, mapNotFound(err, "failed to find account by ID %s", accountID)
	}
	return acc, nil
}

// FindAccountsByIDs retrieves multiple accounts by their IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = ANY($1);`
	rows, err := r.pool.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by IDs: %w", err)
	}
	defer rows.Close()

	accounts := make(map[string]domain.Account, len(accountIDs))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts[acc.AccountID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// FindAccountsByType retrieves all active accounts of the given types for a tenant.
func (r *PgxAccountRepository) FindAccountsByType(ctx context.Context, tenantID string, types []domain.AccountType) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND account_type = ANY($2) AND is_active
		ORDER BY code;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, types)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by type: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves a paginated list of accounts for a given tenant.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

// UpdateAccount updates an existing account's details.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, description = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE account_id = $1;
	`
	tag, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.Name,
		account.Description,
		account.IsActive,
		account.LastUpdatedAt,
		account.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.AccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateAccount marks an account as inactive.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1 AND is_active;
	`
	tag, err := r.pool.Exec(ctx, query, accountID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
