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

type PgxFiscalPeriodRepository struct {
	pool *pgxpool.Pool
}

// NewPgxFiscalPeriodRepository creates a new repository for fiscal period data.
func NewPgxFiscalPeriodRepository(pool *pgxpool.Pool) portsrepo.FiscalPeriodRepositoryFacade {
	return &PgxFiscalPeriodRepository{pool: pool}
}

const periodColumns = `period_id, tenant_id, fiscal_year, period_number, start_date, end_date, status, created_at, created_by, last_updated_at, last_updated_by`

func scanPeriod(row pgx.Row) (*domain.FiscalPeriod, error) {
	var p domain.FiscalPeriod
	err := row.Scan(
		&p.PeriodID,
		&p.TenantID,
		&p.FiscalYear,
		&p.PeriodNumber,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePeriod persists a new fiscal period.
func (r *PgxFiscalPeriodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	query := `
		INSERT INTO fiscal_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, query,
		period.PeriodID,
		period.TenantID,
		period.FiscalYear,
		period.PeriodNumber,
		period.StartDate,
		period.EndDate,
		period.Status,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: period %d/%d", apperrors.ErrDuplicate, period.FiscalYear, period.PeriodNumber)
		}
		return fmt.Errorf("failed to insert period %s: %w", period.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a specific period by its unique identifier.
func (r *PgxFiscalPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM fiscal_periods WHERE period_id = $1;`
	p, err := scanPeriod(r.pool.QueryRow(ctx, query, periodID))
	if err != nil {
		return nil, mapNotFound(err, "failed to find period by ID %s", periodID)
	}
	return p, nil
}

// FindPeriodByDate retrieves the period whose date range contains the date.
func (r *PgxFiscalPeriodRepository) FindPeriodByDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND $2::date BETWEEN start_date AND end_date;
	`
	p, err := scanPeriod(r.pool.QueryRow(ctx, query, tenantID, date))
	if err != nil {
		return nil, mapNotFound(err, "failed to find period covering %s", date.Format("2006-01-02"))
	}
	return p, nil
}

// FindPeriodsByYear retrieves all periods of a fiscal year ordered by period
// number.
func (r *PgxFiscalPeriodRepository) FindPeriodsByYear(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND fiscal_year = $2
		ORDER BY period_number;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods for fiscal year %d: %w", fiscalYear, err)
	}
	defer rows.Close()

	periods := []domain.FiscalPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period row: %w", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows: %w", err)
	}
	return periods, nil
}

// MarkPeriodClosed transitions a period to Closed.
func (r *PgxFiscalPeriodRepository) MarkPeriodClosed(ctx context.Context, periodID string, closedBy string, closedAt time.Time) error {
	query := `
		UPDATE fiscal_periods
		SET status = 'CLOSED', last_updated_at = $2, last_updated_by = $3
		WHERE period_id = $1 AND status = 'OPEN';
	`
	tag, err := r.pool.Exec(ctx, query, periodID, closedAt, closedBy)
	if err != nil {
		return fmt.Errorf("failed to close period %s: %w", periodID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
