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

type PgxInvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewPgxInvoiceRepository creates a new repository for invoice data.
func NewPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{pool: pool}
}

const invoiceColumns = `i.invoice_id, i.tenant_id, i.invoice_number, i.counterparty_type, i.counterparty_id, i.invoice_date, i.due_date, i.currency_code, i.subtotal, i.tax_amount, i.total_amount, i.paid_amount, i.balance_amount, i.status, i.version, i.created_at, i.created_by, i.last_updated_at, i.last_updated_by, c.decimal_places`

const invoiceSelect = `
	SELECT ` + invoiceColumns + `
	FROM invoices i
	JOIN currencies c ON c.currency_code = i.currency_code`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var subtotal, tax, total, paid, balance decimal.Decimal
	var scale int32
	err := row.Scan(
		&inv.InvoiceID,
		&inv.TenantID,
		&inv.InvoiceNumber,
		&inv.CounterpartyType,
		&inv.CounterpartyID,
		&inv.InvoiceDate,
		&inv.DueDate,
		&inv.CurrencyCode,
		&subtotal,
		&tax,
		&total,
		&paid,
		&balance,
		&inv.Status,
		&inv.Version,
		&inv.CreatedAt,
		&inv.CreatedBy,
		&inv.LastUpdatedAt,
		&inv.LastUpdatedBy,
		&scale,
	)
	if err != nil {
		return nil, err
	}
	inv.Subtotal = money(subtotal, scale)
	inv.TaxAmount = money(tax, scale)
	inv.TotalAmount = money(total, scale)
	inv.PaidAmount = money(paid, scale)
	inv.BalanceAmount = money(balance, scale)
	return &inv, nil
}

// SaveInvoice persists a new invoice and its lines in one transaction.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	invoiceQuery := `
		INSERT INTO invoices (invoice_id, tenant_id, invoice_number, counterparty_type, counterparty_id, invoice_date, due_date, currency_code, subtotal, tax_amount, total_amount, paid_amount, balance_amount, status, version, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, invoiceQuery,
		invoice.InvoiceID,
		invoice.TenantID,
		invoice.InvoiceNumber,
		invoice.CounterpartyType,
		invoice.CounterpartyID,
		invoice.InvoiceDate,
		invoice.DueDate,
		invoice.CurrencyCode,
		invoice.Subtotal.Decimal(),
		invoice.TaxAmount.Decimal(),
		invoice.TotalAmount.Decimal(),
		invoice.PaidAmount.Decimal(),
		invoice.BalanceAmount.Decimal(),
		invoice.Status,
		invoice.Version,
		invoice.CreatedAt,
		invoice.CreatedBy,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: invoice number %s", apperrors.ErrDuplicate, invoice.InvoiceNumber)
		}
		return fmt.Errorf("failed to insert invoice %s: %w", invoice.InvoiceID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO invoice_lines (line_id, invoice_id, description, quantity, unit_price, tax_code, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, line := range invoice.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.InvoiceID,
			line.Description,
			line.Quantity,
			line.UnitPrice.Decimal(),
			line.TaxCode,
			line.LineTotal.Decimal(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert lines for invoice %s: %w", invoice.InvoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit invoice %s: %w", invoice.InvoiceID, err)
	}
	return nil
}

func (r *PgxInvoiceRepository) loadLines(ctx context.Context, invoiceID string, scale int32) ([]domain.InvoiceLine, error) {
	query := `
		SELECT line_id, invoice_id, description, quantity, unit_price, tax_code, line_total
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_id;
	`
	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	var lines []domain.InvoiceLine
	for rows.Next() {
		var line domain.InvoiceLine
		var unitPrice, lineTotal decimal.Decimal
		err := rows.Scan(
			&line.LineID,
			&line.InvoiceID,
			&line.Description,
			&line.Quantity,
			&unitPrice,
			&line.TaxCode,
			&lineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		line.UnitPrice = money(unitPrice, scale)
		line.LineTotal = money(lineTotal, scale)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice lines: %w", err)
	}
	return lines, nil
}

// FindInvoiceByID retrieves an invoice with its lines.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, invoiceSelect+` WHERE i.invoice_id = $1;`, invoiceID))
	if err != nil {
		return nil, mapNotFound(err, "failed to find invoice by ID %s", invoiceID)
	}
	inv.Lines, err = r.loadLines(ctx, invoiceID, inv.BalanceAmount.Scale())
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// FindOutstandingInvoices retrieves Open and PartiallyPaid invoices of a
// counterparty type, dated on or before asOf. Lines are not loaded; aging
// only needs header amounts.
func (r *PgxInvoiceRepository) FindOutstandingInvoices(ctx context.Context, tenantID string, counterpartyType domain.CounterpartyType, asOf time.Time) ([]domain.Invoice, error) {
	query := invoiceSelect + `
	WHERE i.tenant_id = $1 AND i.counterparty_type = $2
	  AND i.status IN ('OPEN', 'PARTIALLY_PAID') AND i.invoice_date <= $3
	ORDER BY i.due_date;`
	rows, err := r.pool.Query(ctx, query, tenantID, counterpartyType, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	return invoices, nil
}

// ListInvoicesByCounterparty retrieves all invoices for one counterparty.
func (r *PgxInvoiceRepository) ListInvoicesByCounterparty(ctx context.Context, tenantID, counterpartyID string) ([]domain.Invoice, error) {
	query := invoiceSelect + `
	WHERE i.tenant_id = $1 AND i.counterparty_id = $2
	ORDER BY i.invoice_date DESC;`
	rows, err := r.pool.Query(ctx, query, tenantID, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for counterparty %s: %w", counterpartyID, err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	return invoices, nil
}

// UpdateInvoiceStatus updates an invoice's status, keyed on the stored version.
func (r *PgxInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, expectedVersion int64, status domain.InvoiceStatus, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE invoices
		SET status = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE invoice_id = $1 AND version = $2;
	`
	tag, err := r.pool.Exec(ctx, query, invoiceID, expectedVersion, status, updatedAt, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to update invoice %s status: %w", invoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		var current int64
		err := r.pool.QueryRow(ctx, `SELECT version FROM invoices WHERE invoice_id = $1;`, invoiceID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to inspect invoice %s after version conflict: %w", invoiceID, err)
		}
		return fmt.Errorf("%w: invoice %s at version %d, expected %d",
			apperrors.ErrConcurrentModification, invoiceID, current, expectedVersion)
	}
	return nil
}

type PgxPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPgxPaymentRepository creates a new repository for payment data.
func NewPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{pool: pool}
}

// SavePayment persists a new payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	query := `
		INSERT INTO payments (payment_id, tenant_id, counterparty_type, counterparty_id, payment_date, amount, applied_amount, method, reference, currency_code, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		payment.PaymentID,
		payment.TenantID,
		payment.CounterpartyType,
		payment.CounterpartyID,
		payment.PaymentDate,
		payment.Amount.Decimal(),
		payment.AppliedAmount.Decimal(),
		payment.Method,
		payment.Reference,
		payment.CurrencyCode,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// FindPaymentByID retrieves a payment by its unique identifier.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `
		SELECT p.payment_id, p.tenant_id, p.counterparty_type, p.counterparty_id, p.payment_date, p.amount, p.applied_amount, p.method, p.reference, p.currency_code, p.created_at, p.created_by, p.last_updated_at, p.last_updated_by, c.decimal_places
		FROM payments p
		JOIN currencies c ON c.currency_code = p.currency_code
		WHERE p.payment_id = $1;
	`
	var payment domain.Payment
	var amount, applied decimal.Decimal
	var scale int32
	err := r.pool.QueryRow(ctx, query, paymentID).Scan(
		&payment.PaymentID,
		&payment.TenantID,
		&payment.CounterpartyType,
		&payment.CounterpartyID,
		&payment.PaymentDate,
		&amount,
		&applied,
		&payment.Method,
		&payment.Reference,
		&payment.CurrencyCode,
		&payment.CreatedAt,
		&payment.CreatedBy,
		&payment.LastUpdatedAt,
		&payment.LastUpdatedBy,
		&scale,
	)
	if err != nil {
		return nil, mapNotFound(err, "failed to find payment by ID %s", paymentID)
	}
	payment.Amount = money(amount, scale)
	payment.AppliedAmount = money(applied, scale)
	return &payment, nil
}

// FindApplicationsByInvoice retrieves all applications against an invoice.
func (r *PgxPaymentRepository) FindApplicationsByInvoice(ctx context.Context, invoiceID string) ([]domain.PaymentApplication, error) {
	query := `
		SELECT a.application_id, a.payment_id, a.invoice_id, a.amount, a.applied_at, a.applied_by, c.decimal_places
		FROM payment_applications a
		JOIN invoices i ON i.invoice_id = a.invoice_id
		JOIN currencies c ON c.currency_code = i.currency_code
		WHERE a.invoice_id = $1
		ORDER BY a.applied_at;
	`
	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	applications := []domain.PaymentApplication{}
	for rows.Next() {
		var app domain.PaymentApplication
		var amount decimal.Decimal
		var scale int32
		err := rows.Scan(
			&app.ApplicationID,
			&app.PaymentID,
			&app.InvoiceID,
			&amount,
			&app.AppliedAt,
			&app.AppliedBy,
			&scale,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		app.Amount = money(amount, scale)
		applications = append(applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}
	return applications, nil
}

// ApplyPayment records an application and the resulting invoice and payment
// amounts in one transaction, keyed on the invoice's version.
func (r *PgxPaymentRepository) ApplyPayment(ctx context.Context, application domain.PaymentApplication, invoice domain.Invoice, expectedVersion int64, payment domain.Payment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_applications (application_id, payment_id, invoice_id, amount, applied_at, applied_by)
		VALUES ($1, $2, $3, $4, $5, $6);
	`,
		application.ApplicationID,
		application.PaymentID,
		application.InvoiceID,
		application.Amount.Decimal(),
		application.AppliedAt,
		application.AppliedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application %s: %w", application.ApplicationID, err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE invoices
		SET paid_amount = $3, balance_amount = $4, status = $5, version = version + 1, last_updated_at = $6, last_updated_by = $7
		WHERE invoice_id = $1 AND version = $2;
	`,
		invoice.InvoiceID,
		expectedVersion,
		invoice.PaidAmount.Decimal(),
		invoice.BalanceAmount.Decimal(),
		invoice.Status,
		invoice.LastUpdatedAt,
		invoice.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice %s: %w", invoice.InvoiceID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: invoice %s, expected version %d",
			apperrors.ErrConcurrentModification, invoice.InvoiceID, expectedVersion)
	}

	_, err = tx.Exec(ctx, `
		UPDATE payments
		SET applied_amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1;
	`,
		payment.PaymentID,
		payment.AppliedAmount.Decimal(),
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", payment.PaymentID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit application %s: %w", application.ApplicationID, err)
	}
	return nil
}
