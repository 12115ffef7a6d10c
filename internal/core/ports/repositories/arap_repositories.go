package repositories

import (
	"context"
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// InvoiceReader defines read operations for invoice data
type InvoiceReader interface {
	// FindInvoiceByID retrieves an invoice with its lines.
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)

	// FindOutstandingInvoices retrieves Open and PartiallyPaid invoices of a
	// counterparty type, dated on or before asOf.
	FindOutstandingInvoices(ctx context.Context, tenantID string, counterpartyType domain.CounterpartyType, asOf time.Time) ([]domain.Invoice, error)

	// ListInvoicesByCounterparty retrieves all invoices for one counterparty.
	ListInvoicesByCounterparty(ctx context.Context, tenantID, counterpartyID string) ([]domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoice data
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice and its lines.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateInvoiceStatus updates status and voids-related fields.
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, expectedVersion int64, status domain.InvoiceStatus, updatedBy string, updatedAt time.Time) error
}

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a payment by its unique identifier.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindApplicationsByInvoice retrieves all applications against an invoice.
	FindApplicationsByInvoice(ctx context.Context, invoiceID string) ([]domain.PaymentApplication, error)
}

// PaymentWriter defines write operations for payment data
type PaymentWriter interface {
	// SavePayment persists a new payment.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// ApplyPayment records an application and the resulting invoice and
	// payment amounts in one transaction. Fails with ErrConcurrentModification
	// when the invoice's stored version differs from expectedVersion.
	ApplyPayment(ctx context.Context, application domain.PaymentApplication, invoice domain.Invoice, expectedVersion int64, payment domain.Payment) error
}

// InvoiceRepositoryFacade combines all invoice-related repository interfaces
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
