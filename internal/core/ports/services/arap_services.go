package services

import (
	"context"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// ARAPReaderSvc defines read operations for invoice and payment data
type ARAPReaderSvc interface {
	// GetInvoiceByID retrieves an invoice with its lines.
	GetInvoiceByID(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error)

	// GetPaymentByID retrieves a payment.
	GetPaymentByID(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error)

	// GenerateAgingReport buckets outstanding invoices by days overdue as of
	// a date, over a caller-supplied ordered, non-overlapping bucket list.
	GenerateAgingReport(ctx context.Context, tenantID string, req dto.AgingReportRequest) (*domain.AgingReport, error)

	// ListInvoicesByCounterparty retrieves all invoices of one counterparty,
	// newest first, headers only.
	ListInvoicesByCounterparty(ctx context.Context, tenantID string, counterpartyID string) ([]domain.Invoice, error)
}

// ARAPWriterSvc defines write operations for invoice and payment data
type ARAPWriterSvc interface {
	// CreateInvoice computes subtotal, tax (via the tax engine) and total,
	// and persists the invoice as Open with zero paid amount.
	CreateInvoice(ctx context.Context, tenantID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error)

	// RecordPayment persists a new unapplied payment.
	RecordPayment(ctx context.Context, tenantID string, req dto.RecordPaymentRequest, creatorUserID string) (*domain.Payment, error)

	// ApplyPayment applies part of a payment to an invoice, bounded by both
	// the payment's unapplied amount and the invoice's balance.
	ApplyPayment(ctx context.Context, tenantID string, paymentID string, req dto.ApplyPaymentRequest, userID string) (*domain.Invoice, error)

	// VoidInvoice voids an invoice that has no payment applications.
	VoidInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) error
}

// ARAPSvcFacade combines all AR/AP-related service interfaces
type ARAPSvcFacade interface {
	ARAPReaderSvc
	ARAPWriterSvc
}
