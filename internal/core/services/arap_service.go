package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/events"
)

// arapService implements the ARAPSvcFacade interface.
type arapService struct {
	BaseService
	invoiceRepo  portsrepo.InvoiceRepositoryFacade
	paymentRepo  portsrepo.PaymentRepositoryFacade
	currencyRepo portsrepo.CurrencyRepositoryFacade
	taxSvc       portssvc.TaxCalculatorSvc
	sink         events.Sink
}

// NewARAPService creates a new AR/AP service instance.
func NewARAPService(
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	paymentRepo portsrepo.PaymentRepositoryFacade,
	currencyRepo portsrepo.CurrencyRepositoryFacade,
	taxSvc portssvc.TaxCalculatorSvc,
	sink events.Sink,
) *arapService {
	if sink == nil {
		sink = events.NoopSink{}
	}
	return &arapService{
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		currencyRepo: currencyRepo,
		taxSvc:       taxSvc,
		sink:         sink,
	}
}

var _ portssvc.ARAPSvcFacade = (*arapService)(nil)

// GetInvoiceByID retrieves an invoice with its lines.
func (s *arapService) GetInvoiceByID(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoice %s: %w", invoiceID, err)
	}
	if invoice.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return invoice, nil
}

// ListInvoicesByCounterparty retrieves all invoices of one counterparty,
// newest first, headers only.
func (s *arapService) ListInvoicesByCounterparty(ctx context.Context, tenantID string, counterpartyID string) ([]domain.Invoice, error) {
	invoices, err := s.invoiceRepo.ListInvoicesByCounterparty(ctx, tenantID, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for counterparty %s: %w", counterpartyID, err)
	}
	return invoices, nil
}

// GetPaymentByID retrieves a payment.
func (s *arapService) GetPaymentByID(ctx context.Context, tenantID string, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	if payment.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return payment, nil
}

// CreateInvoice computes subtotal, per-line tax and total, and persists the
// invoice as Open. Each line total is quantity × unit price quantized half-up
// at the invoice currency's scale; tax applies per line so differently coded
// lines tax independently.
func (s *arapService) CreateInvoice(ctx context.Context, tenantID string, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	if req.DueDate.Before(req.InvoiceDate) {
		return nil, fmt.Errorf("%w: due date precedes invoice date", apperrors.ErrValidation)
	}
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to find currency %s: %w", req.CurrencyCode, err)
	}
	scale := currency.DecimalPlaces

	now := time.Now().UTC()
	invoiceID := uuid.NewString()
	subtotal := domain.ZeroMoney(scale)
	taxTotal := domain.ZeroMoney(scale)
	lines := make([]domain.InvoiceLine, 0, len(req.Lines))
	for i, lr := range req.Lines {
		unitPrice, err := domain.ParseMoney(lr.UnitPrice, scale)
		if err != nil {
			return nil, fmt.Errorf("line %d unit price %q: %w", i+1, lr.UnitPrice, err)
		}
		if unitPrice.IsNegative() || !lr.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: line %d requires positive quantity and non-negative unit price",
				apperrors.ErrValidation, i+1)
		}
		lineTotal := unitPrice.MulRatio(lr.Quantity, domain.RoundHalfUp)

		if lr.TaxCode != "" {
			if len(req.JurisdictionCodes) == 0 {
				return nil, fmt.Errorf("%w: line %d is tax-coded but no jurisdictions given",
					apperrors.ErrValidation, i+1)
			}
			taxResult, err := s.taxSvc.CalculateTax(ctx, lineTotal, req.JurisdictionCodes, lr.TaxCode, req.InvoiceDate)
			if err != nil {
				return nil, fmt.Errorf("failed to calculate tax for line %d: %w", i+1, err)
			}
			taxTotal = taxTotal.Add(taxResult.TotalTax)
		}

		lines = append(lines, domain.InvoiceLine{
			LineID:      uuid.NewString(),
			InvoiceID:   invoiceID,
			Description: lr.Description,
			Quantity:    lr.Quantity,
			UnitPrice:   unitPrice,
			TaxCode:     lr.TaxCode,
			LineTotal:   lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	total := subtotal.Add(taxTotal)
	invoice := domain.Invoice{
		InvoiceID:        invoiceID,
		TenantID:         tenantID,
		InvoiceNumber:    req.InvoiceNumber,
		CounterpartyType: req.CounterpartyType,
		CounterpartyID:   req.CounterpartyID,
		InvoiceDate:      req.InvoiceDate,
		DueDate:          req.DueDate,
		CurrencyCode:     req.CurrencyCode,
		Lines:            lines,
		Subtotal:         subtotal,
		TaxAmount:        taxTotal,
		TotalAmount:      total,
		PaidAmount:       domain.ZeroMoney(scale),
		BalanceAmount:    total,
		Status:           domain.InvoiceOpen,
		Version:          1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.LogInfo(ctx, "Invoice created",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("invoice_number", invoice.InvoiceNumber),
		slog.String("total", invoice.TotalAmount.String()))
	return &invoice, nil
}

// RecordPayment persists a new payment with nothing applied yet.
func (s *arapService) RecordPayment(ctx context.Context, tenantID string, req dto.RecordPaymentRequest, creatorUserID string) (*domain.Payment, error) {
	currency, err := s.currencyRepo.FindCurrencyByCode(ctx, req.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to find currency %s: %w", req.CurrencyCode, err)
	}
	amount, err := domain.ParseMoney(req.Amount, currency.DecimalPlaces)
	if err != nil {
		return nil, fmt.Errorf("payment amount %q: %w", req.Amount, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", apperrors.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:        uuid.NewString(),
		TenantID:         tenantID,
		CounterpartyType: req.CounterpartyType,
		CounterpartyID:   req.CounterpartyID,
		PaymentDate:      req.PaymentDate,
		Amount:           amount,
		AppliedAmount:    domain.ZeroMoney(currency.DecimalPlaces),
		Method:           req.Method,
		Reference:        req.Reference,
		CurrencyCode:     req.CurrencyCode,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", payment.Amount.String()))
	return &payment, nil
}

// ApplyPayment applies part of a payment to an invoice. The amount is bounded
// by both the payment's unapplied amount and the invoice's open balance;
// exceeding either is ErrOverApplication. Invoice and payment amounts update
// in one repository transaction keyed on the invoice's version.
func (s *arapService) ApplyPayment(ctx context.Context, tenantID string, paymentID string, req dto.ApplyPaymentRequest, userID string) (*domain.Invoice, error) {
	payment, err := s.GetPaymentByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.GetInvoiceByID(ctx, tenantID, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Status == domain.InvoiceVoid {
		return nil, fmt.Errorf("%w: invoice %s", apperrors.ErrInvoiceVoided, invoice.InvoiceID)
	}
	if invoice.CounterpartyType != payment.CounterpartyType || invoice.CounterpartyID != payment.CounterpartyID {
		return nil, fmt.Errorf("%w: payment and invoice belong to different counterparties", apperrors.ErrValidation)
	}
	if invoice.CurrencyCode != payment.CurrencyCode {
		return nil, fmt.Errorf("%w: payment currency %s does not match invoice currency %s",
			apperrors.ErrValidation, payment.CurrencyCode, invoice.CurrencyCode)
	}

	amount, err := domain.ParseMoney(req.Amount, invoice.BalanceAmount.Scale())
	if err != nil {
		return nil, fmt.Errorf("application amount %q: %w", req.Amount, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: application amount must be positive", apperrors.ErrInvalidAmount)
	}
	if amount.Cmp(payment.UnappliedAmount()) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds unapplied payment amount %s",
			apperrors.ErrOverApplication, amount, payment.UnappliedAmount())
	}
	if amount.Cmp(invoice.BalanceAmount) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds invoice balance %s",
			apperrors.ErrOverApplication, amount, invoice.BalanceAmount)
	}

	now := time.Now().UTC()
	application := domain.PaymentApplication{
		ApplicationID: uuid.NewString(),
		PaymentID:     payment.PaymentID,
		InvoiceID:     invoice.InvoiceID,
		Amount:        amount,
		AppliedAt:     now,
		AppliedBy:     userID,
	}

	expectedVersion := invoice.Version
	beforeBalance := invoice.BalanceAmount

	invoice.PaidAmount = invoice.PaidAmount.Add(amount)
	invoice.BalanceAmount = invoice.TotalAmount.Sub(invoice.PaidAmount)
	if invoice.BalanceAmount.IsZero() {
		invoice.Status = domain.InvoicePaid
	} else {
		invoice.Status = domain.InvoicePartiallyPaid
	}
	invoice.Version++
	invoice.LastUpdatedAt = now
	invoice.LastUpdatedBy = userID

	payment.AppliedAmount = payment.AppliedAmount.Add(amount)
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = userID

	if err := s.paymentRepo.ApplyPayment(ctx, application, *invoice, expectedVersion, *payment); err != nil {
		return nil, fmt.Errorf("failed to apply payment %s to invoice %s: %w",
			payment.PaymentID, invoice.InvoiceID, err)
	}

	s.sink.Publish(ctx, events.Event{
		EntityType:   "Invoice",
		EntityID:     invoice.InvoiceID,
		Action:       "PAYMENT_APPLIED",
		TenantID:     tenantID,
		Actor:        userID,
		BeforeAmount: beforeBalance.String(),
		AfterAmount:  invoice.BalanceAmount.String(),
		OccurredAt:   now,
	})

	s.LogInfo(ctx, "Payment applied",
		slog.String("payment_id", payment.PaymentID),
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("amount", amount.String()),
		slog.String("invoice_status", string(invoice.Status)))
	return invoice, nil
}

// VoidInvoice voids an invoice that has no payment applications. Unapplying
// payments first is the caller's job; voiding never silently detaches money.
func (s *arapService) VoidInvoice(ctx context.Context, tenantID string, invoiceID string, userID string) error {
	invoice, err := s.GetInvoiceByID(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == domain.InvoiceVoid {
		s.LogDebug(ctx, "Invoice already void, no-op", slog.String("invoice_id", invoiceID))
		return nil
	}

	applications, err := s.paymentRepo.FindApplicationsByInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to list applications for invoice %s: %w", invoiceID, err)
	}
	if len(applications) > 0 {
		return fmt.Errorf("%w: invoice %s has %d payment application(s)",
			apperrors.ErrValidation, invoiceID, len(applications))
	}

	now := time.Now().UTC()
	if err := s.invoiceRepo.UpdateInvoiceStatus(ctx, invoiceID, invoice.Version, domain.InvoiceVoid, userID, now); err != nil {
		return fmt.Errorf("failed to void invoice %s: %w", invoiceID, err)
	}

	s.sink.Publish(ctx, events.Event{
		EntityType:   "Invoice",
		EntityID:     invoiceID,
		Action:       "VOIDED",
		TenantID:     tenantID,
		Actor:        userID,
		BeforeAmount: invoice.BalanceAmount.String(),
		OccurredAt:   now,
	})

	s.LogInfo(ctx, "Invoice voided", slog.String("invoice_id", invoiceID))
	return nil
}

// conventionalAgingBuckets is the default bucket set: current, 1-30, 31-60,
// 61-90, over 90 days overdue.
func conventionalAgingBuckets() []domain.AgingBucket {
	bound := func(d int) *int { return &d }
	return []domain.AgingBucket{
		{Label: "Current", DaysFrom: math.MinInt, DaysTo: bound(1)},
		{Label: "1-30", DaysFrom: 1, DaysTo: bound(31)},
		{Label: "31-60", DaysFrom: 31, DaysTo: bound(61)},
		{Label: "61-90", DaysFrom: 61, DaysTo: bound(91)},
		{Label: "90+", DaysFrom: 91},
	}
}

// GenerateAgingReport buckets outstanding invoices by whole days overdue
// relative to their due date. Mixed-currency totals are out of scope; all
// outstanding invoices of the side are expected to share the tenant's
// invoicing currency, and the report carries the scale of the first invoice
// seen.
func (s *arapService) GenerateAgingReport(ctx context.Context, tenantID string, req dto.AgingReportRequest) (*domain.AgingReport, error) {
	buckets := conventionalAgingBuckets()
	if len(req.Buckets) > 0 {
		buckets = make([]domain.AgingBucket, len(req.Buckets))
		for i, b := range req.Buckets {
			buckets[i] = domain.AgingBucket{Label: b.Label, DaysFrom: b.DaysFrom, DaysTo: b.DaysTo}
		}
		if err := validateBuckets(buckets); err != nil {
			return nil, err
		}
	}

	invoices, err := s.invoiceRepo.FindOutstandingInvoices(ctx, tenantID, req.CounterpartyType, req.AsOfDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding invoices: %w", err)
	}

	var scale int32 = 2
	if len(invoices) > 0 {
		scale = invoices[0].BalanceAmount.Scale()
	}
	totals := make([]domain.AgingBucketTotal, len(buckets))
	for i, b := range buckets {
		totals[i] = domain.AgingBucketTotal{Bucket: b, Balance: domain.ZeroMoney(scale)}
	}
	totalOutstanding := domain.ZeroMoney(scale)

	for _, inv := range invoices {
		daysOverdue := calendarDaysBetween(inv.DueDate, req.AsOfDate)
		for i := range totals {
			if totals[i].Bucket.Contains(daysOverdue) {
				totals[i].InvoiceCount++
				totals[i].Balance = totals[i].Balance.Add(inv.BalanceAmount)
				break
			}
		}
		totalOutstanding = totalOutstanding.Add(inv.BalanceAmount)
	}

	return &domain.AgingReport{
		AsOfDate:         req.AsOfDate,
		CounterpartyType: req.CounterpartyType,
		Buckets:          totals,
		TotalOutstanding: totalOutstanding,
	}, nil
}

// calendarDaysBetween returns the whole calendar days from a to b, comparing
// each timestamp's own wall-clock date so intraday times and zone offsets
// never shift an invoice across a bucket boundary. Negative when b precedes a.
func calendarDaysBetween(a, b time.Time) int {
	return int(domain.DateOnly(b).Sub(domain.DateOnly(a)).Hours() / 24)
}

// validateBuckets requires caller-supplied buckets to be ordered and
// non-overlapping, with only the last unbounded.
func validateBuckets(buckets []domain.AgingBucket) error {
	for i, b := range buckets {
		last := i == len(buckets)-1
		if b.DaysTo == nil {
			if !last {
				return fmt.Errorf("%w: only the last aging bucket may be unbounded", apperrors.ErrValidation)
			}
			continue
		}
		if *b.DaysTo <= b.DaysFrom {
			return fmt.Errorf("%w: aging bucket %q is empty", apperrors.ErrValidation, b.Label)
		}
		if !last && buckets[i+1].DaysFrom != *b.DaysTo {
			return fmt.Errorf("%w: aging buckets %q and %q are not contiguous",
				apperrors.ErrValidation, b.Label, buckets[i+1].Label)
		}
	}
	return nil
}
