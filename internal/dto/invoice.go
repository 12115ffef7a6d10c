package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateInvoiceLineRequest is one quantity × unit-price line.
type CreateInvoiceLineRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   string          `json:"unitPrice" binding:"required,decimal"` // Fixed-scale decimal string
	TaxCode     string          `json:"taxCode"`                      // Empty = untaxed line
}

// CreateInvoiceRequest defines the data needed to create an AR/AP invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber     string                     `json:"invoiceNumber" binding:"required"`
	CounterpartyType  domain.CounterpartyType    `json:"counterpartyType" binding:"required,oneof=CUSTOMER SUPPLIER"`
	CounterpartyID    string                     `json:"counterpartyID" binding:"required"`
	InvoiceDate       time.Time                  `json:"invoiceDate" binding:"required"`
	DueDate           time.Time                  `json:"dueDate" binding:"required"`
	CurrencyCode      string                     `json:"currencyCode" binding:"required,len=3,uppercase"`
	JurisdictionCodes []string                   `json:"jurisdictionCodes"`
	Lines             []CreateInvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// InvoiceLineResponse defines the data returned for an invoice line.
type InvoiceLineResponse struct {
	LineID      string          `json:"lineID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   string          `json:"unitPrice"`
	TaxCode     string          `json:"taxCode,omitempty"`
	LineTotal   string          `json:"lineTotal"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID        string                  `json:"invoiceID"`
	InvoiceNumber    string                  `json:"invoiceNumber"`
	CounterpartyType domain.CounterpartyType `json:"counterpartyType"`
	CounterpartyID   string                  `json:"counterpartyID"`
	InvoiceDate      time.Time               `json:"invoiceDate"`
	DueDate          time.Time               `json:"dueDate"`
	CurrencyCode     string                  `json:"currencyCode"`
	Lines            []InvoiceLineResponse   `json:"lines,omitempty"`
	Subtotal         string                  `json:"subtotal"`
	TaxAmount        string                  `json:"taxAmount"`
	TotalAmount      string                  `json:"totalAmount"`
	PaidAmount       string                  `json:"paidAmount"`
	BalanceAmount    string                  `json:"balanceAmount"`
	Status           domain.InvoiceStatus    `json:"status"`
}

// RecordPaymentRequest defines the data needed to record a payment.
type RecordPaymentRequest struct {
	CounterpartyType domain.CounterpartyType `json:"counterpartyType" binding:"required,oneof=CUSTOMER SUPPLIER"`
	CounterpartyID   string                  `json:"counterpartyID" binding:"required"`
	PaymentDate      time.Time               `json:"paymentDate" binding:"required"`
	Amount           string                  `json:"amount" binding:"required,decimal"` // Fixed-scale decimal string
	CurrencyCode     string                  `json:"currencyCode" binding:"required,len=3,uppercase"`
	Method           domain.PaymentMethod    `json:"method" binding:"required,oneof=CASH BANK_TRANSFER CARD CHECK"`
	Reference        string                  `json:"reference"`
}

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID        string                  `json:"paymentID"`
	CounterpartyType domain.CounterpartyType `json:"counterpartyType"`
	CounterpartyID   string                  `json:"counterpartyID"`
	PaymentDate      time.Time               `json:"paymentDate"`
	Amount           string                  `json:"amount"`
	AppliedAmount    string                  `json:"appliedAmount"`
	UnappliedAmount  string                  `json:"unappliedAmount"`
	Method           domain.PaymentMethod    `json:"method"`
	Reference        string                  `json:"reference,omitempty"`
	CurrencyCode     string                  `json:"currencyCode"`
}

// ApplyPaymentRequest applies part of a payment to one invoice.
type ApplyPaymentRequest struct {
	InvoiceID string `json:"invoiceID" binding:"required"`
	Amount    string `json:"amount" binding:"required,decimal"` // Fixed-scale decimal string
}

// AgingBucketRequest is one caller-supplied day-range bucket.
type AgingBucketRequest struct {
	Label    string `json:"label" binding:"required"`
	DaysFrom int    `json:"daysFrom"`
	DaysTo   *int   `json:"daysTo"` // nil = unbounded last bucket
}

// AgingReportRequest defines the inputs of an aging report.
type AgingReportRequest struct {
	AsOfDate         time.Time               `json:"asOfDate" binding:"required"`
	CounterpartyType domain.CounterpartyType `json:"counterpartyType" binding:"required,oneof=CUSTOMER SUPPLIER"`
	Buckets          []AgingBucketRequest    `json:"buckets"` // Empty = conventional buckets
}

// AgingBucketResponse is one aggregated bucket row.
type AgingBucketResponse struct {
	Label        string `json:"label"`
	DaysFrom     int    `json:"daysFrom"`
	DaysTo       *int   `json:"daysTo,omitempty"`
	InvoiceCount int    `json:"invoiceCount"`
	Balance      string `json:"balance"`
}

// AgingReportResponse summarizes outstanding balances per bucket.
type AgingReportResponse struct {
	AsOfDate         time.Time               `json:"asOfDate"`
	CounterpartyType domain.CounterpartyType `json:"counterpartyType"`
	Buckets          []AgingBucketResponse   `json:"buckets"`
	TotalOutstanding string                  `json:"totalOutstanding"`
}

// ToInvoiceResponse converts a domain.Invoice to InvoiceResponse DTO.
func ToInvoiceResponse(inv *domain.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			LineID:      l.LineID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.String(),
			TaxCode:     l.TaxCode,
			LineTotal:   l.LineTotal.String(),
		}
	}
	return InvoiceResponse{
		InvoiceID:        inv.InvoiceID,
		InvoiceNumber:    inv.InvoiceNumber,
		CounterpartyType: inv.CounterpartyType,
		CounterpartyID:   inv.CounterpartyID,
		InvoiceDate:      inv.InvoiceDate,
		DueDate:          inv.DueDate,
		CurrencyCode:     inv.CurrencyCode,
		Lines:            lines,
		Subtotal:         inv.Subtotal.String(),
		TaxAmount:        inv.TaxAmount.String(),
		TotalAmount:      inv.TotalAmount.String(),
		PaidAmount:       inv.PaidAmount.String(),
		BalanceAmount:    inv.BalanceAmount.String(),
		Status:           inv.Status,
	}
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:        p.PaymentID,
		CounterpartyType: p.CounterpartyType,
		CounterpartyID:   p.CounterpartyID,
		PaymentDate:      p.PaymentDate,
		Amount:           p.Amount.String(),
		AppliedAmount:    p.AppliedAmount.String(),
		UnappliedAmount:  p.UnappliedAmount().String(),
		Method:           p.Method,
		Reference:        p.Reference,
		CurrencyCode:     p.CurrencyCode,
	}
}

// ToAgingReportResponse converts a domain.AgingReport to its response DTO.
func ToAgingReportResponse(r *domain.AgingReport) AgingReportResponse {
	buckets := make([]AgingBucketResponse, len(r.Buckets))
	for i, b := range r.Buckets {
		buckets[i] = AgingBucketResponse{
			Label:        b.Bucket.Label,
			DaysFrom:     b.Bucket.DaysFrom,
			DaysTo:       b.Bucket.DaysTo,
			InvoiceCount: b.InvoiceCount,
			Balance:      b.Balance.String(),
		}
	}
	return AgingReportResponse{
		AsOfDate:         r.AsOfDate,
		CounterpartyType: r.CounterpartyType,
		Buckets:          buckets,
		TotalOutstanding: r.TotalOutstanding.String(),
	}
}
