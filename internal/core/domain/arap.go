package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CounterpartyType distinguishes receivable (customer) from payable
// (supplier) documents. An invoice belongs to exactly one side.
type CounterpartyType string

const (
	Customer CounterpartyType = "CUSTOMER"
	Supplier CounterpartyType = "SUPPLIER"
)

// InvoiceStatus is the lifecycle state of an AR/AP invoice.
type InvoiceStatus string

const (
	InvoiceOpen          InvoiceStatus = "OPEN"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceVoid          InvoiceStatus = "VOID"
)

// PaymentMethod is a tagged variant for how a payment was made.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCard         PaymentMethod = "CARD"
	PaymentCheck        PaymentMethod = "CHECK"
)

// InvoiceLine is one quantity × unit-price line, optionally tax-coded.
type InvoiceLine struct {
	LineID      string          `json:"lineID"`
	InvoiceID   string          `json:"invoiceID"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   Money           `json:"unitPrice"`
	TaxCode     string          `json:"taxCode,omitempty"` // Tax type resolved by the tax engine; empty = untaxed
	LineTotal   Money           `json:"lineTotal"`
}

// Invoice is an AR or AP document. Invariant: BalanceAmount equals
// TotalAmount minus PaidAmount and never goes below zero.
type Invoice struct {
	InvoiceID        string           `json:"invoiceID"` // Primary Key (UUID)
	TenantID         string           `json:"tenantID"`
	InvoiceNumber    string           `json:"invoiceNumber"`
	CounterpartyType CounterpartyType `json:"counterpartyType"`
	CounterpartyID   string           `json:"counterpartyID"`
	InvoiceDate      time.Time        `json:"invoiceDate"`
	DueDate          time.Time        `json:"dueDate"`
	CurrencyCode     string           `json:"currencyCode"`
	Lines            []InvoiceLine    `json:"lines,omitempty"`
	Subtotal         Money            `json:"subtotal"`
	TaxAmount        Money            `json:"taxAmount"`
	TotalAmount      Money            `json:"totalAmount"`
	PaidAmount       Money            `json:"paidAmount"`
	BalanceAmount    Money            `json:"balanceAmount"`
	Status           InvoiceStatus    `json:"status"`
	Version          int64            `json:"version"` // Optimistic concurrency token
	AuditFields
}

// Payment is a receipt (AR) or disbursement (AP). AppliedAmount tracks the
// sum of its applications and never exceeds Amount.
type Payment struct {
	PaymentID        string           `json:"paymentID"` // Primary Key (UUID)
	TenantID         string           `json:"tenantID"`
	CounterpartyType CounterpartyType `json:"counterpartyType"`
	CounterpartyID   string           `json:"counterpartyID"`
	PaymentDate      time.Time        `json:"paymentDate"`
	Amount           Money            `json:"amount"`
	AppliedAmount    Money            `json:"appliedAmount"`
	Method           PaymentMethod    `json:"method"`
	Reference        string           `json:"reference,omitempty"`
	CurrencyCode     string           `json:"currencyCode"`
	AuditFields
}

// UnappliedAmount is the portion of the payment not yet applied to invoices.
func (p Payment) UnappliedAmount() Money {
	return p.Amount.Sub(p.AppliedAmount)
}

// PaymentApplication links a payment to one invoice for a partial amount.
type PaymentApplication struct {
	ApplicationID string    `json:"applicationID"` // Primary Key (UUID)
	PaymentID     string    `json:"paymentID"`
	InvoiceID     string    `json:"invoiceID"`
	Amount        Money     `json:"amount"`
	AppliedAt     time.Time `json:"appliedAt"`
	AppliedBy     string    `json:"appliedBy"`
}

// AgingBucket is one day-range classification for the aging report. DaysTo is
// the exclusive upper bound; nil means unbounded (the last bucket).
type AgingBucket struct {
	Label    string `json:"label"`
	DaysFrom int    `json:"daysFrom"`
	DaysTo   *int   `json:"daysTo,omitempty"`
}

// Contains reports whether daysOverdue falls in [DaysFrom, DaysTo).
func (b AgingBucket) Contains(daysOverdue int) bool {
	if daysOverdue < b.DaysFrom {
		return false
	}
	return b.DaysTo == nil || daysOverdue < *b.DaysTo
}

// AgingBucketTotal aggregates outstanding balance and invoice count per bucket.
type AgingBucketTotal struct {
	Bucket       AgingBucket `json:"bucket"`
	InvoiceCount int         `json:"invoiceCount"`
	Balance      Money       `json:"balance"`
}

// AgingReport summarizes outstanding invoices by overdue bucket as of a date.
type AgingReport struct {
	AsOfDate         time.Time          `json:"asOfDate"`
	CounterpartyType CounterpartyType   `json:"counterpartyType"`
	Buckets          []AgingBucketTotal `json:"buckets"`
	TotalOutstanding Money              `json:"totalOutstanding"`
}
