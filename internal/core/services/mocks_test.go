package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/dto"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByType(ctx context.Context, tenantID string, types []domain.AccountType) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, tenantID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindPostedEntriesByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindPostedLinesByAccount(ctx context.Context, tenantID, accountID string, asOf time.Time) ([]domain.JournalEntryLine, error) {
	args := m.Called(ctx, tenantID, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntryLine), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntryLines(ctx context.Context, entryID string, expectedVersion int64, lines []domain.JournalEntryLine, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, entryID, expectedVersion, lines, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) MarkEntryPosted(ctx context.Context, entryID string, expectedVersion int64, postedBy string, postedAt time.Time) (int64, error) {
	args := m.Called(ctx, entryID, expectedVersion, postedBy, postedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) SaveReversal(ctx context.Context, reversing domain.JournalEntry, originalEntryID string, expectedVersion int64, reversedBy string, reversedAt time.Time) (int64, error) {
	args := m.Called(ctx, reversing, originalEntryID, expectedVersion, reversedBy, reversedAt)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock FiscalPeriodRepository ---
type MockFiscalPeriodRepository struct {
	mock.Mock
}

func (m *MockFiscalPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalPeriodRepository) FindPeriodByDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalPeriodRepository) FindPeriodsByYear(ctx context.Context, tenantID string, fiscalYear int) ([]domain.FiscalPeriod, error) {
	args := m.Called(ctx, tenantID, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalPeriodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

func (m *MockFiscalPeriodRepository) MarkPeriodClosed(ctx context.Context, periodID string, closedBy string, closedAt time.Time) error {
	args := m.Called(ctx, periodID, closedBy, closedAt)
	return args.Error(0)
}

// --- Mock TaxRepository ---
type MockTaxRepository struct {
	mock.Mock
}

func (m *MockTaxRepository) FindJurisdictionByCode(ctx context.Context, code string) (*domain.TaxJurisdiction, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxJurisdiction), args.Error(1)
}

func (m *MockTaxRepository) FindEffectiveRate(ctx context.Context, jurisdictionCode, taxType string, asOf time.Time) (*domain.TaxRate, error) {
	args := m.Called(ctx, jurisdictionCode, taxType, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxRate), args.Error(1)
}

func (m *MockTaxRepository) SaveJurisdiction(ctx context.Context, jurisdiction domain.TaxJurisdiction) error {
	args := m.Called(ctx, jurisdiction)
	return args.Error(0)
}

func (m *MockTaxRepository) SaveRate(ctx context.Context, rate domain.TaxRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// --- Mock CurrencyRepository ---
type MockCurrencyRepository struct {
	mock.Mock
}

func (m *MockCurrencyRepository) FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) FindBaseCurrency(ctx context.Context) (*domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

func (m *MockCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	args := m.Called(ctx, currency)
	return args.Error(0)
}

// --- Mock ExchangeRateRepository ---
type MockExchangeRateRepository struct {
	mock.Mock
}

func (m *MockExchangeRateRepository) FindEffectiveRate(ctx context.Context, fromCode, toCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCode, toCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// --- Mock InvoiceRepository ---
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingInvoices(ctx context.Context, tenantID string, counterpartyType domain.CounterpartyType, asOf time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, tenantID, counterpartyType, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListInvoicesByCounterparty(ctx context.Context, tenantID, counterpartyID string) ([]domain.Invoice, error) {
	args := m.Called(ctx, tenantID, counterpartyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateInvoiceStatus(ctx context.Context, invoiceID string, expectedVersion int64, status domain.InvoiceStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, invoiceID, expectedVersion, status, updatedBy, updatedAt)
	return args.Error(0)
}

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindApplicationsByInvoice(ctx context.Context, invoiceID string) ([]domain.PaymentApplication, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentApplication), args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ApplyPayment(ctx context.Context, application domain.PaymentApplication, invoice domain.Invoice, expectedVersion int64, payment domain.Payment) error {
	args := m.Called(ctx, application, invoice, expectedVersion, payment)
	return args.Error(0)
}

// --- Mock PeriodChecker ---
type MockPeriodChecker struct {
	mock.Mock
}

func (m *MockPeriodChecker) AcquirePosting() (release func()) {
	m.Called()
	return func() {}
}

func (m *MockPeriodChecker) EnsureOpen(ctx context.Context, tenantID string, date time.Time) error {
	args := m.Called(ctx, tenantID, date)
	return args.Error(0)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time) (domain.Money, error) {
	args := m.Called(ctx, tenantID, accountID, asOf)
	return args.Get(0).(domain.Money), args.Error(1)
}

func (m *MockLedgerService) CreateDraftEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) UpdateDraftEntry(ctx context.Context, tenantID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, tenantID string, limit int, offset int) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) PostEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ReverseEntry(ctx context.Context, tenantID string, entryID string, reason string, userID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

// --- Mock TaxCalculator ---
type MockTaxCalculator struct {
	mock.Mock
}

func (m *MockTaxCalculator) CalculateTax(ctx context.Context, taxableAmount domain.Money, jurisdictionCodes []string, taxType string, asOf time.Time) (*domain.TaxCalculationResult, error) {
	args := m.Called(ctx, taxableAmount, jurisdictionCodes, taxType, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxCalculationResult), args.Error(1)
}
