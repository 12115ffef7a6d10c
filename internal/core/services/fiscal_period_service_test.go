package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	"github.com/corefin/ledgercore/internal/core/services"
	"github.com/corefin/ledgercore/internal/dto"
)

type FiscalPeriodServiceTestSuite struct {
	suite.Suite
	mockPeriodRepo   *MockFiscalPeriodRepository
	mockJournalRepo  *MockJournalRepository
	mockAccountRepo  *MockAccountRepository
	mockCurrencyRepo *MockCurrencyRepository
	mockLedger       *MockLedgerService
	service          *services.FiscalPeriodService

	tenantID string
	userID   string
	usd      *domain.Currency
}

func (suite *FiscalPeriodServiceTestSuite) SetupTest() {
	suite.mockPeriodRepo = new(MockFiscalPeriodRepository)
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.mockLedger = new(MockLedgerService)
	suite.service = services.NewFiscalPeriodService(
		suite.mockPeriodRepo,
		suite.mockJournalRepo,
		suite.mockAccountRepo,
		suite.mockCurrencyRepo,
		nil,
	)
	suite.service.SetLedger(suite.mockLedger)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.usd = &domain.Currency{CurrencyCode: "USD", DecimalPlaces: 2}
}

func (suite *FiscalPeriodServiceTestSuite) period(year, number int, status domain.PeriodStatus) domain.FiscalPeriod {
	start := time.Date(year, time.Month(number), 1, 0, 0, 0, 0, time.UTC)
	return domain.FiscalPeriod{
		PeriodID:     uuid.NewString(),
		TenantID:     suite.tenantID,
		FiscalYear:   year,
		PeriodNumber: number,
		StartDate:    start,
		EndDate:      start.AddDate(0, 1, -1),
		Status:       status,
	}
}

func (suite *FiscalPeriodServiceTestSuite) TestEnsureOpen_OpenPeriod() {
	ctx := context.Background()
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	p := suite.period(2024, 3, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodByDate", ctx, suite.tenantID, date).Return(&p, nil).Once()

	suite.NoError(suite.service.EnsureOpen(ctx, suite.tenantID, date))
}

func (suite *FiscalPeriodServiceTestSuite) TestEnsureOpen_ClosedPeriod() {
	ctx := context.Background()
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	p := suite.period(2024, 1, domain.PeriodClosed)

	suite.mockPeriodRepo.On("FindPeriodByDate", ctx, suite.tenantID, date).Return(&p, nil).Once()

	err := suite.service.EnsureOpen(ctx, suite.tenantID, date)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
}

func (suite *FiscalPeriodServiceTestSuite) TestEnsureOpen_NoPeriodCoversDate() {
	ctx := context.Background()
	date := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	suite.mockPeriodRepo.On("FindPeriodByDate", ctx, suite.tenantID, date).
		Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.EnsureOpen(ctx, suite.tenantID, date)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *FiscalPeriodServiceTestSuite) TestCreatePeriod_Contiguity() {
	ctx := context.Background()
	jan := suite.period(2024, 1, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{jan}, nil)

	// A gap after January is rejected.
	_, err := suite.service.CreatePeriod(ctx, suite.tenantID, dto.CreatePeriodRequest{
		FiscalYear:   2024,
		PeriodNumber: 2,
		StartDate:    time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)

	// The day after January ends is accepted.
	suite.mockPeriodRepo.On("SavePeriod", ctx, mock.MatchedBy(func(p domain.FiscalPeriod) bool {
		return p.PeriodNumber == 2 && p.Status == domain.PeriodOpen
	})).Return(nil).Once()

	created, err := suite.service.CreatePeriod(ctx, suite.tenantID, dto.CreatePeriodRequest{
		FiscalYear:   2024,
		PeriodNumber: 2,
		StartDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}, suite.userID)
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodOpen, created.Status)
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *FiscalPeriodServiceTestSuite) TestCreatePeriod_DuplicateNumberRejected() {
	ctx := context.Background()
	jan := suite.period(2024, 1, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{jan}, nil).Once()

	_, err := suite.service.CreatePeriod(ctx, suite.tenantID, dto.CreatePeriodRequest{
		FiscalYear:   2024,
		PeriodNumber: 1,
		StartDate:    jan.StartDate,
		EndDate:      jan.EndDate,
	}, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *FiscalPeriodServiceTestSuite) TestClosePeriod_Success() {
	ctx := context.Background()
	feb := suite.period(2024, 2, domain.PeriodOpen)
	jan := suite.period(2024, 1, domain.PeriodClosed)

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, feb.PeriodID).Return(&feb, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{jan, feb}, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, feb.StartDate, feb.EndDate).
		Return([]domain.JournalEntry{}, nil).Once()
	suite.mockPeriodRepo.On("MarkPeriodClosed", ctx, feb.PeriodID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	suite.NoError(suite.service.ClosePeriod(ctx, suite.tenantID, feb.PeriodID, suite.userID))
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *FiscalPeriodServiceTestSuite) TestClosePeriod_PriorPeriodOpenRejected() {
	ctx := context.Background()
	jan := suite.period(2024, 1, domain.PeriodOpen)
	feb := suite.period(2024, 2, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, feb.PeriodID).Return(&feb, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{jan, feb}, nil).Once()

	err := suite.service.ClosePeriod(ctx, suite.tenantID, feb.PeriodID, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPriorPeriodOpen)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "MarkPeriodClosed")
}

func (suite *FiscalPeriodServiceTestSuite) TestClosePeriod_AlreadyClosedIsNoOp() {
	ctx := context.Background()
	jan := suite.period(2024, 1, domain.PeriodClosed)

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, jan.PeriodID).Return(&jan, nil).Once()

	suite.NoError(suite.service.ClosePeriod(ctx, suite.tenantID, jan.PeriodID, suite.userID))
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "MarkPeriodClosed")
}

func (suite *FiscalPeriodServiceTestSuite) TestClosePeriod_UnbalancedEntryDetected() {
	ctx := context.Background()
	jan := suite.period(2024, 1, domain.PeriodOpen)

	corrupt := domain.JournalEntry{
		EntryID:      uuid.NewString(),
		TenantID:     suite.tenantID,
		CurrencyCode: "USD",
		Status:       domain.Posted,
		Lines: []domain.JournalEntryLine{
			{Debit: domain.MustMoney("100.00", 2), Credit: domain.ZeroMoney(2)},
			{Debit: domain.ZeroMoney(2), Credit: domain.MustMoney("90.00", 2)},
		},
	}

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, jan.PeriodID).Return(&jan, nil).Once()
	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{jan}, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, jan.StartDate, jan.EndDate).
		Return([]domain.JournalEntry{corrupt}, nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil).Once()

	err := suite.service.ClosePeriod(ctx, suite.tenantID, jan.PeriodID, suite.userID)
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnbalancedPeriod)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "MarkPeriodClosed")
}

// retainedEarnings is a helper for year-end tests.
func (suite *FiscalPeriodServiceTestSuite) retainedEarnings() *domain.Account {
	return &domain.Account{
		AccountID:    "acc-re",
		TenantID:     suite.tenantID,
		Code:         "3900",
		AccountType:  domain.Equity,
		NormalSide:   domain.CreditSide,
		CurrencyCode: "USD",
		IsActive:     true,
	}
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_NetIncomeToRetainedEarnings() {
	ctx := context.Background()
	dec := suite.period(2024, 12, domain.PeriodOpen)
	closedMonths := make([]domain.FiscalPeriod, 0, 12)
	for m := 1; m < 12; m++ {
		closedMonths = append(closedMonths, suite.period(2024, m, domain.PeriodClosed))
	}
	all := append(closedMonths, dec)

	revenue := domain.Account{AccountID: "acc-rev", TenantID: suite.tenantID,
		AccountType: domain.Revenue, NormalSide: domain.CreditSide, CurrencyCode: "USD", IsActive: true}
	expense := domain.Account{AccountID: "acc-exp", TenantID: suite.tenantID,
		AccountType: domain.Expense, NormalSide: domain.DebitSide, CurrencyCode: "USD", IsActive: true}

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).Return(all, nil)
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-re").Return(suite.retainedEarnings(), nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil)
	suite.mockAccountRepo.On("FindAccountsByType", ctx, suite.tenantID,
		[]domain.AccountType{domain.Revenue, domain.Expense}).
		Return([]domain.Account{revenue, expense}, nil).Once()
	suite.mockLedger.On("GetAccountBalance", ctx, suite.tenantID, "acc-rev", dec.EndDate).
		Return(domain.MustMoney("50000.00", 2), nil).Once()
	suite.mockLedger.On("GetAccountBalance", ctx, suite.tenantID, "acc-exp", dec.EndDate).
		Return(domain.MustMoney("30000.00", 2), nil).Once()

	// Net income 20000.00: debit revenue 50000, credit expense 30000,
	// credit retained earnings 20000.
	draft := &domain.JournalEntry{EntryID: uuid.NewString(), TenantID: suite.tenantID, Status: domain.Draft}
	posted := &domain.JournalEntry{EntryID: draft.EntryID, TenantID: suite.tenantID, Status: domain.Posted}
	suite.mockLedger.On("CreateDraftEntry", ctx, suite.tenantID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		if len(req.Lines) != 3 {
			return false
		}
		return req.Lines[0].Debit == "50000.00" &&
			req.Lines[1].Credit == "30000.00" &&
			req.Lines[2].Credit == "20000.00" &&
			req.Lines[2].AccountID == "acc-re"
	}), suite.userID).Return(draft, nil).Once()
	suite.mockLedger.On("PostEntry", ctx, suite.tenantID, draft.EntryID, suite.userID).
		Return(posted, nil).Once()

	// ClosePeriod path for the final period.
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, dec.PeriodID).Return(&dec, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, dec.StartDate, dec.EndDate).
		Return([]domain.JournalEntry{}, nil).Once()
	suite.mockPeriodRepo.On("MarkPeriodClosed", ctx, dec.PeriodID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(closing)
	suite.Equal(domain.Posted, closing.Status)
	suite.mockLedger.AssertExpectations(suite.T())
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_DormantYearClosesWithoutEntry() {
	ctx := context.Background()
	dec := suite.period(2024, 12, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{dec}, nil)
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-re").Return(suite.retainedEarnings(), nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil)
	suite.mockAccountRepo.On("FindAccountsByType", ctx, suite.tenantID,
		[]domain.AccountType{domain.Revenue, domain.Expense}).
		Return([]domain.Account{}, nil).Once()

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, dec.PeriodID).Return(&dec, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, dec.StartDate, dec.EndDate).
		Return([]domain.JournalEntry{}, nil).Once()
	suite.mockPeriodRepo.On("MarkPeriodClosed", ctx, dec.PeriodID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(nil).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Nil(closing)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateDraftEntry",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockPeriodRepo.AssertExpectations(suite.T())
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_PeriodCloseFailureAfterPostIsFatal() {
	ctx := context.Background()
	dec := suite.period(2024, 12, domain.PeriodOpen)

	revenue := domain.Account{AccountID: "acc-rev", TenantID: suite.tenantID,
		AccountType: domain.Revenue, NormalSide: domain.CreditSide, CurrencyCode: "USD", IsActive: true}

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{dec}, nil)
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-re").Return(suite.retainedEarnings(), nil).Once()
	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil)
	suite.mockAccountRepo.On("FindAccountsByType", ctx, suite.tenantID,
		[]domain.AccountType{domain.Revenue, domain.Expense}).
		Return([]domain.Account{revenue}, nil).Once()
	suite.mockLedger.On("GetAccountBalance", ctx, suite.tenantID, "acc-rev", dec.EndDate).
		Return(domain.MustMoney("1000.00", 2), nil).Once()

	draft := &domain.JournalEntry{EntryID: uuid.NewString(), TenantID: suite.tenantID, Status: domain.Draft}
	posted := &domain.JournalEntry{EntryID: draft.EntryID, TenantID: suite.tenantID, Status: domain.Posted}
	suite.mockLedger.On("CreateDraftEntry", ctx, suite.tenantID, mock.AnythingOfType("dto.CreateEntryRequest"), suite.userID).
		Return(draft, nil).Once()
	suite.mockLedger.On("PostEntry", ctx, suite.tenantID, draft.EntryID, suite.userID).
		Return(posted, nil).Once()

	// The closing entry committed but closing the period itself fails.
	suite.mockPeriodRepo.On("FindPeriodByID", ctx, dec.PeriodID).Return(&dec, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, dec.StartDate, dec.EndDate).
		Return([]domain.JournalEntry{}, nil).Once()
	suite.mockPeriodRepo.On("MarkPeriodClosed", ctx, dec.PeriodID, suite.userID, mock.AnythingOfType("time.Time")).
		Return(errors.New("connection reset")).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFatalInconsistency)
	suite.Nil(closing)
	suite.Contains(err.Error(), draft.EntryID)
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_EarlierPeriodOpenRejected() {
	ctx := context.Background()
	nov := suite.period(2024, 11, domain.PeriodOpen)
	dec := suite.period(2024, 12, domain.PeriodOpen)

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{nov, dec}, nil).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPriorPeriodOpen)
	suite.Nil(closing)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateDraftEntry")
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_ClosedWithoutClosingEntryIsFatal() {
	ctx := context.Background()
	dec := suite.period(2024, 12, domain.PeriodClosed)

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{dec}, nil).Once()
	suite.mockJournalRepo.On("FindPostedEntriesByDateRange", ctx, suite.tenantID, dec.StartDate, dec.EndDate).
		Return([]domain.JournalEntry{}, nil).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrFatalInconsistency)
	suite.Nil(closing)
}

func (suite *FiscalPeriodServiceTestSuite) TestProcessYearEnd_NonEquityRetainedEarningsRejected() {
	ctx := context.Background()
	dec := suite.period(2024, 12, domain.PeriodOpen)

	wrongType := suite.retainedEarnings()
	wrongType.AccountType = domain.Liability

	suite.mockPeriodRepo.On("FindPeriodsByYear", ctx, suite.tenantID, 2024).
		Return([]domain.FiscalPeriod{dec}, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-re").Return(wrongType, nil).Once()

	closing, err := suite.service.ProcessYearEnd(ctx, suite.tenantID, dto.YearEndRequest{
		FiscalYear:                2024,
		RetainedEarningsAccountID: "acc-re",
	}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(closing)
}

func TestFiscalPeriodServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FiscalPeriodServiceTestSuite))
}
