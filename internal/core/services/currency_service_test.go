package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/core/services"
	"github.com/corefin/ledgercore/internal/dto"
)

type CurrencyServiceTestSuite struct {
	suite.Suite
	mockCurrencyRepo *MockCurrencyRepository
	mockRateRepo     *MockExchangeRateRepository
	mockAccountRepo  *MockAccountRepository
	mockLedger       *MockLedgerService
	service          portssvc.CurrencySvcFacade

	tenantID string
	userID   string
	asOf     time.Time
	usd      *domain.Currency
	eur      *domain.Currency
}

func (suite *CurrencyServiceTestSuite) SetupTest() {
	suite.mockCurrencyRepo = new(MockCurrencyRepository)
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockLedger = new(MockLedgerService)
	suite.service = services.NewCurrencyService(
		suite.mockCurrencyRepo,
		suite.mockRateRepo,
		suite.mockAccountRepo,
		suite.mockLedger,
	)

	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
	suite.asOf = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	suite.usd = &domain.Currency{CurrencyCode: "USD", DecimalPlaces: 2, IsBaseCurrency: true}
	suite.eur = &domain.Currency{CurrencyCode: "EUR", DecimalPlaces: 2}
}

func (suite *CurrencyServiceTestSuite) TestConvert_DirectRate() {
	ctx := context.Background()
	amount := domain.MustMoney("100.00", 2)

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").Return(suite.eur, nil).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "USD", "EUR", suite.asOf).
		Return(&domain.ExchangeRate{Rate: decimal.RequireFromString("0.92")}, nil).Once()

	converted, err := suite.service.Convert(ctx, amount, "USD", "EUR", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal("92.00", converted.String())
}

func (suite *CurrencyServiceTestSuite) TestConvert_ReciprocalFallback() {
	ctx := context.Background()
	amount := domain.MustMoney("92.00", 2)

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "EUR", "USD", suite.asOf).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "USD", "EUR", suite.asOf).
		Return(&domain.ExchangeRate{Rate: decimal.RequireFromString("0.92")}, nil).Once()

	// Round trip through the reciprocal: 92.00 / 0.92 = 100.00.
	converted, err := suite.service.Convert(ctx, amount, "EUR", "USD", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal("100.00", converted.String())
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestConvert_Identity() {
	ctx := context.Background()
	amount := domain.MustMoney("55.55", 2)

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "USD").Return(suite.usd, nil).Once()

	converted, err := suite.service.Convert(ctx, amount, "USD", "USD", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal("55.55", converted.String())
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindEffectiveRate")
}

func (suite *CurrencyServiceTestSuite) TestConvert_NoRateEitherDirection() {
	ctx := context.Background()
	amount := domain.MustMoney("100.00", 2)

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").Return(suite.eur, nil).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "USD", "EUR", suite.asOf).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "EUR", "USD", suite.asOf).
		Return(nil, apperrors.ErrNotFound).Once()

	converted, err := suite.service.Convert(ctx, amount, "USD", "EUR", suite.asOf)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNoExchangeRate)
	suite.True(converted.IsZero())
}

func (suite *CurrencyServiceTestSuite) TestConvert_QuantizesToTargetScale() {
	ctx := context.Background()
	amount := domain.MustMoney("10.01", 2)
	jpy := &domain.Currency{CurrencyCode: "JPY", DecimalPlaces: 0}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "JPY").Return(jpy, nil).Once()
	suite.mockRateRepo.On("FindEffectiveRate", ctx, "USD", "JPY", suite.asOf).
		Return(&domain.ExchangeRate{Rate: decimal.RequireFromString("157.35")}, nil).Once()

	// 10.01 * 157.35 = 1575.0735, quantized to 1575 at scale 0.
	converted, err := suite.service.Convert(ctx, amount, "USD", "JPY", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal("1575", converted.String())
	suite.Equal(int32(0), converted.Scale())
}

func (suite *CurrencyServiceTestSuite) TestRevalue_GainAndLoss() {
	balance := domain.MustMoney("1000.00", 2)

	gain := suite.service.Revalue(balance, decimal.RequireFromString("1.10"), decimal.RequireFromString("1.15"))
	suite.Equal("50.00", gain.String())

	loss := suite.service.Revalue(balance, decimal.RequireFromString("1.15"), decimal.RequireFromString("1.10"))
	suite.Equal("-50.00", loss.String())

	flat := suite.service.Revalue(balance, decimal.RequireFromString("1.10"), decimal.RequireFromString("1.10"))
	suite.True(flat.IsZero())
}

func (suite *CurrencyServiceTestSuite) TestRevalueAccount_PostsGainEntry() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:    "acc-eur-cash",
		TenantID:     suite.tenantID,
		Code:         "1015",
		AccountType:  domain.Asset,
		NormalSide:   domain.DebitSide,
		CurrencyCode: "EUR",
		IsActive:     true,
	}
	gainLoss := &domain.Account{
		AccountID:    "acc-fx",
		TenantID:     suite.tenantID,
		Code:         "7150",
		AccountType:  domain.Revenue,
		NormalSide:   domain.CreditSide,
		CurrencyCode: "EUR",
		IsActive:     true,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-eur-cash").Return(account, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-fx").Return(gainLoss, nil).Once()
	suite.mockLedger.On("GetAccountBalance", ctx, suite.tenantID, "acc-eur-cash", suite.asOf).
		Return(domain.MustMoney("1000.00", 2), nil).Once()

	draft := &domain.JournalEntry{EntryID: uuid.NewString(), Status: domain.Draft}
	posted := &domain.JournalEntry{EntryID: draft.EntryID, Status: domain.Posted}
	suite.mockLedger.On("CreateDraftEntry", ctx, suite.tenantID, mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
		if len(req.Lines) != 2 {
			return false
		}
		// Gain on a debit-normal account: debit the account, credit gain/loss.
		return req.Lines[0].AccountID == "acc-eur-cash" && req.Lines[0].Debit == "50.00" &&
			req.Lines[1].AccountID == "acc-fx" && req.Lines[1].Credit == "50.00"
	}), suite.userID).Return(draft, nil).Once()
	suite.mockLedger.On("PostEntry", ctx, suite.tenantID, draft.EntryID, suite.userID).
		Return(posted, nil).Once()

	entry, err := suite.service.RevalueAccount(ctx, suite.tenantID, "acc-eur-cash", "acc-fx",
		decimal.RequireFromString("1.10"), decimal.RequireFromString("1.15"), suite.asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Equal(domain.Posted, entry.Status)
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *CurrencyServiceTestSuite) TestRevalueAccount_ZeroAdjustmentPostsNothing() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID: "acc-eur-cash", TenantID: suite.tenantID,
		NormalSide: domain.DebitSide, CurrencyCode: "EUR", IsActive: true,
	}
	gainLoss := &domain.Account{
		AccountID: "acc-fx", TenantID: suite.tenantID,
		NormalSide: domain.CreditSide, CurrencyCode: "EUR", IsActive: true,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-eur-cash").Return(account, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", ctx, "acc-fx").Return(gainLoss, nil).Once()
	suite.mockLedger.On("GetAccountBalance", ctx, suite.tenantID, "acc-eur-cash", suite.asOf).
		Return(domain.MustMoney("1000.00", 2), nil).Once()

	rate := decimal.RequireFromString("1.10")
	entry, err := suite.service.RevalueAccount(ctx, suite.tenantID, "acc-eur-cash", "acc-fx",
		rate, rate, suite.asOf, suite.userID)

	suite.Require().NoError(err)
	suite.Nil(entry)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateDraftEntry")
}

func (suite *CurrencyServiceTestSuite) TestCreateCurrency_SecondBaseRejected() {
	ctx := context.Background()
	req := dto.CreateCurrencyRequest{
		CurrencyCode:   "EUR",
		Symbol:         "€",
		Name:           "Euro",
		DecimalPlaces:  2,
		IsBaseCurrency: true,
	}

	suite.mockCurrencyRepo.On("FindCurrencyByCode", ctx, "EUR").
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockCurrencyRepo.On("FindBaseCurrency", ctx).Return(suite.usd, nil).Once()

	currency, err := suite.service.CreateCurrency(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.Nil(currency)
	suite.mockCurrencyRepo.AssertNotCalled(suite.T(), "SaveCurrency")
}

func (suite *CurrencyServiceTestSuite) TestCreateExchangeRate_NonPositiveRejected() {
	ctx := context.Background()
	req := dto.CreateExchangeRateRequest{
		FromCurrencyCode: "USD",
		ToCurrencyCode:   "EUR",
		Rate:             decimal.Zero,
		EffectiveFrom:    suite.asOf,
	}

	rate, err := suite.service.CreateExchangeRate(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rate)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "SaveExchangeRate")
}

func TestCurrencyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CurrencyServiceTestSuite))
}
