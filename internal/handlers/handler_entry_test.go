package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/corefin/ledgercore/internal/core/domain"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/dto"
	"github.com/corefin/ledgercore/internal/handlers"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateDraftEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
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

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Test Suite ---
type EntryHandlerTestSuite struct {
	suite.Suite
	router            *gin.Engine
	mockLedgerService *MockLedgerService
}

func (suite *EntryHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.mockLedgerService = new(MockLedgerService)

	handlers.RegisterRoutes(suite.router, &portssvc.ServiceContainer{
		Ledger: suite.mockLedgerService,
	})
}

func (suite *EntryHandlerTestSuite) request(method, path string, body any, withIdentity bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withIdentity {
		req.Header.Set("X-Tenant-ID", "tenant-1")
		req.Header.Set("X-Actor-ID", "user-1")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *EntryHandlerTestSuite) TestCreateEntry_Success() {
	req := dto.CreateEntryRequest{
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:  "Office supplies",
		CurrencyCode: "USD",
		Lines: []dto.CreateEntryLineRequest{
			{AccountID: "acc-expense", Debit: "50.00"},
			{AccountID: "acc-cash", Credit: "50.00"},
		},
	}

	suite.mockLedgerService.On("CreateDraftEntry", mock.Anything, "tenant-1", mock.AnythingOfType("dto.CreateEntryRequest"), "user-1").
		Return(&domain.JournalEntry{
			EntryID:      "entry-1",
			TenantID:     "tenant-1",
			EntryDate:    req.Date,
			Description:  req.Description,
			CurrencyCode: "USD",
			Status:       domain.Draft,
			Version:      1,
		}, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/entries", req, true)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("entry-1", resp.EntryID)
	suite.Equal(domain.Draft, resp.Status)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestCreateEntry_MissingIdentityRejected() {
	req := dto.CreateEntryRequest{
		Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:  "Office supplies",
		CurrencyCode: "USD",
		Lines: []dto.CreateEntryLineRequest{
			{AccountID: "acc-expense", Debit: "50.00"},
			{AccountID: "acc-cash", Credit: "50.00"},
		},
	}

	w := suite.request(http.MethodPost, "/api/v1/entries", req, false)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLedgerService.AssertNotCalled(suite.T(), "CreateDraftEntry",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestPostEntry_PeriodClosedMapsTo422() {
	suite.mockLedgerService.On("PostEntry", mock.Anything, "tenant-1", "entry-1", "user-1").
		Return(nil, fmt.Errorf("cannot post entry: %w", apperrors.ErrPeriodClosed)).Once()

	w := suite.request(http.MethodPost, "/api/v1/entries/entry-1/post", nil, true)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *EntryHandlerTestSuite) TestGetEntry_NotFound() {
	suite.mockLedgerService.On("GetEntryByID", mock.Anything, "tenant-1", "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.request(http.MethodGet, "/api/v1/entries/missing", nil, true)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *EntryHandlerTestSuite) TestListEntries_PassesPagination() {
	suite.mockLedgerService.On("ListEntries", mock.Anything, "tenant-1", 25, 50).
		Return([]domain.JournalEntry{
			{EntryID: "entry-1", TenantID: "tenant-1", Status: domain.Posted},
		}, nil).Once()

	w := suite.request(http.MethodGet, "/api/v1/entries?limit=25&offset=50", nil, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Entries []dto.EntryResponse `json:"entries"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Entries, 1)
	suite.Equal("entry-1", resp.Entries[0].EntryID)
	suite.mockLedgerService.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestUpdateEntry_ReplacesDraftLines() {
	req := dto.UpdateEntryRequest{
		Lines: []dto.CreateEntryLineRequest{
			{AccountID: "acc-expense", Debit: "75.00"},
			{AccountID: "acc-cash", Credit: "75.00"},
		},
	}

	suite.mockLedgerService.On("UpdateDraftEntry", mock.Anything, "tenant-1", "entry-1",
		mock.AnythingOfType("dto.UpdateEntryRequest"), "user-1").
		Return(&domain.JournalEntry{
			EntryID:  "entry-1",
			TenantID: "tenant-1",
			Status:   domain.Draft,
			Version:  2,
		}, nil).Once()

	w := suite.request(http.MethodPut, "/api/v1/entries/entry-1", req, true)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("entry-1", resp.EntryID)
	suite.Equal(domain.Draft, resp.Status)
}

func (suite *EntryHandlerTestSuite) TestReverseEntry_Success() {
	suite.mockLedgerService.On("ReverseEntry", mock.Anything, "tenant-1", "entry-1", "duplicate posting", "user-1").
		Return(&domain.JournalEntry{
			EntryID:  "entry-2",
			TenantID: "tenant-1",
			Status:   domain.Posted,
		}, nil).Once()

	w := suite.request(http.MethodPost, "/api/v1/entries/entry-1/reverse",
		dto.ReverseEntryRequest{Reason: "duplicate posting"}, true)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("entry-2", resp.EntryID)
}

func TestEntryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(EntryHandlerTestSuite))
}
