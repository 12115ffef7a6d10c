package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Code         string             `json:"code" binding:"required"`
	Name         string             `json:"name" binding:"required"`
	AccountType  domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalSide   domain.BalanceSide `json:"normalSide" binding:"omitempty,oneof=DEBIT CREDIT"` // Defaults to the type's convention
	CurrencyCode string             `json:"currencyCode" binding:"required,len=3,uppercase"`
	Description  string             `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string             `json:"accountID"`
	Code          string             `json:"code"`
	Name          string             `json:"name"`
	AccountType   domain.AccountType `json:"accountType"`
	NormalSide    domain.BalanceSide `json:"normalSide"`
	CurrencyCode  string             `json:"currencyCode"`
	Description   string             `json:"description"`
	IsActive      bool               `json:"isActive"`
	CreatedAt     time.Time          `json:"createdAt"`
	CreatedBy     string             `json:"createdBy"`
	LastUpdatedAt time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Code:          acc.Code,
		Name:          acc.Name,
		AccountType:   acc.AccountType,
		NormalSide:    acc.NormalSide,
		CurrencyCode:  acc.CurrencyCode,
		Description:   acc.Description,
		IsActive:      acc.IsActive,
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// BalanceResponse carries a derived account balance as of a date.
type BalanceResponse struct {
	AccountID string    `json:"accountID"`
	AsOfDate  time.Time `json:"asOfDate"`
	Balance   string    `json:"balance"` // Fixed-scale decimal string
}
