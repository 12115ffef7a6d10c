package dto

import (
	"time"

	"github.com/corefin/ledgercore/internal/core/domain"
)

// CreateEntryLineRequest is one debit or credit line of a draft entry.
// Amounts are decimal strings; exactly one of debit and credit must be non-zero.
type CreateEntryLineRequest struct {
	AccountID  string            `json:"accountID" binding:"required"`
	Debit      string            `json:"debit" binding:"omitempty,decimal"`  // e.g. "1234.50", empty = 0
	Credit     string            `json:"credit" binding:"omitempty,decimal"` // e.g. "1234.50", empty = 0
	Dimensions domain.Dimensions `json:"dimensions"`
}

// CreateEntryRequest defines the data needed to create a draft journal entry.
type CreateEntryRequest struct {
	Date         time.Time                `json:"date" binding:"required"`
	Description  string                   `json:"description" binding:"required"`
	CurrencyCode string                   `json:"currencyCode" binding:"required,len=3,uppercase"`
	SourceRef    string                   `json:"sourceRef"`
	Lines        []CreateEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateEntryRequest replaces the lines of a Draft entry. The full new line
// set is supplied; lines absent from it are removed.
type UpdateEntryRequest struct {
	Lines []CreateEntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// EntryLineResponse defines the data returned for a journal line.
type EntryLineResponse struct {
	LineID     string            `json:"lineID"`
	AccountID  string            `json:"accountID"`
	Debit      string            `json:"debit"`
	Credit     string            `json:"credit"`
	Dimensions domain.Dimensions `json:"dimensions,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID           string              `json:"entryID"`
	EntryDate         time.Time           `json:"entryDate"`
	Description       string              `json:"description"`
	SourceRef         string              `json:"sourceRef,omitempty"`
	CurrencyCode      string              `json:"currencyCode"`
	Status            domain.EntryStatus  `json:"status"`
	SequenceNumber    int64               `json:"sequenceNumber,omitempty"`
	ReversalOfEntryID *string             `json:"reversalOfEntryID,omitempty"`
	ReversedByEntryID *string             `json:"reversedByEntryID,omitempty"`
	Lines             []EntryLineResponse `json:"lines,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	CreatedBy         string              `json:"createdBy"`
}

// ReverseEntryRequest carries the reason recorded on the reversing entry.
type ReverseEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
// A nil entry converts to the zero response.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	if e == nil {
		return EntryResponse{}
	}
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineResponse{
			LineID:     l.LineID,
			AccountID:  l.AccountID,
			Debit:      l.Debit.String(),
			Credit:     l.Credit.String(),
			Dimensions: l.Dimensions,
		}
	}
	return EntryResponse{
		EntryID:           e.EntryID,
		EntryDate:         e.EntryDate,
		Description:       e.Description,
		SourceRef:         e.SourceRef,
		CurrencyCode:      e.CurrencyCode,
		Status:            e.Status,
		SequenceNumber:    e.SequenceNumber,
		ReversalOfEntryID: e.ReversalOfEntryID,
		ReversedByEntryID: e.ReversedByEntryID,
		Lines:             lines,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
	}
}
