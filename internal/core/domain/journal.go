package domain

import "time"

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft           EntryStatus = "DRAFT"
	PendingApproval EntryStatus = "PENDING_APPROVAL"
	Posted          EntryStatus = "POSTED"
	Reversed        EntryStatus = "REVERSED"
)

// ReconcileStatus marks a line's bank reconciliation state. Reconciliation
// matching itself happens outside the core; the status is carried for reporting.
type ReconcileStatus string

const (
	Unreconciled ReconcileStatus = "UNRECONCILED"
	Reconciled   ReconcileStatus = "RECONCILED"
)

// Dimensions are reporting tags on a journal line. They never participate in
// the balance invariant.
type Dimensions struct {
	Department     string `json:"department,omitempty"`
	Project        string `json:"project,omitempty"`
	Location       string `json:"location,omitempty"`
	CounterpartyID string `json:"counterpartyID,omitempty"`
}

// JournalEntry represents a single financial event composed of offsetting
// debit and credit lines. A Draft entry may be temporarily unbalanced; at the
// instant it is posted, debits must equal credits to the minor unit. Posted
// entries are immutable; corrections happen through a reversing entry that
// points back via ReversalOfEntryID.
type JournalEntry struct {
	EntryID           string      `json:"entryID"`   // Primary Key (UUID)
	TenantID          string      `json:"tenantID"`  // Owning tenant
	EntryDate         time.Time   `json:"entryDate"` // Date the event occurred
	Description       string      `json:"description"`
	SourceRef         string      `json:"sourceRef"` // e.g. invoice or payment ID
	CurrencyCode      string      `json:"currencyCode"`
	Status            EntryStatus `json:"status"`
	SequenceNumber    int64       `json:"sequenceNumber"`              // Assigned at post time, immutable
	ReversalOfEntryID *string     `json:"reversalOfEntryID,omitempty"` // Set on the reversing entry
	ReversedByEntryID *string     `json:"reversedByEntryID,omitempty"` // Back-reference, set exactly once
	Version           int64       `json:"version"`                     // Optimistic concurrency token
	Lines             []JournalEntryLine
	AuditFields
}

// JournalEntryLine is a single debit or credit against one account. Exactly
// one of Debit and Credit is non-zero in the canonical form.
type JournalEntryLine struct {
	LineID         string          `json:"lineID"`
	EntryID        string          `json:"entryID"`
	AccountID      string          `json:"accountID"`
	Debit          Money           `json:"debit"`
	Credit         Money           `json:"credit"`
	Reconciliation ReconcileStatus `json:"reconciliation,omitempty"`
	Dimensions     Dimensions      `json:"dimensions,omitempty"`
	AuditFields
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l JournalEntryLine) IsDebit() bool {
	return !l.Debit.IsZero()
}

// Amount returns the line's magnitude regardless of side.
func (l JournalEntryLine) Amount() Money {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}
