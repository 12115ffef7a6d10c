package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a monetary input that is not numeric or carries
// more fractional digits than the currency allows.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// ErrUnbalancedEntry indicates a journal entry whose debits and credits do not
// sum to the same amount at the minor unit.
var ErrUnbalancedEntry = errors.New("journal entry is not balanced")

// ErrEmptyEntry indicates a journal entry with fewer than two lines.
var ErrEmptyEntry = errors.New("journal entry must have at least two lines")

// ErrPeriodClosed indicates an attempt to post into a closed fiscal period.
var ErrPeriodClosed = errors.New("fiscal period is closed")

// ErrPriorPeriodOpen indicates a period close attempted while an earlier period
// in the same fiscal year is still open.
var ErrPriorPeriodOpen = errors.New("a prior fiscal period is still open")

// ErrUnbalancedPeriod indicates that the trial balance over a period does not
// net to zero, so the period cannot be closed.
var ErrUnbalancedPeriod = errors.New("fiscal period trial balance is not balanced")

// ErrNoEffectiveRate indicates that a jurisdiction has no tax rate effective at
// the requested date. This is never treated as a 0% rate.
var ErrNoEffectiveRate = errors.New("no effective tax rate for jurisdiction")

// ErrNoExchangeRate indicates that neither a direct nor an inverse exchange
// rate exists for a currency pair at the requested date.
var ErrNoExchangeRate = errors.New("no effective exchange rate for currency pair")

// ErrOverApplication indicates a payment application exceeding either the
// payment's unapplied amount or the invoice's outstanding balance.
var ErrOverApplication = errors.New("payment application exceeds available amount")

// ErrInvoiceVoided indicates an operation on a voided invoice.
var ErrInvoiceVoided = errors.New("invoice is void")

// ErrConcurrentModification is surfaced by the persistence layer when an
// optimistic version check fails. Callers may retry the whole command.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// ErrFatalInconsistency indicates a partially applied multi-step operation
// (e.g. year-end close) that requires manual repair before retrying.
var ErrFatalInconsistency = errors.New("fatal data inconsistency detected")
