package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide indicates which side of an entry increases an account.
type BalanceSide string

const (
	DebitSide  BalanceSide = "DEBIT"
	CreditSide BalanceSide = "CREDIT"
)

// NormalSideFor returns the conventional normal balance side for an account type.
// Asset and Expense accounts increase on debit; the rest increase on credit.
func NormalSideFor(t AccountType) BalanceSide {
	switch t {
	case Asset, Expense:
		return DebitSide
	default:
		return CreditSide
	}
}

// Account is a node in the chart of accounts. Once referenced by a posted
// journal line its code, type and normal side are treated as immutable.
type Account struct {
	AccountID    string      `json:"accountID"`    // Primary Key (UUID)
	TenantID     string      `json:"tenantID"`     // Owning tenant (NON-NULL)
	Code         string      `json:"code"`         // Chart-of-accounts code, unique per tenant
	Name         string      `json:"name"`         // User-defined name
	AccountType  AccountType `json:"accountType"`  // ASSET, LIABILITY, etc.
	NormalSide   BalanceSide `json:"normalSide"`   // DEBIT or CREDIT
	CurrencyCode string      `json:"currencyCode"` // FK -> currencies.code
	Description  string      `json:"description"`  // Nullable user description
	IsActive     bool        `json:"isActive"`
	AuditFields
}
