package accounting

import (
	"github.com/corefin/ledgercore/internal/core/domain"
)

// SumDebitsCredits totals the debit and credit sides of a set of lines at the
// given scale. Both sums are exact; no rounding is involved.
func SumDebitsCredits(lines []domain.JournalEntryLine, scale int32) (debits, credits domain.Money) {
	debits = domain.ZeroMoney(scale)
	credits = domain.ZeroMoney(scale)
	for _, line := range lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	return debits, credits
}

// SignedAmount nets a line against an account's normal balance side: a line
// on the normal side increases the balance, the opposite side decreases it.
func SignedAmount(line domain.JournalEntryLine, normalSide domain.BalanceSide) domain.Money {
	if normalSide == domain.DebitSide {
		return line.Debit.Sub(line.Credit)
	}
	return line.Credit.Sub(line.Debit)
}

// NetBalance folds SignedAmount over a line history, the sole authoritative
// way to derive an account balance.
func NetBalance(lines []domain.JournalEntryLine, normalSide domain.BalanceSide, scale int32) domain.Money {
	balance := domain.ZeroMoney(scale)
	for _, line := range lines {
		balance = balance.Add(SignedAmount(line, normalSide))
	}
	return balance
}
