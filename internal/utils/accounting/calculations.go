package accounting

import (
	"fmt"

	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceEpsilon is the tolerance for exact-balance comparisons, expressed
// in the base currency's minor unit.
var BalanceEpsilon = decimal.RequireFromString("0.01")

// EntryBalanceDelta returns the effect of one entry on its account's running
// balance: debits add, credits subtract. The balance convention is
// balance = sum(debits) - sum(credits); normal-balance interpretation is
// left to callers reading the account type.
func EntryBalanceDelta(entry domain.LedgerEntry) decimal.Decimal {
	if entry.Side == domain.Credit {
		return entry.Amount.Neg()
	}
	return entry.Amount
}

// BalanceDifference sums the entries' base amounts per side and returns the
// signed difference: debit total minus credit total in base currency.
func BalanceDifference(entries []domain.LedgerEntry) decimal.Decimal {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, e := range entries {
		if e.Side == domain.Debit {
			debits = debits.Add(e.BaseAmount)
		} else {
			credits = credits.Add(e.BaseAmount)
		}
	}
	return debits.Sub(credits)
}

// ValidateEntries checks the structural constraints of a transaction's
// entries: at least two lines, each with a positive amount and a positive
// exchange rate, at least one debit and one credit.
func ValidateEntries(entries []domain.LedgerEntry) error {
	if len(entries) < 2 {
		return fmt.Errorf("transaction must have at least two ledger entries")
	}

	hasDebit := false
	hasCredit := false
	for _, e := range entries {
		if e.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("entry amount must be positive for account %s", e.AccountID)
		}
		if e.ExchangeRate.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("entry exchange rate must be positive for account %s", e.AccountID)
		}
		switch e.Side {
		case domain.Debit:
			hasDebit = true
		case domain.Credit:
			hasCredit = true
		default:
			return fmt.Errorf("unknown entry side %q for account %s", e.Side, e.AccountID)
		}
	}
	if !hasDebit || !hasCredit {
		return fmt.Errorf("transaction must contain at least one debit and one credit entry")
	}
	return nil
}

// IsBalanced reports whether the signed difference is within the epsilon.
func IsBalanced(difference decimal.Decimal) bool {
	return difference.Abs().LessThan(BalanceEpsilon)
}

// DebitTotal computes the debit-side base-currency total, the economic
// value of a balanced transaction.
func DebitTotal(entries []domain.LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Side == domain.Debit {
			total = total.Add(e.BaseAmount)
		}
	}
	return total
}

// ComputeGap derives the reconciliation gap from the session balances and
// the cleared items. The calculated balance is book-derived: only cleared
// ledger entries contribute. Clearing a bank-side feed row marks it matched
// without moving the balance, so a matched book/bank pair counts once.
// Pure: identical inputs always yield identical output.
func ComputeGap(openingBalance, statementBalance decimal.Decimal, clearedItems []domain.ClearableItem) domain.Gap {
	deposits := decimal.Zero
	withdrawals := decimal.Zero
	for _, item := range clearedItems {
		if item.ItemType != domain.ItemTypeEntry {
			continue
		}
		if item.Direction == domain.DirectionDeposit {
			deposits = deposits.Add(item.Amount)
		} else {
			withdrawals = withdrawals.Add(item.Amount)
		}
	}

	calculated := openingBalance.Add(deposits).Sub(withdrawals)
	difference := calculated.Sub(statementBalance)
	return domain.Gap{
		OpeningBalance:     openingBalance,
		ClearedDeposits:    deposits,
		ClearedWithdrawals: withdrawals,
		CalculatedBalance:  calculated,
		StatementBalance:   statementBalance,
		Difference:         difference,
		IsBalanced:         IsBalanced(difference),
	}
}
