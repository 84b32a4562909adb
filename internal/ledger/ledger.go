// Package ledger holds the arithmetic shared by the shift, stock and
// supplier engines. Every figure a caller can observe (expected cash,
// variance, stock deltas, balance due) is derived here so the stores and
// the service cannot drift apart.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lodgepos/backoffice/internal/store"
)

// Mode is the stock adjustment mode for a single line.
type Mode string

const (
	ModeSet    Mode = "set"
	ModeAdd    Mode = "add"
	ModeRemove Mode = "remove"
)

// ParseMode validates a raw mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeSet, ModeAdd, ModeRemove:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("unknown adjustment mode %q: %w", raw, store.ErrValidation)
	}
}

// CheckQuantity validates a line quantity against its mode without looking
// at stock: set accepts zero, add and remove do not.
func CheckQuantity(mode Mode, quantity int) error {
	switch mode {
	case ModeSet:
		if quantity < 0 {
			return fmt.Errorf("set quantity must not be negative: %w", store.ErrValidation)
		}
	case ModeAdd:
		if quantity < 1 {
			return fmt.Errorf("add quantity must be positive: %w", store.ErrValidation)
		}
	case ModeRemove:
		if quantity < 1 {
			return fmt.Errorf("remove quantity must be positive: %w", store.ErrValidation)
		}
	default:
		return fmt.Errorf("unknown adjustment mode %q: %w", mode, store.ErrValidation)
	}
	return nil
}

// ApplyMode computes the signed change and the resulting stock for one
// adjustment line, given the stock observed inside the serialization
// boundary. The caller persists change and next exactly as returned; they
// are never recomputed later.
func ApplyMode(mode Mode, previous int, quantity int) (change int, next int, err error) {
	if previous < 0 {
		return 0, 0, fmt.Errorf("previous stock %d is negative: %w", previous, store.ErrValidation)
	}
	if err := CheckQuantity(mode, quantity); err != nil {
		return 0, 0, err
	}

	switch mode {
	case ModeSet:
		return quantity - previous, quantity, nil
	case ModeAdd:
		return quantity, previous + quantity, nil
	case ModeRemove:
		if quantity > previous {
			return 0, 0, fmt.Errorf("remove quantity %d exceeds current stock %d: %w", quantity, previous, store.ErrUnderflow)
		}
		return -quantity, previous - quantity, nil
	default:
		return 0, 0, fmt.Errorf("unknown adjustment mode %q: %w", mode, store.ErrValidation)
	}
}

// ExpectedCash is the drawer content a perfectly balanced shift closes with.
func ExpectedCash(startCash, totalSales, totalExpenses decimal.Decimal) decimal.Decimal {
	return startCash.Add(totalSales).Sub(totalExpenses)
}

// Difference is the counted-minus-expected variance recorded at close.
func Difference(actual, expected decimal.Decimal) decimal.Decimal {
	return actual.Sub(expected)
}

const (
	OutcomeBalanced = "balanced"
	OutcomeOver     = "over"
	OutcomeShort    = "short"
)

// CashOutcome keeps an exact-zero difference distinct from over and short.
func CashOutcome(difference decimal.Decimal) string {
	switch {
	case difference.IsZero():
		return OutcomeBalanced
	case difference.IsPositive():
		return OutcomeOver
	default:
		return OutcomeShort
	}
}

// BalanceDue is what the business still owes a supplier.
func BalanceDue(totalPurchases, totalPayments decimal.Decimal) decimal.Decimal {
	return totalPurchases.Sub(totalPayments)
}

const (
	VarianceNormal   = "normal"
	VarianceWarning  = "warning"
	VarianceCritical = "critical"
)

var (
	varianceWarnAbs     = decimal.NewFromInt(5)
	varianceCriticalAbs = decimal.NewFromInt(50)
	varianceWarnPct     = decimal.NewFromFloat(0.01)
	varianceCriticalPct = decimal.NewFromFloat(0.05)
)

// ClassifyVariance grades a shift difference against its expected cash.
// Thresholds trip on either the absolute variance or its share of the
// expected drawer, whichever is worse.
func ClassifyVariance(difference, expected decimal.Decimal) string {
	abs := difference.Abs()

	ratio := decimal.Zero
	if expected.IsPositive() {
		ratio = abs.Div(expected)
	}

	switch {
	case abs.GreaterThanOrEqual(varianceCriticalAbs) || ratio.GreaterThanOrEqual(varianceCriticalPct):
		return VarianceCritical
	case abs.GreaterThanOrEqual(varianceWarnAbs) || ratio.GreaterThanOrEqual(varianceWarnPct):
		return VarianceWarning
	default:
		return VarianceNormal
	}
}

// WorstVariance returns the more severe of two variance flags.
func WorstVariance(a, b string) string {
	if varianceRank(b) > varianceRank(a) {
		return b
	}
	return a
}

func varianceRank(flag string) int {
	switch flag {
	case VarianceCritical:
		return 2
	case VarianceWarning:
		return 1
	default:
		return 0
	}
}
