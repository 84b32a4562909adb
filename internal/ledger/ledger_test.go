package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"lodgepos/backoffice/internal/store"
)

func TestParseModeAcceptsKnownModesOnly(t *testing.T) {
	for _, raw := range []string{"set", "add", "remove"} {
		mode, err := ParseMode(raw)
		if err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
		if string(mode) != raw {
			t.Fatalf("expected mode %q, got %q", raw, mode)
		}
	}

	if _, err := ParseMode("increment"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown mode, got %v", err)
	}
}

func TestApplyModeSetComputesDeltaAgainstPrevious(t *testing.T) {
	change, next, err := ApplyMode(ModeSet, 20, 12)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if change != -8 || next != 12 {
		t.Fatalf("expected change -8 next 12, got change %d next %d", change, next)
	}
}

func TestApplyModeSetToCurrentValueYieldsZeroChange(t *testing.T) {
	change, next, err := ApplyMode(ModeSet, 15, 15)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if change != 0 || next != 15 {
		t.Fatalf("expected a zero-change line, got change %d next %d", change, next)
	}
}

func TestApplyModeSetRejectsNegativeQuantity(t *testing.T) {
	if _, _, err := ApplyMode(ModeSet, 10, -1); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyModeAddIncreasesStock(t *testing.T) {
	change, next, err := ApplyMode(ModeAdd, 10, 5)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if change != 5 || next != 15 {
		t.Fatalf("expected change 5 next 15, got change %d next %d", change, next)
	}

	if _, _, err := ApplyMode(ModeAdd, 10, 0); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero add, got %v", err)
	}
}

func TestApplyModeRemoveDecreasesStock(t *testing.T) {
	change, next, err := ApplyMode(ModeRemove, 20, 5)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if change != -5 || next != 15 {
		t.Fatalf("expected change -5 next 15, got change %d next %d", change, next)
	}
}

func TestApplyModeRemoveBeyondStockIsUnderflow(t *testing.T) {
	_, _, err := ApplyMode(ModeRemove, 20, 25)
	if !errors.Is(err, store.ErrUnderflow) {
		t.Fatalf("expected underflow error, got %v", err)
	}

	change, next, err := ApplyMode(ModeRemove, 20, 20)
	if err != nil {
		t.Fatalf("remove to exactly zero should pass, got %v", err)
	}
	if change != -20 || next != 0 {
		t.Fatalf("expected change -20 next 0, got change %d next %d", change, next)
	}
}

func TestExpectedCashAndDifference(t *testing.T) {
	expected := ExpectedCash(dec("100.00"), dec("500.00"), dec("50.00"))
	if !expected.Equal(dec("550.00")) {
		t.Fatalf("expected 550.00, got %s", expected)
	}

	difference := Difference(dec("550.00"), expected)
	if !difference.IsZero() {
		t.Fatalf("expected zero difference, got %s", difference)
	}

	short := Difference(dec("540.00"), expected)
	if !short.Equal(dec("-10.00")) {
		t.Fatalf("expected -10.00, got %s", short)
	}
}

func TestCashOutcomeKeepsBalancedDistinct(t *testing.T) {
	if got := CashOutcome(decimal.Zero); got != OutcomeBalanced {
		t.Fatalf("expected balanced, got %q", got)
	}
	if got := CashOutcome(dec("0.01")); got != OutcomeOver {
		t.Fatalf("expected over, got %q", got)
	}
	if got := CashOutcome(dec("-0.01")); got != OutcomeShort {
		t.Fatalf("expected short, got %q", got)
	}
}

func TestBalanceDueIsPurchasesMinusPayments(t *testing.T) {
	due := BalanceDue(dec("300.00"), dec("150.00"))
	if !due.Equal(dec("150.00")) {
		t.Fatalf("expected 150.00, got %s", due)
	}

	credit := BalanceDue(dec("100.00"), dec("120.00"))
	if !credit.Equal(dec("-20.00")) {
		t.Fatalf("expected -20.00 credit, got %s", credit)
	}
}

func TestClassifyVarianceThresholds(t *testing.T) {
	if got := ClassifyVariance(dec("2.00"), dec("1000.00")); got != VarianceNormal {
		t.Fatalf("expected normal, got %q", got)
	}
	if got := ClassifyVariance(dec("-10.00"), dec("5000.00")); got != VarianceWarning {
		t.Fatalf("expected warning on absolute threshold, got %q", got)
	}
	if got := ClassifyVariance(dec("2.00"), dec("100.00")); got != VarianceWarning {
		t.Fatalf("expected warning on relative threshold, got %q", got)
	}
	if got := ClassifyVariance(dec("-60.00"), dec("5000.00")); got != VarianceCritical {
		t.Fatalf("expected critical, got %q", got)
	}
	if got := ClassifyVariance(decimal.Zero, decimal.Zero); got != VarianceNormal {
		t.Fatalf("expected normal for empty shift, got %q", got)
	}
}

func TestWorstVariancePicksHigherSeverity(t *testing.T) {
	if got := WorstVariance(VarianceNormal, VarianceCritical); got != VarianceCritical {
		t.Fatalf("expected critical, got %q", got)
	}
	if got := WorstVariance(VarianceWarning, VarianceNormal); got != VarianceWarning {
		t.Fatalf("expected warning, got %q", got)
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
