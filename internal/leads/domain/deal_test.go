package domain

import (
	"testing"
	"time"
)

func TestValidateDealCloseWon(t *testing.T) {
	close := DealClose{
		Outcome:         OutcomeWon,
		FinalValue:      250000,
		ActualCloseDate: "2024-06-01",
		WinReason:       "best-fit",
		PaymentTerms:    "net-30",
		ContractLength:  "12-months",
	}

	if violations := ValidateDealClose(close); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestValidateDealCloseWonMissingFields(t *testing.T) {
	close := DealClose{
		Outcome:         OutcomeWon,
		FinalValue:      1000,
		ActualCloseDate: "2024-06-01",
	}

	violations := ValidateDealClose(close)
	for _, field := range []string{"winReason", "paymentTerms", "contractLength"} {
		if violations[field] == "" {
			t.Errorf("expected violation for %q, got %v", field, violations)
		}
	}
}

func TestValidateDealCloseLostCollectsAllViolations(t *testing.T) {
	close := DealClose{
		Outcome:         OutcomeLost,
		FinalValue:      0,
		ActualCloseDate: "2024-06-01",
	}

	violations := ValidateDealClose(close)
	if violations["finalValue"] == "" {
		t.Errorf("expected violation for finalValue, got %v", violations)
	}
	if violations["lossReason"] == "" {
		t.Errorf("expected violation for lossReason, got %v", violations)
	}
}

func TestValidateDealCloseBadDate(t *testing.T) {
	close := DealClose{
		Outcome:         OutcomeLost,
		FinalValue:      500,
		ActualCloseDate: "June 1st",
		LossReason:      "budget",
	}

	if violations := ValidateDealClose(close); violations["actualCloseDate"] == "" {
		t.Errorf("expected violation for actualCloseDate, got %v", violations)
	}
}

func TestContractLengthMonths(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"12-months", 12},
		{"24 months", 24},
		{"6mo", 6},
		{"annual", 12},
		{"", 12},
		{"0-months", 12},
		{" 36-months ", 36},
	}

	for _, tc := range tests {
		if got := ContractLengthMonths(tc.input); got != tc.want {
			t.Errorf("ContractLengthMonths(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestRenewalDate(t *testing.T) {
	closeDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got := RenewalDate(closeDate, "12-months")
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("RenewalDate(2024-06-01, 12-months) = %v, want %v", got, want)
	}

	got = RenewalDate(closeDate, "18-months")
	want = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("RenewalDate(2024-06-01, 18-months) = %v, want %v", got, want)
	}
}
