package repository

import (
	"testing"
	"time"
)

func TestCloseExtraCarriesAllDealFields(t *testing.T) {
	winReason := "best integration story"
	terms := "net 30"
	length := "18 months"
	renewal := time.Date(2027, 9, 15, 0, 0, 0, 0, time.UTC)

	extra := closeExtra(CloseDealParams{
		Outcome:        "won",
		FinalValue:     24000,
		CloseDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		WinReason:      &winReason,
		PaymentTerms:   &terms,
		ContractLength: &length,
		RenewalDate:    &renewal,
	})

	want := map[string]interface{}{
		"outcome":        "won",
		"finalValue":     24000.0,
		"closeDate":      "2026-03-15",
		"winReason":      winReason,
		"paymentTerms":   terms,
		"contractLength": length,
		"renewalDate":    "2027-09-15",
	}
	for key, value := range want {
		if got, ok := extra[key]; !ok || got != value {
			t.Errorf("extra[%q] = %v, want %v", key, got, value)
		}
	}
}

func TestCloseExtraOmitsAbsentFields(t *testing.T) {
	lossReason := "went with incumbent"

	extra := closeExtra(CloseDealParams{
		Outcome:    "lost",
		FinalValue: 5000,
		CloseDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		LossReason: &lossReason,
	})

	if got := extra["lossReason"]; got != lossReason {
		t.Errorf("lossReason = %v, want %q", got, lossReason)
	}
	for _, key := range []string{"winReason", "paymentTerms", "contractLength", "renewalDate"} {
		if _, ok := extra[key]; ok {
			t.Errorf("extra[%q] present on a lost deal without it", key)
		}
	}
}
