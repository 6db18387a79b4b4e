package domain

import (
	"strconv"
	"strings"
	"time"
)

// Outcome is the terminal result of a BOFU deal.
type Outcome string

const (
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// defaultContractMonths is used when the contract length has no leading
// integer month count.
const defaultContractMonths = 12

// DealClose carries the fields captured when a BOFU deal is closed.
// ActualCloseDate uses the wire format "2006-01-02".
type DealClose struct {
	Outcome         Outcome
	FinalValue      float64
	ActualCloseDate string
	WinReason       string
	PaymentTerms    string
	ContractLength  string
	LossReason      string
}

// ValidateDealClose checks all close fields at once and returns the full
// field-keyed violation map, empty when the close is valid. Validation never
// stops at the first violation; the UI renders all of them together.
func ValidateDealClose(close DealClose) map[string]string {
	violations := map[string]string{}

	if close.Outcome != OutcomeWon && close.Outcome != OutcomeLost {
		violations["outcome"] = "must be won or lost"
	}
	if close.FinalValue <= 0 {
		violations["finalValue"] = "must be greater than zero"
	}
	if strings.TrimSpace(close.ActualCloseDate) == "" {
		violations["actualCloseDate"] = "required"
	} else if _, err := time.Parse("2006-01-02", close.ActualCloseDate); err != nil {
		violations["actualCloseDate"] = "must be a date in YYYY-MM-DD format"
	}

	switch close.Outcome {
	case OutcomeWon:
		if strings.TrimSpace(close.WinReason) == "" {
			violations["winReason"] = "required"
		}
		if strings.TrimSpace(close.PaymentTerms) == "" {
			violations["paymentTerms"] = "required"
		}
		if strings.TrimSpace(close.ContractLength) == "" {
			violations["contractLength"] = "required"
		}
	case OutcomeLost:
		if strings.TrimSpace(close.LossReason) == "" {
			violations["lossReason"] = "required"
		}
	}

	return violations
}

// ContractLengthMonths parses the leading integer of a contract length label
// ("12-months", "24 mo") as a month count, defaulting to 12 when the label
// has no leading digits.
func ContractLengthMonths(contractLength string) int {
	trimmed := strings.TrimSpace(contractLength)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return defaultContractMonths
	}
	months, err := strconv.Atoi(trimmed[:end])
	if err != nil || months <= 0 {
		return defaultContractMonths
	}
	return months
}

// RenewalDate derives the renewal date of a won deal from its close date and
// contract length. The result is recomputed whenever either input changes.
func RenewalDate(actualCloseDate time.Time, contractLength string) time.Time {
	return actualCloseDate.AddDate(0, ContractLengthMonths(contractLength), 0)
}
