// ABOUTME: Form-boundary validation helpers
// ABOUTME: Rejects bad input locally before any store write is attempted
package actions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrConfirmationRequired is returned by delete actions invoked without
// the confirmation flag. No store write happens in that case.
var ErrConfirmationRequired = errors.New("deletion requires confirmation")

// ParseAmount parses a monetary text input. Non-numeric, NaN, infinite,
// and negative values are rejected here so they never reach the store.
// Amount sign is carried by the record type, never by the number.
func ParseAmount(input string) (float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be a number: %q", input)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount must be finite: %q", input)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount must not be negative: %q", input)
	}
	return amount, nil
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
