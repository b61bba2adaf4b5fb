package token

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Token identifies a supported asset and its base-unit scale. Every amount
// that reaches a write route must already be an integer string in the token's
// base unit; display values exist only at the edges.
type Token struct {
	Symbol   string
	Decimals int32
}

var (
	// USDC is the dollar-pegged betting token.
	USDC = Token{Symbol: "USDC", Decimals: 6}
	// VEX is the reward/governance token used for staking.
	VEX = Token{Symbol: "VEX", Decimals: 18}
	// Native is the chain's gas token, denominated in yocto units.
	Native = Token{Symbol: "NATIVE", Decimals: 24}
)

// ErrInvalidAmount is returned for amounts that are not positive decimal
// numbers within the token's precision.
type ErrInvalidAmount struct {
	Input  string
	Reason string
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// ToBaseUnits converts a display amount like "10.50" into the integer base
// unit string ("10500000" for USDC). The input must be strictly positive and
// must not carry more fractional digits than the token supports.
func ToBaseUnits(display string, tok Token) (string, error) {
	display = strings.TrimSpace(display)
	d, err := decimal.NewFromString(display)
	if err != nil {
		return "", &ErrInvalidAmount{Input: display, Reason: "not a number"}
	}

	if d.LessThanOrEqual(decimal.Zero) {
		return "", &ErrInvalidAmount{Input: display, Reason: "must be greater than zero"}
	}

	if d.Exponent() < -tok.Decimals {
		return "", &ErrInvalidAmount{
			Input:  display,
			Reason: fmt.Sprintf("exceeds %s precision of %d decimals", tok.Symbol, tok.Decimals),
		}
	}

	return d.Shift(tok.Decimals).String(), nil
}

// FromBaseUnits converts an integer base-unit string back into a display
// amount with two decimal places ("1000000000000000000" VEX -> "1.00").
func FromBaseUnits(raw string, tok Token) (string, error) {
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", &ErrInvalidAmount{Input: raw, Reason: "not a number"}
	}

	if d.Exponent() < 0 {
		return "", &ErrInvalidAmount{Input: raw, Reason: "base unit amounts must be integers"}
	}

	return d.Shift(-tok.Decimals).StringFixed(2), nil
}

// ValidateBaseAmount checks that raw is a positive base-unit integer no larger
// than the configured cap (cap given in display units; empty cap disables the
// check). Used by write routes before any network call is attempted.
func ValidateBaseAmount(raw string, tok Token, displayCap string) error {
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return &ErrInvalidAmount{Input: raw, Reason: "not a number"}
	}

	if d.Exponent() < 0 || !d.Equal(d.Truncate(0)) {
		return &ErrInvalidAmount{Input: raw, Reason: "must be an integer base unit amount"}
	}

	if d.LessThanOrEqual(decimal.Zero) {
		return &ErrInvalidAmount{Input: raw, Reason: "must be greater than zero"}
	}

	if displayCap != "" {
		cap, err := decimal.NewFromString(displayCap)
		if err == nil && d.GreaterThan(cap.Shift(tok.Decimals)) {
			return &ErrInvalidAmount{Input: raw, Reason: fmt.Sprintf("exceeds maximum of %s %s", displayCap, tok.Symbol)}
		}
	}

	return nil
}
