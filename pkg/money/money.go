// Package money provides fixed-point monetary amounts with a 2-digit scale.
// Amounts are stored as int64 minor units (paise for INR). No float64 is
// involved anywhere; values cross API boundaries as 2-decimal strings.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor units (hundredths).
type Money int64

var (
	ErrInvalidAmount = errors.New("invalid money amount")
)

// FromMinor builds a Money from a count of minor units.
func FromMinor(units int64) Money {
	return Money(units)
}

// Parse converts a decimal string like "123.45", "123.4" or "123" into Money.
// More than 2 fractional digits is an error, not a rounding.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	// Only digits past the optional leading sign. ParseInt would accept a
	// second sign here and re-sign the fraction.
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than 2 fractional digits in %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	units := w*100 + f
	if neg {
		units = -units
	}
	return Money(units), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Minor returns the raw count of minor units.
func (m Money) Minor() int64 { return int64(m) }

// String formats the amount with exactly 2 fractional digits.
func (m Money) String() string {
	units := int64(m)
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

func (m Money) Add(other Money) Money { return m + other }
func (m Money) Sub(other Money) Money { return m - other }
func (m Money) Neg() Money            { return -m }

// DivRound divides by n, rounding half-up on the 2-digit scale.
func (m Money) DivRound(n int64) Money {
	return Money(divRoundHalfUp(int64(m), n))
}

// MulDivRound computes m*num/den rounded half-up. Used for percentage and
// per-share arithmetic without leaving integer space.
func (m Money) MulDivRound(num, den int64) Money {
	return Money(divRoundHalfUp(int64(m)*num, den))
}

// MulInt multiplies by an integer factor exactly.
func (m Money) MulInt(n int64) Money { return Money(int64(m) * n) }

// divRoundHalfUp rounds the quotient half away from zero, matching
// decimal HALF_UP on the 2-digit scale.
func divRoundHalfUp(num, den int64) int64 {
	if den < 0 {
		num, den = -num, -den
	}
	q := num / den
	r := num % den
	if r < 0 {
		if -r*2 >= den {
			q--
		}
	} else if r*2 >= den {
		q++
	}
	return q
}

// MarshalJSON encodes the amount as a 2-decimal string ("123.45").
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string or a bare JSON number with at
// most 2 fractional digits.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
