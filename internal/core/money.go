// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from form strings
// and formatting them with a currency symbol and thousands separators.
package core

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money is an amount in hundredths of the currency unit.
type Money struct {
	Cents int64
}

// Units builds Money from a whole number of currency units.
func Units(n int64) Money {
	return Money{Cents: n * 100}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsZero() bool     { return m.Cents == 0 }

// Max returns the larger of m and o.
func (m Money) Max(o Money) Money {
	if o.Cents > m.Cents {
		return o
	}
	return m
}

// Float returns the amount in currency units for charting.
// Use Cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the exact amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// MaxAmount is the largest accepted single amount, 10^13 currency units.
// Income plus every category stays far inside int64 cents.
var MaxAmount = Money{Cents: 1e15}

// ParseAmount converts a form value to Money.
//
// Empty input is zero. The decimal separator is a dot and the third decimal
// place is rounded half-up. Commas are accepted only as digit grouping in the
// integer part, in either 1,234,567 or 12,34,567 style. Negative values,
// amounts above MaxAmount and anything that is not a plain decimal number
// are rejected.
//
// Examples:
//
//	ParseAmount("50000")     -> Money{5000000}, nil
//	ParseAmount("50,000")    -> Money{5000000}, nil
//	ParseAmount("12.345")    -> Money{1235}, nil
//	ParseAmount("")          -> Money{0}, nil
//	ParseAmount("1,23")      -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	if strings.HasPrefix(s, "-") {
		return Money{}, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart, err := ungroup(parts[0])
	if err != nil {
		return Money{}, err
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return Money{}, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > MaxAmount.Cents/100 {
		return Money{}, ErrAmountTooLarge
	}

	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	m := Money{Cents: iv*100 + fracCents}
	if m.Cents > MaxAmount.Cents {
		return Money{}, ErrAmountTooLarge
	}
	return m, nil
}

// ungroup strips grouping commas. The leading group has 1-3 digits, the last
// exactly 3 and any middle group 2 or 3.
func ungroup(s string) (string, error) {
	if !strings.Contains(s, ",") {
		return s, nil
	}
	groups := strings.Split(s, ",")
	for i, g := range groups {
		var ok bool
		switch {
		case i == 0:
			ok = len(g) >= 1 && len(g) <= 3
		case i == len(groups)-1:
			ok = len(g) == 3
		default:
			ok = len(g) == 2 || len(g) == 3
		}
		if !ok {
			return "", ErrInvalidAmount
		}
	}
	return strings.Join(groups, ""), nil
}

// isDigits reports whether s holds only ASCII digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders m rounded to whole units with thousands separators,
// e.g. FormatAmount("₹", Units(50000)) == "₹50,000".
func FormatAmount(symbol string, m Money) string {
	return symbol + humanize.Comma(m.roundedUnits())
}

// roundedUnits rounds half away from zero.
func (m Money) roundedUnits() int64 {
	if m.Cents < 0 {
		return -((-m.Cents + 50) / 100)
	}
	return (m.Cents + 50) / 100
}
