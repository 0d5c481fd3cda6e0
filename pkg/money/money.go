package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a rupee amount with proper financial precision
type Money struct {
	decimal.Decimal
}

// New creates a Money from a whole-rupee integer
func New(rupees int64) Money {
	return Money{decimal.NewFromInt(rupees)}
}

// FromDecimal wraps a decimal.Decimal
func FromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Parse creates a Money from a string such as "150000" or "2500.50"
func Parse(value string) (Money, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// Floor truncates to whole rupees toward negative infinity
func (m Money) Floor() Money {
	return Money{m.Decimal.Floor()}
}

// Round rounds to paise using banker's rounding
func (m Money) Round() Money {
	return Money{m.Decimal.RoundBank(2)}
}

// Monthly converts an annual amount to monthly
func (m Money) Monthly() Money {
	return Money{m.Decimal.Div(decimal.NewFromInt(12))}
}

// Annual converts a monthly amount to annual
func (m Money) Annual() Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(12))}
}

// Add adds another Money amount
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub subtracts another Money amount
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// String returns the plain representation with two decimals
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}

// Format renders the amount with the rupee sign and Indian digit grouping,
// e.g. ₹12,34,567. Paise are shown only when non-zero.
func (m Money) Format() string {
	return "₹" + Group(m.Decimal)
}

// Group renders d with Indian digit grouping (last three digits, then pairs)
func Group(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	whole := d.Truncate(0)
	frac := d.Sub(whole)
	digits := whole.String()

	var b strings.Builder
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		for i, r := range head {
			if i > 0 && (len(head)-i)%2 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(r)
		}
		b.WriteByte(',')
		b.WriteString(tail)
	} else {
		b.WriteString(digits)
	}

	if !frac.IsZero() {
		b.WriteString(frac.StringFixed(2)[1:])
	}
	return sign + b.String()
}

// Zero returns a zero Money amount
func Zero() Money {
	return Money{decimal.Zero}
}
