package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Cents is a signed amount of money in integer minor units. All payroll
// aggregation happens on Cents; conversion to dollars only happens at the
// edges (JSON, spreadsheets, messages).
type Cents int64

// FromDollars converts a dollar amount to Cents, rounding half away from zero.
func FromDollars(amount float64) Cents {
	return Cents(decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart())
}

// Parse reads a human dollar amount such as "1,234.50", "$12" or "-3.3".
func Parse(value string) (Cents, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return Cents(d.Shift(2).Round(0).IntPart()), nil
}

// Decimal returns the dollar value as an exact decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Dollars returns the dollar value. Use only for display or export.
func (c Cents) Dollars() float64 {
	return c.Decimal().InexactFloat64()
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// USD formats the amount for messages, sign ahead of the symbol: -$15.00.
func (c Cents) USD() string {
	if c < 0 {
		return "-$" + (-c).String()
	}
	return "$" + c.String()
}

// Times multiplies by a (possibly fractional) quantity and rounds once to the
// nearest cent.
func (c Cents) Times(quantity float64) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(decimal.NewFromFloat(quantity)).Round(0).IntPart())
}

// Share returns quantity x percent% of c, rounded once to the nearest cent.
func (c Cents) Share(quantity, percent float64) Cents {
	product := decimal.NewFromInt(int64(c)).
		Mul(decimal.NewFromFloat(quantity)).
		Mul(decimal.NewFromFloat(percent)).
		Div(hundred)
	return Cents(product.Round(0).IntPart())
}

// DivRound divides by n and rounds to the nearest cent. Division by zero yields zero.
func (c Cents) DivRound(n int) Cents {
	if n == 0 {
		return 0
	}
	return Cents(decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(int64(n))).Round(0).IntPart())
}

// Sum adds amounts without leaving integer space.
func Sum(values ...Cents) Cents {
	var total Cents
	for _, v := range values {
		total += v
	}
	return total
}

// Min returns the smaller amount.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// MarshalJSON renders the amount as a fixed two-decimal JSON number.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or string in dollars.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "null" {
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Ptr returns a pointer to a copy of c; handy for optional overrides.
func Ptr(c Cents) *Cents {
	return &c
}
