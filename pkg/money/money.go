package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal currency value. All arithmetic goes through
// shopspring/decimal so repeated additions never accumulate float drift.
// Amounts map to numeric(12,2) columns and are rounded to two places on
// construction.
type Amount struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// FromDecimal wraps an existing decimal, rounded to two places.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{value: d.Round(2)}
}

// FromString parses a decimal string such as "1250.50".
func FromString(raw string) (Amount, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return FromDecimal(d), nil
}

// FromFloat converts a float input (JSON numbers) to an exact amount.
// The value is rounded to two places immediately so downstream
// arithmetic is float-free.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// FromInt builds an amount from whole currency units.
func FromInt(units int64) Amount {
	return Amount{value: decimal.NewFromInt(units)}
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

func (a Amount) Sub(other Amount) Amount {
	return Amount{value: a.value.Sub(other.value)}
}

// MulInt scales the amount by a whole quantity.
func (a Amount) MulInt(qty int64) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromInt(qty))}
}

func (a Amount) Cmp(other Amount) int {
	return a.value.Cmp(other.value)
}

func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

func (a Amount) LessThan(other Amount) bool {
	return a.value.LessThan(other.value)
}

func (a Amount) GreaterThan(other Amount) bool {
	return a.value.GreaterThan(other.value)
}

// GreaterThanOrEqual reports a >= other.
func (a Amount) GreaterThanOrEqual(other Amount) bool {
	return a.value.GreaterThanOrEqual(other.value)
}

func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

func (a Amount) IsNegative() bool {
	return a.value.IsNegative()
}

// String renders the amount with two decimal places.
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

// MarshalJSON renders the amount as a JSON number with two places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.StringFixed(2)), nil
}

// UnmarshalJSON accepts both quoted and bare decimal values.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	a.value = d.Round(2)
	return nil
}

// Value implements driver.Valuer so Amount maps onto numeric columns.
func (a Amount) Value() (driver.Value, error) {
	return a.value.Value()
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return err
	}
	a.value = d
	return nil
}
