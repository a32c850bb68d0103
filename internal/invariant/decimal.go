package invariant

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Precision is the number of decimal places Div and Mul round to.
const Precision int32 = 40

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Div divides a by b, rounding half away from zero at Precision places.
// b must not be zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, Precision)
}

// Mul multiplies a by b and rounds the product to Precision places.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(Precision)
}

// Sum adds up values. An empty slice sums to zero.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Product multiplies values together. An empty slice yields one.
func Product(values []decimal.Decimal) decimal.Decimal {
	prod := one
	for _, v := range values {
		prod = Mul(prod, v)
	}
	return prod
}

// AddEach returns a[i] + b[i] for every index. Both slices must have the same length.
func AddEach(a, b []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// SubEach returns a[i] - b[i] for every index. Both slices must have the same length.
func SubEach(a, b []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i])
	}
	return out
}

// Scale multiplies every value by factor.
func Scale(factor decimal.Decimal, values []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = Mul(factor, v)
	}
	return out
}

// Without returns a copy of values with the entry at index removed.
func Without(values []decimal.Decimal, index int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values)-1)
	for i, v := range values {
		if i != index {
			out = append(out, v)
		}
	}
	return out
}

// NopLogger returns a logger that discards everything written to it.
func NopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
