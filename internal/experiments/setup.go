// Package experiments composes pool operations into side-by-side comparisons
// used to check that the fee accounting behaves consistently: splitting an
// operation, routing it differently or reversing it should not be a way to
// save fees.
package experiments

import (
	"fmt"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Setup describes the pool every scenario starts from.
type Setup struct {
	Balances []decimal.Decimal
	Params   pool.Params
	Logger   logrus.FieldLogger
}

// DefaultSetup is a three-token pool seeded with 150/100/50 at A = 1.313,
// a 10% LP fee and a 20% governance fee. The fees are exaggerated on purpose
// so that differences show up in the first decimals.
func DefaultSetup() Setup {
	return Setup{
		Balances: []decimal.Decimal{
			decimal.NewFromInt(150),
			decimal.NewFromInt(100),
			decimal.NewFromInt(50),
		},
		Params: pool.Params{
			TokenCount:    3,
			AmpFactor:     decimal.RequireFromString("1.313"),
			LPFee:         decimal.RequireFromString("0.10"),
			GovernanceFee: decimal.RequireFromString("0.20"),
			Tolerance:     decimal.New(5, -9),
			MaxIterations: 50,
		},
	}
}

// NewPool creates a pool and makes the initial deposit.
func (s Setup) NewPool() (*pool.Pool, error) {
	if len(s.Balances) != s.Params.TokenCount {
		return nil, fmt.Errorf("%w: %d balances for %d tokens", pool.ErrInvalidInput, len(s.Balances), s.Params.TokenCount)
	}
	p, err := pool.New(s.Params, pool.WithLogger(s.logger()))
	if err != nil {
		return nil, err
	}
	if _, err := p.Add(s.Balances, decimal.Zero); err != nil {
		return nil, fmt.Errorf("seed pool: %w", err)
	}
	return p, nil
}

// WithoutFees returns a copy of s with both fees set to zero.
func (s Setup) WithoutFees() Setup {
	s.Params.LPFee = decimal.Zero
	s.Params.GovernanceFee = decimal.Zero
	return s
}

func (s Setup) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return invariant.NopLogger()
	}
	return s.Logger
}

func (s Setup) totalFee() decimal.Decimal {
	return s.Params.LPFee.Add(s.Params.GovernanceFee)
}

// Row is one operation of a comparison.
type Row struct {
	Label          string
	Amount         decimal.Decimal
	GovernanceMint decimal.Decimal
}

// Comparison is the outcome of running two ways of reaching the same goal.
// The differences are computed so that a non-negative value means the
// fee accounting held up (see each scenario for the exact definition).
type Comparison struct {
	Name                 string
	Rows                 []Row
	AmountDifference     decimal.Decimal
	GovernanceDifference decimal.Decimal
}

func (c *Comparison) add(label string, res pool.Result) {
	c.Rows = append(c.Rows, Row{Label: label, Amount: res.Amount, GovernanceMint: res.GovernanceMint})
}

func only(tokenCount, index int, amount decimal.Decimal) []decimal.Decimal {
	amounts := make([]decimal.Decimal, tokenCount)
	for i := range amounts {
		amounts[i] = decimal.Zero
	}
	amounts[index] = amount
	return amounts
}

func sumResults(results ...pool.Result) pool.Result {
	total := pool.Result{Amount: decimal.Zero, GovernanceMint: decimal.Zero}
	for _, r := range results {
		total.Amount = total.Amount.Add(r.Amount)
		total.GovernanceMint = total.GovernanceMint.Add(r.GovernanceMint)
	}
	return total
}
