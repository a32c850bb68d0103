package pool

import (
	"fmt"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// Pool is an in-memory multi-token pool priced by the depth invariant.
//
// A Pool is not safe for concurrent use. Every operation either commits all
// of its changes or none of them.
type Pool struct {
	params   Params
	totalFee decimal.Decimal
	solver   *invariant.Solver
	log      logrus.FieldLogger

	balances []decimal.Decimal
	lpSupply decimal.Decimal
	// depth of balances, refreshed on every commit
	depth decimal.Decimal
}

type Option func(*Pool)

// WithLogger routes pool and solver logs to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates an empty pool. It holds no liquidity until the first Add.
func New(params Params, opts ...Option) (*Pool, error) {
	if params.Tolerance.IsZero() {
		params.Tolerance = DefaultTolerance
	}
	if params.MaxIterations == 0 {
		params.MaxIterations = DefaultMaxIterations
	}
	if err := validateFee("lp fee", params.LPFee); err != nil {
		return nil, err
	}
	if err := validateFee("governance fee", params.GovernanceFee); err != nil {
		return nil, err
	}
	totalFee := params.LPFee.Add(params.GovernanceFee)
	if totalFee.GreaterThanOrEqual(one) {
		return nil, fmt.Errorf("%w: total fee must be in [0, 1), got %s", ErrInvalidInput, totalFee)
	}

	p := &Pool{
		params:   params,
		totalFee: totalFee,
		log:      invariant.NopLogger(),
		lpSupply: zero,
		depth:    zero,
	}
	for _, opt := range opts {
		opt(p)
	}

	solver, err := invariant.NewSolver(params.TokenCount, params.AmpFactor, params.Tolerance, params.MaxIterations, p.log)
	if err != nil {
		return nil, err
	}
	p.solver = solver
	p.balances = make([]decimal.Decimal, params.TokenCount)
	for i := range p.balances {
		p.balances[i] = zero
	}
	return p, nil
}

func validateFee(name string, fee decimal.Decimal) error {
	if fee.IsNegative() || fee.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: %s must be in [0, 1), got %s", ErrInvalidInput, name, fee)
	}
	return nil
}

// Clone returns an independent copy of the pool.
func (p *Pool) Clone() *Pool {
	c := *p
	c.balances = append([]decimal.Decimal(nil), p.balances...)
	return &c
}

// WithAmpFactor returns an independent copy of the pool priced with a
// different amplification factor. Balances and LP supply are unchanged; the
// depth is re-evaluated under the new curve.
func (p *Pool) WithAmpFactor(ampFactor decimal.Decimal) (*Pool, error) {
	solver, err := invariant.NewSolver(p.params.TokenCount, ampFactor, p.params.Tolerance, p.params.MaxIterations, p.log)
	if err != nil {
		return nil, err
	}
	c := p.Clone()
	c.solver = solver
	c.params.AmpFactor = ampFactor
	if c.isInitialized() {
		depth, err := solver.CalcDepth(c.balances, p.depth)
		if err != nil {
			return nil, err
		}
		c.depth = depth
	}
	return c, nil
}

func (p *Pool) TokenCount() int { return p.params.TokenCount }
func (p *Pool) AmpFactor() decimal.Decimal { return p.params.AmpFactor }
func (p *Pool) LPFee() decimal.Decimal { return p.params.LPFee }
func (p *Pool) GovernanceFee() decimal.Decimal { return p.params.GovernanceFee }
func (p *Pool) Tolerance() decimal.Decimal { return p.params.Tolerance }
func (p *Pool) MaxIterations() int { return p.params.MaxIterations }
func (p *Pool) LPSupply() decimal.Decimal { return p.lpSupply }

// TotalFee is the sum of the LP and governance fee rates.
func (p *Pool) TotalFee() decimal.Decimal { return p.totalFee }

// Depth is the invariant value of the current balances, zero for an empty pool.
func (p *Pool) Depth() decimal.Decimal { return p.depth }

// Balances returns a copy of the current reserves in token order.
func (p *Pool) Balances() []decimal.Decimal {
	return append([]decimal.Decimal(nil), p.balances...)
}

// Solver exposes the invariant solver the pool prices with.
func (p *Pool) Solver() *invariant.Solver { return p.solver }

func (p *Pool) isInitialized() bool { return p.lpSupply.IsPositive() }

func (p *Pool) hasFees() bool { return p.totalFee.IsPositive() }

func (p *Pool) governanceShare() decimal.Decimal {
	return invariant.Div(p.params.GovernanceFee, p.totalFee)
}

// governanceMint sizes the governance LP mint so that minting it does not
// change the depth per LP token of the other holders.
func (p *Pool) governanceMint(governanceDepth, lpSupply, depth decimal.Decimal) decimal.Decimal {
	if governanceDepth.IsZero() {
		return zero
	}
	appreciation := invariant.Div(lpSupply, depth.Sub(governanceDepth))
	return invariant.Mul(governanceDepth, appreciation)
}

func (p *Pool) requireInitialized() error {
	if !p.isInitialized() {
		return fmt.Errorf("%w: pool has no liquidity", ErrInvalidInput)
	}
	return nil
}

func (p *Pool) requireTokenIndex(i int) error {
	if i < 0 || i >= p.params.TokenCount {
		return fmt.Errorf("%w: token index %d out of range [0, %d)", ErrInvalidInput, i, p.params.TokenCount)
	}
	return nil
}

// requireAmounts checks a positional amounts vector.
func (p *Pool) requireAmounts(amounts []decimal.Decimal) error {
	if len(amounts) != p.params.TokenCount {
		return fmt.Errorf("%w: expected %d amounts, got %d", ErrInvalidInput, p.params.TokenCount, len(amounts))
	}
	for i, a := range amounts {
		if a.IsNegative() {
			return fmt.Errorf("%w: amount %d must be non-negative, got %s", ErrInvalidInput, i, a)
		}
	}
	return nil
}

// requireBelowBalances rejects withdrawals that would empty any token.
func (p *Pool) requireBelowBalances(amounts []decimal.Decimal) error {
	for i, a := range amounts {
		if a.GreaterThanOrEqual(p.balances[i]) {
			return fmt.Errorf("%w: amount %s of token %d exceeds available balance %s",
				ErrInvalidInput, a, i, p.balances[i])
		}
	}
	return nil
}

func (p *Pool) commit(op string, balances []decimal.Decimal, lpSupply, depth decimal.Decimal, res Result) {
	p.balances = balances
	p.lpSupply = lpSupply
	p.depth = depth
	p.log.WithFields(logrus.Fields{
		"op":              op,
		"amount":          res.Amount.String(),
		"governance_mint": res.GovernanceMint.String(),
		"lp_supply":       lpSupply.String(),
	}).Debug("pool operation committed")
}

func allZero(amounts []decimal.Decimal) bool {
	for _, a := range amounts {
		if !a.IsZero() {
			return false
		}
	}
	return true
}

// subGivenOrder returns a-b when keepOrder is set, b-a otherwise.
func subGivenOrder(keepOrder bool, a, b decimal.Decimal) decimal.Decimal {
	if keepOrder {
		return a.Sub(b)
	}
	return b.Sub(a)
}
