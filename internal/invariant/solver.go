package invariant

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Solver evaluates the depth invariant for a fixed token count and
// amplification factor. It holds no mutable state; one Solver can be shared
// by any number of pools with the same parameters.
//
// The amplification factor is in pool units (A*n^n). Zero selects the
// constant-product curve.
type Solver struct {
	tokenCount    int
	n             decimal.Decimal
	amp           decimal.Decimal
	tolerance     decimal.Decimal
	maxIterations int
	log           logrus.FieldLogger
}

// NewSolver validates the parameters and returns a Solver. A nil logger
// discards all output.
func NewSolver(
	tokenCount int,
	ampFactor decimal.Decimal,
	tolerance decimal.Decimal,
	maxIterations int,
	log logrus.FieldLogger,
) (*Solver, error) {
	if tokenCount < 2 {
		return nil, fmt.Errorf("%w: token count must be at least 2, got %d", ErrInvalidInput, tokenCount)
	}
	if ampFactor.IsNegative() {
		return nil, fmt.Errorf("%w: amp factor must be non-negative, got %s", ErrInvalidInput, ampFactor)
	}
	if !tolerance.IsPositive() {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %s", ErrInvalidInput, tolerance)
	}
	if maxIterations <= 0 {
		return nil, fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidInput, maxIterations)
	}
	if log == nil {
		log = NopLogger()
	}
	return &Solver{
		tokenCount:    tokenCount,
		n:             decimal.NewFromInt(int64(tokenCount)),
		amp:           ampFactor,
		tolerance:     tolerance,
		maxIterations: maxIterations,
		log:           log,
	}, nil
}

// TokenCount is the number of tokens the solver was built for.
func (s *Solver) TokenCount() int { return s.tokenCount }

// AmpFactor is the amplification factor in pool units.
func (s *Solver) AmpFactor() decimal.Decimal { return s.amp }

func (s *Solver) Tolerance() decimal.Decimal { return s.tolerance }

func (s *Solver) MaxIterations() int { return s.maxIterations }

func (s *Solver) isConstantProduct() bool { return s.amp.IsZero() }

func (s *Solver) converged(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(s.tolerance)
}

// CalcDepth returns the depth of balances. A zero initialGuess starts the
// iteration from the sum of balances, which is exact as A grows without bound.
// Every balance must be strictly positive.
func (s *Solver) CalcDepth(balances []decimal.Decimal, initialGuess decimal.Decimal) (decimal.Decimal, error) {
	if len(balances) != s.tokenCount {
		return zero, fmt.Errorf("%w: expected %d balances, got %d", ErrInvalidInput, s.tokenCount, len(balances))
	}
	if err := requirePositive(balances); err != nil {
		return zero, err
	}

	sum := Sum(balances)
	approx := initialGuess
	// the constant-product iteration only converges reliably from above,
	// and the arithmetic mean bounds the geometric mean from above
	if approx.IsZero() || s.isConstantProduct() {
		approx = sum
	}
	ampSum := s.amp.Mul(sum)
	ampMinusOne := s.amp.Sub(one)
	nPlusOne := s.n.Add(one)

	for i := 0; i < s.maxIterations; i++ {
		decay := s.reciprocalDecay(approx, balances)
		numerator := ampSum.Add(Mul(s.n.Mul(approx), decay))
		denominator := ampMinusOne.Add(nPlusOne.Mul(decay))
		if !denominator.IsPositive() {
			return zero, s.degenerate("calc_depth", i+1)
		}
		next := Div(numerator, denominator)
		if s.converged(next, approx) {
			s.log.WithFields(logrus.Fields{"routine": "calc_depth", "iterations": i + 1}).Debug("converged")
			return next, nil
		}
		approx = next
	}
	return zero, s.exhausted("calc_depth")
}

// CalcMissingBalance returns the balance the one token absent from
// knownBalances must hold for the pool to have the given depth. A zero
// initialGuess starts the iteration from depth.
func (s *Solver) CalcMissingBalance(
	knownBalances []decimal.Decimal,
	depth decimal.Decimal,
	initialGuess decimal.Decimal,
) (decimal.Decimal, error) {
	if len(knownBalances) != s.tokenCount-1 {
		return zero, fmt.Errorf("%w: expected %d known balances, got %d",
			ErrInvalidInput, s.tokenCount-1, len(knownBalances))
	}
	if err := requirePositive(knownBalances); err != nil {
		return zero, err
	}
	if !depth.IsPositive() {
		return zero, fmt.Errorf("%w: depth must be positive, got %s", ErrInvalidInput, depth)
	}

	decay := s.reciprocalDecay(depth, knownBalances)
	if s.isConstantProduct() {
		// prod(balances) = (depth/n)^n
		return Mul(Div(depth, s.n), decay), nil
	}

	depthDivAmp := Div(depth, s.amp)
	numeratorFixed := Mul(Mul(depthDivAmp, Div(depth, s.n)), decay)
	denominatorFixed := Sum(knownBalances).Add(depthDivAmp).Sub(depth)

	approx := initialGuess
	if approx.IsZero() {
		approx = depth
	}
	two := decimal.NewFromInt(2)
	for i := 0; i < s.maxIterations; i++ {
		numerator := approx.Mul(approx).Add(numeratorFixed)
		denominator := two.Mul(approx).Add(denominatorFixed)
		if !denominator.IsPositive() {
			return zero, s.degenerate("calc_missing_balance", i+1)
		}
		next := Div(numerator, denominator)
		if s.converged(next, approx) {
			s.log.WithFields(logrus.Fields{"routine": "calc_missing_balance", "iterations": i + 1}).Debug("converged")
			return next, nil
		}
		approx = next
	}
	return zero, s.exhausted("calc_missing_balance")
}

// ReciprocalDecay is prod(depth / (n * balance)): one for a perfectly
// balanced pool, shrinking towards zero as the balances diverge.
func (s *Solver) ReciprocalDecay(depth decimal.Decimal, balances []decimal.Decimal) (decimal.Decimal, error) {
	if err := requirePositive(balances); err != nil {
		return zero, err
	}
	return s.reciprocalDecay(depth, balances), nil
}

func (s *Solver) reciprocalDecay(depth decimal.Decimal, balances []decimal.Decimal) decimal.Decimal {
	decay := one
	for _, b := range balances {
		decay = Mul(decay, Div(depth, s.n.Mul(b)))
	}
	return decay
}

func (s *Solver) exhausted(routine string) error {
	s.log.WithFields(logrus.Fields{
		"routine":        routine,
		"max_iterations": s.maxIterations,
		"tolerance":      s.tolerance.String(),
	}).Warn("solver did not converge")
	return fmt.Errorf("%w: %s did not converge within %d iterations (tolerance %s)",
		ErrConvergenceFailure, routine, s.maxIterations, s.tolerance)
}

func (s *Solver) degenerate(routine string, iteration int) error {
	s.log.WithFields(logrus.Fields{"routine": routine, "iteration": iteration}).Warn("solver hit a non-positive denominator")
	return fmt.Errorf("%w: %s reached a non-positive denominator at iteration %d",
		ErrConvergenceFailure, routine, iteration)
}

func requirePositive(balances []decimal.Decimal) error {
	for i, b := range balances {
		if !b.IsPositive() {
			return fmt.Errorf("%w: balance %d must be positive, got %s", ErrInvalidInput, i, b)
		}
	}
	return nil
}
