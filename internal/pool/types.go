package pool

import (
	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/shopspring/decimal"
)

// Error kinds returned by pool operations. They are the solver's kinds, so a
// convergence failure inside the solver matches ErrConvergenceFailure here too.
var (
	ErrInvalidInput        = invariant.ErrInvalidInput
	ErrSlippageExceeded    = invariant.ErrSlippageExceeded
	ErrInfeasibleOperation = invariant.ErrInfeasibleOperation
	ErrConvergenceFailure  = invariant.ErrConvergenceFailure
)

const DefaultMaxIterations = 200

// DefaultTolerance is used when Params.Tolerance is zero.
var DefaultTolerance = decimal.New(1, -6)

// Params are the static parameters of a pool.
type Params struct {
	TokenCount int
	// AmpFactor is in pool units (A*n^n). Zero selects the constant-product curve.
	AmpFactor     decimal.Decimal
	LPFee         decimal.Decimal
	GovernanceFee decimal.Decimal
	// Tolerance is the convergence threshold of both solvers (DefaultTolerance if zero)
	Tolerance decimal.Decimal
	// MaxIterations caps both solvers (DefaultMaxIterations if zero)
	MaxIterations int
}

// TokenAmount is a single-token leg of a swap request.
type TokenAmount struct {
	Index  int
	Amount decimal.Decimal
}

// Result is what every mutating operation reports: the user-facing amount
// (tokens received or paid, LP tokens minted or burned) and the LP tokens
// minted to governance.
type Result struct {
	Amount         decimal.Decimal
	GovernanceMint decimal.Decimal
}

var zeroResult = Result{Amount: decimal.Zero, GovernanceMint: decimal.Zero}
