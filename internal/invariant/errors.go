package invariant

import "errors"

// Error kinds shared by the solver and the pool engine. Failures wrap one of
// these with context, so match them with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrSlippageExceeded    = errors.New("slippage exceeded")
	ErrInfeasibleOperation = errors.New("infeasible operation")
	// ErrConvergenceFailure is fatal for the given inputs: retrying with the
	// same state will fail the same way.
	ErrConvergenceFailure = errors.New("convergence failure")
)
