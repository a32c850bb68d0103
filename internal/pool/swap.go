package pool

import (
	"fmt"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/shopspring/decimal"
)

// SwapExactInput pays in the given amounts and returns how much of token
// outputIndex the pool pays out. A positive minOutput fails the swap with
// ErrSlippageExceeded if the output would be smaller.
func (p *Pool) SwapExactInput(inputs []TokenAmount, outputIndex int, minOutput decimal.Decimal) (Result, error) {
	amounts, err := p.swapAmounts(inputs, outputIndex)
	if err != nil {
		return Result{}, err
	}
	return p.swap(true, amounts, outputIndex, minOutput)
}

// SwapExactOutput withdraws the given amounts and returns how much of token
// inputIndex must be paid in, fees included. A positive maxInput fails the
// swap with ErrSlippageExceeded if the required input would be larger.
func (p *Pool) SwapExactOutput(inputIndex int, outputs []TokenAmount, maxInput decimal.Decimal) (Result, error) {
	amounts, err := p.swapAmounts(outputs, inputIndex)
	if err != nil {
		return Result{}, err
	}
	return p.swap(false, amounts, inputIndex, maxInput)
}

// swapAmounts turns a list of single-token legs into a positional vector
// whose entry at the resolved index is zero.
func (p *Pool) swapAmounts(legs []TokenAmount, resolvedIndex int) ([]decimal.Decimal, error) {
	if err := p.requireTokenIndex(resolvedIndex); err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, p.params.TokenCount)
	seen := make([]bool, p.params.TokenCount)
	for i := range amounts {
		amounts[i] = zero
	}
	for _, leg := range legs {
		if err := p.requireTokenIndex(leg.Index); err != nil {
			return nil, err
		}
		if leg.Index == resolvedIndex {
			return nil, fmt.Errorf("%w: token %d is both swapped and resolved", ErrInvalidInput, leg.Index)
		}
		if seen[leg.Index] {
			return nil, fmt.Errorf("%w: token %d appears more than once", ErrInvalidInput, leg.Index)
		}
		if leg.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: amount of token %d must be non-negative, got %s", ErrInvalidInput, leg.Index, leg.Amount)
		}
		seen[leg.Index] = true
		amounts[leg.Index] = leg.Amount
	}
	return amounts, nil
}

func (p *Pool) swap(isExactInput bool, amounts []decimal.Decimal, index int, limit decimal.Decimal) (Result, error) {
	if err := p.requireInitialized(); err != nil {
		return Result{}, err
	}
	if allZero(amounts) {
		return zeroResult, nil
	}
	if !isExactInput {
		if err := p.requireBelowBalances(amounts); err != nil {
			return Result{}, err
		}
	}

	initialDepth := p.depth
	var updated []decimal.Decimal
	if isExactInput {
		updated = invariant.AddEach(p.balances, amounts)
	} else {
		updated = invariant.SubEach(p.balances, amounts)
	}

	// fees are taken on the input side
	swapBase := updated
	if isExactInput && p.hasFees() {
		swapBase = invariant.SubEach(updated, invariant.Scale(p.totalFee, amounts))
	}

	guess := zero
	if isExactInput {
		guess = p.balances[index]
	}
	missing, err := p.solver.CalcMissingBalance(invariant.Without(swapBase, index), initialDepth, guess)
	if err != nil {
		return Result{}, err
	}

	amount := subGivenOrder(isExactInput, p.balances[index], missing)
	if !isExactInput && p.hasFees() {
		amount = invariant.Div(amount, one.Sub(p.totalFee))
	}

	if limit.IsPositive() {
		if isExactInput && amount.LessThan(limit) {
			return Result{}, fmt.Errorf("%w: insufficient output: at least %s requested but only %s received",
				ErrSlippageExceeded, limit, amount)
		}
		if !isExactInput && amount.GreaterThan(limit) {
			return Result{}, fmt.Errorf("%w: maximum input amount exceeded: %s required but only %s authorized",
				ErrSlippageExceeded, amount, limit)
		}
	}

	final := append([]decimal.Decimal(nil), updated...)
	if isExactInput {
		final[index] = final[index].Sub(amount)
	} else {
		final[index] = final[index].Add(amount)
	}
	finalDepth, err := p.solver.CalcDepth(final, zero)
	if err != nil {
		return Result{}, err
	}

	governanceMint := zero
	if p.hasFees() {
		totalFeeDepth := finalDepth.Sub(initialDepth)
		governanceDepth := invariant.Mul(totalFeeDepth, p.governanceShare())
		governanceMint = p.governanceMint(governanceDepth, p.lpSupply, finalDepth)
	}

	res := Result{Amount: amount, GovernanceMint: governanceMint}
	op := "swap_exact_output"
	if isExactInput {
		op = "swap_exact_input"
	}
	p.commit(op, final, p.lpSupply.Add(governanceMint), finalDepth, res)
	return res, nil
}
