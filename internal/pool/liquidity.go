package pool

import (
	"fmt"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/shopspring/decimal"
)

// Add deposits amounts (one entry per token) and returns the LP tokens
// minted. The first deposit into an empty pool must fund every token; it
// mints exactly the resulting depth and charges no fee. A positive
// minMint fails the deposit with ErrSlippageExceeded if fewer LP tokens
// would be minted.
func (p *Pool) Add(amounts []decimal.Decimal, minMint decimal.Decimal) (Result, error) {
	if err := p.requireAmounts(amounts); err != nil {
		return Result{}, err
	}
	if p.isInitialized() {
		return p.addRemove(true, amounts, minMint)
	}

	for i, a := range amounts {
		if !a.IsPositive() {
			return Result{}, fmt.Errorf("%w: on first add all amounts must be greater than 0, amount %d is %s",
				ErrInvalidInput, i, a)
		}
	}
	depth, err := p.solver.CalcDepth(amounts, zero)
	if err != nil {
		return Result{}, err
	}
	if depth.LessThan(minMint) {
		return Result{}, fmt.Errorf("%w: insufficient lp tokens minted: at least %s requested but only %s would be minted",
			ErrSlippageExceeded, minMint, depth)
	}

	res := Result{Amount: depth, GovernanceMint: zero}
	p.commit("add", append([]decimal.Decimal(nil), amounts...), depth, depth, res)
	return res, nil
}

// RemoveExactOutput withdraws amounts (one entry per token) and returns the
// LP tokens burned. A positive maxBurn fails the withdrawal with
// ErrSlippageExceeded if more LP tokens would be burned.
func (p *Pool) RemoveExactOutput(amounts []decimal.Decimal, maxBurn decimal.Decimal) (Result, error) {
	if err := p.requireAmounts(amounts); err != nil {
		return Result{}, err
	}
	if err := p.requireInitialized(); err != nil {
		return Result{}, err
	}
	return p.addRemove(false, amounts, maxBurn)
}

func (p *Pool) addRemove(isAdd bool, amounts []decimal.Decimal, limit decimal.Decimal) (Result, error) {
	if allZero(amounts) {
		return zeroResult, nil
	}
	if !isAdd {
		if err := p.requireBelowBalances(amounts); err != nil {
			return Result{}, err
		}
	}

	initialDepth := p.depth
	var updated []decimal.Decimal
	if isAdd {
		updated = invariant.AddEach(p.balances, amounts)
	} else {
		updated = invariant.SubEach(p.balances, amounts)
	}
	scaleFactor := invariant.Div(invariant.Sum(updated), invariant.Sum(p.balances))
	updatedDepth, err := p.solver.CalcDepth(updated, invariant.Mul(initialDepth, scaleFactor))
	if err != nil {
		return Result{}, err
	}

	var lpAmount, governanceMint decimal.Decimal
	if !p.hasFees() {
		userDepth := updatedDepth.Sub(initialDepth).Abs()
		lpAmount = invariant.Mul(invariant.Div(userDepth, initialDepth), p.lpSupply)
		governanceMint = zero
	} else {
		// withdrawals gross the fee up so that it is charged on top of the output
		fee := p.totalFee
		if !isAdd {
			fee = invariant.Div(one, one.Sub(p.totalFee)).Sub(one)
		}
		taxBase := imbalanceTaxBase(isAdd, p.balances, updated, scaleFactor)
		feeAdjusted := invariant.SubEach(updated, invariant.Scale(fee, taxBase))
		if !isAdd {
			for i, b := range feeAdjusted {
				if !b.IsPositive() {
					return Result{}, fmt.Errorf("%w: impossible remove due to fees: token %d would be left with %s",
						ErrInfeasibleOperation, i, b)
				}
			}
		}
		feeAdjustedDepth := updatedDepth
		if !allZero(taxBase) {
			feeAdjustedDepth, err = p.solver.CalcDepth(feeAdjusted, updatedDepth)
			if err != nil {
				return Result{}, err
			}
		}

		totalFeeDepth := updatedDepth.Sub(feeAdjustedDepth).Abs()
		userDepth := initialDepth.Sub(feeAdjustedDepth).Abs()
		governanceDepth := invariant.Mul(totalFeeDepth, p.governanceShare())
		lpAmount = invariant.Mul(invariant.Div(userDepth, initialDepth), p.lpSupply)

		updatedLPSupply := p.lpSupply.Sub(lpAmount)
		lpDepth := updatedDepth
		if isAdd {
			updatedLPSupply = p.lpSupply.Add(lpAmount)
			lpDepth = feeAdjustedDepth
		}
		governanceMint = p.governanceMint(governanceDepth, updatedLPSupply, lpDepth)
	}

	if limit.IsPositive() {
		if isAdd && lpAmount.LessThan(limit) {
			return Result{}, fmt.Errorf("%w: insufficient lp tokens minted: at least %s requested but only %s would be minted",
				ErrSlippageExceeded, limit, lpAmount)
		}
		if !isAdd && lpAmount.GreaterThan(limit) {
			return Result{}, fmt.Errorf("%w: maximum burn amount exceeded: %s required but only %s permitted to be burned",
				ErrSlippageExceeded, lpAmount, limit)
		}
	}

	res := Result{Amount: lpAmount, GovernanceMint: governanceMint}
	lpSupply := p.lpSupply.Sub(lpAmount)
	op := "remove_exact_output"
	if isAdd {
		lpSupply = p.lpSupply.Add(lpAmount)
		op = "add"
	}
	p.commit(op, updated, lpSupply.Add(governanceMint), updatedDepth, res)
	return res, nil
}

// imbalanceTaxBase is the part of each token's change that is not
// proportional to the pool: the positive excess of the updated balance over
// the old balance scaled by the change in total balance (the shortfall, for
// withdrawals). Proportional deposits and withdrawals have a zero tax base.
func imbalanceTaxBase(isAdd bool, balances, updated []decimal.Decimal, scaleFactor decimal.Decimal) []decimal.Decimal {
	scaled := invariant.Scale(scaleFactor, balances)
	taxBase := make([]decimal.Decimal, len(balances))
	for i := range balances {
		taxBase[i] = decimal.Max(subGivenOrder(isAdd, updated[i], scaled[i]), zero)
	}
	return taxBase
}

// RemoveExactBurn burns burnAmount LP tokens and pays out a single token.
// A positive minOutput fails the withdrawal with ErrSlippageExceeded if less
// would be paid out.
func (p *Pool) RemoveExactBurn(burnAmount decimal.Decimal, outputIndex int, minOutput decimal.Decimal) (Result, error) {
	if err := p.requireInitialized(); err != nil {
		return Result{}, err
	}
	if err := p.requireTokenIndex(outputIndex); err != nil {
		return Result{}, err
	}
	if err := p.requireBurnAmount(burnAmount); err != nil {
		return Result{}, err
	}
	if burnAmount.Equal(p.lpSupply) {
		return Result{}, fmt.Errorf("%w: burning the entire lp supply cannot be paid out in a single token",
			ErrInfeasibleOperation)
	}
	if burnAmount.IsZero() {
		return zeroResult, nil
	}

	initialDepth := p.depth
	updatedDepth := invariant.Mul(initialDepth, one.Sub(invariant.Div(burnAmount, p.lpSupply)))
	missing, err := p.solver.CalcMissingBalance(invariant.Without(p.balances, outputIndex), updatedDepth, p.balances[outputIndex])
	if err != nil {
		return Result{}, err
	}
	feelessAmount := p.balances[outputIndex].Sub(missing)

	output := feelessAmount
	if p.hasFees() {
		output = feelessAmount.Sub(p.singleTokenWithdrawalFee(feelessAmount, outputIndex))
	}
	if output.LessThan(minOutput) {
		return Result{}, fmt.Errorf("%w: insufficient output: at least %s requested but only %s received",
			ErrSlippageExceeded, minOutput, output)
	}

	final := p.Balances()
	final[outputIndex] = final[outputIndex].Sub(output)
	finalDepth, err := p.solver.CalcDepth(final, updatedDepth)
	if err != nil {
		return Result{}, err
	}

	updatedLPSupply := p.lpSupply.Sub(burnAmount)
	governanceMint := zero
	if p.hasFees() {
		totalFeeDepth := finalDepth.Sub(updatedDepth)
		governanceDepth := invariant.Mul(totalFeeDepth, p.governanceShare())
		governanceMint = p.governanceMint(governanceDepth, updatedLPSupply, updatedDepth.Add(totalFeeDepth))
	}

	res := Result{Amount: output, GovernanceMint: governanceMint}
	p.commit("remove_exact_burn", final, updatedLPSupply.Add(governanceMint), finalDepth, res)
	return res, nil
}

// singleTokenWithdrawalFee taxes a single-token withdrawal on the share of it
// that is not matched by the token's weight in the pool. Unlike
// imbalanceTaxBase it works from the feeless payout rather than from
// balance vectors; the two formulas are kept separate on purpose.
func (p *Pool) singleTokenWithdrawalFee(feelessAmount decimal.Decimal, outputIndex int) decimal.Decimal {
	taxableFraction := one.Sub(invariant.Div(p.balances[outputIndex], invariant.Sum(p.balances)))
	fee := invariant.Div(one, one.Sub(p.totalFee)).Sub(one)
	originalAmount := invariant.Div(feelessAmount, one.Add(invariant.Mul(taxableFraction, fee)))
	taxBase := invariant.Mul(originalAmount, taxableFraction)
	return invariant.Mul(fee, taxBase)
}

// RemoveUniform burns burnAmount LP tokens and pays out every token in
// proportion to the pool's balances. Proportional withdrawals do not change
// the pool's balance ratios and are never charged a fee.
func (p *Pool) RemoveUniform(burnAmount decimal.Decimal) ([]decimal.Decimal, error) {
	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	if err := p.requireBurnAmount(burnAmount); err != nil {
		return nil, err
	}
	if burnAmount.Equal(p.lpSupply) {
		return nil, fmt.Errorf("%w: the last lp tokens cannot be burned", ErrInfeasibleOperation)
	}

	fraction := invariant.Div(burnAmount, p.lpSupply)
	outputs := invariant.Scale(fraction, p.balances)
	if burnAmount.IsZero() {
		return outputs, nil
	}
	final := invariant.SubEach(p.balances, outputs)
	depth, err := p.solver.CalcDepth(final, invariant.Mul(p.depth, one.Sub(fraction)))
	if err != nil {
		return nil, err
	}

	p.commit("remove_uniform", final, p.lpSupply.Sub(burnAmount), depth, Result{Amount: burnAmount, GovernanceMint: zero})
	return outputs, nil
}

func (p *Pool) requireBurnAmount(burnAmount decimal.Decimal) error {
	if burnAmount.IsNegative() {
		return fmt.Errorf("%w: burn amount must be non-negative, got %s", ErrInvalidInput, burnAmount)
	}
	if burnAmount.GreaterThan(p.lpSupply) {
		return fmt.Errorf("%w: burn amount %s exceeds lp supply %s", ErrInvalidInput, burnAmount, p.lpSupply)
	}
	return nil
}
