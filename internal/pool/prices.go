package pool

import (
	"fmt"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/shopspring/decimal"
)

// MarginalPrices returns the derivative of depth with respect to each
// balance, priced in LP tokens (scaled by depth / lp supply).
func (p *Pool) MarginalPrices() ([]decimal.Decimal, error) {
	if err := p.requireInitialized(); err != nil {
		return nil, err
	}
	n := decimal.NewFromInt(int64(p.params.TokenCount))
	prices := make([]decimal.Decimal, p.params.TokenCount)

	if p.params.AmpFactor.IsZero() {
		// depth = n * geometric mean, so d depth / d b_j = depth / (n * b_j)
		fixed := invariant.Div(invariant.Mul(p.depth, p.depth), invariant.Mul(n, p.lpSupply))
		for i, b := range p.balances {
			prices[i] = invariant.Div(fixed, b)
		}
		return prices, nil
	}

	reciprocalDecay, err := p.solver.ReciprocalDecay(p.depth, p.balances)
	if err != nil {
		return nil, err
	}
	amp := p.params.AmpFactor
	fixed1 := invariant.Mul(p.depth, reciprocalDecay)
	denominator := amp.Sub(one).Add(invariant.Mul(n.Add(one), reciprocalDecay))
	pricedInLP := invariant.Div(p.depth, p.lpSupply)
	fixed2 := invariant.Div(denominator, pricedInLP)
	for i, b := range p.balances {
		prices[i] = invariant.Div(amp.Add(invariant.Div(fixed1, b)), fixed2)
	}
	return prices, nil
}

// PriceImpact is the shortfall, in percent, of swapping amount of token
// inputIndex into outputIndex compared to extrapolating the current marginal
// price (after fees). The swap runs on a clone; the pool is not modified.
func (p *Pool) PriceImpact(amount decimal.Decimal, inputIndex, outputIndex int) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, amount)
	}
	if err := p.requireTokenIndex(inputIndex); err != nil {
		return decimal.Decimal{}, err
	}
	if err := p.requireTokenIndex(outputIndex); err != nil {
		return decimal.Decimal{}, err
	}
	prices, err := p.MarginalPrices()
	if err != nil {
		return decimal.Decimal{}, err
	}

	marginalPrice := invariant.Div(prices[inputIndex], prices[outputIndex])
	extrapolated := invariant.Mul(invariant.Mul(amount, one.Sub(p.totalFee)), marginalPrice)
	res, err := p.Clone().SwapExactInput([]TokenAmount{{Index: inputIndex, Amount: amount}}, outputIndex, zero)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return invariant.Div(extrapolated.Sub(res.Amount), extrapolated).Mul(hundred), nil
}

var hundred = decimal.NewFromInt(100)
