package pool

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var bpsDenominator = decimal.NewFromInt(10000)

// ApplySlippage calculates minimum output with slippage tolerance.
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut decimal.Decimal, slippageBps uint16) decimal.Decimal {
	if slippageBps >= 10000 {
		return zero // 100% slippage = no output
	}
	// minOut = amountOut * (10000 - slippageBps) / 10000
	factor := bpsDenominator.Sub(decimal.NewFromInt(int64(slippageBps)))
	return amountOut.Mul(factor).Div(bpsDenominator)
}

// MaxInputWithSlippage is the exact-output counterpart of ApplySlippage: the
// largest input worth paying for a quoted amountIn.
func MaxInputWithSlippage(amountIn decimal.Decimal, slippageBps uint16) decimal.Decimal {
	factor := bpsDenominator.Add(decimal.NewFromInt(int64(slippageBps)))
	return amountIn.Mul(factor).Div(bpsDenominator)
}

// ValidatePriceImpact checks if a price impact in percent (as returned by
// Pool.PriceImpact) exceeds maxImpactBps.
func ValidatePriceImpact(priceImpact decimal.Decimal, maxImpactBps uint16) error {
	maxImpact := decimal.NewFromInt(int64(maxImpactBps)).Div(hundred)

	if priceImpact.GreaterThan(maxImpact) {
		return fmt.Errorf("%w: price impact %s%% exceeds max %s%%",
			ErrSlippageExceeded, priceImpact.StringFixed(4), maxImpact.StringFixed(4))
	}
	return nil
}
