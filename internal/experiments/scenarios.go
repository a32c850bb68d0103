package experiments

import (
	"fmt"
	"time"

	"github.com/aman-zulfiqar/depth-pool/internal/amp"
	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/shopspring/decimal"
)

var (
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
	four  = decimal.NewFromInt(4)
	five  = decimal.NewFromInt(5)
	ten   = decimal.NewFromInt(10)
)

func swapOne(p *pool.Pool, inputIndex int, amount decimal.Decimal, outputIndex int) (pool.Result, error) {
	return p.SwapExactInput([]pool.TokenAmount{{Index: inputIndex, Amount: amount}}, outputIndex, decimal.Zero)
}

// OneVsTwoAdd deposits a fifth of the first token's balance at once and, on a
// fresh pool, in two equal halves. AmountDifference is the extra LP the
// halves receive, GovernanceDifference the extra governance mint of the
// single deposit. Both are positive since the fee grows faster than the
// imbalance.
func OneVsTwoAdd(s Setup) (Comparison, error) {
	c := Comparison{Name: "one_vs_two_add"}
	amount := invariant.Div(s.Balances[0], five)
	half := invariant.Div(amount, two)

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	single, err := p.Add(only(s.Params.TokenCount, 0, amount), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add all", single)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	first, err := p.Add(only(s.Params.TokenCount, 0, half), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add first half", first)
	second, err := p.Add(only(s.Params.TokenCount, 0, half), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add second half", second)

	split := sumResults(first, second)
	c.AmountDifference = split.Amount.Sub(single.Amount)
	c.GovernanceDifference = single.GovernanceMint.Sub(split.GovernanceMint)
	return c, nil
}

// OneVsTwoSwap swaps half of the second token's balance into the first token
// at once and, on a fresh pool, in two equal halves. AmountDifference is
// single output minus the summed outputs.
func OneVsTwoSwap(s Setup) (Comparison, error) {
	c := Comparison{Name: "one_vs_two_swap"}
	amount := invariant.Div(s.Balances[1], two)
	half := invariant.Div(amount, two)

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	single, err := swapOne(p, 1, amount, 0)
	if err != nil {
		return c, err
	}
	c.add("swap all", single)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	first, err := swapOne(p, 1, half, 0)
	if err != nil {
		return c, err
	}
	c.add("swap first half", first)
	second, err := swapOne(p, 1, half, 0)
	if err != nil {
		return c, err
	}
	c.add("swap second half", second)

	split := sumResults(first, second)
	c.AmountDifference = single.Amount.Sub(split.Amount)
	c.GovernanceDifference = single.GovernanceMint.Sub(split.GovernanceMint)
	return c, nil
}

// SwapVsAddRemove swaps two tokens into the last one directly and, on a
// fresh pool, by depositing them and burning the minted LP for the last
// token. AmountDifference is how much more the direct swap pays out.
func SwapVsAddRemove(s Setup) (Comparison, error) {
	c := Comparison{Name: "swap_vs_add_remove"}
	n := s.Params.TokenCount
	if n < 3 {
		return c, fmt.Errorf("%w: swap_vs_add_remove needs at least 3 tokens", pool.ErrInvalidInput)
	}
	outputIndex := n - 1
	amounts := only(n, 0, invariant.Div(s.Balances[0], three))
	amounts[1] = invariant.Div(s.Balances[1], five)

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	swapped, err := p.SwapExactInput([]pool.TokenAmount{
		{Index: 0, Amount: amounts[0]},
		{Index: 1, Amount: amounts[1]},
	}, outputIndex, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("swap exact input", swapped)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	added, err := p.Add(amounts, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add", added)
	removed, err := p.RemoveExactBurn(added.Amount, outputIndex, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact burn", removed)

	c.AmountDifference = swapped.Amount.Sub(removed.Amount)
	c.GovernanceDifference = swapped.GovernanceMint.Sub(sumResults(added, removed).GovernanceMint)
	return c, nil
}

// SwapExactInVsExactOut swaps half of the second token's balance into the
// first token, then asks a fresh pool what input buys exactly that output.
// Both differences should vanish.
func SwapExactInVsExactOut(s Setup) (Comparison, error) {
	c := Comparison{Name: "swap_exact_in_vs_exact_out"}
	amount := invariant.Div(s.Balances[1], two)

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	in, err := swapOne(p, 1, amount, 0)
	if err != nil {
		return c, err
	}
	c.add("swap exact input", in)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	out, err := p.SwapExactOutput(1, []pool.TokenAmount{{Index: 0, Amount: in.Amount}}, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("swap exact output", out)

	c.AmountDifference = amount.Sub(out.Amount)
	c.GovernanceDifference = in.GovernanceMint.Sub(out.GovernanceMint)
	return c, nil
}

// RemoveBurnConsistency withdraws 82% of the first token by exact output,
// then burns the same LP amount on a fresh pool. AmountDifference is the
// exact output minus what the burn paid out.
func RemoveBurnConsistency(s Setup) (Comparison, error) {
	c := Comparison{Name: "remove_burn_consistency"}
	output := s.Balances[0].Mul(decimal.RequireFromString("0.82"))

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	removed, err := p.RemoveExactOutput(only(s.Params.TokenCount, 0, output), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact output", removed)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	burned, err := p.RemoveExactBurn(removed.Amount, 0, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact burn", burned)

	c.AmountDifference = output.Sub(burned.Amount)
	c.GovernanceDifference = removed.GovernanceMint.Sub(burned.GovernanceMint)
	return c, nil
}

// BurnRemoveConsistency burns half the LP supply for the first token, then
// withdraws exactly that output on a fresh pool. AmountDifference is the
// burned LP minus the LP the exact-output withdrawal burned.
func BurnRemoveConsistency(s Setup) (Comparison, error) {
	c := Comparison{Name: "burn_remove_consistency"}

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	burnAmount := invariant.Div(p.LPSupply(), two)
	burned, err := p.RemoveExactBurn(burnAmount, 0, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact burn", burned)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	removed, err := p.RemoveExactOutput(only(s.Params.TokenCount, 0, burned.Amount), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact output", removed)

	c.AmountDifference = burnAmount.Sub(removed.Amount)
	c.GovernanceDifference = burned.GovernanceMint.Sub(removed.GovernanceMint)
	return c, nil
}

// BalancedAndImbalancedVsTogether applies a balanced change (half of every
// balance) followed by an imbalanced one (a quarter of the first token) and,
// on a fresh pool, both at once. It adds when isAdd is set and withdraws by
// exact output otherwise. Differences are sequential minus together.
func BalancedAndImbalancedVsTogether(s Setup, isAdd bool) (Comparison, error) {
	name, label := "balanced_and_imbalanced_vs_together_remove", "remove exact output"
	op := (*pool.Pool).RemoveExactOutput
	if isAdd {
		name, label = "balanced_and_imbalanced_vs_together_add", "add"
		op = (*pool.Pool).Add
	}
	c := Comparison{Name: name}

	balanced := invariant.Scale(decimal.RequireFromString("0.5"), s.Balances)
	imbalanced := only(s.Params.TokenCount, 0, invariant.Div(s.Balances[0], four))

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	first, err := op(p, balanced, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add(label+" balanced", first)
	second, err := op(p, imbalanced, decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add(label+" imbalanced", second)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	together, err := op(p, invariant.AddEach(balanced, imbalanced), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add(label+" together", together)

	sequential := sumResults(first, second)
	c.AmountDifference = sequential.Amount.Sub(together.Amount)
	c.GovernanceDifference = sequential.GovernanceMint.Sub(together.GovernanceMint)
	return c, nil
}

// AddRemoveMarginalConsistency deposits a small amount of the first token,
// grossed up by the fee, and withdraws the net amount on a fresh pool. For
// small amounts the LP minted and burned should nearly match.
func AddRemoveMarginalConsistency(s Setup) (Comparison, error) {
	c := Comparison{Name: "add_remove_marginal_consistency"}
	eps := decimal.RequireFromString("0.1")
	input := invariant.Div(eps, decimal.NewFromInt(1).Sub(s.totalFee()))

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	added, err := p.Add(only(s.Params.TokenCount, 0, input), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add", added)

	p, err = s.NewPool()
	if err != nil {
		return c, err
	}
	removed, err := p.RemoveExactOutput(only(s.Params.TokenCount, 0, eps), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("remove exact output", removed)

	c.AmountDifference = added.Amount.Sub(removed.Amount)
	c.GovernanceDifference = added.GovernanceMint.Sub(removed.GovernanceMint)
	return c, nil
}

// MarginalPriceVsLPPerBalanced checks on a fee-free pool that the
// balance-weighted marginal price equals the LP received per unit of a
// balanced deposit. It first deposits a fifth of the seed balances, then
// deposits three units split by pool weight. AmountDifference is LP per
// unit minus weighted marginal price and should vanish; the "units
// deposited" row should read three.
func MarginalPriceVsLPPerBalanced(s Setup) (Comparison, error) {
	c := Comparison{Name: "marginal_price_vs_lp_per_balanced"}
	s = s.WithoutFees()
	units := three

	p, err := s.NewPool()
	if err != nil {
		return c, err
	}
	if _, err := p.Add(invariant.Scale(invariant.Div(decimal.NewFromInt(1), five), s.Balances), decimal.Zero); err != nil {
		return c, err
	}

	balances := p.Balances()
	total := invariant.Sum(balances)
	lpPerUnit := invariant.Div(p.LPSupply(), total)
	prices, err := p.MarginalPrices()
	if err != nil {
		return c, err
	}
	weighted := decimal.Zero
	for i, b := range balances {
		weighted = weighted.Add(invariant.Div(invariant.Mul(prices[i], b), total))
	}
	c.Rows = append(c.Rows,
		Row{Label: "lp per balanced unit", Amount: lpPerUnit, GovernanceMint: decimal.Zero},
		Row{Label: "weighted marginal price", Amount: weighted, GovernanceMint: decimal.Zero},
	)

	added, err := p.Add(invariant.Scale(invariant.Div(units, total), balances), decimal.Zero)
	if err != nil {
		return c, err
	}
	c.add("add balanced", added)
	c.Rows = append(c.Rows, Row{Label: "units deposited", Amount: invariant.Div(added.Amount, lpPerUnit), GovernanceMint: decimal.Zero})

	c.AmountDifference = lpPerUnit.Sub(weighted)
	c.GovernanceDifference = added.GovernanceMint
	return c, nil
}

// AmpRamp ramps the amplification factor to ten times its value over the
// minimum adjustment window and quotes the same swap (a tenth of the second
// token's balance into the first token) at five points of the ramp.
// AmountDifference is the output at the end of the ramp minus the output at
// its start.
func AmpRamp(s Setup) (Comparison, error) {
	c := Comparison{Name: "amp_ramp"}
	schedule, err := amp.New(s.Params.AmpFactor)
	if err != nil {
		return c, err
	}
	target := decimal.Min(s.Params.AmpFactor.Mul(ten), amp.MaxValue)
	start := time.Unix(0, 0).UTC()
	if err := schedule.SetTarget(start, target, start.Add(amp.MinAdjustmentWindow)); err != nil {
		return c, err
	}

	base, err := s.NewPool()
	if err != nil {
		return c, err
	}
	amount := invariant.Div(s.Balances[1], ten)
	const samples = 5
	for i := 0; i < samples; i++ {
		ts := start.Add(amp.MinAdjustmentWindow * time.Duration(i) / (samples - 1))
		value := schedule.Value(ts)
		p, err := base.WithAmpFactor(value)
		if err != nil {
			return c, err
		}
		res, err := swapOne(p, 1, amount, 0)
		if err != nil {
			return c, err
		}
		c.add(fmt.Sprintf("amp %s", value.StringFixed(4)), res)
	}

	first, last := c.Rows[0], c.Rows[len(c.Rows)-1]
	c.AmountDifference = last.Amount.Sub(first.Amount)
	c.GovernanceDifference = last.GovernanceMint.Sub(first.GovernanceMint)
	return c, nil
}
