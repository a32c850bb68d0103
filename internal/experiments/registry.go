package experiments

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Scenario is a named comparison runnable against any Setup.
type Scenario struct {
	Name string
	Run  func(Setup) (Comparison, error)
}

var scenarios = []Scenario{
	{Name: "one_vs_two_add", Run: OneVsTwoAdd},
	{Name: "one_vs_two_swap", Run: OneVsTwoSwap},
	{Name: "swap_vs_add_remove", Run: SwapVsAddRemove},
	{Name: "swap_exact_in_vs_exact_out", Run: SwapExactInVsExactOut},
	{Name: "remove_burn_consistency", Run: RemoveBurnConsistency},
	{Name: "burn_remove_consistency", Run: BurnRemoveConsistency},
	{Name: "balanced_and_imbalanced_vs_together_add", Run: func(s Setup) (Comparison, error) {
		return BalancedAndImbalancedVsTogether(s, true)
	}},
	{Name: "balanced_and_imbalanced_vs_together_remove", Run: func(s Setup) (Comparison, error) {
		return BalancedAndImbalancedVsTogether(s, false)
	}},
	{Name: "add_remove_marginal_consistency", Run: AddRemoveMarginalConsistency},
	{Name: "marginal_price_vs_lp_per_balanced", Run: MarginalPriceVsLPPerBalanced},
	{Name: "amp_ramp", Run: AmpRamp},
}

// Scenarios lists every registered scenario in run order.
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Names returns the sorted names of all registered scenarios.
func Names() []string {
	names := make([]string, len(scenarios))
	for i, sc := range scenarios {
		names[i] = sc.Name
	}
	sort.Strings(names)
	return names
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, sc := range scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// RunAll runs the given scenarios concurrently against s, each on its own
// pools, and returns the comparisons in input order. The first failure
// cancels the remaining scenarios.
func RunAll(ctx context.Context, s Setup, list []Scenario) ([]Comparison, error) {
	results := make([]Comparison, len(list))
	g, ctx := errgroup.WithContext(ctx)
	for i, sc := range list {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := sc.Run(s)
			if err != nil {
				return fmt.Errorf("%s: %w", sc.Name, err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
