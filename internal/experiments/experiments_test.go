package experiments

import (
	"context"
	"testing"

	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertNear(t *testing.T, want string, got decimal.Decimal, delta string) {
	t.Helper()
	diff := got.Sub(d(want)).Abs()
	assert.True(t, diff.LessThanOrEqual(d(delta)), "want %s ± %s, got %s", want, delta, got)
}

const delta = "0.000001"

func TestScenarios(t *testing.T) {
	tests := []struct {
		name       string
		rows       int
		amount     string
		governance string
	}{
		{"one_vs_two_add", 3, "0.007764040417", "0.023916386227"},
		{"one_vs_two_swap", 3, "0.600268891411", "-0.371954361158"},
		{"swap_vs_add_remove", 3, "1.858222694673", "-3.022970228410"},
		{"swap_exact_in_vs_exact_out", 2, "0", "0"},
		{"remove_burn_consistency", 2, "0", "0"},
		{"burn_remove_consistency", 2, "0", "0"},
		{"balanced_and_imbalanced_vs_together_add", 3, "0", "0"},
		{"balanced_and_imbalanced_vs_together_remove", 3, "0", "0"},
		{"add_remove_marginal_consistency", 2, "-0.000029883165", "-0.000006469747"},
		{"marginal_price_vs_lp_per_balanced", 4, "0", "0"},
		{"amp_ramp", 5, "-1.287268005849", "0.065291266661"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, ok := Lookup(tt.name)
			require.True(t, ok)

			c, err := sc.Run(DefaultSetup())
			require.NoError(t, err)

			assert.Equal(t, tt.name, c.Name)
			assert.Len(t, c.Rows, tt.rows)
			assertNear(t, tt.amount, c.AmountDifference, delta)
			assertNear(t, tt.governance, c.GovernanceDifference, delta)
		})
	}
}

func TestOneVsTwoSwap_Rows(t *testing.T) {
	c, err := OneVsTwoSwap(DefaultSetup())
	require.NoError(t, err)

	assertNear(t, "37.623962271021", c.Rows[0].Amount, delta)
	assertNear(t, "20.612730461956", c.Rows[1].Amount, delta)
	assertNear(t, "16.410962917653", c.Rows[2].Amount, delta)
}

func TestRemoveBurnConsistency_Rows(t *testing.T) {
	c, err := RemoveBurnConsistency(DefaultSetup())
	require.NoError(t, err)

	assertNear(t, "217.877282421748", c.Rows[0].Amount, delta)
	assertNear(t, "123", c.Rows[1].Amount, delta)
}

func TestMarginalPriceVsLPPerBalanced_UnitsDeposited(t *testing.T) {
	c, err := MarginalPriceVsLPPerBalanced(DefaultSetup())
	require.NoError(t, err)

	assertNear(t, "0.935282215275", c.Rows[0].Amount, delta)
	assertNear(t, "3", c.Rows[3].Amount, delta)
}

func TestAmpRamp_Endpoints(t *testing.T) {
	c, err := AmpRamp(DefaultSetup())
	require.NoError(t, err)

	assert.Equal(t, "amp 1.3130", c.Rows[0].Label)
	assert.Equal(t, "amp 13.1300", c.Rows[4].Label)
	assertNear(t, "8.751693261379", c.Rows[0].Amount, delta)
	assertNear(t, "7.464425255530", c.Rows[4].Amount, delta)
}

func TestAmpRamp_ConstantProductCannotRamp(t *testing.T) {
	s := DefaultSetup()
	s.Params.AmpFactor = decimal.Zero

	_, err := AmpRamp(s)
	assert.Error(t, err)
}

func TestSwapVsAddRemove_NeedsThreeTokens(t *testing.T) {
	s := DefaultSetup()
	s.Balances = s.Balances[:2]
	s.Params.TokenCount = 2

	_, err := SwapVsAddRemove(s)
	assert.ErrorIs(t, err, pool.ErrInvalidInput)
}

func TestSetup_NewPoolValidatesBalances(t *testing.T) {
	s := DefaultSetup()
	s.Balances = s.Balances[:2]

	_, err := s.NewPool()
	assert.ErrorIs(t, err, pool.ErrInvalidInput)
}

func TestRunAll(t *testing.T) {
	list := Scenarios()
	results, err := RunAll(context.Background(), DefaultSetup(), list)
	require.NoError(t, err)

	require.Len(t, results, len(list))
	for i, c := range results {
		assert.Equal(t, list[i].Name, c.Name)
	}
}

func TestRunAll_ReportsFailingScenario(t *testing.T) {
	s := DefaultSetup()
	s.Params.AmpFactor = decimal.Zero
	amp, ok := Lookup("amp_ramp")
	require.True(t, ok)

	_, err := RunAll(context.Background(), s, []Scenario{amp})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amp_ramp")
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(Scenarios()))
	assert.Contains(t, names, "one_vs_two_add")
	assert.IsIncreasing(t, names)

	_, ok := Lookup("nope")
	assert.False(t, ok)
}

func fastFrontrunSetup() FrontrunSetup {
	f := DefaultFrontrunSetup()
	f.SearchStep = d("0.5")
	return f
}

func TestFrontrun_SmallAttackLoses(t *testing.T) {
	f := DefaultFrontrunSetup()

	attempt, err := f.Frontrun(d("1000"), d("1000"))
	require.NoError(t, err)

	assert.True(t, attempt.Profit.IsNegative())
	assert.True(t, attempt.VictimOutput.IsPositive())
}

func TestProfitabilityThreshold(t *testing.T) {
	f := fastFrontrunSetup()

	threshold, ok, err := f.ProfitabilityThreshold(d("1000"))
	require.NoError(t, err)
	require.True(t, ok)
	assertNear(t, "1477891.880035400390625", threshold, "0.000000001")

	_, ok, err = f.ProfitabilityThreshold(d("500"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	tests := []struct {
		step string
		want string
	}{
		{"0.5", "500"},
		{"0.25", "750"},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			f := DefaultFrontrunSetup()
			f.SearchStep = d(tt.step)

			report, err := f.Search()
			require.NoError(t, err)

			assertNear(t, tt.want, report.MaxSafeSwap, "0.000000001")
			require.Len(t, report.Probes, 2)
			assert.True(t, report.Probes[0].Exploitable)
			assert.False(t, report.Probes[1].Exploitable)
			assert.True(t, report.Threshold.Equal(report.Probes[0].FrontrunAmount))
		})
	}
}

func TestProfitabilityThreshold_MaxSteps(t *testing.T) {
	f := fastFrontrunSetup()
	f.MaxSteps = 1

	_, _, err := f.ProfitabilityThreshold(d("500"))
	assert.ErrorIs(t, err, ErrSearchExhausted)
}

func TestSearch_MaxProbes(t *testing.T) {
	f := fastFrontrunSetup()
	f.MaxProbes = 1

	report, err := f.Search()
	require.ErrorIs(t, err, ErrSearchExhausted)
	require.Len(t, report.Probes, 1)
	assert.True(t, report.Probes[0].Exploitable)
	assertNear(t, "1000", report.Probes[0].SwapAmount, "0.000000001")
	assertNear(t, "1477891.880035400390625", report.Probes[0].FrontrunAmount, "0.000000001")
	assert.True(t, report.MaxSafeSwap.IsZero())
}

func TestFrontrunSetup_Validation(t *testing.T) {
	f := DefaultFrontrunSetup()
	f.SearchStep = d("1")
	_, err := f.Search()
	assert.ErrorIs(t, err, pool.ErrInvalidInput)

	f = DefaultFrontrunSetup()
	_, _, err = f.ProfitabilityThreshold(decimal.Zero)
	assert.ErrorIs(t, err, pool.ErrInvalidInput)
}
