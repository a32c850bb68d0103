package experiments

import (
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/depth-pool/internal/invariant"
	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrSearchExhausted is returned when a frontrun search takes more steps
// than allowed.
var ErrSearchExhausted = errors.New("frontrun search exhausted")

const DefaultMaxSteps = 10000

// FrontrunSetup describes a balanced two-token pool and how to search it for
// sandwich attacks: the attacker swaps token 0 for token 1 ahead of a victim
// doing the same, then swaps everything back.
type FrontrunSetup struct {
	Base          decimal.Decimal
	AmpFactor     decimal.Decimal
	LPFee         decimal.Decimal
	GovernanceFee decimal.Decimal
	Tolerance     decimal.Decimal
	// SearchStep is the relative growth of each search step (0.01 = 1%).
	SearchStep decimal.Decimal
	// AbortFactor ends a threshold search once the victim receives less than
	// AbortFactor times its input.
	AbortFactor decimal.Decimal
	// MaxSteps bounds each threshold search (DefaultMaxSteps if zero).
	MaxSteps int
	// MaxProbes bounds the victim sizes Search visits (DefaultMaxSteps if zero).
	MaxProbes int
	Logger    logrus.FieldLogger
}

// DefaultFrontrunSetup is a 1,000,000/1,000,000 pool at A = 10 with a
// 3 bps LP fee and a 1 bps governance fee.
func DefaultFrontrunSetup() FrontrunSetup {
	return FrontrunSetup{
		Base:          decimal.NewFromInt(1_000_000),
		AmpFactor:     decimal.NewFromInt(10),
		LPFee:         decimal.New(3, -4),
		GovernanceFee: decimal.New(1, -4),
		Tolerance:     decimal.New(1, -6),
		SearchStep:    decimal.New(1, -2),
		AbortFactor:   decimal.New(1, -8),
	}
}

func (f FrontrunSetup) setup() Setup {
	return Setup{
		Balances: []decimal.Decimal{f.Base, f.Base},
		Params: pool.Params{
			TokenCount:    2,
			AmpFactor:     f.AmpFactor,
			LPFee:         f.LPFee,
			GovernanceFee: f.GovernanceFee,
			Tolerance:     f.Tolerance,
		},
		Logger: f.Logger,
	}
}

func (f FrontrunSetup) validate() error {
	if !f.Base.IsPositive() {
		return fmt.Errorf("%w: base balance must be positive, got %s", pool.ErrInvalidInput, f.Base)
	}
	if !f.SearchStep.IsPositive() || f.SearchStep.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: search step must be in (0, 1), got %s", pool.ErrInvalidInput, f.SearchStep)
	}
	if f.AbortFactor.IsNegative() {
		return fmt.Errorf("%w: abort factor must be non-negative, got %s", pool.ErrInvalidInput, f.AbortFactor)
	}
	return nil
}

func (f FrontrunSetup) maxSteps() int {
	if f.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return f.MaxSteps
}

func (f FrontrunSetup) maxProbes() int {
	if f.MaxProbes <= 0 {
		return DefaultMaxSteps
	}
	return f.MaxProbes
}

// FrontrunAttempt is the outcome of one sandwich.
type FrontrunAttempt struct {
	FrontrunAmount decimal.Decimal
	// Profit is what the attacker gets back minus what it put in, in token 0.
	Profit       decimal.Decimal
	VictimOutput decimal.Decimal
}

// Frontrun sandwiches a victim swap of swapAmount with an attacker swap of
// frontrunAmount on a fresh pool.
func (f FrontrunSetup) Frontrun(swapAmount, frontrunAmount decimal.Decimal) (FrontrunAttempt, error) {
	p, err := f.setup().NewPool()
	if err != nil {
		return FrontrunAttempt{}, err
	}
	pre, err := swapOne(p, 0, frontrunAmount, 1)
	if err != nil {
		return FrontrunAttempt{}, fmt.Errorf("frontrun: %w", err)
	}
	victim, err := swapOne(p, 0, swapAmount, 1)
	if err != nil {
		return FrontrunAttempt{}, fmt.Errorf("victim swap: %w", err)
	}
	post, err := swapOne(p, 1, pre.Amount, 0)
	if err != nil {
		return FrontrunAttempt{}, fmt.Errorf("backrun: %w", err)
	}
	return FrontrunAttempt{
		FrontrunAmount: frontrunAmount,
		Profit:         post.Amount.Sub(frontrunAmount),
		VictimOutput:   victim.Amount,
	}, nil
}

// ProfitabilityThreshold finds the smallest profitable frontrun amount for a
// victim swap, growing the attack from swapAmount by SearchStep each step.
// It reports false if the victim's output collapses before any attack turns
// a profit.
func (f FrontrunSetup) ProfitabilityThreshold(swapAmount decimal.Decimal) (decimal.Decimal, bool, error) {
	if err := f.validate(); err != nil {
		return decimal.Zero, false, err
	}
	if !swapAmount.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("%w: swap amount must be positive, got %s", pool.ErrInvalidInput, swapAmount)
	}
	growth := decimal.NewFromInt(1).Add(f.SearchStep)
	floor := invariant.Mul(swapAmount, f.AbortFactor)
	frontrunAmount := swapAmount
	for i := 0; i < f.maxSteps(); i++ {
		attempt, err := f.Frontrun(swapAmount, frontrunAmount)
		if err != nil {
			return decimal.Zero, false, err
		}
		if attempt.Profit.IsPositive() {
			return frontrunAmount, true, nil
		}
		if attempt.VictimOutput.LessThan(floor) {
			return decimal.Zero, false, nil
		}
		frontrunAmount = invariant.Mul(frontrunAmount, growth)
	}
	return decimal.Zero, false, fmt.Errorf("%w: no threshold for swap %s after %d steps", ErrSearchExhausted, swapAmount, f.maxSteps())
}

// Probe is one victim size visited by Search.
type Probe struct {
	SwapAmount decimal.Decimal
	// FrontrunAmount is the profitability threshold, zero if not exploitable.
	FrontrunAmount decimal.Decimal
	Exploitable    bool
}

// FrontrunReport is the outcome of Search.
type FrontrunReport struct {
	Probes []Probe
	// MaxSafeSwap is the largest victim swap found not to be exploitable.
	MaxSafeSwap decimal.Decimal
	// Threshold is the smallest profitable attack on the next larger swap.
	Threshold decimal.Decimal
}

// Search walks victim sizes starting at a thousandth of the pool balance,
// shrinking them while they are exploitable and growing them while they
// are not, until it finds the largest unexploitable swap.
func (f FrontrunSetup) Search() (FrontrunReport, error) {
	var report FrontrunReport
	if err := f.validate(); err != nil {
		return report, err
	}
	log := f.setup().logger()
	progress := rate.Sometimes{Interval: 5 * time.Second}
	one := decimal.NewFromInt(1)

	swapAmount := invariant.Mul(f.Base, decimal.New(1, -3))
	threshold, exploitable, err := f.ProfitabilityThreshold(swapAmount)
	if err != nil {
		return report, err
	}
	// shrink while exploitable, grow otherwise
	factor := one.Add(f.SearchStep)
	if exploitable {
		factor = one.Sub(f.SearchStep)
	}
	shrinking := factor.LessThan(one)

	for {
		report.Probes = append(report.Probes, Probe{SwapAmount: swapAmount, FrontrunAmount: threshold, Exploitable: exploitable})
		progress.Do(func() {
			log.WithFields(logrus.Fields{
				"swap_amount": swapAmount.StringFixed(4),
				"exploitable": exploitable,
				"probes":      len(report.Probes),
			}).Info("frontrun search progress")
		})

		if shrinking && !exploitable {
			report.MaxSafeSwap = swapAmount
			report.Threshold = report.Probes[len(report.Probes)-2].FrontrunAmount
			return report, nil
		}
		if !shrinking && exploitable {
			report.MaxSafeSwap = report.Probes[len(report.Probes)-2].SwapAmount
			report.Threshold = threshold
			return report, nil
		}
		if len(report.Probes) >= f.maxProbes() {
			return report, fmt.Errorf("%w: no unexploitable swap size after %d probes", ErrSearchExhausted, len(report.Probes))
		}

		swapAmount = invariant.Mul(swapAmount, factor)
		threshold, exploitable, err = f.ProfitabilityThreshold(swapAmount)
		if err != nil {
			return report, err
		}
	}
}
