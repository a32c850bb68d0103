// Package amp schedules gradual changes of a pool's amplification factor.
package amp

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const MinAdjustmentWindow = 24 * time.Hour

var (
	MinValue              = decimal.NewFromInt(1)
	MaxValue              = decimal.NewFromInt(1_000_000)
	MaxRelativeAdjustment = decimal.NewFromInt(10)
)

var (
	ErrInvalidValue     = errors.New("invalid amp factor value")
	ErrInvalidTimestamp = errors.New("invalid amp factor timestamp")
)

// Schedule ramps the amplification factor linearly from an initial value to
// a target value between two points in time. A schedule created with value
// zero is pinned to the constant-product curve and cannot be ramped.
type Schedule struct {
	initial   decimal.Decimal
	initialTs time.Time
	target    decimal.Decimal
	targetTs  time.Time
}

// New returns a schedule that holds value indefinitely.
func New(value decimal.Decimal) (*Schedule, error) {
	if !value.IsZero() && !inRange(value) {
		return nil, fmt.Errorf("%w: %s is neither 0 nor within [%s, %s]", ErrInvalidValue, value, MinValue, MaxValue)
	}
	return &Schedule{initial: value, target: value}, nil
}

func inRange(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(MinValue) && v.LessThanOrEqual(MaxValue)
}

// Value is the amplification factor at ts.
func (s *Schedule) Value(ts time.Time) decimal.Decimal {
	if !ts.Before(s.targetTs) {
		return s.target
	}
	if ts.Before(s.initialTs) {
		return s.initial
	}
	elapsed := decimal.NewFromInt(int64(ts.Sub(s.initialTs)))
	window := decimal.NewFromInt(int64(s.targetTs.Sub(s.initialTs)))
	return s.initial.Add(s.target.Sub(s.initial).Mul(elapsed).Div(window))
}

// Target returns the value the schedule is heading to and when it gets there.
func (s *Schedule) Target() (decimal.Decimal, time.Time) {
	return s.target, s.targetTs
}

// SetTarget starts a ramp from the current value at now towards target,
// reached at targetTs. The window must be at least MinAdjustmentWindow long
// and the value may change by at most MaxRelativeAdjustment in either
// direction.
func (s *Schedule) SetTarget(now time.Time, target decimal.Decimal, targetTs time.Time) error {
	if !inRange(target) {
		return fmt.Errorf("%w: target %s is outside [%s, %s]", ErrInvalidValue, target, MinValue, MaxValue)
	}
	if targetTs.Before(now.Add(MinAdjustmentWindow)) {
		return fmt.Errorf("%w: target time %s is less than %s after %s",
			ErrInvalidTimestamp, targetTs.Format(time.RFC3339), MinAdjustmentWindow, now.Format(time.RFC3339))
	}

	current := s.Value(now)
	if current.LessThan(target) && current.Mul(MaxRelativeAdjustment).LessThan(target) {
		return fmt.Errorf("%w: increase from %s to %s exceeds %sx", ErrInvalidValue, current, target, MaxRelativeAdjustment)
	}
	if current.GreaterThan(target) && target.Mul(MaxRelativeAdjustment).LessThan(current) {
		return fmt.Errorf("%w: decrease from %s to %s exceeds %sx", ErrInvalidValue, current, target, MaxRelativeAdjustment)
	}

	s.initial = current
	s.initialTs = now
	s.target = target
	s.targetTs = targetTs
	return nil
}
