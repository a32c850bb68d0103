package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/caarlos0/env/v6"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}
	Pool struct {
		AmpFactor     decimal.Decimal `env:"POOL_AMP_FACTOR" envDefault:"1.313"`
		LPFee         decimal.Decimal `env:"POOL_LP_FEE" envDefault:"0.10"`
		GovernanceFee decimal.Decimal `env:"POOL_GOVERNANCE_FEE" envDefault:"0.20"`
		Tolerance     decimal.Decimal `env:"POOL_TOLERANCE" envDefault:"0.000000005"`
		MaxIterations int             `env:"POOL_MAX_ITERATIONS" envDefault:"50"`
		Balances      balanceList     `env:"POOL_BALANCES" envDefault:"150,100,50"`
	}
	Frontrun struct {
		Base          decimal.Decimal `env:"FRONTRUN_BASE" envDefault:"1000000"`
		AmpFactor     decimal.Decimal `env:"FRONTRUN_AMP_FACTOR" envDefault:"10"`
		LPFee         decimal.Decimal `env:"FRONTRUN_LP_FEE" envDefault:"0.0003"`
		GovernanceFee decimal.Decimal `env:"FRONTRUN_GOVERNANCE_FEE" envDefault:"0.0001"`
		Tolerance     decimal.Decimal `env:"FRONTRUN_TOLERANCE" envDefault:"0.000001"`
		SearchStep    decimal.Decimal `env:"FRONTRUN_SEARCH_STEP" envDefault:"0.01"`
	}
}

type balanceList []decimal.Decimal

// Load reads the configuration from the environment. Call godotenv first to
// pick up a .env file.
func Load() (Config, error) {
	var c Config
	if err := env.ParseWithFuncs(&c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(decimal.Decimal{}): func(v string) (interface{}, error) {
			return decimal.NewFromString(strings.TrimSpace(v))
		},
		reflect.TypeOf(balanceList{}): func(v string) (interface{}, error) {
			var balances balanceList
			for _, s := range strings.Split(v, ",") {
				b, err := decimal.NewFromString(strings.TrimSpace(s))
				if err != nil {
					return nil, err
				}
				balances = append(balances, b)
			}
			return balances, nil
		}}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	one := decimal.NewFromInt(1)

	checkFees := func(prefix string, lpFee, governanceFee decimal.Decimal) {
		if lpFee.IsNegative() || lpFee.GreaterThanOrEqual(one) {
			err = multierr.Append(err, fmt.Errorf("%s_LP_FEE must be in [0, 1), got %s", prefix, lpFee))
		}
		if governanceFee.IsNegative() || governanceFee.GreaterThanOrEqual(one) {
			err = multierr.Append(err, fmt.Errorf("%s_GOVERNANCE_FEE must be in [0, 1), got %s", prefix, governanceFee))
		}
		if lpFee.Add(governanceFee).GreaterThanOrEqual(one) {
			err = multierr.Append(err, fmt.Errorf("%s total fee must be below 1, got %s", prefix, lpFee.Add(governanceFee)))
		}
	}

	if c.Pool.AmpFactor.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("POOL_AMP_FACTOR must be non-negative, got %s", c.Pool.AmpFactor))
	}
	checkFees("POOL", c.Pool.LPFee, c.Pool.GovernanceFee)
	if !c.Pool.Tolerance.IsPositive() {
		err = multierr.Append(err, fmt.Errorf("POOL_TOLERANCE must be positive, got %s", c.Pool.Tolerance))
	}
	if c.Pool.MaxIterations <= 0 {
		err = multierr.Append(err, fmt.Errorf("POOL_MAX_ITERATIONS must be positive, got %d", c.Pool.MaxIterations))
	}
	if len(c.Pool.Balances) < 2 {
		err = multierr.Append(err, fmt.Errorf("POOL_BALANCES needs at least 2 tokens, got %d", len(c.Pool.Balances)))
	}
	for i, b := range c.Pool.Balances {
		if !b.IsPositive() {
			err = multierr.Append(err, fmt.Errorf("POOL_BALANCES[%d] must be positive, got %s", i, b))
		}
	}

	if !c.Frontrun.Base.IsPositive() {
		err = multierr.Append(err, fmt.Errorf("FRONTRUN_BASE must be positive, got %s", c.Frontrun.Base))
	}
	if c.Frontrun.AmpFactor.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("FRONTRUN_AMP_FACTOR must be non-negative, got %s", c.Frontrun.AmpFactor))
	}
	checkFees("FRONTRUN", c.Frontrun.LPFee, c.Frontrun.GovernanceFee)
	if !c.Frontrun.Tolerance.IsPositive() {
		err = multierr.Append(err, fmt.Errorf("FRONTRUN_TOLERANCE must be positive, got %s", c.Frontrun.Tolerance))
	}
	if !c.Frontrun.SearchStep.IsPositive() || c.Frontrun.SearchStep.GreaterThanOrEqual(one) {
		err = multierr.Append(err, fmt.Errorf("FRONTRUN_SEARCH_STEP must be in (0, 1), got %s", c.Frontrun.SearchStep))
	}
	return err
}

// PoolParams builds the scenario pool parameters.
func (c Config) PoolParams() pool.Params {
	return pool.Params{
		TokenCount:    len(c.Pool.Balances),
		AmpFactor:     c.Pool.AmpFactor,
		LPFee:         c.Pool.LPFee,
		GovernanceFee: c.Pool.GovernanceFee,
		Tolerance:     c.Pool.Tolerance,
		MaxIterations: c.Pool.MaxIterations,
	}
}

// Balances returns a copy of the scenario seed balances.
func (c Config) Balances() []decimal.Decimal {
	return append([]decimal.Decimal(nil), c.Pool.Balances...)
}
