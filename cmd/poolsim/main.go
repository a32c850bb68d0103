package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/aman-zulfiqar/depth-pool/internal/config"
	"github.com/aman-zulfiqar/depth-pool/internal/experiments"
	"github.com/aman-zulfiqar/depth-pool/internal/pool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Debugf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Debugf("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	loadEnv(logger)

	mode := flag.String("mode", "scenarios", "scenarios | frontrun | quote")
	scenario := flag.String("scenario", "all", "scenario name or all (see -list)")
	list := flag.Bool("list", false, "list scenarios and exit")
	in := flag.Int("in", 1, "quote: input token index")
	out := flag.Int("out", 0, "quote: output token index")
	amt := flag.String("amt", "10", "quote: input amount")
	slippageBps := flag.Int("slippage-bps", 100, "quote: slippage in bps (e.g. 100 = 1%)")
	maxImpactBps := flag.Int("max-impact-bps", 500, "quote: maximum price impact in bps")
	flag.Parse()

	if *list {
		for _, name := range experiments.Names() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		fmt.Println("invalid LOG_LEVEL:", cfg.App.LogLevel)
		os.Exit(2)
	}
	logger.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	setup := experiments.Setup{
		Balances: cfg.Balances(),
		Params:   cfg.PoolParams(),
		Logger:   logger,
	}

	switch *mode {
	case "scenarios":
		var selected []experiments.Scenario
		if *scenario == "all" {
			selected = experiments.Scenarios()
		} else {
			sc, ok := experiments.Lookup(*scenario)
			if !ok {
				fmt.Printf("unknown -scenario %q (use one of: %s)\n", *scenario, strings.Join(experiments.Names(), ", "))
				os.Exit(2)
			}
			selected = []experiments.Scenario{sc}
		}
		results, err := experiments.RunAll(ctx, setup, selected)
		if err != nil {
			fmt.Println("scenarios failed:", err)
			os.Exit(1)
		}
		for _, c := range results {
			printComparison(c)
		}
	case "frontrun":
		f := experiments.DefaultFrontrunSetup()
		f.Base = cfg.Frontrun.Base
		f.AmpFactor = cfg.Frontrun.AmpFactor
		f.LPFee = cfg.Frontrun.LPFee
		f.GovernanceFee = cfg.Frontrun.GovernanceFee
		f.Tolerance = cfg.Frontrun.Tolerance
		f.SearchStep = cfg.Frontrun.SearchStep
		f.Logger = logger
		report, err := f.Search()
		if err != nil {
			fmt.Println("frontrun search failed:", err)
			os.Exit(1)
		}
		printFrontrun(f, report)
	case "quote":
		amount, err := decimal.NewFromString(*amt)
		if err != nil || !amount.IsPositive() {
			fmt.Println("invalid -amt (must be a decimal > 0)")
			os.Exit(2)
		}
		if *slippageBps < 0 || *slippageBps > 10000 || *maxImpactBps < 0 || *maxImpactBps > 10000 {
			fmt.Println("invalid -slippage-bps or -max-impact-bps (use 0..10000)")
			os.Exit(2)
		}
		if err := quote(setup, *in, *out, amount, uint16(*slippageBps), uint16(*maxImpactBps)); err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
	default:
		fmt.Println("invalid -mode (use scenarios|frontrun|quote)")
		os.Exit(2)
	}
}

func quote(setup experiments.Setup, in, out int, amount decimal.Decimal, slippageBps, maxImpactBps uint16) error {
	p, err := setup.NewPool()
	if err != nil {
		return err
	}
	impact, err := p.PriceImpact(amount, in, out)
	if err != nil {
		return err
	}
	if err := pool.ValidatePriceImpact(impact, maxImpactBps); err != nil {
		return err
	}
	res, err := p.SwapExactInput([]pool.TokenAmount{{Index: in, Amount: amount}}, out, decimal.Zero)
	if err != nil {
		return err
	}
	fmt.Printf("amount_in=%s amount_out=%s min_out=%s price_impact=%s%% governance_mint=%s\n",
		amount, res.Amount.StringFixed(6), pool.ApplySlippage(res.Amount, slippageBps).StringFixed(6),
		impact.StringFixed(4), res.GovernanceMint.StringFixed(6))
	return nil
}

func printComparison(c experiments.Comparison) {
	fmt.Printf(">>> %s\n", c.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "operation\tamount\tgovernance mint\t")
	for _, r := range c.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", r.Label, r.Amount.StringFixed(6), r.GovernanceMint.StringFixed(6))
	}
	fmt.Fprintf(w, "difference\t%s\t%s\t\n", c.AmountDifference.StringFixed(6), c.GovernanceDifference.StringFixed(6))
	_ = w.Flush()
	fmt.Println()
}

func printFrontrun(f experiments.FrontrunSetup, r experiments.FrontrunReport) {
	hundred := decimal.NewFromInt(100)
	pct := func(v decimal.Decimal) string {
		return v.Mul(hundred).Div(f.Base).StringFixed(4)
	}
	for _, p := range r.Probes {
		if p.Exploitable {
			fmt.Printf("%s %% exploitable with %s %%\n", pct(p.SwapAmount), pct(p.FrontrunAmount))
		} else {
			fmt.Printf("%s %% is not exploitable\n", pct(p.SwapAmount))
		}
	}
	fmt.Println()
	fmt.Println("given:")
	fmt.Printf("  token count: 2\n")
	fmt.Printf("pool balances: %s each\n", f.Base)
	fmt.Printf("   amp factor: %s\n", f.AmpFactor)
	fmt.Printf("    total fee: %s bips\n", f.LPFee.Add(f.GovernanceFee).Mul(decimal.NewFromInt(10000)).StringFixed(0))
	fmt.Printf("then a swap of %s (%s %% of a pool balance) is unexploitable\n", r.MaxSafeSwap.StringFixed(2), pct(r.MaxSafeSwap))
}
