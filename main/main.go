package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	uniswap_v3_hedge "github.com/CoinSummer/uniswap-v3-hedge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/sugawarayuuta/sonnet"
)

const usage = `usage: hedge <command> [flags]

commands:
  import    cache swaps from a subgraph page (--input) or raw logs (--input, --block-times)
  metrics   liquidity delta sums of the cached swaps
  hedge     simulate the range following strategy
  bands     simulate the percent band model
  rolling   run the hedge scenarios over rolling windows
  maxloss   worst case loss of a range of --hysteresis spacings
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	configFile := flags.String("config", "", "config file")
	input := flags.String("input", "", "swaps file to import")
	blockTimes := flags.String("block-times", "", "json object of block number to timestamp, raw logs only")
	metricsFile := flags.String("metrics-file", "", "write prometheus metrics to this file on exit")
	flags.String("db-file", uniswap_v3_hedge.DefaultDBFile, "sqlite swap cache")
	flags.String("pool", "", "pool address")
	flags.Uint8("token0-decimals", 18, "token0 decimals, raw logs only")
	flags.Uint8("token1-decimals", 18, "token1 decimals, raw logs only")
	flags.Uint32("fee-tier", uint32(uniswap_v3_hedge.FeeAmountMedium), "pool fee tier in hundredths of a bip")
	flags.Int64("from", 0, "first swap timestamp")
	flags.Int64("to", 0, "last swap timestamp, 0 for all")
	flags.Int("hysteresis", uniswap_v3_hedge.DefaultHysteresis, "range half width in tick spacings, percent for bands")
	flags.Float64("slippage", 0, "slippage percent")
	flags.Float64("swap-fee", 0, "swap fee percent")
	flags.Float64("capital", uniswap_v3_hedge.DEFAULT_CAPITAL, "token1 committed to the first range")
	flags.Duration("window-length", uniswap_v3_hedge.DefaultWindowLength, "rolling window length")
	flags.Duration("rolling-time", uniswap_v3_hedge.DefaultRollingTime, "rolling window step")
	flags.String("scenarios", uniswap_v3_hedge.DefaultScenarios, "rolling scenarios, e.g. 2,5,10 or tight=2,wide=10")
	flags.String("log-level", "info", "log level")
	flags.Bool("log-json", false, "log as json")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[2:])

	cfg, err := uniswap_v3_hedge.LoadConfig(*configFile, flags)
	if err != nil {
		logrus.Fatal(err)
	}
	cfg.ConfigureLogging()

	registry := prometheus.NewRegistry()
	metrics := uniswap_v3_hedge.NewRunnerMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, command, cfg, metrics, *input, *blockTimes)
	if err != nil {
		logrus.Fatal(err)
	}
	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			logrus.Warnf("failed write metrics %s", err)
		}
	}
	out, err := sonnet.Marshal(result)
	if err != nil {
		logrus.Fatalf("encode result: %s", err)
	}
	fmt.Println(string(out))
}

func run(ctx context.Context, command string, cfg *uniswap_v3_hedge.Config, metrics *uniswap_v3_hedge.RunnerMetrics, input, blockTimes string) (interface{}, error) {
	if command == "maxloss" {
		return uniswap_v3_hedge.ComputeMaxLoss(cfg.Hysteresis, uniswap_v3_hedge.FeeFraction(uniswap_v3_hedge.FeeAmount(cfg.FeeTier))*100), nil
	}

	store, err := uniswap_v3_hedge.OpenSwapStore(cfg.DBFile)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	smt := uniswap_v3_hedge.NewSimulator(store, metrics)

	switch command {
	case "import":
		return importSwaps(smt, cfg, input, blockTimes)
	case "metrics":
		return smt.RunMetrics(cfg.Window())
	case "hedge":
		return smt.RunHedge(cfg.Window(), cfg.HedgeSettings())
	case "bands":
		return smt.RunBands(cfg.Window(), cfg.BandSettings())
	case "rolling":
		return smt.RunRolling(ctx, cfg.Window(), cfg.RollingSettings())
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func importSwaps(smt *uniswap_v3_hedge.Simulator, cfg *uniswap_v3_hedge.Config, input, blockTimes string) (interface{}, error) {
	if input == "" {
		return nil, fmt.Errorf("import needs --input")
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	var n int
	if blockTimes == "" {
		n, err = smt.ImportSubgraph(data)
	} else {
		var times []byte
		times, err = os.ReadFile(blockTimes)
		if err != nil {
			return nil, err
		}
		var pool *uniswap_v3_hedge.PoolConfig
		pool, err = cfg.PoolConfig()
		if err != nil {
			return nil, err
		}
		n, err = smt.ImportLogs(pool, data, times)
	}
	if err != nil {
		return nil, err
	}
	return map[string]int{"imported": n}, nil
}
