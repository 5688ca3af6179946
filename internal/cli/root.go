package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/charti/config"
	"github.com/rustyeddy/charti/exchange"
	_ "github.com/rustyeddy/charti/exchange/all"
	"github.com/rustyeddy/charti/internal/logging"
)

// RootConfig holds the flags of the root command and the settings resolved
// from them.
type RootConfig struct {
	ConfigPath string
	LogLevel   string

	ListExchanges bool
	ListPairs     string
	Download      bool

	Pair       string
	Exchange   string
	StartDate  string
	EndDate    string
	Intervals  []string
	OutputFile string
	Format     string
	BatchSize  int
	RateLimit  bool
	BaseURL    string
	Timeout    time.Duration

	cfg *config.Config
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "charti",
		Short: "Charti: Cryptocurrency chart downloader",
		Long: `Charti downloads historical OHLCV candles for a cryptocurrency pair
from an exchange and saves them as JSON (or CSV, YAML, SQLite).

Examples:
  charti --list-exchanges
  charti --list-pairs binance
  charti --download --pair BTC/USDT --exchange binance \
    --start-date 2023-01-01 --end-date 2023-01-31 --intervals 1d 1h`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (YAML or JSON, optional)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")

	f := cmd.Flags()
	f.BoolVar(&rc.ListExchanges, "list-exchanges", false, "List all supported exchanges")
	f.StringVar(&rc.ListPairs, "list-pairs", "", "List all trading pairs for a specific exchange")
	f.BoolVar(&rc.Download, "download", false, "Download chart data")

	f.StringVar(&rc.Pair, "pair", "", "Trading pair (e.g. 'BTC/USDT')")
	f.StringVar(&rc.Exchange, "exchange", "", "Exchange name (e.g. 'binance')")
	f.StringVar(&rc.StartDate, "start-date", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&rc.EndDate, "end-date", "", "End date (YYYY-MM-DD)")
	f.StringSliceVar(&rc.Intervals, "intervals", nil, "Time intervals (e.g. '1d', '1h'); default 1d")
	f.StringVar(&rc.OutputFile, "output-file", "", "Output file name (default chart_data.json)")
	f.StringVar(&rc.Format, "format", "", "Output format: json|csv|yaml|sqlite (default: from file extension)")
	f.IntVar(&rc.BatchSize, "batch-size", 0, "Candles requested per call (default 500)")
	f.BoolVar(&rc.RateLimit, "rate-limit", true, "Pace requests to the exchange's public rate limit")
	f.StringVar(&rc.BaseURL, "base-url", "", "Override the exchange REST base URL (for testing)")
	f.DurationVar(&rc.Timeout, "timeout", 0, "HTTP timeout per request (default 30s)")

	cmd.MarkFlagsMutuallyExclusive("list-exchanges", "list-pairs", "download")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.setup(cmd)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		switch {
		case rc.ListExchanges:
			listExchanges(cmd.OutOrStdout())
			return nil
		case rc.ListPairs != "":
			listPairs(cmd.Context(), cmd.OutOrStdout(), rc, rc.ListPairs)
			return nil
		case rc.Download:
			return runDownload(cmd, rc, args)
		default:
			return cmd.Help()
		}
	}

	// Subcommands
	cmd.AddCommand(
		newConfigCmd(),
		newVersionCmd(),
	)

	return cmd
}

// setup resolves configuration with precedence flag > env > file > default
// and builds the logger.
func (rc *RootConfig) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}

	cfg := config.Default()
	if rc.ConfigPath != "" {
		var err error
		cfg, err = config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv, exchange.IDs()); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("intervals") {
		cfg.Download.Intervals = rc.Intervals
	}
	if flags.Changed("output-file") {
		cfg.Download.OutputFile = rc.OutputFile
	}
	if flags.Changed("format") {
		cfg.Download.Format = rc.Format
	}
	if flags.Changed("batch-size") {
		cfg.Download.BatchSize = rc.BatchSize
	}
	if flags.Changed("rate-limit") {
		cfg.Exchange.RateLimit = rc.RateLimit
	}
	if flags.Changed("timeout") {
		cfg.Exchange.Timeout = rc.Timeout.String()
	}
	if rc.LogLevel != "" {
		cfg.Log.Level = rc.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	rc.cfg = cfg
	rc.log = log
	return nil
}

// exchangeOptions builds the client options for exchange id.
func (rc *RootConfig) exchangeOptions(id string) (exchange.Options, error) {
	timeout, err := rc.cfg.Exchange.ParseTimeout()
	if err != nil {
		return exchange.Options{}, err
	}

	base := rc.BaseURL
	if base == "" {
		base = rc.cfg.Exchange.BaseURL(id)
	}

	return exchange.Options{
		BaseURL:   base,
		Timeout:   timeout,
		RateLimit: rc.cfg.Exchange.RateLimit,
	}, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
