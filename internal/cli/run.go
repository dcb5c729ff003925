package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pgvanniekerk/ezrender/internal/config"
	"github.com/pgvanniekerk/ezrender/internal/logger"
	"github.com/spf13/cobra"
)

var (
	frameCount  int
	frameRate   float64
	producers   int
	outputPath  string
	metricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless render session",
	Long: `Run a headless render session. Producers post frames at a fixed rate while a
simulated host surface toggles between visible and hidden. Frames dequeued while
the surface is hidden are discarded and their commands recycled. The final canvas
is written as a PNG.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&frameCount, "frames", 0, "frames per producer (0 runs until interrupted)")
	runCmd.Flags().Float64Var(&frameRate, "rate", 0, "frames per second, per producer")
	runCmd.Flags().IntVar(&producers, "producers", 0, "number of concurrent frame producers")
	runCmd.Flags().StringVar(&outputPath, "output", "", "PNG file for the final canvas (empty skips)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return err
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(cfg, lg)
	s.watch(loader, logLevel != "")

	return s.run(ctx, cmd.OutOrStdout())
}

// applyRunFlags overrides config values with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("frames") {
		cfg.Frames.Count = frameCount
	}
	if flags.Changed("rate") {
		cfg.Frames.Rate = frameRate
	}
	if flags.Changed("producers") {
		cfg.Frames.Producers = producers
	}
	if flags.Changed("output") {
		cfg.Output = outputPath
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
}
