package suite

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchwatch/patchwatch/internal/suite"
	"github.com/patchwatch/patchwatch/pkg/shared"
	"github.com/patchwatch/patchwatch/pkg/shared/config"
	"github.com/patchwatch/patchwatch/pkg/shared/logger"
)

// RunOptionsSuite holds the arguments for the suite command.
type RunOptionsSuite struct {
	Timestamp   string
	StepTimeout string
	Heartbeat   string
	Live        bool
}

var (
	AppConfig         *config.Config
	suiteOptions      RunOptionsSuite
	exampleSuiteUsage = `  # Running the built-in suite (scan, classify, trend)
  patchwatch suite

  # Streaming step output live with a tighter per-step timeout
  patchwatch suite --live --step-timeout 5m

  # Reusing a timestamp shared with other tooling
  patchwatch suite --timestamp 2026-08-26_0930`
)

// SuiteCmd represents the suite command.
var SuiteCmd = &cobra.Command{
	Use:                   "suite [--timestamp TS] [--step-timeout D] [--heartbeat D] [--live]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleSuiteUsage,
	Short:                 "Run repository health steps sequentially, never aborting the chain",
	Long: `Runs the configured health steps one after another, always continuing to
the next step. Failures are logged to per-step error logs and recorded in a
final status summary; the command itself always exits 0.`,
	RunE: runSuiteCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runSuiteCommand executes the suite command.
func runSuiteCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-suite")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stepTimeout := suiteOptions.StepTimeout
	if stepTimeout == "" {
		stepTimeout = config.GetStepTimeout(AppConfig)
	}
	heartbeat := suiteOptions.Heartbeat
	if heartbeat == "" {
		heartbeat = config.GetHeartbeat(AppConfig)
	}
	timeout, err := time.ParseDuration(stepTimeout)
	if err != nil {
		logger.Error("invalid step timeout", "value", stepTimeout, "error", err)
		return err
	}
	hb, err := time.ParseDuration(heartbeat)
	if err != nil {
		logger.Error("invalid heartbeat", "value", heartbeat, "error", err)
		return err
	}

	ts := suiteOptions.Timestamp
	if ts == "" {
		ts = shared.Timestamp(time.Now())
	}

	var steps []suite.Step
	if AppConfig != nil && len(AppConfig.Suite.Steps) > 0 {
		steps, err = suite.StepsFromConfig(AppConfig.Suite.Steps)
		if err != nil {
			logger.Error("invalid suite configuration", "error", err)
			return err
		}
	} else {
		steps = suite.DefaultSteps(ts)
	}

	runner := &suite.Runner{
		LogDir:           filepath.Join(config.GetSuiteOutputBase(AppConfig), "logs", ts),
		DefaultTimeout:   timeout,
		DefaultHeartbeat: hb,
		Live:             suiteOptions.Live,
		Logger:           logger,
	}
	run, err := runner.Run(ctx, ts, steps)
	if err != nil {
		logger.Error("suite run failed", "error", err)
		return err
	}

	failed := 0
	for _, s := range run.Steps {
		if s.Status != suite.StatusOK && s.Status != suite.StatusSkipped {
			failed++
		}
	}
	// Per-step failures never fail the suite; status files carry the detail.
	logger.Info("suite completed", "run_id", run.RunID, "steps", len(run.Steps), "failed", failed, "log_dir", runner.LogDir)
	return nil
}

func init() {
	SuiteCmd.Flags().StringVar(&suiteOptions.Timestamp, "timestamp", "", "shared timestamp for outputs (YYYY-MM-DD_HHMM)")
	SuiteCmd.Flags().StringVar(&suiteOptions.StepTimeout, "step-timeout", "", "per-step timeout, e.g. 15m (0 disables)")
	SuiteCmd.Flags().StringVar(&suiteOptions.Heartbeat, "heartbeat", "", "heartbeat interval while steps run, e.g. 30s (0 disables)")
	SuiteCmd.Flags().BoolVar(&suiteOptions.Live, "live", false, "stream step output live to the console while writing logs")
}
