package trend

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/patchwatch/patchwatch/internal/trend"
	"github.com/patchwatch/patchwatch/pkg/shared/config"
	cmderrors "github.com/patchwatch/patchwatch/pkg/shared/errors"
	"github.com/patchwatch/patchwatch/pkg/shared/files"
	"github.com/patchwatch/patchwatch/pkg/shared/logger"
)

// RunOptionsTrend holds the arguments for the trend command.
type RunOptionsTrend struct {
	BaseDir  string
	MaxScans int
	RecentN  int
	Verbose  bool
}

var (
	AppConfig         *config.Config
	trendOptions      RunOptionsTrend
	exampleTrendUsage = `  # Comparing the two latest scans under the default output base
  patchwatch trend

  # Limiting the overview to the last 5 of at most 10 loaded scans
  patchwatch trend --max-scans 10 --recent 5`
)

// TrendCmd represents the trend command.
var TrendCmd = &cobra.Command{
	Use:                   "trend [--base-dir PATH] [--max-scans N] [--recent N]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleTrendUsage,
	Short:                 "Summarize finding deltas across timestamped scans",
	RunE:                  runTrendCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runTrendCommand executes the trend command.
func runTrendCommand(cmd *cobra.Command, args []string) error {
	if trendOptions.Verbose && AppConfig != nil {
		AppConfig.Logger.Level = "debug"
	}
	logger := logger.NewLogger(AppConfig, "core-trend")

	if err := validateTrendArgs(&trendOptions); err != nil {
		logger.Error("invalid trend arguments", "error", err)
		return err
	}

	baseDir := trendOptions.BaseDir
	if baseDir == "" {
		baseDir = config.GetScanOutputBase(AppConfig)
	}
	baseDir, err := files.ExpandPath(baseDir)
	if err != nil {
		return err
	}

	scans := trend.FindScans(baseDir, logger)
	if len(scans) == 0 {
		logger.Warn("no scans found", "base_dir", baseDir)
		return cmderrors.NewCommandErrorf(1, "no scans found under %s", baseDir)
	}
	if len(scans) > trendOptions.MaxScans {
		scans = scans[len(scans)-trendOptions.MaxScans:]
	}

	summary := trend.BuildSummary(scans)
	latestDir := scans[len(scans)-1].Dir
	if err := trend.WriteOutputs(baseDir, latestDir, summary, trendOptions.RecentN, time.Now()); err != nil {
		logger.Error("failed to write trend outputs", "error", err)
		return err
	}

	if len(scans) < 2 {
		logger.Warn("only one scan present; wrote overview without deltas")
		return cmderrors.NewCommandErrorf(1, "only one scan present under %s", baseDir)
	}
	logger.Info("trend written", "base_dir", baseDir, "latest", latestDir)
	return nil
}

func init() {
	TrendCmd.Flags().StringVar(&trendOptions.BaseDir, "base-dir", "", "base directory with timestamped scans")
	TrendCmd.Flags().IntVar(&trendOptions.MaxScans, "max-scans", 20, "max scans to load (sorted by timestamp)")
	TrendCmd.Flags().IntVar(&trendOptions.RecentN, "recent", 5, "show a compact table for the last N scans")
	TrendCmd.Flags().BoolVar(&trendOptions.Verbose, "verbose", false, "enable debug logging")
}
