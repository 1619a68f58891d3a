package classify

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/patchwatch/patchwatch/internal/risk"
	"github.com/patchwatch/patchwatch/pkg/shared/config"
	"github.com/patchwatch/patchwatch/pkg/shared/logger"
)

// RunOptionsClassify holds the arguments for the classify command.
type RunOptionsClassify struct {
	ScanDir string
}

var (
	AppConfig            *config.Config
	classifyOptions      RunOptionsClassify
	exampleClassifyUsage = `  # Classifying the latest scan under the default output base
  patchwatch classify

  # Classifying a specific scan directory
  patchwatch classify --scan-dir .patchwatch/monkey_patch/2026-08-26_0930`
)

// ClassifyCmd represents the classify command.
var ClassifyCmd = &cobra.Command{
	Use:                   "classify [--scan-dir PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleClassifyUsage,
	Short:                 "Classify the latest scan's findings into risk levels",
	Long: `Reads the latest scan's report.json and writes a risk-classified summary
(RISK_SUMMARY.md and RISK_SUMMARY.json) into the same folder. Reporting only;
the command never fails the build.`,
	RunE: runClassifyCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runClassifyCommand executes the classify command.
func runClassifyCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-classify")

	scanDir := classifyOptions.ScanDir
	if scanDir == "" {
		latest, err := risk.LatestScanDir(config.GetScanOutputBase(AppConfig))
		if err != nil {
			logger.Error("failed to locate latest scan", "error", err)
			return err
		}
		scanDir = latest
	}

	all, err := risk.LoadFindings(filepath.Join(scanDir, "report.json"))
	if err != nil {
		logger.Error("failed to load findings", "error", err)
		return err
	}

	agg := risk.Build(all)
	if err := risk.WriteOutputs(scanDir, agg); err != nil {
		logger.Error("failed to write risk summary", "error", err)
		return err
	}

	status := risk.StatusLine{
		Status:        "OK",
		Dir:           scanDir,
		CountsByRisk:  agg.CountsByRisk,
		TopFiles:      agg.TopFiles,
		TopCategories: agg.TopCategories,
	}
	line, err := json.Marshal(status)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(line))

	logger.Info("classify completed", "dir", scanDir, "findings", len(all))
	return nil
}

func init() {
	ClassifyCmd.Flags().StringVar(&classifyOptions.ScanDir, "scan-dir", "", "scan directory to classify (defaults to latest)")
}
