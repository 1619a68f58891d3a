package scan

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchwatch/patchwatch/internal/findings"
	"github.com/patchwatch/patchwatch/internal/gitmeta"
	"github.com/patchwatch/patchwatch/internal/pyscan"
	"github.com/patchwatch/patchwatch/internal/report"
	"github.com/patchwatch/patchwatch/internal/selftest"
	"github.com/patchwatch/patchwatch/pkg/shared"
	"github.com/patchwatch/patchwatch/pkg/shared/config"
	cmderrors "github.com/patchwatch/patchwatch/pkg/shared/errors"
	"github.com/patchwatch/patchwatch/pkg/shared/files"
	"github.com/patchwatch/patchwatch/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	RepoRoot        string
	OutputDir       string
	Timestamp       string
	ProjectPackages []string
	ExcludeDirs     []string
	ExcludeGlobs    []string
	ContextLines    int
	WithGit         bool
	Strict          bool
	SelfTest        bool
	Verbose         bool
}

var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning the current repository with defaults
  patchwatch scan

  # Scanning a repository with git blame enrichment and strict parsing
  patchwatch scan --repo-root /path/to/repo --with-git --strict

  # Scanning with explicit owned packages and extra exclusions
  patchwatch scan --project-packages mypkg tools --exclude-globs 'external/**'

  # Running the built-in detection self-test
  patchwatch scan --self-test`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--repo-root PATH] [--output-dir PATH] [--with-git] [--strict] [--self-test]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Scan a Python repository for monkey-patch-like mutations",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if scanOptions.Verbose && AppConfig != nil {
		AppConfig.Logger.Level = "debug"
	}
	logger := logger.NewLogger(AppConfig, "core-scan")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if scanOptions.SelfTest {
		if err := selftest.Run(ctx, logger); err != nil {
			logger.Error("self-test failed", "error", err)
			return err
		}
		logger.Info("self-test passed")
		return nil
	}

	if err := validateScanArgs(&scanOptions); err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return err
	}

	repoRoot, err := files.ExpandPath(scanOptions.RepoRoot)
	if err != nil {
		return err
	}

	pkgs := map[string]struct{}{}
	if len(scanOptions.ProjectPackages) > 0 {
		for _, name := range scanOptions.ProjectPackages {
			pkgs[name] = struct{}{}
		}
	} else {
		pkgs, err = pyscan.DetectProjectPackages(repoRoot)
		if err != nil {
			logger.Warn("failed to auto-detect project packages", "error", err)
			pkgs = map[string]struct{}{}
		}
	}

	excludeDirs := scanOptions.ExcludeDirs
	if len(excludeDirs) == 0 {
		excludeDirs = config.GetExcludeDirs(AppConfig)
	}
	excludeGlobs := scanOptions.ExcludeGlobs
	if len(excludeGlobs) == 0 {
		excludeGlobs = config.GetExcludeGlobs(AppConfig)
	}
	contextLines := scanOptions.ContextLines
	if contextLines <= 0 {
		contextLines = config.GetContextLines(AppConfig)
	}

	paths, err := pyscan.PythonFiles(repoRoot, excludeDirs, excludeGlobs)
	if err != nil {
		logger.Error("failed to walk repository", "error", err)
		return err
	}
	logger.Debug("collected python files", "count", len(paths))

	opts := pyscan.Options{
		RepoRoot:         repoRoot,
		ContextLines:     contextLines,
		NearImportWindow: config.GetNearImportWindow(AppConfig),
		Strict:           scanOptions.Strict,
	}

	var all []findings.Finding
	parseFailures := 0
	for _, path := range paths {
		found, err := pyscan.ScanFile(ctx, opts, path)
		if err != nil {
			if errors.Is(err, pyscan.ErrParse) {
				parseFailures++
				logger.Warn("failed to parse file", "file", path, "error", err)
				continue
			}
			logger.Error("failed to scan file", "file", path, "error", err)
			return err
		}
		all = append(all, found...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].File != all[j].File {
			return all[i].File < all[j].File
		}
		return all[i].Line < all[j].Line
	})

	var blamer *gitmeta.Blamer
	if scanOptions.WithGit {
		blamer, err = gitmeta.NewBlamer(repoRoot, logger)
		if err != nil {
			logger.Warn("git metadata unavailable", "error", err)
			blamer = nil
		}
	}

	outputBase := resolveOutputBase(repoRoot, scanOptions.OutputDir)
	ts := scanOptions.Timestamp
	if ts == "" {
		ts = shared.Timestamp(time.Now())
	}
	outputDir := filepath.Join(outputBase, ts)

	writer := &report.Writer{
		OutputDir:       outputDir,
		RepoRoot:        repoRoot,
		ProjectPackages: pkgs,
		Blamer:          blamer,
		Now:             time.Now(),
		Logger:          logger,
	}
	if err := writer.Write(all); err != nil {
		logger.Error("failed to write reports", "error", err)
		return err
	}

	logger.Info("scan completed", "findings", len(all), "files", len(paths), "output", outputDir)
	if scanOptions.Strict && parseFailures > 0 {
		return cmderrors.NewCommandErrorf(1, "strict mode: %d file(s) failed to parse", parseFailures)
	}
	return nil
}

// resolveOutputBase picks the requested or configured output base and anchors
// relative bases inside the scanned repository, not the CWD.
func resolveOutputBase(repoRoot, flagValue string) string {
	base := flagValue
	if base == "" {
		base = config.GetScanOutputBase(AppConfig)
	}
	if !filepath.IsAbs(base) {
		base = filepath.Join(repoRoot, base)
	}
	return base
}

func init() {
	ScanCmd.Flags().StringVar(&scanOptions.RepoRoot, "repo-root", ".", "repository root directory")
	ScanCmd.Flags().StringVar(&scanOptions.OutputDir, "output-dir", "", "base output directory for timestamped runs")
	ScanCmd.Flags().StringVar(&scanOptions.Timestamp, "timestamp", "", "shared timestamp for outputs (YYYY-MM-DD_HHMM)")
	ScanCmd.Flags().StringSliceVar(&scanOptions.ProjectPackages, "project-packages", nil, "owned package names (defaults to auto-detect)")
	ScanCmd.Flags().StringSliceVar(&scanOptions.ExcludeDirs, "exclude-dirs", nil, "directory names to exclude")
	ScanCmd.Flags().StringSliceVar(&scanOptions.ExcludeGlobs, "exclude-globs", nil, "glob patterns to exclude")
	ScanCmd.Flags().IntVar(&scanOptions.ContextLines, "context-lines", 0, "lines of context around findings")
	ScanCmd.Flags().BoolVar(&scanOptions.WithGit, "with-git", false, "include git blame metadata if available")
	ScanCmd.Flags().BoolVar(&scanOptions.Strict, "strict", false, "disable regex fallback and fail on parse errors")
	ScanCmd.Flags().BoolVar(&scanOptions.SelfTest, "self-test", false, "run internal self-test and exit")
	ScanCmd.Flags().BoolVar(&scanOptions.Verbose, "verbose", false, "enable debug logging")
}
