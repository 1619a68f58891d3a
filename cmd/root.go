package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/patchwatch/patchwatch/cmd/classify"
	"github.com/patchwatch/patchwatch/cmd/scan"
	"github.com/patchwatch/patchwatch/cmd/suite"
	"github.com/patchwatch/patchwatch/cmd/trend"
	"github.com/patchwatch/patchwatch/cmd/version"
	"github.com/patchwatch/patchwatch/pkg/shared/config"
	"github.com/patchwatch/patchwatch/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "patchwatch [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Patchwatch finds and tracks monkey patches in Python repositories.",
		Long: `Patchwatch statically scans Python repositories for monkey-patch-like
	mutations (module attribute reassignment, sys.modules injection, builtins and
	environment mutation, non-scoped test patches), classifies their risk and
	tracks trends across scans.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is patchwatch.yml)")
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(classify.ClassifyCmd)
	rootCmd.AddCommand(trend.TrendCmd)
	rootCmd.AddCommand(suite.SuiteCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and maps the error to a process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return errors.ExitCode(err)
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "patchwatch.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
	classify.Init(AppConfig)
	trend.Init(AppConfig)
	suite.Init(AppConfig)
}
