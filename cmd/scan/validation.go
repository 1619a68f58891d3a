package scan

import (
	"fmt"
	"os"
)

// validateScanArgs validates the arguments provided to the scan command.
func validateScanArgs(opts *RunOptionsScan) error {
	info, err := os.Stat(opts.RepoRoot)
	if err != nil {
		return fmt.Errorf("the repo root does not exist: %v", opts.RepoRoot)
	}
	if !info.IsDir() {
		return fmt.Errorf("the repo root is not a directory: %v", opts.RepoRoot)
	}
	if opts.ContextLines < 0 {
		return fmt.Errorf("the 'context-lines' flag must not be negative")
	}
	return nil
}
