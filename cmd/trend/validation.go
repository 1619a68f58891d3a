package trend

import "fmt"

// validateTrendArgs validates the arguments provided to the trend command.
func validateTrendArgs(opts *RunOptionsTrend) error {
	if opts.MaxScans < 1 {
		return fmt.Errorf("the 'max-scans' flag must be a positive integer")
	}
	if opts.RecentN < 1 {
		return fmt.Errorf("the 'recent' flag must be a positive integer")
	}
	return nil
}
