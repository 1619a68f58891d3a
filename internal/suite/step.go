package suite

import (
	"fmt"
	"os"
	"time"

	"github.com/patchwatch/patchwatch/pkg/shared/config"
)

// Step is one orchestrated command in a suite run.
type Step struct {
	Name      string
	Argv      []string
	Optional  bool
	Env       map[string]string
	Timeout   time.Duration // zero means use the runner default
	Heartbeat time.Duration // zero means use the runner default
}

// StepsFromConfig converts configured steps into runnable ones. A bad
// per-step timeout is an error; env and argv pass through untouched.
func StepsFromConfig(configured []config.SuiteStep) ([]Step, error) {
	steps := make([]Step, 0, len(configured))
	for _, cs := range configured {
		if cs.Name == "" {
			return nil, fmt.Errorf("suite step with empty name")
		}
		if len(cs.Command) == 0 {
			return nil, fmt.Errorf("suite step %q has no command", cs.Name)
		}
		step := Step{
			Name:     cs.Name,
			Argv:     cs.Command,
			Optional: cs.Optional,
			Env:      cs.Env,
		}
		if cs.Timeout != "" {
			d, err := time.ParseDuration(cs.Timeout)
			if err != nil {
				return nil, fmt.Errorf("suite step %q has invalid timeout %q: %w", cs.Name, cs.Timeout, err)
			}
			step.Timeout = d
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// DefaultSteps is the built-in chain used when the config lists no steps:
// the tool's own scan, classify and trend subcommands run against the
// current repository, sharing one timestamp.
func DefaultSteps(ts string) []Step {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	return []Step{
		{Name: "scan_monkey_patches", Argv: []string{self, "scan", "--repo-root", ".", "--with-git", "--strict", "--timestamp", ts}},
		{Name: "classify_risk", Argv: []string{self, "classify"}},
		{Name: "compare_trends", Argv: []string{self, "trend"}, Optional: true},
	}
}
