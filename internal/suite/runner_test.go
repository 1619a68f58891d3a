package suite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchwatch/patchwatch/pkg/shared/config"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{
		LogDir:         filepath.Join(t.TempDir(), "logs", "2026-08-26_0930"),
		DefaultTimeout: 30 * time.Second,
		Logger:         hclog.NewNullLogger(),
	}
}

func TestRunSequentialNeverAborts(t *testing.T) {
	r := newTestRunner(t)
	steps := []Step{
		{Name: "ok_step", Argv: []string{"sh", "-c", "echo hello"}},
		{Name: "failing_step", Argv: []string{"sh", "-c", "echo boom >&2; exit 3"}},
		{Name: "after_failure", Argv: []string{"sh", "-c", "echo still running"}},
	}

	run, err := r.Run(context.Background(), "2026-08-26_0930", steps)
	require.NoError(t, err)
	require.Len(t, run.Steps, 3)
	assert.NotEmpty(t, run.RunID)

	assert.Equal(t, StatusOK, run.Steps[0].Status)
	require.NotNil(t, run.Steps[0].ExitCode)
	assert.Equal(t, 0, *run.Steps[0].ExitCode)

	assert.Equal(t, StatusError, run.Steps[1].Status)
	require.NotNil(t, run.Steps[1].ExitCode)
	assert.Equal(t, 3, *run.Steps[1].ExitCode)
	assert.NotEmpty(t, run.Steps[1].ErrorLog)

	// The chain continued past the failure.
	assert.Equal(t, StatusOK, run.Steps[2].Status)

	out, err := os.ReadFile(filepath.Join(r.LogDir, "ok_step.log"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "hello")

	errOut, err := os.ReadFile(filepath.Join(r.LogDir, "failing_step.err.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errOut), "boom")
}

func TestRunStepTimeout(t *testing.T) {
	r := newTestRunner(t)
	steps := []Step{
		{Name: "slow_step", Argv: []string{"sh", "-c", "sleep 30"}, Timeout: 200 * time.Millisecond},
	}

	run, err := r.Run(context.Background(), "2026-08-26_0930", steps)
	require.NoError(t, err)
	require.Len(t, run.Steps, 1)

	assert.Equal(t, StatusTimeout, run.Steps[0].Status)
	require.NotNil(t, run.Steps[0].ExitCode)
	assert.Equal(t, timeoutExitCode, *run.Steps[0].ExitCode)
}

func TestRunSkipsMissingOptionalCommand(t *testing.T) {
	r := newTestRunner(t)
	steps := []Step{
		{Name: "missing_tool", Argv: []string{"definitely-not-a-real-binary-xyz"}, Optional: true},
	}

	run, err := r.Run(context.Background(), "2026-08-26_0930", steps)
	require.NoError(t, err)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, StatusSkipped, run.Steps[0].Status)
	assert.True(t, run.Steps[0].Skipped)
}

func TestRunStepEnvOverride(t *testing.T) {
	r := newTestRunner(t)
	steps := []Step{
		{Name: "env_step", Argv: []string{"sh", "-c", "echo $PATCHWATCH_TEST_VALUE"}, Env: map[string]string{"PATCHWATCH_TEST_VALUE": "injected"}},
	}

	run, err := r.Run(context.Background(), "2026-08-26_0930", steps)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, run.Steps[0].Status)

	out, err := os.ReadFile(filepath.Join(r.LogDir, "env_step.log"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "injected")
}

func TestRunWritesStatusFiles(t *testing.T) {
	r := newTestRunner(t)
	steps := []Step{
		{Name: "ok_step", Argv: []string{"sh", "-c", "true"}},
		{Name: "bad_step", Argv: []string{"sh", "-c", "exit 1"}},
	}

	_, err := r.Run(context.Background(), "2026-08-26_0930", steps)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(r.LogDir, StatusJSONName))
	require.NoError(t, err)
	var decoded RunStatus
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2026-08-26_0930", decoded.Timestamp)
	require.Len(t, decoded.Steps, 2)

	md, err := os.ReadFile(filepath.Join(r.LogDir, StatusMDName))
	require.NoError(t, err)
	content := string(md)
	assert.Contains(t, content, "# Health Suite Run Status")
	assert.Contains(t, content, "01. ✅ ok_step — OK")
	assert.Contains(t, content, "02. ❌ bad_step — ERROR")

	current, err := os.ReadFile(filepath.Join(r.LogDir, "current_step.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bad_step\n", string(current))
}

func TestStepsFromConfig(t *testing.T) {
	steps, err := StepsFromConfig([]config.SuiteStep{
		{Name: "lint", Command: []string{"ruff", "check", "."}, Timeout: "2m"},
		{Name: "optional_scan", Command: []string{"semgrep"}, Optional: true, Env: map[string]string{"A": "b"}},
	})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 2*time.Minute, steps[0].Timeout)
	assert.True(t, steps[1].Optional)
	assert.Equal(t, "b", steps[1].Env["A"])
}

func TestStepsFromConfigRejectsBadSteps(t *testing.T) {
	_, err := StepsFromConfig([]config.SuiteStep{{Name: "", Command: []string{"x"}}})
	assert.Error(t, err)

	_, err = StepsFromConfig([]config.SuiteStep{{Name: "x"}})
	assert.Error(t, err)

	_, err = StepsFromConfig([]config.SuiteStep{{Name: "x", Command: []string{"y"}, Timeout: "nope"}})
	assert.Error(t, err)
}
