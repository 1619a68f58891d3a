package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/patchwatch/patchwatch/pkg/shared/files"
)

// Exit code reported when a step is killed for exceeding its timeout.
const timeoutExitCode = 124

// How long a terminated process gets to exit before it is killed.
const killGrace = 5 * time.Second

// Step result statuses.
const (
	StatusOK        = "OK"
	StatusError     = "ERROR"
	StatusTimeout   = "TIMEOUT"
	StatusSkipped   = "SKIPPED"
	StatusException = "EXCEPTION"
)

// Runner executes suite steps sequentially, never aborting the chain on a
// step failure. Each step gets its own stdout/stderr logs under LogDir.
type Runner struct {
	LogDir           string
	DefaultTimeout   time.Duration // zero disables timeouts
	DefaultHeartbeat time.Duration // zero disables heartbeats
	Live             bool
	Logger           hclog.Logger
}

// StepStatus records the outcome of one step.
type StepStatus struct {
	Name        string   `json:"name"`
	Argv        []string `json:"argv"`
	Status      string   `json:"status"`
	ExitCode    *int     `json:"exit_code"`
	DurationSec float64  `json:"duration_sec"`
	Skipped     bool     `json:"skipped,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	ErrorLog    string   `json:"error_log,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// RunStatus is the machine-readable record of a whole suite run.
type RunStatus struct {
	RunID      string       `json:"run_id"`
	Timestamp  string       `json:"timestamp"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepStatus `json:"steps"`
}

// Run executes all steps in order and writes status.json and status.md into
// the runner's log directory. The returned error covers orchestration
// problems only; individual step failures are recorded in the status.
func (r *Runner) Run(ctx context.Context, ts string, steps []Step) (*RunStatus, error) {
	if err := files.CreateFolderIfNotExists(r.LogDir); err != nil {
		return nil, err
	}

	run := &RunStatus{
		RunID:     uuid.New().String(),
		Timestamp: ts,
		StartedAt: time.Now(),
	}
	for idx, step := range steps {
		r.Logger.Info("step", "index", fmt.Sprintf("%02d/%d", idx+1, len(steps)), "name", step.Name)
		run.Steps = append(run.Steps, r.runStep(ctx, step))
	}
	run.FinishedAt = time.Now()

	if err := r.writeStatus(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) StepStatus {
	start := time.Now()
	status := StepStatus{Name: step.Name, Argv: step.Argv}

	safeName := strings.ReplaceAll(step.Name, "/", "_")
	logPath := filepath.Join(r.LogDir, safeName+".log")
	errPath := filepath.Join(r.LogDir, safeName+".err.log")

	if err := os.WriteFile(filepath.Join(r.LogDir, "current_step.txt"), []byte(step.Name+"\n"), 0644); err != nil {
		r.Logger.Warn("failed to update current step marker", "error", err)
	}

	outFile, err := os.Create(logPath)
	if err != nil {
		return r.exception(status, start, errPath, err)
	}
	defer outFile.Close()
	errFile, err := os.Create(errPath)
	if err != nil {
		return r.exception(status, start, errPath, err)
	}
	defer errFile.Close()

	if step.Optional {
		if _, lookErr := exec.LookPath(step.Argv[0]); lookErr != nil {
			status.Status = StatusSkipped
			status.Skipped = true
			status.Reason = "missing command"
			fmt.Fprintln(outFile, "[SKIP] Missing command — step marked as skipped.")
			r.Logger.Warn("skipping step", "step", step.Name, "reason", "missing command")
			return status
		}
	}

	r.Logger.Info("start", "step", step.Name)

	cmd := exec.Command(step.Argv[0], step.Argv[1:]...)
	cmd.Stdout = outFile
	cmd.Stderr = errFile
	if r.Live {
		cmd.Stdout = io.MultiWriter(outFile, os.Stdout)
		cmd.Stderr = io.MultiWriter(errFile, os.Stderr)
	}
	cmd.Env = mergedEnv(step.Env)

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(errFile, "[EXCEPTION] %v\n", err)
		return r.exception(status, start, errPath, err)
	}

	timeout := step.Timeout
	if timeout == 0 {
		timeout = r.DefaultTimeout
	}
	heartbeat := step.Heartbeat
	if heartbeat == 0 {
		heartbeat = r.DefaultHeartbeat
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	var heartbeatCh <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		heartbeatCh = ticker.C
	}

	timedOut := false
	var waitErr error
wait:
	for {
		select {
		case waitErr = <-done:
			break wait
		case <-heartbeatCh:
			elapsed := int(time.Since(start).Seconds())
			r.Logger.Info("heartbeat", "step", step.Name, "elapsed_sec", elapsed)
			fmt.Fprintf(outFile, "[HEARTBEAT] %s running — elapsed=%ds\n", step.Name, elapsed)
		case <-timeoutCh:
			timedOut = true
			r.Logger.Warn("step timed out, terminating", "step", step.Name, "timeout", timeout)
			fmt.Fprintf(errFile, "[TIMEOUT] %s exceeded %ds — terminating\n", step.Name, int(timeout.Seconds()))
			terminate(cmd, done)
			waitErr = <-done
			break wait
		case <-ctx.Done():
			r.Logger.Warn("run cancelled, terminating step", "step", step.Name)
			fmt.Fprintf(errFile, "[CANCELLED] run context cancelled\n")
			terminate(cmd, done)
			waitErr = <-done
			break wait
		}
	}

	duration := time.Since(start)
	status.DurationSec = roundSeconds(duration)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return r.exception(status, start, errPath, waitErr)
		}
	}
	if timedOut {
		exitCode = timeoutExitCode
	}
	status.ExitCode = &exitCode

	switch {
	case timedOut:
		status.Status = StatusTimeout
		status.ErrorLog = errPath
	case exitCode == 0:
		status.Status = StatusOK
		r.Logger.Info("done", "step", step.Name, "duration", duration.Round(10*time.Millisecond))
	default:
		status.Status = StatusError
		status.ErrorLog = errPath
		r.Logger.Warn("step failed", "step", step.Name, "exit_code", exitCode, "error_log", errPath)
	}
	return status
}

func (r *Runner) exception(status StepStatus, start time.Time, errPath string, err error) StepStatus {
	status.Status = StatusException
	status.Error = err.Error()
	status.DurationSec = roundSeconds(time.Since(start))
	status.ErrorLog = errPath
	r.Logger.Error("step raised", "step", status.Name, "error", err)
	return status
}

// terminate sends SIGTERM, waits killGrace for the process to exit, then
// kills it.
func terminate(cmd *exec.Cmd, done chan error) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case err := <-done:
		done <- err
	case <-time.After(killGrace):
		_ = cmd.Process.Kill()
	}
}

func mergedEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
