package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Scanner.OutputBase)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	content := `
logger:
  level: debug
scanner:
  output_base: out/scans
  context_lines: 4
  exclude_dirs: [".git", "venv"]
suite:
  step_timeout: 5m
  steps:
    - name: lint
      command: ["ruff", "check", "."]
      optional: true
      env:
        CI: "1"
`
	path := filepath.Join(t.TempDir(), "patchwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "out/scans", cfg.Scanner.OutputBase)
	assert.Equal(t, 4, cfg.Scanner.ContextLines)
	assert.Equal(t, []string{".git", "venv"}, cfg.Scanner.ExcludeDirs)
	assert.Equal(t, "5m", cfg.Suite.StepTimeout)
	require.Len(t, cfg.Suite.Steps, 1)
	assert.Equal(t, "lint", cfg.Suite.Steps[0].Name)
	assert.True(t, cfg.Suite.Steps[0].Optional)
	assert.Equal(t, "1", cfg.Suite.Steps[0].Env["CI"])
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patchwatch.yml")
	require.NoError(t, os.WriteFile(path, []byte("scanner: ["), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGettersApplyDefaults(t *testing.T) {
	assert.Equal(t, ".patchwatch/monkey_patch", GetScanOutputBase(nil))
	assert.Equal(t, ".patchwatch/health_suite", GetSuiteOutputBase(nil))
	assert.Equal(t, 2, GetContextLines(nil))
	assert.Equal(t, 5, GetNearImportWindow(nil))
	assert.Equal(t, "15m", GetStepTimeout(nil))
	assert.Equal(t, "30s", GetHeartbeat(nil))
	assert.Contains(t, GetExcludeDirs(nil), ".git")
	assert.Contains(t, GetExcludeGlobs(nil), "external/**")

	cfg := &Config{}
	cfg.Scanner.OutputBase = "custom"
	cfg.Scanner.ContextLines = 7
	assert.Equal(t, "custom", GetScanOutputBase(cfg))
	assert.Equal(t, 7, GetContextLines(cfg))
	assert.Equal(t, 5, GetNearImportWindow(cfg))
}
