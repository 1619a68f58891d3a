package config

// Default exclusions for directory walks: version control, virtual envs,
// build artifacts and vendor-like trees.
var defaultExcludeDirs = []string{
	".git",
	".hg",
	".venv",
	"venv",
	"__pycache__",
	"node_modules",
	"build",
	"dist",
	".tox",
	".mypy_cache",
	"vendor",
}

var defaultExcludeGlobs = []string{
	"external/**",
	"libraries/**",
	"**/site-packages/**",
}

const (
	defaultScanOutputBase   = ".patchwatch/monkey_patch"
	defaultSuiteOutputBase  = ".patchwatch/health_suite"
	defaultContextLines     = 2
	defaultNearImportWindow = 5
	defaultStepTimeout      = "15m"
	defaultHeartbeat        = "30s"
)

// GetScanOutputBase returns the base directory for timestamped scan runs.
func GetScanOutputBase(cfg *Config) string {
	if cfg != nil && cfg.Scanner.OutputBase != "" {
		return cfg.Scanner.OutputBase
	}
	return defaultScanOutputBase
}

// GetSuiteOutputBase returns the base directory for suite run logs.
func GetSuiteOutputBase(cfg *Config) string {
	if cfg != nil && cfg.Suite.OutputBase != "" {
		return cfg.Suite.OutputBase
	}
	return defaultSuiteOutputBase
}

// GetExcludeDirs returns the configured directory-name exclusions.
func GetExcludeDirs(cfg *Config) []string {
	if cfg != nil && len(cfg.Scanner.ExcludeDirs) > 0 {
		return cfg.Scanner.ExcludeDirs
	}
	return defaultExcludeDirs
}

// GetExcludeGlobs returns the configured glob-pattern exclusions.
func GetExcludeGlobs(cfg *Config) []string {
	if cfg != nil && len(cfg.Scanner.ExcludeGlobs) > 0 {
		return cfg.Scanner.ExcludeGlobs
	}
	return defaultExcludeGlobs
}

// GetContextLines returns the snippet window size around findings.
func GetContextLines(cfg *Config) int {
	if cfg != nil && cfg.Scanner.ContextLines > 0 {
		return cfg.Scanner.ContextLines
	}
	return defaultContextLines
}

// GetNearImportWindow returns the line distance within which a module-scope
// mutation counts as an import-time side effect.
func GetNearImportWindow(cfg *Config) int {
	if cfg != nil && cfg.Scanner.NearImportWindow > 0 {
		return cfg.Scanner.NearImportWindow
	}
	return defaultNearImportWindow
}

// GetStepTimeout returns the default per-step timeout for suite runs.
func GetStepTimeout(cfg *Config) string {
	if cfg != nil && cfg.Suite.StepTimeout != "" {
		return cfg.Suite.StepTimeout
	}
	return defaultStepTimeout
}

// GetHeartbeat returns the heartbeat interval for suite steps.
func GetHeartbeat(cfg *Config) string {
	if cfg != nil && cfg.Suite.Heartbeat != "" {
		return cfg.Suite.Heartbeat
	}
	return defaultHeartbeat
}
