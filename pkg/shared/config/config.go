package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Config is the root of the YAML application configuration.
type Config struct {
	Logger  Logger  `yaml:"logger"`
	Scanner Scanner `yaml:"scanner"`
	Suite   Suite   `yaml:"suite"`
}

// Logger holds logging configuration.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     bool   `yaml:"disable_time"`
	JSONFormat      bool   `yaml:"json_format"`
	IncludeLocation bool   `yaml:"include_location"`
}

// Scanner holds defaults for the monkey-patch scanner.
type Scanner struct {
	OutputBase       string   `yaml:"output_base"`
	ExcludeDirs      []string `yaml:"exclude_dirs"`
	ExcludeGlobs     []string `yaml:"exclude_globs"`
	ContextLines     int      `yaml:"context_lines"`
	NearImportWindow int      `yaml:"near_import_window"`
}

// Suite holds the health-suite orchestrator configuration.
type Suite struct {
	OutputBase  string      `yaml:"output_base"`
	StepTimeout string      `yaml:"step_timeout"`
	Heartbeat   string      `yaml:"heartbeat"`
	Steps       []SuiteStep `yaml:"steps"`
}

// SuiteStep describes one orchestrated command.
type SuiteStep struct {
	Name     string            `yaml:"name"`
	Command  []string          `yaml:"command"`
	Optional bool              `yaml:"optional"`
	Env      map[string]string `yaml:"env"`
	Timeout  string            `yaml:"timeout"`
}

// ValidateConfigPath checks the config path points at a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads the application configuration. A missing file is not an
// error: every directive has a working default, so the tool runs unconfigured.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}
	if err := LoadYAML(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}
	return config, nil
}
