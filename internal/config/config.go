package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/lapse/internal/workload"
)

// Config represents the complete configuration for the lapse tool. It
// covers both commands (bench, serve) and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Bench command configuration
	Bench BenchConfig `mapstructure:"bench" yaml:"bench" json:"bench"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// BenchConfig contains settings for the bench command.
type BenchConfig struct {
	// Iterations is the sample capacity per timer slot.
	Iterations int `mapstructure:"iterations" yaml:"iterations" json:"iterations"`

	// Workloads is a comma-separated list of workload names; empty means all.
	Workloads string `mapstructure:"workloads" yaml:"workloads" json:"workloads"`

	// Format selects the report encoding: text, tsv, json or yaml.
	Format string `mapstructure:"format" yaml:"format" json:"format"`

	// Output is a file path for the report; empty means stdout.
	Output string `mapstructure:"output" yaml:"output" json:"output"`

	// Memory enables per-workload memory statistics in the report.
	Memory bool `mapstructure:"memory" yaml:"memory" json:"memory"`
}

// ServerConfig contains settings for the serve command.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	Iterations      int    `mapstructure:"iterations" yaml:"iterations" json:"iterations"`
	Workloads       string `mapstructure:"workloads" yaml:"workloads" json:"workloads"`
	RefreshSec      int    `mapstructure:"refresh_sec" yaml:"refresh_sec" json:"refresh_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// ReportFormats lists the accepted bench report encodings.
var ReportFormats = []string{"text", "tsv", "json", "yaml"}

// DefaultConfig returns the default lapse configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Bench: BenchConfig{
			Iterations: 100,
			Format:     "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			Iterations:      100,
			RefreshSec:      10,
			ShutdownTimeout: 10,
		},
	}
}

// WorkloadNames splits a comma-separated workload list. An empty value
// selects every built-in workload.
func WorkloadNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return workload.Names()
	}
	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}

	if c.Bench.Iterations < 0 {
		return fmt.Errorf("bench.iterations must be non-negative, got %d", c.Bench.Iterations)
	}
	if err := validateFormat(c.Bench.Format); err != nil {
		return err
	}
	if _, err := workload.ByNames(WorkloadNames(c.Bench.Workloads)); err != nil {
		return fmt.Errorf("bench.workloads: %w", err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range (1-65535)", c.Server.Port)
	}
	if c.Server.Iterations < 0 {
		return fmt.Errorf("server.iterations must be non-negative, got %d", c.Server.Iterations)
	}
	if c.Server.RefreshSec < 1 {
		return fmt.Errorf("server.refresh_sec must be at least 1, got %d", c.Server.RefreshSec)
	}
	if _, err := workload.ByNames(WorkloadNames(c.Server.Workloads)); err != nil {
		return fmt.Errorf("server.workloads: %w", err)
	}
	return nil
}

func validateFormat(format string) error {
	for _, f := range ReportFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q (must be one of %s)",
		format, strings.Join(ReportFormats, ", "))
}
