// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"tddflow/internal/agent"
	"tddflow/internal/gates"
	"tddflow/internal/scanner"
	"tddflow/internal/telemetry"
)

// DefaultPath is the config file looked up under the working directory
const DefaultPath = ".tddflow/config.yaml"

// Config represents the complete tddflow configuration
type Config struct {
	Agent     AgentConfig           `yaml:"agent"`
	Workflow  WorkflowConfig        `yaml:"workflow"`
	Scanner   scanner.Config        `yaml:"scanner"`
	Gates     map[string]GateConfig `yaml:"gates"`
	Logging   LoggingConfig         `yaml:"logging"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
	Metrics   MetricsConfig         `yaml:"metrics"`
	Temporal  TemporalConfig        `yaml:"temporal"`
}

// AgentConfig points at the OpenCode server
type AgentConfig struct {
	BaseURL      string `yaml:"base_url" validate:"required,url"`
	Model        string `yaml:"model" validate:"omitempty,contains=/"`
	Name         string `yaml:"name"`
	ReuseSession bool   `yaml:"reuse_session"`
}

// WorkflowConfig controls the phase executors
type WorkflowConfig struct {
	MaxAttempts int    `yaml:"max_attempts" validate:"min=1,max=10"`
	TestCommand string `yaml:"test_command"`
	Language    string `yaml:"language"`
	Framework   string `yaml:"framework"`
	MaxTurns    int    `yaml:"max_turns" validate:"min=1,max=10"`
}

// GateConfig overrides the weight or required flag of one gate
type GateConfig struct {
	Weight   *float64 `yaml:"weight" validate:"omitempty,gte=0"`
	Required *bool    `yaml:"required"`
}

// LoggingConfig selects the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TelemetryConfig configures OTLP tracing
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	CollectorURL string  `yaml:"collector_url"`
	ServiceName  string  `yaml:"service_name"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true"`
}

// TemporalConfig configures the durable workflow worker
type TemporalConfig struct {
	HostPort  string `yaml:"host_port" validate:"required"`
	Namespace string `yaml:"namespace" validate:"required"`
	TaskQueue string `yaml:"task_queue" validate:"required"`
}

var validate = validator.New()

// Default returns the built-in configuration
func Default() *Config {
	tel := telemetry.DefaultConfig()
	return &Config{
		Agent: AgentConfig{
			BaseURL: "http://localhost:4096",
		},
		Workflow: WorkflowConfig{
			MaxAttempts: 3,
			MaxTurns:    3,
		},
		Scanner: scanner.DefaultConfig(),
		Gates:   map[string]GateConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			CollectorURL: tel.CollectorURL,
			ServiceName:  tel.ServiceName,
			Environment:  tel.Environment,
			SamplingRate: tel.SamplingRate,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "tddflow",
		},
	}
}

// Load reads the configuration from path. An empty path falls back to
// DefaultPath under the working directory, and to the defaults when that
// file does not exist.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Try default config path
	candidate := filepath.Join(cwd, DefaultPath)
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return LoadFile(candidate)
}

// LoadFile parses one YAML file over the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Gate overrides must name a built-in gate
	known := make(map[string]bool)
	for _, g := range gates.DefaultGates() {
		known[g.Name()] = true
	}
	for name, g := range c.Gates {
		if !known[name] {
			return fmt.Errorf("invalid config: unknown gate %q", name)
		}
		if err := validate.Struct(g); err != nil {
			return fmt.Errorf("invalid config: gate %q: %w", name, err)
		}
	}
	return nil
}

// GateEngine builds the default gate set with the configured overrides
func (c *Config) GateEngine(opts ...gates.Option) *gates.Engine {
	set := gates.DefaultGates()
	for i, g := range set {
		o, ok := c.Gates[g.Name()]
		if !ok {
			continue
		}
		weight, required := g.Weight(), g.Required()
		if o.Weight != nil {
			weight = *o.Weight
		}
		if o.Required != nil {
			required = *o.Required
		}
		set[i] = gates.Override(g, weight, required)
	}
	return gates.NewEngine(set, opts...)
}

// AgentOptions returns the OpenCode client options for a project
func (c *Config) AgentOptions(projectPath string) agent.Options {
	return agent.Options{
		BaseURL:      c.Agent.BaseURL,
		Model:        c.Agent.Model,
		Agent:        c.Agent.Name,
		ProjectPath:  projectPath,
		ReuseSession: c.Agent.ReuseSession,
	}
}

// TracerConfig converts the telemetry section
func (c *Config) TracerConfig(version string) *telemetry.Config {
	return &telemetry.Config{
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: version,
		CollectorURL:   c.Telemetry.CollectorURL,
		Environment:    c.Telemetry.Environment,
		SamplingRate:   c.Telemetry.SamplingRate,
	}
}

// NewLogger creates the slog logger described by the logging section
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if strings.EqualFold(c.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Level maps the logging level name to slog
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
