// Package config loads planner settings from defaults, an optional config
// file, LOTSIZING_* environment variables and explicit overrides, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. LOTSIZING_SOLVER_BACKEND
const EnvPrefix = "LOTSIZING"

// ErrInvalidConfig is returned when loaded settings fail validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level planner configuration. It never carries problem data.
type Config struct {
	Solver  SolverConfig  `mapstructure:"solver"  json:"solver"`
	Report  ReportConfig  `mapstructure:"report"  json:"report"`
	Log     LogConfig     `mapstructure:"log"     json:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics"`
	Run     RunConfig     `mapstructure:"run"     json:"run"`
}

// SolverConfig selects the backend and its limits. Zero limits leave the
// solver defaults in place.
type SolverConfig struct {
	Backend    string        `mapstructure:"backend"     json:"backend"     validate:"required"`
	TimeLimit  time.Duration `mapstructure:"time_limit"  json:"time_limit"  validate:"gte=0"`
	MIPGap     float64       `mapstructure:"mip_gap"     json:"mip_gap"     validate:"gte=0,lt=1"`
	Threads    int           `mapstructure:"threads"     json:"threads"     validate:"gte=0"`
	Output     bool          `mapstructure:"output"      json:"output"`
	Relaxation bool          `mapstructure:"relaxation"  json:"relaxation"`
	WriteModel string        `mapstructure:"write_model" json:"write_model"`
}

// ReportConfig controls what is printed and where
type ReportConfig struct {
	Instance    string    `mapstructure:"instance"    json:"instance"    validate:"required"`
	Format      string    `mapstructure:"format"      json:"format"      validate:"oneof=text json csv svg"`
	OutputDir   string    `mapstructure:"output_dir"  json:"output_dir"`
	Verbose     bool      `mapstructure:"verbose"     json:"verbose"`
	Sensitivity []float64 `mapstructure:"sensitivity" json:"sensitivity" validate:"dive,gte=0"`
}

// LogConfig defines log level, format and rotation
type LogConfig struct {
	Level      string `mapstructure:"level"       json:"level"       validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format"      json:"format"      validate:"oneof=text json"`
	File       string `mapstructure:"file"        json:"file"`
	MaxSize    int    `mapstructure:"max_size"    json:"max_size"    validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     json:"max_age"     validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"    json:"compress"`
}

// MetricsConfig sets where run metrics are written. An empty file disables them.
type MetricsConfig struct {
	File string `mapstructure:"file" json:"file"`
}

// RunConfig identifies this machine in generated run IDs
type RunConfig struct {
	MachineID int `mapstructure:"machine_id" json:"machine_id" validate:"gte=0,lte=65535"`
}

// Defaults returns every key with its default value
func Defaults() map[string]any {
	return map[string]any{
		"solver.backend":     "highs",
		"solver.time_limit":  time.Duration(0),
		"solver.mip_gap":     0.0,
		"solver.threads":     0,
		"solver.output":      false,
		"solver.relaxation":  false,
		"solver.write_model": "",
		"report.instance":    "coursework",
		"report.format":      "text",
		"report.output_dir":  "",
		"report.verbose":     false,
		"report.sensitivity": []float64{},
		"log.level":          "warn",
		"log.format":         "text",
		"log.file":           "",
		"log.max_size":       10,
		"log.max_backups":    3,
		"log.max_age":        28,
		"log.compress":       false,
		"metrics.file":       "",
		"run.machine_id":     1,
	}
}

// Load reads configuration from path (optional), the environment and
// overrides. Override keys use the dotted form, e.g. "solver.backend".
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// Validate checks struct tag constraints
func Validate(conf *Config) error {
	if err := validator.New().Struct(conf); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
