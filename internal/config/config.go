// Package config loads YAML configuration the same way the teacher's
// guard and momentum configs do: a typed struct with yaml tags, decoded
// with gopkg.in/yaml.v3 and defaulted before validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Thresholds unifies the detection/classification/attribution cutoffs
// that spec.md's open questions left scattered across modules into one
// config surface, per the design decision recorded in DESIGN.md.
type Thresholds struct {
	ClassConfidence float64 `yaml:"class_confidence"`
	EventAnomaly    float64 `yaml:"event_anomaly"`
	EventCritical   float64 `yaml:"event_critical"`
	RiskCritical    float64 `yaml:"risk_critical"`
	RiskWarning     float64 `yaml:"risk_warning"`
	RiskElevated    float64 `yaml:"risk_elevated"`
}

// DefaultThresholds mirrors the constants used throughout the original
// research model.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ClassConfidence: 0.8,
		EventAnomaly:    0.7,
		EventCritical:   0.9,
		RiskCritical:    0.9,
		RiskWarning:     0.7,
		RiskElevated:    0.3,
	}
}

// EnsembleSettings configures the anomaly model ensemble from YAML,
// separate from Thresholds since it governs training, not scoring cutoffs.
type EnsembleSettings struct {
	Estimators   int     `yaml:"estimators"`
	MaxDepth     int     `yaml:"max_depth"`
	Shrinkage    float64 `yaml:"shrinkage"`
	TrainingSize int     `yaml:"training_size"`
	Seed         int64   `yaml:"seed"`
}

// DefaultEnsembleSettings mirrors anomaly.DefaultEnsembleConfig's values.
func DefaultEnsembleSettings() EnsembleSettings {
	return EnsembleSettings{
		Estimators:   100,
		MaxDepth:     6,
		Shrinkage:    0.1,
		TrainingSize: 2000,
		Seed:         42,
	}
}

// CacheSettings configures the result cache layer.
type CacheSettings struct {
	RedisAddr string `yaml:"redis_addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// PersistenceSettings configures the Postgres result sink.
type PersistenceSettings struct {
	DSN            string `yaml:"dsn"`
	QueryTimeoutMs int    `yaml:"query_timeout_ms"`
}

// Config is the root application configuration.
type Config struct {
	Thresholds  Thresholds          `yaml:"thresholds"`
	Ensemble    EnsembleSettings    `yaml:"ensemble"`
	Cache       CacheSettings       `yaml:"cache"`
	Persistence PersistenceSettings `yaml:"persistence"`
}

// Default returns a fully-populated Config with production defaults,
// used when no config file is given.
func Default() Config {
	return Config{
		Thresholds: DefaultThresholds(),
		Ensemble:   DefaultEnsembleSettings(),
		Cache:      CacheSettings{RedisAddr: "localhost:6379", TTLSeconds: 300},
		Persistence: PersistenceSettings{
			DSN:            "postgres://localhost:5432/flightsentry?sslmode=disable",
			QueryTimeoutMs: 5000,
		},
	}
}

// Load reads and decodes a YAML config file, filling any zero-valued
// sections from Default() so a partial config file is valid.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that threshold ordering is sane: risk levels must be
// strictly increasing, and confidence/event cutoffs must lie in [0, 1].
func (c Config) Validate() error {
	t := c.Thresholds
	if !(0 <= t.RiskElevated && t.RiskElevated < t.RiskWarning && t.RiskWarning < t.RiskCritical && t.RiskCritical <= 1) {
		return fmt.Errorf("config: risk thresholds must satisfy 0 <= elevated < warning < critical <= 1")
	}
	if t.ClassConfidence < 0 || t.ClassConfidence > 1 {
		return fmt.Errorf("config: class_confidence must be in [0, 1]")
	}
	if t.EventAnomaly < 0 || t.EventAnomaly > 1 || t.EventCritical < 0 || t.EventCritical > 1 {
		return fmt.Errorf("config: event thresholds must be in [0, 1]")
	}
	return nil
}
