// Package config loads and validates the splitter's tuning knobs. The
// splitter consumes a SplitterConfig; loading it from YAML is an
// ambient concern that lives outside the core algorithm.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SplitterConfig holds the splitter's tuning knobs, immutable for the
// lifetime of one splitter invocation.
type SplitterConfig struct {
	// SplitSize is the target number of rows per emitted chunk.
	SplitSize int `yaml:"split.size"`

	// DistributionFactorUpper and DistributionFactorLower delimit
	// "evenly distributed" for the strategy selector.
	DistributionFactorUpper float64 `yaml:"split.even-distribution.factor.upper-bound"`
	DistributionFactorLower float64 `yaml:"split.even-distribution.factor.lower-bound"`

	// SampleShardingThreshold: shard counts above this abandon
	// arithmetic chunking in favor of sampling.
	SampleShardingThreshold int `yaml:"split.sample-sharding.threshold"`

	// InverseSamplingRate: the sample picks 1 of every N rows. Clamped
	// to SplitSize on use.
	InverseSamplingRate int `yaml:"split.inverse-sampling-rate"`
}

// Default returns the splitter's out-of-the-box configuration.
func Default() SplitterConfig {
	return SplitterConfig{
		SplitSize:               8192,
		DistributionFactorUpper: 1000.0,
		DistributionFactorLower: 0.05,
		SampleShardingThreshold: 1000,
		InverseSamplingRate:     1000,
	}
}

// InvalidError reports a configuration value that fails validation,
// surfaced at splitter construction.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid splitter config: %s", e.Reason)
}

// Validate checks the invariants a splitter config must satisfy: a
// positive split size, and factor bounds that are themselves ordered
// and non-negative.
func (c SplitterConfig) Validate() error {
	if c.SplitSize <= 0 {
		return &InvalidError{Reason: fmt.Sprintf("split.size must be positive, got %d", c.SplitSize)}
	}
	if c.DistributionFactorLower < 0 {
		return &InvalidError{Reason: fmt.Sprintf("split.even-distribution.factor.lower-bound must be >= 0, got %v", c.DistributionFactorLower)}
	}
	if c.DistributionFactorUpper < c.DistributionFactorLower {
		return &InvalidError{Reason: fmt.Sprintf(
			"split.even-distribution.factor.upper-bound (%v) must be >= lower-bound (%v)",
			c.DistributionFactorUpper, c.DistributionFactorLower)}
	}
	if c.SampleShardingThreshold <= 0 {
		return &InvalidError{Reason: fmt.Sprintf("split.sample-sharding.threshold must be positive, got %d", c.SampleShardingThreshold)}
	}
	if c.InverseSamplingRate <= 0 {
		return &InvalidError{Reason: fmt.Sprintf("split.inverse-sampling-rate must be positive, got %d", c.InverseSamplingRate)}
	}
	return nil
}

// Load reads a SplitterConfig from a YAML file, starting from Default()
// so an incomplete file only overrides the keys it sets.
func Load(path string) (SplitterConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
