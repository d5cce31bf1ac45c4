package sstv

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/*
 * Configuration
 * A plain struct loadable from YAML.
 */

// SinkCapacity is the recommended minimum bounded-channel capacity for a
// BroadcastSink.
const SinkCapacity = 128

// Config is the decoder's session configuration: the sample rate of the
// audio source and the broadcast sink's per-subscriber buffer size.
type Config struct {
	SampleRate   float64 `yaml:"sample_rate"`
	SinkCapacity int     `yaml:"sink_capacity"`
}

// DefaultConfig returns a reasonable configuration for a 44100 Hz source.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		SinkCapacity: SinkCapacity,
	}
}

// Validate checks the invariants that must not be violated: a sample
// rate more than twice MAX_FREQ (2300 Hz), and a positive sink capacity.
func (c Config) Validate() error {
	if c.SampleRate <= 2*valueRangeHigh {
		return fmt.Errorf("sstv: sample rate %.0f Hz must exceed %.0f Hz (2x MAX_FREQ)", c.SampleRate, 2*valueRangeHigh)
	}
	if c.SinkCapacity <= 0 {
		return fmt.Errorf("sstv: sink capacity must be positive, got %d", c.SinkCapacity)
	}
	return nil
}

// LoadConfig reads a YAML config file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("sstv: reading config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("sstv: parsing config %q: %w", path, err)
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("sstv: marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sstv: writing config %q: %w", path, err)
	}
	return nil
}
