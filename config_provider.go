package modsim

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the in-process configuration of one simulator.
//
// The struct tags drive the feeders (yaml, toml, json, env), the default
// value processing (default) and sample config generation (desc).
type Config struct {
	RandomSeed int64  `yaml:"random_seed" toml:"random_seed" json:"random_seed" env:"RANDOM_SEED" default:"123" desc:"Seed of the master random generator"`
	TickLength int64  `yaml:"tick_length" toml:"tick_length" json:"tick_length" env:"TICK_LENGTH" default:"1000" desc:"Length of one tick in time units"`
	TimeUnit   string `yaml:"time_unit" toml:"time_unit" json:"time_unit" env:"TIME_UNIT" default:"ms" desc:"Time unit: ns, us, ms, s, m or h"`
	EndTime    int64  `yaml:"end_time" toml:"end_time" json:"end_time" env:"END_TIME" desc:"Simulated time at which the clock stops, 0 runs until stopped"`
	Epoch      string `yaml:"epoch" toml:"epoch" json:"epoch" env:"EPOCH" default:"2000-01-01T00:00:00Z" desc:"Wall-clock instant of simulated time 0 (RFC3339)"`
	LogLevel   string `yaml:"log_level" toml:"log_level" json:"log_level" env:"LOG_LEVEL" default:"info" desc:"Log level: debug, info, warn or error"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := ProcessConfigDefaults(cfg); err != nil {
		// defaults are static and covered by tests
		panic(err)
	}
	return cfg
}

// Validate implements ConfigValidator.
func (c *Config) Validate() error {
	if c.TickLength <= 0 {
		return fmt.Errorf("%w: %w: %d", ErrConfigValidationFailed, ErrInvalidTickLength, c.TickLength)
	}
	if _, err := ParseTimeUnit(c.TimeUnit); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
	}
	if c.EndTime < 0 {
		return fmt.Errorf("%w: %w: %d", ErrConfigValidationFailed, ErrInvalidEndTime, c.EndTime)
	}
	if _, err := c.EpochTime(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidationFailed, err)
	}
	return nil
}

// EpochTime parses Epoch. An empty epoch is the Unix epoch.
func (c *Config) EpochTime() (time.Time, error) {
	if c.Epoch == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidEpoch, c.Epoch)
	}
	return t, nil
}

var timeUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
}

// ParseTimeUnit maps a unit name to the duration of one unit.
func ParseTimeUnit(unit string) (time.Duration, error) {
	d, ok := timeUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTimeUnit, unit)
	}
	return d, nil
}

// ConfigFeeder populates a config struct from one source.
type ConfigFeeder interface {
	Feed(target any) error
}

// LoadConfig runs the feeders in order, later feeders overriding earlier
// ones, then applies defaults and validates the result.
func LoadConfig(feeders ...ConfigFeeder) (*Config, error) {
	cfg := &Config{}
	for _, f := range feeders {
		if err := f.Feed(cfg); err != nil {
			return nil, fmt.Errorf("%w: %T: %w", ErrConfigFeederError, f, err)
		}
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
