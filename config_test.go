package modsim

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type feederFunc func(target any) error

func (f feederFunc) Feed(target any) error { return f(target) }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(123), cfg.RandomSeed)
	assert.Equal(t, int64(1000), cfg.TickLength)
	assert.Equal(t, "ms", cfg.TimeUnit)
	assert.Equal(t, int64(0), cfg.EndTime)
	assert.Equal(t, "2000-01-01T00:00:00Z", cfg.Epoch)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())

	epoch, err := cfg.EpochTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), epoch)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero tick length", func(c *Config) { c.TickLength = 0 }, ErrInvalidTickLength},
		{"negative tick length", func(c *Config) { c.TickLength = -1 }, ErrInvalidTickLength},
		{"bad unit", func(c *Config) { c.TimeUnit = "fortnight" }, ErrUnknownTimeUnit},
		{"negative end time", func(c *Config) { c.EndTime = -10 }, ErrInvalidEndTime},
		{"bad epoch", func(c *Config) { c.Epoch = "yesterday" }, ErrInvalidEpoch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrConfigValidationFailed)
		})
	}
}

func TestConfig_EmptyEpochIsUnixEpoch(t *testing.T) {
	cfg := &Config{}
	epoch, err := cfg.EpochTime()
	require.NoError(t, err)
	assert.Equal(t, int64(0), epoch.Unix())
}

func TestParseTimeUnit(t *testing.T) {
	tests := map[string]time.Duration{
		"ns":  time.Nanosecond,
		"us":  time.Microsecond,
		"µs":  time.Microsecond,
		"ms":  time.Millisecond,
		" S ": time.Second,
		"m":   time.Minute,
		"h":   time.Hour,
	}
	for in, want := range tests {
		got, err := ParseTimeUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTimeUnit("d")
	assert.ErrorIs(t, err, ErrUnknownTimeUnit)
}

func TestLoadConfig(t *testing.T) {
	first := feederFunc(func(target any) error {
		cfg := target.(*Config)
		cfg.TickLength = 50
		cfg.TimeUnit = "s"
		return nil
	})
	second := feederFunc(func(target any) error {
		target.(*Config).TickLength = 25
		return nil
	})

	cfg, err := LoadConfig(first, second)
	require.NoError(t, err)
	assert.Equal(t, int64(25), cfg.TickLength, "later feeders override earlier ones")
	assert.Equal(t, "s", cfg.TimeUnit)
	assert.Equal(t, int64(123), cfg.RandomSeed, "defaults fill the rest")
}

func TestLoadConfig_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := LoadConfig(feederFunc(func(any) error { return boom }))
	require.ErrorIs(t, err, ErrConfigFeederError)
	assert.ErrorIs(t, err, boom)

	_, err = LoadConfig(feederFunc(func(target any) error {
		target.(*Config).TimeUnit = "weeks"
		return nil
	}))
	assert.ErrorIs(t, err, ErrUnknownTimeUnit)
}

type nestedConfig struct {
	Name    string        `yaml:"name" default:"sim" required:"true"`
	Timeout time.Duration `yaml:"timeout" default:"1500ms"`
	Ratio   float64       `yaml:"ratio" default:"0.5"`
	Enabled bool          `yaml:"enabled" default:"true"`
	Workers uint          `yaml:"workers" default:"4"`
	Inner   struct {
		Host string `yaml:"host" default:"localhost"`
		Port int    `yaml:"port" required:"true"`
	} `yaml:"inner"`
}

func TestProcessConfigDefaults(t *testing.T) {
	cfg := &nestedConfig{Name: "custom"}
	require.NoError(t, ProcessConfigDefaults(cfg))

	assert.Equal(t, "custom", cfg.Name, "set fields are left alone")
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.InDelta(t, 0.5, cfg.Ratio, 1e-9)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, uint(4), cfg.Workers)
	assert.Equal(t, "localhost", cfg.Inner.Host)
}

func TestProcessConfigDefaults_Errors(t *testing.T) {
	assert.ErrorIs(t, ProcessConfigDefaults(nil), ErrConfigNil)
	assert.ErrorIs(t, ProcessConfigDefaults(Config{}), ErrConfigNotPointer)
	n := 3
	assert.ErrorIs(t, ProcessConfigDefaults(&n), ErrConfigNotStruct)

	type unsupported struct {
		Tags []string `default:"a,b"`
	}
	assert.ErrorIs(t, ProcessConfigDefaults(&unsupported{}), ErrUnsupportedTypeForDefault)
}

func TestValidateConfigRequired(t *testing.T) {
	cfg := &nestedConfig{}
	err := ValidateConfigRequired(cfg)
	require.ErrorIs(t, err, ErrConfigRequiredFieldMissing)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "Inner.Port")

	cfg.Name = "x"
	cfg.Inner.Port = 8080
	assert.NoError(t, ValidateConfigRequired(cfg))
}

func TestValidateConfig_RunsValidator(t *testing.T) {
	cfg := &Config{TimeUnit: "eons"}
	err := ValidateConfig(cfg)
	require.ErrorIs(t, err, ErrUnknownTimeUnit)
	assert.Equal(t, int64(1000), cfg.TickLength, "defaults are applied before validation")
}

func TestGenerateSampleConfig(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		data, err := GenerateSampleConfig(&Config{}, "yaml")
		require.NoError(t, err)
		var cfg Config
		require.NoError(t, yaml.Unmarshal(data, &cfg))
		assert.Equal(t, *DefaultConfig(), cfg)
	})
	t.Run("json", func(t *testing.T) {
		data, err := GenerateSampleConfig(&Config{}, "JSON")
		require.NoError(t, err)
		var cfg Config
		require.NoError(t, json.Unmarshal(data, &cfg))
		assert.Equal(t, *DefaultConfig(), cfg)
	})
	t.Run("toml", func(t *testing.T) {
		data, err := GenerateSampleConfig(&Config{}, "toml")
		require.NoError(t, err)
		var cfg Config
		require.NoError(t, toml.Unmarshal(data, &cfg))
		assert.Equal(t, *DefaultConfig(), cfg)
	})
	t.Run("errors", func(t *testing.T) {
		_, err := GenerateSampleConfig(&Config{}, "ini")
		assert.ErrorIs(t, err, ErrUnsupportedFormatType)
		_, err = GenerateSampleConfig(nil, "yaml")
		assert.ErrorIs(t, err, ErrConfigNil)
		_, err = GenerateSampleConfig(Config{}, "yaml")
		assert.ErrorIs(t, err, ErrConfigNotPointer)
	})
}

func TestConfigFieldDocs(t *testing.T) {
	docs := ConfigFieldDocs(&Config{})
	assert.Len(t, docs, 6)
	assert.Equal(t, "Seed of the master random generator", docs["random_seed"])
	assert.Contains(t, docs["time_unit"], "ms")

	assert.Empty(t, ConfigFieldDocs(nil))
	assert.Empty(t, ConfigFieldDocs(42))
}
