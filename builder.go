package modsim

import (
	"context"
	"fmt"
	"slices"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/sirupsen/logrus"
)

// Option represents a functional option for configuring simulators
type Option func(*SimulatorBuilder) error

// SimulatorBuilder collects the options of a simulator before construction.
type SimulatorBuilder struct {
	config    *Config
	overrides []func(*Config)
	logger    Logger
	builders  []ModelBuilder
	observers []observerRegistration
	stops     []StopCondition
}

// ObserverFunc is a functional observer that can be registered with the simulator
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// NewSimulatorBuilder creates an empty builder.
func NewSimulatorBuilder() *SimulatorBuilder {
	return &SimulatorBuilder{}
}

// NewSimulator creates a new simulator with the provided options.
// This is the main entry point of the package.
func NewSimulator(opts ...Option) (*Simulator, error) {
	b := NewSimulatorBuilder()
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Build resolves every model and constructs the simulator.
func (b *SimulatorBuilder) Build() (*Simulator, error) {
	cfg, err := b.effectiveConfig()
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		l := logrus.New()
		l.SetLevel(ParseLogLevel(cfg.LogLevel))
		logger = NewLogrusLogger(l)
	}

	return newSimulator(cfg, logger, b.builders, b.stops, b.observers)
}

// effectiveConfig copies the configured (or default) config, applies the
// defaults, then the option overrides, and validates the result. Overrides
// come after defaults so that zero values set through options survive.
func (b *SimulatorBuilder) effectiveConfig() (*Config, error) {
	cfg := &Config{}
	if b.config != nil {
		*cfg = *b.config
	}
	if err := ProcessConfigDefaults(cfg); err != nil {
		return nil, err
	}
	for _, override := range b.overrides {
		override(cfg)
	}
	if err := ValidateConfigRequired(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithConfig sets the base configuration. The config is copied.
func WithConfig(cfg *Config) Option {
	return func(b *SimulatorBuilder) error {
		if cfg == nil {
			return ErrConfigNil
		}
		b.config = cfg
		return nil
	}
}

// WithLogger sets the logger for the simulator
func WithLogger(logger Logger) Option {
	return func(b *SimulatorBuilder) error {
		if logger == nil {
			return ErrLoggerNil
		}
		b.logger = logger
		return nil
	}
}

// WithModels appends model builders in declaration order.
func WithModels(builders ...ModelBuilder) Option {
	return func(b *SimulatorBuilder) error {
		for _, mb := range builders {
			if isNilBuilder(mb) {
				return ErrBuilderNil
			}
		}
		b.builders = append(b.builders, builders...)
		return nil
	}
}

// WithObserver registers an observer for the given event types, or for all
// events when none are given.
func WithObserver(observer Observer, eventTypes ...string) Option {
	return func(b *SimulatorBuilder) error {
		if observer == nil {
			return ErrObserverNil
		}
		b.observers = append(b.observers, observerRegistration{
			observer:   observer,
			eventTypes: slices.Clone(eventTypes),
		})
		return nil
	}
}

// WithObserverFunc registers a function as an observer of all events.
func WithObserverFunc(id string, fn ObserverFunc) Option {
	return func(b *SimulatorBuilder) error {
		if fn == nil {
			return ErrObserverNil
		}
		return WithObserver(NewFunctionalObserver(id, fn))(b)
	}
}

// WithRandomSeed overrides the seed of the default random model.
func WithRandomSeed(seed int64) Option {
	return func(b *SimulatorBuilder) error {
		b.overrides = append(b.overrides, func(c *Config) { c.RandomSeed = seed })
		return nil
	}
}

// WithTickLength overrides the tick length of the default clock.
func WithTickLength(length int64) Option {
	return func(b *SimulatorBuilder) error {
		if length <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTickLength, length)
		}
		b.overrides = append(b.overrides, func(c *Config) { c.TickLength = length })
		return nil
	}
}

// WithTimeUnit overrides the time unit of the default clock.
func WithTimeUnit(unit string) Option {
	return func(b *SimulatorBuilder) error {
		if _, err := ParseTimeUnit(unit); err != nil {
			return err
		}
		b.overrides = append(b.overrides, func(c *Config) { c.TimeUnit = unit })
		return nil
	}
}

// WithEndTime stops Start once the simulated time reaches end. 0 disables it.
func WithEndTime(end int64) Option {
	return func(b *SimulatorBuilder) error {
		if end < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidEndTime, end)
		}
		b.overrides = append(b.overrides, func(c *Config) { c.EndTime = end })
		return nil
	}
}

// WithStopCondition adds a condition that ends the Start loop.
func WithStopCondition(stop StopCondition) Option {
	return func(b *SimulatorBuilder) error {
		if stop == nil {
			return ErrStopConditionNil
		}
		b.stops = append(b.stops, stop)
		return nil
	}
}
