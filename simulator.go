package modsim

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// SimulatorAPI is the view of the simulator handed to SimulatorUser objects.
type SimulatorAPI interface {
	// Register offers the element to every model able to handle it.
	Register(element any) (bool, error)

	// Unregister removes the element. During a tick the removal is deferred
	// until the tick has completed.
	Unregister(element any) error

	// RandomGenerator returns the random provider of the simulator.
	RandomGenerator() RandomProvider

	// CurrentTime returns the simulated time, in time units.
	CurrentTime() int64

	// TimeStep returns the tick length, in time units.
	TimeStep() int64

	// TimeUnit returns the duration of one time unit.
	TimeUnit() time.Duration
}

// Simulator is the top-level facade. It owns the models and drives the tick
// loop of the clock.
//
// A Simulator is single-threaded: every method must be called from the
// goroutine that calls Start or Tick. Independent simulators share no state
// and can run concurrently.
type Simulator struct {
	config   *Config
	logger   Logger
	resolver *DependencyResolver
	manager  *ModelManager
	clock    ClockController
	random   RandomProvider
	subject  *eventSubject

	pending []any
	ctx     context.Context
}

func newSimulator(cfg *Config, logger Logger, builders []ModelBuilder, stops []StopCondition, observers []observerRegistration) (*Simulator, error) {
	sim := &Simulator{
		config:  cfg,
		logger:  logger,
		subject: &eventSubject{logger: logger},
		ctx:     context.Background(),
	}
	for _, r := range observers {
		if err := sim.subject.RegisterObserver(r.observer, r.eventTypes...); err != nil {
			return nil, err
		}
	}

	all := append(slices.Clone(builders), newSimulatorUserBuilder(sim))
	resolver, err := NewDependencyResolver(cfg, logger, all, stops...)
	if err != nil {
		return nil, err
	}
	manager, err := NewModelManagerFromResolver(resolver, logger)
	if err != nil {
		return nil, err
	}
	sim.resolver = resolver
	sim.manager = manager

	clock, err := Provide[ClockController](manager)
	if err != nil {
		if errors.Is(err, ErrNoProvider) {
			return nil, ErrNoClockController
		}
		return nil, err
	}
	random, err := Provide[RandomProvider](manager)
	if err != nil {
		if errors.Is(err, ErrNoProvider) {
			return nil, ErrNoRandomProvider
		}
		return nil, err
	}
	sim.clock = clock
	sim.random = random
	clock.SetTickEndHook(sim.endOfTick)

	sim.emitBuilt()
	logger.Info("Simulator created",
		"models", len(manager.Models()),
		"buildOrder", resolver.BuildOrder(),
		"tickLength", clock.TickLength(),
		"timeUnit", clock.TimeUnit().String(),
		"seed", random.Seed(),
	)
	return sim, nil
}

func (s *Simulator) emitBuilt() {
	positions := s.resolver.BuildPositions()
	builders := s.resolver.Builders()
	for i, m := range s.manager.Models() {
		s.subject.emit(s.ctx, EventTypeModelBuilt, ModelBuiltData{
			Builder: builders[i].Name(),
			Model:   fmt.Sprintf("%T", m),
			Order:   positions[i],
		}, 0)
	}
}

// Register offers the element to every model able to handle it, immediately
// even while ticking. It fails with ErrNoModelForType when no model's
// supported type matches the element.
func (s *Simulator) Register(element any) (bool, error) {
	accepted, err := s.manager.Register(element)
	if err != nil {
		return false, err
	}
	s.subject.emit(s.ctx, EventTypeObjectRegistered, ObjectEventData{
		Type:     fmt.Sprintf("%T", element),
		Accepted: accepted,
	}, s.clock.CurrentTime())
	return accepted, nil
}

// Unregister removes the element from the models that accepted it. While the
// clock is ticking the element stays visible to every model until the tick
// has completed; the request is validated at once and queued.
func (s *Simulator) Unregister(element any) error {
	if !s.clock.IsTicking() {
		return s.unregisterNow(element, false)
	}
	if element == nil {
		return ErrNilElement
	}
	if !s.manager.IsRegistered(element) {
		return fmt.Errorf("%w: %T", ErrNotRegistered, element)
	}
	if slices.Contains(s.pending, element) {
		return nil
	}
	s.pending = append(s.pending, element)
	s.logger.Debug("Deferred unregister", "type", fmt.Sprintf("%T", element), "pending", len(s.pending))
	return nil
}

func (s *Simulator) unregisterNow(element any, deferred bool) error {
	if _, err := s.manager.Unregister(element); err != nil {
		return err
	}
	s.subject.emit(s.ctx, EventTypeObjectUnregistered, ObjectEventData{
		Type:     fmt.Sprintf("%T", element),
		Accepted: true,
		Deferred: deferred,
	}, s.clock.CurrentTime())
	return nil
}

// endOfTick runs after the AfterTick phase. Unregistrations requested while
// draining are drained in the same pass.
func (s *Simulator) endOfTick() error {
	for len(s.pending) > 0 {
		element := s.pending[0]
		s.pending = s.pending[1:]
		if err := s.unregisterNow(element, true); err != nil {
			s.pending = nil
			return err
		}
	}
	s.pending = nil

	end := s.clock.CurrentTime()
	s.subject.emit(s.ctx, EventTypeTickCompleted, TickData{
		Tick:  s.clock.Ticks(),
		Start: end - s.clock.TickLength(),
		End:   end,
	}, end)
	return nil
}

// Tick executes exactly one tick. When the tick fails, the unregistrations
// it deferred are discarded.
func (s *Simulator) Tick() error {
	if err := s.clock.Tick(); err != nil {
		s.discardPending(err)
		return err
	}
	return nil
}

func (s *Simulator) discardPending(cause error) {
	if len(s.pending) == 0 {
		return
	}
	s.logger.Warn("Discarding deferred unregistrations of failed tick", "count", len(s.pending), "error", cause)
	s.pending = nil
}

// Start ticks until Stop is called, a stop condition holds or ctx is
// cancelled. A model error aborts the loop and is returned as is.
func (s *Simulator) Start(ctx context.Context) error {
	if s.clock.IsTicking() || s.clock.IsRunning() {
		return ErrAlreadyTicking
	}
	s.ctx = ctx
	defer func() { s.ctx = context.Background() }()

	s.logger.Info("Simulator started", "time", s.clock.CurrentTime())
	s.subject.emit(ctx, EventTypeSimulatorStarted, s.lifecycleData(nil), s.clock.CurrentTime())

	err := s.clock.Start(ctx)
	if err != nil {
		s.discardPending(err)
		s.logger.Error("Simulator stopped with error", "time", s.clock.CurrentTime(), "error", err)
		s.subject.emit(context.Background(), EventTypeSimulatorFailed, s.lifecycleData(err), s.clock.CurrentTime())
		return err
	}

	s.logger.Info("Simulator stopped", "time", s.clock.CurrentTime(), "ticks", s.clock.Ticks())
	s.subject.emit(ctx, EventTypeSimulatorStopped, s.lifecycleData(nil), s.clock.CurrentTime())
	return nil
}

func (s *Simulator) lifecycleData(err error) SimulatorEventData {
	data := SimulatorEventData{Time: s.clock.CurrentTime(), Ticks: s.clock.Ticks()}
	if err != nil {
		data.Error = err.Error()
	}
	return data
}

// Stop requests the Start loop to exit after the current tick.
func (s *Simulator) Stop() {
	s.clock.Stop()
}

// IsTicking reports whether a tick is in progress.
func (s *Simulator) IsTicking() bool {
	return s.clock.IsTicking()
}

// IsRunning reports whether a Start loop is in progress.
func (s *Simulator) IsRunning() bool {
	return s.clock.IsRunning()
}

func (s *Simulator) RandomGenerator() RandomProvider {
	return s.random
}

func (s *Simulator) CurrentTime() int64 {
	return s.clock.CurrentTime()
}

func (s *Simulator) TimeStep() int64 {
	return s.clock.TickLength()
}

func (s *Simulator) TimeUnit() time.Duration {
	return s.clock.TimeUnit()
}

// Clock returns the read-only clock.
func (s *Simulator) Clock() Clock {
	return s.clock
}

// Config returns the effective configuration.
func (s *Simulator) Config() Config {
	return *s.config
}

// Models returns every model in declaration order, defaults included.
func (s *Simulator) Models() []Model {
	return s.manager.Models()
}

// Get returns the instance of a provided capability.
func (s *Simulator) Get(capability reflect.Type) (any, error) {
	return s.manager.Get(capability)
}

// BuildOrder returns the builder names in the order their models were built.
func (s *Simulator) BuildOrder() []string {
	return s.resolver.BuildOrder()
}

// IsRegistered reports whether the element is currently registered.
func (s *Simulator) IsRegistered(element any) bool {
	return s.manager.IsRegistered(element)
}

// RegisterObserver implements Subject.
func (s *Simulator) RegisterObserver(observer Observer, eventTypes ...string) error {
	return s.subject.RegisterObserver(observer, eventTypes...)
}

// UnregisterObserver implements Subject.
func (s *Simulator) UnregisterObserver(observer Observer) error {
	return s.subject.UnregisterObserver(observer)
}

// NotifyObservers implements Subject.
func (s *Simulator) NotifyObservers(ctx context.Context, event CloudEvent) error {
	return s.subject.NotifyObservers(ctx, event)
}
