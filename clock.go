package modsim

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// Clock is the read-only view of simulated time.
type Clock interface {
	// CurrentTime returns the start of the next tick, in time units.
	CurrentTime() int64
	// TickLength returns the length of one tick, in time units.
	TickLength() int64
	// TimeUnit returns the duration of one time unit.
	TimeUnit() time.Duration
	// Ticks returns the number of completed ticks.
	Ticks() uint64
}

// ClockController drives the tick loop.
type ClockController interface {
	Clock

	// Tick executes exactly one tick: every listener's Tick, then every
	// listener's AfterTick, then the tick end hook.
	Tick() error

	// Start ticks until Stop is called, a stop condition holds or ctx is
	// cancelled. The tick in flight is always completed.
	Start(ctx context.Context) error

	// Stop requests the running Start loop to exit after the current tick.
	Stop()

	// IsTicking reports whether a tick is in progress.
	IsTicking() bool

	// IsRunning reports whether a Start loop is in progress. Between two
	// ticks of the loop, stop conditions run with IsTicking false.
	IsRunning() bool

	// SetTickEndHook installs the function called at the end of every tick,
	// after the AfterTick phase.
	SetTickEndHook(hook func() error)
}

// StopCondition is evaluated before every tick of a Start loop; the loop
// exits when it returns true.
type StopCondition func(c Clock) bool

// ClockSettings configures a clock built by NewClockBuilder.
type ClockSettings struct {
	TickLength int64
	Unit       time.Duration
	// EndTime stops the Start loop once reached; 0 means unbounded.
	EndTime        int64
	StopConditions []StopCondition
}

// NewClockBuilder returns the builder of the default clock. The clock handles
// TickListener registrations and provides Clock and ClockController.
func NewClockBuilder(settings ClockSettings) ModelBuilder {
	return NewBuilder(BuilderSpec{
		BuilderName: "clock",
		Associated:  TypeOf[TickListener](),
		Provides:    []reflect.Type{TypeOf[Clock](), TypeOf[ClockController]()},
	}, func(DependencyProvider) (Model, error) {
		if settings.TickLength <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidTickLength, settings.TickLength)
		}
		if settings.Unit <= 0 {
			return nil, fmt.Errorf("%w: %v", ErrUnknownTimeUnit, settings.Unit)
		}
		if settings.EndTime < 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidEndTime, settings.EndTime)
		}
		return &clockModel{
			tickLength: settings.TickLength,
			unit:       settings.Unit,
			endTime:    settings.EndTime,
			stops:      slices.Clone(settings.StopConditions),
		}, nil
	})
}

type clockModel struct {
	AbstractModel[TickListener]

	tickLength int64
	unit       time.Duration
	endTime    int64
	stops      []StopCondition

	time      int64
	ticks     uint64
	listeners []TickListener

	ticking       bool
	running       bool
	stopRequested bool
	tickEnd       func() error
}

func (c *clockModel) Register(element any) (bool, error) {
	l, ok := element.(TickListener)
	if !ok || slices.Contains(c.listeners, l) {
		return false, nil
	}
	c.listeners = append(c.listeners, l)
	return true, nil
}

func (c *clockModel) Unregister(element any) (bool, error) {
	l, ok := element.(TickListener)
	if !ok {
		return false, nil
	}
	idx := slices.Index(c.listeners, l)
	if idx < 0 {
		return false, nil
	}
	c.listeners = slices.Delete(c.listeners, idx, idx+1)
	return true, nil
}

func (c *clockModel) Get(capability reflect.Type) (any, error) {
	switch capability {
	case TypeOf[Clock](), TypeOf[ClockController]():
		return c, nil
	default:
		return c.AbstractModel.Get(capability)
	}
}

func (c *clockModel) CurrentTime() int64      { return c.time }
func (c *clockModel) TickLength() int64       { return c.tickLength }
func (c *clockModel) TimeUnit() time.Duration { return c.unit }
func (c *clockModel) Ticks() uint64           { return c.ticks }
func (c *clockModel) IsTicking() bool         { return c.ticking }
func (c *clockModel) IsRunning() bool         { return c.running }

func (c *clockModel) SetTickEndHook(hook func() error) {
	c.tickEnd = hook
}

func (c *clockModel) Tick() error {
	if c.ticking {
		return ErrAlreadyTicking
	}
	c.ticking = true
	defer func() { c.ticking = false }()

	lapse := NewTimeLapse(c.unit, c.time, c.time+c.tickLength)
	listeners := slices.Clone(c.listeners)
	for _, l := range listeners {
		lapse.reset()
		if err := l.Tick(lapse); err != nil {
			return err
		}
	}
	lapse.ConsumeAll()
	for _, l := range listeners {
		if err := l.AfterTick(lapse); err != nil {
			return err
		}
	}

	c.time = lapse.EndTime()
	c.ticks++

	if c.tickEnd != nil {
		return c.tickEnd()
	}
	return nil
}

func (c *clockModel) Start(ctx context.Context) error {
	if c.running || c.ticking {
		return ErrAlreadyTicking
	}
	c.running = true
	c.stopRequested = false
	defer func() { c.running = false }()

	for !c.shouldStop() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func (c *clockModel) Stop() {
	c.stopRequested = true
}

func (c *clockModel) shouldStop() bool {
	if c.stopRequested {
		return true
	}
	if c.endTime > 0 && c.time >= c.endTime {
		return true
	}
	for _, stop := range c.stops {
		if stop(c) {
			return true
		}
	}
	return false
}
