// Package schedule fires cron-style periodic jobs in simulated time.
//
// Simulated time t maps to the wall-clock instant epoch + t*unit, where unit
// is the time unit of the simulator clock. During a tick covering [start,
// end), every activation of every job that falls inside the window is fired,
// jobs in registration order and each job's activations in time order.
package schedule

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/GoCodeAlone/modsim"
	"github.com/robfig/cron/v3"
)

// Job is a periodic task. Spec is a cron expression with an optional seconds
// field, or a descriptor such as "@hourly" or "@every 30s".
type Job interface {
	Spec() string
	Fire(at time.Time, lapse *modsim.TimeLapse) error
}

// Scheduler is the capability provided by the schedule model.
type Scheduler interface {
	// NextActivation returns the next pending activation of a registered job.
	NextActivation(job Job) (time.Time, bool)
	// WallTime maps a simulated time to its wall-clock instant.
	WallTime(t int64) time.Time
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSpec parses a job spec with the parser used by the schedule model.
func ParseSpec(spec string) (cron.Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpec, spec, err)
	}
	return s, nil
}

// NewModelBuilder returns the builder of a schedule model whose simulated
// time 0 is the given epoch.
func NewModelBuilder(epoch time.Time) modsim.ModelBuilder {
	return modsim.NewBuilder(modsim.BuilderSpec{
		BuilderName: "schedule",
		Associated:  modsim.TypeOf[Job](),
		Provides:    []reflect.Type{modsim.TypeOf[Scheduler]()},
		Requires:    []reflect.Type{modsim.TypeOf[modsim.Clock]()},
	}, func(dp modsim.DependencyProvider) (modsim.Model, error) {
		clock, err := modsim.Provide[modsim.Clock](dp)
		if err != nil {
			return nil, err
		}
		return &Model{clock: clock, epoch: epoch}, nil
	})
}

type entry struct {
	job      Job
	schedule cron.Schedule
	next     time.Time
}

// Model is the schedule model.
type Model struct {
	modsim.AbstractModel[Job]

	clock   modsim.Clock
	epoch   time.Time
	entries []*entry
}

// WallTime implements Scheduler.
func (m *Model) WallTime(t int64) time.Time {
	return m.epoch.Add(time.Duration(t) * m.clock.TimeUnit())
}

// Register accepts a job. Its first activation is the first one strictly
// after the current simulated time.
func (m *Model) Register(element any) (bool, error) {
	job, ok := element.(Job)
	if !ok {
		return false, nil
	}
	s, err := ParseSpec(job.Spec())
	if err != nil {
		return false, err
	}
	m.entries = append(m.entries, &entry{
		job:      job,
		schedule: s,
		next:     s.Next(m.WallTime(m.clock.CurrentTime())),
	})
	return true, nil
}

func (m *Model) Unregister(element any) (bool, error) {
	job, ok := element.(Job)
	if !ok {
		return false, nil
	}
	idx := slices.IndexFunc(m.entries, func(e *entry) bool { return e.job == job })
	if idx < 0 {
		return false, nil
	}
	m.entries = slices.Delete(m.entries, idx, idx+1)
	return true, nil
}

func (m *Model) Get(capability reflect.Type) (any, error) {
	if capability == modsim.TypeOf[Scheduler]() {
		return m, nil
	}
	return m.AbstractModel.Get(capability)
}

// NextActivation implements Scheduler.
func (m *Model) NextActivation(job Job) (time.Time, bool) {
	for _, e := range m.entries {
		if e.job == job && !e.next.IsZero() {
			return e.next, true
		}
	}
	return time.Time{}, false
}

// Tick fires every activation inside the lapse window.
func (m *Model) Tick(lapse *modsim.TimeLapse) error {
	start, end := m.WallTime(lapse.StartTime()), m.WallTime(lapse.EndTime())
	for _, e := range slices.Clone(m.entries) {
		for !e.next.IsZero() && e.next.Before(end) {
			at := e.next
			e.next = e.schedule.Next(at)
			if at.Before(start) {
				continue
			}
			if err := e.job.Fire(at, lapse); err != nil {
				return fmt.Errorf("job %q failed at %s: %w", e.job.Spec(), at.Format(time.RFC3339), err)
			}
		}
	}
	return nil
}

// AfterTick implements modsim.TickListener.
func (m *Model) AfterTick(*modsim.TimeLapse) error {
	return nil
}
