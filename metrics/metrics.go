// Package metrics exports simulator progress and the values of instrumented
// domain objects as Prometheus metrics.
//
// The model is a tick listener: it records the tick count, the simulated
// time and the wall-clock duration of every tick, and samples every
// registered Instrumented object in the AfterTick phase.
package metrics

import (
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/GoCodeAlone/modsim"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented is implemented by domain objects exposing one numeric value.
// The name becomes the value of the "name" label of modsim_instrument_value
// and must be unique among registered objects.
type Instrumented interface {
	MetricName() string
	MetricValue() float64
}

// Sampler is the capability provided by the metrics model.
type Sampler interface {
	// Sample returns the last sampled value of an instrument.
	Sample(name string) (float64, bool)
}

// NewModelBuilder returns the builder of a metrics model registering its
// collectors with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewModelBuilder(reg prometheus.Registerer) modsim.ModelBuilder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return modsim.NewBuilder(modsim.BuilderSpec{
		BuilderName: "metrics",
		Associated:  modsim.TypeOf[Instrumented](),
		Provides:    []reflect.Type{modsim.TypeOf[Sampler]()},
		Requires:    []reflect.Type{modsim.TypeOf[modsim.Clock]()},
	}, func(dp modsim.DependencyProvider) (modsim.Model, error) {
		clock, err := modsim.Provide[modsim.Clock](dp)
		if err != nil {
			return nil, err
		}
		m := newModel(clock)
		if err := m.register(reg); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// Model is the metrics model.
type Model struct {
	modsim.AbstractModel[Instrumented]

	clock       modsim.Clock
	instruments []Instrumented
	samples     map[string]float64
	tickStart   time.Time

	ticksTotal      prometheus.Counter
	simulatedTime   prometheus.Gauge
	simulatedSecs   prometheus.Gauge
	tickDuration    prometheus.Histogram
	instrumentCount prometheus.Gauge
	instrumentValue *prometheus.GaugeVec
}

func newModel(clock modsim.Clock) *Model {
	return &Model{
		clock:   clock,
		samples: make(map[string]float64),
		ticksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "modsim_ticks_total",
				Help: "Number of completed simulation ticks.",
			},
		),
		simulatedTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modsim_simulated_time",
				Help: "Simulated time at the end of the last tick, in time units.",
			},
		),
		simulatedSecs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modsim_simulated_time_seconds",
				Help: "Simulated time at the end of the last tick, in seconds.",
			},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "modsim_tick_duration_seconds",
				Help:    "Wall-clock time between the Tick and AfterTick calls of the metrics model.",
				Buckets: prometheus.DefBuckets,
			},
		),
		instrumentCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "modsim_instruments",
				Help: "Number of registered instrumented objects.",
			},
		),
		instrumentValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "modsim_instrument_value",
				Help: "Value of an instrumented object, sampled after every tick.",
			},
			[]string{"name"},
		),
	}
}

func (m *Model) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ticksTotal,
		m.simulatedTime,
		m.simulatedSecs,
		m.tickDuration,
		m.instrumentCount,
		m.instrumentValue,
	}
}

func (m *Model) register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}
	return nil
}

func (m *Model) Register(element any) (bool, error) {
	inst, ok := element.(Instrumented)
	if !ok {
		return false, nil
	}
	name := inst.MetricName()
	for _, existing := range m.instruments {
		if existing.MetricName() == name {
			return false, fmt.Errorf("%w: %q", ErrDuplicateInstrument, name)
		}
	}
	m.instruments = append(m.instruments, inst)
	m.instrumentCount.Set(float64(len(m.instruments)))
	return true, nil
}

func (m *Model) Unregister(element any) (bool, error) {
	inst, ok := element.(Instrumented)
	if !ok {
		return false, nil
	}
	idx := slices.Index(m.instruments, inst)
	if idx < 0 {
		return false, nil
	}
	m.instruments = slices.Delete(m.instruments, idx, idx+1)
	m.instrumentValue.DeleteLabelValues(inst.MetricName())
	delete(m.samples, inst.MetricName())
	m.instrumentCount.Set(float64(len(m.instruments)))
	return true, nil
}

func (m *Model) Get(capability reflect.Type) (any, error) {
	if capability == modsim.TypeOf[Sampler]() {
		return m, nil
	}
	return m.AbstractModel.Get(capability)
}

// Tick implements modsim.TickListener.
func (m *Model) Tick(*modsim.TimeLapse) error {
	m.tickStart = time.Now()
	return nil
}

// AfterTick implements modsim.TickListener.
func (m *Model) AfterTick(lapse *modsim.TimeLapse) error {
	m.tickDuration.Observe(time.Since(m.tickStart).Seconds())
	m.ticksTotal.Inc()
	m.simulatedTime.Set(float64(lapse.EndTime()))
	m.simulatedSecs.Set(float64(lapse.EndTime()) * m.clock.TimeUnit().Seconds())

	for _, inst := range m.instruments {
		v := inst.MetricValue()
		m.samples[inst.MetricName()] = v
		m.instrumentValue.WithLabelValues(inst.MetricName()).Set(v)
	}
	return nil
}

// Sample implements Sampler.
func (m *Model) Sample(name string) (float64, bool) {
	v, ok := m.samples[name]
	return v, ok
}
