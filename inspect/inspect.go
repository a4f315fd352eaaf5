// Package inspect publishes read-only snapshots of the objects registered
// with a simulator and serves them over HTTP.
//
// The model runs on the simulation goroutine and swaps in a new immutable
// Snapshot after every tick; HTTP handlers only ever read the latest
// published snapshot, so serving never touches live simulation state.
package inspect

import (
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"

	"github.com/GoCodeAlone/modsim"
)

// Inspectable is implemented by domain objects that expose their state.
// InspectState is called on the simulation goroutine; the returned value is
// stored in the snapshot as is and should not be mutated afterwards.
type Inspectable interface {
	InspectID() string
	InspectState() any
}

// ObjectState is the snapshot entry of one Inspectable.
type ObjectState struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	State any    `json:"state"`
}

// Snapshot is the state of the simulator at the end of a tick.
type Snapshot struct {
	Time     int64         `json:"time"`
	Ticks    uint64        `json:"ticks"`
	TimeUnit string        `json:"timeUnit"`
	Objects  []ObjectState `json:"objects"`
}

// Object returns the entry with the given id.
func (s *Snapshot) Object(id string) (ObjectState, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return ObjectState{}, false
}

// Source hands out the latest published snapshot. It is safe for concurrent
// use.
type Source interface {
	Snapshot() *Snapshot
}

// NewModelBuilder returns the builder of the inspection model. The model
// provides Source.
func NewModelBuilder() modsim.ModelBuilder {
	return modsim.NewBuilder(modsim.BuilderSpec{
		BuilderName: "inspect",
		Associated:  modsim.TypeOf[Inspectable](),
		Provides:    []reflect.Type{modsim.TypeOf[Source]()},
		Requires:    []reflect.Type{modsim.TypeOf[modsim.Clock]()},
	}, func(dp modsim.DependencyProvider) (modsim.Model, error) {
		clock, err := modsim.Provide[modsim.Clock](dp)
		if err != nil {
			return nil, err
		}
		m := &Model{clock: clock}
		m.publish(clock.CurrentTime(), clock.Ticks())
		return m, nil
	})
}

// Model is the inspection model.
type Model struct {
	modsim.AbstractModel[Inspectable]

	clock   modsim.Clock
	objects []Inspectable
	current atomic.Pointer[Snapshot]
}

func (m *Model) Register(element any) (bool, error) {
	obj, ok := element.(Inspectable)
	if !ok {
		return false, nil
	}
	id := obj.InspectID()
	for _, existing := range m.objects {
		if existing.InspectID() == id {
			return false, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
	}
	m.objects = append(m.objects, obj)
	m.publish(m.clock.CurrentTime(), m.clock.Ticks())
	return true, nil
}

func (m *Model) Unregister(element any) (bool, error) {
	obj, ok := element.(Inspectable)
	if !ok {
		return false, nil
	}
	idx := slices.Index(m.objects, obj)
	if idx < 0 {
		return false, nil
	}
	m.objects = slices.Delete(m.objects, idx, idx+1)
	m.publish(m.clock.CurrentTime(), m.clock.Ticks())
	return true, nil
}

func (m *Model) Get(capability reflect.Type) (any, error) {
	if capability == modsim.TypeOf[Source]() {
		return m, nil
	}
	return m.AbstractModel.Get(capability)
}

// Tick implements modsim.TickListener.
func (m *Model) Tick(*modsim.TimeLapse) error {
	return nil
}

// AfterTick publishes the snapshot of the tick that is about to complete.
func (m *Model) AfterTick(lapse *modsim.TimeLapse) error {
	m.publish(lapse.EndTime(), m.clock.Ticks()+1)
	return nil
}

// Snapshot implements Source.
func (m *Model) Snapshot() *Snapshot {
	return m.current.Load()
}

func (m *Model) publish(t int64, ticks uint64) {
	snap := &Snapshot{
		Time:     t,
		Ticks:    ticks,
		TimeUnit: m.clock.TimeUnit().String(),
		Objects:  make([]ObjectState, 0, len(m.objects)),
	}
	for _, obj := range m.objects {
		snap.Objects = append(snap.Objects, ObjectState{
			ID:    obj.InspectID(),
			Type:  fmt.Sprintf("%T", obj),
			State: obj.InspectState(),
		})
	}
	m.current.Store(snap)
}
