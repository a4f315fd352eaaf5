package modsim

import (
	"fmt"
	"reflect"
)

type testLogger struct{}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {}
func (l *testLogger) Info(msg string, keysAndValues ...any)  {}
func (l *testLogger) Warn(msg string, keysAndValues ...any)  {}
func (l *testLogger) Error(msg string, keysAndValues ...any) {}

// Test capabilities
type RoadModel interface {
	Road() string
}

type PDPModel interface {
	PDP() string
}

type capA interface{ A() }
type capB interface{ B() }
type capL interface{ L() }
type capX interface{ X() }

// Vehicle is the general element type; *truck is the specialised one.
type Vehicle interface {
	Speed() float64
}

type truck struct {
	id string
}

func (t *truck) Speed() float64 { return 1 }

type bicycle struct{}

// recordingModel logs every call into a shared journal.
type recordingModel struct {
	name      string
	supported reflect.Type
	reject    bool
	err       error
	journal   *[]string
	elements  []any
	provides  map[reflect.Type]any
}

func newRecordingModel(name string, supported reflect.Type, journal *[]string) *recordingModel {
	return &recordingModel{name: name, supported: supported, journal: journal, provides: map[reflect.Type]any{}}
}

func (m *recordingModel) SupportedType() reflect.Type { return m.supported }

func (m *recordingModel) Register(element any) (bool, error) {
	m.log("register")
	if m.err != nil {
		return false, m.err
	}
	if m.reject {
		return false, nil
	}
	m.elements = append(m.elements, element)
	return true, nil
}

func (m *recordingModel) Unregister(element any) (bool, error) {
	m.log("unregister")
	for i, e := range m.elements {
		if e == element {
			m.elements = append(m.elements[:i], m.elements[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *recordingModel) Get(capability reflect.Type) (any, error) {
	if v, ok := m.provides[capability]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedCapability, capability)
}

func (m *recordingModel) log(op string) {
	if m.journal != nil {
		*m.journal = append(*m.journal, m.name+":"+op)
	}
}

// Road/PDP/capability implementations so a recordingModel can stand in as a
// provided instance.
func (m *recordingModel) Road() string { return m.name }
func (m *recordingModel) PDP() string  { return m.name }
func (m *recordingModel) A()           {}
func (m *recordingModel) B()           {}
func (m *recordingModel) L()           {}
func (m *recordingModel) X()           {}

// stubBuilder builds a recordingModel exposing itself for every providing
// type and counts its builds.
func stubBuilder(name string, provides, requires []reflect.Type, children ...ModelBuilder) *countingBuilder {
	return &countingBuilder{
		BuilderSpec: BuilderSpec{BuilderName: name, Associated: TypeOf[*recordingModel](), Provides: provides, Requires: requires},
		children:    children,
	}
}

type countingBuilder struct {
	BuilderSpec
	children []ModelBuilder
	builds   int
	model    *recordingModel
	provided map[reflect.Type]any
	onBuild  func(dp DependencyProvider) error
}

func (b *countingBuilder) Build(dp DependencyProvider) (Model, error) {
	b.builds++
	b.provided = map[reflect.Type]any{}
	for _, t := range b.DependencyTypes() {
		v, err := dp.Get(t)
		if err != nil {
			return nil, err
		}
		b.provided[t] = v
	}
	if b.onBuild != nil {
		if err := b.onBuild(dp); err != nil {
			return nil, err
		}
	}
	m := newRecordingModel(b.Name(), nil, nil)
	for _, t := range b.ProvidingTypes() {
		m.provides[t] = m
	}
	b.model = m
	return m, nil
}

func (b *countingBuilder) Children() []ModelBuilder {
	return b.children
}

func types(ts ...reflect.Type) []reflect.Type {
	return ts
}

func newTestResolver(builders ...ModelBuilder) (*DependencyResolver, error) {
	return NewDependencyResolver(DefaultConfig(), &testLogger{}, builders)
}

func modelNames(models []Model) []string {
	var names []string
	for _, m := range models {
		switch v := m.(type) {
		case *recordingModel:
			names = append(names, v.name)
		case *randomModel:
			names = append(names, "random")
		case *clockModel:
			names = append(names, "clock")
		case *simulatorUserModel:
			names = append(names, "simulator-user")
		default:
			names = append(names, fmt.Sprintf("%T", m))
		}
	}
	return names
}
