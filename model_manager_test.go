package modsim

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, models ...Model) *ModelManager {
	t.Helper()
	mm, err := NewModelManager(models, nil, &testLogger{})
	require.NoError(t, err)
	return mm
}

func TestModelManager_NoMatchingModel(t *testing.T) {
	var journal []string
	trucks := newRecordingModel("trucks", TypeOf[*truck](), &journal)
	mm := newTestManager(t, trucks)

	accepted, err := mm.Register(&bicycle{})
	require.ErrorIs(t, err, ErrNoModelForType)
	assert.False(t, accepted)
	assert.Empty(t, journal, "no model may be called when none matches")
	assert.Empty(t, trucks.elements)
}

func TestModelManager_SuperAndSubtypeModels(t *testing.T) {
	tests := []struct {
		name       string
		generalFst bool
		register   []string
		unregister []string
	}{
		{
			name:       "general declared first",
			generalFst: true,
			register:   []string{"general:register", "special:register"},
			unregister: []string{"general:unregister", "special:unregister"},
		},
		{
			name:       "special declared first",
			generalFst: false,
			register:   []string{"special:register", "general:register"},
			unregister: []string{"special:unregister", "general:unregister"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var journal []string
			general := newRecordingModel("general", TypeOf[Vehicle](), &journal)
			special := newRecordingModel("special", TypeOf[*truck](), &journal)
			models := []Model{general, special}
			if !tt.generalFst {
				models = []Model{special, general}
			}
			mm := newTestManager(t, models...)

			tr := &truck{id: "t1"}
			accepted, err := mm.Register(tr)
			require.NoError(t, err)
			assert.True(t, accepted)
			assert.Equal(t, tt.register, journal)
			assert.Len(t, mm.ModelsFor(tr), 2)

			journal = journal[:0]
			removed, err := mm.Unregister(tr)
			require.NoError(t, err)
			assert.True(t, removed)
			assert.Equal(t, tt.unregister, journal)
			assert.False(t, mm.IsRegistered(tr))
		})
	}
}

func TestModelManager_UnregisterRoutesOnlyToAcceptingModels(t *testing.T) {
	var journal []string
	general := newRecordingModel("general", TypeOf[Vehicle](), &journal)
	picky := newRecordingModel("picky", TypeOf[*truck](), &journal)
	picky.reject = true
	mm := newTestManager(t, general, picky)

	tr := &truck{}
	_, err := mm.Register(tr)
	require.NoError(t, err)
	assert.Equal(t, []Model{general}, mm.ModelsFor(tr))

	journal = nil
	_, err = mm.Unregister(tr)
	require.NoError(t, err)
	assert.Equal(t, []string{"general:unregister"}, journal)
}

func TestModelManager_NoModelAccepts(t *testing.T) {
	picky := newRecordingModel("picky", TypeOf[*truck](), nil)
	picky.reject = true
	mm := newTestManager(t, picky)

	tr := &truck{}
	accepted, err := mm.Register(tr)
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.False(t, mm.IsRegistered(tr))

	_, err = mm.Unregister(tr)
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestModelManager_UnregisterUnknown(t *testing.T) {
	mm := newTestManager(t, newRecordingModel("trucks", TypeOf[*truck](), nil))
	_, err := mm.Unregister(&truck{})
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestModelManager_ModelErrorPropagatesWithoutRollback(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	general := newRecordingModel("general", TypeOf[Vehicle](), &journal)
	failing := newRecordingModel("failing", TypeOf[*truck](), &journal)
	failing.err = boom
	late := newRecordingModel("late", TypeOf[Vehicle](), &journal)
	mm := newTestManager(t, general, failing, late)

	tr := &truck{}
	_, err := mm.Register(tr)
	require.ErrorIs(t, err, boom)
	assert.Same(t, boom, err, "model errors are returned as they are")
	assert.Equal(t, []string{"general:register", "failing:register"}, journal)
	assert.Len(t, general.elements, 1, "already notified models are not rolled back")
	assert.Equal(t, []Model{general}, mm.ModelsFor(tr))
}

func TestModelManager_RejectsInvalidElements(t *testing.T) {
	mm := newTestManager(t, newRecordingModel("any", TypeOf[any](), nil))

	t.Run("nil", func(t *testing.T) {
		_, err := mm.Register(nil)
		require.ErrorIs(t, err, ErrNilElement)
		_, err = mm.Unregister(nil)
		require.ErrorIs(t, err, ErrNilElement)
	})

	t.Run("model", func(t *testing.T) {
		_, err := mm.Register(newRecordingModel("m", nil, nil))
		require.ErrorIs(t, err, ErrModelRegistration)
		_, err = mm.Unregister(newRecordingModel("m", nil, nil))
		require.ErrorIs(t, err, ErrModelRegistration)
	})

	t.Run("uncomparable", func(t *testing.T) {
		_, err := mm.Register(struct{ items []int }{})
		require.ErrorIs(t, err, ErrUncomparableElement)
	})

	t.Run("already registered", func(t *testing.T) {
		tr := &truck{}
		_, err := mm.Register(tr)
		require.NoError(t, err)
		_, err = mm.Register(tr)
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	})
}

func TestModelManager_Get(t *testing.T) {
	road := newRecordingModel("road", nil, nil)
	road.provides[TypeOf[RoadModel]()] = road
	mm, err := NewModelManager([]Model{road}, map[reflect.Type]Model{TypeOf[RoadModel](): road}, &testLogger{})
	require.NoError(t, err)

	got, err := Provide[RoadModel](mm)
	require.NoError(t, err)
	assert.Same(t, road, got)

	_, err = mm.Get(TypeOf[PDPModel]())
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestModelManager_WiresModelsIntoEachOther(t *testing.T) {
	var journal []string
	hub := newRecordingModel("hub", TypeOf[RoadModel](), &journal)
	spoke := newRecordingModel("spoke", TypeOf[*truck](), &journal)
	mm := newTestManager(t, hub, spoke)

	// both recording models implement RoadModel, so the hub receives both
	// except itself
	assert.Equal(t, []string{"hub:register"}, journal)
	assert.Equal(t, []any{spoke}, hub.elements)
	assert.Len(t, mm.Models(), 2)
}

// taggedListener is a value-receiver model whose dynamic type holds a slice.
type taggedListener struct {
	tags []string
}

func (taggedListener) SupportedType() reflect.Type { return TypeOf[*truck]() }
func (taggedListener) Register(any) (bool, error) { return true, nil }
func (taggedListener) Unregister(any) (bool, error) { return true, nil }
func (taggedListener) Get(reflect.Type) (any, error) { return nil, ErrUnsupportedCapability }
func (taggedListener) Tick(*TimeLapse) error { return nil }
func (taggedListener) AfterTick(*TimeLapse) error { return nil }

func TestModelManager_RejectsUncomparableModels(t *testing.T) {
	clock := &clockModel{tickLength: 1, unit: 1}
	_, err := NewModelManager([]Model{clock, taggedListener{tags: []string{"a"}}}, nil, &testLogger{})
	require.ErrorIs(t, err, ErrUncomparableModel)
	assert.Empty(t, clock.listeners)

	_, err = NewModelManager([]Model{nil}, nil, &testLogger{})
	require.ErrorIs(t, err, ErrNilModel)

	_, err = NewSimulator(WithLogger(&testLogger{}), WithModels(NewBuilder(BuilderSpec{BuilderName: "tagged"},
		func(DependencyProvider) (Model, error) { return taggedListener{tags: []string{"a"}}, nil })))
	require.ErrorIs(t, err, ErrUncomparableModel)
}

func TestModelManager_NilLogger(t *testing.T) {
	_, err := NewModelManager(nil, nil, nil)
	require.ErrorIs(t, err, ErrLoggerNil)
}

func TestHandles(t *testing.T) {
	general := newRecordingModel("g", TypeOf[Vehicle](), nil)
	none := newRecordingModel("n", nil, nil)

	assert.True(t, Handles(general, &truck{}))
	assert.False(t, Handles(general, &bicycle{}))
	assert.False(t, Handles(general, nil))
	assert.False(t, Handles(none, &truck{}))
	assert.True(t, Handles(matcherModel{}, "anything"))
}

type matcherModel struct {
	AbstractModel[*truck]
}

func (matcherModel) Handles(element any) bool            { return true }
func (matcherModel) Register(element any) (bool, error)   { return true, nil }
func (matcherModel) Unregister(element any) (bool, error) { return true, nil }

func TestAbstractModel(t *testing.T) {
	var m AbstractModel[*truck]
	assert.Equal(t, TypeOf[*truck](), m.SupportedType())
	_, err := m.Get(TypeOf[RoadModel]())
	require.ErrorIs(t, err, ErrUnsupportedCapability)
}
