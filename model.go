// Package modsim provides a deterministic discrete-event simulation kernel.
// It composes independently developed simulation models into one simulator
// and drives them forward in lock-step time increments.
//
// A simulator is described by a list of ModelBuilders. Each builder declares
// the element type its model handles, the capabilities it provides to other
// builders and the capabilities it depends on. The DependencyResolver builds
// every model exactly once, in an order that satisfies all dependencies, and
// the ModelManager routes domain objects to every model able to handle them.
// The Clock advances time tick by tick and notifies every TickListener.
//
// Basic usage:
//
//	sim, err := modsim.NewSimulator(
//		modsim.WithRandomSeed(42),
//		modsim.WithTickLength(1000),
//		modsim.WithModels(roadBuilder, pdpBuilder),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if _, err := sim.Register(vehicle); err != nil {
//		log.Fatal(err)
//	}
//	err = sim.Start(ctx)
package modsim

import (
	"fmt"
	"reflect"
)

// TypeOf returns the type descriptor of T. Interface types are supported,
// which is the common case for capabilities:
//
//	modsim.TypeOf[modsim.TickListener]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Model is a built, live capability unit. A model accepts or rejects
// registrations of values assignable to its supported type and may expose
// capabilities to other models through Get.
type Model interface {
	// SupportedType returns the element type this model handles. It is fixed
	// for the lifetime of the model. A nil type matches nothing.
	SupportedType() reflect.Type

	// Register offers an element to the model. The returned bool reports
	// whether the model accepted it.
	Register(element any) (bool, error)

	// Unregister removes a previously accepted element. The returned bool
	// reports whether anything was removed.
	Unregister(element any) (bool, error)

	// Get returns the instance backing the given capability. Models that
	// expose no capability fail with ErrUnsupportedCapability.
	Get(capability reflect.Type) (any, error)
}

// TypeMatcher can be implemented by models that need a custom answer to
// "can this model handle this value" instead of plain type assignability.
type TypeMatcher interface {
	Handles(element any) bool
}

// Handles reports whether the model is able to handle the element.
func Handles(m Model, element any) bool {
	if matcher, ok := m.(TypeMatcher); ok {
		return matcher.Handles(element)
	}
	supported := m.SupportedType()
	if supported == nil || element == nil {
		return false
	}
	return reflect.TypeOf(element).AssignableTo(supported)
}

// AbstractModel provides SupportedType and a Get that exposes no
// capability. Embed it and implement Register and Unregister.
type AbstractModel[T any] struct{}

// SupportedType returns the descriptor of T.
func (AbstractModel[T]) SupportedType() reflect.Type {
	return TypeOf[T]()
}

// Get fails with ErrUnsupportedCapability.
func (AbstractModel[T]) Get(capability reflect.Type) (any, error) {
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedCapability, capability)
}

// TickListener is implemented by anything that wants per-tick callbacks.
// Tick is called for every listener in order, then AfterTick is called for
// every listener in the same order.
type TickListener interface {
	Tick(lapse *TimeLapse) error
	AfterTick(lapse *TimeLapse) error
}

// DependencyProvider is the read-only lookup facade handed to builders.
type DependencyProvider interface {
	// Get returns the instance of the capability, exposed by the single model
	// providing it.
	Get(capability reflect.Type) (any, error)
}

// Provide is the typed variant of DependencyProvider.Get.
//
//	road, err := modsim.Provide[RoadModel](dp)
func Provide[T any](dp DependencyProvider) (T, error) {
	var zero T
	instance, err := dp.Get(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T is not %v", ErrCapabilityMismatch, instance, TypeOf[T]())
	}
	return typed, nil
}

// ModelBuilder is the declarative factory of one Model.
type ModelBuilder interface {
	// Name identifies the builder in logs and error messages.
	Name() string

	// AssociatedType is the element type the built model's registrations are
	// primarily about.
	AssociatedType() reflect.Type

	// ProvidingTypes lists the capabilities this builder hands to others.
	ProvidingTypes() []reflect.Type

	// DependencyTypes lists the capabilities needed at build time.
	DependencyTypes() []reflect.Type

	// Build constructs the model. Only declared dependency types may be
	// requested from the provider.
	Build(dp DependencyProvider) (Model, error)
}

// CompositeModelBuilder is a builder that also yields nested builders.
// Children are folded into the same resolution pass, depth first, parent
// before children.
type CompositeModelBuilder interface {
	ModelBuilder
	Children() []ModelBuilder
}
