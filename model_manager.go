package modsim

import (
	"fmt"
	"reflect"
	"slices"
)

// ModelManager routes domain objects to every model able to handle them.
//
// Models are scanned in declaration order. Several models may accept the same
// object, for instance a general model and a specialised one matching the
// object through a supertype; all of them are invoked. The manager remembers
// which models accepted each object so that Unregister reaches exactly those.
//
// Errors returned by a model are passed to the caller as they are, without
// rolling back the models that were already notified.
type ModelManager struct {
	models        []Model
	providers     map[reflect.Type]Model
	registrations map[any][]Model
	logger        Logger
}

// NewModelManager creates a manager over the resolved models and wires the
// models to each other: every model is registered with every other model
// whose supported type it matches, in declaration order. Models must have
// comparable dynamic types.
func NewModelManager(models []Model, providers map[reflect.Type]Model, logger Logger) (*ModelManager, error) {
	if logger == nil {
		return nil, ErrLoggerNil
	}
	mm := &ModelManager{
		models:        slices.Clone(models),
		providers:     make(map[reflect.Type]Model, len(providers)),
		registrations: make(map[any][]Model),
		logger:        logger,
	}
	for t, m := range providers {
		mm.providers[t] = m
	}
	for _, m := range mm.models {
		if m == nil {
			return nil, ErrNilModel
		}
		if !reflect.TypeOf(m).Comparable() {
			return nil, fmt.Errorf("%w: %T", ErrUncomparableModel, m)
		}
	}

	for _, m := range mm.models {
		for _, target := range mm.models {
			if target == m || !Handles(target, m) {
				continue
			}
			if _, err := target.Register(m); err != nil {
				return nil, fmt.Errorf("failed to wire model %T into %T: %w", m, target, err)
			}
			logger.Debug("Wired model", "model", fmt.Sprintf("%T", m), "into", fmt.Sprintf("%T", target))
		}
	}
	return mm, nil
}

// NewModelManagerFromResolver resolves all models and creates a manager over
// them.
func NewModelManagerFromResolver(r *DependencyResolver, logger Logger) (*ModelManager, error) {
	models, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	return NewModelManager(models, r.Providers(), logger)
}

// Register offers the element to every model that can handle it, in
// declaration order. It fails with ErrNoModelForType before calling any
// model when none matches. The returned bool reports whether at least one
// model accepted the element.
func (mm *ModelManager) Register(element any) (bool, error) {
	if err := mm.checkElement(element); err != nil {
		return false, err
	}
	if _, exists := mm.registrations[element]; exists {
		return false, fmt.Errorf("%w: %T", ErrAlreadyRegistered, element)
	}

	var matching []Model
	for _, m := range mm.models {
		if Handles(m, element) {
			matching = append(matching, m)
		}
	}
	if len(matching) == 0 {
		return false, fmt.Errorf("%w: %T", ErrNoModelForType, element)
	}

	var accepted []Model
	for _, m := range matching {
		ok, err := m.Register(element)
		if err != nil {
			if len(accepted) > 0 {
				mm.registrations[element] = accepted
			}
			return false, err
		}
		if ok {
			accepted = append(accepted, m)
		}
	}
	if len(accepted) == 0 {
		mm.logger.Debug("No model accepted element", "type", fmt.Sprintf("%T", element))
		return false, nil
	}

	mm.registrations[element] = accepted
	mm.logger.Debug("Registered element", "type", fmt.Sprintf("%T", element), "models", len(accepted))
	return true, nil
}

// Unregister removes the element from exactly the models that accepted it,
// in the same order. Unknown elements fail with ErrNotRegistered.
func (mm *ModelManager) Unregister(element any) (bool, error) {
	if err := mm.checkElement(element); err != nil {
		return false, err
	}
	accepted, exists := mm.registrations[element]
	if !exists {
		return false, fmt.Errorf("%w: %T", ErrNotRegistered, element)
	}
	delete(mm.registrations, element)

	removed := false
	for _, m := range accepted {
		ok, err := m.Unregister(element)
		if err != nil {
			return removed, err
		}
		removed = removed || ok
	}
	mm.logger.Debug("Unregistered element", "type", fmt.Sprintf("%T", element), "models", len(accepted))
	return removed, nil
}

// IsRegistered reports whether the element was accepted by at least one
// model and not unregistered since.
func (mm *ModelManager) IsRegistered(element any) bool {
	if element == nil || !reflect.TypeOf(element).Comparable() {
		return false
	}
	_, exists := mm.registrations[element]
	return exists
}

// Get returns the capability instance of the single model providing it.
func (mm *ModelManager) Get(capability reflect.Type) (any, error) {
	m, ok := mm.providers[capability]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoProvider, capability)
	}
	return m.Get(capability)
}

// Models returns the models in declaration order.
func (mm *ModelManager) Models() []Model {
	return slices.Clone(mm.models)
}

// ModelsFor returns the models that accepted the element, in order.
func (mm *ModelManager) ModelsFor(element any) []Model {
	if !mm.IsRegistered(element) {
		return nil
	}
	return slices.Clone(mm.registrations[element])
}

func (mm *ModelManager) checkElement(element any) error {
	if element == nil {
		return ErrNilElement
	}
	if _, isModel := element.(Model); isModel {
		return fmt.Errorf("%w: %T", ErrModelRegistration, element)
	}
	if !reflect.TypeOf(element).Comparable() {
		return fmt.Errorf("%w: %T", ErrUncomparableElement, element)
	}
	return nil
}
