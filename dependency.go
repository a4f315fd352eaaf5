package modsim

import (
	"fmt"
	"reflect"
	"slices"
)

// dependency wraps exactly one builder during resolution and memoizes the
// model it builds.
type dependency struct {
	builder  ModelBuilder
	model    Model
	resolver *DependencyResolver
	order    int
}

// newDependency wraps a builder and builds it right away when it declares
// no dependency types.
func newDependency(r *DependencyResolver, b ModelBuilder) (*dependency, error) {
	d := &dependency{builder: b, resolver: r, order: -1}
	if len(b.DependencyTypes()) == 0 {
		if _, err := d.build(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *dependency) isResolved() bool {
	return d.model != nil
}

func (d *dependency) name() string {
	return d.builder.Name()
}

// build is idempotent: the builder is invoked at most once.
func (d *dependency) build() (Model, error) {
	if d.model != nil {
		return d.model, nil
	}
	m, err := d.builder.Build(&scopedProvider{requester: d})
	if err != nil {
		return nil, fmt.Errorf("failed to build model '%s': %w", d.name(), err)
	}
	if isNilModel(m) {
		return nil, fmt.Errorf("%w: %s", ErrNilModel, d.name())
	}
	d.model = m
	d.resolver.recordBuild(d)
	return m, nil
}

func isNilModel(m Model) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// scopedProvider answers lookups for one requesting builder. Only the types
// that builder declared can be requested, which guarantees their providers
// were built first.
type scopedProvider struct {
	requester *dependency
}

func (p *scopedProvider) Get(capability reflect.Type) (any, error) {
	if !slices.Contains(p.requester.builder.DependencyTypes(), capability) {
		return nil, fmt.Errorf("%w: %s requested %v", ErrUndeclaredDependency, p.requester.name(), capability)
	}
	owner, ok := p.requester.resolver.providers[capability]
	if !ok {
		return nil, fmt.Errorf("%w for %v", ErrUnresolvedDependency, capability)
	}
	if !owner.isResolved() {
		return nil, fmt.Errorf("%w: %s", ErrDependencyNotResolved, owner.name())
	}
	instance, err := owner.model.Get(capability)
	if err != nil {
		return nil, fmt.Errorf("model '%s' failed to provide %v: %w", owner.name(), capability, err)
	}
	return instance, nil
}
