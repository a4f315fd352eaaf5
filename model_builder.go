package modsim

import (
	"reflect"
	"slices"
)

// BuilderSpec carries the declarative metadata of a builder. Embed it in a
// builder struct to get Name, AssociatedType, ProvidingTypes and
// DependencyTypes for free.
type BuilderSpec struct {
	BuilderName string
	Associated  reflect.Type
	Provides    []reflect.Type
	Requires    []reflect.Type
}

// Name returns the builder name, falling back to the associated type.
func (s BuilderSpec) Name() string {
	if s.BuilderName != "" {
		return s.BuilderName
	}
	if s.Associated != nil {
		return s.Associated.String()
	}
	return "unnamed"
}

// AssociatedType returns the element type of the built model.
func (s BuilderSpec) AssociatedType() reflect.Type {
	return s.Associated
}

// ProvidingTypes returns the provided capabilities without duplicates.
func (s BuilderSpec) ProvidingTypes() []reflect.Type {
	return uniqueTypes(s.Provides)
}

// DependencyTypes returns the required capabilities without duplicates.
func (s BuilderSpec) DependencyTypes() []reflect.Type {
	return uniqueTypes(s.Requires)
}

func uniqueTypes(types []reflect.Type) []reflect.Type {
	out := make([]reflect.Type, 0, len(types))
	for _, t := range types {
		if t != nil && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// BuildFunc builds a model from its dependencies.
type BuildFunc func(dp DependencyProvider) (Model, error)

type funcBuilder struct {
	BuilderSpec
	build BuildFunc
}

func (b *funcBuilder) Build(dp DependencyProvider) (Model, error) {
	return b.build(dp)
}

type compositeFuncBuilder struct {
	funcBuilder
	children []ModelBuilder
}

func (b *compositeFuncBuilder) Children() []ModelBuilder {
	return slices.Clone(b.children)
}

// NewBuilder assembles a builder from its metadata and a build function.
func NewBuilder(spec BuilderSpec, build BuildFunc) ModelBuilder {
	return &funcBuilder{BuilderSpec: spec, build: build}
}

// NewCompositeBuilder assembles a builder that also contributes children.
func NewCompositeBuilder(spec BuilderSpec, build BuildFunc, children ...ModelBuilder) CompositeModelBuilder {
	return &compositeFuncBuilder{
		funcBuilder: funcBuilder{BuilderSpec: spec, build: build},
		children:    children,
	}
}

// Adapt turns a zero-argument constructor into a builder with associated
// type T and no providing or dependency types. Since it has no dependencies
// the model is built as soon as resolution starts.
func Adapt[T any](name string, ctor func() Model) ModelBuilder {
	return NewBuilder(BuilderSpec{
		BuilderName: name,
		Associated:  TypeOf[T](),
	}, func(DependencyProvider) (Model, error) {
		return ctor(), nil
	})
}

// flattenBuilders inlines the children of composite builders in depth first
// pre-order: a parent, then the complete subtree of its first child, then the
// subtree of the next child.
func flattenBuilders(builders []ModelBuilder) ([]ModelBuilder, error) {
	out := make([]ModelBuilder, 0, len(builders))
	var visit func(b ModelBuilder) error
	visit = func(b ModelBuilder) error {
		if isNilBuilder(b) {
			return ErrBuilderNil
		}
		out = append(out, b)
		composite, ok := b.(CompositeModelBuilder)
		if !ok {
			return nil
		}
		for _, child := range composite.Children() {
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, b := range builders {
		if err := visit(b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isNilBuilder(b ModelBuilder) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
