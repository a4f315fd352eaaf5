package modsim

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// DependencyResolver turns a declarative list of builders into the ordered
// set of built models.
//
// Resolution is a fixed point over the requirement graph rather than a
// topological sort: every pass builds each node whose requirements are all
// built, and a pass that builds nothing while nodes remain is a cycle.
//
// The models are returned in declaration order (after composite flattening
// and default injection), independent of the order they had to be built in.
type DependencyResolver struct {
	logger     Logger
	builders   []ModelBuilder
	deps       []*dependency
	providers  map[reflect.Type]*dependency
	buildOrder []string
	models     []Model
	resolved   bool
}

// NewDependencyResolver flattens the builders, injects the default random
// and clock builders when no builder supplies them, checks that every
// capability has at most one provider and builds every builder without
// dependencies.
func NewDependencyResolver(cfg *Config, logger Logger, builders []ModelBuilder, stops ...StopCondition) (*DependencyResolver, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if logger == nil {
		return nil, ErrLoggerNil
	}

	flat, err := flattenBuilders(builders)
	if err != nil {
		return nil, err
	}

	r := &DependencyResolver{
		logger:    logger,
		providers: make(map[reflect.Type]*dependency),
	}

	flat, err = r.withDefaults(cfg, flat, stops)
	if err != nil {
		return nil, err
	}
	if err := checkProviders(flat); err != nil {
		return nil, err
	}
	r.builders = flat

	for _, b := range flat {
		d, err := newDependency(r, b)
		if err != nil {
			return nil, err
		}
		r.deps = append(r.deps, d)
		for _, t := range b.ProvidingTypes() {
			r.providers[t] = d
		}
	}

	return r, nil
}

// checkProviders fails when two builders declare the same providing type.
func checkProviders(builders []ModelBuilder) error {
	owners := make(map[reflect.Type]ModelBuilder)
	for _, b := range builders {
		for _, t := range b.ProvidingTypes() {
			if prev, exists := owners[t]; exists {
				return fmt.Errorf("%w: %v is provided by both '%s' and '%s'",
					ErrDuplicateProvider, t, prev.Name(), b.Name())
			}
			owners[t] = b
		}
	}
	return nil
}

// withDefaults appends a seeded random source when no builder provides
// RandomProvider, and a clock when no builder is associated with
// TickListener.
func (r *DependencyResolver) withDefaults(cfg *Config, builders []ModelBuilder, stops []StopCondition) ([]ModelBuilder, error) {
	randomType := TypeOf[RandomProvider]()
	listenerType := TypeOf[TickListener]()

	hasRandom, hasClock := false, false
	for _, b := range builders {
		if slices.Contains(b.ProvidingTypes(), randomType) {
			hasRandom = true
		}
		if b.AssociatedType() == listenerType {
			hasClock = true
		}
	}

	if !hasRandom {
		r.logger.Debug("Injecting default random model", "seed", cfg.RandomSeed)
		builders = append(builders, NewRandomModelBuilder(cfg.RandomSeed))
	}
	if !hasClock {
		unit, err := ParseTimeUnit(cfg.TimeUnit)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("Injecting default clock", "tickLength", cfg.TickLength, "timeUnit", cfg.TimeUnit)
		builders = append(builders, NewClockBuilder(ClockSettings{
			TickLength:     cfg.TickLength,
			Unit:           unit,
			EndTime:        cfg.EndTime,
			StopConditions: stops,
		}))
	}
	return builders, nil
}

// Resolve builds every remaining model and returns all models in
// declaration order. Calling Resolve again returns the same models.
func (r *DependencyResolver) Resolve() ([]Model, error) {
	if r.resolved {
		return slices.Clone(r.models), nil
	}

	graph := make(map[*dependency][]*dependency)
	var pending []*dependency
	for _, d := range r.deps {
		if d.isResolved() {
			continue
		}
		var required []*dependency
		for _, t := range d.builder.DependencyTypes() {
			owner, ok := r.providers[t]
			if !ok {
				return nil, fmt.Errorf("%w for %v required by '%s'", ErrUnresolvedDependency, t, d.name())
			}
			required = append(required, owner)
		}
		graph[d] = required
		pending = append(pending, d)
	}

	for pass := 1; len(pending) > 0; pass++ {
		var remaining []*dependency
		for _, d := range pending {
			if !allResolved(graph[d]) {
				remaining = append(remaining, d)
				continue
			}
			if _, err := d.build(); err != nil {
				return nil, err
			}
			r.logger.Debug("Resolved dependency", "builder", d.name(), "pass", pass)
		}
		if len(remaining) == len(pending) {
			return nil, cycleError(remaining, graph)
		}
		pending = remaining
	}

	models := make([]Model, 0, len(r.deps))
	for _, d := range r.deps {
		models = append(models, d.model)
	}
	r.models = models
	r.resolved = true

	r.logger.Debug("Model build order", "order", r.buildOrder)
	return slices.Clone(models), nil
}

func allResolved(deps []*dependency) bool {
	for _, d := range deps {
		if !d.isResolved() {
			return false
		}
	}
	return true
}

func cycleError(stuck []*dependency, graph map[*dependency][]*dependency) error {
	desc := make([]string, 0, len(stuck))
	for _, d := range stuck {
		names := make([]string, 0, len(graph[d]))
		for _, req := range graph[d] {
			if !req.isResolved() {
				names = append(names, req.name())
			}
		}
		desc = append(desc, fmt.Sprintf("%s -> [%s]", d.name(), strings.Join(names, ", ")))
	}
	return fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(desc, "; "))
}

// Builders returns the flattened builder list, defaults included.
func (r *DependencyResolver) Builders() []ModelBuilder {
	return slices.Clone(r.builders)
}

// BuildOrder returns the names of the builders in the order their models
// were built.
func (r *DependencyResolver) BuildOrder() []string {
	return slices.Clone(r.buildOrder)
}

// Providers maps every providing type to the model that provides it. Only
// built models are included.
func (r *DependencyResolver) Providers() map[reflect.Type]Model {
	out := make(map[reflect.Type]Model, len(r.providers))
	for t, d := range r.providers {
		if d.isResolved() {
			out[t] = d.model
		}
	}
	return out
}

// BuildPositions returns, for every builder of Builders, the position of its
// model in BuildOrder, or -1 when it has not been built.
func (r *DependencyResolver) BuildPositions() []int {
	out := make([]int, len(r.deps))
	for i, d := range r.deps {
		out[i] = d.order
	}
	return out
}

func (r *DependencyResolver) recordBuild(d *dependency) {
	d.order = len(r.buildOrder)
	r.buildOrder = append(r.buildOrder, d.name())
}
