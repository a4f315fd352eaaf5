package modsim

import (
	"hash/fnv"
	"math/rand"
	"reflect"
)

// RandomProvider hands out deterministic random generators.
//
// Derivation formula:
//   - The master generator is seeded with the configured seed.
//   - A shared generator for a named subsystem is seeded with
//     seed XOR fnv1a64(name) and cached, so a subsystem draws the same
//     sequence no matter how other subsystems consume randomness.
//   - NewInstance seeds a fresh generator from the master generator.
//
// Thread-safety: NOT thread-safe. Must be called from the simulation
// goroutine.
type RandomProvider interface {
	Seed() int64
	MasterInstance() *rand.Rand
	SharedInstance(subsystem string) *rand.Rand
	NewInstance() *rand.Rand
}

// RandomUser is implemented by objects that want a RandomProvider injected
// when they are registered.
type RandomUser interface {
	SetRandomGenerator(rp RandomProvider)
}

// NewRandomModelBuilder returns the builder of the default random model.
func NewRandomModelBuilder(seed int64) ModelBuilder {
	return NewBuilder(BuilderSpec{
		BuilderName: "random",
		Associated:  TypeOf[RandomUser](),
		Provides:    []reflect.Type{TypeOf[RandomProvider]()},
	}, func(DependencyProvider) (Model, error) {
		return newRandomModel(seed), nil
	})
}

type randomModel struct {
	AbstractModel[RandomUser]

	seed       int64
	master     *rand.Rand
	subsystems map[string]*rand.Rand
}

func newRandomModel(seed int64) *randomModel {
	return &randomModel{
		seed:       seed,
		master:     rand.New(rand.NewSource(seed)),
		subsystems: make(map[string]*rand.Rand),
	}
}

func (m *randomModel) Register(element any) (bool, error) {
	user, ok := element.(RandomUser)
	if !ok {
		return false, nil
	}
	user.SetRandomGenerator(m)
	return true, nil
}

func (m *randomModel) Unregister(element any) (bool, error) {
	_, ok := element.(RandomUser)
	return ok, nil
}

func (m *randomModel) Get(capability reflect.Type) (any, error) {
	if capability == TypeOf[RandomProvider]() {
		return m, nil
	}
	return m.AbstractModel.Get(capability)
}

func (m *randomModel) Seed() int64 {
	return m.seed
}

func (m *randomModel) MasterInstance() *rand.Rand {
	return m.master
}

// SharedInstance never returns nil.
func (m *randomModel) SharedInstance(subsystem string) *rand.Rand {
	if rng, ok := m.subsystems[subsystem]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(m.seed ^ fnv1a64(subsystem)))
	m.subsystems[subsystem] = rng
	return rng
}

func (m *randomModel) NewInstance() *rand.Rand {
	return rand.New(rand.NewSource(m.master.Int63()))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
