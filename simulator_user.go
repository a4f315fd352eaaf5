package modsim

import (
	"reflect"
)

// SimulatorUser is implemented by objects that need access to the simulator.
// The API is injected when the object is registered.
type SimulatorUser interface {
	SetSimulator(api SimulatorAPI)
}

func newSimulatorUserBuilder(api SimulatorAPI) ModelBuilder {
	return NewBuilder(BuilderSpec{
		BuilderName: "simulator-user",
		Associated:  TypeOf[SimulatorUser](),
		Provides:    []reflect.Type{TypeOf[SimulatorAPI]()},
	}, func(DependencyProvider) (Model, error) {
		return &simulatorUserModel{api: api}, nil
	})
}

type simulatorUserModel struct {
	AbstractModel[SimulatorUser]
	api SimulatorAPI
}

func (m *simulatorUserModel) Register(element any) (bool, error) {
	user, ok := element.(SimulatorUser)
	if !ok {
		return false, nil
	}
	user.SetSimulator(m.api)
	return true, nil
}

func (m *simulatorUserModel) Unregister(element any) (bool, error) {
	_, ok := element.(SimulatorUser)
	return ok, nil
}

func (m *simulatorUserModel) Get(capability reflect.Type) (any, error) {
	if capability == TypeOf[SimulatorAPI]() {
		return m.api, nil
	}
	return m.AbstractModel.Get(capability)
}
