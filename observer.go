// Package modsim provides Observer pattern interfaces for simulator events.
// These interfaces use the CloudEvents specification for a standard event
// format that external tooling can consume.
package modsim

import (
	"context"
	"fmt"
	"slices"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// simulator events.
type Observer interface {
	// OnEvent is called synchronously on the simulation goroutine.
	// Returned errors are logged by the simulator and do not stop it.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Subject defines the interface for objects that can be observed.
type Subject interface {
	// RegisterObserver adds an observer. If eventTypes is empty, the observer
	// receives all events.
	RegisterObserver(observer Observer, eventTypes ...string) error

	// UnregisterObserver removes an observer. It is idempotent.
	UnregisterObserver(observer Observer) error

	// NotifyObservers sends an event to all interested observers in
	// registration order.
	NotifyObservers(ctx context.Context, event cloudevents.Event) error
}

// EventType constants for the events emitted by the simulator.
// Following CloudEvents specification, these use reverse domain notation.
const (
	// Model events
	EventTypeModelBuilt = "com.modsim.model.built"

	// Object events
	EventTypeObjectRegistered   = "com.modsim.object.registered"
	EventTypeObjectUnregistered = "com.modsim.object.unregistered"

	// Clock events
	EventTypeTickCompleted = "com.modsim.tick.completed"

	// Simulator lifecycle events
	EventTypeSimulatorStarted = "com.modsim.simulator.started"
	EventTypeSimulatorStopped = "com.modsim.simulator.stopped"
	EventTypeSimulatorFailed  = "com.modsim.simulator.failed"
)

// FunctionalObserver provides a simple way to create observers using functions.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

type observerRegistration struct {
	observer   Observer
	eventTypes []string
}

func (r observerRegistration) wants(eventType string) bool {
	return len(r.eventTypes) == 0 || slices.Contains(r.eventTypes, eventType)
}

// eventSubject is the synchronous Subject embedded in the Simulator.
// Observers are called one after the other so event order is deterministic.
type eventSubject struct {
	registrations []observerRegistration
	logger        Logger
}

func (s *eventSubject) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}
	for i, r := range s.registrations {
		if r.observer.ObserverID() == observer.ObserverID() {
			s.registrations[i] = observerRegistration{observer: observer, eventTypes: slices.Clone(eventTypes)}
			return nil
		}
	}
	s.registrations = append(s.registrations, observerRegistration{observer: observer, eventTypes: slices.Clone(eventTypes)})
	return nil
}

func (s *eventSubject) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}
	s.registrations = slices.DeleteFunc(s.registrations, func(r observerRegistration) bool {
		return r.observer.ObserverID() == observer.ObserverID()
	})
	return nil
}

func (s *eventSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	if err := ValidateCloudEvent(event); err != nil {
		return err
	}
	for _, r := range slices.Clone(s.registrations) {
		if !r.wants(event.Type()) {
			continue
		}
		if err := r.observer.OnEvent(ctx, event); err != nil && s.logger != nil {
			s.logger.Warn("Observer failed to handle event",
				"observer", r.observer.ObserverID(), "event", event.Type(), "error", err)
		}
	}
	return nil
}

func (s *eventSubject) hasObservers() bool {
	return len(s.registrations) > 0
}

// emit builds and dispatches an event when anyone listens.
func (s *eventSubject) emit(ctx context.Context, eventType string, data any, simTime int64) {
	if !s.hasObservers() {
		return
	}
	event := NewCloudEvent(eventType, EventSource, data, map[string]any{
		"simtime": fmt.Sprint(simTime),
	})
	if err := s.NotifyObservers(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("Failed to notify observers", "event", eventType, "error", err)
	}
}
