package modsim

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventSource is the CloudEvents source attribute of simulator events.
const EventSource = "modsim/simulator"

// CloudEvent is an alias for the CloudEvents Event type for convenience
type CloudEvent = cloudevents.Event

// NewCloudEvent creates a new CloudEvent with the specified parameters.
// Metadata entries become event extensions.
func NewCloudEvent(eventType, source string, data any, metadata map[string]any) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID generates a time-ordered identifier using UUIDv7.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails for any reason
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// ModelBuiltData is the payload of EventTypeModelBuilt.
type ModelBuiltData struct {
	Builder string `json:"builder"`
	Model   string `json:"model"`
	Order   int    `json:"order"`
}

// ObjectEventData is the payload of the object registration events.
type ObjectEventData struct {
	Type     string `json:"type"`
	Accepted bool   `json:"accepted"`
	Deferred bool   `json:"deferred,omitempty"`
}

// TickData is the payload of EventTypeTickCompleted.
type TickData struct {
	Tick  uint64 `json:"tick"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// SimulatorEventData is the payload of the simulator lifecycle events.
type SimulatorEventData struct {
	Time  int64  `json:"time"`
	Ticks uint64 `json:"ticks"`
	Error string `json:"error,omitempty"`
}
