package events

import "fmt"

// Metadata keys set next to EventMetadataKey so subscribers can route
// without decoding the payload.
const (
	NodeIDMetadataKey       = "node_id"
	ComponentKeyMetadataKey = "component_key"
)

// Header exposes the common fields of every event that embeds BaseEvent.
func (b BaseEvent) Header() BaseEvent {
	return b
}

// New allocates an empty event for eventType, ready to be decoded into.
func New(eventType EventType) (any, error) {
	switch eventType {
	case ComponentErrorEvent:
		return &ComponentError{}, nil
	case ComponentControlUpdatedEvent:
		return &ControlUpdated{}, nil
	case ComponentExecutedEvent:
		return &ComponentExecuted{}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}
