// Package events defines the structured notifications the component runtime
// emits for the host to relay to sessions.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

type EventType string

// Topic carries every component event.
const Topic = "omnitool.component.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ComponentErrorEvent          EventType = "component.error"
	ComponentControlUpdatedEvent EventType = "component.control_updated"
	ComponentExecutedEvent       EventType = "component.executed"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	NodeID       string         `json:"node_id"`
	ComponentKey string         `json:"componentKey"`
	SessionID    string         `json:"sessionId,omitempty"`
	JobID        string         `json:"jobId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ComponentError is emitted when a node execution fails.
type ComponentError struct {
	BaseEvent

	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (e ComponentError) GetType() EventType {
	return ComponentErrorEvent
}

// ControlUpdated is emitted when execution mirrors a payload field onto a control.
type ControlUpdated struct {
	BaseEvent

	Control string `json:"control"`
	Value   any    `json:"value"`
}

func (e ControlUpdated) GetType() EventType {
	return ComponentControlUpdatedEvent
}

func (e ControlUpdated) MarshalJSON() ([]byte, error) {
	type plain ControlUpdated

	p := plain(e)
	p.Value = models.Finite(e.Value)

	return json.Marshal(p)
}

// ComponentExecuted is emitted after outputs were committed to the node.
type ComponentExecuted struct {
	BaseEvent

	Outputs    map[string]any `json:"outputs,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

func (e ComponentExecuted) GetType() EventType {
	return ComponentExecutedEvent
}

// MarshalJSON encodes NaN and infinite outputs as strings.
func (e ComponentExecuted) MarshalJSON() ([]byte, error) {
	type plain ComponentExecuted

	p := plain(e)
	p.Outputs = models.FiniteMap(e.Outputs)

	return json.Marshal(p)
}

func NewBaseEvent(eventType EventType, nodeID, componentKey string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		NodeID:       nodeID,
		ComponentKey: componentKey,
		Metadata:     make(map[string]any),
	}
}
