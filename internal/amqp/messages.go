package amqp

import (
	"encoding/json"
	"time"
)

// InstanceEventMessage is the lightweight message published when an
// instance changes. Only identity travels on the wire; consumers fetch
// the full instance from the database.
type InstanceEventMessage struct {
	Event      string    `json:"event"`
	InstanceID string    `json:"instance_id"`
	ParentID   string    `json:"parent_id"`
	Month      string    `json:"month"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewInstanceEventMessage creates a new event message for an instance.
func NewInstanceEventMessage(event, instanceID, parentID, month string) *InstanceEventMessage {
	return &InstanceEventMessage{
		Event:      event,
		InstanceID: instanceID,
		ParentID:   parentID,
		Month:      month,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *InstanceEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InstanceEventMessageFromJSON creates a message from JSON bytes
func InstanceEventMessageFromJSON(data []byte) (*InstanceEventMessage, error) {
	var msg InstanceEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
