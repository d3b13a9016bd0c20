// Package mqtt publishes grip and connection events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicPrefix is followed by the device name.
const TopicPrefix = "squegg/"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishGrip sends a grip event. Errors must not crash the process.
	PublishGrip(event GripEvent) error

	// PublishState sends a connection state change.
	PublishState(event StateEvent) error

	// Close disconnects from the broker.
	Close() error
}

// GripEvent is emitted every time a grip is counted.
type GripEvent struct {
	Timestamp time.Time
	Device    string
	Strength  float64
	Grips     uint64
	Battery   int
}

// StateEvent is emitted on every connection state transition.
type StateEvent struct {
	Timestamp time.Time
	Device    string
	State     string
	Error     string
}

// GripPayload is the JSON body of grip events.
type GripPayload struct {
	Grip GripPayloadInner `json:"grip"`
}

type GripPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Strength  float64 `json:"strength"`
	Count     uint64  `json:"count"`
	Battery   int     `json:"battery"`
}

// StatePayload is the JSON body of state events.
type StatePayload struct {
	Connection StatePayloadInner `json:"connection"`
}

type StatePayloadInner struct {
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	Error     string `json:"error,omitempty"`
}

func GripTopic(device string) string {
	return TopicPrefix + device + "/grips"
}

func StateTopic(device string) string {
	return TopicPrefix + device + "/state"
}

// FormatGripPayload creates the JSON payload for a grip event.
func FormatGripPayload(event GripEvent) ([]byte, error) {
	return json.Marshal(GripPayload{
		Grip: GripPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Strength:  event.Strength,
			Count:     event.Grips,
			Battery:   event.Battery,
		},
	})
}

// FormatStatePayload creates the JSON payload for a state event.
func FormatStatePayload(event StateEvent) ([]byte, error) {
	return json.Marshal(StatePayload{
		Connection: StatePayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			State:     event.State,
			Error:     event.Error,
		},
	})
}
