// Package events contains the event contract for WebSocket communication
// between the FireDays server and connected dashboard pages. The server only
// ever broadcasts; clients send nothing but heartbeats.
package events

import (
	"encoding/json"
	"time"
)

// Event types broadcast by the hub.
const (
	TypeConnection   = "connection"
	TypeReloading    = "data:reloading"
	TypeReloaded     = "data:reloaded"
	TypeReloadFailed = "data:reload_failed"
)

// Message is the frame every broadcast uses. Data holds one of the payload
// types below, already marshaled by the sender.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	TraceID   string          `json:"trace_id,omitempty"`
}

// NewMessage marshals payload into a Message. A payload that cannot marshal
// is a programming error; the error is returned so the hub can log it.
func NewMessage(eventType string, payload interface{}) (Message, error) {
	msg := Message{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Data = data
	return msg, nil
}

// Connected is the payload sent to a client right after registration.
type Connected struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
	Message  string `json:"message,omitempty"`
}

// ReloadStarted announces that a dataset reload began.
type ReloadStarted struct {
	Trigger string `json:"trigger"` // "startup", "api", "watcher"
}

// ReloadCompleted announces a successful reload. Pages refetch the currently
// selected county when they receive this.
type ReloadCompleted struct {
	Trigger    string  `json:"trigger"`
	Counties   int     `json:"counties"`
	Rows       int     `json:"rows"`
	DurationMS float64 `json:"duration_ms"`
}

// ReloadFailed announces a failed reload; the previous snapshot stays live.
type ReloadFailed struct {
	Trigger string `json:"trigger"`
	Reason  string `json:"reason"`
}
