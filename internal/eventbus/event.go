// Package eventbus is the console's fan-out hub: a fixed-capacity ring of
// recent log entries plus a registry of live stream subscribers. Subsystems
// publish here; nothing in the system depends on the bus to function, only
// to observe.
package eventbus

import "time"

// Level classifies a log entry.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one immutable line in the log ring.
type Entry struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Event is what subscribers receive. Log events carry the ring entry;
// connected and heartbeat events carry only Type, Time and Data.
type Event struct {
	Type    string            `json:"type"`
	Time    time.Time         `json:"time"`
	Seq     uint64            `json:"seq,omitempty"`
	Level   Level             `json:"level,omitempty"`
	Message string            `json:"message,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

// Event types delivered on a subscription stream.
const (
	EventConnected = "connected"
	EventLog       = "log"
	EventHeartbeat = "heartbeat"
)

func logEvent(e Entry) Event {
	return Event{
		Type:    EventLog,
		Time:    e.Time,
		Seq:     e.Seq,
		Level:   e.Level,
		Message: e.Message,
	}
}
