// Package notify provides cross-process memory event notification
// between recall-chat and recall-web using filesystem events.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event types emitted by the engine.
const (
	EventMemoryStored = "memory_stored"
	EventCompaction   = "compaction"
)

// Event is the payload written to an event file.
type Event struct {
	Type     string `json:"type"`
	RecordID string `json:"record_id,omitempty"`
	Time     int64  `json:"time"`
}

// EventWriter writes notification event files to a shared directory.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits events into dir.
func NewEventWriter(dir string) *EventWriter {
	return &EventWriter{dir: dir}
}

// Notify writes an event file with the given type. recordID may be
// empty for events that do not concern a single record.
// Safe to call concurrently. Errors are returned but not fatal.
func (w *EventWriter) Notify(eventType, recordID string) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	evt := Event{
		Type:     eventType,
		RecordID: recordID,
		Time:     time.Now().UnixNano(),
	}
	data, _ := json.Marshal(evt)
	filename := fmt.Sprintf("%d-%s.event", evt.Time, sanitizeName(eventType, recordID))
	path := filepath.Join(w.dir, filename)
	return os.WriteFile(path, data, 0o600)
}

// sanitizeName builds a filename-safe suffix from the event fields.
func sanitizeName(eventType, recordID string) string {
	id := eventType
	if recordID != "" {
		id += "-" + recordID
	}
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		if id[i] == '/' || id[i] == ':' {
			out[i] = '_'
		} else {
			out[i] = id[i]
		}
	}
	return string(out)
}
