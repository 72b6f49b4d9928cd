package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	w := NewEventWriter(dir)

	if err := w.Notify(EventMemoryStored, "abc-123"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 event file, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".event" {
		t.Errorf("expected .event extension, got %s", entries[0].Name())
	}
}

func TestEventWatcherReceivesEvent(t *testing.T) {
	dir := t.TempDir()

	type eventMsg struct {
		eventType string
		recordID  string
	}
	received := make(chan eventMsg, 1)

	watcher := NewEventWatcher(dir, func(eventType, recordID string) {
		received <- eventMsg{eventType, recordID}
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Give fsnotify a moment to register
	time.Sleep(50 * time.Millisecond)

	writer := NewEventWriter(dir)
	if err := writer.Notify(EventMemoryStored, "rec-42"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg.eventType != EventMemoryStored {
			t.Errorf("expected event type %s, got %s", EventMemoryStored, msg.eventType)
		}
		if msg.recordID != "rec-42" {
			t.Errorf("expected rec-42, got %s", msg.recordID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestEventWatcherDrainsExisting(t *testing.T) {
	dir := t.TempDir()

	// Write events BEFORE starting watcher
	writer := NewEventWriter(dir)
	_ = writer.Notify(EventMemoryStored, "drain1")
	_ = writer.Notify(EventCompaction, "")

	received := make(chan string, 10)
	watcher := NewEventWatcher(dir, func(eventType, recordID string) {
		received <- eventType
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	// Drain should have processed both files synchronously during Start
	time.Sleep(100 * time.Millisecond)

	if len(received) != 2 {
		t.Fatalf("expected 2 drained events, got %d", len(received))
	}
}

func TestCompactionEventWithoutRecordID(t *testing.T) {
	dir := t.TempDir()

	type eventMsg struct {
		eventType string
		recordID  string
	}
	received := make(chan eventMsg, 1)

	watcher := NewEventWatcher(dir, func(eventType, recordID string) {
		received <- eventMsg{eventType, recordID}
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)

	writer := NewEventWriter(dir)
	if err := writer.Notify(EventCompaction, ""); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	select {
	case msg := <-received:
		if msg.eventType != EventCompaction {
			t.Errorf("expected event type %s, got %s", EventCompaction, msg.eventType)
		}
		if msg.recordID != "" {
			t.Errorf("expected empty record id, got %s", msg.recordID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}
