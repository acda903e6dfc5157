// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openhands/openhands-cli/lib/agent"
)

func testEvent(eventType agent.EventType, at time.Time) agent.Event {
	event := agent.Event{Timestamp: at, Type: eventType}
	switch eventType {
	case agent.EventTypeMessage:
		event.Message = &agent.MessageEvent{Role: "user", Content: "hello"}
	case agent.EventTypeMetric:
		event.Metric = &agent.MetricEvent{InputTokens: 10}
	}
	return event
}

func TestStoreAppendAndLoad(t *testing.T) {
	root := t.TempDir()
	const conversationID = "3f6f9a3e-0000-4000-8000-000000000001"

	store, err := OpenStore(root, conversationID)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	if err := store.Append(testEvent(agent.EventTypeMessage, base)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(testEvent(agent.EventTypeMetric, base.Add(time.Minute))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := LoadEvents(root, conversationID)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("loaded %d events, want 2", len(events))
	}
	if events[0].Type != agent.EventTypeMessage || events[1].Type != agent.EventTypeMetric {
		t.Fatalf("event types = %q, %q", events[0].Type, events[1].Type)
	}
	if events[0].Message.Content != "hello" {
		t.Fatalf("message content = %q", events[0].Message.Content)
	}
}

func TestStoreResumesSequence(t *testing.T) {
	root := t.TempDir()
	const conversationID = "3f6f9a3e-0000-4000-8000-000000000002"

	store, err := OpenStore(root, conversationID)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	now := time.Now()
	for i := 0; i < 3; i++ {
		if err := store.Append(testEvent(agent.EventTypeMessage, now)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Reopen and continue appending; numbering must not collide.
	reopened, err := OpenStore(root, conversationID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.Append(testEvent(agent.EventTypeMetric, now)); err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}

	if _, err := os.Stat(filepath.Join(reopened.Dir(), "event-00003.json")); err != nil {
		t.Fatalf("expected event-00003.json: %v", err)
	}
	events, err := LoadEvents(root, conversationID)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("loaded %d events, want 4", len(events))
	}
}

func TestLoadEventsCorruptFileDegradesToRaw(t *testing.T) {
	root := t.TempDir()
	const conversationID = "3f6f9a3e-0000-4000-8000-000000000003"

	store, err := OpenStore(root, conversationID)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	if err := store.Append(testEvent(agent.EventTypeMessage, time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}
	corrupt := filepath.Join(store.Dir(), "event-00001.json")
	if err := os.WriteFile(corrupt, []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	events, err := LoadEvents(root, conversationID)
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("loaded %d events, want 2", len(events))
	}
	if events[1].Type != agent.EventTypeOutput {
		t.Fatalf("corrupt event type = %q, want output", events[1].Type)
	}
}

func TestLoadEventsMissingConversation(t *testing.T) {
	if _, err := LoadEvents(t.TempDir(), "3f6f9a3e-0000-4000-8000-00000000ffff"); err == nil {
		t.Fatal("expected error for missing conversation")
	}
}

func TestParseEventFilename(t *testing.T) {
	tests := []struct {
		name     string
		sequence int
		ok       bool
	}{
		{"event-00000.json", 0, true},
		{"event-00042.json", 42, true},
		{"event-123456.json", 123456, true},
		{"event-.json", 0, false},
		{"event-12a.json", 0, false},
		{"notes.txt", 0, false},
	}
	for _, test := range tests {
		sequence, ok := parseEventFilename(test.name)
		if ok != test.ok || sequence != test.sequence {
			t.Errorf("parseEventFilename(%q) = %d, %v; want %d, %v",
				test.name, sequence, ok, test.sequence, test.ok)
		}
	}
}
