// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/openhands/openhands-cli/lib/agent"
)

// collect runs the translator over one event and returns the updates
// it produced.
func collect(t *testing.T, tr *translator, event agent.Event) []any {
	t.Helper()
	var updates []any
	err := tr.translate(event, func(update any) error {
		updates = append(updates, update)
		return nil
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return updates
}

func TestTranslateAgentMessage(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "assistant", Content: "hello"},
	})
	if len(updates) != 1 {
		t.Fatalf("got %d updates", len(updates))
	}
	chunk := updates[0].(messageChunkUpdate)
	if chunk.SessionUpdate != updateAgentMessageChunk || chunk.Content.Text != "hello" {
		t.Fatalf("chunk = %+v", chunk)
	}
}

func TestTranslateUserMessageOnReplay(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "user", Content: "do the thing"},
	})
	chunk := updates[0].(messageChunkUpdate)
	if chunk.SessionUpdate != updateUserMessageChunk {
		t.Fatalf("sessionUpdate = %q", chunk.SessionUpdate)
	}
}

func TestTranslateEmptyMessageSkipped(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "assistant", Content: "  \n"},
	})
	if len(updates) != 0 {
		t.Fatalf("empty message produced %d updates", len(updates))
	}
}

func TestTranslateActionWithThoughts(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-1",
			ToolName:   "terminal",
			Input:      json.RawMessage(`{"command":"go vet ./..."}`),
			Thought:    "checking for mistakes",
			Reasoning:  "the build looked flaky",
		},
	})
	if len(updates) != 3 {
		t.Fatalf("got %d updates, want 3", len(updates))
	}

	reasoning := updates[0].(messageChunkUpdate)
	if reasoning.SessionUpdate != updateAgentThoughtChunk || !strings.HasPrefix(reasoning.Content.Text, "**Reasoning**:") {
		t.Fatalf("reasoning chunk = %+v", reasoning)
	}
	thought := updates[1].(messageChunkUpdate)
	if !strings.HasPrefix(thought.Content.Text, "**Thought**:") {
		t.Fatalf("thought chunk = %+v", thought)
	}

	call := updates[2].(toolCallUpdate)
	if call.SessionUpdate != updateToolCall || call.Status != statusInProgress {
		t.Fatalf("tool call = %+v", call)
	}
	if call.Kind != "execute" || call.Title != "go vet ./..." {
		t.Fatalf("kind/title = %q/%q", call.Kind, call.Title)
	}
}

func TestTranslateThinkAction(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-2",
			ToolName:   "think",
			Input:      json.RawMessage(`{"thought":"need more context"}`),
		},
	})
	if len(updates) != 1 {
		t.Fatalf("got %d updates", len(updates))
	}
	chunk := updates[0].(messageChunkUpdate)
	if chunk.SessionUpdate != updateAgentThoughtChunk || chunk.Content.Text != "need more context" {
		t.Fatalf("chunk = %+v", chunk)
	}
}

func TestTranslateFinishAction(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-3",
			ToolName:   "finish",
			Input:      json.RawMessage(`{"message":"all done"}`),
		},
	})
	chunk := updates[0].(messageChunkUpdate)
	if chunk.SessionUpdate != updateAgentMessageChunk || chunk.Content.Text != "all done" {
		t.Fatalf("chunk = %+v", chunk)
	}
}

func TestTranslateTaskTrackerAction(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-4",
			ToolName:   "task_tracker",
			Input:      json.RawMessage(`{"task_list":[{"title":"a","status":"done"},{"title":"b","status":"todo"}]}`),
		},
	})
	if len(updates) != 1 {
		t.Fatalf("got %d updates", len(updates))
	}
	plan := updates[0].(planUpdate)
	if plan.SessionUpdate != updatePlan || len(plan.Entries) != 2 {
		t.Fatalf("plan = %+v", plan)
	}
	if plan.Entries[0].Status != "completed" || plan.Entries[1].Status != "pending" {
		t.Fatalf("statuses = %q, %q", plan.Entries[0].Status, plan.Entries[1].Status)
	}
}

func TestTranslateActionDeltaStream(t *testing.T) {
	tr := newTranslator()

	first := collect(t, tr, agent.Event{
		Type:        agent.EventTypeActionDelta,
		ActionDelta: &agent.ActionDeltaEvent{ToolCallID: "call-5", ToolName: "terminal", ArgsDelta: `{"command":"ec`},
	})
	if len(first) != 2 {
		t.Fatalf("first delta produced %d updates, want start + snapshot", len(first))
	}
	start := first[0].(toolCallUpdate)
	if start.SessionUpdate != updateToolCall || start.Status != statusPending {
		t.Fatalf("start = %+v", start)
	}
	partial := first[1].(toolCallUpdate)
	if partial.SessionUpdate != updateToolCallUpdate || string(partial.RawInput) != `{"command":"ec"}` {
		t.Fatalf("partial = %+v", partial)
	}

	second := collect(t, tr, agent.Event{
		Type:        agent.EventTypeActionDelta,
		ActionDelta: &agent.ActionDeltaEvent{ToolCallID: "call-5", ToolName: "terminal", ArgsDelta: `ho hi"}`},
	})
	if len(second) != 1 {
		t.Fatalf("second delta produced %d updates", len(second))
	}
	full := second[0].(toolCallUpdate)
	if string(full.RawInput) != `{"command":"echo hi"}` || full.Title != "echo hi" {
		t.Fatalf("full = %+v", full)
	}
}

func TestTranslateObservation(t *testing.T) {
	tr := newTranslator()
	updates := collect(t, tr, agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-6", Content: "ok"},
	})
	update := updates[0].(toolCallUpdate)
	if update.Status != statusCompleted || update.Content[0].Content.Text != "ok" {
		t.Fatalf("update = %+v", update)
	}

	updates = collect(t, tr, agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-7", Content: "boom", IsError: true},
	})
	if updates[0].(toolCallUpdate).Status != statusFailed {
		t.Fatalf("error observation status = %+v", updates[0])
	}

	updates = collect(t, tr, agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-8", Rejected: true},
	})
	update = updates[0].(toolCallUpdate)
	if update.Status != statusFailed || update.Content[0].Content.Text != "Rejected by user." {
		t.Fatalf("rejected observation = %+v", update)
	}
}

func TestTranslateSystemEvents(t *testing.T) {
	tr := newTranslator()

	if updates := collect(t, tr, agent.Event{
		Type:   agent.EventTypeSystem,
		System: &agent.SystemEvent{Subtype: agent.SystemInit},
	}); len(updates) != 0 {
		t.Fatalf("init produced %d updates", len(updates))
	}

	updates := collect(t, tr, agent.Event{
		Type:   agent.EventTypeSystem,
		System: &agent.SystemEvent{Subtype: agent.SystemCondensation, Message: "condensed 40 events"},
	})
	if updates[0].(messageChunkUpdate).SessionUpdate != updateAgentThoughtChunk {
		t.Fatalf("condensation = %+v", updates[0])
	}
}

func TestTranslateErrorEvent(t *testing.T) {
	tr := newTranslator()

	updates := collect(t, tr, agent.Event{
		Type:  agent.EventTypeError,
		Error: &agent.ErrorEvent{Message: "tool crashed", ToolCallID: "call-9"},
	})
	update := updates[0].(toolCallUpdate)
	if update.Status != statusFailed || update.ToolCallID != "call-9" {
		t.Fatalf("tool error = %+v", update)
	}

	updates = collect(t, tr, agent.Event{
		Type:  agent.EventTypeError,
		Error: &agent.ErrorEvent{Message: "provider unavailable"},
	})
	chunk := updates[0].(messageChunkUpdate)
	if !strings.Contains(chunk.Content.Text, "provider unavailable") {
		t.Fatalf("error chunk = %+v", chunk)
	}
}

func TestTranslateMetricProducesNothing(t *testing.T) {
	updates := collect(t, newTranslator(), agent.Event{
		Type:   agent.EventTypeMetric,
		Metric: &agent.MetricEvent{InputTokens: 10},
	})
	if len(updates) != 0 {
		t.Fatalf("metric produced %d updates", len(updates))
	}
}

func TestPromptText(t *testing.T) {
	text, err := promptText([]contentBlock{
		{Type: "text", Text: "fix this"},
		{Type: "resource", Resource: &embeddedResource{URI: "file:///a.go", Text: "package a"}},
	})
	if err != nil {
		t.Fatalf("promptText: %v", err)
	}
	if !strings.Contains(text, "fix this") || !strings.Contains(text, "package a") {
		t.Fatalf("text = %q", text)
	}

	if _, err := promptText([]contentBlock{{Type: "image"}}); err == nil {
		t.Fatal("unsupported block accepted")
	}
	if _, err := promptText(nil); err == nil {
		t.Fatal("empty prompt accepted")
	}
}

func TestDescribeToolCall(t *testing.T) {
	tests := []struct {
		tool  string
		input string
		kind  string
		title string
	}{
		{"think", `{}`, "think", "Thinking"},
		{"terminal", `{"command":"make"}`, "execute", "make"},
		{"browser_navigate", `{"url":"https://example.com"}`, "fetch", "Fetching https://example.com"},
		{"file_editor", `{"command":"view","path":"main.go"}`, "read", "Reading main.go"},
		{"file_editor", `{"command":"str_replace","path":"main.go"}`, "edit", "Editing main.go"},
		{"task_tracker", `{}`, "think", "Plan updated"},
		{"custom_tool", `{}`, "other", "custom_tool"},
	}
	for _, test := range tests {
		info := describeToolCall(test.tool, json.RawMessage(test.input), "")
		if info.kind != test.kind || info.title != test.title {
			t.Errorf("describeToolCall(%s, %s) = %q/%q, want %q/%q",
				test.tool, test.input, info.kind, info.title, test.kind, test.title)
		}
	}

	info := describeToolCall("terminal", json.RawMessage(`{"command":"make"}`), "Building the project")
	if info.title != "Building the project" {
		t.Errorf("summary override: title = %q", info.title)
	}

	info = describeToolCall("file_editor", json.RawMessage(`{"command":"view","path":"a/b.go"}`), "")
	if len(info.locations) != 1 || info.locations[0].Path != "a/b.go" {
		t.Errorf("locations = %+v", info.locations)
	}
}
