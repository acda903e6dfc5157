// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/openhands/openhands-cli/lib/agent"
)

func plainVisualizer() *Visualizer {
	return &Visualizer{Plain: true}
}

func TestRenderMessage(t *testing.T) {
	visualizer := plainVisualizer()

	got := visualizer.RenderEvent(agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "user", Content: "run the tests"},
	})
	if !strings.HasPrefix(got, "User\n") || !strings.Contains(got, "run the tests") {
		t.Fatalf("user message = %q", got)
	}

	got = visualizer.RenderEvent(agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "assistant", Content: "done"},
	})
	if !strings.HasPrefix(got, "Agent\n") {
		t.Fatalf("agent message = %q", got)
	}

	got = visualizer.RenderEvent(agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "assistant", Content: "   "},
	})
	if got != "" {
		t.Fatalf("blank message rendered as %q", got)
	}
}

func TestRenderAction(t *testing.T) {
	visualizer := plainVisualizer()
	got := visualizer.RenderEvent(agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-1",
			ToolName:   "terminal",
			Input:      json.RawMessage(`{"command":"go test ./..."}`),
			Thought:    "running the suite",
		},
	})
	if !strings.Contains(got, "running the suite") {
		t.Fatalf("missing thought: %q", got)
	}
	if !strings.Contains(got, "→ terminal") {
		t.Fatalf("missing tool label: %q", got)
	}
	if !strings.Contains(got, "go test") {
		t.Fatalf("missing input: %q", got)
	}
}

func TestRenderActionPrefersSummary(t *testing.T) {
	visualizer := plainVisualizer()
	got := visualizer.RenderEvent(agent.Event{
		Type: agent.EventTypeAction,
		Action: &agent.ActionEvent{
			ToolCallID: "call-2",
			ToolName:   "file_editor",
			Summary:    "Editing main.go",
		},
	})
	if !strings.Contains(got, "→ Editing main.go") {
		t.Fatalf("summary not used as title: %q", got)
	}
}

func TestRenderObservation(t *testing.T) {
	visualizer := plainVisualizer()

	long := strings.Repeat("line\n", 40)
	got := visualizer.RenderEvent(agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-1", Content: long},
	})
	if !strings.Contains(got, "more lines") {
		t.Fatalf("long observation not truncated: %q", got)
	}

	got = visualizer.RenderEvent(agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-1", Rejected: true},
	})
	if !strings.Contains(got, "rejected") {
		t.Fatalf("rejection not rendered: %q", got)
	}

	got = visualizer.RenderEvent(agent.Event{
		Type:        agent.EventTypeObservation,
		Observation: &agent.ObservationEvent{ToolCallID: "call-1", Content: "boom", IsError: true},
	})
	if !strings.Contains(got, "tool error") {
		t.Fatalf("error not rendered: %q", got)
	}
}

func TestRenderPlan(t *testing.T) {
	visualizer := plainVisualizer()
	got := visualizer.RenderEvent(agent.Event{
		Type: agent.EventTypePlan,
		Plan: &agent.PlanEvent{Tasks: []agent.PlanTask{
			{Title: "survey", Status: "done"},
			{Title: "build", Status: "in_progress"},
			{Title: "test", Status: "todo"},
		}},
	})
	for _, want := range []string{"☑ survey", "◐ build", "☐ test"} {
		if !strings.Contains(got, want) {
			t.Fatalf("plan missing %q: %q", want, got)
		}
	}
}

func TestRenderSystemAndRaw(t *testing.T) {
	visualizer := plainVisualizer()

	if got := visualizer.RenderEvent(agent.Event{
		Type:   agent.EventTypeSystem,
		System: &agent.SystemEvent{Subtype: agent.SystemInit},
	}); got != "" {
		t.Fatalf("init rendered as %q", got)
	}

	got := visualizer.RenderEvent(agent.Event{
		Type:   agent.EventTypeSystem,
		System: &agent.SystemEvent{Subtype: agent.SystemAwaitConfirmation, Message: "run rm -rf build?"},
	})
	if !strings.Contains(got, "run rm -rf build?") {
		t.Fatalf("confirmation not rendered: %q", got)
	}

	got = visualizer.RenderEvent(agent.Event{
		Type:   agent.EventTypeOutput,
		Output: &agent.OutputEvent{Raw: json.RawMessage(`{"type":"mystery","value":1}`)},
	})
	if !strings.Contains(got, "mystery") {
		t.Fatalf("raw output not rendered: %q", got)
	}
}

func TestRenderMetric(t *testing.T) {
	visualizer := plainVisualizer()
	got := visualizer.RenderEvent(agent.Event{
		Type:   agent.EventTypeMetric,
		Metric: &agent.MetricEvent{InputTokens: 1500, OutputTokens: 200, CacheReadTokens: 1000, CostUSD: 0.05},
	})
	for _, want := range []string{"↑ input 1.5K", "cache hit 1K", "↓ output 200", "$ 0.0500"} {
		if !strings.Contains(got, want) {
			t.Fatalf("metric line missing %q: %q", want, got)
		}
	}
}

func TestRenderSkipsDeltas(t *testing.T) {
	visualizer := plainVisualizer()
	got := visualizer.Render([]agent.Event{
		{Type: agent.EventTypeActionDelta, ActionDelta: &agent.ActionDeltaEvent{ToolCallID: "c", ArgsDelta: "{"}},
		{Type: agent.EventTypeMessage, Message: &agent.MessageEvent{Role: "assistant", Content: "hi"}},
	})
	if strings.Count(got, "Agent") != 1 {
		t.Fatalf("render output = %q", got)
	}
}

func TestMarkdownHookApplied(t *testing.T) {
	visualizer := &Visualizer{
		Plain: false,
		Markdown: func(source string) string {
			return "MD:" + source
		},
	}
	got := visualizer.RenderEvent(agent.Event{
		Type:    agent.EventTypeMessage,
		Message: &agent.MessageEvent{Role: "assistant", Content: "**bold**"},
	})
	if !strings.Contains(got, "MD:**bold**") {
		t.Fatalf("markdown hook not applied: %q", got)
	}
}
