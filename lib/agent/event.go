// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType classifies conversation events.
type EventType string

const (
	// EventTypeMessage is a chat message from the user or the agent.
	EventTypeMessage EventType = "message"

	// EventTypeAction is a tool invocation decided by the agent,
	// including any thought or reasoning text that preceded it.
	EventTypeAction EventType = "action"

	// EventTypeActionDelta is an incremental fragment of a streaming
	// tool call: a partial chunk of the JSON arguments for an action
	// that has not finished streaming yet.
	EventTypeActionDelta EventType = "action_delta"

	// EventTypeObservation is the result returned from a tool invocation.
	EventTypeObservation EventType = "observation"

	// EventTypePlan is a task-tracker snapshot of the agent's plan.
	EventTypePlan EventType = "plan"

	// EventTypeMetric is a turn summary (tokens, cost). The engine
	// emits exactly one metric event at the end of each agent turn,
	// which is how callers detect turn completion.
	EventTypeMetric EventType = "metric"

	// EventTypeSystem is an engine lifecycle event (init, system
	// prompt, pause, condensation, confirmation request, state).
	EventTypeSystem EventType = "system"

	// EventTypeError is an error reported by the engine.
	EventTypeError EventType = "error"

	// EventTypeOutput is raw engine output that doesn't map to a
	// structured type. Preserved verbatim so viewers can fall back to
	// displaying the raw JSON.
	EventTypeOutput EventType = "output"
)

// Event is a structured conversation event. Each event has a timestamp,
// type, and type-specific payload. Events are persisted one JSON
// document per file in the conversation store and carried verbatim on
// the engine's stream-json stdout.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type classifies the event.
	Type EventType `json:"type"`

	// Message is set for EventTypeMessage events.
	Message *MessageEvent `json:"message,omitempty"`

	// Action is set for EventTypeAction events.
	Action *ActionEvent `json:"action,omitempty"`

	// ActionDelta is set for EventTypeActionDelta events.
	ActionDelta *ActionDeltaEvent `json:"action_delta,omitempty"`

	// Observation is set for EventTypeObservation events.
	Observation *ObservationEvent `json:"observation,omitempty"`

	// Plan is set for EventTypePlan events.
	Plan *PlanEvent `json:"plan,omitempty"`

	// Metric is set for EventTypeMetric events.
	Metric *MetricEvent `json:"metric,omitempty"`

	// System is set for EventTypeSystem events.
	System *SystemEvent `json:"system,omitempty"`

	// Error is set for EventTypeError events.
	Error *ErrorEvent `json:"error,omitempty"`

	// Output is set for EventTypeOutput events.
	Output *OutputEvent `json:"output,omitempty"`
}

// MessageEvent is a chat message.
type MessageEvent struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ActionEvent records a tool invocation by the agent.
type ActionEvent struct {
	// ToolCallID is the engine-assigned identifier linking this action
	// to its observation.
	ToolCallID string `json:"tool_call_id"`

	// ToolName is the tool being invoked (e.g., "terminal",
	// "file_editor", "think", "task_tracker").
	ToolName string `json:"tool_name"`

	// Input is the complete tool arguments, preserved as raw JSON.
	Input json.RawMessage `json:"input,omitempty"`

	// Thought is the agent's visible thought text for this step.
	Thought string `json:"thought,omitempty"`

	// Reasoning is provider reasoning content, when present.
	Reasoning string `json:"reasoning,omitempty"`

	// Summary is an LLM-generated one-line summary of the action,
	// used as the tool call title when present.
	Summary string `json:"summary,omitempty"`
}

// ActionDeltaEvent is a fragment of a streaming tool call's arguments.
type ActionDeltaEvent struct {
	// ToolCallID identifies the in-flight tool call.
	ToolCallID string `json:"tool_call_id"`

	// ToolName is the tool being invoked.
	ToolName string `json:"tool_name"`

	// ArgsDelta is the next chunk of the JSON argument text.
	ArgsDelta string `json:"args_delta"`
}

// ObservationEvent records the result of a tool invocation.
type ObservationEvent struct {
	// ToolCallID matches the corresponding ActionEvent.ToolCallID.
	ToolCallID string `json:"tool_call_id"`

	// ToolName is the tool that produced this result.
	ToolName string `json:"tool_name,omitempty"`

	// Content is the result text (truncated by the engine for large
	// outputs).
	Content string `json:"content,omitempty"`

	// IsError indicates the tool call failed.
	IsError bool `json:"is_error,omitempty"`

	// Rejected indicates the user declined the action in confirmation
	// mode; the tool never ran.
	Rejected bool `json:"rejected,omitempty"`
}

// PlanEvent is a snapshot of the agent's task plan.
type PlanEvent struct {
	Tasks []PlanTask `json:"tasks"`
}

// PlanTask is one entry in the agent's plan.
type PlanTask struct {
	// Title is the task description.
	Title string `json:"title"`

	// Status is "todo", "in_progress", or "done".
	Status string `json:"status"`
}

// MetricEvent is the per-turn usage summary.
type MetricEvent struct {
	InputTokens     int64   `json:"input_tokens,omitempty"`
	OutputTokens    int64   `json:"output_tokens,omitempty"`
	CacheReadTokens int64   `json:"cache_read_tokens,omitempty"`
	ReasoningTokens int64   `json:"reasoning_tokens,omitempty"`
	CostUSD         float64 `json:"cost_usd,omitempty"`
}

// StatusLine formats the metric for single-line display, shared by the
// chat status bar, the trajectory viewer, and editor status updates.
func (metric *MetricEvent) StatusLine() string {
	var parts []string
	if metric.InputTokens > 0 {
		parts = append(parts, "↑ input "+abbreviateCount(metric.InputTokens))
	}
	if metric.CacheReadTokens > 0 {
		parts = append(parts, "cache hit "+abbreviateCount(metric.CacheReadTokens))
	}
	if metric.OutputTokens > 0 {
		parts = append(parts, "↓ output "+abbreviateCount(metric.OutputTokens))
	}
	if metric.ReasoningTokens > 0 {
		parts = append(parts, "reasoning "+abbreviateCount(metric.ReasoningTokens))
	}
	if metric.CostUSD > 0 {
		parts = append(parts, fmt.Sprintf("$ %.4f", metric.CostUSD))
	}
	return strings.Join(parts, " • ")
}

// abbreviateCount renders token counts compactly: 950, 1.2K, 3.4M.
func abbreviateCount(count int64) string {
	switch {
	case count >= 1_000_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(count)/1_000_000), ".0") + "M"
	case count >= 1_000:
		return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(count)/1_000), ".0") + "K"
	default:
		return fmt.Sprintf("%d", count)
	}
}

// SystemEvent records engine lifecycle events.
type SystemEvent struct {
	// Subtype classifies the system event. Known subtypes: "init",
	// "system_prompt", "pause", "condensation",
	// "await_confirmation", "state".
	Subtype string `json:"subtype"`

	// Message is an optional human-readable description. For
	// await_confirmation it describes the pending action.
	Message string `json:"message,omitempty"`

	// Metadata captures the full structured payload as raw JSON;
	// consumers unmarshal on demand.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ErrorEvent records an engine error.
type ErrorEvent struct {
	// Message is the error description.
	Message string `json:"message"`

	// ToolCallID links the error to a tool call when the failure
	// occurred executing one.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// OutputEvent preserves unclassified engine output.
type OutputEvent struct {
	// Raw is the original line, preserved as raw JSON.
	Raw json.RawMessage `json:"raw"`
}

// SystemEvent subtypes handled specially by consumers.
const (
	SystemInit              = "init"
	SystemPrompt            = "system_prompt"
	SystemPause             = "pause"
	SystemCondensation      = "condensation"
	SystemAwaitConfirmation = "await_confirmation"
	SystemState             = "state"
)

// knownEventTypes is the set of types the stream parser accepts as
// structured events; anything else degrades to EventTypeOutput.
var knownEventTypes = map[EventType]bool{
	EventTypeMessage:     true,
	EventTypeAction:      true,
	EventTypeActionDelta: true,
	EventTypeObservation: true,
	EventTypePlan:        true,
	EventTypeMetric:      true,
	EventTypeSystem:      true,
	EventTypeError:       true,
	EventTypeOutput:      true,
}
