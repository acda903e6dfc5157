// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openhands/openhands-cli/lib/agent"
)

// updateSender delivers one session update to the client.
type updateSender func(update any) error

// translator converts engine events into ACP session updates. One
// translator exists per session; it carries the streaming tool call
// state across events.
type translator struct {
	state *toolCallState
}

func newTranslator() *translator {
	return &translator{state: newToolCallState()}
}

// translate emits zero or more session updates for one engine event.
// Metric events produce nothing here; the server folds them into the
// prompt result's _meta.
func (tr *translator) translate(event agent.Event, send updateSender) error {
	switch event.Type {
	case agent.EventTypeMessage:
		return tr.translateMessage(event.Message, send)
	case agent.EventTypeAction:
		return tr.translateAction(event.Action, send)
	case agent.EventTypeActionDelta:
		return tr.translateActionDelta(event.ActionDelta, send)
	case agent.EventTypeObservation:
		return tr.translateObservation(event.Observation, send)
	case agent.EventTypePlan:
		return send(planFromTasks(event.Plan.Tasks))
	case agent.EventTypeSystem:
		return tr.translateSystem(event.System, send)
	case agent.EventTypeError:
		return tr.translateError(event.Error, send)
	}
	// Metric, output, and unknown events have no ACP representation.
	return nil
}

func (tr *translator) translateMessage(message *agent.MessageEvent, send updateSender) error {
	if strings.TrimSpace(message.Content) == "" {
		return nil
	}
	kind := updateAgentMessageChunk
	if message.Role == "user" {
		kind = updateUserMessageChunk
	}
	return send(messageChunkUpdate{
		SessionUpdate: kind,
		Content:       textBlock(message.Content),
	})
}

func (tr *translator) translateAction(action *agent.ActionEvent, send updateSender) error {
	switch action.ToolName {
	case "think":
		return send(messageChunkUpdate{
			SessionUpdate: updateAgentThoughtChunk,
			Content:       textBlock(thinkContent(action)),
		})

	case "finish":
		return send(messageChunkUpdate{
			SessionUpdate: updateAgentMessageChunk,
			Content:       textBlock(finishContent(action)),
		})

	case "task_tracker":
		if update, ok := planFromTrackerInput(action.Input); ok {
			return send(update)
		}
		return nil
	}

	// Reasoning and thought text precede the tool call itself.
	if action.Reasoning != "" {
		if err := send(messageChunkUpdate{
			SessionUpdate: updateAgentThoughtChunk,
			Content:       textBlock("**Reasoning**:\n" + action.Reasoning),
		}); err != nil {
			return err
		}
	}
	if action.Thought != "" {
		if err := send(messageChunkUpdate{
			SessionUpdate: updateAgentThoughtChunk,
			Content:       textBlock("**Thought**:\n" + action.Thought),
		}); err != nil {
			return err
		}
	}

	info := describeToolCall(action.ToolName, action.Input, action.Summary)
	tr.state.markStarted(action.ToolCallID)
	return send(toolCallUpdate{
		SessionUpdate: updateToolCall,
		ToolCallID:    action.ToolCallID,
		Title:         info.title,
		Kind:          info.kind,
		Status:        statusInProgress,
		RawInput:      action.Input,
		Locations:     info.locations,
	})
}

func (tr *translator) translateActionDelta(delta *agent.ActionDeltaEvent, send updateSender) error {
	first := tr.state.appendDelta(delta.ToolCallID, delta.ArgsDelta)
	if first {
		info := describeToolCall(delta.ToolName, nil, "")
		if err := send(toolCallUpdate{
			SessionUpdate: updateToolCall,
			ToolCallID:    delta.ToolCallID,
			Title:         info.title,
			Kind:          info.kind,
			Status:        statusPending,
		}); err != nil {
			return err
		}
	}

	snapshot := tr.state.snapshot(delta.ToolCallID)
	if snapshot == nil {
		// The fragment isn't repairable yet; wait for more bytes.
		return nil
	}
	info := describeToolCall(delta.ToolName, snapshot, "")
	return send(toolCallUpdate{
		SessionUpdate: updateToolCallUpdate,
		ToolCallID:    delta.ToolCallID,
		Title:         info.title,
		Kind:          info.kind,
		Status:        statusInProgress,
		RawInput:      snapshot,
		Locations:     info.locations,
	})
}

func (tr *translator) translateObservation(observation *agent.ObservationEvent, send updateSender) error {
	tr.state.finish(observation.ToolCallID)

	status := statusCompleted
	if observation.IsError || observation.Rejected {
		status = statusFailed
	}

	update := toolCallUpdate{
		SessionUpdate: updateToolCallUpdate,
		ToolCallID:    observation.ToolCallID,
		Status:        status,
	}
	content := observation.Content
	if observation.Rejected && content == "" {
		content = "Rejected by user."
	}
	if content != "" {
		update.Content = []toolCallOutput{toolTextOutput(content)}
	}
	return send(update)
}

func (tr *translator) translateSystem(system *agent.SystemEvent, send updateSender) error {
	switch system.Subtype {
	case agent.SystemPrompt, agent.SystemPause, agent.SystemCondensation:
		if system.Message == "" {
			return nil
		}
		return send(messageChunkUpdate{
			SessionUpdate: updateAgentThoughtChunk,
			Content:       textBlock(system.Message),
		})
	case agent.SystemAwaitConfirmation:
		message := system.Message
		if message == "" {
			message = "Waiting for approval."
		}
		return send(messageChunkUpdate{
			SessionUpdate: updateAgentThoughtChunk,
			Content:       textBlock(message),
		})
	}
	// init and state snapshots are engine bookkeeping.
	return nil
}

func (tr *translator) translateError(errorEvent *agent.ErrorEvent, send updateSender) error {
	if errorEvent.ToolCallID != "" {
		tr.state.finish(errorEvent.ToolCallID)
		return send(toolCallUpdate{
			SessionUpdate: updateToolCallUpdate,
			ToolCallID:    errorEvent.ToolCallID,
			Status:        statusFailed,
			Content:       []toolCallOutput{toolTextOutput(errorEvent.Message)},
		})
	}
	return send(messageChunkUpdate{
		SessionUpdate: updateAgentMessageChunk,
		Content:       textBlock("Error: " + errorEvent.Message),
	})
}

// thinkContent extracts the thought text from a think action, which
// arrives either in the thought field or as the tool argument.
func thinkContent(action *agent.ActionEvent) string {
	if action.Thought != "" {
		return action.Thought
	}
	var arguments struct {
		Thought string `json:"thought"`
	}
	if len(action.Input) > 0 {
		_ = json.Unmarshal(action.Input, &arguments)
	}
	return arguments.Thought
}

// finishContent extracts the final message from a finish action.
func finishContent(action *agent.ActionEvent) string {
	var arguments struct {
		Message string `json:"message"`
	}
	if len(action.Input) > 0 {
		_ = json.Unmarshal(action.Input, &arguments)
	}
	if arguments.Message != "" {
		return arguments.Message
	}
	return action.Thought
}

// planFromTasks converts engine plan tasks to an ACP plan update.
func planFromTasks(tasks []agent.PlanTask) planUpdate {
	entries := make([]planEntry, 0, len(tasks))
	for _, task := range tasks {
		entries = append(entries, planEntry{
			Content:  task.Title,
			Priority: "medium",
			Status:   planStatus(task.Status),
		})
	}
	return planUpdate{SessionUpdate: updatePlan, Entries: entries}
}

// planFromTrackerInput parses a task_tracker action's argument list.
func planFromTrackerInput(input json.RawMessage) (planUpdate, bool) {
	var arguments struct {
		TaskList []agent.PlanTask `json:"task_list"`
	}
	if len(input) == 0 || json.Unmarshal(input, &arguments) != nil || len(arguments.TaskList) == 0 {
		return planUpdate{}, false
	}
	return planFromTasks(arguments.TaskList), true
}

// planStatus maps engine task statuses onto the ACP plan vocabulary.
func planStatus(status string) string {
	switch status {
	case "done":
		return "completed"
	case "in_progress":
		return "in_progress"
	case "todo":
		return "pending"
	}
	return "pending"
}

// usageMeta builds the _meta payload carrying a turn's cumulative
// usage; the server stamps it onto session/update notifications.
func usageMeta(metric *agent.MetricEvent) map[string]any {
	return map[string]any{
		"openhands.dev/usage": map[string]any{
			"inputTokens":     metric.InputTokens,
			"outputTokens":    metric.OutputTokens,
			"cacheReadTokens": metric.CacheReadTokens,
			"reasoningTokens": metric.ReasoningTokens,
			"costUsd":         metric.CostUSD,
			"statusLine":      metric.StatusLine(),
		},
	}
}

// promptText flattens prompt content blocks into the engine's plain
// text message form. Embedded resources become fenced context blocks.
func promptText(blocks []contentBlock) (string, error) {
	var builder strings.Builder
	for _, block := range blocks {
		switch block.Type {
		case "text":
			builder.WriteString(block.Text)
		case "resource_link":
			fmt.Fprintf(&builder, "\n%s\n", block.URI)
		case "resource":
			if block.Resource != nil && block.Resource.Text != "" {
				fmt.Fprintf(&builder, "\n<context uri=%q>\n%s\n</context>\n", block.Resource.URI, block.Resource.Text)
			}
		default:
			return "", fmt.Errorf("unsupported content block type %q", block.Type)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("prompt contains no text")
	}
	return text, nil
}
