// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openhands/openhands-cli/lib/agent"
)

// observationPreviewLines bounds how much tool output the visualizer
// shows per observation. Full content stays in the store.
const observationPreviewLines = 12

// Visualizer renders recorded events as terminal text. It is shared by
// the view command, headless mode, and the history pane of the chat UI.
type Visualizer struct {
	// Plain disables color styling, for piped output and headless logs.
	Plain bool

	// Markdown, when set, renders agent message bodies. Nil leaves
	// message text verbatim.
	Markdown func(source string) string
}

// visualStyles are ANSI-256 so they degrade the same way across
// terminals.
var (
	styleUserLabel   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	styleAgentLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	styleToolLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	styleThought     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	styleDim         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleError       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleMetric      = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	stylePlanPending = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	stylePlanActive  = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	stylePlanDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// Render formats a slice of events, one block per visible event.
// Events with no terminal representation (deltas, state snapshots)
// produce nothing.
func (visualizer *Visualizer) Render(events []agent.Event) string {
	var builder strings.Builder
	for _, event := range events {
		block := visualizer.RenderEvent(event)
		if block == "" {
			continue
		}
		builder.WriteString(block)
		if !strings.HasSuffix(block, "\n") {
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}
	return strings.TrimRight(builder.String(), "\n") + "\n"
}

// RenderEvent formats a single event, or returns "" for events that
// are not displayed.
func (visualizer *Visualizer) RenderEvent(event agent.Event) string {
	switch event.Type {
	case agent.EventTypeMessage:
		return visualizer.renderMessage(event.Message)
	case agent.EventTypeAction:
		return visualizer.renderAction(event.Action)
	case agent.EventTypeObservation:
		return visualizer.renderObservation(event.Observation)
	case agent.EventTypePlan:
		return visualizer.renderPlan(event.Plan)
	case agent.EventTypeMetric:
		return visualizer.style(styleMetric, event.Metric.StatusLine())
	case agent.EventTypeSystem:
		return visualizer.renderSystem(event.System)
	case agent.EventTypeError:
		return visualizer.style(styleError, "Error: "+event.Error.Message)
	case agent.EventTypeOutput:
		return visualizer.renderRaw(event.Output.Raw)
	}
	return ""
}

func (visualizer *Visualizer) renderMessage(message *agent.MessageEvent) string {
	if strings.TrimSpace(message.Content) == "" {
		return ""
	}
	if message.Role == "user" {
		return visualizer.style(styleUserLabel, "User") + "\n" + message.Content
	}
	body := message.Content
	if visualizer.Markdown != nil && !visualizer.Plain {
		body = visualizer.Markdown(body)
	}
	return visualizer.style(styleAgentLabel, "Agent") + "\n" + body
}

func (visualizer *Visualizer) renderAction(action *agent.ActionEvent) string {
	var builder strings.Builder
	if action.Reasoning != "" {
		builder.WriteString(visualizer.style(styleThought, action.Reasoning))
		builder.WriteByte('\n')
	}
	if action.Thought != "" {
		builder.WriteString(visualizer.style(styleThought, action.Thought))
		builder.WriteByte('\n')
	}

	title := action.Summary
	if title == "" {
		title = action.ToolName
	}
	builder.WriteString(visualizer.style(styleToolLabel, "→ "+title))

	if len(action.Input) > 0 && action.ToolName != "think" {
		builder.WriteByte('\n')
		builder.WriteString(visualizer.style(styleDim, indent(compactJSON(action.Input), "  ")))
	}
	return builder.String()
}

func (visualizer *Visualizer) renderObservation(observation *agent.ObservationEvent) string {
	if observation.Rejected {
		return visualizer.style(styleError, "✗ rejected by user")
	}

	content := strings.TrimRight(observation.Content, "\n")
	lines := strings.Split(content, "\n")
	if len(lines) > observationPreviewLines {
		omitted := len(lines) - observationPreviewLines
		lines = append(lines[:observationPreviewLines], fmt.Sprintf("… %d more lines", omitted))
	}
	content = indent(strings.Join(lines, "\n"), "  ")

	if observation.IsError {
		return visualizer.style(styleError, "✗ tool error") + "\n" + visualizer.style(styleDim, content)
	}
	if strings.TrimSpace(content) == "" {
		return visualizer.style(styleDim, "✓")
	}
	return visualizer.style(styleDim, content)
}

func (visualizer *Visualizer) renderPlan(plan *agent.PlanEvent) string {
	var builder strings.Builder
	builder.WriteString(visualizer.style(styleToolLabel, "Plan"))
	for _, task := range plan.Tasks {
		builder.WriteByte('\n')
		switch task.Status {
		case "done":
			builder.WriteString(visualizer.style(stylePlanDone, "  ☑ "+task.Title))
		case "in_progress":
			builder.WriteString(visualizer.style(stylePlanActive, "  ◐ "+task.Title))
		default:
			builder.WriteString(visualizer.style(stylePlanPending, "  ☐ "+task.Title))
		}
	}
	return builder.String()
}

func (visualizer *Visualizer) renderSystem(system *agent.SystemEvent) string {
	switch system.Subtype {
	case agent.SystemInit, agent.SystemState:
		return ""
	case agent.SystemAwaitConfirmation:
		message := system.Message
		if message == "" {
			message = "agent is waiting for confirmation"
		}
		return visualizer.style(styleToolLabel, "? "+message)
	case agent.SystemCondensation:
		return visualizer.style(styleDim, "(condensed earlier history)")
	case agent.SystemPause:
		return visualizer.style(styleDim, "(paused)")
	default:
		if system.Message == "" {
			return ""
		}
		return visualizer.style(styleDim, system.Message)
	}
}

// renderRaw pretty-prints unclassified engine output so nothing is
// silently dropped from a trajectory.
func (visualizer *Visualizer) renderRaw(raw json.RawMessage) string {
	var buffer bytes.Buffer
	if err := json.Indent(&buffer, raw, "", "  "); err != nil {
		return visualizer.style(styleDim, string(raw))
	}
	return visualizer.style(styleDim, buffer.String())
}

func (visualizer *Visualizer) style(style lipgloss.Style, text string) string {
	if visualizer.Plain {
		return text
	}
	return style.Render(text)
}

func compactJSON(raw json.RawMessage) string {
	var buffer bytes.Buffer
	if err := json.Indent(&buffer, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buffer.String()
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
