// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/openhands/openhands-cli/lib/agent"
)

// chromeHeight is the vertical space taken by everything that is not
// the transcript: title, composer/confirm row, and status bar.
const chromeHeight = 4

func (m *Model) View() string {
	if !m.ready {
		return "starting…"
	}

	var sections []string
	sections = append(sections, m.titleView())
	sections = append(sections, m.viewport.View())

	if m.state == stateConfirming {
		sections = append(sections, m.confirmView())
	} else {
		sections = append(sections, m.composerView())
	}
	sections = append(sections, m.statusView())

	return strings.Join(sections, "\n")
}

func (m *Model) titleView() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(m.theme.AgentLabel)
	title := style.Render("OpenHands")
	id := lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(" · " + shortID(m.conversation.ID))
	return title + id
}

func (m *Model) composerView() string {
	if m.state == stateWorking {
		working := lipgloss.NewStyle().Foreground(m.theme.ToolPending)
		label := " working… "
		if !m.turnStarted.IsZero() {
			label = fmt.Sprintf(" working… %ds ", int(time.Since(m.turnStarted).Seconds()))
		}
		return m.spinner.View() + working.Render(label+"(C-c to interrupt)")
	}
	return m.input.View()
}

// confirmView renders the approve/reject/always prompt.
func (m *Model) confirmView() string {
	var parts []string
	if m.confirmDetail != "" {
		detail := lipgloss.NewStyle().Foreground(m.theme.NormalText)
		parts = append(parts, detail.Render(m.confirmDetail))
	}

	choices := []struct {
		label string
		color lipgloss.Color
	}{
		{"Approve", m.theme.ConfirmApprove},
		{"Reject", m.theme.ConfirmReject},
		{"Always approve", m.theme.ConfirmAlways},
	}
	var rendered []string
	for i, choice := range choices {
		style := lipgloss.NewStyle().Foreground(choice.color).Padding(0, 1)
		if i == m.confirmChoice {
			style = style.Reverse(true).Bold(true)
		}
		rendered = append(rendered, style.Render(choice.label))
	}
	parts = append(parts, strings.Join(rendered, " "))
	return strings.Join(parts, "  ")
}

func (m *Model) statusView() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.HelpText)
	status := lipgloss.NewStyle().Foreground(m.theme.StatusText)
	errStyle := lipgloss.NewStyle().Foreground(m.theme.ToolFailed)

	var parts []string
	parts = append(parts, faint.Render(modeLabel(m.conversation.ConfirmationMode())))
	if m.statusLine != "" {
		parts = append(parts, status.Render(m.statusLine))
	}
	if m.notice != "" {
		parts = append(parts, faint.Render(m.notice))
	}
	if m.err != nil {
		parts = append(parts, errStyle.Render(m.err.Error()))
	}
	return strings.Join(parts, "  ")
}

func modeLabel(mode agent.ConfirmationMode) string {
	switch mode {
	case agent.ConfirmNever:
		return "auto-approve"
	case agent.ConfirmRisky:
		return "confirm risky"
	default:
		return "confirm all"
	}
}

// shortID abbreviates a conversation UUID for the title bar.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
