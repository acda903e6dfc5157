// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/openhands/openhands-cli/lib/term"
)

// Theme is the chat UI palette. ANSI 256-color codes for broad
// terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Speaker labels.
	UserLabel  lipgloss.Color
	AgentLabel lipgloss.Color

	// Tool call lifecycle.
	ToolPending lipgloss.Color
	ToolDone    lipgloss.Color
	ToolFailed  lipgloss.Color

	// UI chrome.
	Border     lipgloss.Color
	StatusText lipgloss.Color
	HelpText   lipgloss.Color

	// Confirmation prompt.
	ConfirmApprove lipgloss.Color
	ConfirmReject  lipgloss.Color
	ConfirmAlways  lipgloss.Color
}

// DefaultTheme is the built-in palette.
var DefaultTheme = Theme{
	NormalText:     lipgloss.Color("252"),
	FaintText:      lipgloss.Color("245"),
	UserLabel:      lipgloss.Color("75"),
	AgentLabel:     lipgloss.Color("114"),
	ToolPending:    lipgloss.Color("215"),
	ToolDone:       lipgloss.Color("114"),
	ToolFailed:     lipgloss.Color("203"),
	Border:         lipgloss.Color("240"),
	StatusText:     lipgloss.Color("109"),
	HelpText:       lipgloss.Color("241"),
	ConfirmApprove: lipgloss.Color("114"),
	ConfirmReject:  lipgloss.Color("203"),
	ConfirmAlways:  lipgloss.Color("215"),
}

// MarkdownStyles maps the theme onto the markdown renderer's style
// set so transcript markdown matches the chrome.
func (theme Theme) MarkdownStyles() term.Styles {
	styles := term.DefaultStyles()
	styles.Text = theme.NormalText
	styles.Muted = theme.FaintText
	styles.Heading = theme.ToolPending
	styles.Done = theme.ToolDone
	styles.Link = theme.UserLabel
	return styles
}
