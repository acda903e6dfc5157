// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the chat UI. Most keystrokes go
// to the composer; these bindings cover chrome and the confirmation
// prompt.
type KeyMap struct {
	Submit    key.Binding
	Interrupt key.Binding // Also quits when the agent is idle.
	Quit      key.Binding

	// Transcript scrolling.
	PageUp   key.Binding
	PageDown key.Binding

	// Confirmation prompt.
	ChoiceNext key.Binding
	ChoicePrev key.Binding
	Approve    key.Binding
	Reject     key.Binding
	Always     key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "interrupt"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "quit"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	ChoiceNext: key.NewBinding(
		key.WithKeys("tab", "right"),
		key.WithHelp("Tab/→", "next choice"),
	),
	ChoicePrev: key.NewBinding(
		key.WithKeys("shift+tab", "left"),
		key.WithHelp("S-Tab/←", "previous choice"),
	),
	Approve: key.NewBinding(
		key.WithKeys("a", "y"),
		key.WithHelp("a", "approve"),
	),
	Reject: key.NewBinding(
		key.WithKeys("r", "n", "esc"),
		key.WithHelp("r", "reject"),
	),
	Always: key.NewBinding(
		key.WithKeys("!"),
		key.WithHelp("!", "always approve"),
	),
}
