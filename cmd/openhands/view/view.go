// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package view implements "openhands view": rendering a stored
// conversation trajectory with the same visualization the chat UI
// uses live.
package view

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/home"
	markdown "github.com/openhands/openhands-cli/lib/term"
)

// defaultLimit bounds how many trailing events are rendered when
// --limit is not given.
const defaultLimit = 20

// Command returns the "view" command.
func Command() *cli.Command {
	var limit int

	return &cli.Command{
		Name:    "view",
		Summary: "Render a stored conversation trajectory",
		Description: `Render the persisted events of a conversation to the terminal.

Shows the most recent events (up to --limit) with the same styling
used in the live chat. Use "openhands --resume" to list conversation
IDs.`,
		Usage: "openhands view <conversation-id> [--limit N]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("view", pflag.ContinueOnError)
			flagSet.IntVar(&limit, "limit", defaultLimit, "maximum number of events to render (most recent first)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one conversation id"}
			}
			return run(os.Stdout, args[0], limit)
		},
		Examples: []cli.Example{
			{
				Description: "Show the last 20 events of a conversation",
				Command:     "openhands view 3f6f9a3e-8b2d-4d44-9a3f-2f3f9a3e8b2d",
			},
			{
				Description: "Show the full trajectory",
				Command:     "openhands view 3f6f9a3e-8b2d-4d44-9a3f-2f3f9a3e8b2d --limit 0",
			},
		},
	}
}

func run(out io.Writer, conversationID string, limit int) error {
	events, err := conversation.LoadEvents(home.ConversationsDir(), conversationID)
	if err != nil {
		fmt.Fprintf(out, "conversation %s not found\n", conversationID)
		return &cli.ExitError{Code: 1}
	}
	if len(events) == 0 {
		fmt.Fprintf(out, "conversation %s has no recorded events\n", conversationID)
		return &cli.ExitError{Code: 1}
	}

	if limit > 0 && len(events) > limit {
		fmt.Fprintf(out, "… %d earlier events omitted (--limit %d)\n\n", len(events)-limit, limit)
		events = events[len(events)-limit:]
	}

	fmt.Fprint(out, visualizer(out).Render(events))
	return nil
}

// visualizer styles output only when writing to a terminal.
func visualizer(out io.Writer) *conversation.Visualizer {
	file, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return &conversation.Visualizer{Plain: true}
	}
	styles := markdown.DefaultStyles()
	return &conversation.Visualizer{
		Markdown: func(source string) string {
			return markdown.Render(source, styles, 100)
		},
	}
}
