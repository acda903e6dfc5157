// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete OpenHands CLI command tree.
package commands

import (
	"fmt"

	acpcmd "github.com/openhands/openhands-cli/cmd/openhands/acp"
	"github.com/openhands/openhands-cli/cmd/openhands/chat"
	mcpcmd "github.com/openhands/openhands-cli/cmd/openhands/mcp"
	plugincmd "github.com/openhands/openhands-cli/cmd/openhands/plugin"
	servecmd "github.com/openhands/openhands-cli/cmd/openhands/serve"
	viewcmd "github.com/openhands/openhands-cli/cmd/openhands/view"
	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/version"
)

// Root builds and returns the complete OpenHands CLI command tree.
// The root command itself is the chat UI; everything else hangs off
// it as subcommands.
func Root() *cli.Command {
	root := chat.RootCommand()
	root.Subcommands = []*cli.Command{
		viewcmd.Command(),
		plugincmd.Command(),
		mcpcmd.Command(),
		acpcmd.Command(),
		servecmd.Command(),
		{
			Name:    "version",
			Summary: "Print version information",
			Run: func(args []string) error {
				fmt.Printf("openhands %s\n", version.String())
				return nil
			},
		},
	}
	root.Examples = []cli.Example{
		{
			Description: "Start chatting with the agent",
			Command:     "openhands",
		},
		{
			Description: "Pick up where you left off",
			Command:     "openhands --last",
		},
		{
			Description: "Run one task non-interactively",
			Command:     "openhands --headless --task 'fix the failing tests'",
		},
		{
			Description: "Inspect a past conversation",
			Command:     "openhands view 3f6f9a3e-8b2d-4d44-9a3f-2f3f9a3e8b2d",
		},
		{
			Description: "Add a plugin marketplace and install from it",
			Command:     "openhands plugin marketplace add openhands/plugins",
		},
		{
			Description: "Serve the web UI via Docker",
			Command:     "openhands serve --mount-cwd",
		},
	}
	return root
}
