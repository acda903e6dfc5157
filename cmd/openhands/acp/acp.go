// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package acp implements "openhands acp": serving the Agent Client
// Protocol over stdio for editors that embed the agent.
package acp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/openhands/openhands-cli/lib/acp"
	"github.com/openhands/openhands-cli/lib/agent"
	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/home"
	"github.com/openhands/openhands-cli/lib/settings"
)

// Command returns the "acp" command.
func Command() *cli.Command {
	var alwaysApprove, llmApprove bool

	return &cli.Command{
		Name:    "acp",
		Summary: "Serve the Agent Client Protocol over stdio",
		Description: `Serve the Agent Client Protocol (ACP) on stdin/stdout.

Editors spawn this command and speak newline-delimited JSON-RPC 2.0
to create sessions, send prompts, and stream agent output. Actions
are auto-approved by default since the editor drives the session;
use --llm-approve to surface risky actions as session modes instead.`,
		Usage: "openhands acp [--always-approve|--llm-approve]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("acp", pflag.ContinueOnError)
			flagSet.BoolVar(&alwaysApprove, "always-approve", false, "execute agent actions without confirmation (default)")
			flagSet.BoolVar(&llmApprove, "llm-approve", false, "require confirmation for actions the agent judges risky")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return &cli.UsageError{Message: "acp takes no arguments"}
			}
			if alwaysApprove && llmApprove {
				return &cli.UsageError{Message: "--always-approve and --llm-approve are mutually exclusive"}
			}

			config, err := settings.Load(home.SettingsFile())
			if err != nil {
				return err
			}

			mode := agent.ConfirmNever
			if llmApprove {
				mode = agent.ConfirmRisky
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := acp.NewServer(acp.ServerConfig{
				ConversationsRoot: home.ConversationsDir(),
				WorkDir:           home.WorkDir(),
				Model:             config.Model,
				BaseURL:           config.BaseURL,
				MCPConfigFile:     mcpConfigFile(),
				ConfirmationMode:  mode,
				Logger:            cli.NewCommandLogger().With("command", "acp"),
			})
			return server.Serve(ctx)
		},
	}
}

func mcpConfigFile() string {
	path := home.MCPFile()
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
