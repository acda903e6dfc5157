// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"strings"
	"testing"

	"github.com/openhands/openhands-cli/lib/cli"
)

// TestCommandTreeShape walks the full command tree and validates the
// invariants the dispatcher relies on: every command is named, carries
// a summary for help listings, and defines either subcommands or a
// run function.
func TestCommandTreeShape(t *testing.T) {
	walkCommands(Root(), nil, func(command *cli.Command, path []string) {
		where := strings.Join(path, " ")
		if command.Name == "" {
			t.Errorf("%s: command with empty name", where)
		}
		if len(path) > 1 && command.Summary == "" {
			t.Errorf("%s: command missing summary", where)
		}
		if command.Run == nil && len(command.Subcommands) == 0 {
			t.Errorf("%s: command with neither Run nor Subcommands", where)
		}

		seen := make(map[string]bool)
		for _, sub := range command.Subcommands {
			if seen[sub.Name] {
				t.Errorf("%s: duplicate subcommand %q", where, sub.Name)
			}
			seen[sub.Name] = true
		}
	})
}

func TestRootSubcommands(t *testing.T) {
	root := Root()
	for _, want := range []string{"view", "plugin", "mcp", "acp", "serve", "version"} {
		found := false
		for _, sub := range root.Subcommands {
			if sub.Name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root tree missing %q", want)
		}
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	err := Root().Execute([]string{"frobnicate"})
	var usage *cli.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("err = %v, want UsageError", err)
	}
}

func walkCommands(command *cli.Command, path []string, visit func(*cli.Command, []string)) {
	current := append(append([]string{}, path...), command.Name)
	visit(command, current)
	for _, sub := range command.Subcommands {
		walkCommands(sub, current, visit)
	}
}
