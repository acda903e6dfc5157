// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/openhands/openhands-cli/cmd/openhands/commands"
	"github.com/openhands/openhands-cli/lib/cli"
)

func main() {
	if err := run(); err != nil {
		// Usage errors print their message (the full help already went
		// to stderr during Execute). Commands that print their own
		// output return an ExitError and exit silently with its code.
		var usage *cli.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(usage.ExitCode())
		}
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
