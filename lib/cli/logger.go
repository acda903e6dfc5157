// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger creates a structured logger for CLI command operations.
// When stderr is a terminal, uses slog.TextHandler for human-readable
// output. When stderr is piped or redirected (scripts, editor-spawned ACP
// servers, integration tests), uses slog.JSONHandler for machine-parseable
// output.
//
// The level defaults to warn so interactive sessions stay quiet; setting
// DEBUG=1 (or "true") enables debug output, matching the original CLI's
// DEBUG environment toggle.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger().With("command", "plugin/marketplace")
func NewCommandLogger() *slog.Logger {
	level := slog.LevelWarn
	if debugEnabled() {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func debugEnabled() bool {
	value := strings.ToLower(os.Getenv("DEBUG"))
	return value == "1" || value == "true"
}
