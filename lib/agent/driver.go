// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"io"
	"os"
)

// ConfirmationMode selects how tool actions are confirmed before
// execution. The mode is passed to the engine, which enforces it; the
// CLI only surfaces the resulting await_confirmation events.
type ConfirmationMode string

const (
	// ConfirmAlways asks the user before every action (default).
	ConfirmAlways ConfirmationMode = "always"

	// ConfirmNever auto-approves every action (--always-approve).
	ConfirmNever ConfirmationMode = "never"

	// ConfirmRisky asks only for actions the engine's security
	// analyzer predicts as high risk (--llm-approve).
	ConfirmRisky ConfirmationMode = "risky"
)

// ValidConfirmationMode reports whether mode is one of the three
// supported values.
func ValidConfirmationMode(mode ConfirmationMode) bool {
	switch mode {
	case ConfirmAlways, ConfirmNever, ConfirmRisky:
		return true
	}
	return false
}

// Process represents a running engine process. Driver implementations
// return this from Start. The Conversation uses it to wait for
// completion, write input lines, and send signals.
type Process interface {
	// Wait blocks until the process exits and returns its exit error.
	// Returns nil if the process exited with status 0.
	Wait() error

	// Stdin returns the write end of the process's stdin pipe. The
	// Conversation writes newline-delimited JSON input records
	// (messages, confirmation decisions, mode changes) to it.
	Stdin() io.Writer

	// Signal sends an OS signal to the process.
	Signal(signal os.Signal) error
}

// DriverConfig holds the configuration passed to Driver.Start.
type DriverConfig struct {
	// ConversationID is the UUID string identifying this conversation.
	// The engine uses it to locate its own persisted state, so starting
	// with an existing ID resumes that conversation.
	ConversationID string

	// WorkingDirectory is the workspace the engine operates in.
	WorkingDirectory string

	// ConfirmationMode is the initial confirmation policy.
	ConfirmationMode ConfirmationMode

	// Model overrides the engine's configured model when non-empty.
	Model string

	// BaseURL overrides the LLM endpoint when non-empty.
	BaseURL string

	// MCPConfigFile is the path to the MCP server configuration the
	// engine should load, empty for none.
	MCPConfigFile string

	// ExtraEnv is additional environment for the engine process, in
	// "KEY=VALUE" form. API keys travel this way, never as arguments.
	ExtraEnv []string
}

// Driver is the abstraction boundary between the CLI and the engine
// runtime. The default implementation spawns the openhands-agent
// binary; tests substitute in-process fakes.
type Driver interface {
	// Start spawns the engine process with the given configuration.
	// Returns a Process handle and the process's stdout reader. The
	// caller is responsible for reading stdout to completion (via
	// ParseOutput) before calling Process.Wait.
	Start(ctx context.Context, config DriverConfig) (Process, io.ReadCloser, error)

	// ParseOutput reads the engine's stdout stream and emits structured
	// events on the provided channel. Called in a goroutine; blocks
	// until the reader returns EOF or the context is cancelled. The
	// caller closes the events channel after ParseOutput returns.
	ParseOutput(ctx context.Context, stdout io.Reader, events chan<- Event) error

	// Interrupt requests the engine to stop the current turn
	// gracefully.
	Interrupt(process Process) error
}
