// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// EnvEngineBinary overrides the engine binary path. Defaults to
// "openhands-agent" resolved via PATH.
const EnvEngineBinary = "OPENHANDS_AGENT_BINARY"

// EngineDriver spawns the openhands-agent binary with stream-json
// output. It is the production Driver implementation.
type EngineDriver struct{}

// engineProcess wraps an exec.Cmd to implement Process.
type engineProcess struct {
	command *exec.Cmd
	stdin   io.WriteCloser
}

func (process *engineProcess) Wait() error {
	return process.command.Wait()
}

func (process *engineProcess) Stdin() io.Writer {
	return process.stdin
}

func (process *engineProcess) Signal(signal os.Signal) error {
	if process.command.Process == nil {
		return fmt.Errorf("process not started")
	}
	return process.command.Process.Signal(signal)
}

// Start spawns the engine with stream-json output on stdout. The
// engine's own diagnostics go to stderr, which stays attached to the
// CLI's stderr so operators see crashes.
func (driver *EngineDriver) Start(ctx context.Context, config DriverConfig) (Process, io.ReadCloser, error) {
	binaryPath := os.Getenv(EnvEngineBinary)
	if binaryPath == "" {
		binaryPath = "openhands-agent"
	}

	arguments := []string{
		"--output-format", "stream-json",
		"--conversation", config.ConversationID,
	}
	if config.ConfirmationMode != "" {
		arguments = append(arguments, "--confirmation-mode", string(config.ConfirmationMode))
	}
	if config.Model != "" {
		arguments = append(arguments, "--model", config.Model)
	}
	if config.BaseURL != "" {
		arguments = append(arguments, "--base-url", config.BaseURL)
	}
	if config.MCPConfigFile != "" {
		arguments = append(arguments, "--mcp-config", config.MCPConfigFile)
	}

	command := exec.CommandContext(ctx, binaryPath, arguments...)
	command.Dir = config.WorkingDirectory
	command.Stderr = os.Stderr
	command.Env = append(os.Environ(), config.ExtraEnv...)

	stdin, err := command.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("creating stdin pipe: %w", err)
	}

	stdout, err := command.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := command.Start(); err != nil {
		stdin.Close()
		return nil, nil, fmt.Errorf("starting %s: %w", binaryPath, err)
	}

	return &engineProcess{command: command, stdin: stdin}, stdout, nil
}

// ParseOutput reads the engine's stream-json stdout line by line and
// emits structured events. Each line is one JSON event document;
// malformed or unrecognized lines degrade to raw output events rather
// than aborting the stream.
func (driver *EngineDriver) ParseOutput(ctx context.Context, stdout io.Reader, events chan<- Event) error {
	scanner := bufio.NewScanner(stdout)
	// Tool observations can carry large file contents on one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		events <- ParseStreamLine(line)
	}

	return scanner.Err()
}

// Interrupt sends SIGINT, which the engine handles by finishing the
// current tool call and ending the turn.
func (driver *EngineDriver) Interrupt(process Process) error {
	return process.Signal(syscall.SIGINT)
}

// ParseStreamLine parses one line of engine stream-json output. Lines
// that are not valid JSON, carry an unknown type, or lack the payload
// for their declared type are preserved as raw output events so
// nothing the engine says is dropped.
func ParseStreamLine(line []byte) Event {
	var event Event
	if err := json.Unmarshal(line, &event); err != nil || !knownEventTypes[event.Type] || !event.payloadPresent() {
		return Event{
			Timestamp: time.Now(),
			Type:      EventTypeOutput,
			Output:    &OutputEvent{Raw: json.RawMessage(append([]byte(nil), line...))},
		}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}

// payloadPresent reports whether the payload field matching the
// declared type is set. A type tag without its payload is treated as
// unclassified output.
func (event *Event) payloadPresent() bool {
	switch event.Type {
	case EventTypeMessage:
		return event.Message != nil
	case EventTypeAction:
		return event.Action != nil
	case EventTypeActionDelta:
		return event.ActionDelta != nil
	case EventTypeObservation:
		return event.Observation != nil
	case EventTypePlan:
		return event.Plan != nil
	case EventTypeMetric:
		return event.Metric != nil
	case EventTypeSystem:
		return event.System != nil
	case EventTypeError:
		return event.Error != nil
	case EventTypeOutput:
		return event.Output != nil
	}
	return false
}
