// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall"
	"time"
)

// Recorder persists conversation events as they stream from the
// engine. lib/conversation.Store implements it; a nil Recorder
// disables persistence (ACP history replay uses the store directly).
type Recorder interface {
	Append(event Event) error
}

// Decision is the user's answer to a confirmation request.
type Decision string

const (
	// DecisionApprove runs the pending action.
	DecisionApprove Decision = "approve"

	// DecisionReject skips the pending action and tells the agent why.
	DecisionReject Decision = "reject"

	// DecisionAlways approves the pending action and switches the
	// conversation to ConfirmNever for the rest of the session.
	DecisionAlways Decision = "always"
)

// inputRecord is the newline-delimited JSON record written to the
// engine's stdin.
type inputRecord struct {
	Type     string `json:"type"`
	Role     string `json:"role,omitempty"`
	Content  string `json:"content,omitempty"`
	Decision string `json:"decision,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// Conversation is a live handle on one engine process. It pumps the
// engine's event stream into a channel, recording each event before
// delivery, and serializes writes to the engine's stdin.
type Conversation struct {
	// ID is the conversation UUID string.
	ID string

	driver   Driver
	config   DriverConfig
	recorder Recorder

	mu      sync.Mutex
	process Process
	events  chan Event

	parseErr chan error
}

// NewConversation creates a conversation handle. Start must be called
// before Events, SendMessage, or the decision methods.
func NewConversation(driver Driver, recorder Recorder, config DriverConfig) *Conversation {
	return &Conversation{
		ID:       config.ConversationID,
		driver:   driver,
		config:   config,
		recorder: recorder,
		parseErr: make(chan error, 1),
	}
}

// ConfirmationMode returns the conversation's current confirmation mode.
func (c *Conversation) ConfirmationMode() ConfirmationMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.ConfirmationMode
}

// Start spawns the engine process and begins pumping events. The
// returned channel from Events closes when the engine's stdout reaches
// EOF (process exit) or the context is cancelled.
func (c *Conversation) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.process != nil {
		return fmt.Errorf("conversation %s already started", c.ID)
	}

	process, stdout, err := c.driver.Start(ctx, c.config)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	c.process = process

	parsed := make(chan Event, 64)
	c.events = make(chan Event, 64)

	go func() {
		c.parseErr <- c.driver.ParseOutput(ctx, stdout, parsed)
		close(parsed)
	}()

	go func() {
		defer close(c.events)
		for event := range parsed {
			if c.recorder != nil {
				// Recording failures must not stall the stream; the
				// event still reaches the UI.
				_ = c.recorder.Append(event)
			}
			c.events <- event
		}
	}()

	return nil
}

// Started reports whether the engine process is running.
func (c *Conversation) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.process != nil
}

// Events returns the stream of engine events. Nil before Start.
func (c *Conversation) Events() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// SendMessage delivers a user message to the engine and records it in
// the trajectory.
func (c *Conversation) SendMessage(text string) error {
	if c.recorder != nil {
		_ = c.recorder.Append(Event{
			Timestamp: time.Now(),
			Type:      EventTypeMessage,
			Message:   &MessageEvent{Role: "user", Content: text},
		})
	}
	return c.writeInput(inputRecord{Type: "message", Role: "user", Content: text})
}

// Decide answers a pending confirmation request. DecisionAlways also
// flips the conversation's confirmation mode to ConfirmNever so later
// requests are auto-approved engine-side.
func (c *Conversation) Decide(decision Decision) error {
	if err := c.writeInput(inputRecord{Type: "decision", Decision: string(decision)}); err != nil {
		return err
	}
	if decision == DecisionAlways {
		c.mu.Lock()
		c.config.ConfirmationMode = ConfirmNever
		c.mu.Unlock()
	}
	return nil
}

// SetConfirmationMode changes the confirmation policy mid-session.
// Setting the current mode again is a no-op.
func (c *Conversation) SetConfirmationMode(mode ConfirmationMode) error {
	if !ValidConfirmationMode(mode) {
		return fmt.Errorf("invalid confirmation mode %q", mode)
	}

	c.mu.Lock()
	if c.config.ConfirmationMode == mode {
		c.mu.Unlock()
		return nil
	}
	c.config.ConfirmationMode = mode
	c.mu.Unlock()

	return c.writeInput(inputRecord{Type: "set_confirmation_mode", Mode: string(mode)})
}

// Interrupt asks the engine to stop the current turn gracefully.
func (c *Conversation) Interrupt() error {
	c.mu.Lock()
	process := c.process
	c.mu.Unlock()
	if process == nil {
		return fmt.Errorf("conversation %s not started", c.ID)
	}
	return c.driver.Interrupt(process)
}

// Terminate stops the engine process outright and reaps it. Interrupt
// only ends the current turn; an abandoned conversation needs its
// process gone.
func (c *Conversation) Terminate() error {
	c.mu.Lock()
	process := c.process
	c.mu.Unlock()
	if process == nil {
		return fmt.Errorf("conversation %s not started", c.ID)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	return process.Wait()
}

// Wait blocks until the engine process exits. Callers must have
// drained Events first.
func (c *Conversation) Wait() error {
	c.mu.Lock()
	process := c.process
	c.mu.Unlock()
	if process == nil {
		return fmt.Errorf("conversation %s not started", c.ID)
	}
	if err := process.Wait(); err != nil {
		return err
	}
	if err := <-c.parseErr; err != nil && err != context.Canceled {
		return fmt.Errorf("reading engine output: %w", err)
	}
	return nil
}

// writeInput marshals one input record and writes it as a single line
// to the engine's stdin. Serialized under the mutex so concurrent
// senders cannot interleave partial lines.
func (c *Conversation) writeInput(record inputRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.process == nil {
		return fmt.Errorf("conversation %s not started", c.ID)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding input record: %w", err)
	}
	payload = append(payload, '\n')

	if _, err := c.process.Stdin().Write(payload); err != nil {
		return fmt.Errorf("writing to engine: %w", err)
	}
	return nil
}
