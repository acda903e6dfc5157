// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"
	"strings"
	"sync"
)

// toolCallState tracks tool calls whose arguments are still streaming
// in as action_delta events. Each delta appends to the argument
// buffer; snapshots close the partial JSON so the editor can show
// arguments filling in live.
type toolCallState struct {
	mu      sync.Mutex
	started map[string]bool
	buffers map[string]*strings.Builder
}

func newToolCallState() *toolCallState {
	return &toolCallState{
		started: make(map[string]bool),
		buffers: make(map[string]*strings.Builder),
	}
}

// appendDelta accumulates an argument fragment. Returns true when this
// is the first fragment for the tool call, meaning the translator
// should emit a tool_call start before any update.
func (state *toolCallState) appendDelta(toolCallID, fragment string) (first bool) {
	state.mu.Lock()
	defer state.mu.Unlock()

	buffer, ok := state.buffers[toolCallID]
	if !ok {
		buffer = &strings.Builder{}
		state.buffers[toolCallID] = buffer
	}
	buffer.WriteString(fragment)

	if !state.started[toolCallID] {
		state.started[toolCallID] = true
		return true
	}
	return false
}

// markStarted records that a tool_call start was already sent for this
// ID (from a complete action event rather than deltas).
func (state *toolCallState) markStarted(toolCallID string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.started[toolCallID] = true
}

// snapshot returns the best-effort completed JSON for the accumulated
// argument buffer, or nil when the fragment cannot be repaired into a
// valid document yet.
func (state *toolCallState) snapshot(toolCallID string) json.RawMessage {
	state.mu.Lock()
	buffer, ok := state.buffers[toolCallID]
	state.mu.Unlock()
	if !ok {
		return nil
	}
	return completePartialJSON(buffer.String())
}

// finish releases the buffer for a completed tool call.
func (state *toolCallState) finish(toolCallID string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	delete(state.buffers, toolCallID)
	delete(state.started, toolCallID)
}

// completePartialJSON repairs a truncated JSON document by closing any
// open string and unwinding the open container stack, so a prefix of a
// streaming argument object becomes displayable. Returns nil when the
// repaired text still fails to parse (for example a fragment cut mid
// keyword).
func completePartialJSON(fragment string) json.RawMessage {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil
	}

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(fragment); i++ {
		c := fragment[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	repaired := fragment
	if escaped {
		repaired = repaired[:len(repaired)-1]
	}
	if inString {
		repaired += `"`
	}

	// A dangling separator before the closers would be invalid.
	trimmed := strings.TrimRight(repaired, " \t\n")
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, ":") {
		repaired = trimmed[:len(trimmed)-1]
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}

	if !json.Valid([]byte(repaired)) {
		return nil
	}
	return json.RawMessage(repaired)
}
