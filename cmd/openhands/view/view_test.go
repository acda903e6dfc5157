// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openhands/openhands-cli/lib/agent"
	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/home"
)

const testID = "3f6f9a3e-0000-4000-8000-0000000000aa"

func seedConversation(t *testing.T, count int) {
	t.Helper()
	store, err := conversation.OpenStore(home.ConversationsDir(), testID)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	for i := 0; i < count; i++ {
		event := agent.Event{
			Timestamp: time.Now(),
			Type:      agent.EventTypeMessage,
			Message:   &agent.MessageEvent{Role: "assistant", Content: "reply number " + strings.Repeat("i", i+1)},
		}
		if err := store.Append(event); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestRunMissingConversation(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	var out strings.Builder
	err := run(&out, testID, defaultLimit)

	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("err = %v, want ExitError code 1", err)
	}
	if !strings.Contains(out.String(), "not found") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunEmptyConversation(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())
	seedConversation(t, 0)

	var out strings.Builder
	err := run(&out, testID, defaultLimit)

	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != 1 {
		t.Fatalf("err = %v, want ExitError code 1", err)
	}
	if !strings.Contains(out.String(), "no recorded events") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunRendersEvents(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())
	seedConversation(t, 3)

	var out strings.Builder
	if err := run(&out, testID, defaultLimit); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "reply number i") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunAppliesLimit(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())
	seedConversation(t, 5)

	var out strings.Builder
	if err := run(&out, testID, 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "3 earlier events omitted") {
		t.Fatalf("output = %q", out.String())
	}
	// The oldest events are trimmed, the newest survive.
	if strings.Contains(out.String(), "reply number i\n") {
		t.Fatalf("first event not trimmed: %q", out.String())
	}
	if !strings.Contains(out.String(), "reply number iiiii") {
		t.Fatalf("last event missing: %q", out.String())
	}
}
