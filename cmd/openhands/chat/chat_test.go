// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/home"
)

func TestConflictingApprovalFlags(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	err := RootCommand().Execute([]string{"--always-approve", "--llm-approve"})
	var usage *cli.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("err = %v, want UsageError", err)
	}
}

func TestHeadlessRequiresTask(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	err := RootCommand().Execute([]string{"--headless"})
	var usage *cli.UsageError
	if !errors.As(err, &usage) || !strings.Contains(usage.Message, "--task") {
		t.Fatalf("err = %v, want usage error mentioning --task", err)
	}

	err = RootCommand().Execute([]string{"--headless", "--task", "x", "--file", "y"})
	if !errors.As(err, &usage) {
		t.Fatalf("err = %v, want UsageError for task+file", err)
	}
}

func TestUnexpectedArgument(t *testing.T) {
	err := RootCommand().Execute([]string{"--", "stray"})
	var usage *cli.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("err = %v, want UsageError", err)
	}
}

func TestResolveConversationNew(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	id, primed, err := resolveConversation(options{}, false)
	if err != nil {
		t.Fatalf("resolveConversation: %v", err)
	}
	if _, parseErr := uuid.Parse(id); parseErr != nil {
		t.Fatalf("id %q is not a UUID", id)
	}
	if primed != nil {
		t.Fatalf("fresh conversation primed with %d events", len(primed))
	}
}

func TestResolveConversationLastWithNoneStored(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	_, _, err := resolveConversation(options{last: true}, false)
	if err == nil || !strings.Contains(err.Error(), "no stored conversations") {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveConversationResume(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	if _, _, err := resolveConversation(options{resume: "not-a-uuid"}, true); err == nil {
		t.Fatal("invalid id accepted")
	}

	id := uuid.NewString()
	if _, err := conversation.OpenStore(home.ConversationsDir(), id); err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	resolved, primed, err := resolveConversation(options{resume: id}, true)
	if err != nil {
		t.Fatalf("resolveConversation: %v", err)
	}
	if resolved != id {
		t.Fatalf("resolved %q, want %q", resolved, id)
	}
	if len(primed) != 0 {
		t.Fatalf("primed = %v", primed)
	}

	latest, primed, err := resolveConversation(options{last: true}, false)
	if err != nil {
		t.Fatalf("resolveConversation --last: %v", err)
	}
	if latest != id {
		t.Fatalf("latest %q, want %q", latest, id)
	}
	_ = primed
}
