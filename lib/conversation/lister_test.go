// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/openhands/openhands-cli/lib/agent"
)

func seedConversation(t *testing.T, root, conversationID, prompt string, createdAt time.Time) {
	t.Helper()
	store, err := OpenStore(root, conversationID)
	if err != nil {
		t.Fatalf("OpenStore(%s): %v", conversationID, err)
	}
	if err := store.Append(agent.Event{
		Timestamp: createdAt,
		Type:      agent.EventTypeMessage,
		Message:   &agent.MessageEvent{Role: "user", Content: prompt},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Append(agent.Event{
		Timestamp: createdAt.Add(time.Second),
		Type:      agent.EventTypeMessage,
		Message:   &agent.MessageEvent{Role: "assistant", Content: "on it"},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	const older = "3f6f9a3e-0000-4000-8000-00000000000a"
	const newer = "3f6f9a3e-0000-4000-8000-00000000000b"
	seedConversation(t, root, older, "first task", base)
	seedConversation(t, root, newer, "second task", base.Add(time.Hour))

	// Not a UUID; must be skipped.
	if err := os.MkdirAll(filepath.Join(root, "scratch"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	infos, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed %d conversations, want 2", len(infos))
	}
	if infos[0].ID != newer || infos[1].ID != older {
		t.Fatalf("order = %s, %s", infos[0].ID, infos[1].ID)
	}
	if infos[0].FirstUserPrompt != "second task" {
		t.Fatalf("first prompt = %q", infos[0].FirstUserPrompt)
	}
	if infos[0].EventCount != 2 {
		t.Fatalf("event count = %d, want 2", infos[0].EventCount)
	}
}

func TestListEmptyRoot(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("List on missing root: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("listed %d conversations from missing root", len(infos))
	}
}

func TestLatestID(t *testing.T) {
	root := t.TempDir()
	if _, err := LatestID(root); err == nil {
		t.Fatal("LatestID on empty root succeeded")
	}

	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	const target = "3f6f9a3e-0000-4000-8000-00000000000c"
	seedConversation(t, root, "3f6f9a3e-0000-4000-8000-00000000000d", "old", base)
	seedConversation(t, root, target, "new", base.Add(time.Hour))

	latest, err := LatestID(root)
	if err != nil {
		t.Fatalf("LatestID: %v", err)
	}
	if latest != target {
		t.Fatalf("latest = %s, want %s", latest, target)
	}
}

func TestPreviewPrompt(t *testing.T) {
	if got := previewPrompt("fix the bug\nthen add tests"); got != "fix the bug" {
		t.Fatalf("multi-line preview = %q", got)
	}
	long := strings.Repeat("x", 300)
	got := previewPrompt(long)
	if count := len([]rune(got)); count != maxPromptPreview {
		t.Fatalf("long preview rune count = %d", count)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("long preview not truncated: %q", got)
	}

	// Multi-byte content must truncate on a rune boundary.
	wide := strings.Repeat("日本語テキスト", 50)
	got = previewPrompt(wide)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if count := len([]rune(got)); count != maxPromptPreview {
		t.Fatalf("wide preview rune count = %d", count)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("wide preview not truncated: %q", got)
	}
}
