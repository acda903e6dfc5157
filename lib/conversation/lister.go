// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openhands/openhands-cli/lib/agent"
)

// Info summarizes one stored conversation for pickers and listings.
type Info struct {
	// ID is the conversation UUID string (the directory name).
	ID string

	// CreatedAt is the timestamp of the first recorded event, falling
	// back to the directory's modification time when the trajectory is
	// empty or unreadable.
	CreatedAt time.Time

	// FirstUserPrompt is the content of the first user message,
	// truncated for display. Empty when no user message was recorded.
	FirstUserPrompt string

	// EventCount is the number of recorded events.
	EventCount int
}

// maxPromptPreview bounds FirstUserPrompt. Long prompts keep their
// first line only.
const maxPromptPreview = 120

// List enumerates stored conversations under root, newest first.
// Directories whose names are not UUIDs are skipped; those are not
// conversations.
func List(root string) ([]Info, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading conversations directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		infos = append(infos, describe(root, entry.Name()))
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// LatestID returns the most recently created conversation's ID, or an
// error when no conversations exist.
func LatestID(root string) (string, error) {
	infos, err := List(root)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no stored conversations under %s", root)
	}
	return infos[0].ID, nil
}

// describe builds the Info for one conversation directory. Unreadable
// trajectories still produce an entry; the picker should show the
// conversation even if its summary is thin.
func describe(root, conversationID string) Info {
	info := Info{ID: conversationID}

	events, err := LoadEvents(root, conversationID)
	if err == nil {
		info.EventCount = len(events)
		for _, event := range events {
			if !event.Timestamp.IsZero() {
				info.CreatedAt = event.Timestamp
				break
			}
		}
		for _, event := range events {
			if event.Type == agent.EventTypeMessage && event.Message.Role == "user" {
				info.FirstUserPrompt = previewPrompt(event.Message.Content)
				break
			}
		}
	}

	if info.CreatedAt.IsZero() {
		if stat, statErr := os.Stat(filepath.Join(root, conversationID)); statErr == nil {
			info.CreatedAt = stat.ModTime()
		}
	}
	return info
}

// previewPrompt reduces a prompt to a single bounded line. The bound
// counts runes so truncation never splits a multi-byte character.
func previewPrompt(content string) string {
	if index := strings.IndexByte(content, '\n'); index >= 0 {
		content = content[:index]
	}
	content = strings.TrimSpace(content)
	if runes := []rune(content); len(runes) > maxPromptPreview {
		content = string(runes[:maxPromptPreview-1]) + "…"
	}
	return content
}
