// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/openhands/openhands-cli/lib/agent"
)

// eventFilePrefix and eventFileSuffix frame the per-event filenames:
// event-00000.json, event-00001.json, and so on. Five digits keeps the
// lexical order equal to the numeric order for any realistic
// conversation length.
const (
	eventFilePrefix = "event-"
	eventFileSuffix = ".json"
)

// Store appends events for one conversation to its events directory.
// It implements agent.Recorder. Safe for use from a single pump
// goroutine plus occasional user-message appends; writes are serialized
// by a mutex.
type Store struct {
	dir  string
	mu   sync.Mutex
	next int
}

// OpenStore opens (creating if needed) the event store for the given
// conversation under root. When the directory already holds events, new
// appends continue after the highest existing sequence number.
func OpenStore(root, conversationID string) (*Store, error) {
	dir := filepath.Join(root, conversationID, "events")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating events directory %s: %w", dir, err)
	}

	store := &Store{dir: dir}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning events directory: %w", err)
	}
	for _, entry := range entries {
		sequence, ok := parseEventFilename(entry.Name())
		if !ok {
			continue
		}
		if sequence >= store.next {
			store.next = sequence + 1
		}
	}

	return store, nil
}

// Dir returns the events directory this store writes to.
func (store *Store) Dir() string {
	return store.dir
}

// Append writes one event as the next numbered JSON document. The file
// is written whole in a single WriteFile call; events are small enough
// that a torn write would require a crash mid-syscall, and a corrupt
// trailing event degrades to raw display rather than breaking loads.
func (store *Store) Append(event agent.Event) error {
	payload, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	path := filepath.Join(store.dir, fmt.Sprintf("%s%05d%s", eventFilePrefix, store.next, eventFileSuffix))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing event file: %w", err)
	}
	store.next++
	return nil
}

// LoadEvents reads all recorded events for a conversation in sequence
// order. Files that fail to parse are surfaced as raw output events so
// one corrupt record does not hide the rest of the trajectory.
func LoadEvents(root, conversationID string) ([]agent.Event, error) {
	dir := filepath.Join(root, conversationID, "events")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation %s not found", conversationID)
		}
		return nil, fmt.Errorf("reading events directory: %w", err)
	}

	type numbered struct {
		sequence int
		name     string
	}
	var files []numbered
	for _, entry := range entries {
		sequence, ok := parseEventFilename(entry.Name())
		if !ok {
			continue
		}
		files = append(files, numbered{sequence, entry.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].sequence < files[j].sequence })

	events := make([]agent.Event, 0, len(files))
	for _, file := range files {
		payload, err := os.ReadFile(filepath.Join(dir, file.name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.name, err)
		}
		events = append(events, agent.ParseStreamLine(payload))
	}
	return events, nil
}

// parseEventFilename extracts the sequence number from an event
// filename, or returns false for files that don't match the scheme.
func parseEventFilename(name string) (int, bool) {
	if !strings.HasPrefix(name, eventFilePrefix) || !strings.HasSuffix(name, eventFileSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, eventFilePrefix), eventFileSuffix)
	if digits == "" {
		return 0, false
	}
	sequence := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
		sequence = sequence*10 + int(r-'0')
	}
	return sequence, true
}
