// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package home resolves the on-disk locations used by the CLI. All
// state lives under a single root directory, ~/.openhands by default,
// overridable with the OPENHANDS_HOME environment variable (tests and
// sandboxed installs point it at a scratch directory).
package home

import (
	"os"
	"path/filepath"
)

// EnvRoot is the environment variable that overrides the state root.
const EnvRoot = "OPENHANDS_HOME"

// Root returns the state root directory. It does not create it.
func Root() string {
	if override := os.Getenv(EnvRoot); override != "" {
		return override
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Last resort: relative to the working directory. Every caller
		// surfaces the real failure when it tries to create files here.
		return ".openhands"
	}
	return filepath.Join(homeDir, ".openhands")
}

// ConversationsDir is where conversation event logs persist, one
// subdirectory per conversation ID.
func ConversationsDir() string {
	return filepath.Join(Root(), "conversations")
}

// MarketplacesFile holds the configured plugin marketplaces.
func MarketplacesFile() string {
	return filepath.Join(Root(), "marketplaces.json")
}

// MarketplaceCacheDir holds fetched marketplace indexes, one JSON file
// per marketplace name.
func MarketplaceCacheDir() string {
	return filepath.Join(Root(), "marketplace_cache")
}

// PluginsFile holds the installed-plugin registry.
func PluginsFile() string {
	return filepath.Join(Root(), "plugins.json")
}

// MCPFile holds the user-configured MCP server definitions.
func MCPFile() string {
	return filepath.Join(Root(), "mcp.json")
}

// SettingsFile holds agent settings (model, base URL, confirmation mode).
func SettingsFile() string {
	return filepath.Join(Root(), "settings.yaml")
}

// WorkDir is the default agent working directory: the process CWD,
// matching interactive expectations.
func WorkDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
