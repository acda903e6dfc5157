// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings loads the user's CLI configuration: settings.yaml
// for model and confirmation defaults, and mcp.json (JSONC, comments
// allowed) for MCP server definitions passed to the engine.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/openhands/openhands-cli/lib/agent"
)

// Settings is the user configuration stored in settings.yaml. Zero
// values mean "use the engine's defaults".
type Settings struct {
	// Model is the LLM identifier passed to the engine.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the LLM endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// The key itself never lands in the settings file.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// ConfirmationMode is the default confirmation policy for new
	// conversations.
	ConfirmationMode agent.ConfirmationMode `yaml:"confirmation_mode,omitempty"`
}

// Load reads settings.yaml. A missing file yields defaults; a present
// but invalid file is an error, silently ignoring a typo'd config
// helps nobody.
func Load(path string) (Settings, error) {
	var settings Settings

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return settings, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(payload, &settings); err != nil {
		return settings, fmt.Errorf("parsing %s: %w", path, err)
	}

	if settings.ConfirmationMode == "" {
		settings.ConfirmationMode = agent.ConfirmAlways
	} else if !agent.ValidConfirmationMode(settings.ConfirmationMode) {
		return settings, fmt.Errorf(
			"invalid confirmation_mode %q in %s (want always, never, or risky)",
			settings.ConfirmationMode, path)
	}
	return settings, nil
}

func defaults() Settings {
	return Settings{ConfirmationMode: agent.ConfirmAlways}
}

// Save writes settings.yaml.
func Save(path string, settings Settings) error {
	payload, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// APIKeyEnvironment returns the "KEY=VALUE" entries to pass to the
// engine process for the configured API key, or nil when unset.
func (settings Settings) APIKeyEnvironment() []string {
	if settings.APIKeyEnv == "" {
		return nil
	}
	value, ok := os.LookupEnv(settings.APIKeyEnv)
	if !ok {
		return nil
	}
	return []string{"LLM_API_KEY=" + value}
}

// MCPServer is one server entry in mcp.json. Either Command (stdio
// transport) or URL (http or sse transport) is set, not both.
type MCPServer struct {
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	URL       string            `json:"url,omitempty"`
	Transport string            `json:"transport,omitempty"`
}

// MCPConfig is the mcp.json document.
type MCPConfig struct {
	Servers map[string]MCPServer `json:"mcpServers"`
}

// LoadMCP reads mcp.json, tolerating comments and trailing commas. A
// missing file yields an empty config.
func LoadMCP(path string) (MCPConfig, error) {
	config := MCPConfig{Servers: map[string]MCPServer{}}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := unmarshalJSONC(payload, &config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	if config.Servers == nil {
		config.Servers = map[string]MCPServer{}
	}
	return config, nil
}

// SaveMCP writes mcp.json (plain JSON; comments in a hand-edited file
// do not survive a programmatic rewrite).
func SaveMCP(path string, config MCPConfig) error {
	payload, err := marshalIndented(config)
	if err != nil {
		return fmt.Errorf("encoding mcp config: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func unmarshalJSONC(payload []byte, target any) error {
	return json.Unmarshal(jsonc.ToJSON(payload), target)
}

func marshalIndented(value any) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}
