// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Installed is one plugin recorded in plugins.json.
type Installed struct {
	Name        string    `json:"-"`
	Marketplace string    `json:"marketplace"`
	Version     string    `json:"version,omitempty"`
	Enabled     bool      `json:"enabled"`
	InstalledAt time.Time `json:"installed_at"`
}

type pluginsFile struct {
	Plugins map[string]*Installed `json:"plugins"`
}

// Registry manages the installed plugin set, resolving plugin names
// against marketplace indexes.
type Registry struct {
	configPath   string
	marketplaces *Marketplaces
}

// NewRegistry creates a registry over plugins.json and the given
// marketplace storage.
func NewRegistry(configPath string, marketplaces *Marketplaces) *Registry {
	return &Registry{configPath: configPath, marketplaces: marketplaces}
}

// Install records a plugin from a marketplace's cached index and
// enables it. The marketplace must have been updated at least once.
func (r *Registry) Install(marketplaceName, pluginName string) (Installed, error) {
	definition, err := r.findDefinition(marketplaceName, pluginName)
	if err != nil {
		return Installed{}, err
	}

	config, err := r.load()
	if err != nil {
		return Installed{}, err
	}
	if _, exists := config.Plugins[pluginName]; exists {
		return Installed{}, fmt.Errorf("plugin already installed: %s", pluginName)
	}

	installed := &Installed{
		Marketplace: marketplaceName,
		Version:     definition.Version,
		Enabled:     true,
		InstalledAt: time.Now(),
	}
	config.Plugins[pluginName] = installed
	if err := r.save(config); err != nil {
		return Installed{}, err
	}
	installed.Name = pluginName
	return *installed, nil
}

// Uninstall removes a plugin record.
func (r *Registry) Uninstall(pluginName string) error {
	config, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := config.Plugins[pluginName]; !ok {
		return fmt.Errorf("plugin not installed: %s", pluginName)
	}
	delete(config.Plugins, pluginName)
	return r.save(config)
}

// SetEnabled toggles a plugin without uninstalling it.
func (r *Registry) SetEnabled(pluginName string, enabled bool) error {
	config, err := r.load()
	if err != nil {
		return err
	}
	installed, ok := config.Plugins[pluginName]
	if !ok {
		return fmt.Errorf("plugin not installed: %s", pluginName)
	}
	installed.Enabled = enabled
	return r.save(config)
}

// List returns installed plugins sorted by name.
func (r *Registry) List() ([]Installed, error) {
	config, err := r.load()
	if err != nil {
		return nil, err
	}
	list := make([]Installed, 0, len(config.Plugins))
	for name, installed := range config.Plugins {
		installed.Name = name
		list = append(list, *installed)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Search scans all cached marketplace indexes for plugins whose name
// or description contains the query (case-insensitive). An empty
// query returns everything.
func (r *Registry) Search(query string) ([]SearchResult, error) {
	marketplaces, err := r.marketplaces.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []SearchResult
	for _, marketplace := range marketplaces {
		index, ok := r.marketplaces.CachedIndex(marketplace.Name)
		if !ok {
			continue
		}
		for _, definition := range index.Plugins {
			if query != "" &&
				!strings.Contains(strings.ToLower(definition.Name), query) &&
				!strings.Contains(strings.ToLower(definition.Description), query) {
				continue
			}
			results = append(results, SearchResult{
				Marketplace: marketplace.Name,
				Definition:  definition,
			})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Definition.Name != results[j].Definition.Name {
			return results[i].Definition.Name < results[j].Definition.Name
		}
		return results[i].Marketplace < results[j].Marketplace
	})
	return results, nil
}

// SearchResult pairs a plugin definition with the marketplace
// offering it.
type SearchResult struct {
	Marketplace string
	Definition  Definition
}

// Describe resolves an installed plugin to its marketplace
// definition.
func (r *Registry) Describe(pluginName string) (Installed, Definition, error) {
	config, err := r.load()
	if err != nil {
		return Installed{}, Definition{}, err
	}
	installed, ok := config.Plugins[pluginName]
	if !ok {
		return Installed{}, Definition{}, fmt.Errorf("plugin not installed: %s", pluginName)
	}
	installed.Name = pluginName

	definition, err := r.findDefinition(installed.Marketplace, pluginName)
	if err != nil {
		return *installed, Definition{}, err
	}
	return *installed, definition, nil
}

// Enabled resolves every enabled plugin against its marketplace's
// cached index. Plugins whose index is missing are skipped with their
// names reported, so a stale cache degrades a conversation instead of
// blocking it.
func (r *Registry) Enabled() (definitions []Definition, skipped []string, err error) {
	installed, err := r.List()
	if err != nil {
		return nil, nil, err
	}
	for _, plugin := range installed {
		if !plugin.Enabled {
			continue
		}
		definition, err := r.findDefinition(plugin.Marketplace, plugin.Name)
		if err != nil {
			skipped = append(skipped, plugin.Name)
			continue
		}
		definitions = append(definitions, definition)
	}
	return definitions, skipped, nil
}

func (r *Registry) findDefinition(marketplaceName, pluginName string) (Definition, error) {
	index, ok := r.marketplaces.CachedIndex(marketplaceName)
	if !ok {
		return Definition{}, fmt.Errorf(
			"no cached index for marketplace %q; run \"openhands plugin marketplace update %s\" first",
			marketplaceName, marketplaceName)
	}
	for _, definition := range index.Plugins {
		if definition.Name == pluginName {
			return definition, nil
		}
	}
	return Definition{}, fmt.Errorf("plugin %q not found in marketplace %q", pluginName, marketplaceName)
}

func (r *Registry) load() (*pluginsFile, error) {
	config := &pluginsFile{Plugins: make(map[string]*Installed)}

	payload, err := os.ReadFile(r.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("reading %s: %w", r.configPath, err)
	}
	if len(payload) == 0 {
		return config, nil
	}
	if err := json.Unmarshal(payload, config); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", r.configPath, err)
	}
	if config.Plugins == nil {
		config.Plugins = make(map[string]*Installed)
	}
	return config, nil
}

func (r *Registry) save(config *pluginsFile) error {
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	payload, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plugins: %w", err)
	}
	if err := os.WriteFile(r.configPath, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", r.configPath, err)
	}
	return nil
}
