// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// fetchTimeout bounds marketplace index downloads.
const fetchTimeout = 30 * time.Second

// userAgent identifies index fetches to marketplace hosts.
const userAgent = "OpenHands-CLI/1.0"

// maxIndexSize caps a marketplace index download. Indexes are plugin
// catalogs, not payloads.
const maxIndexSize = 8 * 1024 * 1024

// Marketplace is one registered marketplace.
type Marketplace struct {
	Name        string    `json:"-"`
	Source      Source    `json:"source"`
	AddedAt     time.Time `json:"added_at"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
	AutoUpdate  bool      `json:"auto_update"`
}

// Index is a fetched marketplace catalog.
type Index struct {
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Plugins     []Definition `json:"plugins"`
}

// Definition describes one plugin offered by a marketplace.
type Definition struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Triggers    []string `json:"triggers,omitempty"`
	Content     string   `json:"content,omitempty"`
}

// marketplacesFile is the on-disk shape of marketplaces.json.
type marketplacesFile struct {
	Marketplaces map[string]*Marketplace `json:"marketplaces"`
}

// Marketplaces manages the registered marketplace set and its cached
// indexes.
type Marketplaces struct {
	configPath string
	cacheDir   string
	client     *http.Client
}

// NewMarketplaces creates marketplace storage over the given config
// file and cache directory.
func NewMarketplaces(configPath, cacheDir string) *Marketplaces {
	return &Marketplaces{
		configPath: configPath,
		cacheDir:   cacheDir,
		client:     &http.Client{Timeout: fetchTimeout},
	}
}

// List returns all registered marketplaces sorted by name.
func (m *Marketplaces) List() ([]Marketplace, error) {
	config, err := m.load()
	if err != nil {
		return nil, err
	}
	list := make([]Marketplace, 0, len(config.Marketplaces))
	for name, marketplace := range config.Marketplaces {
		marketplace.Name = name
		list = append(list, *marketplace)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Get returns one marketplace by name.
func (m *Marketplaces) Get(name string) (Marketplace, error) {
	config, err := m.load()
	if err != nil {
		return Marketplace{}, err
	}
	marketplace, ok := config.Marketplaces[name]
	if !ok {
		return Marketplace{}, fmt.Errorf("marketplace not found: %s", name)
	}
	marketplace.Name = name
	return *marketplace, nil
}

// Add registers a new marketplace from a source string. customName
// overrides the name derived from the source. Returns the stored
// marketplace.
func (m *Marketplaces) Add(sourceString, customName string) (Marketplace, error) {
	config, err := m.load()
	if err != nil {
		return Marketplace{}, err
	}

	derivedName, source := ParseSource(sourceString)
	name := customName
	if name == "" {
		name = derivedName
	}
	if _, exists := config.Marketplaces[name]; exists {
		return Marketplace{}, fmt.Errorf("marketplace already exists: %s", name)
	}

	marketplace := &Marketplace{
		Source:     source,
		AddedAt:    time.Now(),
		AutoUpdate: true,
	}
	config.Marketplaces[name] = marketplace
	if err := m.save(config); err != nil {
		return Marketplace{}, err
	}
	marketplace.Name = name
	return *marketplace, nil
}

// Remove unregisters a marketplace and drops its cached index.
func (m *Marketplaces) Remove(name string) error {
	config, err := m.load()
	if err != nil {
		return err
	}
	if _, ok := config.Marketplaces[name]; !ok {
		return fmt.Errorf("marketplace not found: %s", name)
	}
	delete(config.Marketplaces, name)
	if err := m.save(config); err != nil {
		return err
	}
	// Best effort: a stale cache file only wastes disk.
	os.Remove(m.cachePath(name))
	return nil
}

// Update fetches the marketplace index, refreshes the cache, and
// stamps last_updated.
func (m *Marketplaces) Update(name string) (Index, error) {
	config, err := m.load()
	if err != nil {
		return Index{}, err
	}
	marketplace, ok := config.Marketplaces[name]
	if !ok {
		return Index{}, fmt.Errorf("marketplace not found: %s", name)
	}

	index, err := m.fetchIndex(marketplace.Source)
	if err != nil {
		return Index{}, err
	}
	if err := m.cacheIndex(name, index); err != nil {
		return Index{}, err
	}

	marketplace.LastUpdated = time.Now()
	if err := m.save(config); err != nil {
		return Index{}, err
	}
	return index, nil
}

// CachedIndex returns the last fetched index for a marketplace, or
// false when nothing is cached.
func (m *Marketplaces) CachedIndex(name string) (Index, bool) {
	payload, err := os.ReadFile(m.cachePath(name))
	if err != nil {
		return Index{}, false
	}
	var index Index
	if err := json.Unmarshal(payload, &index); err != nil {
		return Index{}, false
	}
	return index, true
}

func (m *Marketplaces) fetchIndex(source Source) (Index, error) {
	fetchURL, err := source.FetchURL()
	if err != nil {
		return Index{}, err
	}

	request, err := http.NewRequest(http.MethodGet, fetchURL, nil)
	if err != nil {
		return Index{}, fmt.Errorf("building index request: %w", err)
	}
	request.Header.Set("User-Agent", userAgent)

	response, err := m.client.Do(request)
	if err != nil {
		return Index{}, fmt.Errorf("fetching marketplace index: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Index{}, fmt.Errorf("fetching marketplace index: HTTP %d from %s", response.StatusCode, fetchURL)
	}

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxIndexSize))
	if err != nil {
		return Index{}, fmt.Errorf("reading marketplace index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(payload, &index); err != nil {
		return Index{}, fmt.Errorf("invalid JSON in marketplace index: %w", err)
	}
	return index, nil
}

func (m *Marketplaces) cacheIndex(name string, index Index) error {
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	payload, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index cache: %w", err)
	}
	if err := os.WriteFile(m.cachePath(name), payload, 0o644); err != nil {
		return fmt.Errorf("writing index cache: %w", err)
	}
	return nil
}

func (m *Marketplaces) cachePath(name string) string {
	return filepath.Join(m.cacheDir, name+".json")
}

func (m *Marketplaces) load() (*marketplacesFile, error) {
	config := &marketplacesFile{Marketplaces: make(map[string]*Marketplace)}

	payload, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("reading %s: %w", m.configPath, err)
	}
	if len(payload) == 0 {
		return config, nil
	}
	if err := json.Unmarshal(payload, config); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", m.configPath, err)
	}
	if config.Marketplaces == nil {
		config.Marketplaces = make(map[string]*Marketplace)
	}
	return config, nil
}

func (m *Marketplaces) save(config *marketplacesFile) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	payload, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding marketplaces: %w", err)
	}
	if err := os.WriteFile(m.configPath, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", m.configPath, err)
	}
	return nil
}
