// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func testMarketplaces(t *testing.T) *Marketplaces {
	t.Helper()
	dir := t.TempDir()
	return NewMarketplaces(filepath.Join(dir, "marketplaces.json"), filepath.Join(dir, "cache"))
}

func TestMarketplaceAddListRemove(t *testing.T) {
	marketplaces := testMarketplaces(t)

	added, err := marketplaces.Add("acme/tools", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.Name != "acme-tools" || added.Source.Repo != "acme/tools" {
		t.Fatalf("added = %+v", added)
	}
	if !added.AutoUpdate {
		t.Fatal("auto_update not defaulted on")
	}

	if _, err := marketplaces.Add("acme/tools", ""); err == nil {
		t.Fatal("duplicate add succeeded")
	}

	if _, err := marketplaces.Add("https://example.com/extra.json", "extras"); err != nil {
		t.Fatalf("Add with custom name: %v", err)
	}

	list, err := marketplaces.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "acme-tools" || list[1].Name != "extras" {
		t.Fatalf("list = %+v", list)
	}

	if err := marketplaces.Remove("extras"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := marketplaces.Remove("extras"); err == nil {
		t.Fatal("removing missing marketplace succeeded")
	}

	if _, err := marketplaces.Get("acme-tools"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := marketplaces.Get("extras"); err == nil {
		t.Fatal("Get after remove succeeded")
	}
}

func TestMarketplaceUpdateFetchesAndCaches(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"name":"acme","plugins":[{"name":"linter","version":"1.2.0","description":"lints things"}]}`))
	}))
	defer server.Close()

	marketplaces := testMarketplaces(t)
	if _, err := marketplaces.Add(server.URL+"/marketplace.json", "acme"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	index, err := marketplaces.Update("acme")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotUserAgent != userAgent {
		t.Fatalf("user agent = %q", gotUserAgent)
	}
	if len(index.Plugins) != 1 || index.Plugins[0].Name != "linter" {
		t.Fatalf("index = %+v", index)
	}

	cached, ok := marketplaces.CachedIndex("acme")
	if !ok {
		t.Fatal("index not cached")
	}
	if cached.Plugins[0].Version != "1.2.0" {
		t.Fatalf("cached = %+v", cached)
	}

	updated, err := marketplaces.Get("acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if updated.LastUpdated.IsZero() {
		t.Fatal("last_updated not stamped")
	}
}

func TestMarketplaceUpdateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	marketplaces := testMarketplaces(t)
	if _, err := marketplaces.Update("missing"); err == nil {
		t.Fatal("updating unknown marketplace succeeded")
	}

	if _, err := marketplaces.Add(server.URL+"/gone.json", "gone"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := marketplaces.Update("gone"); err == nil {
		t.Fatal("HTTP 404 update succeeded")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer bad.Close()
	if _, err := marketplaces.Add(bad.URL+"/bad.json", "bad"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := marketplaces.Update("bad"); err == nil {
		t.Fatal("invalid JSON update succeeded")
	}
}
