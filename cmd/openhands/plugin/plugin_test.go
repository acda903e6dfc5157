// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openhands/openhands-cli/lib/home"
)

// serveIndex returns a test server offering a fixed catalog.
func serveIndex(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolveRefQualified(t *testing.T) {
	name, marketplace, err := resolveRef("linter@community")
	if err != nil {
		t.Fatalf("resolveRef: %v", err)
	}
	if name != "linter" || marketplace != "community" {
		t.Fatalf("got %q @ %q", name, marketplace)
	}

	if _, _, err := resolveRef("@community"); err == nil {
		t.Error("empty plugin name accepted")
	}
	if _, _, err := resolveRef("linter@"); err == nil {
		t.Error("empty marketplace name accepted")
	}
}

func TestResolveRefFromCatalogs(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	first := serveIndex(t, `{"name":"first","plugins":[{"name":"linter","version":"1.0.0"}]}`)
	second := serveIndex(t, `{"name":"second","plugins":[{"name":"linter","version":"2.0.0"},{"name":"fmt","version":"0.1.0"}]}`)

	if _, err := marketplaces().Add(first.URL, "first"); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := marketplaces().Add(second.URL, "second"); err != nil {
		t.Fatalf("add second: %v", err)
	}

	// Unique across catalogs resolves.
	name, marketplace, err := resolveRef("fmt")
	if err != nil {
		t.Fatalf("resolveRef fmt: %v", err)
	}
	if name != "fmt" || marketplace != "second" {
		t.Fatalf("got %q @ %q", name, marketplace)
	}

	// Offered by both: must be qualified.
	_, _, err = resolveRef("linter")
	if err == nil || !strings.Contains(err.Error(), "first, second") {
		t.Fatalf("ambiguous resolve err = %v", err)
	}

	// Unknown everywhere.
	if _, _, err := resolveRef("nonesuch"); err == nil {
		t.Error("unknown plugin resolved")
	}
}

func TestInstallEnableFlow(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	catalog := serveIndex(t, `{"name":"tools","plugins":[{"name":"fmt","version":"0.1.0","description":"formatting helper"}]}`)
	if _, err := marketplaces().Add(catalog.URL, "tools"); err != nil {
		t.Fatalf("add marketplace: %v", err)
	}

	command := Command()
	if err := command.Execute([]string{"install", "fmt"}); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := command.Execute([]string{"disable", "fmt"}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	installed, err := registry().List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(installed) != 1 || installed[0].Name != "fmt" || installed[0].Enabled {
		t.Fatalf("installed = %+v", installed)
	}

	if err := command.Execute([]string{"uninstall", "fmt"}); err != nil {
		t.Fatalf("uninstall: %v", err)
	}
}

func TestInstallVersionMismatch(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	catalog := serveIndex(t, `{"name":"tools","plugins":[{"name":"fmt","version":"0.1.0"}]}`)
	if _, err := marketplaces().Add(catalog.URL, "tools"); err != nil {
		t.Fatalf("add marketplace: %v", err)
	}

	err := Command().Execute([]string{"install", "--version", "9.9.9", "fmt"})
	if err == nil || !strings.Contains(err.Error(), "0.1.0") {
		t.Fatalf("err = %v", err)
	}

	// The mismatched install must not linger.
	installed, listErr := registry().List()
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(installed) != 0 {
		t.Fatalf("installed = %+v", installed)
	}
}
