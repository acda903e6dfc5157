// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"testing"

	"github.com/openhands/openhands-cli/lib/home"
	"github.com/openhands/openhands-cli/lib/settings"
)

func TestBuildServerStdio(t *testing.T) {
	server, err := buildServer("npx", []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"}, "", nil)
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	if server.Transport != "stdio" || server.Command != "npx" {
		t.Fatalf("server = %+v", server)
	}
	if len(server.Args) != 3 || server.Args[0] != "-y" {
		t.Fatalf("args = %v", server.Args)
	}
}

func TestBuildServerInfersHTTP(t *testing.T) {
	server, err := buildServer("https://mcp.example.com/rpc", nil, "", nil)
	if err != nil {
		t.Fatalf("buildServer: %v", err)
	}
	if server.Transport != "http" || server.URL != "https://mcp.example.com/rpc" {
		t.Fatalf("server = %+v", server)
	}
}

func TestBuildServerRejectsMismatches(t *testing.T) {
	if _, err := buildServer("https://mcp.example.com", nil, "stdio", nil); err == nil {
		t.Error("stdio transport accepted a URL")
	}
	if _, err := buildServer("npx", nil, "sse", nil); err == nil {
		t.Error("sse transport accepted a command")
	}
	if _, err := buildServer("https://x.test", []string{"extra"}, "http", nil); err == nil {
		t.Error("http transport accepted trailing arguments")
	}
	if _, err := buildServer("npx", nil, "carrier-pigeon", nil); err == nil {
		t.Error("unknown transport accepted")
	}
}

func TestParseEnvPairs(t *testing.T) {
	env, err := parseEnvPairs([]string{"A=1", "B=x=y"})
	if err != nil {
		t.Fatalf("parseEnvPairs: %v", err)
	}
	if env["A"] != "1" || env["B"] != "x=y" {
		t.Fatalf("env = %v", env)
	}
	if _, err := parseEnvPairs([]string{"NOEQUALS"}); err == nil {
		t.Error("missing = accepted")
	}
}

func TestAddListRemoveRoundtrip(t *testing.T) {
	t.Setenv(home.EnvRoot, t.TempDir())

	command := Command()
	if err := command.Execute([]string{"add", "--transport", "sse", "search", "https://mcp.example.com/sse"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := command.Execute([]string{"add", "fs", "npx", "-y", "server-fs"}); err != nil {
		t.Fatalf("add stdio: %v", err)
	}

	config, err := settings.LoadMCP(home.MCPFile())
	if err != nil {
		t.Fatalf("LoadMCP: %v", err)
	}
	if len(config.Servers) != 2 {
		t.Fatalf("servers = %v", config.Servers)
	}
	if config.Servers["search"].URL != "https://mcp.example.com/sse" {
		t.Fatalf("search = %+v", config.Servers["search"])
	}
	if config.Servers["fs"].Command != "npx" {
		t.Fatalf("fs = %+v", config.Servers["fs"])
	}

	if err := command.Execute([]string{"remove", "fs"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	config, err = settings.LoadMCP(home.MCPFile())
	if err != nil {
		t.Fatalf("LoadMCP after remove: %v", err)
	}
	if _, ok := config.Servers["fs"]; ok {
		t.Fatal("fs still present after remove")
	}

	if err := command.Execute([]string{"remove", "fs"}); err == nil {
		t.Fatal("removing a missing server succeeded")
	}
}
