// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp implements "openhands mcp": managing the MCP server
// definitions passed to the agent engine.
package mcp

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/home"
	"github.com/openhands/openhands-cli/lib/settings"
)

// Command returns the top-level "mcp" command.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Summary: "Manage MCP servers available to the agent",
		Description: `Manage Model Context Protocol (MCP) server definitions.

Definitions are stored in mcp.json under the OpenHands state
directory and passed to the agent engine at conversation start. The
file may be hand-edited; comments and trailing commas are tolerated.`,
		Subcommands: []*cli.Command{
			addCommand(),
			removeCommand(),
			listCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Add a stdio server run via npx",
				Command:     "openhands mcp add filesystem npx -y @modelcontextprotocol/server-filesystem /tmp",
			},
			{
				Description: "Add a remote server over SSE",
				Command:     "openhands mcp add --transport sse search https://mcp.example.com/sse",
			},
		},
	}
}

func addCommand() *cli.Command {
	var transport string
	var envPairs []string

	return &cli.Command{
		Name:    "add",
		Summary: "Add or replace an MCP server definition",
		Description: `Add an MCP server.

The target is either a command line (stdio transport) or an http(s)
URL (http or sse transport). The transport is inferred from the
target unless --transport is given. Flags come before the name so
the server command's own flags pass through untouched.`,
		Usage: "openhands mcp add [--transport {stdio,http,sse}] [--env K=V]... <name> <url-or-command> [args...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("add", pflag.ContinueOnError)
			// Stop at the first positional so "-y" and friends in the
			// server command line are not eaten as our flags.
			flagSet.SetInterspersed(false)
			flagSet.StringVar(&transport, "transport", "", "transport: stdio, http, or sse (default: inferred)")
			flagSet.StringArrayVar(&envPairs, "env", nil, "environment variable for the server process (K=V, repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return &cli.UsageError{Message: "expected a server name and a url or command"}
			}
			server, err := buildServer(args[1], args[2:], transport, envPairs)
			if err != nil {
				return err
			}

			config, err := settings.LoadMCP(home.MCPFile())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(home.Root(), 0o755); err != nil {
				return err
			}
			config.Servers[args[0]] = server
			if err := settings.SaveMCP(home.MCPFile(), config); err != nil {
				return err
			}
			fmt.Printf("added MCP server %s (%s)\n", args[0], server.Transport)
			return nil
		},
	}
}

// buildServer validates the target against the requested transport.
func buildServer(target string, extraArgs []string, transport string, envPairs []string) (settings.MCPServer, error) {
	var server settings.MCPServer

	env, err := parseEnvPairs(envPairs)
	if err != nil {
		return server, err
	}
	server.Env = env

	isURL := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
	if transport == "" {
		if isURL {
			transport = "http"
		} else {
			transport = "stdio"
		}
	}

	switch transport {
	case "stdio":
		if isURL {
			return server, fmt.Errorf("stdio transport needs a command, not a URL")
		}
		server.Command = target
		server.Args = extraArgs
	case "http", "sse":
		if !isURL {
			return server, fmt.Errorf("%s transport needs an http(s) URL", transport)
		}
		if len(extraArgs) > 0 {
			return server, fmt.Errorf("unexpected arguments after URL: %s", strings.Join(extraArgs, " "))
		}
		server.URL = target
	default:
		return server, &cli.UsageError{Message: fmt.Sprintf("unknown transport %q (want stdio, http, or sse)", transport)}
	}
	server.Transport = transport
	return server, nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q (want K=V)", pair)
		}
		env[key] = value
	}
	return env, nil
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Summary: "Remove an MCP server definition",
		Usage:   "openhands mcp remove <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one server name"}
			}
			config, err := settings.LoadMCP(home.MCPFile())
			if err != nil {
				return err
			}
			if _, ok := config.Servers[args[0]]; !ok {
				return fmt.Errorf("no MCP server named %q", args[0])
			}
			delete(config.Servers, args[0])
			if err := settings.SaveMCP(home.MCPFile(), config); err != nil {
				return err
			}
			fmt.Printf("removed MCP server %s\n", args[0])
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List configured MCP servers",
		Run: func(args []string) error {
			if len(args) != 0 {
				return &cli.UsageError{Message: "list takes no arguments"}
			}
			config, err := settings.LoadMCP(home.MCPFile())
			if err != nil {
				return err
			}
			if len(config.Servers) == 0 {
				fmt.Println("no MCP servers configured")
				return nil
			}

			names := make([]string, 0, len(config.Servers))
			for name := range config.Servers {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTRANSPORT\tTARGET")
			for _, name := range names {
				server := config.Servers[name]
				target := server.URL
				if server.Command != "" {
					target = strings.TrimSpace(server.Command + " " + strings.Join(server.Args, " "))
				}
				transport := server.Transport
				if transport == "" {
					if server.URL != "" {
						transport = "http"
					} else {
						transport = "stdio"
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, transport, target)
			}
			return tw.Flush()
		},
	}
}
