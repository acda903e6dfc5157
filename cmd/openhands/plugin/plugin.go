// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin implements the "openhands plugin" CLI subcommands:
// marketplace management plus installing, enabling, and searching
// plugins from fetched marketplace catalogs.
package plugin

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/home"
	"github.com/openhands/openhands-cli/lib/plugin"
)

// Command returns the top-level "plugin" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "plugin",
		Summary: "Manage plugins and plugin marketplaces",
		Description: `Manage OpenHands plugins.

Plugins come from marketplaces: JSON catalogs fetched over HTTP and
cached locally. Register a marketplace first, then install plugins
from it by name. Enabled plugins are loaded into every conversation.`,
		Subcommands: []*cli.Command{
			marketplaceCommand(),
			installCommand(),
			uninstallCommand(),
			listCommand(),
			enableCommand(true),
			enableCommand(false),
			infoCommand(),
			searchCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Register the official marketplace",
				Command:     "openhands plugin marketplace add openhands/plugins",
			},
			{
				Description: "Install a plugin from it",
				Command:     "openhands plugin install code-review",
			},
			{
				Description: "Find plugins across all marketplaces",
				Command:     "openhands plugin search lint",
			},
		},
	}
}

func marketplaces() *plugin.Marketplaces {
	return plugin.NewMarketplaces(home.MarketplacesFile(), home.MarketplaceCacheDir())
}

func registry() *plugin.Registry {
	return plugin.NewRegistry(home.PluginsFile(), marketplaces())
}

func marketplaceCommand() *cli.Command {
	return &cli.Command{
		Name:    "marketplace",
		Summary: "Manage plugin marketplaces",
		Subcommands: []*cli.Command{
			marketplaceAddCommand(),
			marketplaceRemoveCommand(),
			marketplaceListCommand(),
			marketplaceUpdateCommand(),
		},
	}
}

func marketplaceAddCommand() *cli.Command {
	var name string

	return &cli.Command{
		Name:    "add",
		Summary: "Register a marketplace and fetch its catalog",
		Description: `Register a plugin marketplace.

Sources: "owner/repo" or "github:owner/repo" for GitHub repositories
(the catalog is fetched from marketplace.json on the main branch), or
a direct http(s) URL to a catalog file.`,
		Usage: "openhands plugin marketplace add <source> [--name NAME]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("add", pflag.ContinueOnError)
			flagSet.StringVar(&name, "name", "", "marketplace name (default: derived from the source)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one marketplace source"}
			}
			added, err := marketplaces().Add(args[0], name)
			if err != nil {
				return err
			}
			index, _ := marketplaces().CachedIndex(added.Name)
			fmt.Printf("added marketplace %s (%s, %d plugins)\n", added.Name, added.Source, len(index.Plugins))
			return nil
		},
	}
}

func marketplaceRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:    "remove",
		Summary: "Remove a marketplace and its cached catalog",
		Usage:   "openhands plugin marketplace remove <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one marketplace name"}
			}
			if err := marketplaces().Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed marketplace %s\n", args[0])
			return nil
		},
	}
}

func marketplaceListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List registered marketplaces",
		Run: func(args []string) error {
			if len(args) != 0 {
				return &cli.UsageError{Message: "list takes no arguments"}
			}
			entries, err := marketplaces().List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no marketplaces registered")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tPLUGINS\tUPDATED")
			for _, entry := range entries {
				index, _ := marketplaces().CachedIndex(entry.Name)
				updated := "never"
				if !entry.LastUpdated.IsZero() {
					updated = entry.LastUpdated.Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", entry.Name, entry.Source, len(index.Plugins), updated)
			}
			return tw.Flush()
		},
	}
}

func marketplaceUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:    "update",
		Summary: "Refetch marketplace catalogs",
		Usage:   "openhands plugin marketplace update [name]",
		Run: func(args []string) error {
			if len(args) > 1 {
				return &cli.UsageError{Message: "expected at most one marketplace name"}
			}

			var names []string
			if len(args) == 1 {
				names = args
			} else {
				entries, err := marketplaces().List()
				if err != nil {
					return err
				}
				for _, entry := range entries {
					names = append(names, entry.Name)
				}
				if len(names) == 0 {
					fmt.Println("no marketplaces registered")
					return nil
				}
			}

			var failed int
			for _, name := range names {
				index, err := marketplaces().Update(name)
				if err != nil {
					fmt.Fprintf(os.Stderr, "updating %s: %v\n", name, err)
					failed++
					continue
				}
				fmt.Printf("updated %s (%d plugins)\n", name, len(index.Plugins))
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func installCommand() *cli.Command {
	var wantVersion string

	return &cli.Command{
		Name:    "install",
		Summary: "Install a plugin from a marketplace",
		Usage:   "openhands plugin install <name[@marketplace]> [--version V]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("install", pflag.ContinueOnError)
			flagSet.StringVar(&wantVersion, "version", "", "require this plugin version")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one plugin name"}
			}
			pluginName, marketplaceName, err := resolveRef(args[0])
			if err != nil {
				return err
			}

			installed, err := registry().Install(marketplaceName, pluginName)
			if err != nil {
				return err
			}
			if wantVersion != "" && installed.Version != wantVersion {
				_ = registry().Uninstall(pluginName)
				return fmt.Errorf("%s offers %s version %s, not %s",
					marketplaceName, pluginName, installed.Version, wantVersion)
			}
			fmt.Printf("installed %s %s from %s\n", pluginName, installed.Version, marketplaceName)
			return nil
		},
	}
}

func uninstallCommand() *cli.Command {
	return &cli.Command{
		Name:    "uninstall",
		Summary: "Remove an installed plugin",
		Usage:   "openhands plugin uninstall <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one plugin name"}
			}
			if err := registry().Uninstall(args[0]); err != nil {
				return err
			}
			fmt.Printf("uninstalled %s\n", args[0])
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var onlyEnabled, onlyDisabled bool

	return &cli.Command{
		Name:    "list",
		Summary: "List installed plugins",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.BoolVar(&onlyEnabled, "enabled", false, "show only enabled plugins")
			flagSet.BoolVar(&onlyDisabled, "disabled", false, "show only disabled plugins")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return &cli.UsageError{Message: "list takes no arguments"}
			}
			if onlyEnabled && onlyDisabled {
				return &cli.UsageError{Message: "--enabled and --disabled are mutually exclusive"}
			}
			installed, err := registry().List()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMARKETPLACE\tVERSION\tSTATE")
			shown := 0
			for _, entry := range installed {
				if (onlyEnabled && !entry.Enabled) || (onlyDisabled && entry.Enabled) {
					continue
				}
				state := "enabled"
				if !entry.Enabled {
					state = "disabled"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Name, entry.Marketplace, entry.Version, state)
				shown++
			}
			if shown == 0 {
				fmt.Println("no matching plugins installed")
				return nil
			}
			return tw.Flush()
		},
	}
}

func enableCommand(enable bool) *cli.Command {
	name, summary, past := "enable", "Enable an installed plugin", "enabled"
	if !enable {
		name, summary, past = "disable", "Disable an installed plugin without removing it", "disabled"
	}
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   "openhands plugin " + name + " <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one plugin name"}
			}
			if err := registry().SetEnabled(args[0], enable); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", past, args[0])
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Summary: "Show an installed plugin's marketplace definition",
		Usage:   "openhands plugin info <name>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one plugin name"}
			}
			installed, definition, err := registry().Describe(args[0])
			if err != nil {
				return err
			}

			state := "enabled"
			if !installed.Enabled {
				state = "disabled"
			}
			fmt.Printf("%s %s (%s, from %s)\n", installed.Name, definition.Version, state, installed.Marketplace)
			if definition.Description != "" {
				fmt.Println(definition.Description)
			}
			if len(definition.Triggers) > 0 {
				fmt.Printf("triggers: %s\n", strings.Join(definition.Triggers, ", "))
			}
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	var marketplaceFilter string

	return &cli.Command{
		Name:    "search",
		Summary: "Search plugins across marketplace catalogs",
		Usage:   "openhands plugin search <query> [--marketplace M]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			flagSet.StringVar(&marketplaceFilter, "marketplace", "", "search only this marketplace")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return &cli.UsageError{Message: "expected exactly one search query"}
			}
			results, err := registry().Search(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMARKETPLACE\tVERSION\tDESCRIPTION")
			shown := 0
			for _, result := range results {
				if marketplaceFilter != "" && result.Marketplace != marketplaceFilter {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					result.Definition.Name, result.Marketplace, result.Definition.Version, result.Definition.Description)
				shown++
			}
			if shown == 0 {
				fmt.Println("no plugins matched")
				return nil
			}
			return tw.Flush()
		},
	}
}

// resolveRef splits "name[@marketplace]" and, when the marketplace
// part is missing, resolves it from the cached catalogs. Ambiguous
// names (offered by several marketplaces) must be qualified.
func resolveRef(ref string) (pluginName, marketplaceName string, err error) {
	if at := strings.LastIndex(ref, "@"); at >= 0 {
		pluginName, marketplaceName = ref[:at], ref[at+1:]
		if pluginName == "" || marketplaceName == "" {
			return "", "", fmt.Errorf("invalid plugin reference %q (want name[@marketplace])", ref)
		}
		return pluginName, marketplaceName, nil
	}

	entries, err := marketplaces().List()
	if err != nil {
		return "", "", err
	}
	var offering []string
	for _, entry := range entries {
		index, ok := marketplaces().CachedIndex(entry.Name)
		if !ok {
			continue
		}
		for _, definition := range index.Plugins {
			if definition.Name == ref {
				offering = append(offering, entry.Name)
				break
			}
		}
	}

	switch len(offering) {
	case 0:
		return "", "", fmt.Errorf("no marketplace offers %q (try: openhands plugin marketplace update)", ref)
	case 1:
		return ref, offering[0], nil
	default:
		sort.Strings(offering)
		return "", "", fmt.Errorf("%q is offered by %s; qualify as %s@<marketplace>",
			ref, strings.Join(offering, ", "), ref)
	}
}
