// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"fmt"
	"path"
	"strings"
)

// Source identifies where a marketplace index comes from.
type Source struct {
	// Type is "github", "git", or "url".
	Type string `json:"source"`

	// Repo is "owner/repo" for github sources.
	Repo string `json:"repo,omitempty"`

	// URL is set for git and url sources.
	URL string `json:"url,omitempty"`
}

func (source Source) String() string {
	if source.Type == "github" && source.Repo != "" {
		return "github:" + source.Repo
	}
	if source.URL != "" {
		return source.URL
	}
	return source.Type + ":" + source.Repo
}

// FetchURL resolves the HTTP URL serving the marketplace index.
// GitHub sources assume marketplace.json at the repository root on
// the main branch. Git sources would need a clone and are rejected.
func (source Source) FetchURL() (string, error) {
	switch source.Type {
	case "url":
		if source.URL != "" {
			return source.URL, nil
		}
	case "github":
		if source.Repo != "" {
			return fmt.Sprintf("https://raw.githubusercontent.com/%s/main/marketplace.json", source.Repo), nil
		}
	case "git":
		return "", fmt.Errorf("git repositories require cloning; use a GitHub repo or a direct URL instead")
	}
	return "", fmt.Errorf("cannot fetch from source %s", source)
}

// ParseSource interprets a marketplace source string and derives a
// default marketplace name from it.
//
// Accepted forms:
//
//	owner/repo                          GitHub shorthand
//	github:owner/repo                   explicit GitHub
//	https://host/org/plugins.git        git URL
//	https://host/path/marketplace.json  direct index URL
func ParseSource(raw string) (name string, source Source) {
	if repo, ok := strings.CutPrefix(raw, "github:"); ok {
		return strings.ReplaceAll(repo, "/", "-"), Source{Type: "github", Repo: repo}
	}

	if strings.HasSuffix(raw, ".git") {
		base := path.Base(strings.TrimSuffix(raw, ".git"))
		if base == "." || base == "/" {
			base = "unknown"
		}
		return base, Source{Type: "git", URL: raw}
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		base := strings.TrimSuffix(path.Base(raw), ".json")
		if base == "." || base == "/" {
			base = "unknown"
		}
		return base, Source{Type: "url", URL: raw}
	}

	if parts := strings.Split(raw, "/"); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return strings.ReplaceAll(raw, "/", "-"), Source{Type: "github", Repo: raw}
	}

	// Anything else is treated as a URL and fails at fetch time with a
	// clear error rather than here.
	return raw, Source{Type: "url", URL: raw}
}
