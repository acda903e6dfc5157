// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"
	"strings"
)

// toolInfo is the editor-facing presentation of a tool call: the ACP
// kind bucket, a human title, and any file locations involved.
type toolInfo struct {
	kind      string
	title     string
	locations []toolLocation
}

// commonArguments covers the argument fields shared by the engine's
// built-in tools. Unknown tools simply leave these empty.
type commonArguments struct {
	Command string `json:"command,omitempty"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
}

// describeToolCall derives editor presentation from a tool name and
// its raw JSON arguments.
func describeToolCall(toolName string, input json.RawMessage, summary string) toolInfo {
	var arguments commonArguments
	if len(input) > 0 {
		// Partial or malformed arguments just produce a thinner title.
		_ = json.Unmarshal(input, &arguments)
	}

	info := toolInfo{kind: "other", title: toolName}

	switch {
	case toolName == "think":
		info.kind = "think"
		info.title = "Thinking"

	case toolName == "terminal" || strings.HasPrefix(toolName, "execute"):
		info.kind = "execute"
		if arguments.Command != "" {
			info.title = arguments.Command
		}

	case strings.HasPrefix(toolName, "browser"):
		info.kind = "fetch"
		if arguments.URL != "" {
			info.title = "Fetching " + arguments.URL
		}

	case toolName == "file_editor" || toolName == "str_replace_editor":
		if arguments.Command == "view" {
			info.kind = "read"
			info.title = "Reading " + displayPath(arguments.Path)
		} else {
			info.kind = "edit"
			info.title = "Editing " + displayPath(arguments.Path)
		}
		if arguments.Path != "" {
			info.locations = []toolLocation{{Path: arguments.Path}}
		}

	case toolName == "task_tracker":
		info.kind = "think"
		info.title = "Plan updated"
	}

	if summary != "" {
		info.title = summary
	}
	return info
}

func displayPath(path string) string {
	if path == "" {
		return "file"
	}
	return path
}
