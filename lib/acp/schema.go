// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"

	"github.com/openhands/openhands-cli/lib/settings"
)

// initializeParams is the client's initialize request.
type initializeParams struct {
	ProtocolVersion    int             `json:"protocolVersion"`
	ClientCapabilities json.RawMessage `json:"clientCapabilities,omitempty"`
}

// initializeResult declares the adapter's capabilities. AuthMethods is
// always empty; credentials reach the engine through the environment,
// never through the editor.
type initializeResult struct {
	ProtocolVersion   int               `json:"protocolVersion"`
	AgentCapabilities agentCapabilities `json:"agentCapabilities"`
	AuthMethods       []authMethod      `json:"authMethods"`
}

type agentCapabilities struct {
	LoadSession        bool               `json:"loadSession"`
	PromptCapabilities promptCapabilities `json:"promptCapabilities"`
	McpCapabilities    mcpCapabilities    `json:"mcpCapabilities"`
}

// mcpCapabilities: the adapter accepts client-supplied MCP servers of
// every transport; stdio needs no capability bit.
type mcpCapabilities struct {
	HTTP bool `json:"http"`
	SSE  bool `json:"sse"`
}

// promptCapabilities: text and embedded context only. The engine takes
// prompts as text; resource links are flattened by the client.
type promptCapabilities struct {
	Image           bool `json:"image"`
	Audio           bool `json:"audio"`
	EmbeddedContext bool `json:"embeddedContext"`
}

type authMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// newSessionParams is the client's session/new request.
type newSessionParams struct {
	Cwd        string         `json:"cwd"`
	McpServers []acpMcpServer `json:"mcpServers,omitempty"`
}

type newSessionResult struct {
	SessionID string        `json:"sessionId"`
	Modes     *sessionModes `json:"modes,omitempty"`
}

// loadSessionParams is the client's session/load request.
type loadSessionParams struct {
	SessionID  string         `json:"sessionId"`
	Cwd        string         `json:"cwd"`
	McpServers []acpMcpServer `json:"mcpServers,omitempty"`
}

// acpMcpServer is one client-supplied MCP server in session/new or
// session/load. Stdio servers carry a command; http and sse servers
// carry a url with the transport in Type.
type acpMcpServer struct {
	Type    string        `json:"type,omitempty"`
	Name    string        `json:"name"`
	Command string        `json:"command,omitempty"`
	Args    []string      `json:"args,omitempty"`
	Env     []envVariable `json:"env,omitempty"`
	URL     string        `json:"url,omitempty"`
}

type envVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// agentFormat converts the ACP shape to an mcp.json entry: env
// name/value pairs become a map and the transport is made explicit.
func (server acpMcpServer) agentFormat() settings.MCPServer {
	entry := settings.MCPServer{
		Command:   server.Command,
		Args:      server.Args,
		URL:       server.URL,
		Transport: server.Type,
	}
	if entry.Transport == "" {
		if server.Command != "" {
			entry.Transport = "stdio"
		} else if server.URL != "" {
			entry.Transport = "http"
		}
	}
	if len(server.Env) > 0 {
		entry.Env = make(map[string]string, len(server.Env))
		for _, variable := range server.Env {
			entry.Env[variable.Name] = variable.Value
		}
	}
	return entry
}

type loadSessionResult struct {
	Modes *sessionModes `json:"modes,omitempty"`
}

// sessionModes advertises the confirmation policy as ACP session modes
// so editors can render a mode picker.
type sessionModes struct {
	CurrentModeID  string        `json:"currentModeId"`
	AvailableModes []sessionMode `json:"availableModes"`
}

type sessionMode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// setModeParams is the client's session/set_mode request.
type setModeParams struct {
	SessionID string `json:"sessionId"`
	ModeID    string `json:"modeId"`
}

// setModelParams is the client's session/set_model request.
type setModelParams struct {
	SessionID string `json:"sessionId"`
	ModelID   string `json:"modelId"`
}

// promptParams is the client's session/prompt request. Prompt is a
// list of content blocks; text and resource blocks are concatenated.
type promptParams struct {
	SessionID string         `json:"sessionId"`
	Prompt    []contentBlock `json:"prompt"`
}

// promptResult ends a prompt turn.
type promptResult struct {
	StopReason string `json:"stopReason"`
}

// Stop reasons for session/prompt.
const (
	stopEndTurn   = "end_turn"
	stopCancelled = "cancelled"
	stopRefusal   = "refusal"
)

// cancelParams is the session/cancel notification.
type cancelParams struct {
	SessionID string `json:"sessionId"`
}

// contentBlock is an ACP content block. Only the fields this adapter
// produces or consumes are modeled; unknown block types pass through
// as empty text.
type contentBlock struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	URI      string            `json:"uri,omitempty"`
	Resource *embeddedResource `json:"resource,omitempty"`
}

// embeddedResource carries file context inlined by the editor.
type embeddedResource struct {
	URI  string `json:"uri"`
	Text string `json:"text,omitempty"`
}

func textBlock(text string) contentBlock {
	return contentBlock{Type: "text", Text: text}
}

// sessionUpdateParams is the params payload of every session/update
// notification. Update is one of the sessionUpdate* structs; Meta
// carries out-of-band info such as token usage lines.
type sessionUpdateParams struct {
	SessionID string         `json:"sessionId"`
	Update    any            `json:"update"`
	Meta      map[string]any `json:"_meta,omitempty"`
}

// Session update discriminator values.
const (
	updateAgentMessageChunk = "agent_message_chunk"
	updateAgentThoughtChunk = "agent_thought_chunk"
	updateUserMessageChunk  = "user_message_chunk"
	updateToolCall          = "tool_call"
	updateToolCallUpdate    = "tool_call_update"
	updatePlan              = "plan"
)

// messageChunkUpdate carries agent_message_chunk, agent_thought_chunk,
// and user_message_chunk updates.
type messageChunkUpdate struct {
	SessionUpdate string       `json:"sessionUpdate"`
	Content       contentBlock `json:"content"`
}

// toolCallUpdate carries both tool_call (start) and tool_call_update
// notifications; the discriminator distinguishes them.
type toolCallUpdate struct {
	SessionUpdate string           `json:"sessionUpdate"`
	ToolCallID    string           `json:"toolCallId"`
	Title         string           `json:"title,omitempty"`
	Kind          string           `json:"kind,omitempty"`
	Status        string           `json:"status,omitempty"`
	RawInput      json.RawMessage  `json:"rawInput,omitempty"`
	Content       []toolCallOutput `json:"content,omitempty"`
	Locations     []toolLocation   `json:"locations,omitempty"`
}

// Tool call statuses.
const (
	statusPending    = "pending"
	statusInProgress = "in_progress"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// toolCallOutput wraps a content block as tool call result content.
type toolCallOutput struct {
	Type    string       `json:"type"`
	Content contentBlock `json:"content"`
}

func toolTextOutput(text string) toolCallOutput {
	return toolCallOutput{Type: "content", Content: textBlock(text)}
}

// toolLocation points the editor at a file the tool is touching.
type toolLocation struct {
	Path string `json:"path"`
	Line *int   `json:"line,omitempty"`
}

// planUpdate carries plan notifications.
type planUpdate struct {
	SessionUpdate string      `json:"sessionUpdate"`
	Entries       []planEntry `json:"entries"`
}

type planEntry struct {
	Content  string `json:"content"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}
