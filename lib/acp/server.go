// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/openhands/openhands-cli/lib/agent"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/settings"
	"github.com/openhands/openhands-cli/lib/version"
)

// ServerConfig configures the ACP adapter.
type ServerConfig struct {
	// ConversationsRoot is where trajectories are stored.
	ConversationsRoot string

	// WorkDir is the default working directory for new sessions when
	// the client supplies none.
	WorkDir string

	// Driver spawns engine processes. Defaults to the production
	// EngineDriver.
	Driver agent.Driver

	// Model, BaseURL, and MCPConfigFile seed new sessions' engine
	// configuration.
	Model         string
	BaseURL       string
	MCPConfigFile string

	// ConfirmationMode is the initial mode for new sessions.
	ConfirmationMode agent.ConfirmationMode

	Logger *slog.Logger
}

// Server bridges ACP editor sessions to engine conversations over
// JSON-RPC 2.0 on newline-delimited stdio.
type Server struct {
	config ServerConfig
	wire   *wire

	mu          sync.Mutex
	initialized bool
	sessions    map[string]*session

	handlers sync.WaitGroup
}

// session is one editor session bound to one conversation.
type session struct {
	id         string
	translator *translator

	mu           sync.Mutex
	conversation *agent.Conversation
	driverConfig agent.DriverConfig
	cancelled    bool

	// usage is the most recent turn's usage meta, attached to every
	// session/update so editors can display running totals.
	usage map[string]any
}

// NewServer creates an ACP server. Defaults are filled in for any
// zero-value config fields.
func NewServer(config ServerConfig) *Server {
	if config.Driver == nil {
		config.Driver = &agent.EngineDriver{}
	}
	if config.ConfirmationMode == "" {
		config.ConfirmationMode = agent.ConfirmNever
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		config:   config,
		sessions: make(map[string]*session),
	}
}

// Serve runs the adapter on the process's stdin and stdout.
func (s *Server) Serve(ctx context.Context) error {
	return s.Run(ctx, os.Stdin, os.Stdout)
}

// Run processes JSON-RPC requests from input until EOF. Prompt turns
// run in their own goroutines so cancellation notifications are
// handled while a turn streams.
func (s *Server) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	s.wire = newWire(output)

	scanner := bufio.NewScanner(input)
	// Embedded-context prompts can be large.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			if writeErr := s.wire.writeError(json.RawMessage("null"), codeParseError, "parse error: "+err.Error()); writeErr != nil {
				return fmt.Errorf("writing parse error response: %w", writeErr)
			}
			continue
		}

		if req.JSONRPC != "2.0" {
			if !req.isNotification() {
				if writeErr := s.wire.writeError(req.ID, codeInvalidRequest, "unsupported JSON-RPC version"); writeErr != nil {
					return fmt.Errorf("writing version error response: %w", writeErr)
				}
			}
			continue
		}

		if req.isNotification() {
			s.handleNotification(&req)
			continue
		}

		if err := s.dispatch(ctx, &req); err != nil {
			return err
		}
	}

	s.handlers.Wait()
	return scanner.Err()
}

// dispatch routes one request. session/prompt is the only
// long-running method; it gets a goroutine.
func (s *Server) dispatch(ctx context.Context, req *request) error {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "authenticate":
		// No auth methods are advertised; accept and move on.
		return s.wire.writeResult(req.ID, map[string]any{})
	case "session/new":
		return s.handleNewSession(req)
	case "session/load":
		return s.handleLoadSession(req)
	case "session/set_mode":
		return s.handleSetMode(req)
	case "session/set_model":
		return s.handleSetModel(req)
	case "session/prompt":
		id := append(json.RawMessage(nil), req.ID...)
		params := append(json.RawMessage(nil), req.Params...)
		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			s.handlePrompt(ctx, id, params)
		}()
		return nil
	default:
		return s.wire.writeError(req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}
}

// handleNotification processes inbound notifications. Only
// session/cancel is meaningful.
func (s *Server) handleNotification(req *request) {
	if req.Method != "session/cancel" {
		return
	}
	var params cancelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return
	}
	sess, ok := s.lookupSession(params.SessionID)
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.cancelled = true
	conv := sess.conversation
	sess.mu.Unlock()

	if conv != nil && conv.Started() {
		if err := conv.Interrupt(); err != nil {
			s.config.Logger.Warn("interrupt failed", "session", params.SessionID, "error", err)
		}
	}
}

func (s *Server) handleInitialize(req *request) error {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.wire.writeError(req.ID, codeInvalidParams, "invalid initialize params: "+err.Error())
		}
	}

	negotiated := protocolVersion
	if params.ProtocolVersion > 0 && params.ProtocolVersion < negotiated {
		negotiated = params.ProtocolVersion
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.config.Logger.Debug("initialized", "clientVersion", params.ProtocolVersion, "version", version.String())

	return s.wire.writeResult(req.ID, initializeResult{
		ProtocolVersion: negotiated,
		AgentCapabilities: agentCapabilities{
			LoadSession: true,
			PromptCapabilities: promptCapabilities{
				EmbeddedContext: true,
			},
			McpCapabilities: mcpCapabilities{HTTP: true, SSE: true},
		},
		AuthMethods: []authMethod{},
	})
}

func (s *Server) requireInitialized(id json.RawMessage) bool {
	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		_ = s.wire.writeError(id, codeInvalidRequest, "server not initialized (call initialize first)")
	}
	return initialized
}

func (s *Server) handleNewSession(req *request) error {
	if !s.requireInitialized(req.ID) {
		return nil
	}

	var params newSessionParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.wire.writeError(req.ID, codeInvalidParams, "invalid session/new params: "+err.Error())
		}
	}

	sess, err := s.createSession(uuid.NewString(), params.Cwd, params.McpServers)
	if err != nil {
		return s.wire.writeError(req.ID, codeInternalError, err.Error())
	}
	s.config.Logger.Info("session created",
		"session", sess.id,
		"cwd", sess.driverConfig.WorkingDirectory,
		"clientMcpServers", len(params.McpServers))

	return s.wire.writeResult(req.ID, newSessionResult{
		SessionID: sess.id,
		Modes:     s.modesFor(sess),
	})
}

func (s *Server) handleLoadSession(req *request) error {
	if !s.requireInitialized(req.ID) {
		return nil
	}

	var params loadSessionParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.wire.writeError(req.ID, codeInvalidParams, "invalid session/load params: "+err.Error())
	}
	if _, err := uuid.Parse(params.SessionID); err != nil {
		return s.wire.writeError(req.ID, codeInvalidParams, "sessionId is not a UUID: "+params.SessionID)
	}

	events, err := conversation.LoadEvents(s.config.ConversationsRoot, params.SessionID)
	if err != nil {
		return s.wire.writeError(req.ID, codeInvalidParams, err.Error())
	}

	sess, err := s.createSession(params.SessionID, params.Cwd, params.McpServers)
	if err != nil {
		return s.wire.writeError(req.ID, codeInternalError, err.Error())
	}

	// Replay the stored trajectory through a throwaway translator so
	// the editor rebuilds the transcript before the result arrives.
	// Stored metrics seed the usage cache instead of producing updates.
	replay := newTranslator()
	for _, event := range events {
		if event.Type == agent.EventTypeMetric {
			if event.Metric != nil {
				sess.setUsage(usageMeta(event.Metric))
			}
			continue
		}
		err := replay.translate(event, func(update any) error {
			return s.sendUpdate(sess.id, update)
		})
		if err != nil {
			return s.wire.writeError(req.ID, codeInternalError, "replaying history: "+err.Error())
		}
	}

	s.config.Logger.Info("session loaded", "session", sess.id, "events", len(events))
	return s.wire.writeResult(req.ID, loadSessionResult{Modes: s.modesFor(sess)})
}

func (s *Server) handleSetMode(req *request) error {
	if !s.requireInitialized(req.ID) {
		return nil
	}

	var params setModeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.wire.writeError(req.ID, codeInvalidParams, "invalid session/set_mode params: "+err.Error())
	}
	sess, ok := s.lookupSession(params.SessionID)
	if !ok {
		return s.wire.writeError(req.ID, codeInvalidParams, "unknown session: "+params.SessionID)
	}

	mode := agent.ConfirmationMode(params.ModeID)
	if !agent.ValidConfirmationMode(mode) {
		return s.wire.writeError(req.ID, codeInvalidParams, "unknown mode: "+params.ModeID)
	}

	sess.mu.Lock()
	conv := sess.conversation
	sess.driverConfig.ConfirmationMode = mode
	sess.mu.Unlock()

	if conv != nil && conv.Started() {
		if err := conv.SetConfirmationMode(mode); err != nil {
			return s.wire.writeError(req.ID, codeInternalError, err.Error())
		}
	}
	return s.wire.writeResult(req.ID, map[string]any{})
}

func (s *Server) handleSetModel(req *request) error {
	if !s.requireInitialized(req.ID) {
		return nil
	}

	var params setModelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.wire.writeError(req.ID, codeInvalidParams, "invalid session/set_model params: "+err.Error())
	}
	sess, ok := s.lookupSession(params.SessionID)
	if !ok {
		return s.wire.writeError(req.ID, codeInvalidParams, "unknown session: "+params.SessionID)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.conversation != nil && sess.conversation.Started() {
		return s.wire.writeError(req.ID, codeInvalidParams, "model changes require a new session once the engine is running")
	}
	sess.driverConfig.Model = params.ModelID
	return s.wire.writeResult(req.ID, map[string]any{})
}

// handlePrompt runs one prompt turn: deliver the message, stream
// translated updates, and respond when the turn's metric arrives.
func (s *Server) handlePrompt(ctx context.Context, id, rawParams json.RawMessage) {
	if !s.requireInitialized(id) {
		return
	}

	var params promptParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		_ = s.wire.writeError(id, codeInvalidParams, "invalid session/prompt params: "+err.Error())
		return
	}
	sess, ok := s.lookupSession(params.SessionID)
	if !ok {
		_ = s.wire.writeError(id, codeInvalidParams, "unknown session: "+params.SessionID)
		return
	}

	text, err := promptText(params.Prompt)
	if err != nil {
		_ = s.wire.writeError(id, codeInvalidParams, err.Error())
		return
	}

	conv, err := s.ensureStarted(ctx, sess)
	if err != nil {
		_ = s.wire.writeError(id, codeInternalError, err.Error())
		return
	}

	sess.mu.Lock()
	sess.cancelled = false
	sess.mu.Unlock()

	if err := conv.SendMessage(text); err != nil {
		_ = s.wire.writeError(id, codeInternalError, err.Error())
		return
	}

	send := func(update any) error {
		return s.sendUpdate(sess.id, update)
	}

	for event := range conv.Events() {
		if event.Type == agent.EventTypeMetric {
			sess.setUsage(usageMeta(event.Metric))

			result := promptResult{StopReason: stopEndTurn}
			if sess.wasCancelled() {
				result.StopReason = stopCancelled
			}
			_ = s.wire.writeResult(id, result)

			_ = s.sendUpdate(sess.id, messageChunkUpdate{
				SessionUpdate: updateAgentThoughtChunk,
				Content:       textBlock(event.Metric.StatusLine()),
			})
			return
		}
		if err := sess.translator.translate(event, send); err != nil {
			s.config.Logger.Warn("update delivery failed", "session", sess.id, "error", err)
			_ = s.wire.writeError(id, codeInternalError, err.Error())
			return
		}
	}

	// The event stream closed without a turn-ending metric: the engine
	// exited. A cancelled turn ending this way is still "cancelled".
	stopReason := stopRefusal
	if sess.wasCancelled() {
		stopReason = stopCancelled
	}
	_ = s.wire.writeResult(id, promptResult{StopReason: stopReason})
}

// createSession registers a fresh session handle.
func (s *Server) createSession(sessionID, cwd string, mcpServers []acpMcpServer) (*session, error) {
	if cwd == "" {
		cwd = s.config.WorkDir
	}
	mcpConfigFile, err := s.mcpConfigFor(sessionID, mcpServers)
	if err != nil {
		return nil, fmt.Errorf("preparing mcp config: %w", err)
	}
	sess := &session{
		id:         sessionID,
		translator: newTranslator(),
		driverConfig: agent.DriverConfig{
			ConversationID:   sessionID,
			WorkingDirectory: cwd,
			ConfirmationMode: s.config.ConfirmationMode,
			Model:            s.config.Model,
			BaseURL:          s.config.BaseURL,
			MCPConfigFile:    mcpConfigFile,
		},
	}
	s.mu.Lock()
	s.sessions[sessionID] = sess
	s.mu.Unlock()
	return sess, nil
}

// mcpConfigFor merges client-supplied MCP servers over the stored
// config, client entries winning on name collisions, and writes the
// result next to the session's trajectory. With no client servers the
// stored config file is used as is.
func (s *Server) mcpConfigFor(sessionID string, mcpServers []acpMcpServer) (string, error) {
	if len(mcpServers) == 0 {
		return s.config.MCPConfigFile, nil
	}

	merged, err := settings.LoadMCP(s.config.MCPConfigFile)
	if err != nil {
		return "", err
	}
	for _, server := range mcpServers {
		merged.Servers[server.Name] = server.agentFormat()
	}

	dir := filepath.Join(s.config.ConversationsRoot, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "mcp.json")
	if err := settings.SaveMCP(path, merged); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) lookupSession(sessionID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// ensureStarted lazily spawns the engine on first prompt, so
// session/new works in editors probing capabilities before the engine
// binary is needed.
func (s *Server) ensureStarted(ctx context.Context, sess *session) (*agent.Conversation, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.conversation != nil && sess.conversation.Started() {
		return sess.conversation, nil
	}

	store, err := conversation.OpenStore(s.config.ConversationsRoot, sess.id)
	if err != nil {
		return nil, err
	}
	conv := agent.NewConversation(s.config.Driver, store, sess.driverConfig)
	if err := conv.Start(ctx); err != nil {
		return nil, err
	}
	sess.conversation = conv
	return conv, nil
}

func (s *Server) modesFor(sess *session) *sessionModes {
	sess.mu.Lock()
	current := string(sess.driverConfig.ConfirmationMode)
	sess.mu.Unlock()
	return &sessionModes{
		CurrentModeID: current,
		AvailableModes: []sessionMode{
			{ID: string(agent.ConfirmAlways), Name: "Always ask", Description: "Confirm every action before it runs"},
			{ID: string(agent.ConfirmNever), Name: "Auto-approve", Description: "Run all actions without asking"},
			{ID: string(agent.ConfirmRisky), Name: "Ask for risky actions", Description: "Confirm only actions judged high risk"},
		},
	}
}

// sendUpdate delivers one session/update, stamping it with the
// session's latest usage meta so every update carries the running
// totals.
func (s *Server) sendUpdate(sessionID string, update any) error {
	params := sessionUpdateParams{
		SessionID: sessionID,
		Update:    update,
	}
	if sess, ok := s.lookupSession(sessionID); ok {
		params.Meta = sess.currentUsage()
	}
	return s.wire.writeNotification("session/update", params)
}

func (sess *session) wasCancelled() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.cancelled
}

func (sess *session) setUsage(meta map[string]any) {
	sess.mu.Lock()
	sess.usage = meta
	sess.mu.Unlock()
}

func (sess *session) currentUsage() map[string]any {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.usage
}
