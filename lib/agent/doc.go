// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent is the boundary to the external conversation engine.
//
// The engine (LLM orchestration, tool execution, confirmation
// enforcement) runs as a separate openhands-agent process that emits
// line-delimited stream-json events on stdout and
// accepts user input as JSON lines on stdin. This package owns the
// driver abstraction for spawning and interrupting that process, the
// typed event union the rest of the CLI consumes, and the Conversation
// handle that pumps engine output into recorded event streams.
//
// Nothing in this package interprets events beyond classification;
// presentation lives in lib/chatui and lib/conversation, protocol
// translation in lib/acp.
package agent
