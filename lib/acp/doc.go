// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package acp implements the Agent Client Protocol adapter.
//
// The adapter speaks JSON-RPC 2.0 over newline-delimited stdio to an
// editor client and bridges each editor session to an engine
// conversation. Inbound methods create, load, and prompt sessions;
// outbound session/update notifications stream message chunks, thought
// chunks, tool call lifecycle, and plan snapshots translated from
// engine events.
package acp
