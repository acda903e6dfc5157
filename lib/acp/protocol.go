// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package acp

import (
	"encoding/json"
	"io"
	"sync"
)

// protocolVersion is the ACP major version this adapter implements.
// The adapter answers initialize with min(client version, this) so the
// pair settles on a version both sides speak.
const protocolVersion = 1

// JSON-RPC 2.0 standard error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// codeAuthRequired is the ACP-defined error for methods called before
// authentication on agents that require it. This adapter never emits
// it (no auth methods), but clients may probe for it.
const codeAuthRequired = -32000

// request is a JSON-RPC 2.0 request or notification. Notifications
// carry no ID and receive no response.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool {
	return len(r.ID) == 0
}

// response is a JSON-RPC 2.0 response. Exactly one of Result or Error
// is set.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// notification is an outbound JSON-RPC 2.0 notification.
type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcError is a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// wire serializes all outbound writes. Responses and notifications are
// produced from concurrent handler goroutines; each JSON document must
// land on its own line without interleaving.
type wire struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWire(output io.Writer) *wire {
	return &wire{encoder: json.NewEncoder(output)}
}

func (w *wire) writeResult(id json.RawMessage, result any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(response{JSONRPC: "2.0", ID: id, Result: result})
}

func (w *wire) writeError(id json.RawMessage, code int, message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

func (w *wire) writeNotification(method string, params any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(notification{JSONRPC: "2.0", Method: method, Params: params})
}
