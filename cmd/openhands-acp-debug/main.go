// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// openhands-acp-debug is an interactive debug client for the ACP
// server. It spawns "openhands acp" (or the command given on the
// command line), relays typed commands as JSON-RPC requests, and
// pretty-prints everything the server sends back.
//
// Commands:
//
//	init              send initialize
//	new [cwd]         create a session
//	load <sessionId>  load a stored session
//	prompt <text>     send a prompt to the current session
//	raw <json>        send a raw JSON-RPC message
//	quit              exit
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type debugClient struct {
	stdin     io.Writer
	nextID    atomic.Int64
	sessionID atomic.Pointer[string]
}

func run(args []string) error {
	command := []string{"openhands", "acp"}
	if len(args) > 0 {
		command = args
	}

	server := exec.Command(command[0], command[1:]...)
	server.Stderr = os.Stderr
	stdin, err := server.StdinPipe()
	if err != nil {
		return fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := server.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", strings.Join(command, " "), err)
	}
	fmt.Printf("ACP server started (pid %d). Type 'init' to begin, 'quit' to exit.\n", server.Process.Pid)

	client := &debugClient{stdin: stdin}

	// Background reader: print every server line as it arrives.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		client.readResponses(stdout)
	}()

	input := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("acp> ")
		if !input.Scan() {
			break
		}
		line := strings.TrimSpace(input.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		command, rest := fields[0], fields[1:]

		var err error
		switch command {
		case "quit", "exit":
			stdin.Close()
			<-readerDone
			if waitErr := server.Wait(); waitErr != nil {
				fmt.Printf("server exited: %v\n", waitErr)
			}
			return nil
		case "init":
			err = client.sendInit()
		case "new":
			err = client.sendNew(rest)
		case "load":
			err = client.sendLoad(rest)
		case "prompt":
			err = client.sendPrompt(strings.TrimSpace(strings.TrimPrefix(line, "prompt")))
		case "raw":
			err = client.sendRaw(strings.TrimSpace(strings.TrimPrefix(line, "raw")))
		default:
			fmt.Printf("unknown command %q (init, new, load, prompt, raw, quit)\n", command)
			continue
		}
		if err != nil {
			fmt.Printf("send failed: %v (server may have exited)\n", err)
		}
	}

	stdin.Close()
	<-readerDone
	return server.Wait()
}

// readResponses prints each server message, tracking session IDs from
// results so "prompt" can target the latest session.
func (client *debugClient) readResponses(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var message struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Result json.RawMessage `json:"result"`
			Error  *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(line, &message); err != nil {
			fmt.Printf("\n<- unparseable: %s\n", line)
			continue
		}

		switch {
		case message.Error != nil:
			fmt.Printf("\n<- error %d (id %s): %s\n", message.Error.Code, message.ID, message.Error.Message)
		case message.Method != "":
			fmt.Printf("\n<- notification %s\n", message.Method)
		default:
			fmt.Printf("\n<- result (id %s)\n", message.ID)
			var result struct {
				SessionID string `json:"sessionId"`
			}
			if json.Unmarshal(message.Result, &result) == nil && result.SessionID != "" {
				client.sessionID.Store(&result.SessionID)
				fmt.Printf("   session: %s\n", result.SessionID)
			}
		}

		var pretty bytes.Buffer
		if json.Indent(&pretty, line, "   ", "  ") == nil {
			fmt.Printf("   %s\n", pretty.String())
		}
		fmt.Print("acp> ")
	}
	fmt.Println("\nserver closed its output stream")
}

func (client *debugClient) send(message map[string]any) error {
	if _, ok := message["id"]; !ok {
		message["id"] = client.nextID.Add(1)
	}
	message["jsonrpc"] = "2.0"

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	fmt.Printf("-> %s\n", message["method"])
	_, err = client.stdin.Write(append(payload, '\n'))
	return err
}

func (client *debugClient) sendInit() error {
	return client.send(map[string]any{
		"method": "initialize",
		"params": map[string]any{
			"protocolVersion": 1,
			"clientInfo": map[string]any{
				"name":    "openhands-acp-debug",
				"version": "1.0.0",
			},
		},
	})
}

func (client *debugClient) sendNew(args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cwd = args[0]
		if info, err := os.Stat(cwd); err != nil || !info.IsDir() {
			return fmt.Errorf("not a directory: %s", cwd)
		}
	}
	return client.send(map[string]any{
		"method": "session/new",
		"params": map[string]any{"cwd": cwd, "mcpServers": []any{}},
	})
}

func (client *debugClient) sendLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <sessionId>")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	sessionID := args[0]
	client.sessionID.Store(&sessionID)
	return client.send(map[string]any{
		"method": "session/load",
		"params": map[string]any{"sessionId": sessionID, "cwd": cwd, "mcpServers": []any{}},
	})
}

func (client *debugClient) sendPrompt(text string) error {
	if text == "" {
		return fmt.Errorf("usage: prompt <text>")
	}
	session := client.sessionID.Load()
	if session == nil {
		return fmt.Errorf("no active session; use 'new' or 'load' first")
	}
	return client.send(map[string]any{
		"method": "session/prompt",
		"params": map[string]any{
			"sessionId": *session,
			"prompt": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	})
}

func (client *debugClient) sendRaw(payload string) error {
	if payload == "" {
		return fmt.Errorf("usage: raw <json>")
	}
	var message map[string]any
	if err := json.Unmarshal([]byte(payload), &message); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return client.send(message)
}
