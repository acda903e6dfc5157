// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat implements the root "openhands" behavior: the
// interactive terminal chat UI, conversation resumption, and the
// headless single-task mode.
package chat

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/openhands/openhands-cli/lib/agent"
	"github.com/openhands/openhands-cli/lib/chatui"
	"github.com/openhands/openhands-cli/lib/cli"
	"github.com/openhands/openhands-cli/lib/conversation"
	"github.com/openhands/openhands-cli/lib/home"
	"github.com/openhands/openhands-cli/lib/settings"
	"github.com/openhands/openhands-cli/lib/version"
)

// options holds the root command's flag values.
type options struct {
	resume        string
	last          bool
	alwaysApprove bool
	llmApprove    bool
	headless      bool
	task          string
	taskFile      string
	showVersion   bool
}

// RootCommand returns the root "openhands" command. Subcommands are
// attached by the commands package; running with no subcommand starts
// the chat UI.
func RootCommand() *cli.Command {
	var opts options
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "openhands",
		Summary: "Chat with the OpenHands agent",
		Description: `OpenHands: AI agent for software development, in your terminal.

Running with no subcommand opens an interactive chat with the agent.
The agent asks for confirmation before executing actions; tune that
with --always-approve or --llm-approve, or /confirm inside the chat.`,
		Usage: "openhands [flags] | openhands <command> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("openhands", pflag.ContinueOnError)
			flagSet.StringVar(&opts.resume, "resume", "", "resume a conversation by id (empty value lists recent conversations)")
			flagSet.BoolVar(&opts.last, "last", false, "resume the most recent conversation")
			flagSet.BoolVar(&opts.alwaysApprove, "always-approve", false, "execute agent actions without asking")
			flagSet.BoolVar(&opts.llmApprove, "llm-approve", false, "ask only for actions the agent judges risky")
			flagSet.BoolVar(&opts.headless, "headless", false, "run one task without the UI and exit")
			flagSet.StringVar(&opts.task, "task", "", "task text for headless mode")
			flagSet.StringVar(&opts.taskFile, "file", "", "file containing the task for headless mode")
			flagSet.BoolVarP(&opts.showVersion, "version", "v", false, "print version and exit")
			return flagSet
		},
		Run: func(args []string) error {
			resumeGiven := flagSet != nil && flagSet.Changed("resume")
			return run(opts, resumeGiven, args)
		},
	}
}

func run(opts options, resumeGiven bool, args []string) error {
	if opts.showVersion {
		fmt.Printf("openhands %s\n", version.String())
		return nil
	}
	if len(args) > 0 {
		return &cli.UsageError{Message: fmt.Sprintf("unexpected argument %q", args[0])}
	}
	if opts.alwaysApprove && opts.llmApprove {
		return &cli.UsageError{Message: "--always-approve and --llm-approve are mutually exclusive"}
	}

	config, err := settings.Load(home.SettingsFile())
	if err != nil {
		return err
	}

	mode := config.ConfirmationMode
	switch {
	case opts.alwaysApprove:
		mode = agent.ConfirmNever
	case opts.llmApprove:
		mode = agent.ConfirmRisky
	}

	if opts.headless {
		return runHeadless(opts, config, mode)
	}

	// Bare --resume lists stored conversations instead of starting one.
	if resumeGiven && opts.resume == "" && !opts.last {
		return listConversations()
	}

	conversationID, primed, err := resolveConversation(opts, resumeGiven)
	if err != nil {
		return err
	}

	// Engine processes live under this context; cancelling it on the
	// way out reaps anything still running.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conv, err := startConversation(ctx, config, conversationID, mode)
	if err != nil {
		return err
	}

	model := chatui.New(conv, switchFunc(ctx, config, mode))
	if primed != nil {
		model.Prime(primed)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat UI: %w", err)
	}
	cancel()
	// /new or /resume may have swapped the conversation; abandoned
	// ones were already reaped at switch time.
	_ = model.Conversation().Wait()
	return nil
}

// resolveConversation picks the conversation ID to start and, when
// resuming, loads the stored history for transcript priming.
func resolveConversation(opts options, resumeGiven bool) (string, []agent.Event, error) {
	conversationID := ""
	switch {
	case opts.last:
		latest, err := conversation.LatestID(home.ConversationsDir())
		if err != nil {
			return "", nil, err
		}
		if latest == "" {
			return "", nil, fmt.Errorf("no stored conversations to resume")
		}
		conversationID = latest
	case resumeGiven && opts.resume != "":
		if _, err := uuid.Parse(opts.resume); err != nil {
			return "", nil, fmt.Errorf("invalid conversation id %q: %w", opts.resume, err)
		}
		conversationID = opts.resume
	default:
		return uuid.NewString(), nil, nil
	}

	events, err := conversation.LoadEvents(home.ConversationsDir(), conversationID)
	if err != nil {
		return "", nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
	}
	return conversationID, events, nil
}

// startConversation opens the event store and spawns the engine.
func startConversation(ctx context.Context, config settings.Settings, conversationID string, mode agent.ConfirmationMode) (*agent.Conversation, error) {
	store, err := conversation.OpenStore(home.ConversationsDir(), conversationID)
	if err != nil {
		return nil, err
	}

	conv := agent.NewConversation(&agent.EngineDriver{}, store, agent.DriverConfig{
		ConversationID:   conversationID,
		WorkingDirectory: home.WorkDir(),
		ConfirmationMode: mode,
		Model:            config.Model,
		BaseURL:          config.BaseURL,
		MCPConfigFile:    mcpConfigFile(),
		ExtraEnv:         config.APIKeyEnvironment(),
	})
	if err := conv.Start(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// switchFunc lets the chat UI swap conversations for /new and
// /resume. Resuming loads the stored history so the UI can replay it.
func switchFunc(ctx context.Context, config settings.Settings, mode agent.ConfirmationMode) chatui.SwitchFunc {
	return func(conversationID string) (*agent.Conversation, []agent.Event, error) {
		var history []agent.Event
		if conversationID == "" {
			conversationID = uuid.NewString()
		} else {
			if _, err := uuid.Parse(conversationID); err != nil {
				return nil, nil, fmt.Errorf("invalid conversation id %q: %w", conversationID, err)
			}
			events, err := conversation.LoadEvents(home.ConversationsDir(), conversationID)
			if err != nil {
				return nil, nil, fmt.Errorf("loading conversation %s: %w", conversationID, err)
			}
			history = events
		}
		conv, err := startConversation(ctx, config, conversationID, mode)
		if err != nil {
			return nil, nil, err
		}
		return conv, history, nil
	}
}

// mcpConfigFile returns the stored MCP config path, or empty when the
// user never configured any servers.
func mcpConfigFile() string {
	path := home.MCPFile()
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func listConversations() error {
	infos, err := conversation.List(home.ConversationsDir())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("no stored conversations")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEVENTS\tFIRST PROMPT")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			info.ID, info.CreatedAt.Format(time.DateTime), info.EventCount, info.FirstUserPrompt)
	}
	return tw.Flush()
}

// runHeadless runs a single task to completion without the UI,
// streaming rendered events to stdout.
func runHeadless(opts options, config settings.Settings, mode agent.ConfirmationMode) error {
	task := strings.TrimSpace(opts.task)
	if opts.taskFile != "" {
		if task != "" {
			return &cli.UsageError{Message: "--task and --file are mutually exclusive"}
		}
		payload, err := os.ReadFile(opts.taskFile)
		if err != nil {
			return fmt.Errorf("reading task file: %w", err)
		}
		task = strings.TrimSpace(string(payload))
	}
	if task == "" {
		return &cli.UsageError{Message: "--headless requires --task or --file"}
	}

	// Nobody is watching to answer confirmation prompts. Unless the
	// user explicitly chose risky-only prompting, approve everything.
	if mode == agent.ConfirmAlways {
		mode = agent.ConfirmNever
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conv, err := startConversation(ctx, config, uuid.NewString(), mode)
	if err != nil {
		return err
	}
	if err := conv.SendMessage(task); err != nil {
		return err
	}

	visualizer := headlessVisualizer()
	done := false
	for !done {
		select {
		case <-ctx.Done():
			done = true
		case event, ok := <-conv.Events():
			if !ok {
				done = true
				break
			}
			if event.Type == agent.EventTypeSystem && event.System.Subtype == agent.SystemAwaitConfirmation {
				// Risky action under --llm-approve with no operator
				// present: approve and keep going.
				fmt.Println("auto-approving: " + event.System.Message)
				if err := conv.Decide(agent.DecisionApprove); err != nil {
					return err
				}
				continue
			}
			if block := visualizer.RenderEvent(event); block != "" {
				fmt.Println(block)
			}
			if event.Type == agent.EventTypeMetric {
				done = true
			}
		}
	}

	// The engine waits for more input after a turn; cancelling the
	// context is the shutdown path, so the kill from Wait is expected.
	stop()
	_ = conv.Wait()
	return nil
}

// headlessVisualizer styles output only when stdout is a terminal.
func headlessVisualizer() *conversation.Visualizer {
	return &conversation.Visualizer{Plain: !term.IsTerminal(int(os.Stdout.Fd()))}
}
