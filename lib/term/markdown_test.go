// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func renderPlain(t *testing.T, input string, width int) string {
	t.Helper()
	return ansi.Strip(Render(input, DefaultStyles(), width))
}

func TestRenderEmpty(t *testing.T) {
	if got := Render("", DefaultStyles(), 80); got != "" {
		t.Fatalf("empty input rendered %q", got)
	}
	if got := Render("   \n", DefaultStyles(), 80); got != "" {
		t.Fatalf("blank input rendered %q", got)
	}
}

func TestRenderParagraphReflow(t *testing.T) {
	// Hard-wrapped source reflows: the single newline becomes a space.
	got := renderPlain(t, "alpha beta\ngamma", 80)
	if !strings.Contains(got, "alpha beta gamma") {
		t.Fatalf("soft break not reflowed: %q", got)
	}
}

func TestRenderWrapsToWidth(t *testing.T) {
	got := renderPlain(t, strings.Repeat("word ", 30), 40)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 45 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestRenderHeading(t *testing.T) {
	got := renderPlain(t, "# Title\n\nbody", 80)
	if !strings.Contains(got, "Title") || !strings.Contains(got, "body") {
		t.Fatalf("heading render = %q", got)
	}
}

func TestRenderLists(t *testing.T) {
	got := renderPlain(t, "- one\n- two\n\n1. first\n2. second", 80)
	for _, want := range []string{"• one", "• two", "1. first", "2. second"} {
		if !strings.Contains(got, want) {
			t.Fatalf("list missing %q: %q", want, got)
		}
	}
}

func TestRenderTaskList(t *testing.T) {
	got := renderPlain(t, "- [x] done\n- [ ] todo", 80)
	if !strings.Contains(got, "[x] done") || !strings.Contains(got, "[ ] todo") {
		t.Fatalf("task list = %q", got)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	got := renderPlain(t, "```go\nfunc main() {}\n```", 80)
	if !strings.Contains(got, "func main() {}") {
		t.Fatalf("code block = %q", got)
	}

	got = renderPlain(t, "```\nplain block\n```", 80)
	if !strings.Contains(got, "plain block") {
		t.Fatalf("unhighlighted block = %q", got)
	}
}

func TestRenderInlineCodeAndLink(t *testing.T) {
	got := renderPlain(t, "run `go test` or see [docs](https://example.com)", 80)
	if !strings.Contains(got, "go test") {
		t.Fatalf("inline code = %q", got)
	}
	if !strings.Contains(got, "docs") || !strings.Contains(got, "https://example.com") {
		t.Fatalf("link = %q", got)
	}
}

func TestRenderBlockquote(t *testing.T) {
	got := renderPlain(t, "> quoted text", 80)
	if !strings.Contains(got, "│ ") || !strings.Contains(got, "quoted text") {
		t.Fatalf("blockquote = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderPlain(t, "| name | value |\n|---|---|\n| a | 1 |\n| b | 2 |", 80)
	for _, want := range []string{"name", "value", "a", "b"} {
		if !strings.Contains(got, want) {
			t.Fatalf("table missing %q: %q", want, got)
		}
	}
}
