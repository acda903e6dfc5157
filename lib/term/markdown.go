// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package term renders markdown as styled terminal text for the chat
// transcript and trajectory viewer.
package term

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Styles holds the colors used by the renderer. ANSI-256 values.
type Styles struct {
	Heading    lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	InlineCode lipgloss.Color
	Link       lipgloss.Color
	Done       lipgloss.Color
}

// DefaultStyles matches the chat UI palette.
func DefaultStyles() Styles {
	return Styles{
		Heading:    lipgloss.Color("215"),
		Text:       lipgloss.Color("252"),
		Muted:      lipgloss.Color("245"),
		InlineCode: lipgloss.Color("180"),
		Link:       lipgloss.Color("75"),
		Done:       lipgloss.Color("114"),
	}
}

var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

// The parser configuration never changes and goldmark parsers are
// safe to share; per-call state lives in the reader.
func parser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return parserInstance
}

// Render parses markdown and renders it for a terminal of the given
// width. Soft line breaks reflow; code blocks are syntax highlighted.
func Render(input string, styles Styles, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	// Force the ANSI256 profile: this output always targets a
	// terminal transcript, and auto-detection reports no color when
	// stdout is not a TTY (tests, pipes feeding the TUI).
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &markdownRenderer{
		source:      source,
		styles:      styles,
		width:       width,
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)

	return strings.TrimRight(renderer.output.String(), "\n")
}

// markdownRenderer walks the goldmark AST directly. Inline content
// accumulates per block and is word-wrapped as a unit when the block
// closes, which goldmark's streaming renderer interface does not
// accommodate.
type markdownRenderer struct {
	source      []byte
	styles      Styles
	width       int
	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	indent     string
	bulletNext string

	boldCount   int
	italicCount int
	strikeCount int

	listStack []listState
}

type listState struct {
	ordered bool
	counter int
}

func (r *markdownRenderer) style() lipgloss.Style {
	return r.lipRenderer.NewStyle()
}

func (r *markdownRenderer) contentWidth() int {
	width := r.width - len(r.indent)
	if width < 10 {
		width = 10
	}
	return width
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			r.inline.WriteString(r.styledText(string(textNode.Segment.Value(r.source))))
			if textNode.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
			if textNode.HardLineBreak() {
				r.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styledText(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := 1
		if !entering {
			delta = -1
		}
		if emphasis.Level >= 2 {
			r.boldCount += delta
		} else {
			r.italicCount += delta
		}

	case extast.KindStrikethrough:
		if entering {
			r.strikeCount++
		} else {
			r.strikeCount--
		}

	case ast.KindCodeSpan:
		if entering {
			code := string(node.Text(r.source))
			r.inline.WriteString(r.style().Foreground(r.styles.InlineCode).Render(code))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			link := node.(*ast.Link)
			r.inline.WriteString(r.style().Foreground(r.styles.Muted).Render(" (" + string(link.Destination) + ")"))
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(r.source))
			r.inline.WriteString(r.style().Foreground(r.styles.Link).Underline(true).Render(url))
		}

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else {
			r.flushInline()
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
		} else {
			r.leaveHeading(node.(*ast.Heading))
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			r.renderCode(blockLines(r.source, block), string(block.Language(r.source)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			r.renderCode(blockLines(r.source, node.(*ast.CodeBlock)), "")
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.indent += "│ "
		} else {
			r.indent = r.indent[:len(r.indent)-len("│ ")]
		}

	case ast.KindList:
		list := node.(*ast.List)
		if entering {
			r.listStack = append(r.listStack, listState{ordered: list.IsOrdered(), counter: list.Start})
		} else {
			r.listStack = r.listStack[:len(r.listStack)-1]
			if len(r.listStack) == 0 {
				r.blankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			state := &r.listStack[len(r.listStack)-1]
			if state.ordered {
				r.bulletNext = fmt.Sprintf("%d. ", state.counter)
				state.counter++
			} else {
				r.bulletNext = "• "
			}
			r.indent += "  "
		} else {
			r.indent = r.indent[:len(r.indent)-2]
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				r.inline.WriteString(r.style().Foreground(r.styles.Done).Render("[x]") + " ")
			} else {
				r.inline.WriteString(r.styledText("[ ] "))
			}
		}

	case extast.KindTable:
		if entering {
			r.renderTable(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindThematicBreak:
		if entering {
			r.blankLine()
			r.output.WriteString(r.indent + r.style().Foreground(r.styles.Muted).Render(strings.Repeat("─", r.contentWidth())) + "\n")
		}
	}

	return ast.WalkContinue, nil
}

// styledText applies the active inline styles to a text fragment.
func (r *markdownRenderer) styledText(content string) string {
	style := r.style().Foreground(r.styles.Text)
	if r.boldCount > 0 {
		style = style.Bold(true)
	}
	if r.italicCount > 0 {
		style = style.Italic(true)
	}
	if r.strikeCount > 0 {
		style = style.Strikethrough(true)
	}
	return style.Render(content)
}

// flushInline wraps the accumulated inline buffer and writes it as
// one block, consuming any pending list bullet.
func (r *markdownRenderer) flushInline() {
	content := r.inline.String()
	r.inline.Reset()
	if strings.TrimSpace(ansi.Strip(content)) == "" {
		return
	}

	wrapped := ansi.Wrap(content, r.contentWidth(), " ,.;-+|")
	for i, line := range strings.Split(wrapped, "\n") {
		prefix := r.indent
		if i == 0 && r.bulletNext != "" {
			prefix = r.indent[:len(r.indent)-2] + r.bulletNext
			r.bulletNext = ""
		}
		r.output.WriteString(prefix + line + "\n")
	}
	if len(r.listStack) == 0 {
		r.output.WriteString("\n")
	}
}

func (r *markdownRenderer) leaveHeading(heading *ast.Heading) {
	content := ansi.Strip(r.inline.String())
	r.inline.Reset()
	if content == "" {
		return
	}

	style := r.style().Bold(true).Foreground(r.styles.Text)
	if heading.Level <= 2 {
		style = style.Foreground(r.styles.Heading)
	}
	r.blankLine()
	r.output.WriteString(r.indent + style.Render(content) + "\n\n")
}

// renderCode highlights a code block with chroma, falling back to
// dimmed plain text for unknown languages.
func (r *markdownRenderer) renderCode(code, language string) {
	code = strings.TrimRight(code, "\n")
	if code == "" {
		return
	}

	highlighted := code
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			highlighted = strings.TrimRight(buffer.String(), "\n")
		}
	}
	if highlighted == code {
		// No highlighter matched; dim the block line by line so the
		// styling doesn't span newlines.
		lines := strings.Split(code, "\n")
		for i, line := range lines {
			lines[i] = r.style().Foreground(r.styles.InlineCode).Render(line)
		}
		highlighted = strings.Join(lines, "\n")
	}

	r.blankLine()
	for _, line := range strings.Split(highlighted, "\n") {
		r.output.WriteString(r.indent + "  " + line + "\n")
	}
	r.output.WriteString("\n")
}

// renderTable renders a GFM table as aligned plain rows. Chat
// transcripts rarely carry tables wide enough to need true layout.
func (r *markdownRenderer) renderTable(table ast.Node) {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, string(cell.Text(r.source)))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	widths := make([]int, 0)
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	r.blankLine()
	for rowIndex, row := range rows {
		var parts []string
		for i, cell := range row {
			parts = append(parts, cell+strings.Repeat(" ", widths[i]-len(cell)))
		}
		line := strings.Join(parts, "  ")
		if rowIndex == 0 {
			line = r.style().Bold(true).Foreground(r.styles.Text).Render(line)
		} else {
			line = r.style().Foreground(r.styles.Text).Render(line)
		}
		r.output.WriteString(r.indent + line + "\n")
	}
	r.output.WriteString("\n")
}

// blankLine ensures exactly one blank line precedes the next block.
func (r *markdownRenderer) blankLine() {
	current := r.output.String()
	if current == "" || strings.HasSuffix(current, "\n\n") {
		return
	}
	if !strings.HasSuffix(current, "\n") {
		r.output.WriteString("\n")
	}
	r.output.WriteString("\n")
}

// blockLines joins the raw source lines of a code block node.
func blockLines(source []byte, node interface {
	Lines() *text.Segments
}) string {
	var builder strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		builder.Write(segment.Value(source))
	}
	return builder.String()
}
