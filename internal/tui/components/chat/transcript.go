// Package chat holds the center-pane components: the transcript of
// questions, statements, and results, and the input line under it.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour/v2"

	"github.com/pondside/parley/internal/tui/components/core"
	"github.com/pondside/parley/internal/tui/styles"
)

// EntryKind says how a transcript entry is rendered.
type EntryKind int

const (
	// EntryUser is an echoed input line.
	EntryUser EntryKind = iota
	// EntrySQL is a statement, either typed or translated.
	EntrySQL
	// EntryCommentary is model commentary, rendered as markdown.
	EntryCommentary
	// EntryResult is a preformatted result table. Never re-wrapped.
	EntryResult
	// EntryError is a failure line.
	EntryError
	// EntryNotice is a muted informational line.
	EntryNotice
)

// Entry is one block in the transcript.
type Entry struct {
	Kind EntryKind
	Text string
}

// TranscriptModel implements the scrolling transcript viewport.
type TranscriptModel struct {
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int

	entries []Entry

	// Model output streams in below the entries while a translation
	// runs, then collapses into SQL and commentary entries.
	isStreaming  bool
	streamingMsg string
}

// Ensure TranscriptModel implements required interfaces
var _ core.Component = (*TranscriptModel)(nil)
var _ core.Sizeable = (*TranscriptModel)(nil)

// NewTranscript creates a new transcript component
func NewTranscript() *TranscriptModel {
	vp := viewport.New()
	vp.MouseWheelEnabled = true

	s := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &TranscriptModel{
		viewport: vp,
		spinner:  s,
	}
}

// Init initializes the transcript component
func (tm *TranscriptModel) Init() tea.Cmd {
	return tm.spinner.Tick
}

// Update handles messages for the transcript
func (tm *TranscriptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if tm.isStreaming {
		var cmd tea.Cmd
		tm.spinner, cmd = tm.spinner.Update(msg)
		cmds = append(cmds, cmd)
		tm.refreshContent()
	}

	var cmd tea.Cmd
	tm.viewport, cmd = tm.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return tm, tea.Batch(cmds...)
}

// SetSize sets the dimensions of the transcript
func (tm *TranscriptModel) SetSize(width, height int) tea.Cmd {
	tm.width = width
	tm.height = height

	tm.viewport = viewport.New(
		viewport.WithWidth(width),
		viewport.WithHeight(height),
	)
	tm.viewport.MouseWheelEnabled = true

	tm.refreshContent()

	return nil
}

// View renders the transcript
func (tm *TranscriptModel) View() string {
	return tm.viewport.View()
}

// Add appends an entry and scrolls to it.
func (tm *TranscriptModel) Add(kind EntryKind, text string) {
	tm.entries = append(tm.entries, Entry{Kind: kind, Text: text})
	tm.refreshContent()
	tm.viewport.GotoBottom()
}

// Clear drops all entries.
func (tm *TranscriptModel) Clear() {
	tm.entries = nil
	tm.isStreaming = false
	tm.streamingMsg = ""
	tm.refreshContent()
}

// SetStreaming toggles the live model-output block at the bottom.
func (tm *TranscriptModel) SetStreaming(streaming bool) {
	tm.isStreaming = streaming
	if !streaming {
		tm.streamingMsg = ""
	}
	tm.refreshContent()
}

// AppendStreamingChunk appends a chunk to the streaming block
func (tm *TranscriptModel) AppendStreamingChunk(chunk string) {
	if tm.isStreaming {
		tm.streamingMsg += chunk
		tm.refreshContent()
		tm.viewport.GotoBottom()
	}
}

// GotoBottom scrolls to the bottom of the viewport
func (tm *TranscriptModel) GotoBottom() {
	tm.viewport.GotoBottom()
}

// GotoTop scrolls to the top of the viewport
func (tm *TranscriptModel) GotoTop() {
	tm.viewport.GotoTop()
}

// Private methods

func (tm *TranscriptModel) refreshContent() {
	tm.viewport.SetContent(tm.renderEntries())
}

func (tm *TranscriptModel) renderEntries() string {
	theme := styles.CurrentTheme()
	var sb strings.Builder

	if len(tm.entries) == 0 && !tm.isStreaming {
		welcome := theme.S().Subtle.Italic(true).
			Render("Connected. Ask a question in plain language or type SQL.")
		sb.WriteString(welcome)
		sb.WriteString("\n\n")
		hint := theme.S().Subtle.
			Render("Use /help for commands")
		sb.WriteString(hint)
		sb.WriteString("\n")
		return sb.String()
	}

	for _, entry := range tm.entries {
		switch entry.Kind {
		case EntryUser:
			sb.WriteString(theme.S().Bold.Foreground(theme.Primary).Render("❯ "))
			sb.WriteString(theme.S().Bold.Render(tm.wrapText(entry.Text, tm.width-4)))
		case EntrySQL:
			sb.WriteString(theme.S().Base.Foreground(theme.Secondary).
				Render(tm.wrapText(entry.Text, tm.width-4)))
		case EntryCommentary:
			rendered, err := tm.renderMarkdown(entry.Text)
			if err != nil {
				rendered = tm.wrapText(entry.Text, tm.width-4)
			}
			sb.WriteString(theme.S().Muted.Render(rendered))
		case EntryResult:
			// Already shaped to the pane width by the table renderer.
			sb.WriteString(entry.Text)
		case EntryError:
			sb.WriteString(theme.S().Error.Render(tm.wrapText(entry.Text, tm.width-4)))
		case EntryNotice:
			sb.WriteString(theme.S().Subtle.Italic(true).
				Render(tm.wrapText(entry.Text, tm.width-4)))
		}
		sb.WriteString("\n\n")
	}

	if tm.isStreaming {
		if tm.streamingMsg != "" {
			sb.WriteString(theme.S().Muted.Render(tm.wrapText(tm.streamingMsg, tm.width-4)))
			sb.WriteString(" ")
		}
		sb.WriteString(tm.spinner.View())
		sb.WriteString("\n")
	}

	return sb.String()
}

func (tm *TranscriptModel) renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(glamourStyle()),
		glamour.WithWordWrap(tm.width-4),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

func glamourStyle() string {
	if styles.CurrentTheme().IsDark {
		return "dark"
	}
	return "light"
}

// wrapText wraps text at word boundaries to fit within the specified width.
func (tm *TranscriptModel) wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}

		if len(line) <= width {
			result.WriteString(line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""

		for _, word := range words {
			switch {
			case len(word) > width:
				if currentLine != "" {
					result.WriteString(currentLine)
					result.WriteString("\n")
				}
				for len(word) > width {
					result.WriteString(word[:width])
					result.WriteString("\n")
					word = word[width:]
				}
				currentLine = word
			case len(currentLine)+1+len(word) > width:
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			default:
				if currentLine != "" {
					currentLine += " "
				}
				currentLine += word
			}
		}

		if currentLine != "" {
			result.WriteString(currentLine)
		}
	}

	return result.String()
}
