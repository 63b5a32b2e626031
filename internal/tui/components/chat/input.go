package chat

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/pondside/parley/internal/tui/components/core"
	"github.com/pondside/parley/internal/tui/styles"
)

// maxInputHistory bounds how many submitted lines up/down can recall.
const maxInputHistory = 200

// InputModel implements the single-line prompt where questions, SQL,
// and slash commands are typed. Up/down walk previously submitted
// inputs, shell style.
type InputModel struct {
	value       string
	placeholder string
	cursorPos   int
	width       int
	height      int
	focused     bool
	enabled     bool

	// Input recall. histIdx == len(history) means the live draft.
	history []string
	histIdx int
	draft   string
}

// Ensure InputModel implements required interfaces
var _ core.Component = (*InputModel)(nil)
var _ core.Sizeable = (*InputModel)(nil)
var _ core.Focusable = (*InputModel)(nil)

// NewInput creates a new input component
func NewInput() *InputModel {
	return &InputModel{
		placeholder: "Ask a question, type SQL, or /help for commands",
		focused:     true,
		enabled:     true,
	}
}

// Init initializes the input component
func (im *InputModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the input component
func (im *InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !im.enabled || !im.focused {
		return im, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		keyStr := msg.String()

		// Bubble Tea v2 reports the space key as "space", not " "
		if keyStr == "space" {
			im.insert(" ")
			return im, nil
		}

		switch keyStr {
		case "backspace":
			if im.cursorPos > 0 {
				im.value = im.value[:im.cursorPos-1] + im.value[im.cursorPos:]
				im.cursorPos--
			}
		case "delete":
			if im.cursorPos < len(im.value) {
				im.value = im.value[:im.cursorPos] + im.value[im.cursorPos+1:]
			}
		case "left":
			if im.cursorPos > 0 {
				im.cursorPos--
			}
		case "right":
			if im.cursorPos < len(im.value) {
				im.cursorPos++
			}
		case "up":
			im.recallPrev()
		case "down":
			im.recallNext()
		case "home", "ctrl+a":
			im.cursorPos = 0
		case "end", "ctrl+e":
			im.cursorPos = len(im.value)
		case "ctrl+k":
			// Kill to end of line
			im.value = im.value[:im.cursorPos]
		case "ctrl+u":
			// Kill to beginning of line
			im.value = im.value[im.cursorPos:]
			im.cursorPos = 0
		case "ctrl+w":
			im.killWordBack()
		default:
			// Printable ASCII: exclamation (33) through tilde (126).
			// Space is handled explicitly above.
			if len(keyStr) == 1 && keyStr[0] >= 33 && keyStr[0] <= 126 {
				im.insert(keyStr)
			}
		}
	}

	return im, nil
}

func (im *InputModel) insert(s string) {
	im.value = im.value[:im.cursorPos] + s + im.value[im.cursorPos:]
	im.cursorPos += len(s)
	// Editing a recalled line turns it into the live draft.
	im.histIdx = len(im.history)
}

func (im *InputModel) killWordBack() {
	if im.cursorPos == 0 {
		return
	}
	i := im.cursorPos
	for i > 0 && im.value[i-1] == ' ' {
		i--
	}
	for i > 0 && im.value[i-1] != ' ' {
		i--
	}
	im.value = im.value[:i] + im.value[im.cursorPos:]
	im.cursorPos = i
}

// recallPrev replaces the input with the previous history entry,
// stashing the live draft so down can bring it back.
func (im *InputModel) recallPrev() {
	if len(im.history) == 0 || im.histIdx == 0 {
		return
	}
	if im.histIdx == len(im.history) {
		im.draft = im.value
	}
	im.histIdx--
	im.value = im.history[im.histIdx]
	im.cursorPos = len(im.value)
}

func (im *InputModel) recallNext() {
	if im.histIdx >= len(im.history) {
		return
	}
	im.histIdx++
	if im.histIdx == len(im.history) {
		im.value = im.draft
	} else {
		im.value = im.history[im.histIdx]
	}
	im.cursorPos = len(im.value)
}

// RecordSubmit appends a submitted line to the recall history and
// clears the input. Consecutive duplicates collapse to one entry.
func (im *InputModel) RecordSubmit(value string) {
	value = strings.TrimSpace(value)
	if value != "" && (len(im.history) == 0 || im.history[len(im.history)-1] != value) {
		im.history = append(im.history, value)
		if len(im.history) > maxInputHistory {
			im.history = im.history[len(im.history)-maxInputHistory:]
		}
	}
	im.value = ""
	im.cursorPos = 0
	im.draft = ""
	im.histIdx = len(im.history)
}

// LoadHistory seeds the recall history, oldest first. Used at startup
// to carry recall across sessions.
func (im *InputModel) LoadHistory(entries []string) {
	if len(entries) > maxInputHistory {
		entries = entries[len(entries)-maxInputHistory:]
	}
	im.history = append([]string(nil), entries...)
	im.histIdx = len(im.history)
}

// SetSize sets the dimensions of the input component
func (im *InputModel) SetSize(width, height int) tea.Cmd {
	im.width = width
	im.height = height
	return nil
}

// View renders the input component
func (im *InputModel) View() string {
	theme := styles.CurrentTheme()

	inputStyle := lipgloss.NewStyle().
		Width(im.width - 2).
		Padding(0, 1)

	var display string
	if im.value == "" && im.placeholder != "" && !im.focused {
		placeholderStyle := inputStyle.Foreground(theme.FgSubtle)
		display = placeholderStyle.Render(im.placeholder)
	} else {
		if im.focused && im.enabled {
			before := im.value[:im.cursorPos]
			after := ""
			cursor := " "

			if im.cursorPos < len(im.value) {
				cursor = string(im.value[im.cursorPos])
				after = im.value[im.cursorPos+1:]
			}

			cursorStyle := lipgloss.NewStyle().
				Background(theme.Primary).
				Foreground(theme.FgInverted)

			display = inputStyle.Render(before + cursorStyle.Render(cursor) + after)
		} else {
			display = inputStyle.Render(im.value)
		}
	}

	return display
}

// Focus focuses the input component
func (im *InputModel) Focus() tea.Cmd {
	im.focused = true
	return nil
}

// Blur removes focus from the input component
func (im *InputModel) Blur() tea.Cmd {
	im.focused = false
	return nil
}

// Focused returns whether the input component is focused
func (im *InputModel) Focused() bool {
	return im.focused
}

// Value returns the current input value
func (im *InputModel) Value() string {
	return im.value
}

// SetValue sets the input value
func (im *InputModel) SetValue(value string) {
	im.value = value
	im.cursorPos = len(value)
}

// Reset clears the input without touching recall history
func (im *InputModel) Reset() {
	im.value = ""
	im.cursorPos = 0
	im.histIdx = len(im.history)
}

// SetEnabled enables or disables the input
func (im *InputModel) SetEnabled(enabled bool) {
	im.enabled = enabled
	if !enabled {
		im.focused = false
	}
}

// IsEmpty returns true if the input is empty
func (im *InputModel) IsEmpty() bool {
	return strings.TrimSpace(im.value) == ""
}

// SetPlaceholder sets the placeholder text
func (im *InputModel) SetPlaceholder(placeholder string) {
	im.placeholder = placeholder
}
