// Package status implements the one-line bar under the input: the
// in-flight activity indicator on the left, transient notices on the
// right.
package status

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/pondside/parley/internal/tui/styles"
)

// MessageType represents the type of status message
type MessageType int

const (
	Info MessageType = iota
	Warning
	Error
	Success
)

// StatusMessage represents a status bar message
type StatusMessage struct {
	Content   string
	Type      MessageType
	Timestamp time.Time
}

// Component implements a status bar that shows temporary messages
type Component struct {
	message  *StatusMessage
	width    int
	activity string

	// Timer for clearing messages
	clearAfter time.Duration
}

// New creates a new status bar component
func New() *Component {
	return &Component{
		clearAfter: 5 * time.Second,
	}
}

// SetMessage sets a status message with the given type
func (c *Component) SetMessage(content string, msgType MessageType) tea.Cmd {
	c.message = &StatusMessage{
		Content:   content,
		Type:      msgType,
		Timestamp: time.Now(),
	}

	// Return a command to clear the message after the timeout
	ts := c.message.Timestamp
	return tea.Tick(c.clearAfter, func(time.Time) tea.Msg {
		return clearMessageMsg{timestamp: ts}
	})
}

// ShowInfo shows an info message
func (c *Component) ShowInfo(message string) tea.Cmd {
	return c.SetMessage(message, Info)
}

// ShowWarning shows a warning message
func (c *Component) ShowWarning(message string) tea.Cmd {
	return c.SetMessage(message, Warning)
}

// ShowError shows an error message
func (c *Component) ShowError(message string) tea.Cmd {
	return c.SetMessage(message, Error)
}

// ShowSuccess shows a success message
func (c *Component) ShowSuccess(message string) tea.Cmd {
	return c.SetMessage(message, Success)
}

// SetActivity sets the left side content: the spinner frame plus the
// current request's phase line, or queue counts when idle.
func (c *Component) SetActivity(content string) {
	c.activity = content
}

// SetSize implements the Sizeable interface
func (c *Component) SetSize(width, height int) tea.Cmd {
	c.width = width
	return nil
}

// clearMessageMsg is sent when a status message should be cleared
type clearMessageMsg struct {
	timestamp time.Time
}

// Init implements the Component interface
func (c *Component) Init() tea.Cmd {
	return nil
}

// Update implements the Component interface
func (c *Component) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clearMessageMsg:
		// Only clear if this is for the current message
		if c.message != nil && msg.timestamp.Equal(c.message.Timestamp) {
			c.message = nil
		}
	}

	return c, nil
}

// View implements the Component interface
func (c *Component) View() string {
	if c.width == 0 {
		return ""
	}

	theme := styles.CurrentTheme()

	statusStyle := lipgloss.NewStyle().
		Width(c.width).
		Height(1).
		Background(theme.BgSubtle).
		Foreground(theme.FgBase).
		Padding(0, 1)

	left := c.activity
	right := ""
	if c.message != nil {
		right = c.formatMessage()
	}

	availableWidth := c.width - 2 // Account for padding
	if runewidth.StringWidth(left)+runewidth.StringWidth(right) > availableWidth {
		if runewidth.StringWidth(right) > 40 {
			right = runewidth.Truncate(right, 40, "…")
		}
		remaining := availableWidth - runewidth.StringWidth(right) - 1
		if runewidth.StringWidth(left) > remaining && remaining > 1 {
			left = runewidth.Truncate(left, remaining, "…")
		}
	}

	content := left
	if right != "" {
		spaces := availableWidth - runewidth.StringWidth(left) - runewidth.StringWidth(right)
		if spaces > 0 {
			content += fmt.Sprintf("%*s%s", spaces, "", right)
		} else {
			content += " " + right
		}
	}

	return statusStyle.Render(content)
}

// formatMessage formats the status message with appropriate styling
func (c *Component) formatMessage() string {
	if c.message == nil {
		return ""
	}

	// Plain text with an icon prefix; the bar style colors the whole
	// line, and width math stays honest without embedded escapes.
	switch c.message.Type {
	case Success:
		return "✓ " + c.message.Content
	case Warning:
		return "⚠ " + c.message.Content
	case Error:
		return "✗ " + c.message.Content
	default:
		return c.message.Content
	}
}
