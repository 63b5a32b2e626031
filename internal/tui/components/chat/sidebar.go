package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/pondside/parley/internal/db"
	"github.com/pondside/parley/internal/tui/components/core"
	"github.com/pondside/parley/internal/tui/events"
	"github.com/pondside/parley/internal/tui/styles"
)

// SidebarModel shows the connection, the schema, and the request
// queue down the right edge.
type SidebarModel struct {
	width  int
	height int

	// Connection state
	connName string
	connPath string
	readOnly bool
	provider string
	model    string

	schema *db.Schema
	queue  events.QueueStatePayload
}

// Ensure SidebarModel implements required interfaces
var _ core.Component = (*SidebarModel)(nil)
var _ core.Sizeable = (*SidebarModel)(nil)

// NewSidebar creates a new sidebar component
func NewSidebar() *SidebarModel {
	return &SidebarModel{}
}

// Init initializes the sidebar component
func (s *SidebarModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the sidebar
func (s *SidebarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return s, nil
}

// SetSize sets the dimensions of the sidebar
func (s *SidebarModel) SetSize(width, height int) tea.Cmd {
	s.width = width
	s.height = height
	return nil
}

// SetConnection updates the connection section
func (s *SidebarModel) SetConnection(name, path string, readOnly bool) {
	s.connName = name
	s.connPath = path
	s.readOnly = readOnly
}

// SetModel updates the LLM section
func (s *SidebarModel) SetModel(provider, model string) {
	s.provider = provider
	s.model = model
}

// SetSchema updates the schema tree
func (s *SidebarModel) SetSchema(schema *db.Schema) {
	s.schema = schema
}

// SetQueue updates the queue section from the latest queue state
func (s *SidebarModel) SetQueue(state events.QueueStatePayload) {
	s.queue = state
}

// View renders the sidebar
func (s *SidebarModel) View() string {
	width := s.width
	if width == 0 {
		width = 30
	}

	sidebarStyle := lipgloss.NewStyle().
		Width(width - 2).
		Padding(0)

	var content strings.Builder

	s.renderTitle(&content)
	s.renderConnection(&content)
	s.renderQueue(&content)
	s.renderSchema(&content)

	return sidebarStyle.Render(content.String())
}

// Private rendering methods

func (s *SidebarModel) renderTitle(content *strings.Builder) {
	theme := styles.CurrentTheme()
	contentWidth := s.width - 4
	if contentWidth < 10 {
		contentWidth = 10
	}

	titleStyle := theme.S().Title.
		Width(contentWidth).
		Align(lipgloss.Center)
	content.WriteString(titleStyle.Render("Parley"))
	content.WriteString("\n")

	subtitleStyle := theme.S().Subtle.Italic(true).
		Width(contentWidth).
		Align(lipgloss.Center)
	content.WriteString(subtitleStyle.Render("talk to your database"))
	content.WriteString("\n\n")
}

func (s *SidebarModel) renderConnection(content *strings.Builder) {
	theme := styles.CurrentTheme()
	label := theme.S().Subtle
	value := theme.S().Base.Foreground(theme.Primary)

	content.WriteString(label.Render("Database: "))
	if s.connPath == "" {
		content.WriteString(theme.S().Muted.Render("not connected"))
		content.WriteString("\n\n")
		return
	}

	name := s.connName
	if name == "" {
		name = filepath.Base(s.connPath)
	}
	content.WriteString(value.Render(s.clip(name, s.width-14)))
	if s.readOnly {
		content.WriteString(theme.S().Warning.Render(" [ro]"))
	}
	content.WriteString("\n")
	content.WriteString(theme.S().Muted.Render(s.clip(s.connPath, s.width-4)))
	content.WriteString("\n\n")

	if s.model != "" {
		content.WriteString(label.Render("Model: "))
		content.WriteString(value.Render(s.clip(s.model, s.width-11)))
		if s.provider != "" {
			content.WriteString(theme.S().Muted.Render(fmt.Sprintf(" (%s)", s.provider)))
		}
		content.WriteString("\n\n")
	}
}

func (s *SidebarModel) renderQueue(content *strings.Builder) {
	theme := styles.CurrentTheme()
	label := theme.S().Subtle

	content.WriteString(label.Render("Queue:"))
	content.WriteString("\n")

	if !s.queue.InFlight && !s.queue.Awaiting && len(s.queue.Positions) == 0 {
		content.WriteString(theme.S().Muted.Render("  idle"))
		content.WriteString("\n\n")
		return
	}

	if s.queue.Awaiting {
		content.WriteString(theme.S().Warning.Render("  ⚠ awaiting confirmation"))
		content.WriteString("\n")
	}
	if s.queue.InFlight {
		line := fmt.Sprintf("  ▶ #%d %s", s.queue.InFlightID, s.queue.Phase)
		content.WriteString(theme.S().Success.Render(s.clip(line, s.width-4)))
		content.WriteString("\n")
	}
	for _, pos := range s.queue.Positions {
		line := fmt.Sprintf("  %d. #%d waiting", pos.Pos, pos.ID)
		content.WriteString(theme.S().Muted.Render(s.clip(line, s.width-4)))
		content.WriteString("\n")
	}
	content.WriteString("\n")
}

func (s *SidebarModel) renderSchema(content *strings.Builder) {
	theme := styles.CurrentTheme()
	label := theme.S().Subtle

	content.WriteString(label.Render("Schema:"))
	content.WriteString("\n")

	if s.schema == nil || len(s.schema.Tables) == 0 {
		content.WriteString(theme.S().Muted.Render("  no tables"))
		content.WriteString("\n")
		return
	}

	// Leave the lines already written plus a little room; overflowing
	// tables collapse into a summary line.
	budget := s.height - strings.Count(content.String(), "\n") - 2
	for i, table := range s.schema.Tables {
		if budget > 0 && i >= budget {
			rest := len(s.schema.Tables) - i
			content.WriteString(theme.S().Muted.Render(fmt.Sprintf("  … %d more", rest)))
			content.WriteString("\n")
			break
		}
		line := "  " + table.Name
		if table.Kind == "view" {
			line += " (view)"
		} else if table.RowCount >= 0 {
			line += fmt.Sprintf(" (%d)", table.RowCount)
		}
		content.WriteString(theme.S().Base.Render(s.clip(line, s.width-4)))
		content.WriteString("\n")
	}
}

func (s *SidebarModel) clip(text string, width int) string {
	if width < 4 {
		width = 4
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
