package dialog

import (
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/sahilm/fuzzy"

	"github.com/pondside/parley/internal/tui/events"
	"github.com/pondside/parley/internal/tui/styles"
)

// Command represents a command in the palette
type Command struct {
	Name        string
	Description string
	Shortcut    string
	Action      string // The slash command to execute
}

// commandSource adapts []Command for fuzzy matching over name,
// shortcut, and description together.
type commandSource []Command

func (s commandSource) String(i int) string {
	return s[i].Name + " " + s[i].Shortcut + " " + s[i].Description
}

func (s commandSource) Len() int { return len(s) }

// CommandPaletteDialog displays a searchable list of all commands
type CommandPaletteDialog struct {
	*BaseDialog

	commands         commandSource
	filteredCommands []Command
	searchQuery      string
	selectedIndex    int
	eventBroker      *events.Broker
}

// NewCommandPaletteDialog creates a new command palette dialog
func NewCommandPaletteDialog(eventBroker *events.Broker) *CommandPaletteDialog {
	d := &CommandPaletteDialog{
		BaseDialog:  NewBaseDialog("Command Palette"),
		eventBroker: eventBroker,
	}

	d.commands = commandSource{
		{Name: "Help", Description: "Show help", Shortcut: "/help", Action: "/help"},
		{Name: "Connect", Description: "Switch database", Shortcut: "/connect", Action: "/connect"},
		{Name: "Schema", Description: "Refresh and show the schema", Shortcut: "/schema", Action: "/schema"},
		{Name: "History", Description: "Show recent requests", Shortcut: "/history", Action: "/history"},
		{Name: "Saved Queries", Description: "List saved queries", Shortcut: "/queries", Action: "/queries"},
		{Name: "Export CSV", Description: "Export the last result to a file", Shortcut: "/export", Action: "/export"},
		{Name: "Copy Result", Description: "Copy the last result to the clipboard", Shortcut: "/copy", Action: "/copy"},
		{Name: "Cancel", Description: "Cancel the running request", Shortcut: "/cancel", Action: "/cancel"},
		{Name: "Cancel All", Description: "Cancel everything, queued included", Shortcut: "/cancel-all", Action: "/cancel-all"},
		{Name: "Clear Transcript", Description: "Clear the transcript", Shortcut: "/clear", Action: "/clear"},
		{Name: "Quit", Description: "Exit the application", Shortcut: "/quit", Action: "/quit"},
	}

	d.filteredCommands = d.commands
	return d
}

// Init initializes the dialog
func (d *CommandPaletteDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *CommandPaletteDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !d.isOpen {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return d, d.Close()
		case "up", "ctrl+p":
			if d.selectedIndex > 0 {
				d.selectedIndex--
			}
		case "down", "ctrl+n":
			if d.selectedIndex < len(d.filteredCommands)-1 {
				d.selectedIndex++
			}
		case "enter":
			if d.selectedIndex < len(d.filteredCommands) {
				cmd := d.filteredCommands[d.selectedIndex]
				d.result = cmd.Action
				d.eventBroker.PublishAsync(events.Event{
					Type: events.CommandSelectedEvent,
					Payload: events.CommandSelectedPayload{
						Command: cmd.Action,
					},
				})
				return d, d.Close()
			}
		case "backspace":
			if len(d.searchQuery) > 0 {
				d.searchQuery = d.searchQuery[:len(d.searchQuery)-1]
				d.filterCommands()
			}
		case "space":
			d.searchQuery += " "
			d.filterCommands()
		default:
			if len(msg.String()) == 1 && msg.String()[0] >= 33 && msg.String()[0] <= 126 {
				d.searchQuery += msg.String()
				d.filterCommands()
			}
		}
	}

	return d, nil
}

// View renders the dialog
func (d *CommandPaletteDialog) View() string {
	if !d.isOpen {
		return ""
	}

	theme := styles.CurrentTheme()
	maxWidth := 70
	if d.Width > 0 && d.Width-10 < maxWidth {
		maxWidth = d.Width - 10
	}

	searchBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1).
		MarginBottom(1).
		Width(maxWidth).
		Render("🔍 " + d.searchQuery)

	itemStyle := lipgloss.NewStyle().Padding(0, 2)
	selectedItemStyle := lipgloss.NewStyle().
		Padding(0, 2).
		Background(theme.Primary).
		Foreground(theme.FgInverted)

	var items []string
	for i, cmd := range d.filteredCommands {
		style := itemStyle
		if i == d.selectedIndex {
			style = selectedItemStyle
		}

		shortcut := theme.S().Subtle.Render(" " + cmd.Shortcut)
		desc := theme.S().Muted.Render(" — " + cmd.Description)
		items = append(items, style.Width(maxWidth).Render(cmd.Name+shortcut+desc))
	}
	if len(items) == 0 {
		items = append(items, theme.S().Muted.Render("  no matching commands"))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		searchBox,
		lipgloss.JoinVertical(lipgloss.Left, items...),
	)

	return d.RenderDialog(content)
}

// filterCommands ranks commands against the query. An empty query
// shows everything in declared order.
func (d *CommandPaletteDialog) filterCommands() {
	if d.searchQuery == "" {
		d.filteredCommands = d.commands
		d.selectedIndex = 0
		return
	}

	matches := fuzzy.FindFrom(d.searchQuery, d.commands)
	d.filteredCommands = make([]Command, 0, len(matches))
	for _, match := range matches {
		d.filteredCommands = append(d.filteredCommands, d.commands[match.Index])
	}

	if d.selectedIndex >= len(d.filteredCommands) {
		d.selectedIndex = 0
	}
}

// Open opens the dialog
func (d *CommandPaletteDialog) Open() tea.Cmd {
	d.searchQuery = ""
	d.selectedIndex = 0
	d.filterCommands()
	return d.BaseDialog.Open()
}
