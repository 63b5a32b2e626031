package dialog

import (
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/pondside/parley/internal/tui/styles"
)

// HelpDialog displays help information
type HelpDialog struct {
	*BaseDialog

	activeTab int
	tabs      []string
}

// NewHelpDialog creates a new help dialog
func NewHelpDialog() *HelpDialog {
	return &HelpDialog{
		BaseDialog: NewBaseDialog("Help"),
		tabs:       []string{"Commands", "Keyboard", "Input"},
	}
}

// Init initializes the dialog
func (d *HelpDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *HelpDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !d.isOpen {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "?":
			return d, d.Close()
		case "tab", "right", "l":
			d.activeTab = (d.activeTab + 1) % len(d.tabs)
		case "shift+tab", "left", "h":
			d.activeTab = (d.activeTab - 1 + len(d.tabs)) % len(d.tabs)
		case "1":
			d.activeTab = 0
		case "2":
			d.activeTab = 1
		case "3":
			d.activeTab = 2
		}
	}

	return d, nil
}

// View renders the dialog
func (d *HelpDialog) View() string {
	if !d.isOpen {
		return ""
	}

	theme := styles.CurrentTheme()

	tabStyle := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(theme.FgSubtle)
	activeTabStyle := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(theme.Accent).
		Bold(true).
		Underline(true)

	var tabs []string
	for i, tab := range d.tabs {
		style := tabStyle
		if i == d.activeTab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(tab))
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var content string
	switch d.activeTab {
	case 0:
		content = d.renderRows("Slash Commands", [][]string{
			{"/help", "Show this help"},
			{"/connect [path|name]", "Open a database or saved profile"},
			{"/schema", "Refresh and show the schema"},
			{"/history [term]", "Show recent requests"},
			{"/save <name>", "Save the last statement under a name"},
			{"/run <name>", "Run a saved query"},
			{"/queries", "List saved queries"},
			{"/export <file.csv>", "Export the last result"},
			{"/copy", "Copy the last result to the clipboard"},
			{"/cancel", "Cancel the running request"},
			{"/cancel-all", "Cancel everything, queued included"},
			{"/set <key> <value>", "Change a setting"},
			{"/clear", "Clear the transcript"},
			{"/quit", "Exit"},
		})
	case 1:
		content = d.renderRows("Keyboard Shortcuts", [][]string{
			{"Enter", "Submit the input line"},
			{"Esc", "Cancel the running request (when input is empty)"},
			{"Ctrl+X", "Cancel all requests"},
			{"Ctrl+P", "Command palette"},
			{"Ctrl+L", "Clear the transcript"},
			{"↑/↓", "Recall previous inputs"},
			{"?", "This help (when input is empty)"},
			{"Ctrl+C", "Quit"},
		})
	case 2:
		content = d.renderRows("Input Forms", [][]string{
			{"plain text", "Translated to SQL by the model"},
			{"SELECT …", "Statements run directly"},
			{"trailing ;", "Forces SQL"},
			{"> …", "Forces SQL without guessing"},
			{"! …", "Forces natural-language translation"},
		})
	}

	fullContent := lipgloss.JoinVertical(
		lipgloss.Left,
		tabBar,
		lipgloss.NewStyle().MarginTop(1).Render(content),
	)

	return d.RenderDialog(fullContent)
}

func (d *HelpDialog) renderRows(section string, rows [][]string) string {
	theme := styles.CurrentTheme()

	lines := []string{theme.S().Subtitle.MarginBottom(1).Render(section)}
	for _, row := range rows {
		key := theme.S().Bold.Foreground(theme.Primary).Render(row[0])
		desc := theme.S().Muted.Render(" — " + row[1])
		lines = append(lines, key+desc)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
