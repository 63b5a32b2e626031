package dialog

import (
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/pondside/parley/internal/tui/styles"
)

// QuitDialog asks for confirmation before quitting
type QuitDialog struct {
	*BaseDialog

	selectedNo bool // "No" is the default for safety
}

// NewQuitDialog creates a new quit confirmation dialog
func NewQuitDialog() *QuitDialog {
	return &QuitDialog{
		BaseDialog: NewBaseDialog("Quit Parley?"),
		selectedNo: true,
	}
}

// Init initializes the dialog
func (d *QuitDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *QuitDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !d.isOpen {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "y", "Y":
			// Double Ctrl+C also confirms
			return d, tea.Quit
		case "esc", "n", "N":
			return d, d.Close()
		case "left", "right", "tab", "h", "l":
			d.selectedNo = !d.selectedNo
		case "enter", "space":
			if d.selectedNo {
				return d, d.Close()
			}
			return d, tea.Quit
		}
	}

	return d, nil
}

// View renders the dialog
func (d *QuitDialog) View() string {
	if !d.isOpen {
		return ""
	}

	theme := styles.CurrentTheme()

	question := theme.S().Bold.Render("Quit? In-flight requests will be cancelled.")

	yesStyle := theme.S().Button
	noStyle := theme.S().Button
	if d.selectedNo {
		noStyle = theme.S().ButtonFocused
	} else {
		yesStyle = theme.S().ButtonFocused
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Center,
		yesStyle.Render("Yes"),
		"  ",
		noStyle.Render("No"),
	)

	buttonsContainer := lipgloss.NewStyle().
		Width(lipgloss.Width(question)).
		Align(lipgloss.Right).
		Render(buttons)

	helpText := theme.S().Subtle.Italic(true).
		Render("Ctrl+C again to quit • Esc to cancel")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		question,
		"",
		buttonsContainer,
		"",
		helpText,
	)

	return d.RenderDialog(content)
}
