package dialog

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/pondside/parley/internal/request"
	"github.com/pondside/parley/internal/tui/styles"
)

// ConfirmDecision is the result of the confirmation dialog.
type ConfirmDecision struct {
	Approved bool
	Always   bool
}

// ConfirmDialog asks before a destructive statement runs. While it is
// open the whole request pipeline is held, so it defaults to the safe
// answer.
type ConfirmDialog struct {
	*BaseDialog

	requestID      request.ID
	statement      string
	reason         string
	selectedOption int // 0=Run once, 1=Cancel, 2=Always allow
}

// NewConfirmDialog creates a new confirmation dialog
func NewConfirmDialog() *ConfirmDialog {
	return &ConfirmDialog{
		BaseDialog:     NewBaseDialog("Destructive Statement"),
		selectedOption: 1, // default to Cancel
	}
}

// SetStatement sets the statement awaiting confirmation
func (d *ConfirmDialog) SetStatement(id request.ID, statement, reason string) {
	d.requestID = id
	d.statement = statement
	d.reason = reason
	d.selectedOption = 1
}

// Init initializes the dialog
func (d *ConfirmDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *ConfirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !d.isOpen {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			d.selectedOption = (d.selectedOption + 2) % 3
			return d, nil
		case "down", "j", "tab":
			d.selectedOption = (d.selectedOption + 1) % 3
			return d, nil
		case "esc", "n", "N":
			return d, d.decide(ConfirmDecision{})
		case "y", "Y":
			return d, d.decide(ConfirmDecision{Approved: true})
		case "a", "A":
			return d, d.decide(ConfirmDecision{Approved: true, Always: true})
		case "enter", "space":
			switch d.selectedOption {
			case 0:
				return d, d.decide(ConfirmDecision{Approved: true})
			case 1:
				return d, d.decide(ConfirmDecision{})
			case 2:
				return d, d.decide(ConfirmDecision{Approved: true, Always: true})
			}
		}
	}

	return d, nil
}

func (d *ConfirmDialog) decide(decision ConfirmDecision) tea.Cmd {
	d.SetResult(decision)
	return d.Close()
}

// View renders the dialog
func (d *ConfirmDialog) View() string {
	if !d.isOpen {
		return ""
	}

	theme := styles.CurrentTheme()
	var content strings.Builder

	content.WriteString(theme.S().Warning.Render("⚠ " + d.reason))
	content.WriteString("\n\n")

	stmtStyle := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		PaddingLeft(2)
	content.WriteString(stmtStyle.Render(clipStatement(d.statement)))
	content.WriteString("\n\n")

	content.WriteString("Run this statement?\n\n")

	buttons := []string{
		" [Y] Run once ",
		" [N] Cancel ",
		" [A] Always allow this kind ",
	}
	selectedStyle := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)
	optionStyle := lipgloss.NewStyle().PaddingLeft(2)

	for i, button := range buttons {
		if i == d.selectedOption {
			content.WriteString(selectedStyle.Render("▶ " + button))
		} else {
			content.WriteString(optionStyle.Render("  " + button))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(theme.S().Subtle.Render("↵ Enter to select • Esc to cancel"))

	return d.RenderDialog(content.String())
}

// clipStatement bounds very long statements so the dialog stays a
// dialog. The full text is still in the transcript.
func clipStatement(stmt string) string {
	const maxLines, maxCols = 8, 70
	lines := strings.Split(stmt, "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}
	for i, line := range lines {
		if len(line) > maxCols {
			lines[i] = line[:maxCols-1] + "…"
		}
	}
	return strings.Join(lines, "\n")
}
