package dialog

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/pondside/parley/internal/store"
	"github.com/pondside/parley/internal/tui/events"
	"github.com/pondside/parley/internal/tui/styles"
)

// ConnectDialog lists saved connection profiles to switch to.
type ConnectDialog struct {
	*BaseDialog

	profiles      []store.Profile
	selectedIndex int
	eventBroker   *events.Broker
}

// NewConnectDialog creates a new connection picker
func NewConnectDialog(eventBroker *events.Broker) *ConnectDialog {
	return &ConnectDialog{
		BaseDialog:  NewBaseDialog("Connect"),
		eventBroker: eventBroker,
	}
}

// SetProfiles sets the available connection profiles
func (d *ConnectDialog) SetProfiles(profiles []store.Profile) {
	d.profiles = profiles
	if d.selectedIndex >= len(d.profiles) {
		d.selectedIndex = 0
	}
}

// Init initializes the dialog
func (d *ConnectDialog) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (d *ConnectDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !d.isOpen {
		return d, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return d, d.HandleEscape()
		case "up", "k":
			if d.selectedIndex > 0 {
				d.selectedIndex--
			}
		case "down", "j":
			if d.selectedIndex < len(d.profiles)-1 {
				d.selectedIndex++
			}
		case "home", "g":
			d.selectedIndex = 0
		case "end", "G":
			d.selectedIndex = len(d.profiles) - 1
		case "enter":
			if d.selectedIndex < len(d.profiles) {
				selected := d.profiles[d.selectedIndex]
				d.SetResult(selected)

				if d.eventBroker != nil {
					d.eventBroker.PublishAsync(events.Event{
						Type: events.ConnectionSelectedEvent,
						Payload: events.ConnectionSelectedPayload{
							Name: selected.Name,
						},
					})
				}

				return d, d.Close()
			}
		}
	}

	return d, nil
}

// View renders the dialog
func (d *ConnectDialog) View() string {
	if !d.isOpen {
		return ""
	}

	theme := styles.CurrentTheme()

	if len(d.profiles) == 0 {
		empty := theme.S().Muted.Render("No saved profiles.\nUse /connect <path> to open a database.")
		return d.RenderDialog(empty)
	}

	itemStyle := lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Foreground(theme.Primary).
		Bold(true)
	pathStyle := theme.S().Muted

	var items []string
	for i, profile := range d.profiles {
		var item string
		if i == d.selectedIndex {
			item = selectedStyle.Render("▶ " + profile.Name)
		} else {
			item = itemStyle.Render(profile.Name)
		}

		var badges []string
		if profile.ReadOnly {
			badges = append(badges, "ro")
		}
		if profile.Default {
			badges = append(badges, "default")
		}
		if len(badges) > 0 {
			item += " " + theme.S().Subtle.Render(fmt.Sprintf("[%s]", strings.Join(badges, ", ")))
		}

		item += "\n" + itemStyle.Render("  ") + pathStyle.Render(profile.Path)
		items = append(items, item)
	}

	instructions := theme.S().Subtle.Render("\n\n↑/↓ Navigate • Enter Connect • Esc Cancel")
	content := strings.Join(items, "\n") + instructions

	return d.RenderDialog(content)
}
