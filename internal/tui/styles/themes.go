package styles

import "github.com/charmbracelet/lipgloss/v2"

// DarkTheme is the default look: muted slate backgrounds with a teal
// accent, tuned for dark terminals.
func DarkTheme() *Theme {
	return &Theme{
		Name:   "dark",
		IsDark: true,

		Primary:   lipgloss.Color("#2DD4BF"),
		Secondary: lipgloss.Color("#818CF8"),
		Accent:    lipgloss.Color("#5EEAD4"),

		BgBase:    lipgloss.Color("#0F172A"),
		BgSubtle:  lipgloss.Color("#1E293B"),
		BgOverlay: lipgloss.Color("#334155"),

		FgBase:     lipgloss.Color("#E2E8F0"),
		FgMuted:    lipgloss.Color("#94A3B8"),
		FgSubtle:   lipgloss.Color("#64748B"),
		FgInverted: lipgloss.Color("#0F172A"),

		Border:      lipgloss.Color("#334155"),
		BorderFocus: lipgloss.Color("#2DD4BF"),

		Success: lipgloss.Color("#4ADE80"),
		Error:   lipgloss.Color("#F87171"),
		Warning: lipgloss.Color("#FBBF24"),
		Info:    lipgloss.Color("#60A5FA"),
	}
}

// LightTheme is the same palette flipped for light terminals.
func LightTheme() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Primary:   lipgloss.Color("#0D9488"),
		Secondary: lipgloss.Color("#4F46E5"),
		Accent:    lipgloss.Color("#0F766E"),

		BgBase:    lipgloss.Color("#F8FAFC"),
		BgSubtle:  lipgloss.Color("#E2E8F0"),
		BgOverlay: lipgloss.Color("#CBD5E1"),

		FgBase:     lipgloss.Color("#1E293B"),
		FgMuted:    lipgloss.Color("#475569"),
		FgSubtle:   lipgloss.Color("#94A3B8"),
		FgInverted: lipgloss.Color("#F8FAFC"),

		Border:      lipgloss.Color("#CBD5E1"),
		BorderFocus: lipgloss.Color("#0D9488"),

		Success: lipgloss.Color("#16A34A"),
		Error:   lipgloss.Color("#DC2626"),
		Warning: lipgloss.Color("#D97706"),
		Info:    lipgloss.Color("#2563EB"),
	}
}
