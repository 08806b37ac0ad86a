package tui

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	baseFg    = lipgloss.Color("#E6E6E6")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	hoverFg   = lipgloss.Color("#FFA500")
	borderCol = lipgloss.Color("#243141")

	appStyle   = lipgloss.NewStyle().Foreground(baseFg)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
)

// ramp is a sequential yellow to red scheme, light to dark.
var ramp = []lipgloss.Color{
	"#FFFFB2", "#FED976", "#FEB24C", "#FD8D3C", "#FC4E2A", "#E31A1C", "#BD0026", "#800026",
}

// classColor spreads n classes evenly over the ramp.
func classColor(class, n int) lipgloss.TerminalColor {
	switch {
	case class == clsOverlay:
		return accentFg
	case class == clsHover:
		return hoverFg
	case class < 0 || n <= 0:
		return baseDimFg
	case n == 1:
		return ramp[len(ramp)/2]
	}
	i := class * (len(ramp) - 1) / (n - 1)
	return ramp[min(i, len(ramp)-1)]
}
