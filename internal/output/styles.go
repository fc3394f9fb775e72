package output

import "github.com/charmbracelet/lipgloss"

// Color palette: one lime accent with grays.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the styles used for result and status rendering.
type Styles struct {
	Header   lipgloss.Style
	Package  lipgloss.Style
	Class    lipgloss.Style
	Artifact lipgloss.Style
	Version  lipgloss.Style
	Label    lipgloss.Style
	Dim      lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Package:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLimeDim)),
		Class:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Artifact: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Version:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain output.
func NoColorStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Package:  plain,
		Class:    plain,
		Artifact: plain,
		Version:  plain,
		Label:    plain,
		Dim:      plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
	}
}

// GetStyles returns the styles for the color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
