package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Stderr is where the Print helpers write.
var Stderr io.Writer = os.Stderr

// theme defines the colors of diagnostic messages.
type theme struct {
	Error   lipgloss.Color
	Warning lipgloss.Color
	Dim     lipgloss.Color
}

var defaultTheme = theme{
	Error:   lipgloss.Color("#ff5f87"),
	Warning: lipgloss.Color("#ffaf00"),
	Dim:     lipgloss.Color("#6e7681"),
}

type styleSet struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Dim     lipgloss.Style
}

func newStyles(t theme) styleSet {
	return styleSet{
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Warning: lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Dim:     lipgloss.NewStyle().Foreground(t.Dim),
	}
}

var styles = newStyles(defaultTheme)

// PrintError prints an error message to stderr
func PrintError(format string, args ...any) {
	fmt.Fprintln(Stderr, styles.Error.Render("Error:")+" "+fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message to stderr
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Stderr, styles.Warning.Render("⚠")+" "+fmt.Sprintf(format, args...))
}

// PrintVerbose prints verbose output to stderr
func PrintVerbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintln(Stderr, styles.Dim.Render("[verbose] "+fmt.Sprintf(format, args...)))
	}
}
