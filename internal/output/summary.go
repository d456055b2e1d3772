package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"docgraph/internal/diag"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Summary renders a human-readable run report for the terminal. The
// JSON output is the machine surface; this is just for operators.
func Summary(result *Result, moduleCount int) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("docgraph"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d modules, %d nodes, %d diagnostics\n",
		moduleCount, len(result.Nodes), len(result.Diagnostics))))
	b.WriteString("\n")

	for _, d := range result.Diagnostics {
		style := infoStyle
		switch d.Severity {
		case diag.SeverityWarning:
			style = warningStyle
		case diag.SeverityError:
			style = errorStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%-10s", d.Kind)))
		b.WriteString(" ")
		b.WriteString(d.Module)
		b.WriteString(dimStyle.Render(" " + d.Detail))
		b.WriteString("\n")
	}

	return b.String()
}
