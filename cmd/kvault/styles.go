package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxErrorsShown caps the error list of a batch summary.
const maxErrorsShown = 5

func printTitle(s string) { fmt.Println(titleStyle.Render(s)) }

func printField(label string, value any) {
	fmt.Printf("  %s %v\n", labelStyle.Render(label+":"), value)
}

func printWarn(format string, args ...any) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

func printErrors(errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Println(errStyle.Render("Errors:"))
	for i, e := range errs {
		if i == maxErrorsShown {
			fmt.Println(dimStyle.Render(fmt.Sprintf("  ... and %d more", len(errs)-maxErrorsShown)))
			break
		}
		fmt.Println(errStyle.Render("  - " + e))
	}
}
