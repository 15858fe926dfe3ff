package main

import (
	"os"
	"strings"
	"text/template"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// stdoutIsTTY reports whether stdout is an interactive terminal. The usage
// and help templates only apply styling when it is.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// initTemplateFormatting registers the styling helpers referenced by the
// usage template in msgs/usage-template.txt
func initTemplateFormatting() {
	bold := func(s string) string {
		if !stdoutIsTTY() {
			return s
		}
		return pterm.Bold.Sprint(s)
	}

	cobra.AddTemplateFuncs(template.FuncMap{
		"bold": bold,
		"boldUpper": func(s string) string {
			return bold(strings.ToUpper(s))
		},
	})
}
