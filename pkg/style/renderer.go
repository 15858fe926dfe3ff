package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/config"
	"github.com/robbert-vdh/yabridge/pkg/errors"
)

// Renderer defines the interface for rendering command results
type Renderer interface {
	RenderStatus(res *commands.StatusResult) string
	RenderSync(res *commands.SyncResult, verbose bool) string
	RenderWarnings(warnings []string) string
	RenderError(err error) string
}

// TerminalRenderer implements Renderer with rich terminal output
type TerminalRenderer struct {
	width int
}

// NewTerminalRenderer creates a new terminal renderer
func NewTerminalRenderer() *TerminalRenderer {
	return &TerminalRenderer{
		width: 80, // Default width, can be updated
	}
}

// SetWidth updates the terminal width for rendering
func (r *TerminalRenderer) SetWidth(width int) {
	r.width = width
}

// RenderStatus renders the full status report: the active configuration,
// the resolved yabridge files and one section per tracked directory.
func (r *TerminalRenderer) RenderStatus(res *commands.StatusResult) string {
	var result strings.Builder

	home := "<auto>"
	if res.YabridgeHome != "" {
		home = fmt.Sprintf("'%s'", res.YabridgeHome)
	}
	result.WriteString("yabridge path: " + home + "\n")
	result.WriteString("vst2 location: " + string(res.Vst2Location) + "\n")

	if res.NoVerify {
		result.WriteString("verification: " + MutedStyle.Render("disabled") + "\n")
	} else {
		result.WriteString("verification: enabled\n")
	}

	if res.Files != nil {
		result.WriteString(r.renderFileLine(config.Vst2ChainloaderName, res.Files.Vst2Chainloader.Path))
		result.WriteString(r.renderFileLine(config.Vst3ChainloaderName, res.Files.Vst3Chainloader.Path))
		result.WriteString(r.renderFileLine(config.ClapChainloaderName, res.Files.ClapChainloader.Path))
		result.WriteString(r.renderFileLine(config.HostExeName, res.Files.HostExe))

		// The 32-bit host is optional, its absence only matters for
		// 32-bit plugins
		if res.Files.Host32Exe != "" {
			result.WriteString(r.renderFileLine(config.Host32ExeName, res.Files.Host32Exe))
		} else {
			result.WriteString(config.Host32ExeName + ": " + MutedStyle.Render("<not installed>") + "\n")
		}
	} else {
		result.WriteString("yabridge files: " + ErrorStyle.Render("<not found>") + "\n")
		if res.FilesError != "" {
			result.WriteString(MutedStyle.Render("  "+res.FilesError) + "\n")
		}
	}

	for _, root := range res.Roots {
		result.WriteString("\n" + RenderRootStatus(root) + "\n")
	}

	return strings.TrimRight(result.String(), "\n")
}

func (r *TerminalRenderer) renderFileLine(name, path string) string {
	if path == "" {
		return name + ": " + ErrorStyle.Render("<not found>") + "\n"
	}
	return name + ": " + PathStyle.Render("'"+path+"'") + "\n"
}

// RenderSync renders the sync summary. With verbose set, every directory
// section lists the plugins that were set up and the files that were
// skipped.
func (r *TerminalRenderer) RenderSync(res *commands.SyncResult, verbose bool) string {
	var result strings.Builder

	if verbose {
		roots := make([]string, 0, len(res.Roots))
		for root := range res.Roots {
			roots = append(roots, root)
		}
		sort.Strings(roots)

		for _, root := range roots {
			search := res.Roots[root]
			result.WriteString(SubtitleStyle.Render(root+":") + "\n")

			for _, plugin := range search.Plugins {
				result.WriteString(fmt.Sprintf("  %s :: %s, %s\n",
					relativeTo(root, displayPath(plugin)),
					FormatStyle(plugin.Format).Render(string(plugin.Format)),
					plugin.Arch))
			}
			for _, skipped := range search.SkippedFiles {
				result.WriteString(MutedStyle.Render(fmt.Sprintf("  skipped %s", relativeTo(root, skipped))) + "\n")
			}

			result.WriteString("\n")
		}
	}

	summary := fmt.Sprintf("Finished setting up %d plugins", res.Installed)
	if res.NewFiles > 0 {
		summary += fmt.Sprintf(" (%d new files)", res.NewFiles)
	}
	if len(res.SkippedFiles) > 0 {
		summary += fmt.Sprintf(", skipped %d non-plugin files", len(res.SkippedFiles))
	}
	result.WriteString(summary + "\n")

	if res.OrphansRemoved > 0 {
		result.WriteString(fmt.Sprintf("Removed %d leftover files\n", res.OrphansRemoved))
	} else if len(res.Orphans) > 0 {
		header := fmt.Sprintf("Found %d files from plugins that no longer exist:", len(res.Orphans))
		result.WriteString(WarningStyle.Render(header) + "\n")
		for _, orphan := range res.Orphans {
			result.WriteString("  " + OrphanStyle.Render(orphan) + "\n")
		}
		result.WriteString(MutedStyle.Render("Run 'yabridgectl sync --prune' to remove them") + "\n")
	}

	return strings.TrimRight(result.String(), "\n")
}

// RenderWarnings renders one line per warning
func (r *TerminalRenderer) RenderWarnings(warnings []string) string {
	var result strings.Builder

	for _, warning := range warnings {
		result.WriteString(fmt.Sprintf("%s %s\n", WarningIndicator, warning))
	}

	return strings.TrimRight(result.String(), "\n")
}

// RenderError renders an error message
func (r *TerminalRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}

	var ctlErr *errors.CtlError
	if errors.As(err, &ctlErr) {
		message := ctlErr.Message
		if ctlErr.Wrapped != nil {
			message += ": " + ctlErr.Wrapped.Error()
		}

		return fmt.Sprintf("%s %s %s",
			pterm.Error.Prefix.Text,
			pterm.Error.MessageStyle.Sprint("["+string(ctlErr.Code)+"]"),
			message)
	}

	return fmt.Sprintf("%s %s", pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(err.Error()))
}

// Confirm asks an interactive yes/no question, returning false unless the
// user explicitly answers yes.
func Confirm(prompt string) bool {
	answer, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	if err != nil {
		return false
	}
	return answer
}

// PlainRenderer implements Renderer with plain text output (no styling)
type PlainRenderer struct{}

// NewPlainRenderer creates a new plain text renderer
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{}
}

// RenderStatus renders a plain status report
func (r *PlainRenderer) RenderStatus(res *commands.StatusResult) string {
	var result strings.Builder

	home := "<auto>"
	if res.YabridgeHome != "" {
		home = fmt.Sprintf("'%s'", res.YabridgeHome)
	}
	result.WriteString("yabridge path: " + home + "\n")
	result.WriteString("vst2 location: " + string(res.Vst2Location) + "\n")

	if res.NoVerify {
		result.WriteString("verification: disabled\n")
	} else {
		result.WriteString("verification: enabled\n")
	}

	if res.Files != nil {
		result.WriteString(r.renderFileLine(config.Vst2ChainloaderName, res.Files.Vst2Chainloader.Path))
		result.WriteString(r.renderFileLine(config.Vst3ChainloaderName, res.Files.Vst3Chainloader.Path))
		result.WriteString(r.renderFileLine(config.ClapChainloaderName, res.Files.ClapChainloader.Path))
		result.WriteString(r.renderFileLine(config.HostExeName, res.Files.HostExe))
		if res.Files.Host32Exe != "" {
			result.WriteString(r.renderFileLine(config.Host32ExeName, res.Files.Host32Exe))
		} else {
			result.WriteString(config.Host32ExeName + ": <not installed>\n")
		}
	} else {
		result.WriteString("yabridge files: <not found>\n")
		if res.FilesError != "" {
			result.WriteString("  " + res.FilesError + "\n")
		}
	}

	for _, root := range res.Roots {
		result.WriteString("\n" + root.Root + ":\n")
		if len(root.Plugins) == 0 {
			result.WriteString("  no plugins found\n")
		}
		for _, status := range root.Plugins {
			state := InstallStateOf(status.Installed)
			result.WriteString(fmt.Sprintf("  %s :: %s, %s, %s\n",
				relativeTo(root.Root, displayPath(status.Plugin)),
				status.Plugin.Format,
				status.Plugin.Arch,
				state))
		}
		for _, warning := range root.Warnings {
			result.WriteString("  warning: " + warning + "\n")
		}
	}

	return strings.TrimRight(result.String(), "\n")
}

func (r *PlainRenderer) renderFileLine(name, path string) string {
	if path == "" {
		return name + ": <not found>\n"
	}
	return fmt.Sprintf("%s: '%s'\n", name, path)
}

// RenderSync renders a plain sync summary
func (r *PlainRenderer) RenderSync(res *commands.SyncResult, verbose bool) string {
	var result strings.Builder

	if verbose {
		roots := make([]string, 0, len(res.Roots))
		for root := range res.Roots {
			roots = append(roots, root)
		}
		sort.Strings(roots)

		for _, root := range roots {
			search := res.Roots[root]
			result.WriteString(root + ":\n")

			for _, plugin := range search.Plugins {
				result.WriteString(fmt.Sprintf("  %s :: %s, %s\n",
					relativeTo(root, displayPath(plugin)),
					plugin.Format,
					plugin.Arch))
			}
			for _, skipped := range search.SkippedFiles {
				result.WriteString(fmt.Sprintf("  skipped %s\n", relativeTo(root, skipped)))
			}

			result.WriteString("\n")
		}
	}

	summary := fmt.Sprintf("Finished setting up %d plugins", res.Installed)
	if res.NewFiles > 0 {
		summary += fmt.Sprintf(" (%d new files)", res.NewFiles)
	}
	if len(res.SkippedFiles) > 0 {
		summary += fmt.Sprintf(", skipped %d non-plugin files", len(res.SkippedFiles))
	}
	result.WriteString(summary + "\n")

	if res.OrphansRemoved > 0 {
		result.WriteString(fmt.Sprintf("Removed %d leftover files\n", res.OrphansRemoved))
	} else if len(res.Orphans) > 0 {
		result.WriteString(fmt.Sprintf("Found %d files from plugins that no longer exist:\n", len(res.Orphans)))
		for _, orphan := range res.Orphans {
			result.WriteString("  " + orphan + "\n")
		}
		result.WriteString("Run 'yabridgectl sync --prune' to remove them\n")
	}

	return strings.TrimRight(result.String(), "\n")
}

// RenderWarnings renders plain warnings
func (r *PlainRenderer) RenderWarnings(warnings []string) string {
	var result strings.Builder

	for _, warning := range warnings {
		result.WriteString("warning: " + warning + "\n")
	}

	return strings.TrimRight(result.String(), "\n")
}

// RenderError renders a plain error message
func (r *PlainRenderer) RenderError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", err.Error())
}
