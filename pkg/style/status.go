package style

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/robbert-vdh/yabridge/pkg/commands"
	"github.com/robbert-vdh/yabridge/pkg/installer"
	"github.com/robbert-vdh/yabridge/pkg/plugins"
	"github.com/robbert-vdh/yabridge/pkg/types"
)

// InstallState describes what occupies a plugin's install target.
type InstallState string

const (
	StateCopy      InstallState = "copy"          // Chainloader copy in place
	StateSymlink   InstallState = "symlink"       // Symlink in place
	StateDirectory InstallState = "directory"     // A directory blocks the target
	StateMissing   InstallState = "not installed" // Nothing at the target yet
)

// InstallStateOf classifies whatever status observation found at the
// install target.
func InstallStateOf(installed *types.NativeFile) InstallState {
	if installed == nil {
		return StateMissing
	}

	switch installed.Kind {
	case types.FileSymlink:
		return StateSymlink
	case types.FileDirectory:
		return StateDirectory
	default:
		return StateCopy
	}
}

// StateStyle returns the appropriate pterm style for an install state
func StateStyle(state InstallState) *pterm.Style {
	switch state {
	case StateCopy, StateSymlink:
		return pterm.NewStyle(pterm.FgGreen)
	case StateDirectory:
		return pterm.NewStyle(pterm.FgYellow)
	case StateMissing:
		return pterm.NewStyle(pterm.FgRed)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// FormatStyle returns the lipgloss style for a plugin format tag
func FormatStyle(format plugins.Format) lipgloss.Style {
	switch format {
	case plugins.FormatVst2:
		return Vst2Style
	case plugins.FormatVst3:
		return Vst3Style
	case plugins.FormatClap:
		return ClapStyle
	default:
		return NormalStyle
	}
}

// RenderPluginStatus renders a single plugin line within a directory
// section: the path the user recognizes, the format, the architecture and
// what currently occupies the install target.
func RenderPluginStatus(root string, status installer.InstallStatus) string {
	state := InstallStateOf(status.Installed)

	return fmt.Sprintf("  %s :: %s, %s, %s",
		relativeTo(root, displayPath(status.Plugin)),
		FormatStyle(status.Plugin.Format).Render(string(status.Plugin.Format)),
		status.Plugin.Arch,
		StateStyle(state).Sprint(string(state)))
}

// RenderRootStatus renders one tracked directory section: the directory
// itself followed by one line per discovered plugin.
func RenderRootStatus(rs commands.RootStatus) string {
	var result strings.Builder

	header := rs.Root + ":"
	if AllInstalled(rs.Plugins) {
		header = SubtitleStyle.Render(header)
	} else {
		header = WarningStyle.Render(header)
	}
	result.WriteString(header + "\n")

	if len(rs.Plugins) == 0 {
		result.WriteString(MutedStyle.Render("  no plugins found") + "\n")
	}

	for _, status := range rs.Plugins {
		result.WriteString(RenderPluginStatus(rs.Root, status) + "\n")
	}

	for _, warning := range rs.Warnings {
		result.WriteString(fmt.Sprintf("  %s %s\n", WarningIndicator, warning))
	}

	return strings.TrimRight(result.String(), "\n")
}

// AllInstalled reports whether every discovered plugin has an artifact at
// its install target. Directory sections with unbridged plugins get a
// warning colored header.
func AllInstalled(statuses []installer.InstallStatus) bool {
	for _, status := range statuses {
		if status.Installed == nil {
			return false
		}
	}

	return true
}

// displayPath is the path the user recognizes: the bundle root for VST3
// bundle plugins, the module itself for everything else.
func displayPath(plugin plugins.Plugin) string {
	if plugin.Bundle != "" {
		return plugin.Bundle
	}
	return plugin.Path
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
