package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Per-format accents for plugin listings. Colors are adaptive pairs so the
// output stays readable on both light and dark terminals.
var (
	Vst2Style = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"})

	Vst3Style = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#8B5CF6", Dark: "#A78BFA"})

	ClapStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"})

	// Orphans are leftovers, not failures, so they get an attention color
	// rather than the error one
	OrphanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"})
)

// Text styles for the status and sync renderers
var (
	// SubtitleStyle marks per-directory section headers
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"})

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#495057", Dark: "#E9ECEF"})

	// MutedStyle is for secondary detail: skipped files, hints, placeholders
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"})

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"})

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"})

	PathStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"})
)

// WarningIndicator prefixes warning lines in listings and summaries
var WarningIndicator = WarningStyle.Render("!")
