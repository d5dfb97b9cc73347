package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#1f2937", Dark: "#f3f4f6"}
	ColorTextDim   = lipgloss.AdaptiveColor{Light: "#4b5563", Dark: "#9ca3af"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#9ca3af", Dark: "#6b7280"}
)

// ─── Icons ───────────────────────────────────────────────────────────────────

const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconShield  = "◆"
	IconBullet  = "•"
	IconPipe    = "│"
	IconArrow   = "›"
)

// ─── Styles ──────────────────────────────────────────────────────────────────

// TitleStyle renders section headings.
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
}

// MutedStyle renders secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// SuccessStyle renders positive outcomes.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// WarningStyle renders protected / cautionary outcomes.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// ErrorStyle renders failures.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// HintBarStyle renders the key-hint footer.
func HintBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
}

// Rule returns a horizontal divider of the given width.
func Rule(width int) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().Foreground(ColorPrimary).Render(strings.Repeat("═", width))
}

// FormatSize returns a human-readable IEC size (e.g. "12 MiB").
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}
