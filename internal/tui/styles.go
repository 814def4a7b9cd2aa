package tui

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"

	"cosmo_command/internal/graph"
)

// flavor is the active catppuccin palette
var flavor catppuccin.Flavor = catppuccin.Mocha

// SetTheme selects the catppuccin flavor by name (mocha, macchiato, frappe, latte).
// Unknown names fall back to mocha.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "latte":
		flavor = catppuccin.Latte
	case "frappe", "frappé":
		flavor = catppuccin.Frappe
	case "macchiato":
		flavor = catppuccin.Macchiato
	default:
		flavor = catppuccin.Mocha
	}
}

// ColorByName returns the flavor color with the given catppuccin name
func ColorByName(name string) lipgloss.Color {
	var c catppuccin.Color
	switch strings.ToLower(name) {
	case "rosewater":
		c = flavor.Rosewater()
	case "flamingo":
		c = flavor.Flamingo()
	case "pink":
		c = flavor.Pink()
	case "mauve":
		c = flavor.Mauve()
	case "red":
		c = flavor.Red()
	case "maroon":
		c = flavor.Maroon()
	case "peach":
		c = flavor.Peach()
	case "yellow":
		c = flavor.Yellow()
	case "green":
		c = flavor.Green()
	case "teal":
		c = flavor.Teal()
	case "sky":
		c = flavor.Sky()
	case "sapphire":
		c = flavor.Sapphire()
	case "blue":
		c = flavor.Blue()
	case "lavender":
		c = flavor.Lavender()
	case "subtext1":
		c = flavor.Subtext1()
	case "subtext0":
		c = flavor.Subtext0()
	case "overlay2":
		c = flavor.Overlay2()
	case "overlay0":
		c = flavor.Overlay0()
	case "surface2":
		c = flavor.Surface2()
	case "surface1":
		c = flavor.Surface1()
	case "surface0":
		c = flavor.Surface0()
	case "text":
		c = flavor.Text()
	default:
		c = flavor.Overlay1()
	}
	return lipgloss.Color(c.Hex)
}

func hex(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

// Header styles

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(hex(flavor.Mauve()))
}

func StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Subtext0()))
}

func OfflineStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(hex(flavor.Red())).
		Foreground(hex(flavor.Base())).
		Padding(0, 1)
}

func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(hex(flavor.Red())).
		Bold(true).
		Padding(1)
}

// Tab styles

func ActiveTabStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Background(hex(flavor.Mauve())).
		Foreground(hex(flavor.Base())).
		Padding(0, 2)
}

func InactiveTabStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Overlay1())).Padding(0, 2)
}

func TabGapStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Surface2()))
}

// List styles

func ColumnHeaderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(hex(flavor.Subtext1())).
		Width(max(width, 0))
}

func SelectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(hex(flavor.Surface0())).Bold(true)
}

func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Overlay0()))
}

func TextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Text()))
}

func HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(hex(flavor.Overlay1()))
}

// StatusColorStyle colors a node or command status
func StatusColorStyle(status string) lipgloss.Style {
	var c catppuccin.Color
	switch status {
	case graph.StatusRunning:
		c = flavor.Green()
	case graph.StatusComplete:
		c = flavor.Blue()
	case graph.StatusError, graph.StatusAborted:
		c = flavor.Red()
	default:
		c = flavor.Overlay1()
	}
	return lipgloss.NewStyle().Foreground(hex(c))
}

// NodeTypeStyle colors a node name by its type
func NodeTypeStyle(t graph.NodeType) lipgloss.Style {
	var c catppuccin.Color
	switch t {
	case graph.NodeMain:
		c = flavor.Mauve()
	case graph.NodeSubAgent:
		c = flavor.Lavender()
	case graph.NodeCron:
		c = flavor.Yellow()
	case graph.NodeSession:
		c = flavor.Sky()
	default:
		c = flavor.Text()
	}
	return lipgloss.NewStyle().Foreground(hex(c)).Bold(t != graph.NodeTool)
}

// statusGlyph is the marker drawn before a node
func statusGlyph(status string) string {
	switch status {
	case graph.StatusRunning:
		return "●"
	case graph.StatusComplete:
		return "✓"
	case graph.StatusError:
		return "✗"
	case graph.StatusAborted:
		return "⊘"
	default:
		return "○"
	}
}
