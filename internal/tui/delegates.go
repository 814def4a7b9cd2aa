package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cosmo_command/internal/graph"
)

// Column widths shared by delegates and headers
const (
	CommandTimeWidth    = 8
	CommandSessionWidth = 20
	ToolNameWidth       = 20
	ToolTypeWidth       = 10
	ToolStatusWidth     = 10
)

// ============================================================================
// Graph Item
// ============================================================================

// graphItem is one row of the tree view
type graphItem struct {
	node  graph.Node
	depth int
}

func (i graphItem) FilterValue() string { return i.node.Name }

// graphDelegate renders tree rows
type graphDelegate struct {
	width     int
	toolColor func(string) string
}

func (d *graphDelegate) SetWidth(w int)                          { d.width = w }
func (d *graphDelegate) Height() int                             { return 1 }
func (d *graphDelegate) Spacing() int                            { return 0 }
func (d *graphDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d *graphDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(graphItem)
	if !ok {
		return
	}
	n := i.node

	indent := strings.Repeat("  ", i.depth)
	glyph := StatusColorStyle(n.Status).Render(statusGlyph(n.Status))

	nameStyle := NodeTypeStyle(n.Type)
	if n.Type == graph.NodeTool {
		if c := d.toolColor(n.ToolType); c != "" {
			nameStyle = nameStyle.Foreground(ColorByName(c))
		}
	}
	if index == m.Index() {
		nameStyle = nameStyle.Inherit(SelectedStyle())
	}

	var detail string
	switch n.Type {
	case graph.NodeTool:
		detail = fmt.Sprintf("%s · %s", n.ToolType, n.Status)
	case graph.NodeMain:
		detail = n.Model
	default:
		parts := []string{string(n.Type), n.Status}
		if n.UpdatedAt != 0 {
			parts = append(parts, formatTimeAgo(time.UnixMilli(n.UpdatedAt)))
		}
		if n.Model != "" {
			parts = append(parts, n.Model)
		}
		detail = strings.Join(parts, " · ")
	}

	line := fmt.Sprintf("%s%s %s  %s", indent, glyph, nameStyle.Render(n.Name), MutedStyle().Render(detail))
	fmt.Fprint(w, truncateDisplay(line, d.width))
}

// ============================================================================
// Command Item
// ============================================================================

// commandItem wraps a Command for the list component
type commandItem struct {
	command graph.Command
}

func (i commandItem) FilterValue() string { return i.command.FullContent }

// commandDelegate renders command rows
type commandDelegate struct {
	width int
}

func (d *commandDelegate) SetWidth(w int)                          { d.width = w }
func (d *commandDelegate) Height() int                             { return 1 }
func (d *commandDelegate) Spacing() int                            { return 0 }
func (d *commandDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d *commandDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(commandItem)
	if !ok {
		return
	}
	c := i.command

	ts := "--:--:--"
	if c.Timestamp != 0 {
		ts = time.UnixMilli(c.Timestamp).Format("15:04:05")
	}

	glyph := StatusColorStyle(c.Status).Render(statusGlyph(c.Status))
	session := padRight(truncate(c.SessionName, CommandSessionWidth), CommandSessionWidth)

	style := TextStyle()
	if index == m.Index() {
		style = style.Inherit(SelectedStyle())
	}

	line := fmt.Sprintf("%s %s  %s  %s",
		MutedStyle().Render(ts),
		glyph,
		StatusStyle().Render(session),
		style.Render(singleLine(c.Content)),
	)
	fmt.Fprint(w, truncateDisplay(line, d.width))
}

// ============================================================================
// Tool Item
// ============================================================================

// toolItem wraps a tool node for the list component
type toolItem struct {
	node        graph.Node
	sessionName string
}

func (i toolItem) FilterValue() string { return i.node.Name }

// toolDelegate renders tool rows
type toolDelegate struct {
	width     int
	toolColor func(string) string
}

func (d *toolDelegate) SetWidth(w int)                          { d.width = w }
func (d *toolDelegate) Height() int                             { return 1 }
func (d *toolDelegate) Spacing() int                            { return 0 }
func (d *toolDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d *toolDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(toolItem)
	if !ok {
		return
	}
	n := i.node

	typeStyle := MutedStyle()
	if c := d.toolColor(n.ToolType); c != "" {
		typeStyle = lipgloss.NewStyle().Foreground(ColorByName(c))
	}

	nameStyle := TextStyle()
	if index == m.Index() {
		nameStyle = nameStyle.Inherit(SelectedStyle())
	}

	line := fmt.Sprintf("%s  %s  %s  %s",
		nameStyle.Render(padRight(truncate(n.Name, ToolNameWidth), ToolNameWidth)),
		typeStyle.Render(padRight(n.ToolType, ToolTypeWidth)),
		StatusColorStyle(n.Status).Render(padRight(statusGlyph(n.Status)+" "+n.Status, ToolStatusWidth)),
		MutedStyle().Render(i.sessionName),
	)
	fmt.Fprint(w, truncateDisplay(line, d.width))
}

// ============================================================================
// Helper Functions
// ============================================================================

// formatTimeAgo returns a human-readable relative time string
func formatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}

// truncate shortens a string to maxLen terminal cells with an ellipsis
func truncate(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 2 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "…")
}

// truncateDisplay cuts a styled line to the given cell width
func truncateDisplay(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// singleLine collapses newlines so a command fits on one row
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// padRight pads a string with spaces on the right to reach target width
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
