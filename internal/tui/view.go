package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI based on the model state
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderViewTabs())
	b.WriteString("\n")

	switch {
	case !m.hasSnapshot && m.err != nil:
		b.WriteString(ErrorStyle().Render(fmt.Sprintf("Session data unreachable: %v", m.err)))
	case !m.hasSnapshot:
		b.WriteString(StatusStyle().Render("Waiting for first snapshot..."))
	default:
		b.WriteString(m.renderColumnHeaders())
		b.WriteString("\n")
		b.WriteString(m.activeListView())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) activeListView() string {
	switch m.viewMode {
	case ViewCommands:
		if len(m.snapshot.Commands) == 0 {
			return MutedStyle().Render("  No commands yet")
		}
		return m.commandList.View()
	case ViewTools:
		if len(m.snapshot.Tools()) == 0 {
			return MutedStyle().Render("  No tool activity")
		}
		return m.toolList.View()
	default:
		return m.graphList.View()
	}
}

// renderHeader renders the top header bar
func (m Model) renderHeader() string {
	name := m.agentName
	if name == "" {
		name = "Agent"
	}
	title := TitleStyle().Render(name + " Command")

	total, running, recent := m.sessionCounts(time.Now())
	var status string
	switch {
	case !m.hasSnapshot:
		status = StatusStyle().Render("no data")
	case total == 0:
		status = StatusStyle().Render("No sessions found")
	default:
		status = StatusStyle().Render(fmt.Sprintf(
			"%d sessions (%d running, %d recent) · %d tools",
			total, running, recent, len(m.snapshot.Tools()),
		))
	}

	var badge string
	if m.Offline() {
		badge = " " + OfflineStyle().Render("OFFLINE") + " " +
			ErrorStyle().Padding(0).Render(truncate(m.err.Error(), 60))
	} else if m.source != nil {
		badge = " " + MutedStyle().Render(m.source.Name())
	}

	leftPart := lipgloss.Width(title)
	rightPart := lipgloss.Width(status) + lipgloss.Width(badge)
	spacing := max(m.width-leftPart-rightPart-4, 1)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", spacing),
		status,
		badge,
	)
}

// renderViewTabs renders the tab bar for view modes
func (m Model) renderViewTabs() string {
	tabs := []struct {
		name string
		mode ViewMode
		key  string
	}{
		{"Graph", ViewGraph, "1"},
		{"Commands", ViewCommands, "2"},
		{"Tools", ViewTools, "3"},
	}

	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		label := fmt.Sprintf("%s %s", t.key, t.name)
		if t.mode == m.viewMode {
			rendered[i] = ActiveTabStyle().Render(label)
		} else {
			rendered[i] = InactiveTabStyle().Render(label)
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	gap := strings.Repeat("─", max(0, m.width-lipgloss.Width(row)-2))

	return row + TabGapStyle().Render(gap)
}

// renderColumnHeaders renders column headers for the active view
func (m Model) renderColumnHeaders() string {
	var header string
	switch m.viewMode {
	case ViewCommands:
		header = fmt.Sprintf("%s   %s  %s",
			padRight("Time", CommandTimeWidth),
			padRight("Session", CommandSessionWidth),
			"Command")
	case ViewTools:
		header = fmt.Sprintf("%s  %s  %s  %s",
			padRight("Tool", ToolNameWidth),
			padRight("Type", ToolTypeWidth),
			padRight("Status", ToolStatusWidth),
			"Session")
	default:
		header = "  Node"
	}
	return ColumnHeaderStyle(m.width - 4).Render(header)
}

// renderHelp renders the help footer
func (m Model) renderHelp() string {
	help := []string{
		"j/k:navigate",
		"1-3/h/l:switch view",
	}
	if m.viewMode != ViewGraph {
		help = append(help, "esc:back")
	}
	help = append(help, "r:refresh", "q:quit")

	if !m.lastUpdate.IsZero() {
		help = append(help, "updated "+m.lastUpdate.Format("15:04:05"))
	}
	return HelpStyle().Render(strings.Join(help, " | "))
}
