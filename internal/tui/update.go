package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.updateListSizes(), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m = m.applySnapshot(msg.Snapshot)
		if msg.Manual {
			return m, nil
		}
		return m, m.next()

	case SourceErrorMsg:
		m.err = msg.Err
		return m, m.next()

	case tickMsg:
		// Re-render relative timestamps
		return m, m.tickCmd()
	}
	return m, nil
}

func (m Model) next() tea.Cmd {
	if m.source == nil {
		return nil
	}
	return m.source.Next()
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.source != nil {
			m.source.Close()
		}
		return m, tea.Quit

	case "esc":
		m.viewMode = ViewGraph
		return m, nil

	case "1":
		m.viewMode = ViewGraph
		return m, nil
	case "2":
		m.viewMode = ViewCommands
		return m, nil
	case "3":
		m.viewMode = ViewTools
		return m, nil

	case "l", "right":
		m.viewMode = (m.viewMode + 1) % viewCount
		return m, nil
	case "h", "left":
		m.viewMode = (m.viewMode + viewCount - 1) % viewCount
		return m, nil

	case "r":
		if m.source == nil {
			return m, nil
		}
		return m, m.source.Refresh()
	}

	// Navigation keys go to the active list
	var cmd tea.Cmd
	l := m.activeList()
	*l, cmd = l.Update(msg)
	return m, cmd
}

// activeList returns the list shown in the current view
func (m *Model) activeList() *list.Model {
	switch m.viewMode {
	case ViewCommands:
		return &m.commandList
	case ViewTools:
		return &m.toolList
	default:
		return &m.graphList
	}
}
