package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"cosmo_command/internal/config"
	"cosmo_command/internal/graph"
)

// ViewMode represents the current view
type ViewMode int

const (
	ViewGraph    ViewMode = iota // Tree of main, sessions and tools
	ViewCommands                 // Global command feed
	ViewTools                    // Flat list of recent tool invocations
)

const viewCount = 3

// ModelOptions configures the dashboard
type ModelOptions struct {
	Source    Source
	AgentName string
	Liveness  config.Liveness

	// ToolColor maps a tool category to a catppuccin color name
	ToolColor func(category string) string
}

// Model represents the application state
type Model struct {
	source    Source
	agentName string
	liveness  config.Liveness
	viewMode  ViewMode

	// Last snapshot without an error; kept on screen while the source fails
	snapshot    graph.Snapshot
	hasSnapshot bool
	lastUpdate  time.Time

	// Current failure, cleared by the next good snapshot
	err error

	// UI components
	graphList   list.Model
	commandList list.Model
	toolList    list.Model

	// Delegates (stored to update width)
	graphDelegate   *graphDelegate
	commandDelegate *commandDelegate
	toolDelegate    *toolDelegate

	// UI dimensions
	width  int
	height int
}

// NewModel creates a new Model with initialized state
func NewModel(opts ModelOptions) Model {
	liveness := opts.Liveness
	if liveness.RunningWithin == 0 || liveness.RecentWithin == 0 {
		liveness = config.DefaultConfig().Liveness
	}

	toolColor := opts.ToolColor
	if toolColor == nil {
		toolColor = func(string) string { return "" }
	}

	graphDel := &graphDelegate{toolColor: toolColor}
	commandDel := &commandDelegate{}
	toolDel := &toolDelegate{toolColor: toolColor}

	m := Model{
		source:          opts.Source,
		agentName:       opts.AgentName,
		liveness:        liveness,
		viewMode:        ViewGraph,
		graphDelegate:   graphDel,
		commandDelegate: commandDel,
		toolDelegate:    toolDel,
	}

	m.graphList = newList(graphDel)
	m.commandList = newList(commandDel)
	m.toolList = newList(toolDel)

	return m
}

func newList(delegate list.ItemDelegate) list.Model {
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd()}
	if m.source != nil {
		cmds = append(cmds, m.source.Start())
	}
	return tea.Batch(cmds...)
}

type tickMsg time.Time

// tickCmd ticks every 30 seconds to refresh relative timestamps
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// applySnapshot records a snapshot. Snapshots carrying an error leave the
// last good one in place.
func (m Model) applySnapshot(snap graph.Snapshot) Model {
	if snap.Error != "" {
		m.err = snapshotError(snap.Error)
		return m
	}

	m.snapshot = snap
	m.hasSnapshot = true
	m.lastUpdate = time.Now()
	m.err = nil
	return m.updateLists()
}

type snapshotError string

func (e snapshotError) Error() string { return string(e) }

// Offline reports whether the source is currently failing
func (m Model) Offline() bool {
	return m.err != nil
}

// updateLists rebuilds every list from the current snapshot
func (m Model) updateLists() Model {
	m.graphList.SetItems(treeItems(m.snapshot))

	cmds := make([]list.Item, len(m.snapshot.Commands))
	for i, c := range m.snapshot.Commands {
		cmds[i] = commandItem{command: c}
	}
	m.commandList.SetItems(cmds)

	sessionNames := make(map[string]string)
	for _, n := range m.snapshot.Nodes {
		if n.Type != graph.NodeTool {
			sessionNames[n.ID] = n.Name
		}
	}
	tools := m.snapshot.Tools()
	toolItems := make([]list.Item, len(tools))
	for i, t := range tools {
		toolItems[i] = toolItem{node: t, sessionName: sessionNames[t.ParentSession]}
	}
	m.toolList.SetItems(toolItems)

	return m
}

// treeItems flattens the snapshot into rows of a depth-first tree walk
// starting at the main node
func treeItems(snap graph.Snapshot) []list.Item {
	nodes := make(map[string]graph.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes[n.ID] = n
	}

	var items []list.Item
	visited := make(map[string]bool)
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n, ok := nodes[id]
		if !ok || visited[id] {
			return
		}
		visited[id] = true
		items = append(items, graphItem{node: n, depth: depth})
		for _, child := range snap.Children(id) {
			walk(child, depth+1)
		}
	}
	walk(graph.MainNodeID, 0)

	// Nodes unreachable from main still get listed
	for _, n := range snap.Nodes {
		if !visited[n.ID] {
			walk(n.ID, 0)
		}
	}
	return items
}

// updateListSizes updates list dimensions based on terminal size
func (m Model) updateListSizes() Model {
	// Reserve space for header (2), tabs (2), column headers (1), help (2), margins (2)
	listHeight := max(m.height-9, 5)
	listWidth := max(m.width-4, 20)

	m.graphDelegate.SetWidth(listWidth)
	m.commandDelegate.SetWidth(listWidth)
	m.toolDelegate.SetWidth(listWidth)

	m.graphList.SetSize(listWidth, listHeight)
	m.commandList.SetSize(listWidth, listHeight)
	m.toolList.SetSize(listWidth, listHeight)

	return m
}

// sessionCounts returns the number of session nodes, how many are running,
// and how many were active within the recent window
func (m Model) sessionCounts(now time.Time) (total, running, recent int) {
	for _, n := range m.snapshot.Nodes {
		if n.Type == graph.NodeMain || n.Type == graph.NodeTool {
			continue
		}
		total++
		if n.Status == graph.StatusRunning {
			running++
		}
		if n.UpdatedAt != 0 && graph.RecentlyActive(time.UnixMilli(n.UpdatedAt), now, m.liveness) {
			recent++
		}
	}
	return total, running, recent
}
