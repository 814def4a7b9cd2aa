// Package graph assembles the session registry and transcripts into a
// node/link/command snapshot of the agent runtime.
package graph

import (
	"slices"
	"time"
)

// NodeType identifies what a node represents
type NodeType string

const (
	NodeMain     NodeType = "main"
	NodeSession  NodeType = "session"
	NodeSubAgent NodeType = "sub-agent"
	NodeCron     NodeType = "cron"
	NodeTool     NodeType = "tool"
)

// Status values used by session and main nodes. Tool nodes carry the
// invocation status (running, complete, error).
const (
	StatusRunning  = "running"
	StatusIdle     = "idle"
	StatusComplete = "complete"
	StatusAborted  = "aborted"
	StatusError    = "error"
)

// Node is a vertex of the graph
type Node struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          NodeType `json:"type"`
	Status        string   `json:"status"`
	SessionKey    string   `json:"sessionKey,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Model         string   `json:"model,omitempty"`
	UpdatedAt     int64    `json:"updatedAt,omitempty"`
	ToolType      string   `json:"toolType,omitempty"`
	ParentSession string   `json:"parentSession,omitempty"`
	Timestamp     int64    `json:"timestamp,omitempty"`
}

// Link is a directed edge from parent to child
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Active bool   `json:"active"`
}

// Command is a user command shown in the global command feed
type Command struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	FullContent string `json:"fullContent"`
	SessionKey  string `json:"sessionKey"`
	SessionName string `json:"sessionName"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}

// Snapshot is the assembled graph at one point in time
type Snapshot struct {
	Nodes       []Node    `json:"nodes"`
	Links       []Link    `json:"links"`
	Commands    []Command `json:"commands"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt int64     `json:"generatedAt"`
}

// EmptySnapshot returns a snapshot with no content carrying err
func EmptySnapshot(err error, now time.Time) Snapshot {
	s := Snapshot{
		Nodes:       []Node{},
		Links:       []Link{},
		Commands:    []Command{},
		GeneratedAt: now.UnixMilli(),
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Equal reports whether two snapshots describe the same graph, ignoring
// when they were generated
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Error == other.Error &&
		slices.Equal(s.Nodes, other.Nodes) &&
		slices.Equal(s.Links, other.Links) &&
		slices.Equal(s.Commands, other.Commands)
}

// Node returns the node with the given id
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the ids of nodes linked from id, in link order
func (s Snapshot) Children(id string) []string {
	var out []string
	for _, l := range s.Links {
		if l.Source == id {
			out = append(out, l.Target)
		}
	}
	return out
}

// Tools returns the tool nodes in snapshot order
func (s Snapshot) Tools() []Node {
	var out []Node
	for _, n := range s.Nodes {
		if n.Type == NodeTool {
			out = append(out, n)
		}
	}
	return out
}
