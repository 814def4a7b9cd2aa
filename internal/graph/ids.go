package graph

import (
	"fmt"
	"strings"

	"cosmo_command/internal/session"
)

// MainNodeID is the id of the root node
const MainNodeID = "main"

const sessionIDPrefixLen = 8

// SessionNodeID derives a node id from a session id, or "" when the id is empty
func SessionNodeID(sessionID string) string {
	return prefix(sessionID, sessionIDPrefixLen)
}

// ToolNodeID derives the id of a tool node from its session node and the
// invocation's position in the session's full invocation list
func ToolNodeID(sessionNodeID string, ordinal int) string {
	return fmt.Sprintf("%s-tool-%d", sessionNodeID, ordinal)
}

// CommandID derives the id of a command from its session node and its index
// in the session's newest-first command list
func CommandID(sessionNodeID string, idx int) string {
	return fmt.Sprintf("%s-cmd-%d", sessionNodeID, idx)
}

// assignSessionNodeIDs maps every registry key to a node id. Sessions use the
// short session id prefix; the full registry key is used instead when the
// session id is missing or the prefix is shared with another session or with
// the main node. An id already taken, or shaped like a tool or command id, is
// never handed out, so session ids cannot collide with any derived id. The
// root session is represented by the main node and gets no entry.
func assignSessionNodeIDs(records []session.SessionRecord, rootKey string) map[string]string {
	counts := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.Key == rootKey {
			continue
		}
		if p := SessionNodeID(rec.TranscriptID()); p != "" {
			counts[p]++
		}
	}

	taken := map[string]bool{MainNodeID: true}
	usable := func(id string) bool {
		return id != "" && !taken[id] && !derivedShape(id)
	}

	ids := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.Key == rootKey {
			continue
		}

		id := SessionNodeID(rec.TranscriptID())
		if counts[id] > 1 || !usable(id) {
			id = rec.Key
		}
		for n := 1; !usable(id); n++ {
			id = fmt.Sprintf("%s~%d", rec.Key, n)
		}

		taken[id] = true
		ids[rec.Key] = id
	}
	return ids
}

// derivedShape reports whether id looks like a tool or command id
// ("<session>-tool-<n>" or "<session>-cmd-<n>")
func derivedShape(id string) bool {
	trimmed := strings.TrimRight(id, "0123456789")
	if trimmed == id {
		return false
	}
	return strings.HasSuffix(trimmed, "-tool-") || strings.HasSuffix(trimmed, "-cmd-")
}

// prefix returns the first n runes of s
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
