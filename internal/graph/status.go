package graph

import (
	"strings"
	"time"

	"cosmo_command/internal/config"
	"cosmo_command/internal/session"
)

// SessionStatus derives a session's liveness from its registry record
func SessionStatus(rec session.SessionRecord, now time.Time, lv config.Liveness) string {
	switch {
	case rec.AbortedLastRun:
		return StatusAborted
	case rec.Status == "completed" || rec.Status == "complete":
		return StatusComplete
	case withinWindow(rec.UpdatedAt.Time, now, lv.RunningWithin):
		return StatusRunning
	default:
		return StatusIdle
	}
}

// RecentlyActive reports whether updatedAt falls inside the recent window
func RecentlyActive(updatedAt, now time.Time, lv config.Liveness) bool {
	return withinWindow(updatedAt, now, lv.RecentWithin)
}

// withinWindow treats an unknown timestamp as outside every window. Clock skew
// that places updatedAt in the future counts as inside.
func withinWindow(t, now time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	return now.Sub(t) < window
}

// SessionType classifies a session by its registry key
func SessionType(key string) NodeType {
	switch {
	case strings.Contains(key, "cron"):
		return NodeCron
	case strings.Contains(key, "subagent"):
		return NodeSubAgent
	default:
		return NodeSession
	}
}

// SessionName picks the display name of a session node
func SessionName(rec session.SessionRecord) string {
	if rec.Label != "" && !strings.EqualFold(rec.Label, "unnamed") {
		return rec.Label
	}

	if segs := strings.Split(rec.Key, ":"); len(segs) >= 4 && segs[3] != "" {
		return kindLabel(segs[2]) + " " + prefix(segs[3], 6)
	}

	if id := rec.TranscriptID(); id != "" {
		return "Session " + prefix(id, 6)
	}
	return rec.Key
}

func kindLabel(kind string) string {
	switch kind {
	case "subagent":
		return "Sub-Agent"
	case "cron":
		return "Cron Job"
	case "main":
		return "Main"
	case "":
		return "Session"
	default:
		return kind
	}
}
