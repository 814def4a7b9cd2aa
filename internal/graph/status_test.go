package graph

import (
	"testing"
	"time"

	"cosmo_command/internal/config"
	"cosmo_command/internal/session"
)

func TestSessionName(t *testing.T) {
	tests := []struct {
		name     string
		rec      session.SessionRecord
		expected string
	}{
		{"label", session.SessionRecord{Key: "agent:main:subagent:abc", Label: "research"}, "research"},
		{"unnamed label", session.SessionRecord{Key: "agent:main:subagent:abcdef123", Label: "unnamed"}, "Sub-Agent abcdef"},
		{"cron", session.SessionRecord{Key: "agent:main:cron:daily-report"}, "Cron Job daily-"},
		{"main kind", session.SessionRecord{Key: "agent:x:main:xyz"}, "Main xyz"},
		{"other kind", session.SessionRecord{Key: "agent:main:slack:c0123456"}, "slack c01234"},
		{"short key", session.SessionRecord{Key: "weird", SessionID: "1234567890"}, "Session 123456"},
		{"nothing", session.SessionRecord{Key: "weird"}, "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SessionName(tt.rec); got != tt.expected {
				t.Errorf("SessionName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSessionType(t *testing.T) {
	tests := map[string]NodeType{
		"agent:main:subagent:x":    NodeSubAgent,
		"agent:main:cron:x":        NodeCron,
		"agent:main:cron:subagent": NodeCron,
		"agent:main:slack:x":       NodeSession,
	}
	for key, want := range tests {
		if got := SessionType(key); got != want {
			t.Errorf("SessionType(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestRecentlyActive(t *testing.T) {
	now := time.Now()
	lv := config.DefaultConfig().Liveness

	if !RecentlyActive(now.Add(-4*time.Minute), now, lv) {
		t.Error("4 minutes ago should be recent")
	}
	if RecentlyActive(now.Add(-6*time.Minute), now, lv) {
		t.Error("6 minutes ago should not be recent")
	}
	if RecentlyActive(time.Time{}, now, lv) {
		t.Error("unknown time should not be recent")
	}
}

func TestSessionStatusBoundary(t *testing.T) {
	now := time.Now()
	lv := config.DefaultConfig().Liveness

	exactly := session.SessionRecord{UpdatedAt: session.Timestamp{Time: now.Add(-time.Minute)}}
	if got := SessionStatus(exactly, now, lv); got != StatusIdle {
		t.Errorf("age of exactly 60s = %q, want idle", got)
	}

	future := session.SessionRecord{UpdatedAt: session.Timestamp{Time: now.Add(time.Minute)}}
	if got := SessionStatus(future, now, lv); got != StatusRunning {
		t.Errorf("future timestamp = %q, want running", got)
	}
}

func TestIDHelpers(t *testing.T) {
	if got := SessionNodeID("abcdef123456"); got != "abcdef12" {
		t.Errorf("SessionNodeID = %q", got)
	}
	if got := SessionNodeID("abc"); got != "abc" {
		t.Errorf("short SessionNodeID = %q", got)
	}
	if got := ToolNodeID("abcdef12", 3); got != "abcdef12-tool-3" {
		t.Errorf("ToolNodeID = %q", got)
	}
	if got := CommandID("abcdef12", 0); got != "abcdef12-cmd-0" {
		t.Errorf("CommandID = %q", got)
	}
}

func TestAssignSessionNodeIDsAvoidsDerivedIDs(t *testing.T) {
	records := []session.SessionRecord{
		{Key: "agent:main:main", SessionID: "root0000"},
		{Key: "agent:main:subagent:a", SessionID: "ab"},
		{Key: "agent:main:subagent:b", SessionID: "ab-cmd-1xyz"},
		{Key: "abcd1234"},
		{Key: "agent:main:subagent:c", SessionID: "abcd1234-zzzz"},
		{Key: "ab-tool-2"},
	}

	ids := assignSessionNodeIDs(records, "agent:main:main")

	tests := []struct {
		key      string
		expected string
	}{
		{"agent:main:subagent:a", "ab"},
		{"agent:main:subagent:b", "agent:main:subagent:b"}, // prefix "ab-cmd-1" is a command id of "ab"
		{"abcd1234", "abcd1234"},
		{"agent:main:subagent:c", "agent:main:subagent:c"}, // prefix taken by the key above
		{"ab-tool-2", "ab-tool-2~1"},
	}
	for _, tt := range tests {
		if got := ids[tt.key]; got != tt.expected {
			t.Errorf("ids[%q] = %q, want %q", tt.key, got, tt.expected)
		}
	}
	if _, ok := ids["agent:main:main"]; ok {
		t.Error("root session should not get a session id")
	}

	// No session id may equal any tool or command id derived from another
	derived := make(map[string]bool)
	for _, id := range ids {
		for n := range 10 {
			derived[ToolNodeID(id, n)] = true
			derived[CommandID(id, n)] = true
		}
	}
	for key, id := range ids {
		if derived[id] {
			t.Errorf("session %s got id %q, which is also a derived id", key, id)
		}
	}
}

func TestDerivedShape(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"abc12345", false},
		{"ab-tool-3", true},
		{"ab-cmd-12", true},
		{"ab-tool-", false},
		{"ab-tool-3x", false},
		{"main", false},
	}
	for _, tt := range tests {
		if got := derivedShape(tt.id); got != tt.expected {
			t.Errorf("derivedShape(%q) = %v, want %v", tt.id, got, tt.expected)
		}
	}
}
