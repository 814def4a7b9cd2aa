package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRegistryPreservesOrder(t *testing.T) {
	data := []byte(`{
		"agent:main:main": {"sessionId":"aaaa1111-x","updatedAt":1767225600000},
		"agent:main:subagent:zzz": {"sessionId":"bbbb2222-y","spawnedBy":"agent:main:main","label":"research"},
		"agent:main:cron:daily": {"id":"cccc3333-z","status":"completed"}
	}`)

	reg, err := ParseRegistry(data)
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}

	want := "agent:main:main,agent:main:subagent:zzz,agent:main:cron:daily"
	if got := strings.Join(reg.Keys, ","); got != want {
		t.Errorf("keys = %q, want %q", got, want)
	}

	sub, ok := reg.Get("agent:main:subagent:zzz")
	if !ok || sub.Label != "research" || sub.Key != "agent:main:subagent:zzz" {
		t.Errorf("unexpected record: %+v", sub)
	}

	cron, _ := reg.Get("agent:main:cron:daily")
	if cron.TranscriptID() != "cccc3333-z" {
		t.Errorf("legacy id fallback = %q", cron.TranscriptID())
	}

	main, _ := reg.Get("agent:main:main")
	if main.UpdatedAt.Millis() != 1767225600000 {
		t.Errorf("updatedAt = %d", main.UpdatedAt.Millis())
	}
	if len(reg.All()) != 3 || reg.Len() != 3 {
		t.Errorf("expected 3 records")
	}
}

func TestParseRegistryDuplicateKey(t *testing.T) {
	reg, err := ParseRegistry([]byte(`{"a":{"label":"one"},"b":{},"a":{"label":"two"}}`))
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	if strings.Join(reg.Keys, ",") != "a,b" {
		t.Errorf("keys = %v", reg.Keys)
	}
	if rec, _ := reg.Get("a"); rec.Label != "two" {
		t.Errorf("duplicate key should keep last value, got %q", rec.Label)
	}
}

func TestParseRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"a":{`},
		{"array", `[]`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "registry decode") {
				t.Errorf("error %q should mention registry decode", err)
			}
		})
	}
}

func TestParseRegistrySkipsInvalidEntries(t *testing.T) {
	data := `{
		"a": {"sessionId":"s-a"},
		"b": {"sessionId":"s-b","label":5},
		"c": "not an object",
		"d": {"sessionId":"s-d","abortedLastRun":"true"},
		"e": {"sessionId":"s-e"}
	}`

	reg, err := ParseRegistry([]byte(data))
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	if got := strings.Join(reg.Keys, ","); got != "a,e" {
		t.Errorf("keys = %q, want a,e", got)
	}

	var skipped []string
	for _, inv := range reg.Invalid {
		if inv.Err == nil {
			t.Errorf("entry %s skipped without an error", inv.Key)
		}
		skipped = append(skipped, inv.Key)
	}
	if got := strings.Join(skipped, ","); got != "b,c,d" {
		t.Errorf("invalid = %q, want b,c,d", got)
	}
}

func TestReadRegistry(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRegistry(filepath.Join(dir, "sessions.json"))
	if !errors.Is(err, ErrRegistryNotFound) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing registry err = %v", err)
	}

	path := filepath.Join(dir, "sessions.json")
	if err := os.WriteFile(path, []byte(`{"k":{"sessionId":"s"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	reg, err := ReadRegistry(path)
	if err != nil {
		t.Fatalf("ReadRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}
