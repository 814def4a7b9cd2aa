package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func testOptions() TranscriptOptions {
	return TranscriptOptions{
		SessionKey:     "agent:main:main",
		MaxInvocations: 8,
		MaxCommands:    5,
		CommandLength:  200,
		ControlMarker:  testMarker,
		Correlator:     CorrelatorOptions{Categorizer: staticCategorizer{"web_search": "search"}},
	}
}

func TestBuildTranscript(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"message","id":"1","timestamp":"2026-01-30T10:00:00Z","message":{"role":"user","content":"find flights"}}`,
		`{"type":"message","id":"2","timestamp":"2026-01-30T10:00:03Z","message":{"role":"assistant","content":[{"type":"toolCall","id":"t1","name":"web_search","arguments":{"q":"flights"}}]}}`,
		`{"type":"message","id":"3","message":{"role":"toolResult","toolCallId":"t1"}}`,
		`garbage`,
		`{"type":"message","id":"4","message":{"role":"user","content":"[message_id: 9] system ping"}}`,
	)

	tr, err := BuildTranscript(context.Background(), path, testOptions())
	if err != nil {
		t.Fatalf("BuildTranscript: %v", err)
	}

	if len(tr.Invocations) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(tr.Invocations))
	}
	inv := tr.Invocations[0]
	if inv.Name != "web_search" || inv.ToolType != "search" || inv.Status != ToolComplete {
		t.Errorf("unexpected invocation: %+v", inv)
	}
	if len(tr.Commands) != 1 || tr.Commands[0].Content != "find flights" {
		t.Errorf("unexpected commands: %+v", tr.Commands)
	}
	if tr.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", tr.Skipped)
	}
}

func TestBuildTranscriptLimits(t *testing.T) {
	var lines []string
	for i := range 10 {
		lines = append(lines,
			fmt.Sprintf(`{"type":"message","id":"c%d","message":{"role":"assistant","content":[{"type":"toolCall","id":"t%d","name":"exec"}]}}`, i, i),
			fmt.Sprintf(`{"type":"message","id":"u%d","timestamp":%d,"message":{"role":"user","content":"command %d"}}`, i, 1000+i, i),
		)
	}
	path := writeTranscript(t, lines...)

	tr, err := BuildTranscript(context.Background(), path, testOptions())
	if err != nil {
		t.Fatalf("BuildTranscript: %v", err)
	}

	if len(tr.Invocations) != 8 || tr.TotalInvocations != 10 {
		t.Fatalf("invocations = %d (total %d), want 8 (total 10)", len(tr.Invocations), tr.TotalInvocations)
	}
	if tr.Invocations[0].ID != "t2" || tr.Invocations[0].Ordinal != 2 {
		t.Errorf("first kept invocation = %+v, want t2 at ordinal 2", tr.Invocations[0])
	}
	if len(tr.Commands) != 5 {
		t.Fatalf("commands = %d, want 5", len(tr.Commands))
	}
	if tr.Commands[0].Content != "command 9" || tr.Commands[4].Content != "command 5" {
		t.Errorf("commands not newest first: %q .. %q", tr.Commands[0].Content, tr.Commands[4].Content)
	}
}

func TestBuildTranscriptTruncatesCommands(t *testing.T) {
	long := strings.Repeat("é", 250)
	path := writeTranscript(t, `{"type":"message","message":{"role":"user","content":"`+long+`"}}`)

	tr, err := BuildTranscript(context.Background(), path, testOptions())
	if err != nil {
		t.Fatalf("BuildTranscript: %v", err)
	}
	cmd := tr.Commands[0]
	if got := len([]rune(cmd.Content)); got != 200 {
		t.Errorf("content length = %d runes, want 200", got)
	}
	if cmd.FullContent != long {
		t.Error("full content should be kept intact")
	}
}

func TestBuildTranscriptMissingFile(t *testing.T) {
	tr, err := BuildTranscript(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), testOptions())
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(tr.Invocations) != 0 || len(tr.Commands) != 0 {
		t.Errorf("expected empty transcript, got %+v", tr)
	}
}

func TestBuildTranscriptCancelled(t *testing.T) {
	path := writeTranscript(t, `{"type":"message","message":{"role":"user","content":"hi"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildTranscript(ctx, path, testOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTranscriptPath(t *testing.T) {
	if got := TranscriptPath("/data/sessions", "abc"); got != filepath.Join("/data/sessions", "abc.jsonl") {
		t.Errorf("TranscriptPath = %q", got)
	}
}
