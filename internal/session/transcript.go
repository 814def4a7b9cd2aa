package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// TranscriptOptions configures BuildTranscript
type TranscriptOptions struct {
	SessionKey string

	// MaxInvocations keeps only the most recent tool invocations (<= 0 keeps all)
	MaxInvocations int

	// MaxCommands keeps only the most recent user commands (<= 0 keeps all)
	MaxCommands int

	// CommandLength truncates command content for display (<= 0 disables)
	CommandLength int

	// ControlMarker suppresses synthetic user messages containing it
	ControlMarker string

	Correlator CorrelatorOptions
}

// Transcript is the distilled content of one session file
type Transcript struct {
	// Invocations holds the most recent tool invocations, oldest first
	Invocations []ToolInvocation

	// Commands holds the most recent user commands, newest first
	Commands []UserCommand

	// TotalInvocations counts every invocation in the file, before trimming
	TotalInvocations int

	// Skipped counts lines that could not be parsed
	Skipped int
}

// TranscriptPath returns the transcript file for a session id inside dir
func TranscriptPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+".jsonl")
}

// BuildTranscript reads a session file from the start and returns its recent
// tool invocations and user commands. A missing file yields an empty
// transcript and no error. Read errors part way through return what was
// parsed up to that point together with the error.
func BuildTranscript(ctx context.Context, path string, opts TranscriptOptions) (Transcript, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Transcript{}, nil
		}
		return Transcript{}, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()

	dec := NewDecoder(file)
	corr := NewCorrelator(opts.SessionKey, opts.Correlator)
	var commands []UserCommand

	var ctxErr error
	for rec := range dec.Records() {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		for _, ev := range Classify(rec, opts.ControlMarker) {
			if ev.Kind == EventUserMessage {
				commands = append(commands, newUserCommand(ev, opts))
				continue
			}
			corr.Apply(ev)
		}
	}

	t := Transcript{
		Invocations:      corr.Recent(opts.MaxInvocations),
		Commands:         recentCommands(commands, opts.MaxCommands),
		TotalInvocations: corr.Len(),
		Skipped:          dec.Skipped(),
	}

	if ctxErr != nil {
		return t, ctxErr
	}
	if err := dec.Err(); err != nil {
		return t, fmt.Errorf("read transcript: %w", err)
	}
	return t, nil
}

// newUserCommand builds a command from a user message event
func newUserCommand(ev Event, opts TranscriptOptions) UserCommand {
	return UserCommand{
		RecordID:    ev.RecordID,
		Content:     truncate(ev.Text, opts.CommandLength),
		FullContent: ev.Text,
		Timestamp:   ev.Timestamp,
		SessionKey:  opts.SessionKey,
	}
}

// recentCommands returns the last n commands, newest first
func recentCommands(commands []UserCommand, n int) []UserCommand {
	if n > 0 && len(commands) > n {
		commands = commands[len(commands)-n:]
	}
	out := make([]UserCommand, len(commands))
	for i, cmd := range commands {
		out[len(commands)-1-i] = cmd
	}
	return out
}

// truncate returns s cut to at most maxLen runes (maxLen <= 0 leaves it alone)
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
