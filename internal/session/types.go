package session

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// ToolStatus is the lifecycle state of a tool invocation
type ToolStatus string

const (
	ToolRunning  ToolStatus = "running"
	ToolComplete ToolStatus = "complete"
	ToolError    ToolStatus = "error"
)

// Timestamp is a point in time that decodes from either epoch milliseconds
// or an RFC 3339 string. The zero value means unknown.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts numbers (epoch ms), strings (RFC 3339 or numeric) and null
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.Time = parsed
			return nil
		}
		data = []byte(s)
	}

	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		// Unknown, but the record itself is still usable
		t.Time = time.Time{}
		return nil //nolint:nilerr // unparseable timestamps decode as zero
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

// MarshalJSON encodes the timestamp as epoch milliseconds (0 when unknown)
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Millis(), 10)), nil
}

// Millis returns epoch milliseconds, or 0 for an unknown timestamp
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Record represents a single line in a session transcript
type Record struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Timestamp Timestamp `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`

	// Line is the 1-indexed line number in the transcript, set by the decoder
	Line int `json:"-"`
}

// Message represents the message field in a transcript record
type Message struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	IsError    bool            `json:"isError,omitempty"`
}

// ContentItem represents an item in a message content array
type ContentItem struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolInvocation is one tool call and, once seen, the outcome of its result
type ToolInvocation struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ToolType   string          `json:"toolType"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Status     ToolStatus      `json:"status"`
	Timestamp  Timestamp       `json:"timestamp"`
	SessionKey string          `json:"sessionKey"`

	// Ordinal is the position in the session's full invocation list
	Ordinal int `json:"ordinal"`
}

// UserCommand is a message typed by a user into a session
type UserCommand struct {
	RecordID    string    `json:"id,omitempty"`
	Content     string    `json:"content"`
	FullContent string    `json:"fullContent"`
	Timestamp   Timestamp `json:"timestamp"`
	SessionKey  string    `json:"sessionKey"`
}

// SessionRecord is one entry of the session registry
type SessionRecord struct {
	Key            string    `json:"-"`
	SessionID      string    `json:"sessionId,omitempty"`
	LegacyID       string    `json:"id,omitempty"`
	Label          string    `json:"label,omitempty"`
	SpawnedBy      string    `json:"spawnedBy,omitempty"`
	UpdatedAt      Timestamp `json:"updatedAt"`
	Channel        string    `json:"channel,omitempty"`
	Model          string    `json:"model,omitempty"`
	AbortedLastRun bool      `json:"abortedLastRun,omitempty"`
	Status         string    `json:"status,omitempty"`
	AgentID        string    `json:"agentId,omitempty"`
}

// TranscriptID returns the id naming the session's transcript file, or ""
func (r SessionRecord) TranscriptID() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.LegacyID
}
