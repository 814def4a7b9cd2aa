package session

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EventKind identifies what a transcript record means for the graph
type EventKind int

const (
	EventIgnored EventKind = iota
	EventUserMessage
	EventToolCall
	EventToolResult
)

func (k EventKind) String() string {
	switch k {
	case EventUserMessage:
		return "user_message"
	case EventToolCall:
		return "tool_call"
	case EventToolResult:
		return "tool_result"
	default:
		return "ignored"
	}
}

// Event is a typed view of a transcript record
type Event struct {
	Kind      EventKind
	Timestamp Timestamp
	RecordID  string

	// UserMessage
	Text string

	// ToolCall
	CallID    string
	Name      string
	Arguments json.RawMessage

	// ToolResult
	ToolCallID string
	IsError    bool
}

// Classify converts a record into zero or more events. A nil result means the
// record is ignored. User messages that are empty or contain marker (when
// marker is non-empty) are system-internal and produce no event.
func Classify(rec Record, marker string) []Event {
	if rec.Type != "message" || rec.Message == nil {
		return nil
	}
	msg := rec.Message

	switch msg.Role {
	case "assistant":
		return classifyToolCalls(rec)

	case "toolResult":
		if msg.ToolCallID == "" {
			return nil
		}
		return []Event{{
			Kind:       EventToolResult,
			Timestamp:  rec.Timestamp,
			RecordID:   rec.ID,
			ToolCallID: msg.ToolCallID,
			IsError:    msg.IsError,
		}}

	case "user":
		text := ExtractText(msg.Content)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		if marker != "" && strings.Contains(text, marker) {
			return nil
		}
		return []Event{{
			Kind:      EventUserMessage,
			Timestamp: rec.Timestamp,
			RecordID:  rec.ID,
			Text:      text,
		}}
	}

	return nil
}

// classifyToolCalls emits one event per toolCall item of an assistant message
func classifyToolCalls(rec Record) []Event {
	var items []ContentItem
	if err := json.Unmarshal(rec.Message.Content, &items); err != nil {
		return nil
	}

	var events []Event
	for idx, item := range items {
		if item.Type != "toolCall" {
			continue
		}
		id := item.ID
		if id == "" {
			id = placeholderCallID(rec, idx)
		}
		events = append(events, Event{
			Kind:      EventToolCall,
			Timestamp: rec.Timestamp,
			RecordID:  rec.ID,
			CallID:    id,
			Name:      item.Name,
			Arguments: item.Arguments,
		})
	}
	return events
}

// placeholderCallID derives a stable id for a tool call that has none, from
// the record id when present and the line number otherwise
func placeholderCallID(rec Record, itemIdx int) string {
	origin := rec.ID
	if origin == "" {
		origin = "line" + strconv.Itoa(rec.Line)
	}
	return "tool-" + origin + "-" + strconv.Itoa(itemIdx)
}

// ExtractText returns the text of a message content field: strings are used
// as-is and arrays contribute the text of their "text" items, space separated
func ExtractText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	// Try parsing as string first (simple case)
	var simple string
	if err := json.Unmarshal(content, &simple); err == nil {
		return simple
	}

	var items []ContentItem
	if err := json.Unmarshal(content, &items); err != nil {
		return ""
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, " ")
}
