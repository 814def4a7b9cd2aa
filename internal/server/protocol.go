package server

import (
	"encoding/json"

	"cosmo_command/internal/graph"
)

// MessageType identifies a WebSocket message
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
)

// WSMessage is the envelope of every WebSocket message
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// EncodeSnapshot wraps a snapshot in a WebSocket envelope
func EncodeSnapshot(seq uint64, snap graph.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: MsgSnapshot, Seq: seq, Payload: payload})
}

// DecodeSnapshot extracts the snapshot from a WebSocket message. ok is false
// for messages of any other type.
func DecodeSnapshot(data []byte) (snap graph.Snapshot, seq uint64, ok bool, err error) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return graph.Snapshot{}, 0, false, err
	}
	if msg.Type != MsgSnapshot {
		return graph.Snapshot{}, msg.Seq, false, nil
	}
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		return graph.Snapshot{}, msg.Seq, false, err
	}
	return snap, msg.Seq, true, nil
}
