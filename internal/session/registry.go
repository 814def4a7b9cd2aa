package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrRegistryNotFound is returned when the session registry file does not exist
var ErrRegistryNotFound = fmt.Errorf("sessions file not found: %w", fs.ErrNotExist)

// Registry is the index of known sessions, in file order
type Registry struct {
	Keys    []string
	Records map[string]SessionRecord

	// Invalid lists entries skipped because their value did not decode
	Invalid []InvalidEntry
}

// InvalidEntry is a registry entry that was skipped
type InvalidEntry struct {
	Key string
	Err error
}

// Get returns the record for key
func (r *Registry) Get(key string) (SessionRecord, bool) {
	rec, ok := r.Records[key]
	return rec, ok
}

// Len returns the number of sessions in the registry
func (r *Registry) Len() int {
	return len(r.Keys)
}

// All returns the records in file order
func (r *Registry) All() []SessionRecord {
	out := make([]SessionRecord, 0, len(r.Keys))
	for _, key := range r.Keys {
		out = append(out, r.Records[key])
	}
	return out
}

// ReadRegistry loads the session registry from path
func ReadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRegistryNotFound
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes a registry JSON object keyed by session key. Key order
// is preserved; a key repeated in the object keeps its first position and its
// last value. Malformed JSON fails the whole registry, while a well-formed
// value of the wrong shape only skips its entry (see Registry.Invalid).
func ParseRegistry(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("registry decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("registry decode: expected object, got %v", tok)
	}

	reg := &Registry{Records: make(map[string]SessionRecord)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("registry decode: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("registry decode: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("registry decode %q: %w", key, err)
		}

		var rec SessionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			reg.Invalid = append(reg.Invalid, InvalidEntry{Key: key, Err: err})
			continue
		}
		rec.Key = key

		if _, seen := reg.Records[key]; !seen {
			reg.Keys = append(reg.Keys, key)
		}
		reg.Records[key] = rec
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("registry decode: %w", err)
	}
	return reg, nil
}
