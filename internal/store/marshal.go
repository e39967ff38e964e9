package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalRecord converts a record to JSON TEXT for storage.
// HTML escaping is disabled so embedded data URLs and notes round-trip verbatim.
func marshalRecord(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalRecord parses JSON TEXT into v.
func unmarshalRecord(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
