package snapshot

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// MalformedSnapshotError reports input that is not a JSON snapshot document.
type MalformedSnapshotError struct {
	Err error
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed snapshot: %v", e.Err)
}

func (e *MalformedSnapshotError) Unwrap() error { return e.Err }

func (e *MalformedSnapshotError) Kind() string { return "MalformedSnapshotError" }

// MissingMetadataError reports a decodable document lacking a required
// metadata field.
type MissingMetadataError struct {
	Field string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("snapshot metadata field %q is missing", e.Field)
}

func (e *MissingMetadataError) Kind() string { return "MissingMetadataError" }

// Encode serializes s as indented JSON. Timestamps are written in UTC with
// second precision; absent optional values are written as null.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s.normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses data produced by Encode. Decode(Encode(s)) equals s for any
// snapshot whose timestamps are already normalized.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &MalformedSnapshotError{Err: err}
	}

	if s.GeneratedAt.IsZero() {
		return nil, &MissingMetadataError{Field: "generatedAt"}
	}
	if strings.TrimSpace(s.FormatVersion) == "" {
		return nil, &MissingMetadataError{Field: "formatVersion"}
	}

	return s.normalized(), nil
}
