package store

import (
	"fmt"
	"time"

	"github.com/roach88/hrsync/internal/ir"
)

// EncodePayload returns the canonical JSON and the domain-separated hash of
// a record payload. A nil payload encodes as empty with an empty hash.
func EncodePayload(kind ir.RecordKind, payload any) (string, string, error) {
	if payload == nil {
		return "", "", nil
	}
	data, err := ir.MarshalCanonical(payload)
	if err != nil {
		return "", "", fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	hash, err := ir.RecordHash(kind, payload)
	if err != nil {
		return "", "", fmt.Errorf("hash %s payload: %w", kind, err)
	}
	return string(data), hash, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
