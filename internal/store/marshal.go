package store

import (
	"fmt"
	"time"

	"github.com/retracehq/retrace/internal/fact"
)

// marshalValue converts a fact.Value to its tagged JSON TEXT form for
// storage. The tag keeps round-trips lossless: a UUID written today is
// still a UUID when the history is replayed later.
func marshalValue(v fact.Value) (string, error) {
	data, err := fact.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses tagged JSON TEXT back into a fact.Value.
func unmarshalValue(data string) (fact.Value, error) {
	v, err := fact.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

// marshalTime formats a commit timestamp for the tx_log table.
// Always UTC, RFC 3339 with nanosecond precision.
func marshalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// unmarshalTime parses a tx_log commit timestamp.
func unmarshalTime(data string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit time: %w", err)
	}
	return t, nil
}
