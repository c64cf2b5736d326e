package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retracehq/retrace/internal/fact"
)

// ParseLiteral converts a command-line literal into a typed fact.Value.
//
// Recognized forms, tried in order:
//   - "true" / "false"            -> Bool
//   - base-10 integer             -> Int
//   - RFC 3339 timestamp          -> Time
//   - UUID                        -> UUID
//   - anything else               -> String
//
// A "str:" prefix forces the remainder to be a String, for the rare
// value that would otherwise be recognized as one of the above.
func ParseLiteral(raw string) fact.Value {
	if rest, ok := strings.CutPrefix(raw, "str:"); ok {
		return fact.String(rest)
	}
	switch raw {
	case "true":
		return fact.Bool(true)
	case "false":
		return fact.Bool(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return fact.Int(n)
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return fact.Time(t)
	}
	if id, err := uuid.Parse(raw); err == nil {
		return fact.UUID(id)
	}
	return fact.String(raw)
}

// ParseAssignment splits an "attribute=value" argument into a normalized
// attribute name and a typed value.
func ParseAssignment(arg string) (string, fact.Value, error) {
	attr, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid assignment %q: expected attribute=value", arg)
	}
	attr = fact.NormalizeAttr(strings.TrimSpace(attr))
	if attr == "" {
		return "", nil, fmt.Errorf("invalid assignment %q: empty attribute name", arg)
	}
	return attr, ParseLiteral(raw), nil
}
