package cli

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retracehq/retrace/internal/fact"
)

func TestParseLiteral_Bool(t *testing.T) {
	assert.True(t, fact.Equal(fact.Bool(true), ParseLiteral("true")))
	assert.True(t, fact.Equal(fact.Bool(false), ParseLiteral("false")))
}

func TestParseLiteral_Int(t *testing.T) {
	assert.True(t, fact.Equal(fact.Int(42), ParseLiteral("42")))
	assert.True(t, fact.Equal(fact.Int(-7), ParseLiteral("-7")))
	assert.True(t, fact.Equal(fact.Int(0), ParseLiteral("0")))
}

func TestParseLiteral_Time(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got := ParseLiteral("2024-03-01T12:00:00Z")
	assert.True(t, fact.Equal(fact.Time(want), got))
}

func TestParseLiteral_UUID(t *testing.T) {
	id := uuid.New()
	got := ParseLiteral(id.String())
	assert.True(t, fact.Equal(fact.UUID(id), got))
}

func TestParseLiteral_FallbackString(t *testing.T) {
	assert.True(t, fact.Equal(fact.String("Alice"), ParseLiteral("Alice")))
	assert.True(t, fact.Equal(fact.String("3.14"), ParseLiteral("3.14")))
	assert.True(t, fact.Equal(fact.String(""), ParseLiteral("")))
}

func TestParseLiteral_StrPrefixForcesString(t *testing.T) {
	// Without the prefix these would be recognized as typed values
	assert.True(t, fact.Equal(fact.String("true"), ParseLiteral("str:true")))
	assert.True(t, fact.Equal(fact.String("42"), ParseLiteral("str:42")))
	assert.True(t, fact.Equal(fact.String("2024-03-01T12:00:00Z"), ParseLiteral("str:2024-03-01T12:00:00Z")))
}

func TestParseAssignment_Basic(t *testing.T) {
	attr, value, err := ParseAssignment("order.operator=Alice")
	require.NoError(t, err)
	assert.Equal(t, "order.operator", attr)
	assert.True(t, fact.Equal(fact.String("Alice"), value))
}

func TestParseAssignment_ValueKeepsEquals(t *testing.T) {
	// Only the first '=' splits; the value may contain more
	attr, value, err := ParseAssignment("note=a=b")
	require.NoError(t, err)
	assert.Equal(t, "note", attr)
	assert.True(t, fact.Equal(fact.String("a=b"), value))
}

func TestParseAssignment_MissingEquals(t *testing.T) {
	_, _, err := ParseAssignment("no-equals-here")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected attribute=value")
}

func TestParseAssignment_EmptyAttribute(t *testing.T) {
	_, _, err := ParseAssignment("=value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty attribute")
}

func TestParseAssignment_NormalizesAttribute(t *testing.T) {
	// Decomposed form: 'e' followed by combining acute accent
	attr, _, err := ParseAssignment("café=x")
	require.NoError(t, err)
	assert.Equal(t, "café", attr)
}
