package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "collabgate/pkg/domain-errors"
)

// TestParseRequestID_Invariants validates the parsing invariant:
// request ids must be valid, non-empty, non-nil UUIDs.
func TestParseRequestID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRequestID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRequestID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseRequestID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseRequestID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, RequestID(validUUID), id)
	})
}

func TestParseProjectID(t *testing.T) {
	t.Run("accepts registry-style ids", func(t *testing.T) {
		id, err := ParseProjectID("project12")
		require.NoError(t, err)
		assert.Equal(t, ProjectID("project12"), id)
	})

	t.Run("rejects path separators", func(t *testing.T) {
		for _, bad := range []string{"", "  ", "a/b", "../etc", "a.b", "white space"} {
			_, err := ParseProjectID(bad)
			assert.Error(t, err, "expected rejection for %q", bad)
		}
	})
}

func TestParseUsername(t *testing.T) {
	_, err := ParseUsername("")
	require.Error(t, err)

	u, err := ParseUsername(" alice ")
	require.NoError(t, err)
	assert.Equal(t, Username("alice"), u)
}

func TestParseDecision(t *testing.T) {
	for input, want := range map[string]Decision{"accept": DecisionAccept, "reject": DecisionReject} {
		got, err := ParseDecision(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "approve", "ACCEPT", "deny"} {
		_, err := ParseDecision(bad)
		require.Error(t, err, "input %q", bad)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestRequestStatusPriority(t *testing.T) {
	assert.Equal(t, 0, RequestStatusSubmitted.Priority())
	assert.Equal(t, 1, RequestStatusAccepted.Priority())
	assert.Equal(t, 1, RequestStatusRejected.Priority())
}

func TestStampRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	stamp := FormatStamp(at)
	assert.Equal(t, "20250314T092653Z", stamp)

	parsed, err := ParseStamp(stamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))
}

// Lexicographic order on stamps must agree with chronological order; latest
// document selection depends on it.
func TestStampLexicographicOrder(t *testing.T) {
	earlier := FormatStamp(time.Date(2025, 9, 30, 23, 59, 59, 0, time.UTC))
	later := FormatStamp(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	assert.Less(t, earlier, later)
}
