// Package domain holds shared identifier and enum types. Construct values via
// the Parse* functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "collabgate/pkg/domain-errors"
)

// RequestID identifies an onboarding request. Identity is a generated UUID,
// independent of storage position, so records can never be confused by
// reordering or soft deletion.
type RequestID uuid.UUID

// NewRequestID generates a fresh request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

// ParseRequestID constructs a RequestID from external input.
func ParseRequestID(s string) (RequestID, error) {
	if s == "" {
		return RequestID{}, dErrors.New(dErrors.CodeInvalidInput, "request id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return RequestID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid request id")
	}
	return RequestID(u), nil
}

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether the id is unset.
func (id RequestID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the id as its canonical UUID string for JSON and map
// keys.
func (id RequestID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical UUID string form.
func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := ParseRequestID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ProjectID identifies a project in the registry. The original registry uses
// sequential ids of the form "projectN"; arbitrary non-empty tokens without
// path separators are accepted for compatibility.
type ProjectID string

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ParseProjectID constructs a ProjectID from external input.
func ParseProjectID(s string) (ProjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "project id cannot be empty")
	}
	if !projectIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid project id")
	}
	return ProjectID(s), nil
}

func (id ProjectID) String() string {
	return string(id)
}

// Username identifies a user. Usernames participate in document filenames, so
// the same token restrictions apply as for project ids.
type Username string

// ParseUsername constructs a Username from external input.
func ParseUsername(s string) (Username, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "username cannot be empty")
	}
	if !projectIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid username")
	}
	return Username(s), nil
}

func (u Username) String() string {
	return string(u)
}
