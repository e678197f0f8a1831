package onboarding

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "collabgate/pkg/domain"
	"collabgate/pkg/platform/sentinel"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.json")
	ctx := context.Background()
	store := NewFileStore(path)

	request := &Request{
		ID:          id.NewRequestID(),
		ProjectID:   "project1",
		Username:    "alice",
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:      id.RequestStatusSubmitted,
	}
	require.NoError(t, store.Append(ctx, request))
	assert.ErrorIs(t, store.Append(ctx, request), sentinel.ErrConflict)

	// A fresh store over the same file sees the saved state.
	reopened := NewFileStore(path)
	loaded, err := reopened.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, id.Username("alice"), loaded.Username)

	loaded.Status = id.RequestStatusRejected
	loaded.RejectionReason = "incomplete"
	require.NoError(t, reopened.Update(ctx, loaded))

	byProject, err := store.ListByProject(ctx, "project1")
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, id.RequestStatusRejected, byProject[0].Status)

	_, err = store.Get(ctx, id.NewRequestID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &Request{ID: id.NewRequestID()}), sentinel.ErrNotFound)
}
