package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabgate/pkg/platform/sentinel"
)

func TestPutAndLatest(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	_, err := store.Put(ctx, KindFormatAnswers, "project1_alice", map[string]any{"v": 1})
	require.NoError(t, err)
	_, err = store.Put(ctx, KindFormatAnswers, "project1_alice", map[string]any{"v": 2})
	require.NoError(t, err)

	var doc map[string]any
	name, err := store.Latest(ctx, KindFormatAnswers, "project1_alice", &doc)
	require.NoError(t, err)
	assert.Contains(t, name, "project1_alice_")
	assert.Equal(t, float64(2), doc["v"])
}

// Two writes within the same second still have a total order because the
// filename carries a monotonic sequence suffix.
func TestSameSecondTieBreak(t *testing.T) {
	store := New(t.TempDir())
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return frozen }
	ctx := context.Background()

	_, err := store.Put(ctx, KindFormatAnswers, "project1_alice", map[string]any{"v": "first"})
	require.NoError(t, err)
	_, err = store.Put(ctx, KindFormatAnswers, "project1_alice", map[string]any{"v": "second"})
	require.NoError(t, err)

	var doc map[string]any
	_, err = store.Latest(ctx, KindFormatAnswers, "project1_alice", &doc)
	require.NoError(t, err)
	assert.Equal(t, "second", doc["v"])
}

func TestLatestMissing(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	var doc map[string]any
	_, err := store.Latest(ctx, KindFormatExpectations, "owner_nobody", &doc)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPrefixIsolation(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	_, err := store.Put(ctx, KindFormatAnswers, "project1_alice", map[string]any{"who": "alice"})
	require.NoError(t, err)
	_, err = store.Put(ctx, KindFormatAnswers, "project1_alicia", map[string]any{"who": "alicia"})
	require.NoError(t, err)

	var doc map[string]any
	_, err = store.Latest(ctx, KindFormatAnswers, "project1_alice", &doc)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc["who"])
}

func TestReadByReference(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	rel, err := store.Put(ctx, KindQuestionnaireAnswers, "project2_bob", map[string]any{"ok": true})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, store.Read(ctx, rel, &doc))
	assert.Equal(t, true, doc["ok"])
}

func TestReadRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	var doc map[string]any
	err := store.Read(context.Background(), "../outside.json", &doc)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
