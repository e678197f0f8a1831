package dataformat

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabgate/internal/docstore"
)

func newTestMatcher(t *testing.T) (*Matcher, *docstore.Store) {
	t.Helper()
	docs := docstore.New(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMatcher(docs, logger), docs
}

func TestLoadExpected(t *testing.T) {
	t.Run("missing store yields fully-empty structure, never an error", func(t *testing.T) {
		matcher, _ := newTestMatcher(t)
		expected := matcher.LoadExpected(context.Background(), "nobody")

		require.Len(t, expected.Storage, 4)
		for category, bucket := range expected.Storage {
			assert.Empty(t, bucket.Acceptable, category)
			assert.NotNil(t, bucket.Acceptable, category)
		}
		assert.Empty(t, expected.Schema.Contracts.Acceptable)
		assert.Empty(t, expected.Delivery.Methods.Acceptable)
	})

	t.Run("latest record wins and scalars become lists", func(t *testing.T) {
		matcher, docs := newTestMatcher(t)
		ctx := context.Background()

		_, err := docs.Put(ctx, docstore.KindFormatExpectations, "owner_olivia", map[string]any{
			"expectations": map[string]any{
				"storage": map[string]any{
					"files": map[string]any{"acceptable": "csv"},
				},
			},
		})
		require.NoError(t, err)
		_, err = docs.Put(ctx, docstore.KindFormatExpectations, "owner_olivia", map[string]any{
			"expectations": map[string]any{
				"storage": map[string]any{
					"files": map[string]any{
						"acceptable":     []string{"parquet", "csv"},
						"not_acceptable": "xls",
					},
				},
				"delivery": map[string]any{
					"methods": map[string]any{"acceptable": []string{"sftp"}},
				},
			},
		})
		require.NoError(t, err)

		expected := matcher.LoadExpected(ctx, "olivia")
		assert.Equal(t, []string{"parquet", "csv"}, expected.Storage["files"].Acceptable)
		assert.Equal(t, []string{"xls"}, expected.Storage["files"].NotAcceptable)
		assert.Equal(t, []string{"sftp"}, expected.Delivery.Methods.Acceptable)
		// Undeclared categories stay present and empty.
		assert.Empty(t, expected.Storage["databases"].Acceptable)
	})

	t.Run("does not leak other owners' records", func(t *testing.T) {
		matcher, docs := newTestMatcher(t)
		ctx := context.Background()
		_, err := docs.Put(ctx, docstore.KindFormatExpectations, "owner_olivia", map[string]any{
			"expectations": map[string]any{
				"storage": map[string]any{"files": map[string]any{"acceptable": "csv"}},
			},
		})
		require.NoError(t, err)

		expected := matcher.LoadExpected(ctx, "oliver")
		assert.Empty(t, expected.Storage["files"].Acceptable)
	})
}

func TestLoadProvided(t *testing.T) {
	t.Run("fills fixed shape with explicit nulls", func(t *testing.T) {
		matcher, docs := newTestMatcher(t)
		ctx := context.Background()

		_, err := docs.Put(ctx, docstore.KindFormatAnswers, "project1_alice", map[string]any{
			"data_format": map[string]any{
				"storage": map[string]any{
					"files":           "csv",
					"source_of_truth": "files",
				},
				"schema": map[string]any{"json_schema": "https://example.org/schema.json"},
				"ops":    map[string]any{"contact": "alice@example.org", "size_profile": ""},
			},
		})
		require.NoError(t, err)

		provided := matcher.LoadProvided(ctx, "", "project1", "alice")
		assert.Equal(t, []string{"csv"}, provided.Storage.Files)
		assert.Equal(t, "files", provided.Storage.SourceOfTruth)
		assert.Equal(t, "https://example.org/schema.json", provided.Schema["json_schema"])
		// Unanswered schema artifacts are explicit nulls, not absent keys.
		assert.Contains(t, provided.Schema, "protobuf")
		assert.Nil(t, provided.Schema["protobuf"])
		assert.Equal(t, "alice@example.org", provided.Ops.Contact)
		// Empty string answers normalize to null.
		assert.Nil(t, provided.Ops.SizeProfile)
	})

	t.Run("explicit reference wins over scan", func(t *testing.T) {
		matcher, docs := newTestMatcher(t)
		ctx := context.Background()

		ref, err := docs.Put(ctx, docstore.KindFormatAnswers, "project1_alice", map[string]any{
			"data_format": map[string]any{
				"storage": map[string]any{"files": "parquet"},
			},
		})
		require.NoError(t, err)
		_, err = docs.Put(ctx, docstore.KindFormatAnswers, "project1_alice", map[string]any{
			"data_format": map[string]any{
				"storage": map[string]any{"files": "csv"},
			},
		})
		require.NoError(t, err)

		provided := matcher.LoadProvided(ctx, ref, "project1", "alice")
		assert.Equal(t, []string{"parquet"}, provided.Storage.Files)
	})

	t.Run("missing everything degrades to empty provision", func(t *testing.T) {
		matcher, _ := newTestMatcher(t)
		provided := matcher.LoadProvided(context.Background(), "", "project9", "nobody")
		assert.Empty(t, provided.Storage.Files)
		assert.Empty(t, provided.Delivery.Methods)
	})
}

// Empty expectation store plus populated provision store yields empty
// expected buckets and populated provided fields, never an error.
func TestBuildComparisonPayload(t *testing.T) {
	matcher, docs := newTestMatcher(t)
	ctx := context.Background()

	_, err := docs.Put(ctx, docstore.KindFormatAnswers, "project1_alice", map[string]any{
		"data_format": map[string]any{
			"storage":  map[string]any{"databases": []string{"postgres"}},
			"delivery": map[string]any{"methods": []string{"api"}},
		},
	})
	require.NoError(t, err)

	payload := matcher.BuildComparisonPayload(ctx, "olivia", "", "project1", "alice")

	assert.Empty(t, payload.Expected.Storage["databases"].Acceptable)
	assert.Equal(t, []string{"postgres"}, payload.Provided.Storage.Databases)
	assert.Equal(t, []string{"api"}, payload.Provided.Delivery.Methods)
	assert.Equal(t, "project1", payload.Context.ProjectID)
	assert.Equal(t, "alice", payload.Context.Applicant)
}

func TestHasProvision(t *testing.T) {
	matcher, docs := newTestMatcher(t)
	ctx := context.Background()

	assert.False(t, matcher.HasProvision(ctx, "", "project1", "alice"))

	_, err := docs.Put(ctx, docstore.KindFormatAnswers, "project1_alice", map[string]any{
		"data_format": map[string]any{},
	})
	require.NoError(t, err)
	assert.True(t, matcher.HasProvision(ctx, "", "project1", "alice"))
}
