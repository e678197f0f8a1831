package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "collabgate/pkg/domain"
	audit "collabgate/pkg/platform/audit"
	"collabgate/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		Actor:  id.Username("alice"),
		Action: string(audit.EventRequestSubmitted),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventRequestSubmitted), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Actor:  id.Username("bob"),
			Action: string(audit.EventRequestAccepted),
		})
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByActor(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{
		Actor:  id.Username("carol"),
		Action: string(audit.EventProjectCreated),
	})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), "carol")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		Actor:     id.Username("dave"),
		Action:    string(audit.EventPolicyInstalled),
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "dave")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	actor := id.Username("erin")
	actions := []audit.AuditEvent{
		audit.EventRequestSubmitted,
		audit.EventPolicyEvaluated,
		audit.EventRequestAccepted,
	}
	for _, action := range actions {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Actor:  actor,
			Action: string(action),
		}))
	}

	result, err := pub.List(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, result, 3)
	for i, action := range actions {
		assert.Equal(t, string(action), result[i].Action)
	}
}
