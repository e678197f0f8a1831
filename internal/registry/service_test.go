package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/audit"
)

type auditRecorder struct {
	events []audit.Event
}

func (r *auditRecorder) Emit(ctx context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func newTestService(t *testing.T) (*Service, *auditRecorder) {
	t.Helper()
	recorder := &auditRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewInMemoryStore(), recorder, logger), recorder
}

func validInput() ProjectInput {
	return ProjectInput{
		Title:          "Sleep Study",
		Institution:    "Example University",
		ContactEmail:   "pi@example.edu",
		StudyObjective: "Correlate sleep and recovery",
		DataTypes:      []string{"Wearables", "EHR"},
		Sensitivity:    "High",
		LegalBasis:     "GDPR Consent",
	}
}

func TestCreate(t *testing.T) {
	t.Run("assigns sequential ids and registers owner", func(t *testing.T) {
		svc, recorder := newTestService(t)
		ctx := context.Background()

		first, err := svc.Create(ctx, "olivia", validInput())
		require.NoError(t, err)
		second, err := svc.Create(ctx, "olivia", validInput())
		require.NoError(t, err)

		assert.Equal(t, id.ProjectID("project1"), first.ID)
		assert.Equal(t, id.ProjectID("project2"), second.ID)
		assert.Equal(t, id.Username("olivia"), first.Owner)
		assert.Equal(t, []id.Username{"olivia"}, first.Participants)
		assert.Equal(t, StatusActive, first.Status)
		assert.Equal(t, []string{"fdp", "wearables", "ehr"}, first.Tags)
		assert.Equal(t, "High", first.FDP.SensitivityLevel)

		require.Len(t, recorder.events, 2)
		assert.Equal(t, string(audit.EventProjectCreated), recorder.events[0].Action)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		svc, _ := newTestService(t)
		input := validInput()
		input.StudyObjective = ""
		_, err := svc.Create(context.Background(), "olivia", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects malformed contact email", func(t *testing.T) {
		svc, _ := newTestService(t)
		input := validInput()
		input.ContactEmail = "not-an-email"
		_, err := svc.Create(context.Background(), "olivia", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("defaults sensitivity to Medium", func(t *testing.T) {
		svc, _ := newTestService(t)
		input := validInput()
		input.Sensitivity = ""
		project, err := svc.Create(context.Background(), "olivia", input)
		require.NoError(t, err)
		assert.Equal(t, "Medium", project.FDP.SensitivityLevel)
	})
}

func TestEdit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	project, err := svc.Create(ctx, "olivia", validInput())
	require.NoError(t, err)

	t.Run("owner may edit", func(t *testing.T) {
		input := validInput()
		input.Title = "Sleep Study v2"
		updated, err := svc.Edit(ctx, "olivia", project.ID, input)
		require.NoError(t, err)
		assert.Equal(t, "Sleep Study v2", updated.Title)
		// Membership survives edits.
		assert.Equal(t, []id.Username{"olivia"}, updated.Participants)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		_, err := svc.Edit(ctx, "mallory", project.ID, validInput())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown project is not found", func(t *testing.T) {
		_, err := svc.Edit(ctx, "olivia", "project99", validInput())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestJoin(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()
	project, err := svc.Create(ctx, "olivia", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Join(ctx, "alice", project.ID))
	// Second join is a silent no-op.
	require.NoError(t, svc.Join(ctx, "alice", project.ID))

	stored, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []id.Username{"olivia", "alice"}, stored.Participants)

	joined := 0
	for _, event := range recorder.events {
		if event.Action == string(audit.EventProjectJoined) {
			joined++
		}
	}
	assert.Equal(t, 1, joined)

	err = svc.Join(ctx, "alice", "project42")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestArchive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	project, err := svc.Create(ctx, "olivia", validInput())
	require.NoError(t, err)

	assert.True(t, dErrors.HasCode(svc.Archive(ctx, "mallory", project.ID), dErrors.CodeForbidden))
	require.NoError(t, svc.Archive(ctx, "olivia", project.ID))
	// Archiving twice stays a no-op.
	require.NoError(t, svc.Archive(ctx, "olivia", project.ID))

	stored, err := svc.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, stored.Status)

	err = svc.Join(ctx, "alice", project.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestIsOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	project, err := svc.Create(ctx, "olivia", validInput())
	require.NoError(t, err)

	isOwner, err := svc.IsOwner(ctx, project.ID, "olivia")
	require.NoError(t, err)
	assert.True(t, isOwner)

	isOwner, err = svc.IsOwner(ctx, project.ID, "alice")
	require.NoError(t, err)
	assert.False(t, isOwner)
}
