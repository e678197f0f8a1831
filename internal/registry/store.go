package registry

import (
	"context"

	id "collabgate/pkg/domain"
)

// Store persists projects. Implementations return sentinel.ErrNotFound for
// unknown project ids; the service translates to domain errors.
type Store interface {
	// Save inserts or replaces a project by id.
	Save(ctx context.Context, project *Project) error
	Get(ctx context.Context, projectID id.ProjectID) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
}
