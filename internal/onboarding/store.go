package onboarding

import (
	"context"

	id "collabgate/pkg/domain"
)

// Store persists onboarding requests. Implementations return
// sentinel.ErrNotFound for unknown request ids. Append never replaces an
// existing record; Update never creates one.
type Store interface {
	Append(ctx context.Context, request *Request) error
	Get(ctx context.Context, requestID id.RequestID) (*Request, error)
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]*Request, error)
	ListByApplicant(ctx context.Context, username id.Username) ([]*Request, error)
	Update(ctx context.Context, request *Request) error
}
