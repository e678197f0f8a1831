package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/pathtree"
	"collabgate/pkg/platform/audit"
	"collabgate/pkg/platform/sentinel"

	"collabgate/internal/docstore"
	"collabgate/internal/platform/metrics"
	"collabgate/internal/questionnaire"
)

// Registry is the service's view of the project registry: existence and
// ownership checks, plus the idempotent membership add on acceptance.
type Registry interface {
	Exists(ctx context.Context, projectID id.ProjectID) error
	IsOwner(ctx context.Context, projectID id.ProjectID, username id.Username) (bool, error)
	Join(ctx context.Context, username id.Username, projectID id.ProjectID) error
}

// AuditEmitter records lifecycle events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service drives the request lifecycle. All authorization decisions live
// here; handlers only establish the caller identity.
type Service struct {
	store    Store
	registry Registry
	docs     *docstore.Store
	schema   questionnaire.Schema
	metrics  *metrics.Metrics
	audit    AuditEmitter
	logger   *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewService(
	store Store,
	registry Registry,
	docs *docstore.Store,
	schema questionnaire.Schema,
	m *metrics.Metrics,
	auditor AuditEmitter,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		registry: registry,
		docs:     docs,
		schema:   schema,
		metrics:  m,
		audit:    auditor,
		logger:   logger,
		Now:      time.Now,
	}
}

// Submit parses a questionnaire form against the schema, persists the nested
// answers document and appends a new request in the submitted state. The
// answers document is written before the record so a failed append never
// leaves a record pointing at a missing file.
func (s *Service) Submit(ctx context.Context, applicant id.Username, projectID id.ProjectID, form url.Values) (*Request, error) {
	if err := s.registry.Exists(ctx, projectID); err != nil {
		return nil, err
	}

	answers, err := questionnaire.ParseForm(s.schema, form)
	if err != nil {
		return nil, err
	}
	nested, err := pathtree.Unflatten(answers)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "questionnaire answer paths collide")
	}

	prefix := projectID.String() + "_" + applicant.String()
	answersFile, err := s.docs.Put(ctx, docstore.KindQuestionnaireAnswers, prefix, map[string]any{"input": nested})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist answers")
	}

	request := &Request{
		ID:          id.NewRequestID(),
		ProjectID:   projectID,
		Username:    applicant,
		SubmittedAt: s.Now().UTC(),
		AnswersFile: answersFile,
		Status:      id.RequestStatusSubmitted,
	}
	if err := s.store.Append(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}

	s.metrics.IncrementSubmitted()
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Actor:     applicant,
		ProjectID: projectID,
		RequestID: request.ID.String(),
		Action:    string(audit.EventRequestSubmitted),
	})
	return request, nil
}

// AttachDataFormat persists the applicant's data-format answers and links
// them to the request. Only the request's applicant may attach.
func (s *Service) AttachDataFormat(ctx context.Context, applicant id.Username, requestID id.RequestID, dataFormat map[string]any) (*Request, error) {
	request, err := s.getExisting(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Username != applicant {
		return nil, dErrors.New(dErrors.CodeForbidden, "not your request")
	}

	prefix := request.ProjectID.String() + "_" + applicant.String()
	ref, err := s.docs.Put(ctx, docstore.KindFormatAnswers, prefix, map[string]any{"data_format": dataFormat})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist data-format answers")
	}

	request.DataAnswersFile = ref
	if err := s.store.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save request")
	}
	return request, nil
}

// Get returns a request to its applicant or the project owner. Everyone else
// gets a generic denial.
func (s *Service) Get(ctx context.Context, caller id.Username, requestID id.RequestID) (*Request, error) {
	request, err := s.getExisting(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Username == caller {
		return request, nil
	}
	isOwner, err := s.registry.IsOwner(ctx, request.ProjectID, caller)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	return request, nil
}

// ListForProject returns a project's requests in review order. Owner only.
func (s *Service) ListForProject(ctx context.Context, caller id.Username, projectID id.ProjectID) ([]*Request, error) {
	isOwner, err := s.registry.IsOwner(ctx, projectID, caller)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	requests, err := s.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	SortForReview(requests)
	return requests, nil
}

// ListMine returns the caller's own requests in review order.
func (s *Service) ListMine(ctx context.Context, caller id.Username) ([]*Request, error) {
	requests, err := s.store.ListByApplicant(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	SortForReview(requests)
	return requests, nil
}

// Decide transitions a request. Only the project owner may decide, an
// unknown decision value mutates nothing, and a later call may overwrite a
// prior decision so owners can correct mistakes.
//
// Accept adds the applicant to the project's participant set before the
// record is rewritten; if the membership add fails the request keeps its
// previous state.
func (s *Service) Decide(ctx context.Context, caller id.Username, requestID id.RequestID, rawDecision, reason string) (*Request, error) {
	decision, err := id.ParseDecision(rawDecision)
	if err != nil {
		return nil, err
	}

	request, err := s.getExisting(ctx, requestID)
	if err != nil {
		return nil, err
	}
	isOwner, err := s.registry.IsOwner(ctx, request.ProjectID, caller)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the project owner may decide")
	}

	switch decision {
	case id.DecisionAccept:
		if err := s.registry.Join(ctx, request.Username, request.ProjectID); err != nil {
			return nil, err
		}
		request.Status = id.RequestStatusAccepted
		request.RejectionReason = ""
	case id.DecisionReject:
		request.Status = id.RequestStatusRejected
		request.RejectionReason = reason
	}
	now := s.Now().UTC()
	request.DecidedAt = &now
	request.DecidedBy = caller

	if err := s.store.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save decision")
	}

	accepted := decision == id.DecisionAccept
	s.metrics.IncrementDecision(accepted)
	action := audit.EventRequestRejected
	if accepted {
		action = audit.EventRequestAccepted
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Actor:     caller,
		ProjectID: request.ProjectID,
		RequestID: request.ID.String(),
		Action:    string(action),
		Decision:  decision.String(),
		Reason:    request.RejectionReason,
	})
	return request, nil
}

// FlatAnswers loads and flattens a request's persisted questionnaire answers
// for normalization. Missing or malformed documents degrade to empty answers.
func (s *Service) FlatAnswers(ctx context.Context, request *Request) questionnaire.FlatAnswers {
	var payload struct {
		Input   map[string]any `json:"input"`
		Answers map[string]any `json:"answers"`
	}
	if request.AnswersFile == "" {
		return questionnaire.FlatAnswers{}
	}
	if err := s.docs.Read(ctx, request.AnswersFile, &payload); err != nil {
		s.logger.Warn("answers document unreadable, treating as unanswered",
			"request_id", request.ID,
			"ref", request.AnswersFile,
			"error", err,
		)
		return questionnaire.FlatAnswers{}
	}
	if payload.Input != nil {
		return questionnaire.FlatAnswers(pathtree.Flatten(payload.Input))
	}
	if payload.Answers != nil {
		return questionnaire.FlatAnswers(payload.Answers)
	}
	return questionnaire.FlatAnswers{}
}

func (s *Service) getExisting(ctx context.Context, requestID id.RequestID) (*Request, error) {
	request, err := s.store.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	return request, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
