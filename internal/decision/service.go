// Package decision orchestrates one policy evaluation: load the request,
// normalize its answers or reconcile its data-format declarations, hand the
// payload to the policy service and report the verdict. The verdict is
// advisory; the owner's manual decision in the onboarding lifecycle stays
// authoritative.
package decision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/audit"

	"collabgate/internal/dataformat"
	"collabgate/internal/normalize"
	"collabgate/internal/onboarding"
	"collabgate/internal/platform/metrics"
	"collabgate/internal/questionnaire"
	"collabgate/internal/registry"
)

const tracerName = "collabgate/internal/decision"

// Policy document paths queried by this service.
const (
	OnboardingPolicyPath = "collab/onboarding/allow"
	DataFormatPolicyPath = "collab/data_format/allow"
)

// Evaluator is the policy service surface this package needs.
type Evaluator interface {
	Evaluate(ctx context.Context, dataPath string, input any) (bool, error)
}

// Requests is the onboarding service surface this package needs. Get applies
// the view authorization rules, so every evaluation inherits them.
type Requests interface {
	Get(ctx context.Context, caller id.Username, requestID id.RequestID) (*onboarding.Request, error)
	FlatAnswers(ctx context.Context, request *onboarding.Request) questionnaire.FlatAnswers
}

// Projects resolves a request's project to its owner.
type Projects interface {
	Get(ctx context.Context, projectID id.ProjectID) (*registry.Project, error)
}

// Matcher builds the data-format comparison payload.
type Matcher interface {
	BuildComparisonPayload(ctx context.Context, owner id.Username, answersRef string, project id.ProjectID, applicant id.Username) dataformat.ComparisonPayload
}

// VerdictCache stores recent verdicts keyed by payload digest. A nil cache
// disables caching entirely.
type VerdictCache interface {
	Get(ctx context.Context, key string) (allowed, found bool, err error)
	Set(ctx context.Context, key string, allowed bool, ttl time.Duration) error
}

// AuditEmitter records evaluation events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Verdict is an evaluation outcome. Source distinguishes a fresh policy call
// from a cache hit.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Source  string `json:"source"`
}

// Service runs policy evaluations for onboarding requests.
type Service struct {
	requests  Requests
	projects  Projects
	matcher   Matcher
	evaluator Evaluator
	cache     VerdictCache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	audit     AuditEmitter
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	requests Requests,
	projects Projects,
	matcher Matcher,
	evaluator Evaluator,
	cache VerdictCache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	auditor AuditEmitter,
	logger *slog.Logger,
) *Service {
	return &Service{
		requests:  requests,
		projects:  projects,
		matcher:   matcher,
		evaluator: evaluator,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   m,
		audit:     auditor,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// EvaluateOnboarding normalizes the request's questionnaire answers and
// queries the onboarding eligibility policy.
func (s *Service) EvaluateOnboarding(ctx context.Context, caller id.Username, requestID id.RequestID) (Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "decision.evaluate_onboarding",
		trace.WithAttributes(attribute.String("onboarding.request_id", requestID.String())))
	defer span.End()

	request, project, err := s.resolve(ctx, caller, requestID)
	if err != nil {
		return Verdict{}, err
	}

	answers := s.requests.FlatAnswers(ctx, request)
	input, err := normalize.BuildOnboardingInput(answers, normalize.RequestContext{
		ProjectID:    request.ProjectID,
		Applicant:    request.Username,
		ProjectOwner: project.Owner,
	})
	if err != nil {
		return Verdict{}, err
	}
	return s.evaluate(ctx, caller, request, OnboardingPolicyPath, input)
}

// EvaluateDataFormat reconciles the owner's expectations with the applicant's
// provisions and queries the data-format compatibility policy.
func (s *Service) EvaluateDataFormat(ctx context.Context, caller id.Username, requestID id.RequestID) (Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "decision.evaluate_data_format",
		trace.WithAttributes(attribute.String("onboarding.request_id", requestID.String())))
	defer span.End()

	request, project, err := s.resolve(ctx, caller, requestID)
	if err != nil {
		return Verdict{}, err
	}

	payload := s.matcher.BuildComparisonPayload(ctx,
		project.Owner, request.DataAnswersFile, request.ProjectID, request.Username)
	return s.evaluate(ctx, caller, request, DataFormatPolicyPath, payload)
}

func (s *Service) resolve(ctx context.Context, caller id.Username, requestID id.RequestID) (*onboarding.Request, *registry.Project, error) {
	request, err := s.requests.Get(ctx, caller, requestID)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projects.Get(ctx, request.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return request, project, nil
}

func (s *Service) evaluate(ctx context.Context, caller id.Username, request *onboarding.Request, dataPath string, input any) (Verdict, error) {
	key, err := cacheKey(dataPath, input)
	if err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to key policy input")
	}

	if s.cache != nil {
		allowed, found, err := s.cache.Get(ctx, key)
		if err != nil {
			// A broken cache degrades to a fresh evaluation.
			s.logger.WarnContext(ctx, "verdict cache read failed", "error", err)
		} else if found {
			s.countCache(true)
			return Verdict{Allowed: allowed, Source: "cache"}, nil
		}
		s.countCache(false)
	}

	allowed, err := s.evaluator.Evaluate(ctx, dataPath, input)
	if err != nil {
		return Verdict{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, allowed, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "verdict cache write failed", "error", err)
		}
	}

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	s.emit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Actor:     caller,
		ProjectID: request.ProjectID,
		RequestID: request.ID.String(),
		Action:    string(audit.EventPolicyEvaluated),
		Decision:  decision,
	})
	return Verdict{Allowed: allowed, Source: "policy"}, nil
}

func (s *Service) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.VerdictCacheHits.Inc()
	} else {
		s.metrics.VerdictCacheMisses.Inc()
	}
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

// cacheKey digests the policy path and the exact input payload, so any change
// to answers, expectations or context produces a fresh evaluation.
func cacheKey(dataPath string, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(dataPath+"\x00"), payload...))
	return "verdict:" + hex.EncodeToString(sum[:]), nil
}
