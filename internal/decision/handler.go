package decision

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/httputil"

	"collabgate/internal/platform/metrics"
	"collabgate/internal/platform/middleware"
)

// EvaluationService is the handler's view of the decision service.
type EvaluationService interface {
	EvaluateOnboarding(ctx context.Context, caller id.Username, requestID id.RequestID) (Verdict, error)
	EvaluateDataFormat(ctx context.Context, caller id.Username, requestID id.RequestID) (Verdict, error)
}

// Handler exposes policy evaluations over HTTP.
type Handler struct {
	logger       *slog.Logger
	evaluations  EvaluationService
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func NewHandler(evaluations EvaluationService, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		evaluations:  evaluations,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the evaluation routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(er chi.Router) {
		er.Use(middleware.Recovery(h.logger))
		er.Use(middleware.RequestID)
		er.Use(middleware.Logger(h.logger))
		er.Use(middleware.Timeout(30 * time.Second))
		er.Use(middleware.ContentTypeJSON)
		er.Use(middleware.LatencyMiddleware(h.metrics))
		er.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		er.Get("/requests/{requestID}/evaluation/onboarding", h.handleOnboarding)
		er.Get("/requests/{requestID}/evaluation/data-format", h.handleDataFormat)
	})
}

func (h *Handler) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	h.handleEvaluation(w, r, h.evaluations.EvaluateOnboarding)
}

func (h *Handler) handleDataFormat(w http.ResponseWriter, r *http.Request) {
	h.handleEvaluation(w, r, h.evaluations.EvaluateDataFormat)
}

func (h *Handler) handleEvaluation(
	w http.ResponseWriter,
	r *http.Request,
	evaluate func(context.Context, id.Username, id.RequestID) (Verdict, error),
) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	raw := middleware.GetUsername(ctx)
	if raw == "" {
		h.logger.ErrorContext(ctx, "username missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	username, err := id.ParseUsername(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verdict, err := evaluate(ctx, username, reqID)
	if err != nil {
		h.logger.WarnContext(ctx, "policy evaluation failed",
			"request_id", requestID,
			"onboarding_request_id", reqID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}
