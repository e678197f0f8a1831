package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/httputil"

	"collabgate/internal/platform/metrics"
	"collabgate/internal/platform/middleware"
)

// RequestService is the handler's view of the onboarding service.
type RequestService interface {
	Submit(ctx context.Context, applicant id.Username, projectID id.ProjectID, form url.Values) (*Request, error)
	AttachDataFormat(ctx context.Context, applicant id.Username, requestID id.RequestID, dataFormat map[string]any) (*Request, error)
	Get(ctx context.Context, caller id.Username, requestID id.RequestID) (*Request, error)
	ListForProject(ctx context.Context, caller id.Username, projectID id.ProjectID) ([]*Request, error)
	ListMine(ctx context.Context, caller id.Username) ([]*Request, error)
	Decide(ctx context.Context, caller id.Username, requestID id.RequestID, rawDecision, reason string) (*Request, error)
}

// submitRequest is the wire shape for questionnaire submissions. Values are
// either a string or a list of strings for multiselect questions.
type submitRequest struct {
	Answers map[string]any `json:"answers"`
}

type attachDataFormatRequest struct {
	DataFormat map[string]any `json:"data_format"`
}

type decideRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Handler exposes the request lifecycle over HTTP.
type Handler struct {
	logger       *slog.Logger
	requests     RequestService
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func NewHandler(requests RequestService, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		requests:     requests,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the onboarding routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(rr chi.Router) {
		rr.Use(middleware.Recovery(h.logger))
		rr.Use(middleware.RequestID)
		rr.Use(middleware.Logger(h.logger))
		rr.Use(middleware.Timeout(30 * time.Second))
		rr.Use(middleware.ContentTypeJSON)
		rr.Use(middleware.LatencyMiddleware(h.metrics))
		rr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		rr.Post("/projects/{projectID}/requests", h.handleSubmit)
		rr.Get("/projects/{projectID}/requests", h.handleListForProject)
		rr.Get("/requests", h.handleListMine)
		rr.Get("/requests/{requestID}", h.handleGet)
		rr.Post("/requests/{requestID}/data-format", h.handleAttachDataFormat)
		rr.Post("/requests/{requestID}/decide", h.handleDecide)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[submitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	form, err := answersToForm(body.Answers)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.requests.Submit(ctx, username, projectID, form)
	if err != nil {
		h.logger.WarnContext(ctx, "submission failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) handleListForProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	requests, err := h.requests.ListForProject(ctx, username, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	requests, err := h.requests.ListMine(ctx, username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	request, err := h.requests.Get(ctx, username, reqID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleAttachDataFormat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[attachDataFormatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	request, err := h.requests.AttachDataFormat(ctx, username, reqID, body.DataFormat)
	if err != nil {
		h.logger.WarnContext(ctx, "data-format attach failed",
			"request_id", requestID,
			"onboarding_request_id", reqID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, ok := httputil.DecodeAndPrepare[decideRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	request, err := h.requests.Decide(ctx, username, reqID, body.Decision, body.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "decision failed",
			"request_id", requestID,
			"onboarding_request_id", reqID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) caller(w http.ResponseWriter, ctx context.Context, requestID string) (id.Username, bool) {
	raw := middleware.GetUsername(ctx)
	if raw == "" {
		h.logger.ErrorContext(ctx, "username missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return "", false
	}
	username, err := id.ParseUsername(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return username, true
}

// answersToForm converts the JSON submission shape into form values for the
// schema-driven parser. Strings map to single values, arrays to repeated
// values.
func answersToForm(answers map[string]any) (url.Values, error) {
	form := make(url.Values, len(answers))
	for key, value := range answers {
		switch v := value.(type) {
		case string:
			form.Set(key, v)
		case []any:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, dErrors.New(dErrors.CodeBadRequest,
						fmt.Sprintf("answer %q must contain only strings", key))
				}
				form.Add(key, s)
			}
		case nil:
			// Skip explicit nulls.
		default:
			return nil, dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("answer %q must be a string or list of strings", key))
		}
	}
	return form, nil
}
