package policy

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"
	"collabgate/pkg/platform/audit"
	"collabgate/pkg/platform/httputil"

	"collabgate/internal/platform/metrics"
	"collabgate/internal/platform/middleware"
)

// Installer is the handler's view of the policy client.
type Installer interface {
	InstallPolicy(ctx context.Context, policyID, policyText string) error
	PushData(ctx context.Context, dataPath string, data any) error
}

// AuditEmitter records policy administration events.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

type installRequest struct {
	Policy string `json:"policy"`
}

// Handler exposes policy installation and data pushes. These are operator
// actions; the policy service itself stays unreachable from the outside.
type Handler struct {
	logger       *slog.Logger
	installer    Installer
	audit        AuditEmitter
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func NewHandler(installer Installer, auditor AuditEmitter, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		installer:    installer,
		audit:        auditor,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the policy administration routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(ar chi.Router) {
		ar.Use(middleware.Recovery(h.logger))
		ar.Use(middleware.RequestID)
		ar.Use(middleware.Logger(h.logger))
		ar.Use(middleware.Timeout(30 * time.Second))
		ar.Use(middleware.ContentTypeJSON)
		ar.Use(middleware.LatencyMiddleware(h.metrics))
		ar.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		ar.Put("/admin/policies/{policyID}", h.handleInstall)
		ar.Put("/admin/policy-data/*", h.handlePushData)
	})
}

func (h *Handler) handleInstall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	policyID := chi.URLParam(r, "policyID")
	if policyID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "policy id is required"))
		return
	}
	body, ok := httputil.DecodeAndPrepare[installRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if body.Policy == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "policy text is required"))
		return
	}

	if err := h.installer.InstallPolicy(ctx, policyID, body.Policy); err != nil {
		h.logger.ErrorContext(ctx, "policy install failed",
			"request_id", requestID,
			"policy_id", policyID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy installed",
		"request_id", requestID,
		"policy_id", policyID,
	)
	if h.audit != nil {
		_ = h.audit.Emit(ctx, audit.Event{
			Category:      audit.CategoryCompliance,
			Actor:         id.Username(middleware.GetUsername(ctx)),
			Action:        string(audit.EventPolicyInstalled),
			Reason:        policyID,
			CorrelationID: requestID,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePushData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	dataPath := chi.URLParam(r, "*")
	if dataPath == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "data path is required"))
		return
	}
	var document any
	if err := json.NewDecoder(r.Body).Decode(&document); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.installer.PushData(ctx, dataPath, document); err != nil {
		h.logger.ErrorContext(ctx, "policy data push failed",
			"request_id", requestID,
			"data_path", dataPath,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
