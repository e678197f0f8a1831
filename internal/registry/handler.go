package registry

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

// ProjectService is the handler's view of the registry service.
type ProjectService interface {
	Create(ctx context.Context, owner id.Username, input ProjectInput) (*Project, error)
	Edit(ctx context.Context, actor id.Username, projectID id.ProjectID, input ProjectInput) (*Project, error)
	Archive(ctx context.Context, actor id.Username, projectID id.ProjectID) error
	Join(ctx context.Context, username id.Username, projectID id.ProjectID) error
	Get(ctx context.Context, projectID id.ProjectID) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
}

// Handler exposes project CRUD and membership over HTTP.
type Handler struct {
	logger       *slog.Logger
	projects     ProjectService
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func NewHandler(projects ProjectService, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		projects:     projects,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register attaches the project routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Recovery(h.logger))
		pr.Use(middleware.RequestID)
		pr.Use(middleware.Logger(h.logger))
		pr.Use(middleware.Timeout(30 * time.Second))
		pr.Use(middleware.ContentTypeJSON)
		pr.Use(middleware.LatencyMiddleware(h.metrics))
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		pr.Post("/projects", h.handleCreate)
		pr.Get("/projects", h.handleList)
		pr.Get("/projects/{projectID}", h.handleGet)
		pr.Put("/projects/{projectID}", h.handleEdit)
		pr.Post("/projects/{projectID}/archive", h.handleArchive)
		pr.Post("/projects/{projectID}/join", h.handleJoin)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	username, ok := h.caller(w, ctx, requestID)
	if !ok {
		return
	}
	input, ok := httputil.DecodeAndPrepare[ProjectInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.projects.Create(ctx, username, input)
	if err != nil {
		h.logger.WarnContext(ctx, "project create failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, project)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := h.projects.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "project list failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
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
	input, ok := httputil.DecodeAndPrepare[ProjectInput](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	project, err := h.projects.Edit(ctx, username, projectID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "project edit failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
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
	if err := h.projects.Archive(ctx, username, projectID); err != nil {
		h.logger.WarnContext(ctx, "project archive failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
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
	if err := h.projects.Join(ctx, username, projectID); err != nil {
		h.logger.WarnContext(ctx, "project join failed",
			"request_id", requestID,
			"project_id", projectID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
