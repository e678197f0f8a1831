package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "collabgate/pkg/domain"
	dErrors "collabgate/pkg/domain-errors"

	"collabgate/internal/platform/middleware"
)

// stubValidator accepts any token and reports the token string as username.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	return &middleware.JWTClaims{Username: token}, nil
}

// stubRequestService records calls and returns canned results.
type stubRequestService struct {
	submitted *Request
	decideErr error
	decided   *Request
}

func (s *stubRequestService) Submit(ctx context.Context, applicant id.Username, projectID id.ProjectID, form url.Values) (*Request, error) {
	s.submitted = &Request{
		ID:        id.NewRequestID(),
		ProjectID: projectID,
		Username:  applicant,
		Status:    id.RequestStatusSubmitted,
	}
	return s.submitted, nil
}

func (s *stubRequestService) AttachDataFormat(ctx context.Context, applicant id.Username, requestID id.RequestID, dataFormat map[string]any) (*Request, error) {
	return &Request{ID: requestID, Username: applicant, DataAnswersFile: "ref"}, nil
}

func (s *stubRequestService) Get(ctx context.Context, caller id.Username, requestID id.RequestID) (*Request, error) {
	return &Request{ID: requestID, Username: caller}, nil
}

func (s *stubRequestService) ListForProject(ctx context.Context, caller id.Username, projectID id.ProjectID) ([]*Request, error) {
	return nil, nil
}

func (s *stubRequestService) ListMine(ctx context.Context, caller id.Username) ([]*Request, error) {
	return nil, nil
}

func (s *stubRequestService) Decide(ctx context.Context, caller id.Username, requestID id.RequestID, rawDecision, reason string) (*Request, error) {
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	s.decided = &Request{ID: requestID, Status: id.RequestStatusAccepted, DecidedBy: caller}
	return s.decided, nil
}

func newTestHandler(svc RequestService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(svc, logger, nil, stubValidator{})
	router := chi.NewRouter()
	handler.Register(router)
	return router
}

func doJSON(t *testing.T, handler http.Handler, method, target, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmit(t *testing.T) {
	svc := &stubRequestService{}
	handler := newTestHandler(svc)

	rec := doJSON(t, handler, http.MethodPost, "/projects/project1/requests", "alice",
		`{"answers":{"dataNature.involvesHumanResearch":"yes","securityInfrastructure.securityCertifications":["ISO27001","SOC2"]}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.submitted)
	assert.Equal(t, id.Username("alice"), svc.submitted.Username)
	assert.Equal(t, id.ProjectID("project1"), svc.submitted.ProjectID)
}

func TestHandleSubmitRejectsNonStringAnswers(t *testing.T) {
	handler := newTestHandler(&stubRequestService{})
	rec := doJSON(t, handler, http.MethodPost, "/projects/project1/requests", "alice",
		`{"answers":{"dataNature.involvesHumanResearch":42}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitRequiresAuth(t *testing.T) {
	handler := newTestHandler(&stubRequestService{})
	req := httptest.NewRequest(http.MethodPost, "/projects/project1/requests", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDecide(t *testing.T) {
	t.Run("owner decision flows through", func(t *testing.T) {
		svc := &stubRequestService{}
		handler := newTestHandler(svc)
		reqID := id.NewRequestID()

		rec := doJSON(t, handler, http.MethodPost, "/requests/"+reqID.String()+"/decide", "olivia",
			`{"decision":"accept"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var got Request
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, id.RequestStatusAccepted, got.Status)
		assert.Equal(t, id.Username("olivia"), got.DecidedBy)
	})

	t.Run("forbidden maps to 403 with a generic denial", func(t *testing.T) {
		svc := &stubRequestService{decideErr: dErrors.New(dErrors.CodeForbidden, "only the project owner may decide")}
		handler := newTestHandler(svc)
		reqID := id.NewRequestID()

		rec := doJSON(t, handler, http.MethodPost, "/requests/"+reqID.String()+"/decide", "mallory",
			`{"decision":"accept"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "access denied")
		assert.NotContains(t, rec.Body.String(), "project owner")
	})

	t.Run("malformed request id maps to 400", func(t *testing.T) {
		handler := newTestHandler(&stubRequestService{})
		rec := doJSON(t, handler, http.MethodPost, "/requests/not-a-uuid/decide", "olivia",
			`{"decision":"accept"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
