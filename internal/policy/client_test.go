package policy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "collabgate/pkg/domain-errors"
)

func newTestClient(url string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(url, 2*time.Second, nil, logger)
}

func TestEvaluate(t *testing.T) {
	t.Run("true result allows", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/data/collab/onboarding/allow", r.URL.Path)

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body, "input")

			_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
		}))
		defer server.Close()

		allowed, err := newTestClient(server.URL).Evaluate(context.Background(),
			"collab/onboarding/allow", map[string]any{"x": 1})
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("absent, null and false results deny", func(t *testing.T) {
		for _, response := range []string{`{}`, `{"result":null}`, `{"result":false}`} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(response))
			}))
			allowed, err := newTestClient(server.URL).Evaluate(context.Background(), "p/allow", nil)
			server.Close()
			require.NoError(t, err, response)
			assert.False(t, allowed, response)
		}
	})

	t.Run("non-2xx is unavailable, not a deny", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).Evaluate(context.Background(), "p/allow", nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("slow service times out distinctly", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server cancels the request context when
			// the client gives up; otherwise Close deadlocks on this handler.
			_, _ = io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
		}))
		defer server.Close()

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client := NewClient(server.URL, 50*time.Millisecond, nil, logger)
		_, err := client.Evaluate(context.Background(), "p/allow", nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("unreachable service is unavailable", func(t *testing.T) {
		_, err := newTestClient("http://127.0.0.1:1").Evaluate(context.Background(), "p/allow", nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestInstallPolicy(t *testing.T) {
	t.Run("puts opaque policy text", func(t *testing.T) {
		var gotBody string
		var gotContentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v1/policies/onboarding", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			gotBody = string(body)
			gotContentType = r.Header.Get("Content-Type")
		}))
		defer server.Close()

		err := newTestClient(server.URL).InstallPolicy(context.Background(),
			"onboarding", "package collab.onboarding\n\ndefault allow = false")
		require.NoError(t, err)
		assert.Contains(t, gotBody, "default allow")
		assert.Equal(t, "text/plain", gotContentType)
	})

	t.Run("non-2xx is a hard failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		err := newTestClient(server.URL).InstallPolicy(context.Background(), "onboarding", "not rego")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestPushData(t *testing.T) {
	t.Run("expects 204", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v1/data/collab/config", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		err := newTestClient(server.URL).PushData(context.Background(),
			"collab/config", map[string]any{"max_requests": 10})
		assert.NoError(t, err)
	})

	t.Run("200 is not success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := newTestClient(server.URL).PushData(context.Background(), "collab/config", nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
