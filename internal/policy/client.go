// Package policy talks to the external policy decision service. The service
// is the single authority on allow/deny; this client only transports payloads
// and keeps failure modes distinct: an unreachable service is "decision
// unavailable", never a deny.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "collabgate/pkg/domain-errors"

	"collabgate/internal/platform/metrics"
)

const tracerName = "collabgate/internal/policy"

// Client calls the policy service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewClient creates a client for the policy service at baseURL. Every call is
// bounded by timeout; an expired deadline surfaces as a retryable timeout
// error, not a verdict.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// InstallPolicy installs or replaces a policy under the given id. The body is
// opaque policy-language text. Any non-2xx status is a hard failure.
func (c *Client) InstallPolicy(ctx context.Context, policyID, policyText string) error {
	ctx, span := c.tracer.Start(ctx, "policy.install",
		trace.WithAttributes(attribute.String("policy.id", policyID)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/v1/policies/"+policyID, strings.NewReader(policyText))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build policy install request")
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return c.transportError(err, "policy install failed")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return dErrors.Newf(dErrors.CodeUnavailable, "policy install failed: %s", resp.Status)
	}
	return nil
}

// PushData replaces the document at the given data path. The service answers
// 204 on success.
func (c *Client) PushData(ctx context.Context, dataPath string, data any) error {
	ctx, span := c.tracer.Start(ctx, "policy.push_data",
		trace.WithAttributes(attribute.String("policy.data_path", dataPath)))
	defer span.End()

	body, err := json.Marshal(data)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode policy data")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/v1/data/"+strings.TrimLeft(dataPath, "/"), bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build data push request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return c.transportError(err, "policy data push failed")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusNoContent {
		span.SetStatus(codes.Error, resp.Status)
		return dErrors.Newf(dErrors.CodeUnavailable, "policy data push failed: %s", resp.Status)
	}
	return nil
}

// Evaluate queries the document at the given data path with the payload as
// input and returns the verdict. An absent, null or false result is "not
// allowed"; a non-2xx status or transport failure is an error, which callers
// must never collapse into a deny.
func (c *Client) Evaluate(ctx context.Context, dataPath string, input any) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "policy.evaluate",
		trace.WithAttributes(attribute.String("policy.data_path", dataPath)))
	defer span.End()

	start := time.Now()
	allowed, err := c.evaluate(ctx, dataPath, input)
	c.metrics.ObservePolicyEval(time.Since(start), err != nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("policy.allowed", allowed))
	return allowed, nil
}

func (c *Client) evaluate(ctx context.Context, dataPath string, input any) (bool, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode policy input")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/data/"+strings.TrimLeft(dataPath, "/"), bytes.NewReader(body))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build evaluation request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, c.transportError(err, "decision unavailable")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "policy evaluation returned non-2xx",
			"data_path", dataPath,
			"status", resp.Status,
		)
		return false, dErrors.Newf(dErrors.CodeUnavailable, "decision unavailable: %s", resp.Status)
	}

	var verdict struct {
		Result any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "decision unavailable: malformed response")
	}
	allowed, _ := verdict.Result.(bool)
	return allowed, nil
}

// transportError distinguishes expired deadlines from other transport
// failures so callers can retry timeouts specifically.
func (c *Client) transportError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, message+": timed out")
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return dErrors.Wrap(err, dErrors.CodeTimeout, message+": timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("%s: %v", message, err))
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
