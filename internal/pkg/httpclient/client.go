package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client is a traced HTTP client for service-to-service calls. It carries no
// Timeout of its own: every call is bounded by the context the caller passes,
// which keeps the timeout policy at the call site.
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
}

func NewClient(tracer trace.Tracer) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
	}
}

// StatusError is returned for any non-2xx response so callers can translate
// remote status codes into their own domain errors.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.Code, e.Body)
}

// DoJSON issues method against rawURL, marshalling body (if non-nil) as JSON
// and decoding a 2xx response into out (if non-nil). Trace context is
// propagated through the request headers.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, body, out interface{}) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	spanName := fmt.Sprintf("call-%s", strings.Split(parsedURL.Host, ":")[0])

	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", rawURL),
		attribute.String("http.method", method),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}
