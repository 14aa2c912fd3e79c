package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Request is a single GET with query parameters and an optional JSON result.
type Request interface {
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
	Get(ctx context.Context, path string) (*Response, error)
}

// Response is the status and raw body of a completed request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess reports a status below 400.
func (r *Response) IsSuccess() bool {
	return r.StatusCode < 400
}

type request struct {
	client  *instrumentedClient
	opts    requestOptions
	headers http.Header
	query   url.Values
	result  any
}

func (r *request) SetHeader(key, value string) Request {
	r.headers.Set(key, value)
	return r
}

func (r *request) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

func (r *request) SetResult(result any) Request {
	r.result = result
	return r
}

// Get sends the request. Failure statuses go through the error handler; a
// result that does not decode is INVALID_FORMAT.
func (r *request) Get(ctx context.Context, path string) (*Response, error) {
	c := r.client
	target := r.url(path)

	ctx, span := c.tracer.Start(ctx, "http.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.provider", c.opts.providerName),
			attribute.String("http.path", path),
		),
	)
	defer span.End()
	if c.opts.traceQuery && len(r.query) > 0 {
		span.AddEvent("request.query", trace.WithAttributes(attribute.String("http.query", r.query.Encode())))
	}

	start := time.Now()
	resp, err := r.do(ctx, span, target)
	r.record(ctx, resp, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
	}
	return resp, err
}

func (r *request) do(ctx context.Context, span trace.Span, target string) (*Response, error) {
	c := r.client

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext(target), apperror.WithCause(err))
	}
	req.Header = r.headers

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(c.opts.providerName, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(c.opts.providerName, err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.opts.traceBody {
		span.AddEvent("response.body", trace.WithAttributes(attribute.String("http.body", clip(body, traceBodyLimit))))
	}

	if err := r.opts.errorHandler(resp.StatusCode, body); err != nil {
		return resp, err
	}
	if r.result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			return resp, apperror.New(apperror.CodeInvalidFormat,
				apperror.WithContext(c.opts.providerName), apperror.WithCause(err))
		}
	}
	return resp, nil
}

func (r *request) url(path string) string {
	target := path
	if base := r.client.opts.baseURL; base != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + r.query.Encode()
}

func (r *request) record(ctx context.Context, resp *Response, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(apperror.GetCode(err)))
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	attrs := make([]attribute.KeyValue, 0, 3+len(r.opts.labels))
	attrs = append(attrs,
		attribute.String("provider", r.client.opts.providerName),
		attribute.String("outcome", outcome),
		attribute.Int("status", status),
	)
	for _, l := range r.opts.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	set := metric.WithAttributes(attrs...)
	r.client.requests.Add(ctx, 1, set)
	r.client.duration.Record(ctx, elapsed.Seconds(), set)
}

// DefaultErrorHandler maps failure statuses onto application codes; 429 is
// RATE_LIMIT_EXCEEDED so callers can back off.
func DefaultErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	detail := fmt.Sprintf("status %d: %s", statusCode, clip(body, errorDetailLimit))
	code := apperror.CodeExternalServiceError
	switch {
	case statusCode == http.StatusTooManyRequests:
		code = apperror.CodeRateLimitExceeded
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		code = apperror.CodeExchangeAuthFailed
	case statusCode == http.StatusNotFound:
		code = apperror.CodeNotFound
	case statusCode >= 500:
		code = apperror.CodeServiceUnavailable
	}
	return apperror.New(code, apperror.WithContext(detail))
}

func transportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperror.New(apperror.CodeServiceTimeout, apperror.WithContext(provider), apperror.WithCause(err))
	}
	return apperror.External(apperror.CodeExternalServiceError, provider, err)
}

func clip(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
