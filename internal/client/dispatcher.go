package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logpkg "github.com/benvon/smart-blog/internal/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName      = "github.com/benvon/smart-blog/internal/client"
	requestIDHeader = "X-Request-ID"
)

// HeaderSource supplies the credentials header merged into authenticated requests
type HeaderSource interface {
	AuthHeader(ctx context.Context) http.Header
}

// Options describes a single request
type Options struct {
	// Method defaults to GET
	Method string
	// Headers override the defaults
	Headers http.Header
	// Body may be nil, []byte, string, io.Reader or a value to encode as JSON
	Body any
	// NoAuth suppresses the Authorization header from the HeaderSource
	NoAuth bool
}

// Dispatcher sends requests to a configured base URL
type Dispatcher struct {
	base       string
	auth       HeaderSource
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.httpClient = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithTracerProvider sets the tracer provider; the global one is used otherwise
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) { d.tracer = tp.Tracer(tracerName) }
}

// NewDispatcher creates a dispatcher for base. auth may be nil.
func NewDispatcher(base string, auth HeaderSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		base:       base,
		auth:       auth,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Perform sends the request and classifies the response. It has no side effects
// beyond the HTTP call: 401 and 403 come back as *AuthError, every other status
// as a Result.
func (d *Dispatcher) Perform(ctx context.Context, path string, opts Options) (Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := d.tracer.Start(ctx, "blog.request "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.Bool("blog.no_auth", opts.NoAuth),
		),
	)
	defer span.End()

	body, err := encodeBody(opts.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode body")
		return Result{}, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.base+path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = d.buildHeaders(ctx, opts)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		d.logger.Debug("http_request_failed",
			zap.String("method", method),
			zap.String("path", logpkg.SanitizePath(path)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return Result{}, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			d.logger.Debug("failed_to_close_response_body", zap.Error(err))
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	d.logger.Debug("http_request",
		zap.String("method", method),
		zap.String("path", logpkg.SanitizePath(path)),
		zap.Int("status_code", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		zap.String("request_id", req.Header.Get(requestIDHeader)),
	)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		span.SetStatus(codes.Error, ErrUnauthorized.Error())
		return Result{}, &AuthError{Kind: Unauthorized, Method: method, Path: path}
	case http.StatusForbidden:
		span.SetStatus(codes.Error, ErrForbidden.Error())
		return Result{}, &AuthError{Kind: Forbidden, Method: method, Path: path}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return Result{}, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return NewResult(resp.StatusCode, data), nil
}

// buildHeaders merges defaults, caller headers and, unless suppressed, credentials
func (d *Dispatcher) buildHeaders(ctx context.Context, opts Options) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	for key, values := range opts.Headers {
		headers.Del(key)
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	if !opts.NoAuth && headers.Get("Authorization") == "" && d.auth != nil {
		for key, values := range d.auth.AuthHeader(ctx) {
			headers.Del(key)
			for _, v := range values {
				headers.Add(key, v)
			}
		}
	}

	if headers.Get(requestIDHeader) == "" {
		headers.Set(requestIDHeader, uuid.NewString())
	}
	return headers
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return bytes.NewReader([]byte(b)), nil
	case io.Reader:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(data), nil
	}
}
