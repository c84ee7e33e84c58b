// Package client provides the default implementation of the request.Sender interface.
//
// Client is based on the standard net/http package.
// It resolves request URLs, merges headers and query parameters,
// decodes compressed responses and maps JSON responses to the result/error values of the request.
//
// Retries, client-side rate limiting and tracing are optional, see WithRetry, WithRateLimit and AndTrace.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/go-pixiv/pixiv/pkg/client/trace"
	"github.com/go-pixiv/pixiv/pkg/client/trace/otel"
	"github.com/go-pixiv/pixiv/pkg/request"
)

const (
	// DefaultUserAgent is sent if no other User-Agent is set.
	DefaultUserAgent = "go-pixiv"
	tracerName       = "github.com/go-pixiv/pixiv"
)

// Client is a default and configurable implementation of the request.Sender interface by Go native http.Client.
type Client struct {
	transport      http.RoundTripper
	baseURL        *url.URL
	header         http.Header
	retry          RetryConfig
	limiter        *rate.Limiter
	tracer         otelTrace.Tracer
	traceFactories []trace.Factory
}

// New creates new HTTP Client.
func New() Client {
	c := Client{transport: DefaultTransport(), header: make(http.Header), retry: DefaultRetry()}
	c.header.Set("User-Agent", DefaultUserAgent)
	c.header.Set("Accept-Encoding", "gzip, br")
	return c
}

// WithBaseURL returns a clone of the Client with base url set.
func (c Client) WithBaseURL(baseURLStr string) Client {
	baseURL, err := url.Parse(baseURLStr)
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, baseURLStr, err))
	}
	c.baseURL = baseURL
	return c
}

// WithUserAgent returns a clone of the Client with user agent set.
func (c Client) WithUserAgent(v string) Client {
	return c.WithHeader("User-Agent", v)
}

// WithHeader returns a clone of the Client with common header set.
func (c Client) WithHeader(key, value string) Client {
	c.header = c.header.Clone()
	c.header.Set(key, value)
	return c
}

// WithTransport returns a clone of the Client with a HTTP transport set.
func (c Client) WithTransport(transport http.RoundTripper) Client {
	if transport == nil {
		panic(fmt.Errorf("transport cannot be nil"))
	}
	c.transport = transport
	return c
}

// WithRetry returns a clone of the Client with retry config set.
func (c Client) WithRetry(retry RetryConfig) Client {
	c.retry = retry
	return c
}

// WithRateLimit returns a clone of the Client which waits for the limiter before each HTTP request.
// A nil limiter disables the limit.
func (c Client) WithRateLimit(limiter *rate.Limiter) Client {
	c.limiter = limiter
	return c
}

// AndTrace returns a clone of the Client with the trace factory registered.
// Factories registered before are kept, their hooks are composed.
func (c Client) AndTrace(fn trace.Factory) Client {
	c.traceFactories = append(c.traceFactories[:len(c.traceFactories):len(c.traceFactories)], fn)
	return c
}

// WithTelemetry returns a clone of the Client with OpenTelemetry tracing and metrics.
func (c Client) WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...otel.Option) Client {
	if tracerProvider != nil {
		c.tracer = tracerProvider.Tracer(tracerName)
	}
	return c.AndTrace(otel.NewTrace(tracerProvider, meterProvider, opts...))
}

// Tracer returns the OpenTelemetry tracer, if the telemetry is enabled.
// It is used by request.APIRequest to create a parent span.
func (c Client) Tracer() otelTrace.Tracer {
	return c.tracer
}

// Send method sends HTTP request and returns HTTP response, it implements the request.Sender interface.
func (c Client) Send(ctx context.Context, def request.Definition) (res *http.Response, result any, err error) {
	// Method cannot be called on an empty value
	if c.transport == nil {
		panic(fmt.Errorf("client value is not initialized"))
	}

	// Convert to absolute url
	reqURL := def.URL()
	if c.baseURL != nil && !reqURL.IsAbs() {
		reqURL.Path = strings.TrimLeft(reqURL.Path, "/")
		reqURL = c.baseURL.ResolveReference(reqURL)
	}

	// Merge query parameters with the query already present in the URL
	if params := def.QueryParams(); len(params) > 0 {
		query := reqURL.Query()
		for k, values := range params {
			query[k] = values
		}
		reqURL.RawQuery = query.Encode()
	}

	// Init trace
	var clientTrace *trace.ClientTrace
	for _, factory := range c.traceFactories {
		var t *trace.ClientTrace
		ctx, t = factory(ctx, def)
		if t == nil {
			continue
		}
		if clientTrace != nil {
			t.Compose(clientTrace)
		}
		clientTrace = t
	}
	if clientTrace != nil {
		ctx = httptrace.WithClientTrace(ctx, &clientTrace.ClientTrace)
		if clientTrace.RequestProcessed != nil {
			defer func() {
				clientTrace.RequestProcessed(result, err)
			}()
		}
	}

	// Create request
	req, err := http.NewRequestWithContext(ctx, def.Method(), reqURL.String(), nil)
	if err != nil {
		return nil, nil, err
	}

	// Global headers
	for k, values := range c.header {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	// Request headers
	for k, values := range def.RequestHeader() {
		req.Header.Del(k) // clear global values
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	// Body
	if def.RequestBody() != nil {
		// GetBody factory is used for requests when a redirect/retry requires reading the body more than once.
		req.GetBody = func() (io.ReadCloser, error) {
			body, err := requestBody(def)
			if err != nil {
				return nil, fmt.Errorf(`request %s "%s": cannot prepare request body: %w`, req.Method, req.URL.String(), err)
			}
			return body, nil
		}
		req.Body, err = req.GetBody()
		if err != nil {
			return nil, nil, err
		}
	}

	// Setup native client
	nativeClient := http.Client{
		Timeout: c.retry.TotalRequestTimeout,
		Transport: roundTripper{
			trace:   clientTrace,
			retry:   c.retry,
			limiter: c.limiter,
			wrapped: c.transport,
		},
	}

	// Send request
	startedAt := time.Now()
	res, err = nativeClient.Do(req)
	if err != nil {
		return nil, nil, sendError(req, err, startedAt, c.retry.TotalRequestTimeout)
	}

	// Process body
	if r, e, unexpectedErr := mapResponse(res, def.ResultDef(), def.ErrorDef()); unexpectedErr == nil {
		result, err = r, e
	} else {
		err = fmt.Errorf(`cannot process request %s "%s": %w`, req.Method, req.URL.String(), unexpectedErr)
	}

	// Generic HTTP error
	if err == nil && res.StatusCode > 399 {
		return res, nil, fmt.Errorf(`request %s "%s" failed: %d %s`, req.Method, req.URL.String(), res.StatusCode, http.StatusText(res.StatusCode))
	}

	return res, result, err
}

func requestBody(def request.Definition) (io.ReadCloser, error) {
	switch v := def.RequestBody().(type) {
	case string:
		return io.NopCloser(strings.NewReader(v)), nil
	case []byte:
		return io.NopCloser(bytes.NewReader(v)), nil
	case io.ReadSeeker:
		// The body is read again on retry.
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return io.NopCloser(v), nil
	default:
		return nil, fmt.Errorf(`unsupported body type %T`, v)
	}
}
