package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Result - any value.
type Result = any

// NoResult type.
type NoResult struct{}

// Definition is the read-only view of an HTTPRequest, as seen by a Sender.
type Definition interface {
	// Method returns HTTP method, it panics if the method is not set.
	Method() string
	// URL returns the request URL resolved against the base URL, it panics if the URL is not set.
	URL() *url.URL
	RequestHeader() http.Header
	// QueryParams are merged with the query already present in the URL.
	QueryParams() url.Values
	// RequestBody is nil, a string, a []byte or an io.ReadSeeker.
	RequestBody() any
	// ErrorDef is a pointer the JSON error response is decoded into.
	ErrorDef() error
	// ResultDef is a pointer or an io.Writer the successful response is decoded into.
	ResultDef() any
}

// HTTPRequest is an immutable HTTP request.
// Setters return a modified copy and never change the receiver.
type HTTPRequest interface {
	Definition
	WithMethod(method string) HTTPRequest
	// WithGet sets the GET method and the URL.
	WithGet(url string) HTTPRequest
	// WithPost sets the POST method and the URL.
	WithPost(url string) HTTPRequest
	// WithURL sets the URL, a relative URL is resolved against the base URL.
	WithURL(url string) HTTPRequest
	WithBaseURL(baseURL string) HTTPRequest
	// AndHeader replaces a single header value.
	AndHeader(key, value string) HTTPRequest
	// AndQueryParam replaces a single query parameter value.
	AndQueryParam(key, value string) HTTPRequest
	// WithFormBody encodes the values as an "application/x-www-form-urlencoded" body.
	WithFormBody(form map[string]any) HTTPRequest
	WithResult(result any) HTTPRequest
	WithError(err error) HTTPRequest
	// WithOnComplete registers a callback invoked after the response is received.
	// The returned error replaces the error of the request.
	WithOnComplete(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest
	WithOnSuccess(fn func(ctx context.Context, response HTTPResponse) error) HTTPRequest
	WithOnError(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest
	Send(ctx context.Context) (response HTTPResponse, result any, err error)
	SendOrErr(ctx context.Context) error
}

type onComplete = func(ctx context.Context, response HTTPResponse, err error) error

type httpRequest struct {
	sender Sender

	method string
	base   *url.URL
	target *url.URL
	header http.Header
	query  url.Values
	body   any

	result any
	errDef error
	onDone []onComplete
}

// NewHTTPRequest creates an empty request sent by the sender.
func NewHTTPRequest(sender Sender) HTTPRequest {
	return httpRequest{sender: sender, header: make(http.Header)}
}

// Tracer returns the tracer of the sender, if it has one.
func (r httpRequest) Tracer() trace.Tracer {
	if v, ok := r.sender.(withTracer); ok {
		return v.Tracer()
	}
	return nil
}

func (r httpRequest) Method() string {
	if r.method == "" {
		panic(fmt.Errorf("request method is not set"))
	}
	return r.method
}

func (r httpRequest) URL() *url.URL {
	if r.target == nil {
		panic(fmt.Errorf("request url is not set"))
	}
	out := *r.target
	if r.base == nil || out.IsAbs() {
		return &out
	}
	out.Path = strings.TrimLeft(out.Path, "/")
	return r.base.ResolveReference(&out)
}

func (r httpRequest) RequestHeader() http.Header { return r.header }

func (r httpRequest) QueryParams() url.Values { return r.query }

func (r httpRequest) RequestBody() any { return r.body }

func (r httpRequest) ErrorDef() error { return r.errDef }

func (r httpRequest) ResultDef() any { return r.result }

func (r httpRequest) WithMethod(method string) HTTPRequest {
	r.method = method
	return r
}

func (r httpRequest) WithGet(url string) HTTPRequest {
	return r.WithMethod(http.MethodGet).WithURL(url)
}

func (r httpRequest) WithPost(url string) HTTPRequest {
	return r.WithMethod(http.MethodPost).WithURL(url)
}

func (r httpRequest) WithURL(rawURL string) HTTPRequest {
	r.target = mustParseURL("url", rawURL)
	return r
}

func (r httpRequest) WithBaseURL(baseURL string) HTTPRequest {
	base := mustParseURL("base url", strings.TrimRight(baseURL, "/"))
	// ResolveReference keeps the last path segment only if it ends with a slash.
	base.Path = strings.TrimRight(base.Path, "/") + "/"
	r.base = base
	return r
}

func (r httpRequest) AndHeader(key, value string) HTTPRequest {
	r.header = r.header.Clone()
	r.header.Set(key, value)
	return r
}

func (r httpRequest) AndQueryParam(key, value string) HTTPRequest {
	r.query = cloneURLValues(r.query)
	r.query.Set(key, value)
	return r
}

func (r httpRequest) WithFormBody(form map[string]any) HTTPRequest {
	values := make(url.Values, len(form))
	for k, v := range form {
		values.Set(k, castToString(v))
	}
	r.body = values.Encode()
	return r.AndHeader("Content-Type", "application/x-www-form-urlencoded")
}

func (r httpRequest) WithResult(result any) HTTPRequest {
	if _, ok := result.(io.Writer); !ok && !isPointer(result) {
		panic(fmt.Errorf(`result must be defined by a pointer`))
	}
	r.result = result
	return r
}

func (r httpRequest) WithError(err error) HTTPRequest {
	if !isPointer(err) {
		panic(fmt.Errorf(`error must be defined by a pointer`))
	}
	r.errDef = err
	return r
}

func (r httpRequest) WithOnComplete(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest {
	r.onDone = append(r.onDone[:len(r.onDone):len(r.onDone)], fn)
	return r
}

func (r httpRequest) WithOnSuccess(fn func(ctx context.Context, response HTTPResponse) error) HTTPRequest {
	return r.WithOnComplete(func(ctx context.Context, response HTTPResponse, err error) error {
		if err != nil {
			return err
		}
		return fn(ctx, response)
	})
}

func (r httpRequest) WithOnError(fn func(ctx context.Context, response HTTPResponse, err error) error) HTTPRequest {
	return r.WithOnComplete(func(ctx context.Context, response HTTPResponse, err error) error {
		if err == nil {
			return nil
		}
		return fn(ctx, response, err)
	})
}

func (r httpRequest) Send(ctx context.Context) (HTTPResponse, any, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	raw, result, err := r.sender.Send(ctx, r)
	res := &httpResponse{Definition: r, raw: raw, result: result, err: err}

	for _, fn := range r.onDone {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		res.err = fn(ctx, res, res.err)
	}

	return res, res.result, res.err
}

func (r httpRequest) SendOrErr(ctx context.Context) error {
	_, _, err := r.Send(ctx)
	return err
}

func mustParseURL(kind, rawURL string) *url.URL {
	v, err := url.Parse(rawURL)
	if err != nil {
		panic(fmt.Errorf(`%s "%s" is not valid: %w`, kind, rawURL, err))
	}
	return v
}

func isPointer(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Pointer
}
