package request

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// APIRequestSpanName is the name of the span wrapping all HTTP requests of one APIRequest.
const APIRequestSpanName = "pixiv.go.api.request"

const apiRequestTracerCtxKey = ctxKey("api-request-tracer")

type ctxKey string

type withTracer interface {
	Tracer() trace.Tracer
}

// APIRequest sends one or more requests and returns the value R they fill.
// Like HTTPRequest, it is immutable.
type APIRequest[R Result] interface {
	// WithBefore registers a check run before sending, an error cancels the request.
	WithBefore(fn func(ctx context.Context) error) APIRequest[R]
	// WithOnComplete registers a callback, the returned error replaces the error of the request.
	WithOnComplete(fn func(ctx context.Context, result R, err error) error) APIRequest[R]
	WithOnSuccess(fn func(ctx context.Context, result R) error) APIRequest[R]
	WithOnError(fn func(ctx context.Context, err error) error) APIRequest[R]
	Send(ctx context.Context) (result R, err error)
	SendOrErr(ctx context.Context) error
}

// APIRequestTracerFromContext returns the tracer of the enclosing APIRequest span.
func APIRequestTracerFromContext(ctx context.Context) (trace.Tracer, bool) {
	tracer, ok := ctx.Value(apiRequestTracerCtxKey).(trace.Tracer)
	return tracer, ok
}

// NewAPIRequest wraps the requests which fill the result.
// Multiple requests are sent concurrently.
func NewAPIRequest[R Result](result R, requests ...Sendable) APIRequest[R] {
	if len(requests) == 0 {
		panic(fmt.Errorf("at least one request must be provided"))
	}
	return apiRequest[R]{result: result, requests: requests}
}

type apiRequest[R Result] struct {
	result   R
	requests []Sendable
	checks   []func(ctx context.Context) error
	onDone   []func(ctx context.Context, result R, err error) error
}

func (r apiRequest[R]) WithBefore(fn func(ctx context.Context) error) APIRequest[R] {
	r.checks = append(r.checks[:len(r.checks):len(r.checks)], fn)
	return r
}

func (r apiRequest[R]) WithOnComplete(fn func(ctx context.Context, result R, err error) error) APIRequest[R] {
	r.onDone = append(r.onDone[:len(r.onDone):len(r.onDone)], fn)
	return r
}

func (r apiRequest[R]) WithOnSuccess(fn func(ctx context.Context, result R) error) APIRequest[R] {
	return r.WithOnComplete(func(ctx context.Context, result R, err error) error {
		if err != nil {
			return err
		}
		return fn(ctx, result)
	})
}

func (r apiRequest[R]) WithOnError(fn func(ctx context.Context, err error) error) APIRequest[R] {
	return r.WithOnComplete(func(ctx context.Context, _ R, err error) error {
		if err == nil {
			return nil
		}
		return fn(ctx, err)
	})
}

func (r apiRequest[R]) Send(ctx context.Context) (_ R, err error) {
	if span, spanCtx := r.startSpan(ctx); span != nil {
		ctx = spanCtx
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	if err := ctx.Err(); err != nil {
		return r.result, err
	}

	for _, check := range r.checks {
		if err := check(ctx); err != nil {
			return r.result, err
		}
	}

	if len(r.requests) == 1 {
		err = r.requests[0].SendOrErr(ctx)
	} else {
		err = Parallel(r.requests...).SendOrErr(ctx)
	}

	for _, fn := range r.onDone {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.result, ctxErr
		}
		err = fn(ctx, r.result, err)
	}

	return r.result, err
}

func (r apiRequest[R]) SendOrErr(ctx context.Context) error {
	_, err := r.Send(ctx)
	return err
}

// startSpan starts the API request span if the first request is sent by a traced sender.
func (r apiRequest[R]) startSpan(ctx context.Context) (trace.Span, context.Context) {
	v, ok := r.requests[0].(withTracer)
	if !ok {
		return nil, ctx
	}
	tracer := v.Tracer()
	if tracer == nil {
		return nil, ctx
	}

	var resultType string
	if t := reflect.TypeOf(r.result); t != nil {
		resultType = t.String()
	}

	ctx, span := tracer.Start(
		ctx,
		APIRequestSpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			// span.kind and span.type are read by Datadog.
			attribute.String("span.kind", "client"),
			attribute.String("span.type", "http"),
			attribute.Int("api.requests_count", len(r.requests)),
			attribute.String("api.result_type", resultType),
		),
	)
	return span, context.WithValue(ctx, apiRequestTracerCtxKey, tracer)
}
