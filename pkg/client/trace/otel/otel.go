// Package otel provides OpenTelemetry tracing and metrics for HTTP client requests.
//
// The package provides 3 levels of telemetry:
//
// 1. High-level telemetry for each logical request sent by the client.
//   - Span "pixiv.go.client.request" wraps all redirects and retries together.
//   - Span "pixiv.go.client.retry.delay" tracks delay before retry.
//   - Metrics names start with "pixiv.go.client." (clientPrefix const), see the clientMeters struct.
//
// 2. Span and metrics for every sent HTTP request, including redirects and retries.
//   - Span name is "http.request".
//   - Metrics names start with "pixiv.go.http." (httpPrefix const), see the httpMeters struct.
//   - Response body size is recorded when the body is closed.
//
// 3. Optional low-level spans for HTTP request parts, see WithLowLevelSpans.
//   - Span names are "http.dns", "http.getconn", "http.connect", "http.tls", "http.send", "http.receive".
//   - Metrics are not provided.
//
// Access tokens are never exported: the Authorization header and token query parameters are masked.
package otel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-pixiv/pixiv/pkg/client/counter"
	"github.com/go-pixiv/pixiv/pkg/client/trace"
	"github.com/go-pixiv/pixiv/pkg/request"
)

const (
	traceAppName     = "github.com/go-pixiv/pixiv"
	attrResourceName = attribute.Key("resource.name")

	clientPrefix             = "pixiv.go.client."
	clientRequestSpanName    = clientPrefix + "request"
	clientRetryDelaySpanName = clientPrefix + "retry.delay"
	attrRetryAttempt         = attribute.Key("api.request.retry.attempt")
	attrRetryDelayMs         = attribute.Key("api.request.retry.delay_ms")

	httpPrefix          = "pixiv.go.http."
	httpSpanPrefix      = "http."
	httpRequestSpanName = httpSpanPrefix + "request"
)

// Datadog reads the span kind and type from attributes.
var datadogAttrs = []attribute.KeyValue{ //nolint:gochecknoglobals
	attribute.String("span.kind", "client"),
	attribute.String("span.type", "http"),
}

// NewTrace creates a trace.Factory which reports spans to the tracer provider and metrics to the meter provider.
// A nil provider is replaced by a no-op implementation.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(traceAppName)
	meters := newMeters(meterProvider.Meter(traceAppName))

	return func(ctx context.Context, def request.Definition) (context.Context, *trace.ClientTrace) {
		t := &requestTelemetry{cfg: cfg, tracer: tracer, meters: meters, attrs: newAttributes(cfg, def)}
		t.start(ctx)

		tc := &trace.ClientTrace{
			HTTPRequestStart: t.httpStart,
			HTTPRequestDone:  t.httpDone,
			HTTPRequestRetry: t.retry,
			RequestProcessed: t.processed,
		}
		if cfg.lowLevelSpans {
			registerLowLevelSpans(tc, tracer, func() context.Context { return t.httpCtx }, func(span otelTrace.Span) { t.receiveSpan = span })
		}
		return t.ctx, tc
	}
}

// requestTelemetry is the state of one logical request, which may be sent several times.
type requestTelemetry struct {
	cfg    config
	tracer otelTrace.Tracer
	meters *allMeters
	attrs  *attributes

	ctx       context.Context
	span      otelTrace.Span
	startedAt time.Time
	inFlight  otelMetric.MeasurementOption

	httpCtx       context.Context
	httpSpan      otelTrace.Span
	httpStartedAt time.Time
	httpInFlight  otelMetric.MeasurementOption
	receiveSpan   otelTrace.Span
	delaySpan     otelTrace.Span
}

func (t *requestTelemetry) start(ctx context.Context) {
	t.startedAt = time.Now()
	t.inFlight = otelMetric.WithAttributes(t.attrs.definition...)
	t.meters.client.inFlight.Add(ctx, 1, t.inFlight)
	t.ctx, t.span = t.tracer.Start(
		ctx,
		clientRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(attrResourceName.String(t.attrs.definitionURL.Path)),
		otelTrace.WithAttributes(datadogAttrs...),
		otelTrace.WithAttributes(t.attrs.definition...),
		otelTrace.WithAttributes(t.attrs.definitionExtra...),
	)
}

func (t *requestTelemetry) processed(_ any, err error) {
	elapsed := sinceMs(t.startedAt)

	// The in flight counter is decremented with the attributes it was incremented with.
	attrs := concatAttrs(t.attrs.definition, t.attrs.httpResponse)
	attrs = append(attrs, attribute.Bool("api.request.error.has", err != nil))
	t.meters.client.inFlight.Add(t.ctx, -1, t.inFlight)
	t.meters.client.duration.Record(t.ctx, elapsed, otelMetric.WithAttributes(attrs...))

	t.endDelaySpan()
	t.span.SetAttributes(t.attrs.httpResponse...)
	t.span.SetAttributes(t.attrs.httpResponseExtra...)
	endSpan(t.span, err)
}

func (t *requestTelemetry) httpStart(req *http.Request) {
	t.endDelaySpan()

	t.httpCtx, t.httpSpan = t.tracer.Start(
		t.ctx,
		httpRequestSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(datadogAttrs...),
	)
	if t.cfg.propagators != nil {
		t.cfg.propagators.Inject(t.httpCtx, propagation.HeaderCarrier(req.Header))
	}

	t.httpStartedAt = time.Now()
	t.attrs.SetFromRequest(req)
	t.httpInFlight = otelMetric.WithAttributes(t.attrs.httpRequest...)
	t.meters.http.inFlight.Add(t.ctx, 1, t.httpInFlight)

	t.httpSpan.SetAttributes(attrResourceName.String(t.attrs.httpURL.Path))
	t.httpSpan.SetAttributes(t.attrs.httpRequest...)
	t.httpSpan.SetAttributes(t.attrs.httpRequestExtra...)
}

func (t *requestTelemetry) httpDone(res *http.Response, err error) {
	elapsed := sinceMs(t.httpStartedAt)
	t.attrs.SetFromResponse(res, err)

	attrs := otelMetric.WithAttributes(concatAttrs(t.attrs.httpRequest, t.attrs.httpResponse, t.attrs.httpResponseError)...)
	t.meters.http.inFlight.Add(t.ctx, -1, t.httpInFlight)
	t.meters.http.duration.Record(t.ctx, elapsed, attrs)
	if res != nil && res.Body != nil {
		ctx := t.ctx
		res.Body = counter.NewReadCloser(res.Body, func(bytes int64, _ error) {
			t.meters.http.bodySize.Record(ctx, float64(bytes), attrs)
		})
	}

	if t.receiveSpan != nil {
		endSpan(t.receiveSpan, err)
		t.receiveSpan = nil
	}
	if t.httpSpan == nil {
		return
	}
	t.httpSpan.SetAttributes(t.attrs.httpResponse...)
	t.httpSpan.SetAttributes(t.attrs.httpResponseExtra...)
	if err == nil && res != nil && res.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf(`HTTP status code: %d %s`, res.StatusCode, http.StatusText(res.StatusCode))
	}
	endSpan(t.httpSpan, err)
	t.httpSpan = nil
}

// retry starts the delay span, it is ended by the next attempt or by processed on timeout.
func (t *requestTelemetry) retry(attempt int, delay time.Duration) {
	t.meters.http.retries.Add(t.ctx, 1, otelMetric.WithAttributes(concatAttrs(t.attrs.httpRequest, t.attrs.httpResponse)...))
	_, t.delaySpan = t.tracer.Start(
		t.ctx,
		clientRetryDelaySpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(t.attrs.httpRequest...),
		otelTrace.WithAttributes(t.attrs.httpResponse...),
		otelTrace.WithAttributes(
			attrRetryAttempt.Int(attempt),
			attrRetryDelayMs.Int64(delay.Milliseconds()),
		),
	)
}

func (t *requestTelemetry) endDelaySpan() {
	if t.delaySpan != nil {
		t.delaySpan.End()
		t.delaySpan = nil
	}
}

func endSpan(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func concatAttrs(groups ...[]attribute.KeyValue) []attribute.KeyValue {
	var out []attribute.KeyValue
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}
