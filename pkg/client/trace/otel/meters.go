package otel

import (
	"github.com/hashicorp/go-multierror"
	otelMetric "go.opentelemetry.io/otel/metric"
)

const (
	unitMs    = "ms"
	unitBytes = "By"
)

type allMeters struct {
	client clientMeters
	http   httpMeters
}

// clientMeters measure logical requests, redirects and retries included.
type clientMeters struct {
	inFlight otelMetric.Int64UpDownCounter
	duration otelMetric.Float64Histogram
}

// httpMeters measure each attempt.
type httpMeters struct {
	inFlight otelMetric.Int64UpDownCounter
	duration otelMetric.Float64Histogram
	retries  otelMetric.Int64Counter
	bodySize otelMetric.Float64Histogram
}

// meterBuilder collects instrument errors, newMeters panics if there is any.
type meterBuilder struct {
	meter otelMetric.Meter
	errs  error
}

func newMeters(meter otelMetric.Meter) *allMeters {
	b := &meterBuilder{meter: meter}
	m := &allMeters{
		client: clientMeters{
			inFlight: b.upDownCounter(clientPrefix+"request.in_flight", "Logical requests in flight."),
			duration: b.histogram(clientPrefix+"request.duration", "Logical request duration, response decoding included.", unitMs),
		},
		http: httpMeters{
			inFlight: b.upDownCounter(httpPrefix+"request.in_flight", "HTTP attempts in flight."),
			duration: b.histogram(httpPrefix+"request.duration", "HTTP attempt duration until the response headers.", unitMs),
			retries:  b.counter(httpPrefix+"request.retries", "Retried HTTP attempts."),
			bodySize: b.histogram(httpPrefix+"response.body_size", "Response body size, recorded on close.", unitBytes),
		},
	}
	if b.errs != nil {
		panic(b.errs)
	}
	return m
}

func (b *meterBuilder) upDownCounter(name, desc string) otelMetric.Int64UpDownCounter {
	v, err := b.meter.Int64UpDownCounter(name, otelMetric.WithDescription(desc))
	b.errs = multierror.Append(b.errs, err).ErrorOrNil()
	return v
}

func (b *meterBuilder) counter(name, desc string) otelMetric.Int64Counter {
	v, err := b.meter.Int64Counter(name, otelMetric.WithDescription(desc))
	b.errs = multierror.Append(b.errs, err).ErrorOrNil()
	return v
}

func (b *meterBuilder) histogram(name, desc, unit string) otelMetric.Float64Histogram {
	v, err := b.meter.Float64Histogram(name, otelMetric.WithDescription(desc), otelMetric.WithUnit(unit))
	b.errs = multierror.Append(b.errs, err).ErrorOrNil()
	return v
}
