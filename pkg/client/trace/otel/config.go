package otel

import (
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

// Option customizes NewTrace.
type Option func(*config)

type config struct {
	propagators         propagation.TextMapPropagator
	lowLevelSpans       bool
	redactedQueryParams redactSet
	redactedHeaders     redactSet
}

// redactSet holds lower-cased names whose values are replaced by "****".
type redactSet map[string]struct{}

func newRedactSet(names ...string) redactSet {
	s := make(redactSet, len(names))
	s.add(names...)
	return s
}

func (s redactSet) add(names ...string) {
	for _, n := range names {
		s[strings.ToLower(n)] = struct{}{}
	}
}

// WithPropagators injects the trace context to outgoing requests.
func WithPropagators(v propagation.TextMapPropagator) Option {
	return func(c *config) { c.propagators = v }
}

// WithLowLevelSpans enables spans for DNS lookup, connection, TLS handshake, request write and response read.
func WithLowLevelSpans() Option {
	return func(c *config) { c.lowLevelSpans = true }
}

// WithRedactedQueryParam masks more query parameters, the token parameters are always masked.
func WithRedactedQueryParam(params ...string) Option {
	return func(c *config) { c.redactedQueryParams.add(params...) }
}

// WithRedactedHeaders masks more headers, the auth and cookie headers are always masked.
func WithRedactedHeaders(headers ...string) Option {
	return func(c *config) { c.redactedHeaders.add(headers...) }
}

func newConfig(opts []Option) config {
	cfg := config{
		redactedQueryParams: newRedactSet("access_token", "refresh_token", "password"),
		redactedHeaders: newRedactSet(
			"Authorization", "WWW-Authenticate",
			"Proxy-Authenticate", "Proxy-Authorization",
			"Cookie", "Set-Cookie",
		),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
