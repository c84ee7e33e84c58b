package otel

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/go-pixiv/pixiv/pkg/request"
)

const maskedAttrValue = "****"

// attributes of one logical request.
// Slices without the Extra suffix are shared by spans and metrics, they must have a low cardinality.
// Extra slices are set on spans only.
type attributes struct {
	config        config
	definitionURL *url.URL // before it is sent
	httpURL       *url.URL // of the last attempt

	definition        []attribute.KeyValue
	definitionExtra   []attribute.KeyValue
	httpRequest       []attribute.KeyValue
	httpRequestExtra  []attribute.KeyValue
	httpResponse      []attribute.KeyValue
	httpResponseExtra []attribute.KeyValue
	httpResponseError []attribute.KeyValue // metrics only
}

func newAttributes(cfg config, def request.Definition) *attributes {
	reqURL := def.URL()

	var resultType string
	if t := reflect.TypeOf(def.ResultDef()); t != nil {
		resultType = t.String()
	}

	extra := []attribute.KeyValue{attribute.String("definition.url.full", redactURL(reqURL, cfg.redactedQueryParams))}
	extra = append(extra, headerAttrs("definition.header.", def.RequestHeader(), cfg.redactedHeaders)...)
	extra = append(extra, queryAttrs("definition.params.query.", def.QueryParams(), cfg.redactedQueryParams)...)

	return &attributes{
		config:        cfg,
		definitionURL: reqURL,
		definition: []attribute.KeyValue{
			attribute.String("definition.method", def.Method()),
			attribute.String("definition.result.type", resultType),
			attribute.String("definition.url.path", mustURLPathUnescape(reqURL.Path)),
			attribute.String("definition.url.host", reqURL.Host),
		},
		definitionExtra: extra,
	}
}

func (v *attributes) SetFromRequest(req *http.Request) {
	if req == nil {
		v.httpURL = nil
		v.httpRequest = nil
		v.httpRequestExtra = nil
		return
	}

	// Base
	v.httpURL = req.URL
	v.httpRequest = []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.ServerAddress(req.URL.Hostname()),
		semconv.URLScheme(req.URL.Scheme),
	}

	// Extra
	v.httpRequestExtra = []attribute.KeyValue{
		semconv.URLFull(redactURL(req.URL, v.config.redactedQueryParams)),
		semconv.UserAgentOriginal(req.UserAgent()),
	}
	v.httpRequestExtra = append(v.httpRequestExtra, headerAttrs("http.header.", req.Header, v.config.redactedHeaders, "user-agent")...)
}

func (v *attributes) SetFromResponse(res *http.Response, err error) {
	if res == nil {
		v.httpResponse = nil
		v.httpResponseExtra = nil
	} else {
		v.httpResponse = []attribute.KeyValue{semconv.HTTPResponseStatusCode(res.StatusCode)}
		v.httpResponseExtra = headerAttrs("http.response.header.", res.Header, v.config.redactedHeaders)
	}

	// Error
	var netErr net.Error
	errors.As(err, &netErr)
	v.httpResponseError = []attribute.KeyValue{
		attribute.Bool("http.response.isSuccess", isSuccess(res, err)),
		attribute.Bool("http.response.isRedirection", isRedirection(res)),
		attribute.Bool("http.response.error.has", err != nil),
		attribute.Bool("http.response.error.net", netErr != nil),
		attribute.Bool("http.response.error.timeout", netErr != nil && netErr.Timeout()),
		attribute.Bool("http.response.error.cancelled", errors.Is(err, context.Canceled)),
		attribute.Bool("http.response.error.deadline_exceeded", errors.Is(err, context.DeadlineExceeded)),
	}
}
