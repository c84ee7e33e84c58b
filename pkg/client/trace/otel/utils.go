package otel

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

func isSuccess(r *http.Response, err error) bool {
	if err != nil {
		return false
	}
	return r != nil && r.StatusCode < http.StatusBadRequest
}

func isRedirection(r *http.Response) bool {
	return r != nil && r.StatusCode >= http.StatusMultipleChoices && r.StatusCode < http.StatusBadRequest
}

// redactURL returns the URL string with the redacted query parameters masked.
func redactURL(u *url.URL, redacted map[string]struct{}) string {
	if u == nil {
		return ""
	}
	clone := *u
	clone.User = nil
	if clone.RawQuery != "" {
		query := clone.Query()
		for k := range query {
			if _, found := redacted[strings.ToLower(k)]; found {
				query.Set(k, maskedAttrValue)
			}
		}
		clone.RawQuery = query.Encode()
	}
	return mustURLPathUnescape(clone.String())
}

// headerAttrs uses lower case keys, values are joined by ";".
func headerAttrs(prefix string, header http.Header, redacted map[string]struct{}, skip ...string) []attribute.KeyValue {
	lower := make(map[string][]string, len(header))
	for k, v := range header {
		if k = strings.ToLower(k); !slices.Contains(skip, k) {
			lower[k] = v
		}
	}
	return queryAttrs(prefix, lower, redacted)
}

// queryAttrs returns one attribute per key, sorted by key, the redacted keys are masked.
func queryAttrs(prefix string, values map[string][]string, redacted map[string]struct{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for _, k := range slices.Sorted(maps.Keys(values)) {
		value := strings.Join(values[k], ";")
		if _, found := redacted[strings.ToLower(k)]; found {
			value = maskedAttrValue
		}
		attrs = append(attrs, attribute.String(prefix+k, value))
	}
	return attrs
}

func mustURLPathUnescape(in string) string {
	out, err := url.PathUnescape(in)
	if err != nil {
		return in
	}
	return out
}
