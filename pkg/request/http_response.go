package request

import "net/http"

// HTTPResponse is a completed HTTPRequest.
type HTTPResponse interface {
	Definition
	// StatusCode is 0 if no response has been received, for example on a network error.
	StatusCode() int
	ResponseHeader() http.Header
	// Result is the value decoded from a successful response, if any.
	Result() any
	// Error is the decoded error response, a generic HTTP error or a transport error.
	Error() error
}

type httpResponse struct {
	Definition
	raw    *http.Response
	result any
	err    error
}

func (r *httpResponse) StatusCode() int {
	if r.raw == nil {
		return 0
	}
	return r.raw.StatusCode
}

func (r *httpResponse) ResponseHeader() http.Header {
	if r.raw == nil {
		return nil
	}
	return r.raw.Header
}

func (r *httpResponse) Result() any { return r.result }

func (r *httpResponse) Error() error { return r.err }
