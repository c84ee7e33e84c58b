package pixiv

import (
	"fmt"
	"net/http"
	"net/url"
)

// Request is a built API request: method, absolute URL with the query and headers.
// Accessors return copies, so the Request cannot be modified after it is built.
type Request struct {
	method string
	url    *url.URL
	header http.Header
}

func newRequest(method string, u *url.URL, header http.Header) Request {
	clone := *u
	return Request{method: method, url: &clone, header: header.Clone()}
}

func (r Request) Method() string {
	return r.method
}

// URL returns a copy of the request URL.
func (r Request) URL() *url.URL {
	if r.url == nil {
		return nil
	}
	clone := *r.url
	return &clone
}

// Header returns a copy of the request headers.
func (r Request) Header() http.Header {
	return r.header.Clone()
}

func (r Request) String() string {
	return fmt.Sprintf(`%s %s`, r.method, r.url)
}
