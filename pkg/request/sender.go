package request

import (
	"context"
	"net/http"
)

// Sender performs the HTTP round trip of a request definition, see client.Client.
// The returned result is the value of Definition.ResultDef() filled with the decoded response.
type Sender interface {
	Send(ctx context.Context, def Definition) (raw *http.Response, result any, err error)
}

// Sendable is anything that can be sent with only an error reported back,
// for example HTTPRequest, APIRequest or the group returned by Parallel.
type Sendable interface {
	SendOrErr(ctx context.Context) error
}

// ReqDefinitionError defers an error found while building a request to the moment it is sent.
type ReqDefinitionError struct {
	error
}

func NewReqDefinitionError(err error) Sendable {
	return ReqDefinitionError{error: err}
}

func (e ReqDefinitionError) SendOrErr(context.Context) error {
	return e
}

func (e ReqDefinitionError) Unwrap() error {
	return e.error
}
