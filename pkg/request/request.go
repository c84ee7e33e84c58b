// Package request defines immutable HTTP requests, see NewHTTPRequest function.
//
// Requests are sent by the Sender interface.
// The client.Client is the default Sender, it is based on the standard net/http package.
//
// APIRequest[R Result] wraps one or more Sendable values
// and carries the value to which the API response is mapped.
//
// WaitGroup, RunGroup and Parallel are helpers for sending requests concurrently.
package request
