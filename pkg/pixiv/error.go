package pixiv

import (
	"fmt"
	"net/http"
)

// APIError represents the structure of the public API error.
type APIError struct {
	Status string `json:"status"`
	Errors struct {
		System struct {
			Message string `json:"message"`
		} `json:"system"`
	} `json:"errors"`
	request  *http.Request
	response *http.Response
}

func (e *APIError) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = "unknown error"
	}
	if e.request != nil {
		msg += fmt.Sprintf(`, method: "%s", url: "%s"`, e.request.Method, e.request.URL)
	}
	if e.response != nil {
		msg += fmt.Sprintf(`, httpCode: "%d"`, e.StatusCode())
	}
	return msg
}

// Message returns the error message for end user.
func (e *APIError) Message() string {
	return e.Errors.System.Message
}

// StatusCode returns HTTP status code, or 0 if the response is not set.
func (e *APIError) StatusCode() int {
	if e.response == nil {
		return 0
	}
	return e.response.StatusCode
}

// SetRequest method allows injection of HTTP request to the error, it implements client.errorWithRequest.
func (e *APIError) SetRequest(request *http.Request) {
	e.request = request
}

// SetResponse method allows injection of HTTP response to the error, it implements client.errorWithResponse.
func (e *APIError) SetResponse(response *http.Response) {
	e.response = response
}

// AuthError is returned by Login and RefreshAuth.
type AuthError struct {
	// StatusCode of the token endpoint response, 0 if no response has been received.
	StatusCode int
	// Reason is a message for end user.
	Reason string
	// Body of the error response, if any.
	Body string
	// Err is the underlying error, if any.
	Err error
}

func (e *AuthError) Error() string {
	msg := "cannot authenticate: " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(`, httpCode: "%d"`, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
