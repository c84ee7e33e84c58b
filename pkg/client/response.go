package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pixiv/pixiv/pkg/client/decode"
)

// errorWithRequest is implemented by error definitions which keep the request, for example pixiv.APIError.
type errorWithRequest interface {
	error
	SetRequest(request *http.Request)
}

type errorWithResponse interface {
	error
	SetResponse(response *http.Response)
}

// mapResponse decodes the body into the result or the error definition and closes it.
// The returned err is set only if the body cannot be read or decoded.
func mapResponse(res *http.Response, resultDef any, errDef error) (result any, apiErr error, err error) {
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil, nil, nil
	}

	body, err := decode.Decode(res.Body, res.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, nil, err
	}
	isJSON := isJSONContentType(res.Header.Get("Content-Type"))

	switch {
	case res.StatusCode >= http.StatusBadRequest:
		if errDef == nil || !isJSON {
			return nil, nil, nil
		}
		apiErr, err = decodeError(res, body, errDef)
		return nil, apiErr, err
	case res.StatusCode < http.StatusOK || resultDef == nil:
		return nil, nil, nil
	default:
		result, err = decodeResult(body, resultDef, isJSON)
		return result, nil, err
	}
}

func decodeError(res *http.Response, body io.Reader, errDef error) (error, error) {
	if err := json.NewDecoder(body).Decode(errDef); err != nil {
		return nil, fmt.Errorf(`cannot decode JSON error: %w`, err)
	}
	if v, ok := errDef.(errorWithRequest); ok {
		v.SetRequest(res.Request)
	}
	if v, ok := errDef.(errorWithResponse); ok {
		v.SetResponse(res)
	}
	return errDef, nil
}

// decodeResult fills *[]byte, *string and io.Writer with the raw body, other values are decoded from JSON.
// A non-JSON body leaves other values empty.
func decodeResult(body io.Reader, resultDef any, isJSON bool) (any, error) {
	var err error
	switch v := resultDef.(type) {
	case *[]byte:
		*v, err = io.ReadAll(body)
	case *string:
		var b []byte
		b, err = io.ReadAll(body)
		*v = string(b)
	case io.Writer:
		_, err = io.Copy(v, body)
	default:
		if !isJSON {
			return nil, nil
		}
		if err := json.NewDecoder(body).Decode(resultDef); err != nil {
			return nil, fmt.Errorf(`cannot decode JSON result: %w`, err)
		}
		return resultDef, nil
	}
	if err != nil {
		return nil, fmt.Errorf(`cannot read response body: %w`, err)
	}
	return resultDef, nil
}

// sendError converts a transport error to `request <METHOD> "<url>" failed: <reason>`.
// Timeouts and cancellations report the elapsed time.
func sendError(req *http.Request, err error, startedAt time.Time, clientTimeout time.Duration) error {
	var netErr net.Error
	deadline, hasDeadline := req.Context().Deadline()
	switch {
	case hasDeadline && errors.Is(err, context.DeadlineExceeded):
		err = urlError(req, fmt.Errorf("timeout after %s", deadline.Sub(startedAt)))
	case errors.Is(err, context.Canceled):
		err = urlError(req, fmt.Errorf("canceled after %s", time.Since(startedAt)))
	case errors.As(err, &netErr) && netErr.Timeout() && strings.Contains(err.Error(), "Client.Timeout exceeded"):
		err = urlError(req, fmt.Errorf("timeout after %s", clientTimeout))
	case errors.As(err, &netErr) && netErr.Timeout():
		err = urlError(req, fmt.Errorf("timeout after %s", time.Since(startedAt)))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf(`request %s "%s" failed: %w`, strings.ToUpper(urlErr.Op), urlErr.URL, urlErr.Err)
	}
	return err
}

func urlError(req *http.Request, err error) *url.Error {
	return &url.Error{Op: req.Method, URL: req.URL.String(), Err: err}
}
