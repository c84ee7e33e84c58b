package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/go-pixiv/pixiv/pkg/client/trace"
)

const (
	RetriesCount       = 5
	RequestTimeout     = 30 * time.Second
	RetryWaitTimeStart = 100 * time.Millisecond
	RetryWaitTimeMax   = 3 * time.Second
	// RetryAfterMax bounds the delay requested by the Retry-After response header.
	RetryAfterMax = time.Minute
)

// RetryConfig configures Client retries.
// Nothing is retried if the Condition is nil or the Count is 0.
type RetryConfig struct {
	Condition           RetryCondition
	Count               int
	TotalRequestTimeout time.Duration
	WaitTimeStart       time.Duration
	WaitTimeMax         time.Duration
	// RetryAfterMax enables the Retry-After header, if it is greater than zero.
	// The header can only extend the exponential delay.
	RetryAfterMax time.Duration
}

// RetryCondition reports whether the attempt should be repeated.
// The response is nil on a transport error.
type RetryCondition func(*http.Response, error) bool

// NoRetry sends each request once, within RequestTimeout.
func NoRetry() RetryConfig {
	return RetryConfig{TotalRequestTimeout: RequestTimeout}
}

// DefaultRetry retries network errors, rate limiting and server errors with an exponential delay.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		Condition:           DefaultRetryCondition(),
		Count:               RetriesCount,
		TotalRequestTimeout: RequestTimeout,
		WaitTimeStart:       RetryWaitTimeStart,
		WaitTimeMax:         RetryWaitTimeMax,
		RetryAfterMax:       RetryAfterMax,
	}
}

// TestingRetry is DefaultRetry with millisecond delays.
func TestingRetry() RetryConfig {
	v := DefaultRetry()
	v.WaitTimeStart = time.Millisecond
	v.WaitTimeMax = time.Millisecond
	v.RetryAfterMax = time.Millisecond
	return v
}

// DefaultRetryCondition retries transport errors, except unknown hosts, and temporary HTTP statuses.
func DefaultRetryCondition() RetryCondition {
	return func(res *http.Response, err error) bool {
		if res != nil && res.StatusCode != 0 {
			return isTemporaryStatus(res.StatusCode)
		}
		return err != nil && !isUnknownHost(err)
	}
}

func isTemporaryStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusConflict,
		http.StatusLocked,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isUnknownHost(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "no such host") || strings.Contains(msg, "No address associated with hostname")
}

// NewBackoff returns the exponential delay sequence of one request.
func (c RetryConfig) NewBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.WaitTimeStart
	b.MaxInterval = c.WaitTimeMax
	b.MaxElapsedTime = c.TotalRequestTimeout
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

// delay returns the wait before the next attempt, or false if the request should not be retried.
func (c RetryConfig) delay(b backoff.BackOff, attempt int, res *http.Response, err error) (time.Duration, bool) {
	if c.Condition == nil || attempt >= c.Count || !c.Condition(res, err) {
		return 0, false
	}
	d := b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	if after, ok := retryAfter(res); ok && c.RetryAfterMax > 0 && after > d {
		d = min(after, c.RetryAfterMax)
	}
	return d, true
}

// retryAfter parses the Retry-After header, in seconds or as an HTTP date.
func retryAfter(res *http.Response) (time.Duration, bool) {
	if res == nil {
		return 0, false
	}
	v := res.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		return max(time.Until(at), 0), true
	}
	return 0, false
}

// roundTripper adds rate limiting, retries and tracing to each attempt of a request.
type roundTripper struct {
	trace   *trace.ClientTrace
	retry   RetryConfig
	limiter *rate.Limiter
	wrapped http.RoundTripper
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	b := rt.retry.NewBackoff()
	for attempt := 0; ; attempt++ {
		if rt.limiter != nil {
			if err := rt.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		if rt.trace != nil && rt.trace.HTTPRequestStart != nil {
			rt.trace.HTTPRequestStart(req)
		}
		res, err := rt.wrapped.RoundTrip(req)
		if rt.trace != nil && rt.trace.HTTPRequestDone != nil {
			rt.trace.HTTPRequestDone(res, err)
		}

		wait, retry := rt.retry.delay(b, attempt, res, err)
		if !retry {
			return res, err
		}
		if rt.trace != nil && rt.trace.HTTPRequestRetry != nil {
			rt.trace.HTTPRequestRetry(attempt+1, wait)
		}

		// The response of the failed attempt is dropped.
		if res != nil && res.Body != nil {
			_, _ = io.Copy(io.Discard, res.Body)
			_ = res.Body.Close()
		}
		if req.GetBody != nil {
			if req.Body, err = req.GetBody(); err != nil {
				return nil, fmt.Errorf("cannot rewind body: %w", err)
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
