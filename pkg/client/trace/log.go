package trace

import (
	"context"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-pixiv/pixiv/pkg/request"
)

// LogTracer logs each HTTP request attempt as a structured zerolog event at debug level.
// The access token is never logged, only the request method and URL.
func LogTracer(logger zerolog.Logger) Factory {
	var idGenerator uint64
	return func(ctx context.Context, def request.Definition) (context.Context, *ClientTrace) {
		requestID := atomic.AddUint64(&idGenerator, 1)
		logger := logger.With().Uint64("request_id", requestID).Logger()

		var req *http.Request
		var connStartTime time.Time
		var startTime time.Time
		var doneTime time.Time
		var statusCode int

		t := &ClientTrace{}
		t.ConnectStart = func(network, addr string) {
			connStartTime = time.Now()
		}
		t.GotConn = func(info httptrace.GotConnInfo) {
			event := logger.Debug().Bool("reused", info.Reused)
			if info.Reused {
				event = event.Dur("idle", info.IdleTime)
			} else {
				event = event.Dur("connect", time.Since(connStartTime))
			}
			if req != nil {
				event = event.Str("method", req.Method).Str("url", req.URL.String())
			}
			event.Msg("http connection")
		}
		t.HTTPRequestStart = func(r *http.Request) {
			req = r
			startTime = time.Now()
			logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("http request start")
		}
		t.HTTPRequestDone = func(r *http.Response, err error) {
			doneTime = time.Now()
			event := logger.Debug().Str("method", req.Method).Str("url", req.URL.String())
			if err == nil {
				statusCode = r.StatusCode
				event = event.Int("status", statusCode)
			} else {
				event = event.Err(err)
			}
			event.Dur("duration", doneTime.Sub(startTime)).Msg("http request done")
		}
		t.HTTPRequestRetry = func(attempt int, delay time.Duration) {
			logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("http request retry")
		}
		t.RequestProcessed = func(result any, err error) {
			event := logger.Debug().Str("method", def.Method()).Int("status", statusCode)
			if req != nil {
				event = event.Str("url", req.URL.String())
			}
			if err != nil {
				event = event.Err(err)
			}
			event.Dur("body", time.Since(doneTime)).Msg("http request processed")
		}
		return ctx, t
	}
}
