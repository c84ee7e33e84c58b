package trace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/umisama/go-regexpcache"

	"github.com/go-pixiv/pixiv/pkg/client/decode"
	"github.com/go-pixiv/pixiv/pkg/request"
)

const (
	dumpMaxLength = 2000
	dumpFullEnv   = "PIXIV_HTTP_DUMP_FULL"
	maskedValue   = "****"
)

// secretFields are masked in form and JSON bodies of the dump.
const secretFields = `password|client_secret|access_token|refresh_token`

// DumpTracer writes each attempt of a request, and the decoded response, to the writer.
// Secrets are masked by MaskSecrets.
func DumpTracer(wr io.Writer) Factory {
	return func(ctx context.Context, _ request.Definition) (context.Context, *ClientTrace) {
		d := &dumper{wr: wr}
		return ctx, &ClientTrace{
			HTTPRequestStart: d.onStart,
			HTTPRequestDone:  d.onDone,
			HTTPRequestRetry: d.onRetry,
			RequestProcessed: d.onProcessed,
		}
	}
}

// MaskSecrets replaces the Authorization header value and OAuth secrets in a dump.
func MaskSecrets(dump string) string {
	dump = regexpcache.MustCompile(`(?mi)^(Authorization:) .*$`).ReplaceAllString(dump, "$1 "+maskedValue)
	dump = regexpcache.MustCompile(`\b(`+secretFields+`)=[^&\s]*`).ReplaceAllString(dump, "$1="+maskedValue)
	dump = regexpcache.MustCompile(`"(`+secretFields+`)"\s*:\s*"[^"]*"`).ReplaceAllString(dump, `"$1":"`+maskedValue+`"`)
	return dump
}

// dumper holds the state of one logical request, shared by all attempts.
type dumper struct {
	wr io.Writer

	method  string
	uri     string
	status  int
	lastErr error
	reqDump []byte

	startedAt time.Time
	headersAt time.Time
}

func (d *dumper) onStart(req *http.Request) {
	d.startedAt = time.Now()
	d.method = req.Method
	d.uri = req.URL.RequestURI()
	d.reqDump, _ = httputil.DumpRequestOut(req, true)
}

func (d *dumper) onDone(res *http.Response, err error) {
	d.lastErr = err
	if res != nil {
		d.status = res.StatusCode
		d.headersAt = time.Now()
	}

	d.println()
	d.println(">>>>>> HTTP DUMP")
	d.printBody(string(d.reqDump))
	d.println("------")
	if err != nil {
		d.println("ERROR: ", err)
	} else {
		d.printResponse(res)
	}
	d.println("<<<<<< HTTP DUMP END")
}

func (d *dumper) onRetry(attempt int, delay time.Duration) {
	d.println()
	d.println(">>>>>> HTTP RETRY", "| ATTEMPT:", attempt, "| DELAY:", delay, "| ", d.method, d.uri, d.status, "| ERROR:", d.lastErr)
}

func (d *dumper) onProcessed(_ any, err error) {
	d.println()
	d.println(">>>>>> HTTP REQUEST PROCESSED", "| ", d.method, d.uri, d.status, "| ERROR:", err, "| HEADERS AT:", d.headersAt.Sub(d.startedAt), "| DONE AT:", time.Since(d.startedAt))
}

// printResponse prints headers and the decoded body, the raw body is restored for the client.
func (d *dumper) printResponse(res *http.Response) {
	if head, err := httputil.DumpResponse(res, false); err == nil {
		d.println(strings.TrimSpace(string(head)))
	} else {
		d.println("cannot dump response headers: ", err)
	}
	if res.Body == nil {
		return
	}

	var raw bytes.Buffer
	var decoded strings.Builder
	if body, err := decode.Decode(io.NopCloser(io.TeeReader(res.Body, &raw)), res.Header.Get("Content-Encoding")); err != nil {
		d.println("cannot read response body: ", err)
	} else if _, err := io.Copy(&decoded, body); err != nil {
		d.println("cannot read response body: ", err)
	}
	res.Body = io.NopCloser(bytes.NewReader(raw.Bytes()))

	if decoded.Len() > 0 {
		d.println("------")
		d.printBody(decoded.String())
	}
}

func (d *dumper) printBody(body string) {
	body = MaskSecrets(strings.TrimSpace(body))
	if len(body) <= dumpMaxLength || os.Getenv(dumpFullEnv) == "true" { //nolint:forbidigo
		d.println(body)
		return
	}
	d.println(body[:dumpMaxLength])
	d.println(fmt.Sprintf("... (set env %s=true to see full output)", dumpFullEnv))
}

func (d *dumper) println(a ...any) {
	_, _ = fmt.Fprintln(d.wr, a...)
}
