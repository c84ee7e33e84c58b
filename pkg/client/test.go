package client

import (
	"os"

	"github.com/jarcoal/httpmock"

	"github.com/go-pixiv/pixiv/pkg/client/trace"
)

// TestDumpEnv enables the DumpTracer in clients created by NewTestClient, if set to "true".
const TestDumpEnv = "PIXIV_TEST_HTTP_DUMP"

// NewTestClient returns a Client which sends each request once.
// Requests are dumped to stdout if TestDumpEnv is set.
func NewTestClient() Client {
	c := New().WithRetry(NoRetry())
	if os.Getenv(TestDumpEnv) == "true" { //nolint:forbidigo
		c = c.AndTrace(trace.DumpTracer(os.Stdout))
	}
	return c
}

// NewMockedClient returns a test Client with an httpmock transport.
func NewMockedClient() (Client, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	return NewTestClient().WithTransport(transport), transport
}
