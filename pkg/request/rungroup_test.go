package request_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/request"
)

func TestRunGroup(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()
	transport.RegisterResponder(http.MethodGet, pagesURL, httpmock.NewStringResponder(http.StatusOK, `{"status":"success"}`))

	g := request.NewRunGroup(context.Background())
	g.Add(pageRequest(c, 1, 3, g.Add))
	g.Add(pageRequest(c, 5, 6, g.Add))

	// Nothing is sent before RunAndWait.
	assert.Equal(t, 0, transport.GetTotalCallCount())

	require.NoError(t, g.RunAndWait())
	assert.Equal(t, 5, transport.GetTotalCallCount())
}

func TestRunGroup_FirstError(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()
	transport.RegisterResponder(http.MethodGet, pagesURL, httpmock.NewStringResponder(http.StatusUnauthorized, "Unauthorized"))

	g := request.NewRunGroup(context.Background())
	count := 4 * request.RunGroupConcurrencyLimit
	for range count {
		g.Add(request.NewHTTPRequest(c).WithGet(pagesURL))
	}
	assert.Equal(t, 0, transport.GetTotalCallCount())

	// The first error cancels the rest.
	err := g.RunAndWait()
	assert.EqualError(t, err, `request GET "`+pagesURL+`" failed: 401 Unauthorized`)
	assert.Less(t, transport.GetTotalCallCount(), count)
}
