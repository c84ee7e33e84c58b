package request_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/request"
)

type work struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func TestAPIRequest(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()
	transport.RegisterResponder("GET", "https://public-api.secure.pixiv.net/v1/works/1.json", httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"id": 1, "title": "foo"}))

	var calls []string
	result := &work{}
	httpReq := request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/v1/works/1.json").WithResult(result)
	out, err := request.NewAPIRequest(result, httpReq).
		WithBefore(func(ctx context.Context) error {
			calls = append(calls, "before")
			return nil
		}).
		WithOnSuccess(func(ctx context.Context, result *work) error {
			calls = append(calls, "success "+result.Title)
			return nil
		}).
		WithOnError(func(ctx context.Context, err error) error {
			calls = append(calls, "error")
			return err
		}).
		Send(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, &work{ID: 1, Title: "foo"}, out)
	assert.Equal(t, []string{"before", "success foo"}, calls)
}

func TestAPIRequest_BeforeError(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()

	err := request.NewAPIRequest(request.NoResult{}, request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net")).
		WithBefore(func(ctx context.Context) error {
			return errors.New("not authenticated")
		}).
		SendOrErr(context.Background())

	assert.EqualError(t, err, "not authenticated")
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestAPIRequest_MultipleRequests(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()
	transport.RegisterResponder("GET", `=~^https://public-api.secure.pixiv.net/v1/works/`, httpmock.NewStringResponder(http.StatusOK, "{}"))
	transport.RegisterResponder("GET", "https://public-api.secure.pixiv.net/v1/works/3.json", httpmock.NewStringResponder(http.StatusNotFound, ""))

	var errCalls int
	err := request.NewAPIRequest(request.NoResult{},
		request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/v1/works/1.json"),
		request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/v1/works/2.json"),
		request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/v1/works/3.json"),
	).
		WithOnError(func(ctx context.Context, err error) error {
			errCalls++
			return err
		}).
		SendOrErr(context.Background())

	assert.EqualError(t, err, `request GET "https://public-api.secure.pixiv.net/v1/works/3.json" failed: 404 Not Found`)
	assert.Equal(t, 1, errCalls)
	assert.Equal(t, 3, transport.GetTotalCallCount())
}

func TestAPIRequest_NoRequests(t *testing.T) {
	t.Parallel()
	assert.PanicsWithError(t, "at least one request must be provided", func() {
		request.NewAPIRequest(request.NoResult{})
	})
}

func TestParallel(t *testing.T) {
	t.Parallel()
	c, transport := client.NewMockedClient()
	transport.RegisterResponder("GET", `=~^https://public-api.secure.pixiv.net/`, httpmock.NewStringResponder(http.StatusOK, "OK"))

	err := request.Parallel(
		request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/foo1"),
		request.NewHTTPRequest(c).WithGet("https://public-api.secure.pixiv.net/foo2"),
	).SendOrErr(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, transport.GetTotalCallCount())
}

func TestReqDefinitionError(t *testing.T) {
	t.Parallel()
	cause := errors.New("invalid date")
	err := request.NewReqDefinitionError(cause).SendOrErr(context.Background())
	assert.EqualError(t, err, "invalid date")
	assert.ErrorIs(t, err, cause)
}
