package pixiv_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-pixiv/pixiv/pkg/client"
	. "github.com/go-pixiv/pixiv/pkg/pixiv"
)

func newMockedAPI(t *testing.T, opts ...APIOption) (*API, *httpmock.MockTransport) {
	t.Helper()
	c, transport := client.NewMockedClient()
	return New(append([]APIOption{WithClient(&c)}, opts...)...), transport
}

func tokenResponder(t *testing.T, expectedForm url.Values) httpmock.Responder {
	t.Helper()
	return func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
		if assert.NoError(t, req.ParseForm()) {
			assert.Equal(t, expectedForm, req.PostForm)
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
			"response": map[string]any{
				"access_token":  "my-access",
				"refresh_token": "my-refresh",
				"token_type":    "bearer",
				"expires_in":    3600,
			},
		})
	}
}

func TestAPI_Login(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	transport.RegisterResponder(http.MethodPost, AuthURL, tokenResponder(t, url.Values{
		"client_id":      {DefaultClientID},
		"client_secret":  {DefaultClientSecret},
		"get_secure_url": {"1"},
		"grant_type":     {"password"},
		"username":       {"user"},
		"password":       {"pass"},
	}))

	require.NoError(t, api.Login(context.Background(), "user", "pass"))
	assert.Equal(t, 1, transport.GetCallCountInfo()["POST "+AuthURL])
	assert.Equal(t, "my-access", api.AccessToken())
	assert.Equal(t, "my-refresh", api.RefreshToken())

	token, err := api.Token()
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.Type())
	assert.False(t, token.Expiry.IsZero())
}

func TestAPI_Login_ClientCredentials(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t, WithClientCredentials("my-id", "my-secret"))

	transport.RegisterResponder(http.MethodPost, AuthURL, tokenResponder(t, url.Values{
		"client_id":      {"my-id"},
		"client_secret":  {"my-secret"},
		"get_secure_url": {"1"},
		"grant_type":     {"password"},
		"username":       {"user"},
		"password":       {"pass"},
	}))

	require.NoError(t, api.Login(context.Background(), "user", "pass"))
	assert.Equal(t, "my-access", api.AccessToken())
}

func TestAPI_Login_Failed(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	transport.RegisterResponder(http.MethodPost, AuthURL, httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
		"has_error": true,
		"errors": map[string]any{
			"system": map[string]any{"message": "103:pixiv ID、またはメールアドレス、パスワードが正しいかチェックしてください。"},
		},
	}))

	err := api.Login(context.Background(), "user", "wrong")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
	assert.Equal(t, "Login failed. Check your username and password.", authErr.Reason)
	assert.Contains(t, authErr.Body, `"has_error":true`)
	assert.Equal(t, `cannot authenticate: Login failed. Check your username and password., httpCode: "400": 103:pixiv ID、またはメールアドレス、パスワードが正しいかチェックしてください。`, err.Error())

	// Tokens are not modified
	assert.Empty(t, api.AccessToken())
	_, err = api.Token()
	assert.Error(t, err)
}

func TestAPI_Login_FailedNotJSON(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	transport.RegisterResponder(http.MethodPost, AuthURL, httpmock.NewStringResponder(http.StatusServiceUnavailable, "maintenance"))

	err := api.Login(context.Background(), "user", "pass")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusServiceUnavailable, authErr.StatusCode)
	assert.Empty(t, authErr.Body)
	assert.Contains(t, err.Error(), `failed: 503 Service Unavailable`)
}

func TestAPI_Login_NetworkError(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	transport.RegisterResponder(http.MethodPost, AuthURL, httpmock.NewErrorResponder(errors.New("connection refused")))

	err := api.Login(context.Background(), "user", "pass")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 0, authErr.StatusCode)
	assert.Equal(t, "Login failed. Check your username and password.", authErr.Reason)
	require.Error(t, authErr.Unwrap())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAPI_Login_MissingToken(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	transport.RegisterResponder(http.MethodPost, AuthURL, httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
		"response": map[string]any{"refresh_token": "my-refresh"},
	}))

	err := api.Login(context.Background(), "user", "pass")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "access token not found in the response", authErr.Reason)
	assert.Equal(t, `{"response":{"refresh_token":"my-refresh"}}`, authErr.Body)
	assert.Empty(t, api.AccessToken())
}

func TestAPI_RefreshAuth(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t, WithToken("old-access", "old-refresh"))

	transport.RegisterResponder(http.MethodPost, AuthURL, tokenResponder(t, url.Values{
		"client_id":      {DefaultClientID},
		"client_secret":  {DefaultClientSecret},
		"get_secure_url": {"1"},
		"grant_type":     {"refresh_token"},
		"refresh_token":  {"old-refresh"},
	}))

	require.NoError(t, api.RefreshAuth(context.Background()))
	assert.Equal(t, "my-access", api.AccessToken())
	assert.Equal(t, "my-refresh", api.RefreshToken())
}

func TestAPI_RefreshAuth_Failed(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t, WithToken("", "expired"))

	transport.RegisterResponder(http.MethodPost, AuthURL, httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{
		"errors": map[string]any{"system": map[string]any{"message": "invalid_grant"}},
	}))

	err := api.RefreshAuth(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login failed. Check your refresh token.", authErr.Reason)
	assert.Equal(t, "expired", api.RefreshToken())
}

func TestAPI_RefreshAuth_NoToken(t *testing.T) {
	t.Parallel()
	api, transport := newMockedAPI(t)

	err := api.RefreshAuth(context.Background())
	require.Error(t, err)
	assert.Equal(t, "cannot authenticate: refresh token is not set", err.Error())
	assert.Equal(t, 0, transport.GetTotalCallCount())
}
