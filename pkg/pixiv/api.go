// Package pixiv contains request definitions for the pixiv public API.
//
// Requests are defined by a RequestBuilder, created by an endpoint constructor of the API, for example API.WorkRequest.
// Each endpoint has default parameters, they can be replaced by the override methods of the builder.
// The API holds the OAuth tokens, see API.Login and API.RefreshAuth, and sends requests with the bearer token.
//
// Responses are not typed, see Result.
package pixiv

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/request"
)

const (
	// BaseURL of the public API.
	BaseURL = "https://public-api.secure.pixiv.net"
	// AuthURL is the OAuth token endpoint.
	AuthURL = "https://oauth.secure.pixiv.net/auth/token"
	// Referer header is sent with each API request.
	Referer = "http://spapi.pixiv.net/"
	// DefaultClientID and DefaultClientSecret identify the official mobile app.
	DefaultClientID     = "MOBrBDS8blbauoSck0ZfDbtuzpyT"
	DefaultClientSecret = "lsACyCD94FhDUtGTXi3QzcFE2uU1hqtDaKeqrdwj" //nolint:gosec
)

// API is a session: it owns the HTTP sender, the client credentials and the OAuth tokens.
// It is safe for concurrent use.
type API struct {
	sender       request.Sender
	baseURL      *url.URL
	clientID     string
	clientSecret string
	logger       zerolog.Logger

	lock  sync.RWMutex
	token *oauth2.Token
}

// New creates the API. Without options no request is sent until Login or RefreshAuth is called.
func New(opts ...APIOption) *API {
	cfg := newAPIConfig(opts)

	baseURL, err := url.Parse(cfg.baseURL)
	if err != nil {
		panic(fmt.Errorf(`base url "%s" is not valid: %w`, cfg.baseURL, err))
	}
	// Trailing slash is required by ResolveReference
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/"

	api := &API{
		sender:       cfg.sender,
		baseURL:      baseURL,
		clientID:     cfg.clientID,
		clientSecret: cfg.clientSecret,
		logger:       zerolog.Nop(),
		token:        cfg.token,
	}

	if cfg.logger != nil {
		api.logger = *cfg.logger
	}

	if api.sender == nil {
		var c client.Client
		if cfg.client != nil {
			c = *cfg.client
		} else {
			c = client.New().WithRetry(client.NoRetry())
		}
		if cfg.tracerProvider != nil || cfg.meterProvider != nil {
			c = c.WithTelemetry(cfg.tracerProvider, cfg.meterProvider)
		}
		api.sender = c
	}

	return api
}

// Client returns the sender used by the API.
func (a *API) Client() request.Sender {
	return a.sender
}

// ExecuteRequest converts the built Request to a request.APIRequest.
// The access token is read when the APIRequest is created.
func (a *API) ExecuteRequest(r Request) request.APIRequest[*Result] {
	result := &Result{}
	httpRequest := request.NewHTTPRequest(a.sender).
		WithMethod(r.Method()).
		WithURL(r.URL().String()).
		WithResult(&result.body).
		WithError(&APIError{}).
		WithOnComplete(func(_ context.Context, response request.HTTPResponse, err error) error {
			result.statusCode = response.StatusCode()
			result.header = response.ResponseHeader()
			return err
		})

	for k, values := range r.Header() {
		for _, v := range values {
			httpRequest = httpRequest.AndHeader(k, v)
		}
	}

	if token := a.currentToken(); token != nil && token.AccessToken != "" {
		httpRequest = httpRequest.AndHeader("Authorization", token.Type()+" "+token.AccessToken)
	}

	return request.NewAPIRequest(result, httpRequest).
		WithBefore(func(ctx context.Context) error {
			a.logger.Trace().Str("method", r.Method()).Str("url", r.URL().String()).Msg("sending request")
			return nil
		})
}

// Execute sends the built Request with the bearer token.
func (a *API) Execute(ctx context.Context, r Request) (*Result, error) {
	return a.ExecuteRequest(r).Send(ctx)
}

// AccessToken returns the current access token, or an empty string.
func (a *API) AccessToken() string {
	if token := a.currentToken(); token != nil {
		return token.AccessToken
	}
	return ""
}

// RefreshToken returns the current refresh token, or an empty string.
func (a *API) RefreshToken() string {
	if token := a.currentToken(); token != nil {
		return token.RefreshToken
	}
	return ""
}

func (a *API) SetAccessToken(accessToken string) {
	a.updateToken(func(token *oauth2.Token) {
		token.AccessToken = accessToken
		token.Expiry = time.Time{}
	})
}

func (a *API) SetRefreshToken(refreshToken string) {
	a.updateToken(func(token *oauth2.Token) {
		token.RefreshToken = refreshToken
	})
}

// Token returns a copy of the current token, it implements oauth2.TokenSource.
func (a *API) Token() (*oauth2.Token, error) {
	token := a.currentToken()
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("access token is not set, call Login or RefreshAuth first")
	}
	return token, nil
}

func (a *API) currentToken() *oauth2.Token {
	a.lock.RLock()
	defer a.lock.RUnlock()
	if a.token == nil {
		return nil
	}
	clone := *a.token
	return &clone
}

func (a *API) updateToken(fn func(token *oauth2.Token)) {
	a.lock.Lock()
	defer a.lock.Unlock()
	token := &oauth2.Token{TokenType: "Bearer"}
	if a.token != nil {
		clone := *a.token
		token = &clone
	}
	fn(token)
	a.token = token
}
