package pixiv

import (
	"context"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/go-pixiv/pixiv/pkg/request"
)

const (
	loginFailedReason   = "Login failed. Check your username and password."
	refreshFailedReason = "Login failed. Check your refresh token."
)

// rawBody captures a JSON error response of the token endpoint.
type rawBody struct {
	data []byte
}

func (b *rawBody) Error() string {
	if msg := gjson.GetBytes(b.data, "errors.system.message"); msg.Exists() {
		return msg.String()
	}
	return string(b.data)
}

func (b *rawBody) UnmarshalJSON(data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}

// Login exchanges the username and password for tokens.
func (a *API) Login(ctx context.Context, username, password string) error {
	a.logger.Debug().Str("grant_type", "password").Msg("authenticating")
	return a.authenticate(ctx, loginFailedReason, map[string]any{
		"grant_type": "password",
		"username":   username,
		"password":   password,
	})
}

// RefreshAuth exchanges the refresh token for new tokens.
func (a *API) RefreshAuth(ctx context.Context) error {
	refreshToken := a.RefreshToken()
	if refreshToken == "" {
		return &AuthError{Reason: "refresh token is not set"}
	}
	a.logger.Debug().Str("grant_type", "refresh_token").Msg("authenticating")
	return a.authenticate(ctx, refreshFailedReason, map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

func (a *API) authenticate(ctx context.Context, failedReason string, form map[string]any) error {
	form["client_id"] = a.clientID
	form["client_secret"] = a.clientSecret
	form["get_secure_url"] = 1

	var body []byte
	errBody := &rawBody{}
	response, _, err := request.NewHTTPRequest(a.sender).
		WithPost(AuthURL).
		WithFormBody(form).
		WithResult(&body).
		WithError(errBody).
		Send(ctx)

	statusCode := 0
	if response != nil {
		statusCode = response.StatusCode()
	}

	switch {
	case statusCode == 0 && err != nil:
		// No response, for example a network error
		return &AuthError{Reason: failedReason, Err: err}
	case !isAuthSuccess(statusCode):
		return &AuthError{StatusCode: statusCode, Reason: failedReason, Body: string(errBody.data), Err: err}
	case err != nil:
		return &AuthError{StatusCode: statusCode, Reason: failedReason, Err: err}
	}

	accessToken := gjson.GetBytes(body, "response.access_token")
	if accessToken.String() == "" {
		return &AuthError{StatusCode: statusCode, Reason: "access token not found in the response", Body: string(body)}
	}
	refreshToken := gjson.GetBytes(body, "response.refresh_token")
	if refreshToken.String() == "" {
		return &AuthError{StatusCode: statusCode, Reason: "refresh token not found in the response", Body: string(body)}
	}

	token := &oauth2.Token{
		AccessToken:  accessToken.String(),
		RefreshToken: refreshToken.String(),
		TokenType:    gjson.GetBytes(body, "response.token_type").String(),
	}
	if expiresIn := gjson.GetBytes(body, "response.expires_in").Int(); expiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	a.lock.Lock()
	a.token = token
	a.lock.Unlock()

	a.logger.Debug().Time("expiry", token.Expiry).Msg("authenticated")
	return nil
}

func isAuthSuccess(statusCode int) bool {
	switch statusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
		return true
	default:
		return false
	}
}
