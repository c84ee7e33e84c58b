package pixiv

import (
	"github.com/rs/zerolog"
	otelMetric "go.opentelemetry.io/otel/metric"
	otelTrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/request"
)

type apiConfig struct {
	client         *client.Client
	sender         request.Sender
	baseURL        string
	clientID       string
	clientSecret   string
	token          *oauth2.Token
	logger         *zerolog.Logger
	tracerProvider otelTrace.TracerProvider
	meterProvider  otelMetric.MeterProvider
}

type APIOption func(c *apiConfig)

func newAPIConfig(opts []APIOption) apiConfig {
	cfg := apiConfig{
		baseURL:      BaseURL,
		clientID:     DefaultClientID,
		clientSecret: DefaultClientSecret,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithClient sets the HTTP client, by default client.New() without retries is used.
func WithClient(cl *client.Client) APIOption {
	return func(c *apiConfig) {
		c.client = cl
	}
}

// WithSender sets a custom request.Sender, it takes precedence over WithClient and WithTelemetry.
func WithSender(sender request.Sender) APIOption {
	return func(c *apiConfig) {
		c.sender = sender
	}
}

// WithBaseURL overrides the API host, for example for a proxy.
func WithBaseURL(baseURL string) APIOption {
	return func(c *apiConfig) {
		c.baseURL = baseURL
	}
}

// WithClientCredentials overrides the OAuth client credentials of the mobile app.
func WithClientCredentials(clientID, clientSecret string) APIOption {
	return func(c *apiConfig) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

// WithToken sets tokens from a previous session, so Login is not needed.
func WithToken(accessToken, refreshToken string) APIOption {
	return func(c *apiConfig) {
		c.token = &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}
	}
}

func WithLogger(logger zerolog.Logger) APIOption {
	return func(c *apiConfig) {
		c.logger = &logger
	}
}

// WithTelemetry enables OpenTelemetry tracing and metrics of sent requests.
func WithTelemetry(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider) APIOption {
	return func(c *apiConfig) {
		c.tracerProvider = tracerProvider
		c.meterProvider = meterProvider
	}
}
