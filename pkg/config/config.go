// Package config loads settings of the pixiv API client from .env files, PIXIV_* environment variables
// and an optional config file, and maps them onto pixiv.APIOption values.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/go-pixiv/pixiv/pkg/client"
	"github.com/go-pixiv/pixiv/pkg/client/trace"
	"github.com/go-pixiv/pixiv/pkg/pixiv"
)

const (
	EnvPrefix      = "PIXIV"
	DefaultEnvFile = ".env"

	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

type Config struct {
	Username     string     `mapstructure:"username"`
	Password     string     `mapstructure:"password"`
	AccessToken  string     `mapstructure:"access_token"`
	RefreshToken string     `mapstructure:"refresh_token"`
	ClientID     string     `mapstructure:"client_id"`
	ClientSecret string     `mapstructure:"client_secret"`
	Log          LogConfig  `mapstructure:"log"`
	HTTP         HTTPConfig `mapstructure:"http"`
}

type LogConfig struct {
	// Level is parsed by zerolog.ParseLevel, for example "debug".
	Level string `mapstructure:"level"`
	// Format is "auto", "console" or "json". The "auto" format uses console output only on a terminal.
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// RetryCount 0 disables retries.
	RetryCount int `mapstructure:"retry_count"`
	// RateLimit is a maximum number of requests per second, 0 means no limit.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Verbose logs each HTTP request at the debug level.
	Verbose bool `mapstructure:"verbose"`
	// HTTP2 forces HTTP/2 without upgrade from HTTP/1.1.
	HTTP2 bool `mapstructure:"http2"`
}

type loadConfig struct {
	envFiles   []string
	configFile string
}

type Option func(c *loadConfig)

// WithEnvFiles replaces the default ".env" file. Missing files are ignored.
func WithEnvFiles(paths ...string) Option {
	return func(c *loadConfig) {
		c.envFiles = paths
	}
}

// WithConfigFile reads the file, the format is detected by the extension, for example "yaml" or "toml".
func WithConfigFile(path string) Option {
	return func(c *loadConfig) {
		c.configFile = path
	}
}

// Load reads the configuration. Priority, from the highest: environment, .env files, config file, defaults.
// Variables already present in the environment are not overwritten by .env files.
func Load(opts ...Option) (*Config, error) {
	cfg := loadConfig{envFiles: []string{DefaultEnvFile}}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, path := range cfg.envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(`cannot load env file "%s": %w`, path, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfg.configFile != "" {
		v.SetConfigFile(cfg.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf(`cannot read config file "%s": %w`, cfg.configFile, err)
		}
	}

	out := &Config{}
	if err := v.Unmarshal(out); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return out, nil
}

// setDefaults registers all keys, AutomaticEnv is applied by Unmarshal only to known keys.
func setDefaults(v *viper.Viper) {
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("access_token", "")
	v.SetDefault("refresh_token", "")
	v.SetDefault("client_id", pixiv.DefaultClientID)
	v.SetDefault("client_secret", pixiv.DefaultClientSecret)
	v.SetDefault("log.level", zerolog.InfoLevel.String())
	v.SetDefault("log.format", LogFormatAuto)
	v.SetDefault("http.timeout", client.RequestTimeout)
	v.SetDefault("http.retry_count", 0)
	v.SetDefault("http.rate_limit", 0)
	v.SetDefault("http.verbose", false)
	v.SetDefault("http.http2", false)
}

func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Username != "" && c.Password == "" {
		errs = multierror.Append(errs, errors.New("password must be set together with username"))
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		errs = multierror.Append(errs, errors.New("client_id and client_secret cannot be empty"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = multierror.Append(errs, fmt.Errorf(`log.level "%s" is not valid: %w`, c.Log.Level, err))
	}
	switch c.Log.Format {
	case LogFormatAuto, LogFormatConsole, LogFormatJSON:
	default:
		errs = multierror.Append(errs, fmt.Errorf(`log.format "%s" is not valid, expected one of: auto, console, json`, c.Log.Format))
	}
	if c.HTTP.Timeout < 0 {
		errs = multierror.Append(errs, errors.New("http.timeout cannot be negative"))
	}
	if c.HTTP.RetryCount < 0 {
		errs = multierror.Append(errs, errors.New("http.retry_count cannot be negative"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = multierror.Append(errs, errors.New("http.rate_limit cannot be negative"))
	}

	return errs.ErrorOrNil()
}

// HasCredentials returns true if Login can be called.
func (c *Config) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// Client creates the HTTP client according to the "http.*" keys.
func (c *Config) Client(logger zerolog.Logger) client.Client {
	retry := client.NoRetry()
	if c.HTTP.RetryCount > 0 {
		retry = client.DefaultRetry()
		retry.Count = c.HTTP.RetryCount
	}
	if c.HTTP.Timeout > 0 {
		retry.TotalRequestTimeout = c.HTTP.Timeout
	}

	out := client.New().WithRetry(retry)
	if c.HTTP.HTTP2 {
		out = out.WithTransport(client.HTTP2Transport())
	}
	if c.HTTP.RateLimit > 0 {
		burst := max(1, int(c.HTTP.RateLimit))
		out = out.WithRateLimit(rate.NewLimiter(rate.Limit(c.HTTP.RateLimit), burst))
	}
	if c.HTTP.Verbose {
		out = out.AndTrace(trace.LogTracer(logger))
	}
	return out
}

// APIOptions maps the configuration onto options of pixiv.New.
// Tokens are set only if present, Login with Username and Password is left to the caller.
func (c *Config) APIOptions(logger zerolog.Logger) []pixiv.APIOption {
	httpClient := c.Client(logger)
	opts := []pixiv.APIOption{
		pixiv.WithClient(&httpClient),
		pixiv.WithClientCredentials(c.ClientID, c.ClientSecret),
		pixiv.WithLogger(logger),
	}
	if c.AccessToken != "" || c.RefreshToken != "" {
		opts = append(opts, pixiv.WithToken(c.AccessToken, c.RefreshToken))
	}
	return opts
}

// NewAPI creates the API and logs in, if credentials are set and no token is configured.
func (c *Config) NewAPI(ctx context.Context, logger zerolog.Logger) (*pixiv.API, error) {
	api := pixiv.New(c.APIOptions(logger)...)
	switch {
	case c.AccessToken != "":
	case c.RefreshToken != "":
		if err := api.RefreshAuth(ctx); err != nil {
			return nil, err
		}
	case c.HasCredentials():
		if err := api.Login(ctx, c.Username, c.Password); err != nil {
			return nil, err
		}
	}
	return api, nil
}
