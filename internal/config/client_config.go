package config

import (
	"strings"
	"time"
)

type ClientConfig interface {
	GetAPIBaseURL() string
	GetTokenDBPath() string
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
}

type Client struct {
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	TokenDBPath    string        `env:"TOKEN_DB_PATH" envDefault:"./data/credentials.db"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"10s"`
}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the REST backend base URL without a trailing slash.
func (c Client) GetAPIBaseURL() string {
	return strings.TrimRight(c.APIBaseURL, "/")
}

func (c Client) GetTokenDBPath() string {
	return c.TokenDBPath
}

func (c Client) GetRequestTimeout() time.Duration {
	return c.RequestTimeout
}

func (c Client) GetRefreshTimeout() time.Duration {
	return c.RefreshTimeout
}
