package config

import (
	"strings"
	"time"
)

type DevAPIConfig interface {
	GetDevAPIPort() string
	GetDevAPISecret() string
	GetDevAPIAdminUser() string
	GetDevAPIAdminPassword() string
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

// DevAPI configures the development REST backend in cmd/devapi.
type DevAPI struct {
	DevPort       string        `env:"DEVAPI_PORT" envDefault:"8000"`
	Secret        string        `env:"DEVAPI_SECRET" envDefault:"dev-secret-change-me"`
	AdminUser     string        `env:"DEVAPI_ADMIN_USER" envDefault:"admin"`
	AdminPassword string        `env:"DEVAPI_ADMIN_PASSWORD"`
	AccessTTL     time.Duration `env:"DEVAPI_ACCESS_TTL" envDefault:"5m"`
	RefreshTTL    time.Duration `env:"DEVAPI_REFRESH_TTL" envDefault:"24h"`
}

var _ DevAPIConfig = DevAPI{}

func (d DevAPI) GetDevAPIPort() string {
	port := strings.TrimSpace(d.DevPort)
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (d DevAPI) GetDevAPISecret() string {
	return d.Secret
}

func (d DevAPI) GetDevAPIAdminUser() string {
	return d.AdminUser
}

// GetDevAPIAdminPassword returns the configured admin password. Empty means
// cmd/devapi generates one at startup.
func (d DevAPI) GetDevAPIAdminPassword() string {
	return d.AdminPassword
}

func (d DevAPI) GetDefaultAccessTokenExpiry() time.Duration {
	if d.AccessTTL <= 0 {
		return 5 * time.Minute
	}
	return d.AccessTTL
}

func (d DevAPI) GetDefaultRefreshTokenExpiry() time.Duration {
	if d.RefreshTTL <= 0 {
		return 24 * time.Hour
	}
	return d.RefreshTTL
}
