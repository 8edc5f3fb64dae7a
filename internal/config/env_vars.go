package config

import "strings"

type EnvVars struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppName    string `env:"APP_NAME" envDefault:"Portfolio"`
	Env        string `env:"ENV" envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LocalesDir string `env:"LOCALES_DIR"`
	SiteURL    string `env:"SITE_URL" envDefault:"http://localhost:8080"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := strings.TrimSpace(e.Port)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetLocalesDir returns the directory holding en.json/fr.json overrides.
// Empty means the dictionaries compiled into the binary are used.
func (e EnvVars) GetLocalesDir() string {
	return e.LocalesDir
}

// GetSiteURL returns the public URL of the site, used to scope the
// access_token cookie written by the backoffice client.
func (e EnvVars) GetSiteURL() string {
	return strings.TrimRight(e.SiteURL, "/")
}
