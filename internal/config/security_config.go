package config

import "strings"

type SecurityConfig interface {
	GetSecureCookies() bool
	GetBypassPrefixes() []string
}

type Security struct {
	SecureCookies  bool     `env:"SECURE_COOKIES" envDefault:"false"`
	BypassPrefixes []string `env:"GATEWAY_BYPASS_PREFIXES" envSeparator:"," envDefault:"/_next,/api,/assets"`
}

var _ SecurityConfig = Security{}

// GetSecureCookies reports whether cookies written by the site carry the
// Secure attribute.
func (s Security) GetSecureCookies() bool {
	return s.SecureCookies
}

// GetBypassPrefixes returns the path prefixes the gateway never touches.
func (s Security) GetBypassPrefixes() []string {
	prefixes := make([]string, 0, len(s.BypassPrefixes))
	for _, p := range s.BypassPrefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}
