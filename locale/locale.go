// Package locale defines the languages the site is published in and how a
// request's preferred one is worked out.
package locale

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
)

// Locale is one of the supported two-letter language codes.
type Locale string

const (
	English Locale = "en"
	French  Locale = "fr"

	// Default is used whenever nothing better is known.
	Default = English

	// CookieName stores the visitor's language preference.
	CookieName = "lang"
	// CookieMaxAge is how long the language cookie lives.
	CookieMaxAge = 365 * 24 * time.Hour
)

var supported = []Locale{English, French}

// Supported returns the supported locales in display order.
func Supported() []Locale {
	out := make([]Locale, len(supported))
	copy(out, supported)
	return out
}

// Parse accepts exactly one of the supported codes.
func Parse(value string) (Locale, bool) {
	for _, l := range supported {
		if value == string(l) {
			return l, true
		}
	}
	return "", false
}

// FromPath reports whether the first segment of path is a supported locale
// and returns the remainder of the path (always starting with "/").
func FromPath(path string) (Locale, string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, rest, found := strings.Cut(trimmed, "/")
	l, ok := Parse(segment)
	if !ok {
		return "", path, false
	}
	if !found {
		return l, "/", true
	}
	return l, "/" + rest, true
}

// Preferred picks a locale for a request that does not carry one in its
// path: a valid cookie wins, then an Accept-Language header starting with
// "fr", then English.
func Preferred(cookieValue, acceptLanguage string) Locale {
	if l, ok := Parse(cookieValue); ok {
		return l
	}
	if strings.HasPrefix(acceptLanguage, string(French)) {
		return French
	}
	return Default
}

// Cookie builds the lang cookie for l.
func Cookie(l Locale, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(l),
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Tag returns the BCP 47 tag for l.
func (l Locale) Tag() language.Tag {
	switch l {
	case French:
		return language.French
	default:
		return language.English
	}
}

// Name returns the language's name in its own language, e.g. "français".
func (l Locale) Name() string {
	return display.Self.Name(l.Tag())
}

// Printer formats numbers and messages for l.
func (l Locale) Printer() *message.Printer {
	return message.NewPrinter(l.Tag())
}

func (l Locale) String() string {
	return string(l)
}

type contextKey struct{}

// WithLocale stores l on ctx.
func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the locale stored on ctx, or Default.
func FromContext(ctx context.Context) Locale {
	if l, ok := ctx.Value(contextKey{}).(Locale); ok {
		return l
	}
	return Default
}
