package server

// Route path constants. Page routes are relative to the locale prefix,
// e.g. RouteLogin is served at "/en/login" and "/fr/login".
const (
	// Pages
	RouteHome              = "/"
	RouteLogin             = "/login"
	RouteLogout            = "/logout"
	RouteBackoffice        = "/" + AdminSegment + "/"
	RouteBackofficeSection = RouteBackoffice + "{section}"
	RouteBackofficeDelete  = RouteBackoffice + "{section}/{id}/delete"

	// Site-level routes, outside any locale
	RouteHealth = "/healthz"
	RouteAPI    = "/api/"
	RouteAssets = "/assets/{file...}"
)

// localized prefixes a page route with a locale segment.
func localized(l string, route string) string {
	return "/" + l + route
}
