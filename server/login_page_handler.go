package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-portfolio/credentials"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/jrsteele09/go-portfolio/locale"
	"github.com/rs/zerolog/log"
)

// loginErrors are the message keys the login page will show from its query.
var loginErrors = map[string]bool{
	"login.error":                true,
	"errors.api_unavailable":     true,
	"backoffice.session_expired": true,
}

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Username string // Preserve username on error
}

// LoginPageUIHandler displays the login page (GET /{lang}/login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := locale.FromContext(r.Context())

		var errMsg string
		if key := r.URL.Query().Get("error"); loginErrors[key] {
			errMsg = s.catalog.T(l, key)
		}
		data := LoginPageData{Username: r.URL.Query().Get("username")}
		s.renderPage(w, r, http.StatusOK, pageLogin, "login.title", errMsg, data)
	}
}

// LoginSubmissionHandler exchanges the form's credentials for a token pair
// and stores it in the browser: in persistent cookies when "remember" is
// ticked, in session cookies otherwise.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := locale.FromContext(r.Context())

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		username := r.FormValue("username")
		password := r.FormValue("password")
		if username == "" || password == "" {
			s.renderLoginError(w, r, l, "login.error", username)
			return
		}

		scope := credentials.ScopeSession
		if r.FormValue("remember") != "" {
			scope = credentials.ScopePersistent
		}

		client, _, err := s.backoffice(w, r)
		if err != nil {
			s.logError(r, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err := client.Login(r.Context(), username, password, scope); err != nil {
			key := "login.error"
			if !errors.Is(err, apperrors.ErrInvalidCredentials) {
				log.Err(err).Msg("Login failed")
				key = "errors.api_unavailable"
			}
			s.renderLoginError(w, r, l, key, username)
			return
		}

		log.Info().Str("scope", scope.String()).Msg("backoffice login")
		redirectSuccess(w, r, localized(l.String(), RouteBackoffice))
	}
}

// LogoutHandler drops the browser's credentials and returns to the login
// page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := locale.FromContext(r.Context())

		client, _, err := s.backoffice(w, r)
		if err == nil {
			err = client.Logout(r.Context())
		}
		if err != nil {
			log.Err(err).Msg("Logout: failed to clear credentials")
		}
		redirectSuccess(w, r, localized(l.String(), RouteLogin))
	}
}

// renderLoginError redirects to the login page with an error message key
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, l locale.Locale, errorKey, username string) {
	redirectURL := localized(l.String(), RouteLogin) + "?error=" + url.QueryEscape(errorKey)
	if username != "" {
		redirectURL += "&username=" + url.QueryEscape(username)
	}
	redirectSuccess(w, r, redirectURL)
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
