// Package devapi is a small in-memory implementation of the portfolio REST
// backend, for local development and end-to-end tests.
package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-portfolio/internal/config"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
	"github.com/jrsteele09/go-portfolio/portfolio"
	"github.com/rs/zerolog/log"
)

// Error details, worded like the production backend's.
const (
	DetailNoCredentials  = "Authentication credentials were not provided."
	DetailInvalidToken   = "Given token not valid for any token type"
	DetailBadLogin       = "No active account found with the given credentials"
	DetailNotFound       = "Not found."
	DetailBadRequest     = "Malformed request."
	DetailMethodReadOnly = "Method not allowed."
)

// privateReads are collections only an authenticated caller may read.
var privateReads = []string{
	portfolio.ResourceEmails,
	portfolio.ResourceVisits,
	portfolio.ResourceCredentials,
}

// readOnly collections are filled by the backend itself.
var readOnly = []string{portfolio.ResourceVisits}

type API struct {
	store    *Store
	accounts *Accounts
	issuer   *Issuer
	cors     config.CorsConfig
	router   *mux.Router
	handler  http.HandlerFunc
}

func New(store *Store, accounts *Accounts, issuer *Issuer, cors config.CorsConfig) *API {
	a := &API{
		store:    store,
		accounts: accounts,
		issuer:   issuer,
		cors:     cors,
		router:   mux.NewRouter(),
	}
	a.initRoutes()
	a.handler = a.CorsMiddleware(a.router.ServeHTTP)
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler(w, r)
}

func (a *API) initRoutes() {
	a.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
	})
	a.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, DetailMethodReadOnly)
	})

	api := a.router.PathPrefix("/api/").Subrouter()

	// literal routes first, the resource patterns would swallow them
	api.HandleFunc("/token/", a.obtainToken).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", a.refreshToken).Methods(http.MethodPost)
	api.HandleFunc("/profile/", a.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile/", a.requireAuth(a.updateProfile)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/emails/send/", a.requireAuth(a.sendEmail)).Methods(http.MethodPost)

	api.HandleFunc("/{resource}/", a.readAccess(a.list)).Methods(http.MethodGet)
	api.HandleFunc("/{resource}/", a.requireAuth(a.writable(a.create))).Methods(http.MethodPost)
	api.HandleFunc("/{resource}/{id}/", a.readAccess(a.get)).Methods(http.MethodGet)
	api.HandleFunc("/{resource}/{id}/", a.requireAuth(a.writable(a.update))).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/{resource}/{id}/", a.requireAuth(a.writable(a.remove))).Methods(http.MethodDelete)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type accessOnly struct {
	Access string `json:"access"`
}

func (a *API) obtainToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeRequest(&req, w, r) {
		return
	}
	if !a.accounts.Check(req.Username, req.Password) {
		log.Warn().Str("username", req.Username).Msg("devapi login rejected")
		writeDetail(w, http.StatusUnauthorized, DetailBadLogin)
		return
	}
	access, err := a.issuer.CreateAccessToken(req.Username)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	refresh, err := a.issuer.CreateRefreshToken(req.Username)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, tokenPair{Access: access, Refresh: refresh})
}

func (a *API) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeRequest(&req, w, r) {
		return
	}
	subject, err := a.issuer.Verify(req.Refresh, TokenTypeRefresh)
	if err != nil || !a.accounts.Exists(subject) {
		writeDetail(w, http.StatusUnauthorized, DetailInvalidToken)
		return
	}
	access, err := a.issuer.CreateAccessToken(subject)
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, accessOnly{Access: access})
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, http.StatusOK, a.store.Profile())
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var obj Object
	if !decodeRequest(&obj, w, r) {
		return
	}
	if r.Method == http.MethodPatch {
		merged := a.store.Profile()
		for k, v := range obj {
			merged[k] = v
		}
		obj = merged
	}
	returnJSON(w, http.StatusOK, a.store.SetProfile(obj))
}

func (a *API) sendEmail(w http.ResponseWriter, r *http.Request) {
	var msg portfolio.Outgoing
	if !decodeRequest(&msg, w, r) {
		return
	}
	if len(msg.Recipients) == 0 || strings.TrimSpace(msg.Subject) == "" {
		writeDetail(w, http.StatusBadRequest, "Subject and at least one recipient are required.")
		return
	}
	sentAt := NowTimeFunc().UTC()
	obj, err := toObject(portfolio.Email{
		Subject:    msg.Subject,
		Body:       msg.Body,
		Recipients: msg.Recipients,
		Status:     "sent",
		SentAt:     &sentAt,
	})
	if err != nil {
		a.internalError(w, r, err)
		return
	}
	stored, err := a.store.Create(portfolio.ResourceEmails, obj)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	log.Info().Strs("recipients", msg.Recipients).Msg("devapi email recorded")
	returnJSON(w, http.StatusCreated, stored)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	items, err := a.store.List(mux.Vars(r)["resource"])
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, items)
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	obj, err := a.store.Get(vars["resource"], vars["id"])
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, obj)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var obj Object
	if !decodeRequest(&obj, w, r) {
		return
	}
	stored, err := a.store.Create(mux.Vars(r)["resource"], obj)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusCreated, stored)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	var obj Object
	if !decodeRequest(&obj, w, r) {
		return
	}
	vars := mux.Vars(r)
	stored, err := a.store.Update(vars["resource"], vars["id"], obj, r.Method == http.MethodPatch)
	if err != nil {
		a.storeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, stored)
}

func (a *API) remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := a.store.Delete(vars["resource"], vars["id"]); err != nil {
		a.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireAuth rejects requests without a valid access token.
func (a *API) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, DetailNoCredentials)
			return
		}
		if _, err := a.issuer.Verify(raw, TokenTypeAccess); err != nil {
			if !errors.Is(err, apperrors.ErrTokenExpired) {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("devapi token rejected")
			}
			writeDetail(w, http.StatusUnauthorized, DetailInvalidToken)
			return
		}
		next(w, r)
	}
}

// readAccess lets anyone read public content and guards the rest.
func (a *API) readAccess(next http.HandlerFunc) http.HandlerFunc {
	guarded := a.requireAuth(next)
	return func(w http.ResponseWriter, r *http.Request) {
		resource := mux.Vars(r)["resource"]
		if !a.store.Has(resource) {
			writeDetail(w, http.StatusNotFound, DetailNotFound)
			return
		}
		if slices.Contains(privateReads, resource) {
			guarded(w, r)
			return
		}
		next(w, r)
	}
}

func (a *API) writable(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(readOnly, mux.Vars(r)["resource"]) {
			w.Header().Set("Allow", http.MethodGet)
			writeDetail(w, http.StatusMethodNotAllowed, DetailMethodReadOnly)
			return
		}
		next(w, r)
	}
}

func (a *API) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, DetailNotFound)
		return
	}
	a.internalError(w, r, err)
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("devapi request failed")
	writeDetail(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func decodeRequest[T any](req *T, w http.ResponseWriter, r *http.Request) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(req); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("devapi bad json request")
		writeDetail(w, http.StatusBadRequest, DetailBadRequest)
		return false
	}
	return true
}

func returnJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Err(err).Msg("devapi failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	returnJSON(w, status, map[string]string{"detail": detail})
}

// NewSeeded builds an API over a seeded store with a single account.
func NewSeeded(issuer *Issuer, username, password string, cors config.CorsConfig) (*API, error) {
	store := NewStore(portfolio.CollectionNames()...)
	if err := Seed(store); err != nil {
		return nil, err
	}
	accounts := NewAccounts()
	if err := accounts.Add(username, password); err != nil {
		return nil, err
	}
	return New(store, accounts, issuer, cors), nil
}
