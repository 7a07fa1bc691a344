// Package session implements the browser sign-in flow and the landing page
// that hands the signed-in user their ID token.
package session

import (
	"context"
	"crypto/sha256"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
)

const (
	sessionCookie = "rbs_session"
	stateCookie   = "rbs_state"
	sessionMaxAge = 24 * time.Hour
	stateMaxAge   = 10 * time.Minute
)

// Users registers subjects the first time they sign in.
type Users interface {
	EnsureUser(ctx context.Context, subject, email string) (domain.User, bool, error)
}

// Session is the signed and encrypted cookie payload.
type Session struct {
	Name    string `json:"name"`
	Subject string `json:"sub"`
	Email   string `json:"email"`
	IDToken string `json:"id_token"`
}

// Config wires a Handler.
type Config struct {
	// Secret signs and encrypts cookies. It must be at least 32 bytes.
	Secret string
	// LogoutURL is where /logout sends the browser after clearing the session.
	LogoutURL string
	// Secure marks cookies HTTPS-only.
	Secure bool
}

// Handler serves /, /login, /callback and /logout. A nil provider disables
// sign-in and the landing page only ever renders the home view.
type Handler struct {
	provider  Provider
	users     Users
	codec     *securecookie.SecureCookie
	logoutURL string
	secure    bool
}

// NewHandler builds a Handler.
func NewHandler(cfg Config, provider Provider, users Users) *Handler {
	hashKey := []byte(cfg.Secret)
	if len(hashKey) == 0 {
		// Sessions do not survive restarts without a configured secret.
		hashKey = securecookie.GenerateRandomKey(64)
	}
	blockKey := sha256.Sum256(hashKey)
	codec := securecookie.New(hashKey, blockKey[:]).
		MaxAge(int(sessionMaxAge.Seconds())).
		SetSerializer(securecookie.JSONEncoder{})
	logoutURL := cfg.LogoutURL
	if logoutURL == "" {
		logoutURL = "/"
	}
	return &Handler{
		provider:  provider,
		users:     users,
		codec:     codec,
		logoutURL: logoutURL,
		secure:    cfg.Secure,
	}
}

// RegisterRoutes wires the browser routes onto r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.landing)
	r.Get("/login", h.login)
	r.Get("/callback", h.callback)
	r.Get("/logout", h.logout)
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	view := landingView{LoginEnabled: h.provider != nil}
	if s, ok := h.current(r); ok {
		view.Session = &s
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTemplate.Execute(w, view); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("render landing page")
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.NotFound(w, r)
		return
	}
	state := uuid.NewString()
	if err := h.setCookie(w, stateCookie, state, stateMaxAge); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encode state cookie")
		http.Error(w, "Oops", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.NotFound(w, r)
		return
	}
	log := logging.Ctx(r.Context())

	var want string
	c, err := r.Cookie(stateCookie)
	if err == nil {
		err = h.codec.Decode(stateCookie, c.Value, &want)
	}
	h.clearCookie(w, stateCookie)
	if err != nil || want == "" || r.URL.Query().Get("state") != want {
		log.Warn().Err(err).Msg("callback state mismatch")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if reason := r.URL.Query().Get("error"); reason != "" {
		log.Warn().Str("error", reason).Msg("identity provider refused sign-in")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	id, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Warn().Err(err).Msg("code exchange failed")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if _, created, err := h.users.EnsureUser(r.Context(), id.Subject, id.Email); err != nil {
		log.Error().Err(err).Msg("register user")
		http.Error(w, "Oops", http.StatusInternalServerError)
		return
	} else if created {
		log.Info().Str("subject", id.Subject).Msg("registered new user")
	}

	s := Session{Name: id.Name, Subject: id.Subject, Email: id.Email, IDToken: id.IDToken}
	if err := h.setCookie(w, sessionCookie, s, sessionMaxAge); err != nil {
		log.Error().Err(err).Msg("encode session cookie")
		http.Error(w, "Oops", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, sessionCookie)
	http.Redirect(w, r, h.logoutURL, http.StatusFound)
}

func (h *Handler) current(r *http.Request) (Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return Session{}, false
	}
	var s Session
	if err := h.codec.Decode(sessionCookie, c.Value, &s); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("discarding invalid session cookie")
		return Session{}, false
	}
	return s, s.Subject != ""
}

func (h *Handler) setCookie(w http.ResponseWriter, name string, value any, maxAge time.Duration) error {
	encoded, err := h.codec.Encode(name, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type landingView struct {
	LoginEnabled bool
	Session      *Session
}

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>REST Between Sets</title>
</head>
<body>
{{- if .Session }}
  <h1>Welcome, {{ .Session.Name }}</h1>
  <p>User ID: <code>{{ .Session.Subject }}</code></p>
  <p>Use this ID token as a bearer token for the API:</p>
  <textarea readonly rows="8" cols="80">{{ .Session.IDToken }}</textarea>
  <p><a href="/logout">Logout</a></p>
{{- else }}
  <h1>REST Between Sets</h1>
  <p>Sign in to get your JWT and access the API</p>
  {{- if .LoginEnabled }}
  <p><a href="/login">Login</a></p>
  {{- end }}
{{- end }}
  <p><a href="/api/index.html">API documentation</a></p>
</body>
</html>
`))
