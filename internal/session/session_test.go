package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeProvider struct {
	identity Identity
	err      error
	codes    []string
}

func (p *fakeProvider) AuthURL(state string) string {
	return "https://idp.example/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (Identity, error) {
	p.codes = append(p.codes, code)
	return p.identity, p.err
}

type fakeUsers struct {
	seen []string
	err  error
}

func (u *fakeUsers) EnsureUser(_ context.Context, subject, email string) (domain.User, bool, error) {
	u.seen = append(u.seen, subject+"/"+email)
	return domain.User{UserID: subject, Email: email}, true, u.err
}

func newTestHandler(provider Provider, users Users) http.Handler {
	r := chi.NewRouter()
	NewHandler(Config{Secret: testSecret, LogoutURL: "https://idp.example/v2/logout"}, provider, users).RegisterRoutes(r)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLandingWithoutSession(t *testing.T) {
	rr := serve(newTestHandler(&fakeProvider{}, &fakeUsers{}), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Sign in to get your JWT and access the API")
	assert.Contains(t, rr.Body.String(), `href="/login"`)
}

func TestLandingWithoutProvider(t *testing.T) {
	h := newTestHandler(nil, &fakeUsers{})
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rr.Body.String(), "Sign in to get your JWT")
	assert.NotContains(t, rr.Body.String(), `href="/login"`)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoginCallbackLandingFlow(t *testing.T) {
	provider := &fakeProvider{identity: Identity{
		Subject: "auth0|alice",
		Email:   "alice@example.com",
		Name:    "Alice <Lifter>",
		IDToken: "header.payload.signature",
	}}
	users := &fakeUsers{}
	h := newTestHandler(provider, users)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusFound, rr.Code)
	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	stateC := cookieNamed(rr, stateCookie)
	require.NotNil(t, stateC)
	assert.True(t, stateC.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(state), nil)
	req.AddCookie(stateC)
	rr = serve(h, req)
	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, []string{"abc"}, provider.codes)
	assert.Equal(t, []string{"auth0|alice/alice@example.com"}, users.seen)
	sessionC := cookieNamed(rr, sessionCookie)
	require.NotNil(t, sessionC)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionC)
	rr = serve(h, req)
	body := rr.Body.String()
	assert.Contains(t, body, "Welcome, Alice &lt;Lifter&gt;")
	assert.Contains(t, body, "auth0|alice")
	assert.Contains(t, body, "header.payload.signature")
	assert.Contains(t, body, `href="/logout"`)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	provider := &fakeProvider{}
	h := newTestHandler(provider, &fakeUsers{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=forged", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	login := serve(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	req := httptest.NewRequest(http.MethodGet, "/callback?code=abc&state=other", nil)
	req.AddCookie(cookieNamed(login, stateCookie))
	rr = serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, provider.codes)
}

func TestCallbackExchangeFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("invalid_grant")}
	users := &fakeUsers{}
	h := newTestHandler(provider, users)

	login := serve(h, httptest.NewRequest(http.MethodGet, "/login", nil))
	location, _ := url.Parse(login.Header().Get("Location"))
	req := httptest.NewRequest(http.MethodGet, "/callback?code=abc&state="+url.QueryEscape(location.Query().Get("state")), nil)
	req.AddCookie(cookieNamed(login, stateCookie))
	rr := serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, users.seen)
	assert.Nil(t, cookieNamed(rr, sessionCookie))
}

func TestTamperedSessionIsIgnored(t *testing.T) {
	h := newTestHandler(&fakeProvider{}, &fakeUsers{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "not-a-valid-cookie"})
	rr := serve(h, req)
	assert.Contains(t, rr.Body.String(), "Sign in to get your JWT")
}

func TestLogoutClearsSession(t *testing.T) {
	rr := serve(newTestHandler(&fakeProvider{}, &fakeUsers{}), httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://idp.example/v2/logout", rr.Header().Get("Location"))
	c := cookieNamed(rr, sessionCookie)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestLogoutURL(t *testing.T) {
	got := LogoutURL("rbs.us.auth0.com/", "client-1", "https://rbs.example.com")
	assert.Equal(t, "https://rbs.us.auth0.com/v2/logout?client_id=client-1&returnTo=https%3A%2F%2Frbs.example.com", got)
}
