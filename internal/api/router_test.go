package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/kelleyneubauer/rest-between-sets/internal/auth"
	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/memory"
)

type landing struct{}

func (landing) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("home")) })
}

func newFullRouter(t *testing.T, rpm int) http.Handler {
	t.Helper()
	verifier := auth.NewVerifier(auth.Config{Secret: testSecret}, nil)
	return NewRouter(RouterConfig{
		Protect:           auth.NewMiddleware(verifier, nil).Wrap,
		Browser:           landing{},
		AllowedOrigins:    []string{"https://app.example.com"},
		RequestsPerMinute: rpm,
	}, NewHandler(domain.NewService(memory.New(), nil)))
}

func TestRouterServesAmbientEndpoints(t *testing.T) {
	h := newFullRouter(t, 0)

	for path, want := range map[string]int{
		"/":               http.StatusOK,
		"/healthz":        http.StatusOK,
		"/metrics":        http.StatusOK,
		"/api/doc.json":   http.StatusOK,
		"/api/index.html": http.StatusOK,
		"/movements":      http.StatusUnauthorized,
	} {
		rr := do(t, h, request{method: http.MethodGet, path: path})
		assert.Equal(t, want, rr.Code, path)
	}

	rr := do(t, h, request{method: http.MethodGet, path: "/healthz"})
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouterCORSPreflight(t *testing.T) {
	h := newFullRouter(t, 0)
	req := httptest.NewRequest(http.MethodOptions, "/movements", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterRateLimits(t *testing.T) {
	h := newFullRouter(t, 2)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, request{method: http.MethodGet, path: "/healthz"}).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
