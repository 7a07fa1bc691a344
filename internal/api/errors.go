package api

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/munnerz/goautoneg"

	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
)

const contentTypeJSON = "application/json"

var (
	errNotAcceptable        = errors.New("not acceptable")
	errUnsupportedMediaType = errors.New("unsupported media type")
)

// errorBody is the JSON body of every 4xx response.
type errorBody struct {
	Error string `json:"Error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotAcceptable):
		return http.StatusNotAcceptable
	case errors.Is(err, errUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the status mapped from err. Server errors are
// logged and answered with a bare "Oops".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("Oops"))
		return
	}
	logging.Ctx(r.Context()).Debug().Err(err).Int("status", status).Msg("request rejected")
	writeJSON(w, status, errorBody{Error: http.StatusText(status)})
}

// writeReadError hides whether a record exists from callers who do not own it.
func writeReadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		err = errors.Join(domain.ErrNotAuthorized, err)
	}
	writeError(w, r, err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn().Err(err).Msg("encode response")
	}
}

// acceptJSON rejects requests whose Accept header excludes JSON. A missing
// header accepts anything.
func acceptJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accept := strings.TrimSpace(r.Header.Get("Accept")); accept != "" {
			if goautoneg.Negotiate(accept, []string{contentTypeJSON}) == "" {
				writeError(w, r, errNotAcceptable)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requireJSONBody(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != contentTypeJSON {
		return errUnsupportedMediaType
	}
	return nil
}

// methodNotAllowed answers 405 advertising the allowed methods.
func methodNotAllowed(allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	}
}
