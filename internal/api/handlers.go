// Package api exposes the movement, exercise and user HTTP endpoints.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kelleyneubauer/rest-between-sets/internal/auth"
	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
)

// Service is the domain surface the handlers depend on.
type Service interface {
	CreateMovement(ctx context.Context, subject string, attrs domain.MovementAttrs) (domain.Movement, error)
	GetMovement(ctx context.Context, subject string, id int64) (domain.Movement, error)
	ReplaceMovement(ctx context.Context, subject string, id int64, attrs domain.MovementAttrs) (domain.Movement, error)
	PatchMovement(ctx context.Context, subject string, id int64, attrs domain.MovementAttrs) (domain.Movement, error)
	DeleteMovement(ctx context.Context, subject string, id int64) error
	ListMovements(ctx context.Context, subject, cursor string) (domain.Page[domain.Movement], error)

	CreateExercise(ctx context.Context, subject string, attrs domain.ExerciseAttrs) (domain.Exercise, error)
	GetExercise(ctx context.Context, subject string, id int64) (domain.Exercise, error)
	ReplaceExercise(ctx context.Context, subject string, id int64, attrs domain.ExerciseAttrs) (domain.Exercise, error)
	PatchExercise(ctx context.Context, subject string, id int64, attrs domain.ExerciseAttrs) (domain.Exercise, error)
	DeleteExercise(ctx context.Context, subject string, id int64) error
	ListExercises(ctx context.Context, subject, cursor string) (domain.Page[domain.Exercise], error)

	LinkMovementExercise(ctx context.Context, subject string, movementID, exerciseID int64) error
	UnlinkMovementExercise(ctx context.Context, subject string, movementID, exerciseID int64) error

	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service Service
}

// NewHandler builds a Handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints onto r. Resource routes are wrapped with
// protect, which must place verified claims on the request context.
func (h *Handler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/healthz", healthz)
	r.Post("/users", methodNotAllowed(http.MethodGet))

	r.Group(func(r chi.Router) {
		r.Use(protect)

		r.With(acceptJSON).Get("/users", h.listUsers)

		r.Route("/movements", func(r chi.Router) {
			r.With(acceptJSON).Post("/", h.createMovement)
			r.With(acceptJSON).Get("/", h.listMovements)
			r.Route("/{id}", func(r chi.Router) {
				r.With(acceptJSON).Get("/", h.getMovement)
				r.With(acceptJSON).Put("/", h.replaceMovement)
				r.With(acceptJSON).Patch("/", h.patchMovement)
				r.Delete("/", h.deleteMovement)
				r.Put("/exercises/{linkID}", h.linkFromMovement)
				r.Delete("/exercises/{linkID}", h.unlinkFromMovement)
			})
		})

		r.Route("/exercises", func(r chi.Router) {
			r.With(acceptJSON).Post("/", h.createExercise)
			r.With(acceptJSON).Get("/", h.listExercises)
			r.Route("/{id}", func(r chi.Router) {
				r.With(acceptJSON).Get("/", h.getExercise)
				r.With(acceptJSON).Put("/", h.replaceExercise)
				r.With(acceptJSON).Patch("/", h.patchExercise)
				r.Delete("/", h.deleteExercise)
				r.Put("/movements/{linkID}", h.linkFromExercise)
				r.Delete("/movements/{linkID}", h.unlinkFromExercise)
			})
		})
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// subject returns the verified caller. protect guarantees claims exist.
func subject(r *http.Request) string {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Subject
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, UserView{ID: u.ID, UserID: u.UserID, Email: u.Email, CreatedAt: u.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// link resolves both ids, then applies fn. The movement id always comes first.
func (h *Handler) link(w http.ResponseWriter, r *http.Request, movementFirst bool,
	fn func(ctx context.Context, subject string, movementID, exerciseID int64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	other, err := pathID(r, "linkID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	movementID, exerciseID := id, other
	if !movementFirst {
		movementID, exerciseID = other, id
	}
	if err := fn(r.Context(), subject(r), movementID, exerciseID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) linkFromMovement(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, true, h.service.LinkMovementExercise)
}

func (h *Handler) unlinkFromMovement(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, true, h.service.UnlinkMovementExercise)
}

func (h *Handler) linkFromExercise(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, false, h.service.LinkMovementExercise)
}

func (h *Handler) unlinkFromExercise(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, false, h.service.UnlinkMovementExercise)
}
