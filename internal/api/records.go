package api

import (
	"net/http"
)

func (h *Handler) createMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := decodeBody(w, r, movementKeys, keysSubset, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.service.CreateMovement(r.Context(), subject(r), req.attrs())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := toMovementView(r, m)
	w.Header().Set("Location", view.Self)
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListMovements(r.Context(), subject(r), r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := MovementList{
		Count:     page.Total,
		Movements: make([]MovementView, 0, len(page.Items)),
		Next:      nextURL(r, "movements", page.NextCursor),
	}
	for _, m := range page.Items {
		resp.Movements = append(resp.Movements, toMovementView(r, m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	m, err := h.service.GetMovement(r.Context(), subject(r), id)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementView(r, m))
}

func (h *Handler) replaceMovement(w http.ResponseWriter, r *http.Request) {
	h.updateMovement(w, r, keysExact)
}

func (h *Handler) patchMovement(w http.ResponseWriter, r *http.Request) {
	h.updateMovement(w, r, keysNonEmpty)
}

func (h *Handler) updateMovement(w http.ResponseWriter, r *http.Request, rule keyRule) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req movementRequest
	if err := decodeBody(w, r, movementKeys, rule, &req); err != nil {
		writeError(w, r, err)
		return
	}
	update := h.service.PatchMovement
	if rule == keysExact {
		update = h.service.ReplaceMovement
	}
	m, err := update(r.Context(), subject(r), id, req.attrs())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := toMovementView(r, m)
	w.Header().Set("Location", view.Self)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteMovement(r.Context(), subject(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := decodeBody(w, r, exerciseKeys, keysSubset, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.service.CreateExercise(r.Context(), subject(r), req.attrs())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := toExerciseView(r, e)
	w.Header().Set("Location", view.Self)
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) listExercises(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListExercises(r.Context(), subject(r), r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := ExerciseList{
		Count:     page.Total,
		Exercises: make([]ExerciseView, 0, len(page.Items)),
		Next:      nextURL(r, "exercises", page.NextCursor),
	}
	for _, e := range page.Items {
		resp.Exercises = append(resp.Exercises, toExerciseView(r, e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	e, err := h.service.GetExercise(r.Context(), subject(r), id)
	if err != nil {
		writeReadError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExerciseView(r, e))
}

func (h *Handler) replaceExercise(w http.ResponseWriter, r *http.Request) {
	h.updateExercise(w, r, keysExact)
}

func (h *Handler) patchExercise(w http.ResponseWriter, r *http.Request) {
	h.updateExercise(w, r, keysNonEmpty)
}

func (h *Handler) updateExercise(w http.ResponseWriter, r *http.Request, rule keyRule) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req exerciseRequest
	if err := decodeBody(w, r, exerciseKeys, rule, &req); err != nil {
		writeError(w, r, err)
		return
	}
	update := h.service.PatchExercise
	if rule == keysExact {
		update = h.service.ReplaceExercise
	}
	e, err := update(r.Context(), subject(r), id, req.attrs())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := toExerciseView(r, e)
	w.Header().Set("Location", view.Self)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.DeleteExercise(r.Context(), subject(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
