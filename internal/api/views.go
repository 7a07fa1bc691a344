package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
)

// linkView references a record in the sibling collection.
type linkView struct {
	ID   int64  `json:"id"`
	Self string `json:"self"`
}

// MovementView is the wire form of a movement.
type MovementView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"movement_name"`
	CoachingTips string     `json:"coaching_tips"`
	Exercises    []linkView `json:"exercises"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	Self         string     `json:"self"`
}

// ExerciseView is the wire form of an exercise.
type ExerciseView struct {
	ID             int64      `json:"id"`
	Name           string     `json:"exercise_name"`
	VideoLinks     []string   `json:"video_links"`
	ReferenceLinks []string   `json:"reference_links"`
	Movements      []linkView `json:"movements"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	Self           string     `json:"self"`
}

// UserView is the wire form of a user.
type UserView struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementList is the GET /movements envelope.
type MovementList struct {
	Count     int            `json:"count"`
	Movements []MovementView `json:"movements"`
	Next      string         `json:"next,omitempty"`
}

// ExerciseList is the GET /exercises envelope.
type ExerciseList struct {
	Count     int            `json:"count"`
	Exercises []ExerciseView `json:"exercises"`
	Next      string         `json:"next,omitempty"`
}

// baseURL is the scheme and host the request was addressed to.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	return scheme + "://" + r.Host
}

func selfURL(r *http.Request, collection string, id int64) string {
	return baseURL(r) + "/" + collection + "/" + strconv.FormatInt(id, 10)
}

func nextURL(r *http.Request, collection, cursor string) string {
	if cursor == "" {
		return ""
	}
	return baseURL(r) + "/" + collection + "?" + url.Values{"cursor": {cursor}}.Encode()
}

func links(r *http.Request, collection string, ids []int64) []linkView {
	out := make([]linkView, 0, len(ids))
	for _, id := range ids {
		out = append(out, linkView{ID: id, Self: selfURL(r, collection, id)})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toMovementView(r *http.Request, m domain.Movement) MovementView {
	return MovementView{
		ID:           m.ID,
		Name:         m.Name,
		CoachingTips: m.CoachingTips,
		Exercises:    links(r, "exercises", m.Exercises),
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		Self:         selfURL(r, "movements", m.ID),
	}
}

func toExerciseView(r *http.Request, e domain.Exercise) ExerciseView {
	return ExerciseView{
		ID:             e.ID,
		Name:           e.Name,
		VideoLinks:     nonNil(e.VideoLinks),
		ReferenceLinks: nonNil(e.ReferenceLinks),
		Movements:      links(r, "movements", e.Movements),
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt,
		Self:           selfURL(r, "exercises", e.ID),
	}
}
