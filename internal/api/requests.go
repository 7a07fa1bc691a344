package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
)

const maxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})
	})
	return validate
}

// keyRule constrains which attribute keys a request body may carry.
type keyRule int

const (
	// keysSubset allows any known keys (create).
	keysSubset keyRule = iota
	// keysExact requires every known key and nothing else (replace).
	keysExact
	// keysNonEmpty allows a non-empty subset of known keys (patch).
	keysNonEmpty
)

var (
	movementKeys = []string{"movement_name", "coaching_tips"}
	exerciseKeys = []string{"exercise_name", "video_links", "reference_links"}
)

type movementRequest struct {
	Name         *string `json:"movement_name" validate:"omitnil,max=200"`
	CoachingTips *string `json:"coaching_tips" validate:"omitnil,max=5000"`
}

func (m movementRequest) attrs() domain.MovementAttrs {
	return domain.MovementAttrs{Name: m.Name, CoachingTips: m.CoachingTips}
}

type exerciseRequest struct {
	Name           *string   `json:"exercise_name" validate:"omitnil,max=200"`
	VideoLinks     *[]string `json:"video_links" validate:"omitnil,max=50,dive,max=2048"`
	ReferenceLinks *[]string `json:"reference_links" validate:"omitnil,max=50,dive,max=2048"`
}

func (e exerciseRequest) attrs() domain.ExerciseAttrs {
	return domain.ExerciseAttrs{Name: e.Name, VideoLinks: e.VideoLinks, ReferenceLinks: e.ReferenceLinks}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrBadRequest, fmt.Sprintf(format, args...))
}

// decodeBody reads a JSON object into dst after checking its media type and
// key set against allowed.
func decodeBody(w http.ResponseWriter, r *http.Request, allowed []string, rule keyRule, dst any) error {
	if err := requireJSONBody(r); err != nil {
		return err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("read body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return badRequest("body must be a JSON object")
	}
	if err := checkKeys(fields, allowed, rule); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest("invalid attribute value: %v", err)
	}
	if err := getValidator().Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func checkKeys(fields map[string]json.RawMessage, allowed []string, rule keyRule) error {
	known := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		known[k] = struct{}{}
	}

	var unknown []string
	for k := range fields {
		if _, ok := known[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return badRequest("unknown attributes: %s", strings.Join(unknown, ", "))
	}

	switch rule {
	case keysExact:
		for _, k := range allowed {
			if _, ok := fields[k]; !ok {
				return badRequest("missing attribute %s", k)
			}
		}
	case keysNonEmpty:
		if len(fields) == 0 {
			return badRequest("no attributes supplied")
		}
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return badRequest("%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return badRequest("%s", strings.Join(msgs, "; "))
}

// pathID parses a record id from the route. Malformed ids are treated as
// missing records.
func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed id %q", domain.ErrNotFound, raw)
	}
	return id, nil
}
