package store

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidKey
	KindInvalidCursor
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidKey:
		return "invalid key"
	case KindInvalidCursor:
		return "invalid cursor"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by gateway backends.
type Error struct {
	Kind       Kind
	Collection Collection
	ID         int64
	Err        error
}

// Sentinels for errors.Is comparisons; only the Kind is compared.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrInvalidKey    = &Error{Kind: KindInvalidKey}
	ErrInvalidCursor = &Error{Kind: KindInvalidCursor}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrUnavailable   = &Error{Kind: KindUnavailable}
)

func (e *Error) Error() string {
	msg := "store: " + e.Kind.String()
	if e.Collection != "" {
		msg += fmt.Sprintf(" %s/%d", e.Collection, e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing record.
func NotFound(c Collection, id int64) error {
	return &Error{Kind: KindNotFound, Collection: c, ID: id}
}

// InvalidKey reports an ID the store can never hold.
func InvalidKey(c Collection, id int64) error {
	return &Error{Kind: KindInvalidKey, Collection: c, ID: id}
}

// Unavailable wraps a backend failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: KindUnavailable, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// CheckKey rejects IDs no backend assigns.
func CheckKey(c Collection, id int64) error {
	if id <= 0 {
		return InvalidKey(c, id)
	}
	return nil
}
