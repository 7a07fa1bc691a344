// Package store defines the document gateway the API persists movements,
// exercises and users through, together with the pieces shared by its
// backends (typed errors, cursors, instrumentation).
package store

import "context"

// Collection names a kind of record held by the gateway.
type Collection string

// Collections used by the service.
const (
	Users     Collection = "Users"
	Movements Collection = "Movements"
	Exercises Collection = "Exercises"
)

// Collections lists every collection a backend has to provision.
var Collections = []Collection{Users, Movements, Exercises}

// Document is a stored record. Data holds the JSON encoded attributes; the ID
// is assigned by the backend and never stored inside Data.
type Document struct {
	ID   int64
	Data []byte
}

// ListOptions controls a List call. A zero Limit returns every record.
type ListOptions struct {
	Limit  int
	Cursor string
}

// Page is one slice of a listing. NextCursor is empty when the backend has no
// further records after Items.
type Page struct {
	Items      []Document
	NextCursor string
}

// More reports whether further records exist after the page.
func (p Page) More() bool {
	return p.NextCursor != ""
}

// Op is the kind of write carried by a Mutation.
type Op int

// Mutation operations.
const (
	OpUpdate Op = iota + 1
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is a single write applied as part of Gateway.Apply.
type Mutation struct {
	Op         Op
	Collection Collection
	ID         int64
	Data       []byte
}

// UpdateOf builds an update mutation.
func UpdateOf(c Collection, id int64, data []byte) Mutation {
	return Mutation{Op: OpUpdate, Collection: c, ID: id, Data: data}
}

// DeleteOf builds a delete mutation.
func DeleteOf(c Collection, id int64) Mutation {
	return Mutation{Op: OpDelete, Collection: c, ID: id}
}

// Gateway is the persistence contract. Listing is ordered by ascending ID.
// Update, Delete and Apply fail with ErrNotFound when a target is missing and
// leave the store untouched in that case.
type Gateway interface {
	Create(ctx context.Context, c Collection, data []byte) (int64, error)
	Get(ctx context.Context, c Collection, id int64) (Document, error)
	List(ctx context.Context, c Collection, opts ListOptions) (Page, error)
	Update(ctx context.Context, c Collection, id int64, data []byte) error
	Delete(ctx context.Context, c Collection, id int64) error
	// Apply performs the mutations in order as one unit.
	Apply(ctx context.Context, muts []Mutation) error
	Close() error
}
