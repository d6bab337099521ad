package catalog

import (
	"time"
)

// DatabaseStatus is the catalog's view of a logical database.
type DatabaseStatus string

const (
	DatabaseStatusOpen   DatabaseStatus = "open"
	DatabaseStatusClosed DatabaseStatus = "closed"
)

// Database is one known logical database and its last observed state.
type Database struct {
	// Name is the logical database name, unique in the catalog.
	Name string `json:"name"`

	// Path is the on-disk path the last successful create used.
	Path string `json:"path"`

	// Generation is the connection epoch at the last create.
	Generation uint64 `json:"generation"`

	// Status is open or closed.
	Status DatabaseStatus `json:"status"`

	// OpenedAt is when the current connection was established.
	OpenedAt time.Time `json:"opened_at"`

	// ClosedAt is set once the database was closed.
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event is one append-only lifecycle event row.
type Event struct {
	ID int64 `json:"id"`

	// Database is the logical name the event belongs to.
	Database string `json:"database"`

	// Event is the transition: created, recreated, suspect, invalidated,
	// evicted, closed.
	Event string `json:"event"`

	// Detail carries free-form context (reason, attempt count).
	Detail *string `json:"detail,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
