// Package id generates the identifiers stamped onto orders and trade
// records.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. IDs are time-sortable, and monotonic
// within a millisecond, so an append-only history ordered by ID is also
// ordered by creation time.
func New() string {
	return ulid.Make().String()
}
