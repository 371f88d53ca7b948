package models

import "time"

// Record is the authoritative shape of a secret record as held by the
// server. UpdatedAt is the server's modification instant in UTC.
type Record struct {
	ID       string
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
	Tags     []string

	UpdatedAt time.Time
}

// RecordPatch is a partial record holding only the fields edited while
// offline. A nil pointer (or nil Tags slice) means the field was never
// touched locally and must not participate in conflict detection.
type RecordPatch struct {
	ID       string
	Title    *string
	Username *string
	Password *string
	URL      *string
	Notes    *string
	Tags     []string

	// UpdatedAt is the instant of the local edit. Mandatory.
	UpdatedAt time.Time
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}
