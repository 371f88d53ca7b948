// Package conflict decides whether an offline edit collides with a newer
// server copy of the same record, and produces the merged record once a
// resolution is chosen.
package conflict

import (
	"github.com/akulikov/vaultsync/internal/client/models"
)

// Field names a record field that differs between the local edit and the
// server copy. Values are stable identifiers fit for display and for
// naming a manual merge subset.
type Field string

const (
	FieldTitle    Field = "title"
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldURL      Field = "url"
	FieldNotes    Field = "notes"
	FieldTags     Field = "tags"
)

// Case is one detected conflict: the local edit, the server copy it
// collides with, and the differing fields in stable order.
type Case struct {
	Local  models.RecordPatch
	Server models.Record
	Fields []Field
}

// Detect compares an offline edit against the current server copy.
// It returns nil when there is nothing to resolve: the server has not
// moved past the local edit, or it has but none of the locally touched
// fields actually differ.
//
// Only fields present in the patch participate. A field the user never
// touched offline cannot conflict, whatever the server did to it.
func Detect(local models.RecordPatch, server models.Record) *Case {

	if !server.UpdatedAt.After(local.UpdatedAt) {
		return nil
	}

	var fields []Field

	if local.Title != nil && *local.Title != server.Title {
		fields = append(fields, FieldTitle)
	}
	if local.Username != nil && *local.Username != server.Username {
		fields = append(fields, FieldUsername)
	}
	if local.Password != nil && *local.Password != server.Password {
		fields = append(fields, FieldPassword)
	}
	if local.URL != nil && *local.URL != server.URL {
		fields = append(fields, FieldURL)
	}
	if local.Notes != nil && *local.Notes != server.Notes {
		fields = append(fields, FieldNotes)
	}
	if local.Tags != nil && !sameTagSet(local.Tags, server.Tags) {
		fields = append(fields, FieldTags)
	}

	if len(fields) == 0 {
		return nil
	}

	return &Case{Local: local, Server: server, Fields: fields}
}

// sameTagSet compares tags as sets: order and duplicates do not matter.
func sameTagSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
		seen[t] = struct{}{}
	}
	return len(set) == len(seen)
}
