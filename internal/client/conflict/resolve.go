package conflict

import (
	"github.com/akulikov/vaultsync/internal/client/models"
)

// Choice is a resolution decision for a conflict case.
type Choice string

const (
	ChoiceKeepLocal  Choice = "keep-local"
	ChoiceKeepServer Choice = "keep-server"
)

// ResolveLWW picks a side by timestamp. Ties favor the server: when
// neither side is strictly newer the authoritative copy wins and the
// local edit is discarded.
func ResolveLWW(c *Case) Choice {
	if c.Local.UpdatedAt.After(c.Server.UpdatedAt) {
		return ChoiceKeepLocal
	}
	return ChoiceKeepServer
}

// Apply materializes a resolution into the record to write back.
//
// Keep-server returns the server copy untouched. Keep-local overlays
// every locally present field onto the server copy, so server-side
// changes to untouched fields survive either way. The result carries the
// server's UpdatedAt; the write-back path assigns the new instant.
func Apply(choice Choice, c *Case) models.Record {
	if choice == ChoiceKeepServer {
		return c.Server.Clone()
	}
	return overlay(c.Local, c.Server, nil)
}

// MergeFields resolves a case field by field: the named fields are taken
// from the local edit, everything else stays as the server has it. Names
// outside the patch's present fields are ignored.
func MergeFields(c *Case, keepLocal []Field) models.Record {
	pick := make(map[Field]struct{}, len(keepLocal))
	for _, f := range keepLocal {
		pick[f] = struct{}{}
	}
	return overlay(c.Local, c.Server, pick)
}

// overlay writes the patch's present fields over a clone of the server
// record. A non-nil pick set restricts the overlay to those fields.
func overlay(local models.RecordPatch, server models.Record, pick map[Field]struct{}) models.Record {

	take := func(f Field) bool {
		if pick == nil {
			return true
		}
		_, ok := pick[f]
		return ok
	}

	out := server.Clone()

	if local.Title != nil && take(FieldTitle) {
		out.Title = *local.Title
	}
	if local.Username != nil && take(FieldUsername) {
		out.Username = *local.Username
	}
	if local.Password != nil && take(FieldPassword) {
		out.Password = *local.Password
	}
	if local.URL != nil && take(FieldURL) {
		out.URL = *local.URL
	}
	if local.Notes != nil && take(FieldNotes) {
		out.Notes = *local.Notes
	}
	if local.Tags != nil && take(FieldTags) {
		out.Tags = append([]string(nil), local.Tags...)
	}

	return out
}
