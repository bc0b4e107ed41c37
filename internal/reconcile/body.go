// Package reconcile fills missing bodies and re-inlines delta embed
// fragments into the flattened HTML body.
package reconcile

import (
	"github.com/starford/othala/internal/record"
)

// ReasonEmptyBody is the skip reason for a publishable record with neither
// body nor summary.
const ReasonEmptyBody = "empty-body"

// FillBody applies the empty-body fallback policy in order: a non-empty body
// stands; an empty body is filled from the summary (flagged in the record);
// Staff records may stay empty; anything else is an incomplete record and is
// skipped with ReasonEmptyBody.
func FillBody(r *record.Record) (ok bool, reason string) {
	if r.Body != "" {
		return true, ""
	}
	if r.Summary != "" {
		r.Body = r.Summary
		r.BodyFilledFromSummary = true
		return true, ""
	}
	if r.Kind == record.KindStaff {
		return true, ""
	}
	return false, ReasonEmptyBody
}
