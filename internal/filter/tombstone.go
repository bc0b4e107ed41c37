package filter

import (
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/record"
)

// ReasonTombstone is the skip reason for records deleted upstream.
const ReasonTombstone = "tombstone"

// Tombstoned reports whether the record carries a past deletedAt timestamp.
// A deletedAt in the future is a data-integrity violation and aborts the
// run; the legacy store has no scheduled-deletion semantics, so a future
// timestamp can only mean clock or export corruption.
func Tombstoned(r *record.Record, now time.Time) (bool, error) {
	if r.DeletedAt == nil {
		return false, nil
	}
	if r.DeletedAt.After(now) {
		return false, fmt.Errorf("filter: %s deletedAt %s: %w", r.UUID, r.DeletedAt.Format(time.RFC3339), apperr.ErrFutureDeletion)
	}
	return true, nil
}
