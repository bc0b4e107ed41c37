package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/starford/othala/internal/record"
)

// Decision is the comparator's verdict for one publishable record.
type Decision int

const (
	// DecisionNew means the record has never been imported: proceed.
	DecisionNew Decision = iota
	// DecisionUnchanged means the ledger holds this uuid with an equal
	// checksum: already processed, skip.
	DecisionUnchanged
	// DecisionChanged means the uuid is known but the checksum differs.
	// The ledger is a write-once import boundary: the change is surfaced
	// for manual review, never auto-applied, and the record is skipped.
	DecisionChanged
	// DecisionSlugClaimed means a different, already-canonical uuid holds
	// this record's target URL: a late-arriving duplicate, skip.
	DecisionSlugClaimed
	// DecisionBeforeWatermark means the record predates everything already
	// committed, so it cannot be newer-wins material: skip.
	DecisionBeforeWatermark
)

// Reason returns the stable skip reason code for non-new decisions.
func (d Decision) Reason() string {
	switch d {
	case DecisionUnchanged:
		return "ledger-unchanged"
	case DecisionChanged:
		return "ledger-changed"
	case DecisionSlugClaimed:
		return "ledger-slug-claimed"
	case DecisionBeforeWatermark:
		return "ledger-before-watermark"
	}
	return ""
}

// Snapshot is the ledger loaded into memory for one run: a uuid lookup, a
// url-collision lookup over canonical entries, and the maximum-date
// watermark.
type Snapshot struct {
	ByUUID    map[string]Entry
	ByURL     map[string]string
	Watermark time.Time
}

// Comparator decides reprocessing against a loaded snapshot. The snapshot
// itself stays read-only; only the seen-again flags mutate, guarded for the
// per-file parallel pass.
type Comparator struct {
	snap *Snapshot

	mu   sync.Mutex
	seen map[string]bool
}

// NewComparator builds a comparator over a loaded snapshot. An empty
// snapshot (first run) makes every record new.
func NewComparator(snap *Snapshot) *Comparator {
	return &Comparator{snap: snap, seen: make(map[string]bool)}
}

// Compare classifies one publishable record and marks its ledger entry as
// seen again when the uuid is known.
func (c *Comparator) Compare(r *record.Record) Decision {
	if entry, ok := c.snap.ByUUID[r.UUID]; ok {
		c.markSeen(r.UUID)
		if entry.Checksum == r.Checksum {
			return DecisionUnchanged
		}
		return DecisionChanged
	}

	if owner, ok := c.snap.ByURL[r.DerivedURL()]; ok && owner != r.UUID {
		return DecisionSlugClaimed
	}

	if !c.snap.Watermark.IsZero() && r.Date().Before(c.snap.Watermark) {
		return DecisionBeforeWatermark
	}

	return DecisionNew
}

func (c *Comparator) markSeen(uuid string) {
	c.mu.Lock()
	c.seen[uuid] = true
	c.mu.Unlock()
}

// Unseen returns, sorted by uuid, every ledger entry whose uuid never
// reappeared this run: candidate upstream deletions, reported but never
// auto-removed.
func (c *Comparator) Unseen() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	for id, e := range c.snap.ByUUID {
		if !c.seen[id] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out
}
