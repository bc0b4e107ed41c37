// Package canon groups publishable records by logical route and selects one
// canonical, latest-dated record per group.
package canon

import (
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/record"
)

// GroupKey identifies one logical route: records of the same kind sharing a
// primary route compete for the same canonical slot.
type GroupKey struct {
	Kind  record.Kind
	Route string
}

// seen tracks one record inside a group.
type seen struct {
	Date time.Time
	Kind record.Kind
}

// RouteGroup accumulates every record observed for one key within a run.
type RouteGroup struct {
	Count      int
	UUIDs      map[string]seen
	LatestUUID string
	LatestDate time.Time
}

// Grouper builds route groups over one run's records, in input order.
type Grouper struct {
	groups map[GroupKey]*RouteGroup
	order  []*record.Record
}

// NewGrouper returns an empty Grouper.
func NewGrouper() *Grouper {
	return &Grouper{groups: make(map[GroupKey]*RouteGroup)}
}

// Add inserts a publishable record into its route group. Two records sharing
// a uuid inside one group means the decode loop fed the same line twice; two
// sharing a date is a latest-wins tie that cannot be resolved. Both abort
// the run.
func (g *Grouper) Add(r *record.Record) error {
	key := GroupKey{Kind: r.Kind, Route: r.PrimaryRoute()}
	grp, ok := g.groups[key]
	if !ok {
		grp = &RouteGroup{UUIDs: make(map[string]seen)}
		g.groups[key] = grp
	}

	if _, dup := grp.UUIDs[r.UUID]; dup {
		return fmt.Errorf("canon: %s at %s/%s: %w", r.UUID, key.Kind, key.Route, apperr.ErrDuplicateUUID)
	}

	date := r.Date()
	for other, s := range grp.UUIDs {
		if s.Date.Equal(date) {
			return fmt.Errorf("canon: %s and %s at %s/%s share date %s: %w",
				r.UUID, other, key.Kind, key.Route, date.Format(time.RFC3339), apperr.ErrDateTie)
		}
	}

	grp.Count++
	grp.UUIDs[r.UUID] = seen{Date: date, Kind: r.Kind}
	if date.After(grp.LatestDate) {
		grp.LatestDate = date
		grp.LatestUUID = r.UUID
	}

	g.order = append(g.order, r)
	return nil
}

// Merge replays every record of other into g, in other's input order. The
// duplicate-uuid and date-tie invariants hold per run, not per input file,
// so they are re-checked here when independently built groupers meet.
func (g *Grouper) Merge(other *Grouper) error {
	for _, r := range other.order {
		if err := g.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Superseded is a non-canonical record reported for logging; multiple edits
// of the same slug are expected, not an error.
type Superseded struct {
	Record        *record.Record
	CanonicalUUID string
}

// Canonical returns, in original input order, the records whose uuid won
// their group, plus the superseded rest.
func (g *Grouper) Canonical() ([]*record.Record, []Superseded) {
	var keep []*record.Record
	var dropped []Superseded
	for _, r := range g.order {
		key := GroupKey{Kind: r.Kind, Route: r.PrimaryRoute()}
		grp := g.groups[key]
		if grp.LatestUUID == r.UUID {
			keep = append(keep, r)
		} else {
			dropped = append(dropped, Superseded{Record: r, CanonicalUUID: grp.LatestUUID})
		}
	}
	return keep, dropped
}

// Len returns the number of records grouped so far.
func (g *Grouper) Len() int { return len(g.order) }
