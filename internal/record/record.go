// Package record defines the decoded content unit of a legacy snapshot and
// the strict line decoder that produces it.
package record

import (
	"fmt"
	"time"

	"github.com/starford/othala/internal/apperr"
)

// Kind is the closed record-type enum of the legacy store. Unknown kinds are
// a fatal decode error, never a skip.
type Kind string

const (
	KindArticle   Kind = "article"
	KindEpisode   Kind = "episode"
	KindNews      Kind = "news"
	KindPage      Kind = "page"
	KindShow      Kind = "show"
	KindStaff     Kind = "staff"
	KindRedirect  Kind = "redirect"
	KindTopic     Kind = "topic"
	KindAlert     Kind = "alert"
	KindEvent     Kind = "event"
	KindPromotion Kind = "promotion"
)

var allKinds = map[Kind]struct{}{
	KindArticle: {}, KindEpisode: {}, KindNews: {}, KindPage: {},
	KindShow: {}, KindStaff: {}, KindRedirect: {}, KindTopic: {},
	KindAlert: {}, KindEvent: {}, KindPromotion: {},
}

// ParseKind validates a raw type string against the closed enum.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := allKinds[k]; !ok {
		return "", fmt.Errorf("record: kind %q: %w", s, apperr.ErrUnknownKind)
	}
	return k, nil
}

// Publishable reports whether records of this kind flow through route
// canonicalization, the ledger and export. Redirects and topics emit
// mappings instead of content items; alerts, events and promotions are
// discarded after validation.
func (k Kind) Publishable() bool {
	switch k {
	case KindArticle, KindEpisode, KindNews, KindPage, KindShow, KindStaff:
		return true
	}
	return false
}

// Author is one byline entry. UUID is the legacy store's stable identity for
// in-house staff; wire and guest bylines typically lack it.
type Author struct {
	DisplayName string `json:"displayName"`
	UUID        string `json:"uuid,omitempty"`
}

// Equal reports value equality, used by the author/authors merge.
func (a Author) Equal(b Author) bool {
	return a.DisplayName == b.DisplayName && a.UUID == b.UUID
}

// Record is a decoded content unit.
type Record struct {
	UUID        string
	Kind        Kind
	Routes      []string // first entry is the primary route
	Title       string
	Body        string
	Summary     string
	Authors     []Author
	Categories  []string
	Tags        []string
	CreatedAt   *time.Time
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	Delta       string // raw rich-edit payload, empty when absent

	// Checksum is the stable digest of the normalized record, derived at
	// decode time and used for cross-run change detection.
	Checksum string

	// BodyFilledFromSummary is set by the reconciler when the body was
	// backfilled from the summary; it travels into the export metadata.
	BodyFilledFromSummary bool
}

// PrimaryRoute returns the first route slug, or "" when the record has none.
func (r *Record) PrimaryRoute() string {
	if len(r.Routes) == 0 {
		return ""
	}
	return r.Routes[0]
}

// Date returns the timestamp used for latest-wins ordering: publishedAt,
// falling back to updatedAt, then createdAt. The zero time means the record
// carries no usable date at all.
func (r *Record) Date() time.Time {
	switch {
	case r.PublishedAt != nil:
		return *r.PublishedAt
	case r.UpdatedAt != nil:
		return *r.UpdatedAt
	case r.CreatedAt != nil:
		return *r.CreatedAt
	}
	return time.Time{}
}

// DerivedURL is the target URL a record of this kind claims at its primary
// route. Articles lived at the site root in the legacy store; every other
// kind is prefixed with its kind slug.
func (r *Record) DerivedURL() string {
	route := r.PrimaryRoute()
	if r.Kind == KindArticle {
		return "/" + route
	}
	return "/" + string(r.Kind) + "/" + route
}

// MediaAsset is a decoded media-asset line. Sideloading the binary is the
// downstream collaborator's job; the pipeline only validates and counts them.
type MediaAsset struct {
	UUID     string
	File     string
	MimeType string
	Title    string
	Alt      string
	Caption  string
	Credit   string
	Width    int64
	Height   int64
}
