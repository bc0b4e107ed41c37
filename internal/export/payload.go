package export

import (
	"time"

	"github.com/starford/othala/internal/record"
)

// Payload is the per-record shape handed to the downstream content-management
// collaborator. The top-level author is a placeholder login; real author
// identities travel in Meta.Authors for the external matching component, and
// Meta.UUID is the collaborator's idempotency key for its own writes.
type Payload struct {
	Author     string   `json:"author"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Date       string   `json:"date"`
	Meta       Meta     `json:"meta"`
}

// Meta carries everything downstream needs beyond the plain content fields.
type Meta struct {
	Authors               []record.Author `json:"authors"`
	Kind                  string          `json:"kind"`
	UUID                  string          `json:"uuid"`
	Checksum              string          `json:"checksum"`
	ImportSet             string          `json:"importSet"`
	Routes                []string        `json:"routes"`
	PrimaryRoute          string          `json:"primaryRoute"`
	DerivedURL            string          `json:"derivedUrl"`
	BodyFilledFromSummary bool            `json:"bodyFilledFromSummary"`
}

// NewPayload maps one canonical record to the downstream shape. The kind
// name is appended to the categories so downstream taxonomy captures it.
func NewPayload(r *record.Record, placeholderAuthor, importSet string) Payload {
	categories := make([]string, 0, len(r.Categories)+1)
	categories = append(categories, r.Categories...)
	categories = append(categories, string(r.Kind))

	return Payload{
		Author:     placeholderAuthor,
		Title:      r.Title,
		URL:        r.PrimaryRoute(),
		Content:    r.Body,
		Excerpt:    r.Summary,
		Categories: categories,
		Tags:       r.Tags,
		Date:       r.Date().UTC().Format(time.RFC3339),
		Meta: Meta{
			Authors:               r.Authors,
			Kind:                  string(r.Kind),
			UUID:                  r.UUID,
			Checksum:              r.Checksum,
			ImportSet:             importSet,
			Routes:                r.Routes,
			PrimaryRoute:          r.PrimaryRoute(),
			DerivedURL:            r.DerivedURL(),
			BodyFilledFromSummary: r.BodyFilledFromSummary,
		},
	}
}
