package filter

import (
	"regexp"
	"strings"

	"github.com/starford/othala/internal/record"
)

// Skip reasons emitted by the wire-content detector. The first three are
// hard filters (high confidence, no scoring); ReasonWireScore is the
// additive heuristic crossing its threshold.
const (
	ReasonWireAuthor   = "wire-author"
	ReasonWireCategory = "wire-category"
	ReasonWireDateline = "wire-dateline"
	ReasonWireScore    = "wire-score"
)

// datelineRe matches the leading "CITY, State (AP)" prefix wire stories
// carry in their first paragraph, after HTML tags are stripped.
var (
	datelineRe = regexp.MustCompile(`^[A-Z][A-Z0-9 .'-]+,\s+[A-Za-z.]+(?:\s[A-Za-z.]+)?\s+\(AP\)`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

// Verdict is the outcome of wire-content inspection.
type Verdict struct {
	Wire   bool
	Reason string // one of the Reason* constants when Wire is true
	Score  int    // accumulated heuristic score (informational)
}

// WireDetector classifies records as externally syndicated content using the
// two-tier design: hard filters avoid false negatives on confidently-wire
// content, the additive score avoids false positives on ambiguous bylines.
type WireDetector struct {
	authors   map[string]struct{}
	definite  map[string]struct{}
	maybe     map[string]struct{}
	threshold int
}

// NewWireDetector builds a detector from the override tables.
func NewWireDetector(o Overrides) *WireDetector {
	d := &WireDetector{
		authors:   make(map[string]struct{}, len(o.WireAuthors)),
		definite:  make(map[string]struct{}, len(o.DefiniteWireCategories)),
		maybe:     make(map[string]struct{}, len(o.MaybeWireCategories)),
		threshold: o.ScoreThreshold,
	}
	for _, a := range o.WireAuthors {
		d.authors[normalizeName(a)] = struct{}{}
	}
	for _, c := range o.DefiniteWireCategories {
		d.definite[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, c := range o.MaybeWireCategories {
		d.maybe[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return d
}

// Inspect classifies one record. Hard filters return immediately; otherwise
// the score accumulates and the record is wire when it reaches the threshold.
func (d *WireDetector) Inspect(r *record.Record) Verdict {
	score := 0

	for _, a := range r.Authors {
		if _, ok := d.authors[normalizeName(a.DisplayName)]; ok {
			return Verdict{Wire: true, Reason: ReasonWireAuthor}
		}
		// A "By Someone" byline with no stable identity is how the legacy
		// CMS rendered pasted-in wire copy.
		if hasBylinePrefix(a.DisplayName) && a.UUID == "" {
			score++
		}
	}

	for _, c := range r.Categories {
		key := strings.ToLower(strings.TrimSpace(c))
		if _, ok := d.definite[key]; ok {
			return Verdict{Wire: true, Reason: ReasonWireCategory}
		}
		if _, ok := d.maybe[key]; ok {
			score++
		}
	}

	if hasDateline(r.Body) {
		return Verdict{Wire: true, Reason: ReasonWireDateline}
	}

	// News is by far the most wire-heavy kind in the legacy store.
	if r.Kind == record.KindNews {
		score++
	}

	if score >= d.threshold {
		return Verdict{Wire: true, Reason: ReasonWireScore, Score: score}
	}
	return Verdict{Score: score}
}

// normalizeName lowercases, trims, and strips a leading "by " so byline
// variants of the same wire service compare equal.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "by ")
	return strings.Join(strings.Fields(s), " ")
}

func hasBylinePrefix(name string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "by ")
}

// hasDateline strips markup and tests the remaining text for an AP-style
// dateline prefix. Tags are removed before any truncation: slicing the raw
// body could cut through a long attribute-heavy tag or a multi-byte rune and
// hide a dateline that follows it.
func hasDateline(body string) bool {
	text := strings.TrimSpace(tagRe.ReplaceAllString(body, ""))
	return datelineRe.MatchString(text)
}
