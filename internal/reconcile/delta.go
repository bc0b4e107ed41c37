package reconcile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/othala/internal/record"
)

// ReasonMalformedDelta is the skip reason for records whose delta payload
// cannot be decoded.
const ReasonMalformedDelta = "malformed-delta"

// placeholderRe matches the {{embed:<uuid>}} markers the legacy flattener
// left in the HTML body where a rich embed fragment was cut out.
var placeholderRe = regexp.MustCompile(`\{\{embed:([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})\}\}`)

// delta is the structured rich-edit payload: an ordered insert list where
// embed fragments are object inserts carrying uuid and html keys.
type delta struct {
	Ops []struct {
		Insert json.RawMessage `json:"insert"`
	} `json:"ops"`
}

// InlineEmbeds substitutes every {{embed:<uuid>}} placeholder in the body
// with a comment-delimited embed block extracted from the record's delta
// payload. Placeholders with no matching fragment are left as-is, never
// silently removed. Records without a delta or without placeholders pass
// through untouched.
func InlineEmbeds(r *record.Record) error {
	if r.Delta == "" || !placeholderRe.MatchString(r.Body) {
		return nil
	}

	embeds, err := extractEmbeds(r.Delta)
	if err != nil {
		return fmt.Errorf("reconcile: %s: %w", r.UUID, err)
	}

	r.Body = placeholderRe.ReplaceAllStringFunc(r.Body, func(m string) string {
		id := placeholderRe.FindStringSubmatch(m)[1]
		html, ok := embeds[id]
		if !ok {
			return m
		}
		return embedBlock(id, html)
	})
	return nil
}

// extractEmbeds walks the delta insert list and collects uuid → embed code
// for every object insert that carries both keys.
func extractEmbeds(raw string) (map[string]string, error) {
	var d delta
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode delta: %w", err)
	}

	out := make(map[string]string)
	for _, op := range d.Ops {
		// Plain text inserts are JSON strings; only object inserts can
		// carry embed fragments.
		var obj map[string]any
		if err := json.Unmarshal(op.Insert, &obj); err != nil {
			continue
		}
		if id, html, ok := embedFragment(obj); ok {
			out[id] = html
			continue
		}
		// The editor wrapped fragments one level deep in later exports,
		// e.g. {"insert": {"rawHTML": {"uuid": ..., "html": ...}}}.
		for _, v := range obj {
			if nested, ok := v.(map[string]any); ok {
				if id, html, ok := embedFragment(nested); ok {
					out[id] = html
				}
			}
		}
	}
	return out, nil
}

func embedFragment(m map[string]any) (id, html string, ok bool) {
	id, _ = m["uuid"].(string)
	html, _ = m["html"].(string)
	return id, html, id != "" && html != ""
}

func embedBlock(id, html string) string {
	var b strings.Builder
	b.WriteString("<!-- embed ")
	b.WriteString(id)
	b.WriteString(" -->\n")
	b.WriteString(html)
	b.WriteString("\n<!-- /embed ")
	b.WriteString(id)
	b.WriteString(" -->")
	return b.String()
}
