package record

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
)

// mergeAuthors folds the legacy singular author field into the authors list.
// The merge is mandatory and runs before any classification: a singular
// author seeds an absent list, is confirmed present by value equality in an
// existing list, or is appended when missing. The singular representation
// never survives past decode.
func mergeAuthors(r *Record, fields map[string]any) error {
	if raw, ok := fields["authors"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("record: authors is %T, not a list: %w", raw, apperr.ErrAuthorShape)
		}
		for i, e := range list {
			a, err := decodeAuthor(e)
			if err != nil {
				return fmt.Errorf("record: authors[%d]: %w", i, err)
			}
			r.Authors = append(r.Authors, a)
		}
	}

	raw, ok := fields["author"]
	if !ok || raw == nil {
		return nil
	}
	single, err := decodeAuthor(raw)
	if err != nil {
		return fmt.Errorf("record: author: %w", err)
	}
	for _, existing := range r.Authors {
		if existing.Equal(single) {
			return nil
		}
	}
	r.Authors = append(r.Authors, single)
	return nil
}

// decodeAuthor validates the author shape: a non-empty displayName and at
// most one extra field beyond it. More than that means the export schema
// grew and the run must stop.
func decodeAuthor(v any) (Author, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Author{}, fmt.Errorf("record: author is %T, not a map: %w", v, apperr.ErrAuthorShape)
	}

	name, _ := m["displayName"].(string)
	if name == "" {
		return Author{}, fmt.Errorf("record: empty displayName: %w", apperr.ErrAuthorShape)
	}
	if len(m) > 2 {
		return Author{}, fmt.Errorf("record: author has %d fields, want at most 2: %w", len(m), apperr.ErrAuthorShape)
	}

	a := Author{DisplayName: name}
	if id, ok := m["uuid"].(string); ok && id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return Author{}, fmt.Errorf("record: author uuid %q: %w", id, err)
		}
		a.UUID = id
	}
	return a, nil
}
