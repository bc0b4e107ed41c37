package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/checksum"
	"github.com/starford/othala/internal/dynamo"
)

// The two disjoint field allow-lists act as a live schema contract: any key
// the exporter starts emitting that is not listed here aborts the run instead
// of being silently dropped.
var contentFields = map[string]struct{}{
	"uuid": {}, "type": {}, "routes": {}, "title": {}, "body": {},
	"summary": {}, "author": {}, "authors": {}, "categories": {}, "tags": {},
	"createdAt": {}, "publishedAt": {}, "updatedAt": {}, "deletedAt": {},
	"delta": {},
}

var mediaFields = map[string]struct{}{
	"uuid": {}, "file": {}, "mimeType": {}, "title": {}, "alt": {},
	"caption": {}, "credit": {}, "width": {}, "height": {},
	"createdAt": {}, "updatedAt": {}, "deletedAt": {},
}

// Decoded is the result of decoding one snapshot line: exactly one of Record
// or Media is non-nil.
type Decoded struct {
	Record *Record
	Media  *MediaAsset
}

// DecodeLine decodes one newline-delimited snapshot line. The line must be a
// single-item envelope {"Item": {field: {tag: payload}, ...}}; anything else
// is fatal. Author merge (singular author folded into the authors list) runs
// here, before any classification.
func DecodeLine(line []byte) (*Decoded, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, fmt.Errorf("record: decode envelope: %w", err)
	}
	item, ok := envelope["Item"]
	if !ok || len(envelope) != 1 {
		return nil, fmt.Errorf("record: envelope has %d keys, want exactly Item: %w", len(envelope), apperr.ErrEnvelope)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(item, &tagged); err != nil {
		return nil, fmt.Errorf("record: decode item: %w", err)
	}

	fields := make(map[string]any, len(tagged))
	for key, raw := range tagged {
		v, err := dynamo.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("record: field %s: %w", key, err)
		}
		fields[key] = v
	}

	// Media-asset lines carry their own disjoint allow-list; the file and
	// mimeType keys are the discriminator.
	if _, isMedia := fields["file"]; isMedia {
		return decodeMedia(fields)
	}
	if _, isMedia := fields["mimeType"]; isMedia {
		return decodeMedia(fields)
	}
	return decodeContent(fields)
}

func decodeContent(fields map[string]any) (*Decoded, error) {
	for key := range fields {
		if _, ok := contentFields[key]; !ok {
			return nil, fmt.Errorf("record: content field %q: %w", key, apperr.ErrUnknownField)
		}
	}

	id, err := uuidField(fields, "uuid")
	if err != nil {
		return nil, err
	}

	rawKind, _ := fields["type"].(string)
	kind, err := ParseKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("record: %s: %w", id, err)
	}

	r := &Record{
		UUID:       id,
		Kind:       kind,
		Routes:     stringSlice(fields["routes"]),
		Title:      stringField(fields, "title"),
		Body:       stringField(fields, "body"),
		Summary:    stringField(fields, "summary"),
		Categories: stringSlice(fields["categories"]),
		Tags:       stringSlice(fields["tags"]),
		Delta:      stringField(fields, "delta"),
	}

	for _, ts := range []struct {
		key string
		dst **time.Time
	}{
		{"createdAt", &r.CreatedAt},
		{"publishedAt", &r.PublishedAt},
		{"updatedAt", &r.UpdatedAt},
		{"deletedAt", &r.DeletedAt},
	} {
		t, err := timeField(fields, ts.key)
		if err != nil {
			return nil, fmt.Errorf("record: %s: %w", id, err)
		}
		*ts.dst = t
	}

	if err := mergeAuthors(r, fields); err != nil {
		return nil, fmt.Errorf("record: %s: %w", id, err)
	}

	cs, err := r.computeChecksum()
	if err != nil {
		return nil, fmt.Errorf("record: %s: %w", id, err)
	}
	r.Checksum = cs

	return &Decoded{Record: r}, nil
}

func decodeMedia(fields map[string]any) (*Decoded, error) {
	for key := range fields {
		if _, ok := mediaFields[key]; !ok {
			return nil, fmt.Errorf("record: media field %q: %w", key, apperr.ErrUnknownField)
		}
	}
	id, err := uuidField(fields, "uuid")
	if err != nil {
		return nil, err
	}
	m := &MediaAsset{
		UUID:     id,
		File:     stringField(fields, "file"),
		MimeType: stringField(fields, "mimeType"),
		Title:    stringField(fields, "title"),
		Alt:      stringField(fields, "alt"),
		Caption:  stringField(fields, "caption"),
		Credit:   stringField(fields, "credit"),
	}
	m.Width, _ = fields["width"].(int64)
	m.Height, _ = fields["height"].(int64)
	return &Decoded{Media: m}, nil
}

// computeChecksum digests the normalized record fields. Derived and mutable
// run-state fields (Checksum itself, BodyFilledFromSummary) stay out of the
// digest so it is stable across runs.
func (r *Record) computeChecksum() (string, error) {
	return checksum.Object(struct {
		UUID        string
		Kind        Kind
		Routes      []string
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
		Delta       string
	}{
		r.UUID, r.Kind, r.Routes, r.Title, r.Body, r.Summary,
		r.Authors, r.Categories, r.Tags,
		r.CreatedAt, r.PublishedAt, r.UpdatedAt, r.DeletedAt, r.Delta,
	})
}

func uuidField(fields map[string]any, key string) (string, error) {
	s, _ := fields[key].(string)
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("record: %s %q: %w", key, s, err)
	}
	return s, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// stringSlice accepts both the SS ([]string) and L-of-S ([]any) encodings
// the exporter has used over the years.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// timeField accepts RFC 3339 strings and epoch-second numbers.
func timeField(fields map[string]any, key string) (*time.Time, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case string:
		if vv == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, vv)
		if err != nil {
			return nil, fmt.Errorf("record: %s: %w", key, err)
		}
		return &t, nil
	case int64:
		t := time.Unix(vv, 0).UTC()
		return &t, nil
	case float64:
		t := time.Unix(int64(vv), 0).UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("record: %s: unsupported timestamp type %T", key, v)
}
