package record

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
)

const (
	testUUID   = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	authorUUID = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
)

func decodeContentLine(t *testing.T, line string) *Record {
	t.Helper()
	d, err := DecodeLine([]byte(line))
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if d.Record == nil {
		t.Fatal("expected content record, got media")
	}
	return d.Record
}

func TestDecodeLine_ContentRecord(t *testing.T) {
	r := decodeContentLine(t, `{"Item": {
		"uuid": {"S": "`+testUUID+`"},
		"type": {"S": "article"},
		"routes": {"L": [{"S": "hello-world"}, {"S": "hello-world-2"}]},
		"title": {"S": "Hello World"},
		"body": {"S": "<p>Body</p>"},
		"summary": {"S": "A summary"},
		"categories": {"SS": ["local"]},
		"tags": {"SS": ["a", "b"]},
		"publishedAt": {"S": "2019-04-02T10:00:00Z"},
		"authors": {"L": [{"M": {"displayName": {"S": "Ada Lovelace"}, "uuid": {"S": "`+authorUUID+`"}}}]}
	}}`)

	if r.Kind != KindArticle {
		t.Errorf("kind = %q, want article", r.Kind)
	}
	if r.PrimaryRoute() != "hello-world" {
		t.Errorf("primary route = %q, want hello-world", r.PrimaryRoute())
	}
	if len(r.Authors) != 1 || r.Authors[0].DisplayName != "Ada Lovelace" {
		t.Errorf("authors = %v", r.Authors)
	}
	if r.Date().IsZero() {
		t.Error("date is zero, want publishedAt")
	}
	if r.Checksum == "" {
		t.Error("checksum not derived")
	}
	if !r.Kind.Publishable() {
		t.Error("article should be publishable")
	}
}

func TestDecodeLine_EnvelopeViolations(t *testing.T) {
	for _, line := range []string{
		`{"NotItem": {}}`,
		`{"Item": {}, "Extra": {}}`,
		`{}`,
	} {
		_, err := DecodeLine([]byte(line))
		if !errors.Is(err, apperr.ErrEnvelope) {
			t.Errorf("DecodeLine(%s) err = %v, want ErrEnvelope", line, err)
		}
	}
}

func TestDecodeLine_UnknownFieldFatal(t *testing.T) {
	_, err := DecodeLine([]byte(`{"Item": {
		"uuid": {"S": "` + testUUID + `"},
		"type": {"S": "article"},
		"surpriseField": {"S": "x"}
	}}`))
	if !errors.Is(err, apperr.ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestDecodeLine_UnknownKindFatal(t *testing.T) {
	_, err := DecodeLine([]byte(`{"Item": {
		"uuid": {"S": "` + testUUID + `"},
		"type": {"S": "widget"}
	}}`))
	if !errors.Is(err, apperr.ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestDecodeLine_MediaAsset(t *testing.T) {
	d, err := DecodeLine([]byte(`{"Item": {
		"uuid": {"S": "` + testUUID + `"},
		"file": {"S": "images/photo.jpg"},
		"mimeType": {"S": "image/jpeg"},
		"width": {"N": "1024"},
		"height": {"N": "768"}
	}}`))
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if d.Media == nil {
		t.Fatal("expected media asset")
	}
	if d.Media.MimeType != "image/jpeg" || d.Media.Width != 1024 {
		t.Errorf("media = %+v", d.Media)
	}
}

func TestDecodeLine_MediaUnknownFieldFatal(t *testing.T) {
	// A content-only field on a media line violates the disjoint allow-lists.
	_, err := DecodeLine([]byte(`{"Item": {
		"uuid": {"S": "` + testUUID + `"},
		"mimeType": {"S": "image/png"},
		"routes": {"L": [{"S": "x"}]}
	}}`))
	if !errors.Is(err, apperr.ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestChecksum_StableAndSensitive(t *testing.T) {
	line := `{"Item": {
		"uuid": {"S": "` + testUUID + `"},
		"type": {"S": "news"},
		"routes": {"L": [{"S": "slug"}]},
		"title": {"S": "T"},
		"body": {"S": "B"}
	}}`
	a := decodeContentLine(t, line)
	b := decodeContentLine(t, line)
	if a.Checksum != b.Checksum {
		t.Errorf("checksum not stable: %q vs %q", a.Checksum, b.Checksum)
	}

	changed := decodeContentLine(t, `{"Item": {
		"uuid": {"S": "`+testUUID+`"},
		"type": {"S": "news"},
		"routes": {"L": [{"S": "slug"}]},
		"title": {"S": "T"},
		"body": {"S": "B2"}
	}}`)
	if changed.Checksum == a.Checksum {
		t.Error("checksum did not change with body")
	}
}

func TestDerivedURL(t *testing.T) {
	art := &Record{Kind: KindArticle, Routes: []string{"my-story"}}
	if got := art.DerivedURL(); got != "/my-story" {
		t.Errorf("article url = %q, want /my-story", got)
	}
	ep := &Record{Kind: KindEpisode, Routes: []string{"ep-1"}}
	if got := ep.DerivedURL(); got != "/episode/ep-1" {
		t.Errorf("episode url = %q, want /episode/ep-1", got)
	}
}
