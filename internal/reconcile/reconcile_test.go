package reconcile

import (
	"strings"
	"testing"

	"github.com/starford/othala/internal/record"
)

const embedUUID = "6ba7b812-9dad-11d1-80b4-00c04fd430c8"

func TestFillBody_BodyStands(t *testing.T) {
	r := &record.Record{Kind: record.KindArticle, Body: "<p>x</p>", Summary: "s"}
	ok, _ := FillBody(r)
	if !ok || r.Body != "<p>x</p>" || r.BodyFilledFromSummary {
		t.Errorf("record = %+v", r)
	}
}

func TestFillBody_SummaryFallbackFlagged(t *testing.T) {
	r := &record.Record{Kind: record.KindArticle, Summary: "the summary"}
	ok, _ := FillBody(r)
	if !ok {
		t.Fatal("expected fallback to succeed")
	}
	if r.Body != "the summary" || !r.BodyFilledFromSummary {
		t.Errorf("record = %+v, want body from summary with flag", r)
	}
}

func TestFillBody_StaffMayBeEmpty(t *testing.T) {
	r := &record.Record{Kind: record.KindStaff}
	if ok, _ := FillBody(r); !ok {
		t.Error("empty staff body should be acceptable")
	}
}

func TestFillBody_IncompleteRecordSkipped(t *testing.T) {
	r := &record.Record{Kind: record.KindArticle}
	ok, reason := FillBody(r)
	if ok || reason != ReasonEmptyBody {
		t.Errorf("ok=%v reason=%q, want skip with %s", ok, reason, ReasonEmptyBody)
	}
}

func TestInlineEmbeds_Substitution(t *testing.T) {
	r := &record.Record{
		UUID:  "r1",
		Body:  `<p>before</p>{{embed:` + embedUUID + `}}<p>after</p>`,
		Delta: `{"ops":[{"insert":"text"},{"insert":{"rawHTML":{"uuid":"` + embedUUID + `","html":"<iframe src=\"x\"></iframe>"}}}]}`,
	}
	if err := InlineEmbeds(r); err != nil {
		t.Fatalf("InlineEmbeds: %v", err)
	}
	if strings.Contains(r.Body, "{{embed:") {
		t.Errorf("placeholder not substituted: %q", r.Body)
	}
	for _, want := range []string{
		"<!-- embed " + embedUUID + " -->",
		`<iframe src="x"></iframe>`,
		"<!-- /embed " + embedUUID + " -->",
	} {
		if !strings.Contains(r.Body, want) {
			t.Errorf("body missing %q:\n%s", want, r.Body)
		}
	}
}

func TestInlineEmbeds_FlatFragmentShape(t *testing.T) {
	r := &record.Record{
		Body:  `{{embed:` + embedUUID + `}}`,
		Delta: `{"ops":[{"insert":{"uuid":"` + embedUUID + `","html":"<b>x</b>"}}]}`,
	}
	if err := InlineEmbeds(r); err != nil {
		t.Fatalf("InlineEmbeds: %v", err)
	}
	if !strings.Contains(r.Body, "<b>x</b>") {
		t.Errorf("body = %q", r.Body)
	}
}

func TestInlineEmbeds_UnmatchedPlaceholderLeftAsIs(t *testing.T) {
	body := `{{embed:` + embedUUID + `}}`
	r := &record.Record{
		Body:  body,
		Delta: `{"ops":[{"insert":"no fragments here"}]}`,
	}
	if err := InlineEmbeds(r); err != nil {
		t.Fatalf("InlineEmbeds: %v", err)
	}
	if r.Body != body {
		t.Errorf("unmatched placeholder altered: %q", r.Body)
	}
}

func TestInlineEmbeds_NoDeltaNoOp(t *testing.T) {
	body := `{{embed:` + embedUUID + `}}`
	r := &record.Record{Body: body}
	if err := InlineEmbeds(r); err != nil {
		t.Fatalf("InlineEmbeds: %v", err)
	}
	if r.Body != body {
		t.Errorf("body changed without delta: %q", r.Body)
	}
}

func TestInlineEmbeds_MalformedDelta(t *testing.T) {
	r := &record.Record{
		Body:  `{{embed:` + embedUUID + `}}`,
		Delta: `{not json`,
	}
	if err := InlineEmbeds(r); err == nil {
		t.Fatal("expected error for malformed delta")
	}
}
