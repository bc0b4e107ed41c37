package record

import (
	"errors"
	"testing"

	"github.com/starford/othala/internal/apperr"
)

func author(name, id string) map[string]any {
	m := map[string]any{"displayName": name}
	if id != "" {
		m["uuid"] = id
	}
	return m
}

func TestMergeAuthors_SingularSeedsList(t *testing.T) {
	r := &Record{}
	err := mergeAuthors(r, map[string]any{"author": author("Ada", authorUUID)})
	if err != nil {
		t.Fatalf("mergeAuthors: %v", err)
	}
	if len(r.Authors) != 1 || r.Authors[0].DisplayName != "Ada" || r.Authors[0].UUID != authorUUID {
		t.Errorf("authors = %v, want [Ada]", r.Authors)
	}
}

func TestMergeAuthors_NoDuplicateAppend(t *testing.T) {
	r := &Record{}
	err := mergeAuthors(r, map[string]any{
		"authors": []any{author("Ada", ""), author("Grace", "")},
		"author":  author("Ada", ""),
	})
	if err != nil {
		t.Fatalf("mergeAuthors: %v", err)
	}
	if len(r.Authors) != 2 {
		t.Fatalf("authors = %v, want [Ada Grace] unchanged", r.Authors)
	}
}

func TestMergeAuthors_AppendsWhenMissing(t *testing.T) {
	r := &Record{}
	err := mergeAuthors(r, map[string]any{
		"authors": []any{author("Grace", "")},
		"author":  author("Ada", ""),
	})
	if err != nil {
		t.Fatalf("mergeAuthors: %v", err)
	}
	if len(r.Authors) != 2 || r.Authors[0].DisplayName != "Grace" || r.Authors[1].DisplayName != "Ada" {
		t.Errorf("authors = %v, want [Grace Ada]", r.Authors)
	}
}

func TestMergeAuthors_SameNameDifferentUUIDNotEqual(t *testing.T) {
	r := &Record{}
	err := mergeAuthors(r, map[string]any{
		"authors": []any{author("Ada", authorUUID)},
		"author":  author("Ada", ""),
	})
	if err != nil {
		t.Fatalf("mergeAuthors: %v", err)
	}
	if len(r.Authors) != 2 {
		t.Errorf("authors = %v, want both identity variants kept", r.Authors)
	}
}

func TestDecodeAuthor_ShapeViolations(t *testing.T) {
	cases := []any{
		// no displayName
		map[string]any{},
		// empty displayName
		map[string]any{"displayName": ""},
		// not a map
		"just a string",
		// more than one field beyond displayName
		map[string]any{"displayName": "A", "uuid": authorUUID, "extra": 1},
	}
	for i, c := range cases {
		if _, err := decodeAuthor(c); !errors.Is(err, apperr.ErrAuthorShape) {
			t.Errorf("case %d: err = %v, want ErrAuthorShape", i, err)
		}
	}
}

func TestDecodeAuthor_OneExtraFieldAllowed(t *testing.T) {
	a, err := decodeAuthor(map[string]any{"displayName": "Ada", "uuid": authorUUID})
	if err != nil {
		t.Fatalf("decodeAuthor: %v", err)
	}
	if a.UUID != authorUUID {
		t.Errorf("uuid = %q, want %q", a.UUID, authorUUID)
	}
}
