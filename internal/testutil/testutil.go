// Package testutil provides shared helpers for building snapshot fixtures
// and temporary ledgers.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/othala/internal/ledger"
)

// TestLedger creates a temporary SQLite ledger that is cleaned up with the
// test.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	f, err := os.CreateTemp("", "othala-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := ledger.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// UUID returns a syntactically valid, deterministic uuid for fixture n.
func UUID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

// LineSpec describes one content-record snapshot line.
type LineSpec struct {
	UUID       string
	Kind       string
	Routes     []string
	Title      string
	Body       string
	Summary    string
	Categories []string
	Tags       []string
	AuthorName string
	AuthorUUID string
	Published  *time.Time
	Deleted    *time.Time
	Delta      string
}

// JSON renders s as a tagged-JSON snapshot line.
func (s LineSpec) JSON(t *testing.T) string {
	t.Helper()

	item := map[string]any{
		"uuid": tag("S", s.UUID),
		"type": tag("S", s.Kind),
	}
	if s.Routes != nil {
		routes := make([]any, len(s.Routes))
		for i, r := range s.Routes {
			routes[i] = tag("S", r)
		}
		item["routes"] = tag("L", routes)
	}
	if s.Title != "" {
		item["title"] = tag("S", s.Title)
	}
	if s.Body != "" {
		item["body"] = tag("S", s.Body)
	}
	if s.Summary != "" {
		item["summary"] = tag("S", s.Summary)
	}
	if s.Categories != nil {
		item["categories"] = tag("SS", s.Categories)
	}
	if s.Tags != nil {
		item["tags"] = tag("SS", s.Tags)
	}
	if s.Published != nil {
		item["publishedAt"] = tag("S", s.Published.Format(time.RFC3339))
	}
	if s.Deleted != nil {
		item["deletedAt"] = tag("S", s.Deleted.Format(time.RFC3339))
	}
	if s.Delta != "" {
		item["delta"] = tag("S", s.Delta)
	}
	if s.AuthorName != "" {
		author := map[string]any{"displayName": tag("S", s.AuthorName)}
		if s.AuthorUUID != "" {
			author["uuid"] = tag("S", s.AuthorUUID)
		}
		item["author"] = tag("M", author)
	}

	data, err := json.Marshal(map[string]any{"Item": item})
	if err != nil {
		t.Fatalf("marshal line: %v", err)
	}
	return string(data)
}

func tag(name string, payload any) map[string]any {
	return map[string]any{name: payload}
}

// WriteSnapshot writes lines to a temp .ndjson file and returns its path.
func WriteSnapshot(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.ndjson")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
