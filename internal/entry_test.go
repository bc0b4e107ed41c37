package internal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/othala/internal/testutil"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	base := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Snapshot.Path = filepath.Join(base, "snapshots")
	cfg.Ledger.Path = filepath.Join(base, "ledger.db")
	cfg.Export.Dir = filepath.Join(base, "export")
	cfg.Export.ImportSet = "test-set"
	if err := os.MkdirAll(cfg.Snapshot.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func discard() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func batchFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "records-*.json"))
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestRun_EndToEndIdempotent(t *testing.T) {
	cfg := testConfig(t)
	published := time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Second)

	lines := []string{
		testutil.LineSpec{UUID: testutil.UUID(1), Kind: "article", Routes: []string{"one"}, Title: "One", Body: "<p>1</p>", Published: &published}.JSON(t),
		testutil.LineSpec{UUID: testutil.UUID(2), Kind: "redirect", Routes: []string{"old"}, Body: "/new"}.JSON(t),
	}
	snapshot := filepath.Join(cfg.Snapshot.Path, "export-001.ndjson")
	writeLines(t, snapshot, lines)

	if err := Run(context.Background(), WithConfig(cfg), discard()); err != nil {
		t.Fatalf("run 1: %v", err)
	}

	if got := batchFiles(t, cfg.Export.Dir); len(got) != 1 {
		t.Fatalf("batches after run 1 = %v, want 1", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.Dir, "redirects.json")); err != nil {
		t.Errorf("redirects.json missing: %v", err)
	}

	// Second run over the same snapshot with the committed ledger: no new
	// canonical records, so no batches.
	cfg.Export.Dir = filepath.Join(filepath.Dir(cfg.Export.Dir), "export-run2")
	if err := Run(context.Background(), WithConfig(cfg), discard()); err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if got := batchFiles(t, cfg.Export.Dir); len(got) != 0 {
		t.Errorf("batches after run 2 = %v, want none", got)
	}
}

func TestRun_SameRouteAcrossFilesExportsOnce(t *testing.T) {
	cfg := testConfig(t)
	older := time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Second)
	newer := time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Second)

	// Edits of one route split across two snapshot files of the same run.
	writeLines(t, filepath.Join(cfg.Snapshot.Path, "export-001.ndjson"), []string{
		testutil.LineSpec{UUID: testutil.UUID(1), Kind: "article", Routes: []string{"same-slug"}, Title: "older", Body: "<p>1</p>", Published: &older}.JSON(t),
	})
	writeLines(t, filepath.Join(cfg.Snapshot.Path, "export-002.ndjson"), []string{
		testutil.LineSpec{UUID: testutil.UUID(2), Kind: "article", Routes: []string{"same-slug"}, Title: "newer", Body: "<p>2</p>", Published: &newer}.JSON(t),
	})

	if err := Run(context.Background(), WithConfig(cfg), discard()); err != nil {
		t.Fatalf("run: %v", err)
	}

	batches := batchFiles(t, cfg.Export.Dir)
	if len(batches) != 1 {
		t.Fatalf("batches = %v, want 1", batches)
	}
	data, err := os.ReadFile(batches[0])
	if err != nil {
		t.Fatal(err)
	}
	var payloads []map[string]any
	if err := json.Unmarshal(data, &payloads); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("exported records = %d, want 1", len(payloads))
	}
	if got := payloads[0]["title"]; got != "newer" {
		t.Errorf("exported title = %v, want the later edit", got)
	}
}

func TestRun_MissingConfigFails(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_NoSnapshotsFails(t *testing.T) {
	cfg := testConfig(t)
	if err := Run(context.Background(), WithConfig(cfg), discard()); err == nil {
		t.Fatal("expected error for empty snapshot directory")
	}
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	var data []byte
	for _, l := range lines {
		data = append(data, l...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
