// Package pipeline runs the migration pass: decode, filter, and compare each
// file against the ledger, then canonicalize and reconcile the merged run,
// accounting for every record with an explicit reason.
package pipeline

import (
	"log/slog"
	"sort"
)

// Skip reasons for data-quality checks owned by the pipeline itself; the
// filter, ledger and reconcile packages define their own.
const (
	ReasonEmptyRoutes = "empty-routes"
	ReasonEmptyTitle  = "empty-title"
	ReasonEmptyDate   = "empty-date"
	ReasonSuperseded  = "superseded"
)

// Skip is one skipped record, attributable to exactly one reason code. No
// record is ever dropped without a Skip or a fatal error.
type Skip struct {
	UUID   string `json:"uuid"`
	Route  string `json:"route"`
	Reason string `json:"reason"`
}

// Redirect is the mapping a Redirect-kind record emits instead of a content
// item; the registration itself belongs to the downstream collaborator.
type Redirect struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Topic is the taxonomy term a Topic-kind record emits.
type Topic struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Report is the accumulated run state: explicit, threaded through the run
// rather than package-level, so independent files can be processed in
// parallel and merged deterministically.
type Report struct {
	Files       int
	Decoded     int
	MediaAssets int
	Discarded   int // alert/event/promotion kinds
	Unchanged   int
	Changed     int
	Superseded  int
	Canonical   int
	Skips       []Skip
	Redirects   []Redirect
	Topics      []Topic
}

// Merge folds one file's scan result into the report.
func (rep *Report) Merge(fr *FileResult) {
	rep.Files++
	rep.Decoded += fr.Decoded
	rep.MediaAssets += fr.MediaAssets
	rep.Discarded += fr.Discarded
	rep.Unchanged += fr.Unchanged
	rep.Changed += fr.Changed
	rep.Skips = append(rep.Skips, fr.Skips...)
	rep.Redirects = append(rep.Redirects, fr.Redirects...)
	rep.Topics = append(rep.Topics, fr.Topics...)
}

// MergeRun folds the run-level canonicalization result into the report.
func (rep *Report) MergeRun(run *RunResult) {
	rep.Superseded += run.Superseded
	rep.Canonical += len(run.Canonical)
	rep.Skips = append(rep.Skips, run.Skips...)
}

// ReasonCounts returns skip counts keyed by reason code.
func (rep *Report) ReasonCounts() map[string]int {
	out := make(map[string]int)
	for _, s := range rep.Skips {
		out[s.Reason]++
	}
	return out
}

// LogSummary writes the end-of-run summary.
func (rep *Report) LogSummary(logger *slog.Logger) {
	logger.Info("run summary",
		slog.Int("files", rep.Files),
		slog.Int("decoded", rep.Decoded),
		slog.Int("media_assets", rep.MediaAssets),
		slog.Int("discarded", rep.Discarded),
		slog.Int("canonical", rep.Canonical),
		slog.Int("superseded", rep.Superseded),
		slog.Int("ledger_unchanged", rep.Unchanged),
		slog.Int("ledger_changed", rep.Changed),
		slog.Int("redirects", len(rep.Redirects)),
		slog.Int("topics", len(rep.Topics)),
		slog.Int("skipped", len(rep.Skips)))

	counts := rep.ReasonCounts()
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		logger.Info("skip reason", slog.String("reason", r), slog.Int("count", counts[r]))
	}
}
