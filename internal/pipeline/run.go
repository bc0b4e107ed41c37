package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/othala/internal/canon"
	"github.com/starford/othala/internal/filter"
	"github.com/starford/othala/internal/ledger"
	"github.com/starford/othala/internal/reconcile"
	"github.com/starford/othala/internal/record"
)

// Snapshot lines can carry whole article bodies; 16 MiB covers the largest
// observed export line with room to spare.
const maxLineSize = 16 * 1024 * 1024

// FileResult is the outcome of scanning one snapshot file. Grouper holds the
// file's publishable records keyed by route; canonical selection happens once
// per run, after every file's grouper has been merged, so that a route split
// across files still yields a single latest record.
type FileResult struct {
	File        string
	Grouper     *canon.Grouper
	Redirects   []Redirect
	Topics      []Topic
	Skips       []Skip
	Decoded     int
	MediaAssets int
	Discarded   int
	Unchanged   int
	Changed     int
}

// RunResult is the run-level outcome of canonical selection and body
// reconciliation over every file's records. Entries are the ledger rows to
// commit once the whole run has succeeded.
type RunResult struct {
	Canonical  []*record.Record
	Entries    []ledger.Entry
	Skips      []Skip
	Superseded int
}

// Pass bundles the read-only collaborators shared by every file of a run.
type Pass struct {
	Logger   *slog.Logger
	Detector *filter.WireDetector
	Compare  *ledger.Comparator
	Now      time.Time
}

// ProcessFile runs the scan phase of the pipeline over one snapshot file:
// decode → tombstone/wire filter → ledger comparison → route grouping. The
// returned result carries the file's grouper; canonical selection and body
// reconciliation run later, over every file of the run, in Finalize.
func (p *Pass) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open %s: %w", path, err)
	}
	defer f.Close()

	res := &FileResult{File: path, Grouper: canon.NewGrouper()}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		d, err := record.DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s:%d: %w", path, lineNo, err)
		}
		res.Decoded++

		if d.Media != nil {
			res.MediaAssets++
			continue
		}

		if err := p.classify(res, d.Record); err != nil {
			return nil, fmt.Errorf("pipeline: %s:%d: %w", path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: scan %s: %w", path, err)
	}

	return res, nil
}

// classify routes one decoded content record: tombstones and wire content
// out, redirect/topic emissions aside, publishable records into the grouper.
func (p *Pass) classify(res *FileResult, r *record.Record) error {
	dead, err := filter.Tombstoned(r, p.Now)
	if err != nil {
		return err
	}
	if dead {
		p.skip(res, r, filter.ReasonTombstone)
		return nil
	}

	switch r.Kind {
	case record.KindRedirect:
		if len(r.Routes) == 0 {
			p.skip(res, r, ReasonEmptyRoutes)
			return nil
		}
		res.Redirects = append(res.Redirects, Redirect{From: r.PrimaryRoute(), To: r.Body})
		return nil
	case record.KindTopic:
		if len(r.Routes) == 0 {
			p.skip(res, r, ReasonEmptyRoutes)
			return nil
		}
		res.Topics = append(res.Topics, Topic{Slug: r.PrimaryRoute(), Title: r.Title})
		return nil
	}
	if !r.Kind.Publishable() {
		res.Discarded++
		return nil
	}

	switch {
	case len(r.Routes) == 0:
		p.skip(res, r, ReasonEmptyRoutes)
		return nil
	case r.Title == "":
		p.skip(res, r, ReasonEmptyTitle)
		return nil
	case r.Date().IsZero():
		p.skip(res, r, ReasonEmptyDate)
		return nil
	}

	if v := p.Detector.Inspect(r); v.Wire {
		p.skip(res, r, v.Reason)
		return nil
	}

	switch decision := p.Compare.Compare(r); decision {
	case ledger.DecisionNew:
		// fall through to grouping
	case ledger.DecisionChanged:
		// Write-once import boundary: surfaced for manual review only.
		res.Changed++
		p.Logger.Warn("record changed since last import",
			slog.String("uuid", r.UUID),
			slog.String("route", r.PrimaryRoute()))
		p.skip(res, r, decision.Reason())
		return nil
	case ledger.DecisionUnchanged:
		res.Unchanged++
		p.skip(res, r, decision.Reason())
		return nil
	default:
		p.skip(res, r, decision.Reason())
		return nil
	}

	return res.Grouper.Add(r)
}

// Finalize merges every file's route groups, selects canonical records,
// reconciles their bodies, and derives the run's ledger rows. Merging
// re-checks the duplicate-uuid and date-tie invariants across files, so a
// record pair that never met during the parallel scan still aborts the run.
// Results must be in deterministic file order.
func (p *Pass) Finalize(results []*FileResult) (*RunResult, error) {
	merged := canon.NewGrouper()
	for _, fr := range results {
		if err := merged.Merge(fr.Grouper); err != nil {
			return nil, fmt.Errorf("pipeline: merge %s: %w", fr.File, err)
		}
	}

	run := &RunResult{}
	canonical, superseded := merged.Canonical()

	for _, s := range superseded {
		run.Superseded++
		p.Logger.Info("superseded duplicate",
			slog.String("uuid", s.Record.UUID),
			slog.String("route", s.Record.PrimaryRoute()),
			slog.String("canonical", s.CanonicalUUID))
		run.Entries = append(run.Entries, ledger.Entry{
			UUID:               s.Record.UUID,
			Checksum:           s.Record.Checksum,
			Date:               s.Record.Date(),
			URL:                s.Record.DerivedURL(),
			LatestUUIDForRoute: s.CanonicalUUID,
			IsLatest:           false,
		})
	}

	for _, r := range canonical {
		if ok, reason := reconcile.FillBody(r); !ok {
			p.skipRun(run, r, reason)
			continue
		}
		if err := reconcile.InlineEmbeds(r); err != nil {
			p.Logger.Warn("delta embed inlining failed",
				slog.String("uuid", r.UUID),
				slog.String("error", err.Error()))
			p.skipRun(run, r, reconcile.ReasonMalformedDelta)
			continue
		}
		run.Canonical = append(run.Canonical, r)
		run.Entries = append(run.Entries, ledger.Entry{
			UUID:               r.UUID,
			Checksum:           r.Checksum,
			Date:               r.Date(),
			URL:                r.DerivedURL(),
			LatestUUIDForRoute: r.UUID,
			IsLatest:           true,
		})
	}
	return run, nil
}

func (p *Pass) skip(res *FileResult, r *record.Record, reason string) {
	res.Skips = append(res.Skips, Skip{UUID: r.UUID, Route: r.PrimaryRoute(), Reason: reason})
	p.logSkip(r, reason)
}

func (p *Pass) skipRun(run *RunResult, r *record.Record, reason string) {
	run.Skips = append(run.Skips, Skip{UUID: r.UUID, Route: r.PrimaryRoute(), Reason: reason})
	p.logSkip(r, reason)
}

func (p *Pass) logSkip(r *record.Record, reason string) {
	p.Logger.Info("record skipped",
		slog.String("uuid", r.UUID),
		slog.String("route", r.PrimaryRoute()),
		slog.String("reason", reason))
}
