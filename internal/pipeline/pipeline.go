// Package pipeline orchestrates the fetch-ingest-analyze-notify pass over
// the bulletin. Stages run strictly in sequence; each is a restartable
// batch over persisted state, so a crash resumes cleanly on the next run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fwdgo/fwd-nagaoka/internal/bulletin"
	"github.com/fwdgo/fwd-nagaoka/internal/models"
	"github.com/fwdgo/fwd-nagaoka/internal/observability"
)

// PageFetcher downloads the bulletin page as normalized Unicode text.
type PageFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Ingestor deduplicates statements into the store.
type Ingestor interface {
	Ingest(ctx context.Context, statements []string, zone models.Zone, retrievedAt time.Time, backfill bool) (int, error)
}

// Analyzer parses unanalyzed statements into detail records.
type Analyzer interface {
	AnalyzeAll(ctx context.Context) (analyzed, failed int, err error)
}

// Dispatcher sends notifications for pending statements.
type Dispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

type Pipeline struct {
	fetcher    PageFetcher
	ingestor   Ingestor
	analyzer   Analyzer
	dispatcher Dispatcher
	clock      clockwork.Clock
	metrics    *observability.Metrics
}

func New(f PageFetcher, i Ingestor, a Analyzer, d Dispatcher, clock clockwork.Clock, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:    f,
		ingestor:   i,
		analyzer:   a,
		dispatcher: d,
		clock:      clock,
		metrics:    metrics,
	}
}

// Run executes one full pass: fetch, segment, ingest both zones, analyze,
// dispatch. A structure or network failure aborts the pass; records
// committed before the failure stay committed.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	err := p.run(ctx)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	return err
}

func (p *Pipeline) run(ctx context.Context) error {
	slog.Info("pipeline run started")

	pageText, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("error fetching bulletin: %w", err)
	}

	current, past, err := bulletin.Segment(bulletin.Normalize(pageText))
	if err != nil {
		return err
	}

	retrievedAt := p.clock.Now()
	if err := p.ingestZones(ctx, current, past, retrievedAt, false); err != nil {
		return err
	}

	if err := p.analyze(ctx); err != nil {
		return err
	}

	sent, err := p.dispatcher.DispatchPending(ctx)
	p.metrics.NotificationsSent.Add(float64(sent))
	if err != nil {
		return fmt.Errorf("error dispatching notifications: %w", err)
	}

	slog.Info("pipeline run complete", "notified", sent)
	return nil
}

// Snapshot files are named after the moment the page was saved.
var snapshotNamePattern = regexp.MustCompile(`^(\d{8}_\d{4})\.txt$`)

// Backfill ingests saved bulletin snapshots from dir. Each file name
// carries the retrieval timestamp (YYYYMMDD_HHMM.txt); files that do not
// match are skipped. Backfilled statements are ingested as SKIPPED and
// analyzed, but never notified.
func (p *Pipeline) Backfill(ctx context.Context, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("error listing snapshot files: %w", err)
	}

	for idx, file := range files {
		name := filepath.Base(file)
		m := snapshotNamePattern.FindStringSubmatch(name)
		if m == nil {
			slog.Info("skipping snapshot with unexpected name", "file", name)
			continue
		}

		retrievedAt, err := time.ParseInLocation("20060102_1504", m[1], time.Local)
		if err != nil {
			slog.Info("skipping snapshot with invalid timestamp", "file", name)
			continue
		}

		slog.Info("ingesting snapshot", "file", name, "progress", fmt.Sprintf("%d/%d", idx+1, len(files)))

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("error reading snapshot %s: %w", name, err)
		}

		current, past, err := bulletin.Segment(bulletin.Normalize(string(data)))
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}

		if err := p.ingestZones(ctx, current, past, retrievedAt, true); err != nil {
			return err
		}
	}

	return p.analyze(ctx)
}

func (p *Pipeline) ingestZones(ctx context.Context, current, past string, retrievedAt time.Time, backfill bool) error {
	zones := []struct {
		zone models.Zone
		text string
	}{
		{models.ZoneCurrent, current},
		{models.ZonePast, past},
	}

	for _, z := range zones {
		statements := bulletin.ExtractStatements(z.text)
		inserted, err := p.ingestor.Ingest(ctx, statements, z.zone, retrievedAt, backfill)
		p.metrics.StatementsIngested.Add(float64(inserted))
		p.metrics.DuplicatesSkipped.Add(float64(len(statements) - inserted))
		if err != nil {
			return fmt.Errorf("error ingesting %s zone: %w", z.zone, err)
		}
		slog.Info("zone ingested", "zone", z.zone, "found", len(statements), "inserted", inserted)
	}
	return nil
}

func (p *Pipeline) analyze(ctx context.Context) error {
	analyzed, failed, err := p.analyzer.AnalyzeAll(ctx)
	p.metrics.StatementsAnalyzed.Add(float64(analyzed))
	p.metrics.ParseErrors.Add(float64(failed))
	if err != nil {
		return fmt.Errorf("error analyzing statements: %w", err)
	}
	slog.Info("analysis complete", "analyzed", analyzed, "failed", failed)
	return nil
}
