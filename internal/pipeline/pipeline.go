// Package pipeline wires log discovery, extraction, deduplication,
// pricing, and aggregation into one ingestion run.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/revja/claude-ledger/internal/domain"
	"github.com/revja/claude-ledger/internal/parser"
	"github.com/revja/claude-ledger/internal/pricing"
)

// parseWorkers bounds concurrent file reads.
const parseWorkers = 8

// Options configure one ingestion run.
type Options struct {
	// Roots are the log directories to scan; empty means the
	// conventional defaults.
	Roots []string
	// Timezone buckets daily and monthly rollups; nil means UTC.
	Timezone *time.Location
	// BlockDuration is the billing block window; zero means 5 hours.
	BlockDuration time.Duration
	// Since and Until filter records by date ("2006-01-02"), empty
	// means unconstrained.
	Since, Until string
	// Source supplies the pricing table; nil means the embedded
	// static table only.
	Source pricing.Source
	// Mode selects how recorded costs interact with calculated ones.
	Mode pricing.CostMode
	// FileTimeout bounds reading a single file; zero means no limit.
	FileTimeout time.Duration
	// MaxEntries caps in-memory records, keeping the most recent.
	MaxEntries int
}

// Result holds the four rollups, the summary, and run diagnostics.
// All query methods are read-only.
type Result struct {
	rollup  *domain.Rollup
	blocks  []*domain.BillingBlock
	summary domain.UsageSummary

	Stats parser.Stats
}

// Run executes the full pipeline: locate logs, parse files
// concurrently, deduplicate globally in discovery order, annotate
// costs, and fold the four rollups. Data-quality problems degrade to
// fewer records; the only errors are configuration mistakes.
func Run(ctx context.Context, opts Options) (*Result, error) {
	tz := opts.Timezone
	if tz == nil {
		tz = time.UTC
	}
	mode := opts.Mode
	if mode == "" {
		mode = pricing.CostModeAuto
	}
	source := opts.Source
	if source == nil {
		source = pricing.NewTieredSource(nil)
	}

	records, stats := ingest(ctx, opts)

	table, err := source.Table(ctx)
	if err != nil {
		return nil, err
	}
	calc := pricing.NewCalculator(table, mode)
	calc.ApplyAll(records)

	records, err = domain.FilterByTimeRange(records, opts.Since, opts.Until, tz)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	if opts.MaxEntries > 0 && len(records) > opts.MaxEntries {
		records = records[len(records)-opts.MaxEntries:]
	}

	rollup := domain.NewRollup(tz)
	for _, r := range records {
		rollup.Add(r)
	}

	summary := domain.BuildSummary(records, time.Now())
	summary.CacheSavings = calc.TotalCacheSavings(records)

	return &Result{
		rollup:  rollup,
		blocks:  domain.BuildBlocks(records, opts.BlockDuration),
		summary: summary,
		Stats:   stats,
	}, nil
}

// ingest locates and parses all log files. Files are read
// concurrently; per-file results are then merged through a run-global
// fingerprint set in locator order, so first-encountered-wins stays
// deterministic regardless of read scheduling.
func ingest(ctx context.Context, opts Options) ([]domain.UsageRecord, parser.Stats) {
	paths := parser.LocateLogs(opts.Roots)

	perFile := make([][]domain.UsageRecord, len(paths))
	perStats := make([]parser.Stats, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, parseWorkers)
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			// Per-file scope catches intra-file replays early.
			perFile[i], perStats[i] = parser.ParseFile(ctx, path, opts.FileTimeout, parser.NewSeen())
		}(i, path)
	}
	wg.Wait()

	var stats parser.Stats
	global := parser.NewSeen()
	var records []domain.UsageRecord
	for i := range perFile {
		stats.Add(perStats[i])
		for _, r := range perFile[i] {
			if global.Keep(r) {
				records = append(records, r)
			}
		}
	}
	return records, stats
}

// Daily returns daily usage sorted ascending by date.
func (r *Result) Daily() []domain.DailyUsage {
	return r.rollup.Daily()
}

// Monthly returns monthly usage keyed by "2006-01".
func (r *Result) Monthly() map[string]domain.MonthlyUsage {
	return r.rollup.Monthly()
}

// Sessions returns per-conversation usage sorted descending by start
// time.
func (r *Result) Sessions() []domain.SessionUsage {
	return r.rollup.Sessions()
}

// Blocks returns billing blocks sorted ascending by start time.
func (r *Result) Blocks() []*domain.BillingBlock {
	return r.blocks
}

// ActiveBlock returns the block whose window contains now, or nil.
// Active status is evaluated against the caller's clock, not baked in
// at build time.
func (r *Result) ActiveBlock(now time.Time) *domain.BillingBlock {
	return domain.ActiveBlock(r.blocks, now)
}

// Summary returns the top-line statistics for the run.
func (r *Result) Summary() domain.UsageSummary {
	return r.summary
}
