package parser

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/revja/claude-ledger/internal/domain"
)

// Stats counts data-quality events during a parse. They are
// diagnostics only; nothing here is ever a run failure.
type Stats struct {
	Parsed    int `json:"parsed"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
	Abandoned int `json:"abandoned_files"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Parsed += o.Parsed
	s.Skipped += o.Skipped
	s.Malformed += o.Malformed
	s.Abandoned += o.Abandoned
}

// ctxCheckInterval is how many lines to scan between context checks.
const ctxCheckInterval = 256

// ParseReader streams JSONL from r line by line. Lines within one
// reader are strictly sequential so first-encountered-wins holds. When
// seen is non-nil, records it rejects are dropped; pass a fresh set
// for per-file scope or a shared one for run-global scope. A context
// error abandons the read and discards partial results.
func ParseReader(ctx context.Context, r io.Reader, seen *Seen) ([]domain.UsageRecord, Stats) {
	var records []domain.UsageRecord
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // 10MB max line

	lines := 0
	for scanner.Scan() {
		lines++
		if lines%ctxCheckInterval == 0 && ctx.Err() != nil {
			stats.Abandoned++
			return nil, stats
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, result := ExtractLine(line)
		switch result {
		case LineMalformed:
			stats.Malformed++
			continue
		case LineSkipped:
			stats.Skipped++
			continue
		}

		if seen != nil && !seen.Keep(rec) {
			continue
		}
		records = append(records, rec)
		stats.Parsed++
	}

	if err := scanner.Err(); err != nil {
		stats.Malformed++
	}

	return records, stats
}

// ParseFile parses one log file with a per-file deadline. A file that
// cannot be opened or times out is abandoned with its partial results
// discarded; the caller moves on to the remaining files.
func ParseFile(ctx context.Context, path string, timeout time.Duration, seen *Seen) ([]domain.UsageRecord, Stats) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{Abandoned: 1}
	}
	defer f.Close()

	return ParseReader(ctx, f, seen)
}
