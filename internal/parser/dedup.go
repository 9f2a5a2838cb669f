package parser

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/revja/claude-ledger/internal/domain"
)

// Seen is a set of record fingerprints used to suppress repeated
// billing events. A caller constructs one per scope: per file to catch
// replays within a single log, or once per run to catch the same event
// appearing in two different files. It is safe for concurrent use.
//
// Fingerprints are stored as 64-bit hashes rather than the full
// messageID:requestID strings to keep the set compact on large
// histories.
type Seen struct {
	mu   sync.Mutex
	keys map[uint64]struct{}
}

// NewSeen returns an empty fingerprint set.
func NewSeen() *Seen {
	return &Seen{keys: make(map[uint64]struct{})}
}

// Keep reports whether the record should be counted. The first record
// with a given fingerprint is kept; repeats are discarded. Records
// missing either identifier have no fingerprint and are always kept,
// so older log formats without these fields are never undercounted.
func (s *Seen) Keep(r domain.UsageRecord) bool {
	fp, ok := r.Fingerprint()
	if !ok {
		return true
	}

	h := xxhash.Sum64String(fp)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.keys[h]; dup {
		return false
	}
	s.keys[h] = struct{}{}
	return true
}

// Len returns the number of distinct fingerprints recorded.
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
