package domain

import (
	"time"

	"github.com/samber/lo"
)

// DefaultBlockDuration mirrors the provider's 5-hour billing window.
const DefaultBlockDuration = 5 * time.Hour

// BillingBlock is a fixed-duration accounting window. Blocks are not
// calendar-aligned: the first record in time order opens a block at its
// own timestamp.
type BillingBlock struct {
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"` // StartTime + duration
	Tokens       TokenUsage `json:"tokens"`
	CostUSD      float64    `json:"cost_usd"`
	MessageCount int        `json:"message_count"`
	Models       []string   `json:"models"`

	// Sessions nests per-conversation totals for conversations active
	// within this window.
	Sessions map[string]*SessionUsage `json:"sessions"`
}

// IsActive reports whether now falls within the block window. Active
// status is derived at query time, never stored.
func (b *BillingBlock) IsActive(now time.Time) bool {
	return !now.Before(b.StartTime) && !now.After(b.EndTime)
}

// TotalTokens returns the sum of all token classes in this block.
func (b *BillingBlock) TotalTokens() int {
	return b.Tokens.Total()
}

func (b *BillingBlock) add(r UsageRecord) {
	b.Tokens.Add(r.Tokens)
	b.CostUSD += r.CostUSD
	b.MessageCount++
	if !lo.Contains(b.Models, r.Model) {
		b.Models = append(b.Models, r.Model)
	}

	key := r.SessionKey()
	s, ok := b.Sessions[key]
	if !ok {
		s = &SessionUsage{ConversationID: key}
		b.Sessions[key] = s
	}
	s.Accumulate(r)
}

// BuildBlocks groups records into fixed-duration billing blocks.
// Records must be sorted ascending by timestamp; a record whose
// timestamp exceeds the open block's end closes it and opens a new
// block starting at that record's timestamp. Returned blocks are in
// ascending start order.
func BuildBlocks(records []UsageRecord, duration time.Duration) []*BillingBlock {
	if duration <= 0 {
		duration = DefaultBlockDuration
	}

	var blocks []*BillingBlock
	var current *BillingBlock

	for _, r := range records {
		if current == nil || r.Timestamp.After(current.EndTime) {
			current = &BillingBlock{
				StartTime: r.Timestamp,
				EndTime:   r.Timestamp.Add(duration),
				Sessions:  make(map[string]*SessionUsage),
			}
			blocks = append(blocks, current)
		}
		current.add(r)
	}

	return blocks
}

// ActiveBlock returns the block whose window contains now, or nil.
func ActiveBlock(blocks []*BillingBlock, now time.Time) *BillingBlock {
	for _, b := range blocks {
		if b.IsActive(now) {
			return b
		}
	}
	return nil
}
