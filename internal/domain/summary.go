package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// UsageSummary is a derived snapshot over the full record set.
type UsageSummary struct {
	TotalCost         float64    `json:"total_cost"`
	Tokens            TokenUsage `json:"tokens"`
	TotalTokens       int        `json:"total_tokens"`
	MessageCount      int        `json:"message_count"`
	ConversationCount int        `json:"conversation_count"`
	Start             time.Time  `json:"start"`
	End               time.Time  `json:"end"`
	TopModel          string     `json:"top_model"`
	AvgDailyCost      float64    `json:"avg_daily_cost"`
	CacheSavings      float64    `json:"cache_savings"`
}

// BuildSummary computes the top-line statistics in a single pass.
// Empty input yields a zero-valued summary with Start == End == now
// and TopModel "none".
func BuildSummary(records []UsageRecord, now time.Time) UsageSummary {
	if len(records) == 0 {
		return UsageSummary{Start: now, End: now, TopModel: "none"}
	}

	s := UsageSummary{Start: records[0].Timestamp, End: records[0].Timestamp}
	modelFreq := make(map[string]int)
	convs := make(map[string]struct{})

	for _, r := range records {
		s.TotalCost += r.CostUSD
		s.Tokens.Add(r.Tokens)
		s.MessageCount++
		modelFreq[r.Model]++
		convs[r.SessionKey()] = struct{}{}
		if r.Timestamp.Before(s.Start) {
			s.Start = r.Timestamp
		}
		if r.Timestamp.After(s.End) {
			s.End = r.Timestamp
		}
	}

	s.TotalTokens = s.Tokens.Total()
	s.ConversationCount = len(convs)
	s.TopModel = topModel(modelFreq)
	s.AvgDailyCost = s.TotalCost / float64(daysSpanned(s.Start, s.End))
	return s
}

// topModel picks the most frequent model; ties break lexicographically
// so the result is deterministic.
func topModel(freq map[string]int) string {
	models := lo.Keys(freq)
	sort.Strings(models)
	best := "none"
	bestCount := 0
	for _, m := range models {
		if freq[m] > bestCount {
			best = m
			bestCount = freq[m]
		}
	}
	return best
}

// daysSpanned returns ceil((end-start)/24h), never less than 1.
func daysSpanned(start, end time.Time) int {
	span := end.Sub(start)
	days := int(span / (24 * time.Hour))
	if span%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
