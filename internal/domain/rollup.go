package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// DateKey formats a timestamp as a calendar date in the given timezone.
// All day bucketing goes through here so "today" and the daily rollup
// can never disagree.
func DateKey(t time.Time, tz *time.Location) string {
	return t.In(tz).Format("2006-01-02")
}

// MonthKey formats a timestamp as a calendar month in the given timezone.
func MonthKey(t time.Time, tz *time.Location) string {
	return t.In(tz).Format("2006-01")
}

// Today returns the current date key in the given timezone.
func Today(tz *time.Location) string {
	return DateKey(time.Now(), tz)
}

// ModelBreakdown accumulates per-model totals inside a daily or
// monthly bucket.
type ModelBreakdown struct {
	Model        string     `json:"model"`
	Tokens       TokenUsage `json:"tokens"`
	CostUSD      float64    `json:"cost_usd"`
	MessageCount int        `json:"message_count"`
}

// DailyUsage holds running totals for one timezone-local calendar day.
type DailyUsage struct {
	Date              string                     `json:"date"` // "2006-01-02"
	Tokens            TokenUsage                 `json:"tokens"`
	CostUSD           float64                    `json:"cost_usd"`
	MessageCount      int                        `json:"message_count"`
	ConversationCount int                        `json:"conversation_count"`
	Models            map[string]*ModelBreakdown `json:"models"`
}

// TotalTokens returns the sum of all token classes for this day.
func (d DailyUsage) TotalTokens() int {
	return d.Tokens.Total()
}

// MonthlyUsage holds running totals for one timezone-local calendar month.
type MonthlyUsage struct {
	Month             string                     `json:"month"` // "2006-01"
	Tokens            TokenUsage                 `json:"tokens"`
	CostUSD           float64                    `json:"cost_usd"`
	MessageCount      int                        `json:"message_count"`
	ConversationCount int                        `json:"conversation_count"`
	Models            map[string]*ModelBreakdown `json:"models"`
}

// TotalTokens returns the sum of all token classes for this month.
func (m MonthlyUsage) TotalTokens() int {
	return m.Tokens.Total()
}

// SessionUsage holds running totals for one conversation.
type SessionUsage struct {
	ConversationID string     `json:"conversation_id"`
	Title          string     `json:"title,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Tokens         TokenUsage `json:"tokens"`
	CostUSD        float64    `json:"cost_usd"`
	MessageCount   int        `json:"message_count"`
	Models         []string   `json:"models"`
}

// Accumulate folds one record into the session. StartTime and EndTime
// widen monotonically regardless of arrival order.
func (s *SessionUsage) Accumulate(r UsageRecord) {
	if s.StartTime.IsZero() || r.Timestamp.Before(s.StartTime) {
		s.StartTime = r.Timestamp
	}
	if r.Timestamp.After(s.EndTime) {
		s.EndTime = r.Timestamp
	}
	if s.Title == "" {
		s.Title = r.Title // first seen wins
	}
	s.Tokens.Add(r.Tokens)
	s.CostUSD += r.CostUSD
	s.MessageCount++
	if !lo.Contains(s.Models, r.Model) {
		s.Models = append(s.Models, r.Model)
	}
}

// Rollup folds a record stream into the daily, monthly, and session
// views. All three are independent folds over the same input; billing
// blocks are built separately because they need timestamp order.
type Rollup struct {
	tz      *time.Location
	daily   map[string]*DailyUsage
	monthly map[string]*MonthlyUsage
	session map[string]*SessionUsage

	// distinct conversations per period key
	dailyConvs   map[string]map[string]struct{}
	monthlyConvs map[string]map[string]struct{}
}

// NewRollup creates an empty rollup bucketing dates in tz.
func NewRollup(tz *time.Location) *Rollup {
	return &Rollup{
		tz:           tz,
		daily:        make(map[string]*DailyUsage),
		monthly:      make(map[string]*MonthlyUsage),
		session:      make(map[string]*SessionUsage),
		dailyConvs:   make(map[string]map[string]struct{}),
		monthlyConvs: make(map[string]map[string]struct{}),
	}
}

// Add folds one record into all three views.
func (ro *Rollup) Add(r UsageRecord) {
	ro.addDaily(r)
	ro.addMonthly(r)
	ro.addSession(r)
}

func accumulateModel(models map[string]*ModelBreakdown, r UsageRecord) {
	mb, ok := models[r.Model]
	if !ok {
		mb = &ModelBreakdown{Model: r.Model}
		models[r.Model] = mb
	}
	mb.Tokens.Add(r.Tokens)
	mb.CostUSD += r.CostUSD
	mb.MessageCount++
}

func markConversation(convs map[string]map[string]struct{}, key string, r UsageRecord) int {
	set, ok := convs[key]
	if !ok {
		set = make(map[string]struct{})
		convs[key] = set
	}
	set[r.SessionKey()] = struct{}{}
	return len(set)
}

func (ro *Rollup) addDaily(r UsageRecord) {
	key := DateKey(r.Timestamp, ro.tz)
	d, ok := ro.daily[key]
	if !ok {
		d = &DailyUsage{Date: key, Models: make(map[string]*ModelBreakdown)}
		ro.daily[key] = d
	}
	d.Tokens.Add(r.Tokens)
	d.CostUSD += r.CostUSD
	d.MessageCount++
	accumulateModel(d.Models, r)
	d.ConversationCount = markConversation(ro.dailyConvs, key, r)
}

func (ro *Rollup) addMonthly(r UsageRecord) {
	key := MonthKey(r.Timestamp, ro.tz)
	m, ok := ro.monthly[key]
	if !ok {
		m = &MonthlyUsage{Month: key, Models: make(map[string]*ModelBreakdown)}
		ro.monthly[key] = m
	}
	m.Tokens.Add(r.Tokens)
	m.CostUSD += r.CostUSD
	m.MessageCount++
	accumulateModel(m.Models, r)
	m.ConversationCount = markConversation(ro.monthlyConvs, key, r)
}

func (ro *Rollup) addSession(r UsageRecord) {
	key := r.SessionKey()
	s, ok := ro.session[key]
	if !ok {
		s = &SessionUsage{ConversationID: key}
		ro.session[key] = s
	}
	s.Accumulate(r)
}

// Daily returns the daily buckets sorted ascending by date.
func (ro *Rollup) Daily() []DailyUsage {
	keys := lo.Keys(ro.daily)
	sort.Strings(keys)
	result := make([]DailyUsage, 0, len(keys))
	for _, k := range keys {
		result = append(result, *ro.daily[k])
	}
	return result
}

// Monthly returns the monthly buckets keyed by "2006-01".
func (ro *Rollup) Monthly() map[string]MonthlyUsage {
	result := make(map[string]MonthlyUsage, len(ro.monthly))
	for k, v := range ro.monthly {
		result[k] = *v
	}
	return result
}

// Sessions returns the per-conversation buckets sorted descending by
// start time.
func (ro *Rollup) Sessions() []SessionUsage {
	result := make([]SessionUsage, 0, len(ro.session))
	for _, s := range ro.session {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return result[i].ConversationID < result[j].ConversationID
	})
	return result
}
