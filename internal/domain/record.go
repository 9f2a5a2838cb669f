package domain

import "time"

// UnknownConversation is the session key for records that carry no
// conversation identifier.
const UnknownConversation = "unknown"

// TokenUsage holds the four token classes reported per API call.
type TokenUsage struct {
	Input         int `json:"input_tokens"`
	Output        int `json:"output_tokens"`
	CacheCreation int `json:"cache_creation_tokens"`
	CacheRead     int `json:"cache_read_tokens"`
}

// Total returns the sum of all token classes.
func (u TokenUsage) Total() int {
	return u.Input + u.Output + u.CacheCreation + u.CacheRead
}

// Add accumulates o into u.
func (u *TokenUsage) Add(o TokenUsage) {
	u.Input += o.Input
	u.Output += o.Output
	u.CacheCreation += o.CacheCreation
	u.CacheRead += o.CacheRead
}

// UsageRecord is one normalized usage event extracted from a log line.
// It is never mutated after extraction except for cost annotation,
// which happens once before aggregation.
type UsageRecord struct {
	Timestamp      time.Time  `json:"timestamp"`
	Model          string     `json:"model"`
	Tokens         TokenUsage `json:"tokens"`
	CostUSD        float64    `json:"cost_usd"`
	HasCost        bool       `json:"-"` // source line carried an explicit costUSD
	ConversationID string     `json:"conversation_id,omitempty"`
	MessageID      string     `json:"-"`
	RequestID      string     `json:"-"`
	Title          string     `json:"title,omitempty"`
}

// TotalTokens returns the sum of all token classes for this record.
func (r UsageRecord) TotalTokens() int {
	return r.Tokens.Total()
}

// Fingerprint returns the at-most-once key for this record. Records
// missing either identifier have no fingerprint and are always counted.
func (r UsageRecord) Fingerprint() (string, bool) {
	if r.MessageID == "" || r.RequestID == "" {
		return "", false
	}
	return r.MessageID + ":" + r.RequestID, true
}

// SessionKey returns the conversation grouping key, substituting the
// sentinel for records without one.
func (r UsageRecord) SessionKey() string {
	if r.ConversationID == "" {
		return UnknownConversation
	}
	return r.ConversationID
}
