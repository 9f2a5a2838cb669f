package parser

import (
	"encoding/json"
	"time"

	"github.com/revja/claude-ledger/internal/domain"
)

// rawRecord maps the JSONL structure we care about.
type rawRecord struct {
	Type           string   `json:"type"`
	Timestamp      string   `json:"timestamp"`
	SessionID      string   `json:"sessionId"`
	ConversationID string   `json:"conversation_id"`
	RequestID      string   `json:"requestId"`
	Title          string   `json:"title"`
	CostUSD        *float64 `json:"costUSD"`
	Message        *struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage *struct {
			InputTokens              int `json:"input_tokens"`
			OutputTokens             int `json:"output_tokens"`
			CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// LineResult classifies the outcome of extracting one line.
type LineResult int

const (
	LineOK        LineResult = iota
	LineSkipped              // valid JSON, not a billable assistant event
	LineMalformed            // unparseable JSON or invalid field values
)

// ExtractLine parses one raw log line into a normalized UsageRecord.
// Lines that fail validation are classified, never errors: one bad
// line must not abort the rest of the file.
func ExtractLine(line []byte) (domain.UsageRecord, LineResult) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return domain.UsageRecord{}, LineMalformed
	}

	// Only assistant events carry billable usage. A missing type
	// discriminator is tolerated for older log formats.
	if raw.Type != "" && raw.Type != "assistant" {
		return domain.UsageRecord{}, LineSkipped
	}
	if raw.Message == nil || raw.Message.Usage == nil {
		return domain.UsageRecord{}, LineSkipped
	}
	if raw.Message.Model == "" {
		return domain.UsageRecord{}, LineSkipped
	}

	usage := raw.Message.Usage
	if usage.InputTokens < 0 || usage.OutputTokens < 0 ||
		usage.CacheCreationInputTokens < 0 || usage.CacheReadInputTokens < 0 {
		return domain.UsageRecord{}, LineMalformed
	}

	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return domain.UsageRecord{}, LineMalformed
	}

	conversationID := raw.SessionID
	if conversationID == "" {
		conversationID = raw.ConversationID
	}

	rec := domain.UsageRecord{
		Timestamp: ts.UTC(),
		Model:     raw.Message.Model,
		Tokens: domain.TokenUsage{
			Input:         usage.InputTokens,
			Output:        usage.OutputTokens,
			CacheCreation: usage.CacheCreationInputTokens,
			CacheRead:     usage.CacheReadInputTokens,
		},
		ConversationID: conversationID,
		MessageID:      raw.Message.ID,
		RequestID:      raw.RequestID,
		Title:          raw.Title,
	}

	// An explicit pre-computed cost is trusted verbatim; the cost
	// calculator is not consulted for this record.
	if raw.CostUSD != nil && *raw.CostUSD >= 0 {
		rec.CostUSD = *raw.CostUSD
		rec.HasCost = true
	}

	return rec, LineOK
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, true
	}
	ts, err := time.Parse("2006-01-02T15:04:05.000Z", s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
