package domain

import (
	"testing"
	"time"
)

func TestBuildBlocks_Boundary(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []UsageRecord{
		{Timestamp: base, Model: "m", Tokens: TokenUsage{Input: 1}},
		{Timestamp: base.Add(4*time.Hour + 59*time.Minute), Model: "m", Tokens: TokenUsage{Input: 1}},
		{Timestamp: base.Add(5*time.Hour + 1*time.Minute), Model: "m", Tokens: TokenUsage{Input: 1}},
	}

	blocks := BuildBlocks(records, 5*time.Hour)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	first := blocks[0]
	if !first.StartTime.Equal(base) {
		t.Errorf("first block start = %v, want %v", first.StartTime, base)
	}
	if !first.EndTime.Equal(base.Add(5 * time.Hour)) {
		t.Errorf("first block end = %v, want %v", first.EndTime, base.Add(5*time.Hour))
	}
	if first.MessageCount != 2 {
		t.Errorf("first block messages = %d, want 2", first.MessageCount)
	}

	second := blocks[1]
	if !second.StartTime.Equal(base.Add(5*time.Hour + 1*time.Minute)) {
		t.Errorf("second block start = %v, want 5h01m after base", second.StartTime)
	}
	if second.MessageCount != 1 {
		t.Errorf("second block messages = %d, want 1", second.MessageCount)
	}
}

func TestBuildBlocks_RecordAtExactEndStaysInBlock(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []UsageRecord{
		{Timestamp: base, Model: "m"},
		{Timestamp: base.Add(5 * time.Hour), Model: "m"}, // exactly blockEnd
	}

	blocks := BuildBlocks(records, 5*time.Hour)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1 (record at end is inside the window)", len(blocks))
	}
	if blocks[0].MessageCount != 2 {
		t.Errorf("messages = %d, want 2", blocks[0].MessageCount)
	}
}

func TestBuildBlocks_NestedSessions(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []UsageRecord{
		{Timestamp: base, Model: "m", ConversationID: "c1", CostUSD: 1.0},
		{Timestamp: base.Add(time.Hour), Model: "m", ConversationID: "c2", CostUSD: 2.0},
		{Timestamp: base.Add(2 * time.Hour), Model: "m", ConversationID: "c1", CostUSD: 0.5},
	}

	blocks := BuildBlocks(records, 5*time.Hour)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0]
	if len(b.Sessions) != 2 {
		t.Fatalf("got %d nested sessions, want 2", len(b.Sessions))
	}
	c1 := b.Sessions["c1"]
	if c1.MessageCount != 2 || c1.CostUSD != 1.5 {
		t.Errorf("c1 = %d messages / %f USD, want 2 / 1.5", c1.MessageCount, c1.CostUSD)
	}
	if !c1.EndTime.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("c1 end = %v, want base+2h", c1.EndTime)
	}
}

func TestBillingBlock_IsActive(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	b := &BillingBlock{StartTime: base, EndTime: base.Add(5 * time.Hour)}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", base.Add(-time.Minute), false},
		{"at start", base, true},
		{"inside", base.Add(2 * time.Hour), true},
		{"at end", base.Add(5 * time.Hour), true},
		{"after end", base.Add(5*time.Hour + time.Second), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.IsActive(tc.now); got != tc.want {
				t.Errorf("IsActive(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestActiveBlock(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []UsageRecord{
		{Timestamp: base, Model: "m"},
		{Timestamp: base.Add(6 * time.Hour), Model: "m"},
	}
	blocks := BuildBlocks(records, 5*time.Hour)

	if got := ActiveBlock(blocks, base.Add(7*time.Hour)); got != blocks[1] {
		t.Errorf("ActiveBlock at 7h should be the second block")
	}
	if got := ActiveBlock(blocks, base.Add(30*time.Hour)); got != nil {
		t.Errorf("ActiveBlock long after the last record should be nil, got %+v", got)
	}
}

func TestBuildBlocks_Empty(t *testing.T) {
	if blocks := BuildBlocks(nil, 5*time.Hour); len(blocks) != 0 {
		t.Errorf("got %d blocks, want 0", len(blocks))
	}
}

func TestBuildBlocks_DefaultDuration(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	blocks := BuildBlocks([]UsageRecord{{Timestamp: base, Model: "m"}}, 0)
	if !blocks[0].EndTime.Equal(base.Add(DefaultBlockDuration)) {
		t.Errorf("end = %v, want start+%v", blocks[0].EndTime, DefaultBlockDuration)
	}
}
