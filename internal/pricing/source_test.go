package pricing

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeRemote lets tests substitute a deterministic remote source.
type fakeRemote struct {
	table PricingTable
	err   error
	calls int
}

func (f *fakeRemote) Table(ctx context.Context) (PricingTable, error) {
	f.calls++
	return f.table, f.err
}

func TestTieredSource_RemoteOverridesStatic(t *testing.T) {
	remote := &fakeRemote{table: PricingTable{
		"claude-opus-4-1-20250805": {Input: 99.0, Output: 99.0},
	}}
	src := NewTieredSource(remote)

	table, err := src.Table(context.Background())
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table["claude-opus-4-1-20250805"].Input != 99.0 {
		t.Errorf("remote price should override static, got %f", table["claude-opus-4-1-20250805"].Input)
	}
	// Static entries the remote did not mention survive.
	if table["claude-3-haiku-20240307"].Input != 0.25 {
		t.Errorf("static entry lost in merge")
	}
}

func TestTieredSource_RemoteFailureFallsBack(t *testing.T) {
	remote := &fakeRemote{err: errors.New("network down")}
	src := NewTieredSource(remote)

	table, err := src.Table(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not propagate, got %v", err)
	}
	if table.Resolve("claude-opus-4-1-20250805").Input != 15.0 {
		t.Error("fallback table should serve static rates")
	}
}

func TestTieredSource_Offline(t *testing.T) {
	src := NewTieredSource(nil)
	table, err := src.Table(context.Background())
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(table) == 0 {
		t.Error("offline source should still serve the static table")
	}
}

func TestRemoteSource_CachesWithinTTL(t *testing.T) {
	calls := 0
	src := NewRemoteSource(time.Hour)
	src.fetch = func(ctx context.Context) (PricingTable, error) {
		calls++
		return PricingTable{"claude-x": {Input: 1}}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := src.Table(context.Background()); err != nil {
			t.Fatalf("Table: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 (cached)", calls)
	}
}

func TestRemoteSource_RefetchesAfterTTL(t *testing.T) {
	calls := 0
	src := NewRemoteSource(time.Nanosecond)
	src.fetch = func(ctx context.Context) (PricingTable, error) {
		calls++
		return PricingTable{}, nil
	}

	src.Table(context.Background())
	time.Sleep(time.Millisecond)
	src.Table(context.Background())

	if calls != 2 {
		t.Errorf("fetch called %d times, want 2 (TTL expired)", calls)
	}
}

func TestStaticSource(t *testing.T) {
	table, err := StaticSource{}.Table(context.Background())
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(table) == 0 {
		t.Error("static source returned empty table")
	}
}
