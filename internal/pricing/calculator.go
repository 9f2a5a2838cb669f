package pricing

import "github.com/revja/claude-ledger/internal/domain"

// CostMode selects how recorded costUSD values interact with
// calculated prices.
type CostMode string

const (
	// CostModeAuto trusts an explicit recorded cost and calculates
	// otherwise. This is the default.
	CostModeAuto CostMode = "auto"
	// CostModeDisplay only ever uses recorded costs.
	CostModeDisplay CostMode = "display"
	// CostModeCalculate always recomputes from token counts.
	CostModeCalculate CostMode = "calculate"
)

// Calculator prices usage records against a pricing table.
type Calculator struct {
	table PricingTable
	mode  CostMode
}

func NewCalculator(table PricingTable, mode CostMode) *Calculator {
	return &Calculator{table: table, mode: mode}
}

// UpdateTable replaces the pricing table used for cost calculations.
func (c *Calculator) UpdateTable(table PricingTable) {
	c.table = table
}

// Calculate returns the cost in USD for a single record.
func (c *Calculator) Calculate(r *domain.UsageRecord) float64 {
	switch c.mode {
	case CostModeDisplay:
		return r.CostUSD
	case CostModeCalculate:
		return c.costFromTokens(r)
	default: // auto
		if r.HasCost {
			return r.CostUSD
		}
		return c.costFromTokens(r)
	}
}

func (c *Calculator) costFromTokens(r *domain.UsageRecord) float64 {
	p := c.table.Resolve(r.Model)

	cost := float64(r.Tokens.Input) * p.Input / 1_000_000
	cost += float64(r.Tokens.Output) * p.Output / 1_000_000
	cost += float64(r.Tokens.CacheCreation) * p.CacheCreation / 1_000_000
	cost += float64(r.Tokens.CacheRead) * p.CacheRead / 1_000_000

	return cost
}

// ApplyAll calculates and sets CostUSD on all records. This is the cost
// annotation stage; records are not touched again after it.
func (c *Calculator) ApplyAll(records []domain.UsageRecord) {
	for i := range records {
		records[i].CostUSD = c.Calculate(&records[i])
	}
}

// CacheSavings returns the cost avoided by cache reads for one record:
// cache_read_tokens x (input_rate - cache_read_rate) / 1M.
func (c *Calculator) CacheSavings(r *domain.UsageRecord) float64 {
	if r.Tokens.CacheRead == 0 {
		return 0
	}
	p := c.table.Resolve(r.Model)
	return float64(r.Tokens.CacheRead) * (p.Input - p.CacheRead) / 1_000_000
}

// TotalCacheSavings sums CacheSavings over all records.
func (c *Calculator) TotalCacheSavings(records []domain.UsageRecord) float64 {
	var total float64
	for i := range records {
		total += c.CacheSavings(&records[i])
	}
	return total
}
