package pricing

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed fallback.json
var fallbackJSON []byte

// ModelPricing holds per-1M-token rates for the four token classes.
type ModelPricing struct {
	Input         float64 `json:"input"`
	Output        float64 `json:"output"`
	CacheCreation float64 `json:"cache_creation"`
	CacheRead     float64 `json:"cache_read"`
}

// PricingTable maps lowercase model identifiers to rates.
type PricingTable map[string]ModelPricing

// familyTier is one entry of the ordered static fallback. Markers are
// matched as substrings against the lowercased model name; the order
// of the tiers is a deliberate tie-break: 4-era families first, then
// the 3.5 era, then legacy 3-era, so that e.g. "3-5-sonnet" is claimed
// by the 3.5 tier before the bare "sonnet-3" marker can see it.
type familyTier struct {
	key     string
	markers []string
}

var familyTiers = []familyTier{
	{"opus-4", []string{"opus-4", "4-opus"}},
	{"sonnet-4", []string{"sonnet-4", "4-sonnet"}},
	{"sonnet-3.5", []string{"3-5-sonnet", "sonnet-3-5", "3.5-sonnet"}},
	{"haiku-3.5", []string{"3-5-haiku", "haiku-3-5", "3.5-haiku"}},
	{"opus-3", []string{"3-opus", "opus-3"}},
	{"sonnet-3", []string{"3-sonnet", "sonnet-3"}},
	{"haiku-3", []string{"3-haiku", "haiku-3"}},
}

// defaultTierKey is the safest generic tier for unrecognized models.
const defaultTierKey = "sonnet-4"

// defaultPricing backs Resolve even if the default tier entry were
// ever missing from the table.
var defaultPricing = ModelPricing{Input: 3.0, Output: 15.0, CacheCreation: 3.75, CacheRead: 0.3}

// LoadStatic parses the embedded fallback price list. An error here is
// a programmer error (the JSON ships with the binary).
func LoadStatic() (PricingTable, error) {
	var raw map[string]ModelPricing
	if err := json.Unmarshal(fallbackJSON, &raw); err != nil {
		return nil, err
	}
	table := make(PricingTable, len(raw))
	for k, v := range raw {
		table[strings.ToLower(k)] = v
	}
	return table, nil
}

// Merge adds entries from other into pt. Existing keys are overwritten,
// so remote prices layered over the static table win.
func (pt PricingTable) Merge(other PricingTable) {
	for k, v := range other {
		pt[strings.ToLower(k)] = v
	}
}

// Resolve returns rates for a model and never fails: exact
// case-insensitive match first, then the ordered family markers, then
// the default tier.
func (pt PricingTable) Resolve(model string) ModelPricing {
	m := strings.ToLower(model)
	if p, ok := pt[m]; ok {
		return p
	}
	for _, tier := range familyTiers {
		for _, marker := range tier.markers {
			if strings.Contains(m, marker) {
				if p, ok := pt[tier.key]; ok {
					return p
				}
			}
		}
	}
	if p, ok := pt[defaultTierKey]; ok {
		return p
	}
	return defaultPricing
}
