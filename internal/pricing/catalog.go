package pricing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/catalog"
	"github.com/meridian-build/estimator/internal/model"
)

// fuzzyMatchThreshold is the minimum token similarity for a fuzzy catalog
// match. Matches at or below it are discarded rather than risk pricing the
// wrong item.
const fuzzyMatchThreshold = 0.7

// CatalogProvider prices items from a loaded catalog file. Lookup is exact
// on normalized description, trade, and unit; when that misses, the closest
// same-trade same-unit entry above the similarity threshold is used and the
// similarity becomes the confidence score.
type CatalogProvider struct {
	name    string
	entries []catalog.Entry
	index   map[string]int // catalogKey -> entries index
	rates   []catalog.LaborRate
}

// NewCatalogProvider builds a provider over loaded catalog entries and labor
// rates. Labor rate fallback uses file order, so rates keep their original
// ordering.
func NewCatalogProvider(name string, entries []catalog.Entry, rates []catalog.LaborRate) *CatalogProvider {
	if name == "" {
		name = "catalog"
	}
	p := &CatalogProvider{
		name:  name,
		index: make(map[string]int, len(entries)),
		rates: rates,
	}
	for _, e := range entries {
		p.AddEntry(e)
	}
	return p
}

// catalogKey builds the exact-match index key.
func catalogKey(description string, trade model.Trade, unit string) string {
	return strings.Join([]string{
		NormalizeDescription(description),
		string(trade),
		strings.ToLower(strings.TrimSpace(unit)),
	}, "|")
}

// AddEntry adds one entry to the provider. A duplicate description, trade,
// and unit replaces the earlier entry in the index.
func (p *CatalogProvider) AddEntry(e catalog.Entry) {
	p.entries = append(p.entries, e)
	p.index[catalogKey(e.Description, e.Trade, e.Unit)] = len(p.entries) - 1
}

// Name reports the provider id used in weights and logs.
func (p *CatalogProvider) Name() string { return p.name }

// GetPricing implements Provider. Returns (nil, nil) when the catalog has no
// match for the request.
func (p *CatalogProvider) GetPricing(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.Validate(req) {
		return nil, nil
	}

	if i, ok := p.index[catalogKey(req.Description, req.Trade, req.Unit)]; ok {
		return p.respond(&p.entries[i], req, 1.0), nil
	}

	best, score := p.closestEntry(req)
	if best == nil {
		return nil, nil
	}

	zap.L().Debug("catalog: fuzzy pricing match",
		zap.String("requested", req.Description),
		zap.String("matched", best.Description),
		zap.Float64("similarity", score),
	)
	return p.respond(best, req, score), nil
}

// closestEntry scans same-trade same-unit entries for the highest token
// similarity above the threshold.
func (p *CatalogProvider) closestEntry(req Request) (*catalog.Entry, float64) {
	want := NormalizeDescription(req.Description)
	unit := strings.ToLower(strings.TrimSpace(req.Unit))

	var best *catalog.Entry
	bestScore := fuzzyMatchThreshold
	for i := range p.entries {
		e := &p.entries[i]
		if e.Trade != req.Trade {
			continue
		}
		if strings.ToLower(strings.TrimSpace(e.Unit)) != unit {
			continue
		}
		score := TokenSimilarity(want, NormalizeDescription(e.Description))
		if score > bestScore {
			best = e
			bestScore = score
		}
	}
	if best == nil {
		return nil, 0
	}
	return best, bestScore
}

// respond assembles a Response from a catalog entry, attaching the labor
// rate for the request's trade and location when one is on file. The
// retrieval timestamp is the entry's last update when the file carried one.
func (p *CatalogProvider) respond(e *catalog.Entry, req Request, confidence float64) *Response {
	material := e.MaterialUnitCost
	retrieved := time.Now().UTC()
	if e.UpdatedAt != nil {
		retrieved = *e.UpdatedAt
	}
	resp := &Response{
		Description:          e.Description,
		Source:               e.Source,
		MaterialUnitCost:     &material,
		LaborHoursPerUnit:    e.LaborHoursPerUnit,
		EquipmentCostPerUnit: e.EquipmentCostPerUnit,
		OverheadRate:         e.OverheadRate,
		ProfitRate:           e.ProfitRate,
		Confidence:           confidence,
		RetrievedAt:          retrieved,
		Notes:                e.Notes,
	}
	if rate := p.laborRate(req.Trade, req.Location); rate != nil {
		resp.LaborRatePerHour = rate
	}
	return resp
}

// laborRate finds the hourly rate for a trade, preferring an exact location
// match and falling back to the first rate on file for the trade.
func (p *CatalogProvider) laborRate(trade model.Trade, location string) *decimal.Decimal {
	var fallback *decimal.Decimal
	for i := range p.rates {
		r := &p.rates[i]
		if r.Trade != trade {
			continue
		}
		if strings.EqualFold(r.Location, location) {
			rate := r.RatePerHour
			return &rate
		}
		if fallback == nil {
			rate := r.RatePerHour
			fallback = &rate
		}
	}
	return fallback
}

// SearchItems implements Provider with substring matching on normalized
// descriptions. Duplicate descriptions (same item in multiple units)
// collapse to one result.
func (p *CatalogProvider) SearchItems(query string, trade model.Trade) []string {
	want := NormalizeDescription(query)
	seen := make(map[string]bool)
	var matches []string
	for i := range p.entries {
		e := &p.entries[i]
		if trade != "" && e.Trade != trade {
			continue
		}
		if !strings.Contains(NormalizeDescription(e.Description), want) {
			continue
		}
		if seen[e.Description] {
			continue
		}
		seen[e.Description] = true
		matches = append(matches, e.Description)
	}
	return matches
}

// SupportedTrades implements Provider, listing distinct catalog trades.
func (p *CatalogProvider) SupportedTrades() []model.Trade {
	seen := make(map[model.Trade]bool)
	var trades []model.Trade
	for i := range p.entries {
		if !seen[p.entries[i].Trade] {
			seen[p.entries[i].Trade] = true
			trades = append(trades, p.entries[i].Trade)
		}
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i] < trades[j] })
	return trades
}

// SupportedLocations implements Provider, listing distinct labor rate
// locations. A catalog with no labor rates prices any location.
func (p *CatalogProvider) SupportedLocations() []string {
	seen := make(map[string]bool)
	var locations []string
	for i := range p.rates {
		loc := p.rates[i].Location
		if loc != "" && !seen[loc] {
			seen[loc] = true
			locations = append(locations, loc)
		}
	}
	if len(locations) == 0 {
		return []string{"default"}
	}
	sort.Strings(locations)
	return locations
}

// Validate implements Provider.
func (p *CatalogProvider) Validate(req Request) bool {
	return supportsTrade(p.SupportedTrades(), req.Trade) &&
		supportsLocation(p.SupportedLocations(), req.Location)
}
