package pricing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/meridian-build/estimator/internal/model"
)

// Fallback response defaults used when only a shelf price is known for an
// item.
var (
	fallbackLaborHours   = decimal.RequireFromString("0.5")
	fallbackLaborRate    = decimal.RequireFromString("45.00")
	fallbackEquipment    = decimal.Zero
	fallbackOverheadRate = decimal.RequireFromString("0.15")
	fallbackProfitRate   = decimal.RequireFromString("0.10")
)

const fallbackConfidence = 0.5

// RetailOptions configures the retail provider.
type RetailOptions struct {
	Name            string
	RequestInterval time.Duration // minimum spacing between lookups
}

// RetailProvider prices common commodity items from a built-in retail price
// table. A live retail feed is not wired up; every lookup resolves against
// the fallback table, throttled as a real feed would be.
type RetailProvider struct {
	name     string
	limiter  *rate.Limiter
	mappings map[model.Trade][]string

	mu            sync.RWMutex
	fallback      map[string]decimal.Decimal
	fallbackOrder []string // keyword match scans in insertion order
}

// NewRetailProvider creates a retail provider with the default fallback
// price table.
func NewRetailProvider(opts RetailOptions) *RetailProvider {
	if opts.Name == "" {
		opts.Name = "retail"
	}
	if opts.RequestInterval <= 0 {
		opts.RequestInterval = time.Second
	}

	p := &RetailProvider{
		name:     opts.Name,
		limiter:  rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		mappings: defaultProductMappings(),
		fallback: make(map[string]decimal.Decimal),
	}
	for _, item := range defaultFallbackPricing() {
		p.fallback[item.key] = item.price
		p.fallbackOrder = append(p.fallbackOrder, item.key)
	}
	return p
}

type fallbackItem struct {
	key   string
	price decimal.Decimal
}

// defaultFallbackPricing lists shelf prices for common commodity items.
func defaultFallbackPricing() []fallbackItem {
	d := decimal.RequireFromString
	return []fallbackItem{
		{"concrete_bag", d("5.99")},
		{"rebar_10ft", d("12.99")},
		{"lumber_2x4_8ft", d("3.47")},
		{"plywood_4x8", d("45.99")},
		{"insulation_batt", d("15.99")},
		{"drywall_4x8", d("12.99")},
		{"paint_gallon", d("25.99")},
		{"wire_romex", d("0.89")},
		{"pipe_pvc_10ft", d("8.99")},
	}
}

// defaultProductMappings maps trades to retail search keywords.
func defaultProductMappings() map[model.Trade][]string {
	return map[model.Trade][]string{
		model.TradeConcrete:     {"concrete", "cement", "mix", "bag"},
		model.TradeMasonry:      {"brick", "block", "stone", "mortar"},
		model.TradeMetals:       {"steel", "rebar", "wire", "mesh"},
		model.TradeWood:         {"lumber", "plywood", "osb", "stud"},
		model.TradeThermal:      {"insulation", "foam", "vapor", "barrier"},
		model.TradeDoorsWindows: {"door", "window", "frame", "hinge"},
		model.TradeFinishes:     {"paint", "drywall", "tile", "flooring"},
		model.TradeMechanical:   {"duct", "pipe", "fitting", "valve"},
		model.TradeElectrical:   {"wire", "conduit", "outlet", "switch"},
	}
}

func (p *RetailProvider) Name() string { return p.name }

// Categories returns the retail search keywords for a trade. Unmapped
// trades search under their own name.
func (p *RetailProvider) Categories(trade model.Trade) []string {
	if keywords, ok := p.mappings[trade]; ok {
		return keywords
	}
	return []string{string(trade)}
}

// GetPricing implements Provider. Lookups are throttled to the configured
// request interval; unmatched items return (nil, nil).
func (p *RetailProvider) GetPricing(ctx context.Context, req Request) (*Response, error) {
	if !p.Validate(req) {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "retail: rate limiter wait")
	}

	price, ok := p.fallbackFor(req.Description)
	if !ok {
		return nil, nil
	}

	hours := fallbackLaborHours
	laborRate := fallbackLaborRate
	equipment := fallbackEquipment
	overhead := fallbackOverheadRate
	profit := fallbackProfitRate

	return &Response{
		Description:          req.Description,
		Source:               p.name,
		MaterialUnitCost:     &price,
		LaborHoursPerUnit:    &hours,
		LaborRatePerHour:     &laborRate,
		EquipmentCostPerUnit: &equipment,
		OverheadRate:         &overhead,
		ProfitRate:           &profit,
		Confidence:           fallbackConfidence,
		RetrievedAt:          time.Now().UTC(),
		Notes:                "Fallback pricing: retail feed not configured",
	}, nil
}

// fallbackFor matches a description against the fallback table. A table key
// matches when any of its underscore-separated words appears in the
// description; the first key in table order wins.
func (p *RetailProvider) fallbackFor(description string) (decimal.Decimal, bool) {
	descLower := strings.ToLower(description)

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, key := range p.fallbackOrder {
		for _, word := range strings.Split(key, "_") {
			if strings.Contains(descLower, word) {
				return p.fallback[key], true
			}
		}
	}
	return decimal.Decimal{}, false
}

// SearchItems implements Provider against the fallback table keys.
func (p *RetailProvider) SearchItems(query string, trade model.Trade) []string {
	queryLower := strings.ToLower(query)
	titler := cases.Title(language.AmericanEnglish)

	p.mu.RLock()
	defer p.mu.RUnlock()

	var items []string
	for _, key := range p.fallbackOrder {
		name := strings.ReplaceAll(key, "_", " ")
		if strings.Contains(name, queryLower) {
			items = append(items, titler.String(name))
		}
	}
	return items
}

// SupportedTrades implements Provider. Retail stock covers every trade.
func (p *RetailProvider) SupportedTrades() []model.Trade {
	return model.AllTrades()
}

// SupportedLocations implements Provider.
func (p *RetailProvider) SupportedLocations() []string {
	return []string{"US", "United States", "National"}
}

// Validate implements Provider.
func (p *RetailProvider) Validate(req Request) bool {
	return supportsTrade(p.SupportedTrades(), req.Trade) &&
		supportsLocation(p.SupportedLocations(), req.Location)
}

// SetFallbackPrice adds or updates a fallback table entry.
func (p *RetailProvider) SetFallbackPrice(key string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.fallback[key]; !ok {
		p.fallbackOrder = append(p.fallbackOrder, key)
	}
	p.fallback[key] = price
	zap.L().Info("retail: fallback price set",
		zap.String("item", key),
		zap.String("price", price.String()),
	)
}

// RetailStatus describes the provider's feed state for operator output.
type RetailStatus struct {
	Provider        string        `json:"provider_name"`
	FeedConfigured  bool          `json:"feed_configured"`
	RequestInterval time.Duration `json:"request_interval"`
	FallbackItems   int           `json:"fallback_items_count"`
	Notes           string        `json:"notes"`
}

// Status reports the provider's current feed state.
func (p *RetailProvider) Status() RetailStatus {
	p.mu.RLock()
	items := len(p.fallback)
	p.mu.RUnlock()

	interval := time.Second
	if lim := p.limiter.Limit(); lim > 0 {
		interval = time.Duration(float64(time.Second) / float64(lim))
	}

	return RetailStatus{
		Provider:        p.name,
		FeedConfigured:  false,
		RequestInterval: interval,
		FallbackItems:   items,
		Notes:           "Live retail feed not wired; fallback table only.",
	}
}
