package pricing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/resilience"
)

// Composite fans one pricing request out to several providers and merges
// their answers. GetPricing keeps the single highest-confidence response;
// GetWeightedPricing blends material costs by provider weight. A failing
// provider never fails the request, it just contributes nothing. Repeated
// transient failures open a per-provider circuit breaker that skips the
// provider until it recovers.
type Composite struct {
	name      string
	providers []Provider
	breakers  *resilience.BreakerSet
	cache     *Cache

	mu      sync.RWMutex
	weights map[string]float64
}

// NewComposite builds a composite over the given providers. Provider order
// matters: confidence ties resolve to the earlier provider.
func NewComposite(name string, providers ...Provider) *Composite {
	if name == "" {
		name = "composite"
	}
	weights := make(map[string]float64, len(providers))
	for _, p := range providers {
		weights[p.Name()] = 1.0
	}
	breakers := resilience.NewBreakerSet(resilience.DefaultCircuitBreakerConfig(),
		func(provider string, from, to resilience.CircuitState) {
			zap.L().Warn("pricing provider circuit state changed",
				zap.String("provider", provider),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		})
	return &Composite{
		name:      name,
		providers: providers,
		breakers:  breakers,
		weights:   weights,
	}
}

// WithCache attaches a response cache consulted before providers are
// queried. Returns the composite for chaining.
func (c *Composite) WithCache(cache *Cache) *Composite {
	c.cache = cache
	return c
}

// SetWeight adjusts one provider's weight in weighted aggregation. Unknown
// provider names are ignored.
func (c *Composite) SetWeight(providerName string, weight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.weights[providerName]; ok {
		c.weights[providerName] = weight
	}
}

func (c *Composite) weightFor(providerName string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if w, ok := c.weights[providerName]; ok {
		return w
	}
	return 1.0
}

// Name reports the composite's own provider id.
func (c *Composite) Name() string { return c.name }

// query runs the request against every validating provider in parallel and
// returns the responses slot-indexed by provider. Provider errors are
// logged and dropped. Each provider call goes through its circuit breaker,
// so a provider that keeps timing out is skipped instead of stalling every
// line item.
func (c *Composite) query(ctx context.Context, req Request) []*Response {
	results := make([]*Response, len(c.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(c.providers))

	for i, p := range c.providers {
		i, p := i, p
		if !p.Validate(req) {
			continue
		}
		g.Go(func() error {
			resp, err := resilience.ExecuteVal(gctx, c.breakers.Get(p.Name()),
				func(ctx context.Context) (*Response, error) {
					return p.GetPricing(ctx, req)
				})
			if err != nil {
				zap.L().Debug("pricing provider failed, skipping",
					zap.String("provider", p.Name()),
					zap.String("item", req.Description),
					zap.Error(err),
				)
				return nil
			}
			results[i] = resp
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// GetPricing implements Provider: the highest-confidence response wins,
// with ties going to the earliest provider.
func (c *Composite) GetPricing(ctx context.Context, req Request) (*Response, error) {
	key := RequestKey(req)
	if c.cache != nil {
		if cached := c.cache.Get(key); cached != nil {
			return cached, nil
		}
	}

	var best *Response
	for _, resp := range c.query(ctx, req) {
		if resp == nil {
			continue
		}
		if best == nil || resp.Confidence > best.Confidence {
			best = resp
		}
	}
	if best == nil {
		return nil, nil
	}

	if c.cache != nil {
		c.cache.Put(key, best)
	}
	return best, nil
}

// GetWeightedPricing blends the material unit cost and confidence of every
// responding provider by weight. Responses without a material cost are
// excluded. Non-price fields carry over from the highest-confidence
// contributor.
func (c *Composite) GetWeightedPricing(ctx context.Context, req Request) (*Response, error) {
	var (
		responses []*Response
		weights   []float64
	)
	for i, resp := range c.query(ctx, req) {
		if resp == nil || resp.MaterialUnitCost == nil {
			continue
		}
		responses = append(responses, resp)
		weights = append(weights, c.weightFor(c.providers[i].Name()))
	}
	if len(responses) == 0 {
		return nil, nil
	}

	var totalWeight float64
	weightedCost := decimal.Zero
	weightedConfidence := 0.0
	sources := make([]string, 0, len(responses))
	for i, resp := range responses {
		w := weights[i]
		totalWeight += w
		weightedCost = weightedCost.Add(resp.MaterialUnitCost.Mul(decimal.NewFromFloat(w)))
		weightedConfidence += resp.Confidence * w
		sources = append(sources, resp.Source)
	}
	weightedCost = weightedCost.Div(decimal.NewFromFloat(totalWeight))
	weightedConfidence /= totalWeight

	best := responses[0]
	for _, resp := range responses[1:] {
		if resp.Confidence > best.Confidence {
			best = resp
		}
	}

	return &Response{
		Description:          req.Description,
		Source:               fmt.Sprintf("Composite(%s)", strings.Join(sources, ", ")),
		MaterialUnitCost:     &weightedCost,
		LaborHoursPerUnit:    best.LaborHoursPerUnit,
		LaborRatePerHour:     best.LaborRatePerHour,
		EquipmentCostPerUnit: best.EquipmentCostPerUnit,
		OverheadRate:         best.OverheadRate,
		ProfitRate:           best.ProfitRate,
		Confidence:           weightedConfidence,
		RetrievedAt:          time.Now().UTC(),
		Notes:                fmt.Sprintf("Weighted average from %d providers", len(responses)),
	}, nil
}

// SearchItems implements Provider as the deduplicated union across
// providers, in provider order.
func (c *Composite) SearchItems(query string, trade model.Trade) []string {
	seen := make(map[string]bool)
	var items []string
	for _, p := range c.providers {
		for _, item := range p.SearchItems(query, trade) {
			if !seen[item] {
				seen[item] = true
				items = append(items, item)
			}
		}
	}
	return items
}

// SupportedTrades implements Provider as the union across providers.
func (c *Composite) SupportedTrades() []model.Trade {
	seen := make(map[model.Trade]bool)
	var trades []model.Trade
	for _, p := range c.providers {
		for _, t := range p.SupportedTrades() {
			if !seen[t] {
				seen[t] = true
				trades = append(trades, t)
			}
		}
	}
	return trades
}

// SupportedLocations implements Provider as the union across providers.
func (c *Composite) SupportedLocations() []string {
	seen := make(map[string]bool)
	var locations []string
	for _, p := range c.providers {
		for _, loc := range p.SupportedLocations() {
			if !seen[loc] {
				seen[loc] = true
				locations = append(locations, loc)
			}
		}
	}
	return locations
}

// Validate implements Provider: valid when any underlying provider accepts
// the request.
func (c *Composite) Validate(req Request) bool {
	for _, p := range c.providers {
		if p.Validate(req) {
			return true
		}
	}
	return false
}

// Providers lists the underlying providers in registration order.
func (c *Composite) Providers() []Provider {
	return c.providers
}
