// Package rollup groups computed line-item costs along independent
// dimensions: phase, trade, cost type, room, and phase combined with trade.
// Rollups never recompute costs; they only sum the per-item breakdowns the
// calculator produced, so each single-dimension view conserves the
// underlying totals.
package rollup

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridian-build/estimator/internal/model"
)

// Bucket accumulates costs for one value of a grouping dimension. Buckets
// are created lazily on first contribution and never shared across views.
type Bucket struct {
	Material  decimal.Decimal `json:"material"`
	Labor     decimal.Decimal `json:"labor"`
	Equipment decimal.Decimal `json:"equipment"`
	Overhead  decimal.Decimal `json:"overhead"`
	Profit    decimal.Decimal `json:"profit"`
	Total     decimal.Decimal `json:"total"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineItems []string        `json:"line_items"`
}

func (b *Bucket) add(id string, cb model.CostBreakdown) {
	b.Material = b.Material.Add(cb.Material)
	b.Labor = b.Labor.Add(cb.Labor)
	b.Equipment = b.Equipment.Add(cb.Equipment)
	b.Overhead = b.Overhead.Add(cb.Overhead)
	b.Profit = b.Profit.Add(cb.Profit)
	b.Total = b.Total.Add(cb.Total())
	b.Quantity = b.Quantity.Add(cb.Quantity)
	b.LineItems = append(b.LineItems, id)
}

// bucketFor returns the bucket for key, creating it on first use.
func bucketFor[K comparable](m map[K]*Bucket, key K) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{}
		m[key] = b
	}
	return b
}

// PhaseView groups costs by phase code.
type PhaseView map[model.Phase]*Bucket

// TradeView groups costs by trade.
type TradeView map[model.Trade]*Bucket

// PhaseTradeView groups costs by the composite key from PhaseTradeKey.
type PhaseTradeView map[string]*Bucket

// CostTypeBucket accumulates item totals for one cost type, with per-trade
// and per-phase splits of the same total.
type CostTypeBucket struct {
	Total     decimal.Decimal                 `json:"total"`
	Quantity  decimal.Decimal                 `json:"quantity"`
	LineItems []string                        `json:"line_items"`
	ByTrade   map[model.Trade]decimal.Decimal `json:"by_trade"`
	ByPhase   map[model.Phase]decimal.Decimal `json:"by_phase"`
}

// CostTypeView groups costs by declared cost type.
type CostTypeView map[model.CostType]*CostTypeBucket

// PhaseTradeKey builds the composite key used by ByPhaseTrade.
func PhaseTradeKey(p model.Phase, t model.Trade) string {
	return fmt.Sprintf("%s_%s", p, t)
}

func phaseOf(it model.LineItem) model.Phase {
	if it.Phase == "" {
		return model.PhaseUnclassified
	}
	return it.Phase
}

func tradeOf(it model.LineItem) model.Trade {
	if it.Trade == "" {
		return model.TradeGeneral
	}
	return it.Trade
}

func costTypeOf(it model.LineItem) model.CostType {
	if it.CostType == "" {
		return model.CostTypeMaterial
	}
	return it.CostType
}

// ByPhase groups breakdowns by the owning item's phase code. Items without
// a phase land in the unclassified bucket; items with no breakdown are
// skipped. Iteration follows item order, so bucket item lists are stable.
func ByPhase(breakdowns map[string]model.CostBreakdown, items []model.LineItem) PhaseView {
	view := make(PhaseView)
	for _, it := range items {
		cb, ok := breakdowns[it.ID]
		if !ok {
			continue
		}
		bucketFor(view, phaseOf(it)).add(it.ID, cb)
	}
	return view
}

// ByTrade groups breakdowns by trade. Items without a trade land in the
// general bucket.
func ByTrade(breakdowns map[string]model.CostBreakdown, items []model.LineItem) TradeView {
	view := make(TradeView)
	for _, it := range items {
		cb, ok := breakdowns[it.ID]
		if !ok {
			continue
		}
		bucketFor(view, tradeOf(it)).add(it.ID, cb)
	}
	return view
}

// ByPhaseTrade groups breakdowns by phase and trade combined.
func ByPhaseTrade(breakdowns map[string]model.CostBreakdown, items []model.LineItem) PhaseTradeView {
	view := make(PhaseTradeView)
	for _, it := range items {
		cb, ok := breakdowns[it.ID]
		if !ok {
			continue
		}
		bucketFor(view, PhaseTradeKey(phaseOf(it), tradeOf(it))).add(it.ID, cb)
	}
	return view
}

// ByCostType groups item totals by declared cost type. Items without one
// count as material, matching how takeoff rows default.
func ByCostType(breakdowns map[string]model.CostBreakdown, items []model.LineItem) CostTypeView {
	view := make(CostTypeView)
	for _, it := range items {
		cb, ok := breakdowns[it.ID]
		if !ok {
			continue
		}
		ct := costTypeOf(it)
		b, ok := view[ct]
		if !ok {
			b = &CostTypeBucket{
				ByTrade: make(map[model.Trade]decimal.Decimal),
				ByPhase: make(map[model.Phase]decimal.Decimal),
			}
			view[ct] = b
		}
		total := cb.Total()
		b.Total = b.Total.Add(total)
		b.Quantity = b.Quantity.Add(cb.Quantity)
		b.LineItems = append(b.LineItems, it.ID)

		trade := tradeOf(it)
		phase := phaseOf(it)
		b.ByTrade[trade] = b.ByTrade[trade].Add(total)
		b.ByPhase[phase] = b.ByPhase[phase].Add(total)
	}
	return view
}

// Totals returns each bucket's total keyed by phase code, in the shape the
// analysis functions consume.
func (v PhaseView) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(v))
	for phase, b := range v {
		totals[string(phase)] = b.Total
	}
	return totals
}

// Totals returns each bucket's total keyed by trade.
func (v TradeView) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(v))
	for trade, b := range v {
		totals[string(trade)] = b.Total
	}
	return totals
}

// Totals returns each bucket's total keyed by the composite phase_trade key.
func (v PhaseTradeView) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(v))
	for key, b := range v {
		totals[key] = b.Total
	}
	return totals
}

// Totals returns each bucket's total keyed by cost type.
func (v CostTypeView) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(v))
	for ct, b := range v {
		totals[string(ct)] = b.Total
	}
	return totals
}
