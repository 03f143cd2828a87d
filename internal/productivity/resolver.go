// Package productivity resolves labor hours per unit of work and applies
// condition-based adjustment multipliers.
package productivity

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/model"
)

// Resolver answers labor-hour lookups from a (trade, item type) rate table
// and scales them by named adjustment conditions. Tables start from built-in
// defaults and can be replaced at runtime from a YAML file.
type Resolver struct {
	rates   map[model.Trade]map[string]decimal.Decimal
	factors map[string]map[string]decimal.Decimal
}

// NewResolver creates a resolver seeded with the default rate and factor
// tables.
func NewResolver() *Resolver {
	return &Resolver{
		rates:   defaultRates(),
		factors: defaultFactors(),
	}
}

// Rate returns the base hours per unit for a trade and item type.
// The second return is false when no rate is configured.
func (r *Resolver) Rate(trade model.Trade, itemType string) (decimal.Decimal, bool) {
	byType, ok := r.rates[trade]
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := byType[itemType]
	return rate, ok
}

// SetRate adds or replaces a single base rate.
func (r *Resolver) SetRate(trade model.Trade, itemType string, hoursPerUnit decimal.Decimal) {
	if r.rates[trade] == nil {
		r.rates[trade] = make(map[string]decimal.Decimal)
	}
	r.rates[trade][itemType] = hoursPerUnit
}

// Trades lists the trades with configured rates, sorted.
func (r *Resolver) Trades() []model.Trade {
	trades := make([]model.Trade, 0, len(r.rates))
	for t := range r.rates {
		trades = append(trades, t)
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i] < trades[j] })
	return trades
}

// Rates returns a copy of one trade's rate table, keyed by item type.
// The map is nil for a trade with no rates.
func (r *Resolver) Rates(trade model.Trade) map[string]decimal.Decimal {
	byType, ok := r.rates[trade]
	if !ok {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(byType))
	for itemType, rate := range byType {
		out[itemType] = rate
	}
	return out
}

// Factor returns the multiplier for an adjustment condition, e.g.
// ("weather", "poor"). The second return is false when either the factor
// type or the condition is unknown.
func (r *Resolver) Factor(factorType, condition string) (decimal.Decimal, bool) {
	byCondition, ok := r.factors[factorType]
	if !ok {
		return decimal.Zero, false
	}
	f, ok := byCondition[condition]
	return f, ok
}

// LaborHours computes total labor hours for a quantity of work:
// base rate × quantity, scaled by each named adjustment. A missing rate
// yields zero hours; unknown adjustment keys are ignored. Both cases are
// expected with incomplete productivity data and do not fail the caller.
func (r *Resolver) LaborHours(trade model.Trade, itemType string, quantity decimal.Decimal, adjustments map[string]string) decimal.Decimal {
	rate, ok := r.Rate(trade, itemType)
	if !ok {
		zap.L().Warn("productivity: no labor rate",
			zap.String("trade", string(trade)),
			zap.String("item_type", itemType),
		)
		return decimal.Zero
	}

	hours := rate.Mul(quantity)
	return r.AdjustHours(hours, adjustments)
}

// AdjustHours multiplies base hours by the factor for each named condition.
// Unknown factor types or conditions are skipped.
func (r *Resolver) AdjustHours(base decimal.Decimal, adjustments map[string]string) decimal.Decimal {
	hours := base
	for factorType, condition := range adjustments {
		f, ok := r.Factor(factorType, condition)
		if !ok {
			zap.L().Debug("productivity: unknown adjustment ignored",
				zap.String("factor_type", factorType),
				zap.String("condition", condition),
			)
			continue
		}
		hours = hours.Mul(f)
	}
	return hours
}

// EntryHours computes effective hours for a resolved productivity entry:
// quantity × hours-per-unit × product of the entry's factor multipliers ×
// the project regional factor. Entry factors are already multipliers, not
// condition names.
func (r *Resolver) EntryHours(entry model.ProductivityEntry, quantity, regionalFactor decimal.Decimal) decimal.Decimal {
	hours := quantity.Mul(entry.HoursPerUnit)
	for _, mult := range entry.Factors {
		hours = hours.Mul(decimal.NewFromFloat(mult))
	}
	return hours.Mul(regionalFactor)
}

// CrewEstimate describes the crew required to complete a body of work
// within a duration.
type CrewEstimate struct {
	CrewSize     int             `json:"crew_size"`
	Efficiency   decimal.Decimal `json:"efficiency"` // >1 means the crew is overloaded
	TotalHours   decimal.Decimal `json:"total_hours"`
	DurationDays int             `json:"project_duration_days"`
	HoursPerDay  int             `json:"hours_per_day"`
}

// EstimateCrewSize sizes a crew for the given total labor hours and
// schedule. Crew size is at least one worker.
func EstimateCrewSize(totalHours decimal.Decimal, durationDays, hoursPerDay int) CrewEstimate {
	if hoursPerDay <= 0 {
		hoursPerDay = 8
	}

	available := decimal.NewFromInt(int64(durationDays * hoursPerDay))
	if !available.IsPositive() {
		return CrewEstimate{
			CrewSize:     1,
			Efficiency:   decimal.NewFromInt(1),
			TotalHours:   totalHours,
			DurationDays: durationDays,
			HoursPerDay:  hoursPerDay,
		}
	}

	crew := int(totalHours.Div(available).Round(1).IntPart())
	if crew < 1 {
		crew = 1
	}

	efficiency := totalHours.Div(available.Mul(decimal.NewFromInt(int64(crew)))).Round(2)

	return CrewEstimate{
		CrewSize:     crew,
		Efficiency:   efficiency,
		TotalHours:   totalHours,
		DurationDays: durationDays,
		HoursPerDay:  hoursPerDay,
	}
}

// ProductivityIndex compares estimated hours to actual hours. An index above
// 1.0 means the work went faster than estimated. Zero on either side yields
// a zero index rather than a division fault.
func ProductivityIndex(actualHours, estimatedHours decimal.Decimal) decimal.Decimal {
	if estimatedHours.IsZero() || actualHours.IsZero() {
		return decimal.Zero
	}
	return estimatedHours.Div(actualHours).Round(2)
}
