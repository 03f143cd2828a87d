// Package calc turns validated line items into costed rows and the
// project-level cost cascade: direct, contingency, overhead, profit, grand
// total.
package calc

import (
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/productivity"
)

// DefaultContingency applies to phases with no configured contingency rate.
var DefaultContingency = decimal.RequireFromString("0.10")

// Options tunes a Calculator.
type Options struct {
	// DefaultContingency replaces the standard 10% rate for phases
	// without a configured rate. Zero means use the standard rate.
	DefaultContingency decimal.Decimal
}

// Calculator computes estimates. It is safe for concurrent use: Compute
// only reads its inputs.
type Calculator struct {
	resolver           *productivity.Resolver
	defaultContingency decimal.Decimal
}

// New creates a Calculator. A nil resolver gets the built-in productivity
// tables.
func New(resolver *productivity.Resolver, opts Options) *Calculator {
	if resolver == nil {
		resolver = productivity.NewResolver()
	}
	dc := opts.DefaultContingency
	if dc.IsZero() {
		dc = DefaultContingency
	}
	return &Calculator{
		resolver:           resolver,
		defaultContingency: dc,
	}
}

// Row is the costed form of one line item.
type Row struct {
	ItemID          string          `json:"item_id"`
	PhaseCode       model.Phase     `json:"phase_code"`
	ItemCode        string          `json:"item_code"`
	Description     string          `json:"description"`
	Unit            string          `json:"uom"`
	Quantity        decimal.Decimal `json:"quantity"`
	WastePct        decimal.Decimal `json:"waste_pct"`
	LaborHours      decimal.Decimal `json:"labor_hours"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	MaterialCost    decimal.Decimal `json:"material_cost"`
	EquipmentCost   decimal.Decimal `json:"equipment_cost"`
	SubcontractCost decimal.Decimal `json:"subcontract_cost"`
	DirectCost      decimal.Decimal `json:"direct_cost"`
	Trade           model.Trade     `json:"trade"`
	CostType        model.CostType  `json:"cost_type,omitempty"`
	Rooms           []string        `json:"rooms,omitempty"`
}

// Summary is the project-level cost cascade.
type Summary struct {
	EstimateClass    model.EstimateClass `json:"estimate_class"`
	DirectTotal      decimal.Decimal     `json:"direct_total"`
	ContingencyTotal decimal.Decimal     `json:"phase_contingency_total"`
	Overhead         decimal.Decimal     `json:"overhead"`
	Profit           decimal.Decimal     `json:"profit"`
	GrandTotal       decimal.Decimal     `json:"grand_total"`
}

// Result is one full calculation run.
type Result struct {
	Rows             []Row                           `json:"rows"`
	PhaseDirect      map[model.Phase]decimal.Decimal `json:"phase_direct"`
	PhaseContingency map[model.Phase]decimal.Decimal `json:"phase_contingency"`
	ContingencyRates map[model.Phase]decimal.Decimal `json:"contingency_rates"`
	Summary          Summary                         `json:"summary"`
}

// Compute prices every item and rolls the phase direct costs up through
// contingency, overhead, and profit.
//
// Items with an empty phase code land in the unclassified phase. An item
// naming an unknown labor class fails the whole run; an item with no
// productivity entry for its code gets zero labor hours and keeps going.
func (c *Calculator) Compute(
	project model.Project,
	phases []model.PhaseConfig,
	items []model.LineItem,
	laborClasses []model.LaborClass,
	productivities []model.ProductivityEntry,
) (*Result, error) {
	phaseByCode := make(map[model.Phase]model.PhaseConfig, len(phases))
	for _, p := range phases {
		phaseByCode[p.Code] = p
	}
	laborByName := make(map[string]model.LaborClass, len(laborClasses))
	for _, lc := range laborClasses {
		laborByName[lc.Name] = lc
	}
	prodByCode := make(map[string]model.ProductivityEntry, len(productivities))
	for _, p := range productivities {
		prodByCode[p.ItemCode] = p
	}

	regionalFactor := project.RegionalFactor
	if regionalFactor.IsZero() {
		regionalFactor = decimal.NewFromInt(1)
	}

	one := decimal.NewFromInt(1)
	rows := make([]Row, 0, len(items))
	phaseDirect := make(map[model.Phase]decimal.Decimal, len(phases))
	for _, p := range phases {
		phaseDirect[p.Code] = decimal.Zero
	}

	for _, it := range items {
		qtyWithWaste := it.Quantity.Mul(one.Add(it.WastePct))
		material := qtyWithWaste.Mul(it.MaterialUnitCost)
		equipment := it.UsageHours.Mul(it.EquipmentRate)

		subcontract := decimal.Zero
		switch {
		case it.SubcontractLumpSum != nil:
			subcontract = *it.SubcontractLumpSum
		case it.SubcontractUnitRate != nil:
			subcontract = it.Quantity.Mul(*it.SubcontractUnitRate)
		}

		labor := decimal.Zero
		hours := decimal.Zero
		if it.LaborClass != "" {
			lc, ok := laborByName[it.LaborClass]
			if !ok {
				return nil, eris.Errorf("calc: item %s names unknown labor class %q", it.ID, it.LaborClass)
			}
			hours = c.itemLaborHours(it, prodByCode, regionalFactor)
			labor = hours.Mul(lc.BurdenedRate())
		}

		direct := labor.Add(material).Add(equipment).Add(subcontract)

		phase := it.Phase
		if phase == "" {
			phase = model.PhaseUnclassified
		}
		phaseDirect[phase] = phaseDirect[phase].Add(direct)

		rows = append(rows, Row{
			ItemID:          it.ID,
			PhaseCode:       phase,
			ItemCode:        it.Code,
			Description:     it.Description,
			Unit:            it.Unit,
			Quantity:        it.Quantity,
			WastePct:        it.WastePct,
			LaborHours:      hours,
			LaborCost:       labor,
			MaterialCost:    material,
			EquipmentCost:   equipment,
			SubcontractCost: subcontract,
			DirectCost:      direct,
			Trade:           it.Trade,
			CostType:        it.CostType,
			Rooms:           it.Rooms,
		})
	}

	phaseCont := make(map[model.Phase]decimal.Decimal, len(phaseDirect))
	rates := make(map[model.Phase]decimal.Decimal, len(phaseDirect))
	directTotal := decimal.Zero
	contTotal := decimal.Zero
	for code, direct := range phaseDirect {
		rate := c.defaultContingency
		if cfg, ok := phaseByCode[code]; ok {
			rate = cfg.ContingencyPct
		}
		rates[code] = rate
		cont := direct.Mul(rate)
		phaseCont[code] = cont
		directTotal = directTotal.Add(direct)
		contTotal = contTotal.Add(cont)
	}

	overhead := directTotal.Add(contTotal).Mul(project.OverheadPct)
	profit := directTotal.Add(contTotal).Add(overhead).Mul(project.ProfitPct)
	grandTotal := directTotal.Add(contTotal).Add(overhead).Add(profit)

	zap.L().Info("estimate computed",
		zap.String("project", project.Name),
		zap.Int("items", len(rows)),
		zap.String("direct_total", directTotal.String()),
		zap.String("grand_total", grandTotal.String()),
	)

	return &Result{
		Rows:             rows,
		PhaseDirect:      phaseDirect,
		PhaseContingency: phaseCont,
		ContingencyRates: rates,
		Summary: Summary{
			EstimateClass:    project.EstimateClass,
			DirectTotal:      directTotal,
			ContingencyTotal: contTotal,
			Overhead:         overhead,
			Profit:           profit,
			GrandTotal:       grandTotal,
		},
	}, nil
}

// itemLaborHours resolves labor hours for one item from its productivity
// entry. No entry means zero hours.
func (c *Calculator) itemLaborHours(
	it model.LineItem,
	prodByCode map[string]model.ProductivityEntry,
	regionalFactor decimal.Decimal,
) decimal.Decimal {
	entry, ok := prodByCode[it.Code]
	if !ok {
		zap.L().Warn("no productivity entry for item, labor hours set to zero",
			zap.String("item", it.ID),
			zap.String("code", it.Code),
		)
		return decimal.Zero
	}
	return c.resolver.EntryHours(entry, it.Quantity, regionalFactor)
}
