package productivity

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meridian-build/estimator/internal/model"
)

// defaultRates returns labor hours per unit for common construction items.
// Units vary by trade: concrete is per cubic foot, most others per square
// or linear foot, doors/windows/fixtures per each.
func defaultRates() map[model.Trade]map[string]decimal.Decimal {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	return map[model.Trade]map[string]decimal.Decimal{
		model.TradeConcrete: {
			"footing": d("0.15"),
			"wall":    d("0.20"),
			"slab":    d("0.12"),
			"column":  d("0.25"),
		},
		model.TradeMasonry: {
			"block_wall": d("0.08"),
			"brick_wall": d("0.12"),
			"stone_wall": d("0.18"),
		},
		model.TradeMetals: {
			"steel_beam":   d("0.30"),
			"steel_column": d("0.25"),
			"steel_joist":  d("0.15"),
		},
		model.TradeWood: {
			"framing":   d("0.06"),
			"sheathing": d("0.04"),
			"trim":      d("0.08"),
		},
		model.TradeThermal: {
			"insulation":    d("0.03"),
			"vapor_barrier": d("0.02"),
		},
		model.TradeDoorsWindows: {
			"door_install":   d("2.0"),
			"window_install": d("1.5"),
		},
		model.TradeFinishes: {
			"drywall":  d("0.12"),
			"paint":    d("0.08"),
			"flooring": d("0.15"),
			"tile":     d("0.20"),
		},
		model.TradeMechanical: {
			"duct_install":      d("0.10"),
			"pipe_install":      d("0.15"),
			"equipment_install": d("8.0"),
		},
		model.TradeElectrical: {
			"conduit":         d("0.08"),
			"wire_pull":       d("0.05"),
			"fixture_install": d("0.5"),
		},
	}
}

// defaultFactors returns the adjustment multipliers for site conditions.
func defaultFactors() map[string]map[string]decimal.Decimal {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	return map[string]map[string]decimal.Decimal{
		"weather": {
			"excellent": d("0.9"),
			"good":      d("1.0"),
			"fair":      d("1.1"),
			"poor":      d("1.3"),
			"severe":    d("1.5"),
		},
		"access": {
			"excellent": d("0.9"),
			"good":      d("1.0"),
			"fair":      d("1.1"),
			"poor":      d("1.3"),
			"difficult": d("1.6"),
		},
		"complexity": {
			"simple":       d("0.8"),
			"standard":     d("1.0"),
			"complex":      d("1.3"),
			"very_complex": d("1.7"),
		},
		"crew_size": {
			"small":    d("1.2"),
			"standard": d("1.0"),
			"large":    d("0.9"),
		},
		"experience": {
			"apprentice": d("1.5"),
			"journeyman": d("1.0"),
			"master":     d("0.8"),
		},
	}
}

// tablesFile is the YAML shape for replacement tables.
type tablesFile struct {
	Rates   map[string]map[string]string `yaml:"rates"`   // trade -> item type -> hours/unit
	Factors map[string]map[string]string `yaml:"factors"` // factor type -> condition -> multiplier
}

// LoadTables merges rates and factors from a YAML file into the resolver.
// File entries replace matching defaults; everything else keeps its default.
func (r *Resolver) LoadTables(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "productivity: read tables %s", path)
	}

	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return eris.Wrap(err, "productivity: parse tables")
	}

	for trade, byType := range f.Rates {
		for itemType, raw := range byType {
			rate, err := decimal.NewFromString(raw)
			if err != nil {
				return eris.Wrapf(err, "productivity: rate %s/%s", trade, itemType)
			}
			r.SetRate(model.Trade(trade), itemType, rate)
		}
	}

	for factorType, byCondition := range f.Factors {
		for condition, raw := range byCondition {
			mult, err := decimal.NewFromString(raw)
			if err != nil {
				return eris.Wrapf(err, "productivity: factor %s/%s", factorType, condition)
			}
			if r.factors[factorType] == nil {
				r.factors[factorType] = make(map[string]decimal.Decimal)
			}
			r.factors[factorType][condition] = mult
		}
	}

	return nil
}
