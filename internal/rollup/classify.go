package rollup

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meridian-build/estimator/internal/model"
)

// UnknownClass labels a cost that matches no band.
const UnknownClass = "Unknown"

// CostRange is one classification band covering [Min, Max). A nil Max
// leaves the band unbounded above.
type CostRange struct {
	Name  string           `json:"name"`
	Label string           `json:"label"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
}

// Contains reports whether cost falls inside the band.
func (r CostRange) Contains(cost decimal.Decimal) bool {
	if cost.LessThan(r.Min) {
		return false
	}
	return r.Max == nil || cost.LessThan(*r.Max)
}

// RangeSet is an ordered list of classification bands. The first band
// containing a cost wins.
type RangeSet []CostRange

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultRanges returns the standard four cost bands.
func DefaultRanges() RangeSet {
	return RangeSet{
		{Name: "low", Label: "Low", Min: decimal.Zero, Max: bound(1000)},
		{Name: "medium", Label: "Medium", Min: decimal.NewFromInt(1000), Max: bound(10000)},
		{Name: "high", Label: "High", Min: decimal.NewFromInt(10000), Max: bound(100000)},
		{Name: "very_high", Label: "Very High", Min: decimal.NewFromInt(100000)},
	}
}

// Classify returns the label of the first band containing cost, or
// UnknownClass when no band does.
func (rs RangeSet) Classify(cost decimal.Decimal) string {
	for _, r := range rs {
		if r.Contains(cost) {
			return r.Label
		}
	}
	return UnknownClass
}

// ClassifyItems groups item IDs by the cost class of their total cost.
// IDs within each class are sorted.
func (rs RangeSet) ClassifyItems(breakdowns map[string]model.CostBreakdown) map[string][]string {
	ids := make([]string, 0, len(breakdowns))
	for id := range breakdowns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	classes := make(map[string][]string)
	for _, id := range ids {
		label := rs.Classify(breakdowns[id].Total())
		classes[label] = append(classes[label], id)
	}
	return classes
}

// rangeFile is the YAML shape of a custom range set. Bounds are read as
// strings so quoted and bare scalars both parse exactly.
type rangeFile []struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Min   string `yaml:"min"`
	Max   string `yaml:"max"`
}

// LoadRanges reads a custom range set from a YAML file. Bands keep file
// order; an empty max leaves the band unbounded above.
func LoadRanges(path string) (RangeSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rollup: read ranges %s", path)
	}

	var f rangeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "rollup: parse ranges")
	}
	if len(f) == 0 {
		return nil, eris.Errorf("rollup: no ranges in %s", path)
	}

	rs := make(RangeSet, 0, len(f))
	for i, b := range f {
		label := b.Label
		if label == "" {
			label = b.Name
		}
		if label == "" {
			return nil, eris.Errorf("rollup: range %d has no label", i)
		}

		min := decimal.Zero
		if b.Min != "" {
			if min, err = decimal.NewFromString(b.Min); err != nil {
				return nil, eris.Wrapf(err, "rollup: range %q min", label)
			}
		}
		var max *decimal.Decimal
		if b.Max != "" {
			m, err := decimal.NewFromString(b.Max)
			if err != nil {
				return nil, eris.Wrapf(err, "rollup: range %q max", label)
			}
			max = &m
		}

		rs = append(rs, CostRange{Name: b.Name, Label: label, Min: min, Max: max})
	}
	return rs, nil
}
