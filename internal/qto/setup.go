package qto

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/meridian-build/estimator/internal/model"
)

// Setup bundles everything a calculation run needs besides the takeoff
// itself: project settings, phase contingencies, rooms, labor classes,
// and productivity entries.
type Setup struct {
	Project        model.Project
	Phases         []model.PhaseConfig
	Rooms          []model.Room
	LaborClasses   []model.LaborClass
	Productivities []model.ProductivityEntry
}

// setupFile is the YAML shape of a project setup file. Decimal fields are
// read as strings so quoted and bare scalars both parse exactly.
type setupFile struct {
	Project struct {
		Name           string `yaml:"name"`
		Location       string `yaml:"location"`
		ProjectType    string `yaml:"project_type"`
		EstimateClass  string `yaml:"estimate_class"`
		OverheadPct    string `yaml:"overhead_pct"`
		ProfitPct      string `yaml:"profit_pct"`
		RegionalFactor string `yaml:"regional_factor"`
		Currency       string `yaml:"currency"`
		Units          string `yaml:"units"`
	} `yaml:"project"`
	Phases []struct {
		Code           string `yaml:"code"`
		Name           string `yaml:"name"`
		ContingencyPct string `yaml:"contingency_pct"`
	} `yaml:"phases"`
	Rooms []struct {
		Name       string `yaml:"name"`
		Area       string `yaml:"area"`
		Height     string `yaml:"height"`
		Multiplier string `yaml:"multiplier"`
	} `yaml:"rooms"`
	LaborClasses []struct {
		Name      string `yaml:"name"`
		BaseRate  string `yaml:"base_rate"`
		BurdenPct string `yaml:"burden_pct"`
	} `yaml:"labor_classes"`
	Productivity []struct {
		ItemCode     string             `yaml:"item_code"`
		HoursPerUnit string             `yaml:"hours_per_unit"`
		Factors      map[string]float64 `yaml:"factors"`
	} `yaml:"productivity"`
}

// LoadSetup reads a project setup YAML file and converts it into engine
// input types. An unknown estimate class fails the load; phase codes are
// carried through as-is.
func LoadSetup(path string) (*Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "qto: read setup %s", path)
	}

	var f setupFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "qto: parse setup")
	}

	if strings.TrimSpace(f.Project.Name) == "" {
		return nil, eris.New("qto: setup project.name is required")
	}
	class := model.EstimateClass(f.Project.EstimateClass)
	if class != "" && !class.Valid() {
		return nil, eris.Errorf("qto: unknown estimate class %q", f.Project.EstimateClass)
	}

	overhead, err := setupDecimal(f.Project.OverheadPct, "project.overhead_pct")
	if err != nil {
		return nil, err
	}
	profit, err := setupDecimal(f.Project.ProfitPct, "project.profit_pct")
	if err != nil {
		return nil, err
	}
	regional, err := setupDecimal(f.Project.RegionalFactor, "project.regional_factor")
	if err != nil {
		return nil, err
	}

	s := &Setup{
		Project: model.Project{
			Name:           strings.TrimSpace(f.Project.Name),
			Location:       f.Project.Location,
			ProjectType:    f.Project.ProjectType,
			EstimateClass:  class,
			OverheadPct:    overhead,
			ProfitPct:      profit,
			RegionalFactor: regional,
			Currency:       f.Project.Currency,
			Units:          f.Project.Units,
		},
	}

	for _, p := range f.Phases {
		if strings.TrimSpace(p.Code) == "" {
			return nil, eris.New("qto: setup phase with empty code")
		}
		contingency, err := setupDecimal(p.ContingencyPct, "phases."+p.Code+".contingency_pct")
		if err != nil {
			return nil, err
		}
		s.Phases = append(s.Phases, model.PhaseConfig{
			Code:           model.Phase(strings.TrimSpace(p.Code)),
			Name:           p.Name,
			ContingencyPct: contingency,
		})
	}

	for _, r := range f.Rooms {
		if strings.TrimSpace(r.Name) == "" {
			return nil, eris.New("qto: setup room with empty name")
		}
		area, err := setupDecimal(r.Area, "rooms."+r.Name+".area")
		if err != nil {
			return nil, err
		}
		height, err := setupDecimal(r.Height, "rooms."+r.Name+".height")
		if err != nil {
			return nil, err
		}
		multiplier, err := setupDecimal(r.Multiplier, "rooms."+r.Name+".multiplier")
		if err != nil {
			return nil, err
		}
		s.Rooms = append(s.Rooms, model.Room{
			Name:       strings.TrimSpace(r.Name),
			Area:       area,
			Height:     height,
			Multiplier: multiplier,
		})
	}

	for _, lc := range f.LaborClasses {
		if strings.TrimSpace(lc.Name) == "" {
			return nil, eris.New("qto: setup labor class with empty name")
		}
		base, err := setupDecimal(lc.BaseRate, "labor_classes."+lc.Name+".base_rate")
		if err != nil {
			return nil, err
		}
		burden, err := setupDecimal(lc.BurdenPct, "labor_classes."+lc.Name+".burden_pct")
		if err != nil {
			return nil, err
		}
		s.LaborClasses = append(s.LaborClasses, model.LaborClass{
			Name:      strings.TrimSpace(lc.Name),
			BaseRate:  base,
			BurdenPct: burden,
		})
	}

	for _, p := range f.Productivity {
		if strings.TrimSpace(p.ItemCode) == "" {
			return nil, eris.New("qto: setup productivity entry with empty item code")
		}
		hours, err := setupDecimal(p.HoursPerUnit, "productivity."+p.ItemCode+".hours_per_unit")
		if err != nil {
			return nil, err
		}
		s.Productivities = append(s.Productivities, model.ProductivityEntry{
			ItemCode:     strings.TrimSpace(p.ItemCode),
			HoursPerUnit: hours,
			Factors:      p.Factors,
		})
	}

	return s, nil
}

// setupDecimal parses one decimal field; empty means zero.
func setupDecimal(raw, field string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, eris.Wrapf(err, "qto: setup %s", field)
	}
	return d, nil
}
