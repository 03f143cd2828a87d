package model

// Phase identifies a project phase by code. Standard phases are listed below,
// but any code found in takeoff data is carried through as-is.
type Phase string

const (
	PhasePreConstruction Phase = "pre_construction"
	PhaseSiteWork        Phase = "site_work"
	PhaseFoundation      Phase = "foundation"
	PhaseStructure       Phase = "structure"
	PhaseEnclosure       Phase = "enclosure"
	PhaseInteriors       Phase = "interiors"
	PhaseMechanical      Phase = "mechanical"
	PhaseElectrical      Phase = "electrical"
	PhaseFinishes        Phase = "finishes"
	PhaseCloseout        Phase = "closeout"
	PhaseGeneral         Phase = "general"
)

// PhaseUnclassified collects direct costs for items whose phase code is empty.
const PhaseUnclassified Phase = "unclassified"

// Trade identifies a construction trade.
type Trade string

const (
	TradeGeneral      Trade = "general"
	TradeExcavation   Trade = "excavation"
	TradeConcrete     Trade = "concrete"
	TradeMasonry      Trade = "masonry"
	TradeMetals       Trade = "metals"
	TradeWood         Trade = "wood"
	TradeThermal      Trade = "thermal"
	TradeDoorsWindows Trade = "doors_windows"
	TradeFinishes     Trade = "finishes"
	TradeSpecialties  Trade = "specialties"
	TradeEquipment    Trade = "equipment"
	TradeMechanical   Trade = "mechanical"
	TradeElectrical   Trade = "electrical"
)

// AllTrades lists every known trade.
func AllTrades() []Trade {
	return []Trade{
		TradeGeneral, TradeExcavation, TradeConcrete, TradeMasonry,
		TradeMetals, TradeWood, TradeThermal, TradeDoorsWindows,
		TradeFinishes, TradeSpecialties, TradeEquipment,
		TradeMechanical, TradeElectrical,
	}
}

// Valid reports whether the trade is one of the known trades.
func (t Trade) Valid() bool {
	for _, known := range AllTrades() {
		if t == known {
			return true
		}
	}
	return false
}

// CostType categorizes what a line item's cost primarily represents.
type CostType string

const (
	CostTypeMaterial  CostType = "material"
	CostTypeLabor     CostType = "labor"
	CostTypeEquipment CostType = "equipment"
	CostTypeOverhead  CostType = "overhead"
	CostTypeProfit    CostType = "profit"
)

// Valid reports whether the cost type is one of the known cost types.
func (ct CostType) Valid() bool {
	switch ct {
	case CostTypeMaterial, CostTypeLabor, CostTypeEquipment, CostTypeOverhead, CostTypeProfit:
		return true
	}
	return false
}

// EstimateClass is an AACE estimate classification, from Class 5 (least
// defined, conceptual) to Class 1 (most defined, bid-ready).
type EstimateClass string

const (
	Class5 EstimateClass = "Class 5"
	Class4 EstimateClass = "Class 4"
	Class3 EstimateClass = "Class 3"
	Class2 EstimateClass = "Class 2"
	Class1 EstimateClass = "Class 1"
)

// classRanks orders estimate classes from least to most defined.
var classRanks = map[EstimateClass]int{
	Class5: 1,
	Class4: 2,
	Class3: 3,
	Class2: 4,
	Class1: 5,
}

// Rank returns the ordinal position of the class (1 = least defined,
// 5 = most defined). Unknown classes rank 0.
func (c EstimateClass) Rank() int {
	return classRanks[c]
}

// Valid reports whether the class is one of the five AACE classes.
func (c EstimateClass) Valid() bool {
	_, ok := classRanks[c]
	return ok
}
