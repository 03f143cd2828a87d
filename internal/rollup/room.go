package rollup

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-build/estimator/internal/model"
)

var one = decimal.NewFromInt(1)

// RoomBucket accumulates costs allocated to one room.
type RoomBucket struct {
	Material    decimal.Decimal `json:"material"`
	Labor       decimal.Decimal `json:"labor"`
	Equipment   decimal.Decimal `json:"equipment"`
	Overhead    decimal.Decimal `json:"overhead"`
	Profit      decimal.Decimal `json:"profit"`
	Total       decimal.Decimal `json:"total"`
	Area        decimal.Decimal `json:"area"`
	CostPerArea decimal.Decimal `json:"cost_per_sf"`
	LineItems   []string        `json:"line_items"`
}

// add accumulates the ratio share of a breakdown. Full allocation passes a
// ratio of one.
func (b *RoomBucket) add(id string, cb model.CostBreakdown, ratio decimal.Decimal) {
	b.Material = b.Material.Add(cb.Material.Mul(ratio))
	b.Labor = b.Labor.Add(cb.Labor.Mul(ratio))
	b.Equipment = b.Equipment.Add(cb.Equipment.Mul(ratio))
	b.Overhead = b.Overhead.Add(cb.Overhead.Mul(ratio))
	b.Profit = b.Profit.Add(cb.Profit.Mul(ratio))
	b.Total = b.Total.Add(cb.Total().Mul(ratio))
	b.LineItems = append(b.LineItems, id)
}

// RoomView groups costs by room. Costs that cannot be placed in any room
// are reported under Unallocated instead of being dropped.
type RoomView struct {
	Rooms            map[string]*RoomBucket `json:"rooms"`
	Unallocated      decimal.Decimal        `json:"unallocated"`
	UnallocatedItems []string               `json:"unallocated_items,omitempty"`
}

// Totals returns each room's allocated total keyed by room name. The
// unallocated remainder is not included.
func (v *RoomView) Totals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(v.Rooms))
	for name, b := range v.Rooms {
		totals[name] = b.Total
	}
	return totals
}

func (v *RoomView) bucketFor(r model.Room) *RoomBucket {
	b, ok := v.Rooms[r.Name]
	if !ok {
		b = &RoomBucket{Area: r.Area}
		v.Rooms[r.Name] = b
	}
	return b
}

// ByRoom allocates breakdowns across rooms. An item tagged with rooms puts
// its full cost in every room it names, not a split share. An untagged item
// is spread across all rooms in proportion to each room's share of the
// total area; when no room area is known its cost lands in Unallocated.
func ByRoom(breakdowns map[string]model.CostBreakdown, items []model.LineItem, rooms []model.Room) *RoomView {
	view := &RoomView{Rooms: make(map[string]*RoomBucket, len(rooms))}
	roomByName := make(map[string]model.Room, len(rooms))
	for _, r := range rooms {
		roomByName[r.Name] = r
	}
	totalArea := model.TotalArea(rooms)

	for _, it := range items {
		cb, ok := breakdowns[it.ID]
		if !ok {
			continue
		}

		if len(it.Rooms) == 0 {
			if !totalArea.IsPositive() {
				view.Unallocated = view.Unallocated.Add(cb.Total())
				view.UnallocatedItems = append(view.UnallocatedItems, it.ID)
				continue
			}
			for _, room := range rooms {
				view.bucketFor(room).add(it.ID, cb, room.Area.Div(totalArea))
			}
			continue
		}

		for _, name := range it.Rooms {
			room, ok := roomByName[name]
			if !ok {
				zap.L().Warn("line item names unknown room, allocation skipped",
					zap.String("item_id", it.ID),
					zap.String("room", name))
				continue
			}
			view.bucketFor(room).add(it.ID, cb, one)
		}
	}

	for _, b := range view.Rooms {
		if b.Area.IsPositive() {
			b.CostPerArea = b.Total.Div(b.Area)
		}
	}
	return view
}
