package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-build/estimator/internal/model"
	"github.com/meridian-build/estimator/internal/rollup"
)

func newTestMemory(t *testing.T) Store {
	t.Helper()
	s := NewMemory()
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "estimates.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRecord(name, client, total string) *EstimateRecord {
	return &EstimateRecord{
		Name:   name,
		Client: client,
		Project: model.Project{
			Name:          name,
			EstimateClass: model.Class3,
			OverheadPct:   dec("0.15"),
			ProfitPct:     dec("0.10"),
		},
		Phases: []model.PhaseConfig{
			{Code: model.PhaseFoundation, Name: "Foundation", ContingencyPct: dec("0.05")},
		},
		LaborClasses: []model.LaborClass{
			{Name: "finish_carpenter", BaseRate: dec("38"), BurdenPct: dec("0.35")},
		},
		Productivities: []model.ProductivityEntry{
			{ItemCode: "slab", HoursPerUnit: dec("0.02")},
		},
		Rooms: []model.Room{
			{Name: "Garage", Area: dec("400")},
		},
		Items: []model.LineItem{
			{
				ID:               "slab",
				Phase:            model.PhaseFoundation,
				Trade:            model.TradeConcrete,
				Description:      "4in slab on grade",
				Unit:             "SF",
				Quantity:         dec("1200"),
				MaterialUnitCost: dec("4.25"),
			},
		},
		Summary: &rollup.SummaryReport{
			Costs: rollup.CostSummary{TotalCost: dec(total)},
		},
		GrandTotal: dec(total),
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndGetEstimate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := testRecord("Maple St Remodel", "Hargrove Builders", "1391.5")
		require.NoError(t, s.SaveEstimate(ctx, rec))
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, StatusDraft, rec.Status)
		assert.False(t, rec.CreatedAt.IsZero())

		got, err := s.GetEstimate(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, "Maple St Remodel", got.Name)
		assert.Equal(t, "Hargrove Builders", got.Client)
		assert.Equal(t, StatusDraft, got.Status)
		assert.Equal(t, "Maple St Remodel", got.Project.Name)
		assert.Equal(t, model.Class3, got.Project.EstimateClass)
		require.Len(t, got.Phases, 1)
		assert.Equal(t, model.PhaseFoundation, got.Phases[0].Code)
		assert.True(t, got.Phases[0].ContingencyPct.Equal(dec("0.05")))
		require.Len(t, got.LaborClasses, 1)
		assert.Equal(t, "finish_carpenter", got.LaborClasses[0].Name)
		require.Len(t, got.Productivities, 1)
		assert.True(t, got.Productivities[0].HoursPerUnit.Equal(dec("0.02")))
		require.Len(t, got.Rooms, 1)
		assert.Equal(t, "Garage", got.Rooms[0].Name)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "4in slab on grade", got.Items[0].Description)
		assert.True(t, got.GrandTotal.Equal(dec("1391.5")), "grand total %s", got.GrandTotal)
		require.NotNil(t, got.Summary)
		assert.True(t, got.Summary.Costs.TotalCost.Equal(dec("1391.5")))
	})

	t.Run("SaveWithoutSummary", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := testRecord("No Summary", "", "100")
		rec.Summary = nil
		require.NoError(t, s.SaveEstimate(ctx, rec))

		got, err := s.GetEstimate(ctx, rec.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Summary)
	})

	t.Run("SaveOverwritesByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := testRecord("Draft Pass", "Hargrove Builders", "1000")
		require.NoError(t, s.SaveEstimate(ctx, rec))

		rec.Name = "Final Pass"
		rec.Status = StatusFinal
		rec.GrandTotal = dec("1050")
		require.NoError(t, s.SaveEstimate(ctx, rec))

		got, err := s.GetEstimate(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final Pass", got.Name)
		assert.Equal(t, StatusFinal, got.Status)
		assert.True(t, got.GrandTotal.Equal(dec("1050")))

		rows, err := s.ListEstimates(ctx, EstimateFilter{})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("GetMissingEstimate", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetEstimate(context.Background(), "no-such-id")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "estimate not found")
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

		old := testRecord("Oldest", "", "100")
		old.CreatedAt = base
		mid := testRecord("Middle", "", "200")
		mid.CreatedAt = base.Add(time.Hour)
		newest := testRecord("Newest", "", "300")
		newest.CreatedAt = base.Add(2 * time.Hour)

		// Insertion order should not matter.
		require.NoError(t, s.SaveEstimate(ctx, mid))
		require.NoError(t, s.SaveEstimate(ctx, newest))
		require.NoError(t, s.SaveEstimate(ctx, old))

		rows, err := s.ListEstimates(ctx, EstimateFilter{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Newest", rows[0].Name)
		assert.Equal(t, "Middle", rows[1].Name)
		assert.Equal(t, "Oldest", rows[2].Name)
	})

	t.Run("ListFiltersByStatusAndClient", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		draft := testRecord("Draft Job", "Hargrove Builders", "100")
		final := testRecord("Final Job", "Hargrove Builders", "200")
		final.Status = StatusFinal
		other := testRecord("Other Client", "Pinnacle Homes", "300")
		for _, rec := range []*EstimateRecord{draft, final, other} {
			require.NoError(t, s.SaveEstimate(ctx, rec))
		}

		rows, err := s.ListEstimates(ctx, EstimateFilter{Status: StatusFinal})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Final Job", rows[0].Name)

		rows, err = s.ListEstimates(ctx, EstimateFilter{Client: "Hargrove Builders"})
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		rows, err = s.ListEstimates(ctx, EstimateFilter{Client: "Nobody"})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("ListLimitAndOffset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

		names := []string{"A", "B", "C", "D"}
		for i, name := range names {
			rec := testRecord(name, "", "100")
			rec.CreatedAt = base.Add(time.Duration(i) * time.Hour)
			require.NoError(t, s.SaveEstimate(ctx, rec))
		}

		rows, err := s.ListEstimates(ctx, EstimateFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "D", rows[0].Name)
		assert.Equal(t, "C", rows[1].Name)

		rows, err = s.ListEstimates(ctx, EstimateFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "B", rows[0].Name)
		assert.Equal(t, "A", rows[1].Name)

		rows, err = s.ListEstimates(ctx, EstimateFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("DeleteEstimate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec := testRecord("Short Lived", "", "100")
		require.NoError(t, s.SaveEstimate(ctx, rec))
		require.NoError(t, s.DeleteEstimate(ctx, rec.ID))

		_, err := s.GetEstimate(ctx, rec.ID)
		require.Error(t, err)

		err = s.DeleteEstimate(ctx, rec.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "estimate not found")
	})
}

func TestMemoryStore(t *testing.T) {
	storeTestSuite(t, newTestMemory)
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}
