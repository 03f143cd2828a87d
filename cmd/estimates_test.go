package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridian-build/estimator/internal/store"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestFormatEstimatesList(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	rows := []store.EstimateSummary{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Name:       "Maple St Remodel",
			Client:     "Hargrove Builders",
			Status:     store.StatusDraft,
			GrandTotal: dec(t, "1391.5"),
			CreatedAt:  now,
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			Name:       "Downtown Office Fit-Out Phase Two Expansion",
			Client:     "Pinnacle Homes",
			Status:     store.StatusFinal,
			GrandTotal: dec(t, "250000"),
			CreatedAt:  now.Add(-24 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatEstimatesList(&buf, rows)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "NAME")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "Maple St Remodel")
	assert.Contains(t, output, "Hargrove Builders")
	assert.Contains(t, output, "draft")
	assert.Contains(t, output, "1391.50")
	assert.Contains(t, output, "2026-03-10 09:30")
	assert.Contains(t, output, "final")
	assert.Contains(t, output, "Downtown Office Fit-Out Pha...", "long names are truncated")
	assert.NotContains(t, output, "Expansion")
}

func TestEstimateStats(t *testing.T) {
	rows := []store.EstimateSummary{
		{ID: "1", Status: store.StatusDraft, GrandTotal: dec(t, "1000")},
		{ID: "2", Status: store.StatusDraft, GrandTotal: dec(t, "2000")},
		{ID: "3", Status: store.StatusFinal, GrandTotal: dec(t, "45000")},
		{ID: "4", Status: store.StatusArchived, GrandTotal: dec(t, "12000")},
	}

	stats := computeEstimateStats(rows)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Draft)
	assert.Equal(t, 1, stats.Final)
	assert.Equal(t, 1, stats.Archived)
	assert.Equal(t, 0, stats.Other)
	assert.True(t, stats.TotalValue.Equal(dec(t, "60000")), "total %s", stats.TotalValue)
	assert.True(t, stats.AvgValue.Equal(dec(t, "15000")), "avg %s", stats.AvgValue)

	var buf bytes.Buffer
	formatEstimateStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total estimates:")
	assert.Contains(t, output, "Draft:")
	assert.Contains(t, output, "Final:")
	assert.Contains(t, output, "Archived:")
	assert.NotContains(t, output, "Other:")
	assert.Contains(t, output, "60000.00")
	assert.Contains(t, output, "15000.00")
}

func TestEstimateStats_Empty(t *testing.T) {
	stats := computeEstimateStats(nil)
	assert.Equal(t, 0, stats.Total)
	assert.True(t, stats.TotalValue.IsZero())

	var buf bytes.Buffer
	formatEstimateStats(&buf, stats)
	assert.Contains(t, buf.String(), "Total estimates:")
	assert.NotContains(t, buf.String(), "Avg value:")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
