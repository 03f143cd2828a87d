package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateClassRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class EstimateClass
		want  int
	}{
		{Class5, 1},
		{Class4, 2},
		{Class3, 3},
		{Class2, 4},
		{Class1, 5},
		{EstimateClass("Class 9"), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.class), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.class.Rank())
		})
	}
}

func TestEstimateClassValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Class3.Valid())
	assert.False(t, EstimateClass("conceptual").Valid())
	assert.False(t, EstimateClass("").Valid())
}

func TestPhaseValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phase Phase
		want  string
	}{
		{PhasePreConstruction, "pre_construction"},
		{PhaseSiteWork, "site_work"},
		{PhaseFoundation, "foundation"},
		{PhaseStructure, "structure"},
		{PhaseEnclosure, "enclosure"},
		{PhaseInteriors, "interiors"},
		{PhaseMechanical, "mechanical"},
		{PhaseElectrical, "electrical"},
		{PhaseFinishes, "finishes"},
		{PhaseCloseout, "closeout"},
		{PhaseGeneral, "general"},
		{PhaseUnclassified, "unclassified"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.phase))
		})
	}
}
