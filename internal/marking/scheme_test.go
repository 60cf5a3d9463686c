package marking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScheme_Presets(t *testing.T) {
	tests := []struct {
		marks int
		kaa   int
		eval  int
	}{
		{25, 15, 10},
		{20, 14, 6},
		{15, 9, 6},
		{10, 6, 4},
		{8, 6, 2},
		{5, 5, 0},
	}

	for _, tt := range tests {
		s := ResolveScheme(tt.marks)
		assert.Equal(t, tt.marks, s.TotalMarks)
		assert.Equal(t, tt.kaa, s.KAAMarks, "kaa for %d marks", tt.marks)
		assert.Equal(t, tt.eval, s.EvaluationMarks, "evaluation for %d marks", tt.marks)
		assert.NotEqual(t, fallbackStructureHint, s.StructureHint)
	}

	assert.Contains(t, ResolveScheme(5).StructureHint, "no evaluation needed")
	assert.False(t, ResolveScheme(5).NeedsEvaluation())
}

func TestResolveScheme_Fallback(t *testing.T) {
	for m := 1; m <= 200; m++ {
		if _, ok := presetSchemes[m]; ok {
			continue
		}
		s := ResolveScheme(m)
		// ceil(0.6m) == smallest k with 10k >= 6m; floor(0.4m) == largest e with 10e <= 4m
		assert.GreaterOrEqual(t, 10*s.KAAMarks, 6*m, "kaa for %d", m)
		assert.Less(t, 10*(s.KAAMarks-1), 6*m, "kaa for %d", m)
		assert.LessOrEqual(t, 10*s.EvaluationMarks, 4*m, "evaluation for %d", m)
		assert.Greater(t, 10*(s.EvaluationMarks+1), 4*m, "evaluation for %d", m)
		assert.Equal(t, int(math.Ceil(0.6*float64(m)-1e-9)), s.KAAMarks, "kaa for %d", m)
		assert.Equal(t, m, s.KAAMarks+s.EvaluationMarks, "split for %d", m)
		assert.Equal(t, fallbackStructureHint, s.StructureHint)
	}
}

func TestMarkScheme_AOSplitSumsToKAA(t *testing.T) {
	for m := 1; m <= 60; m++ {
		s := ResolveScheme(m)
		k, ap, an := s.AOSplit()
		assert.Equal(t, s.KAAMarks, k+ap+an, "marks %d", m)
		assert.GreaterOrEqual(t, an, 0)
	}

	k, ap, an := ResolveScheme(25).AOSplit()
	assert.Equal(t, []int{5, 4, 6}, []int{k, ap, an})
}

func TestBands(t *testing.T) {
	assert.Equal(t, []Band{
		{Level: 4, Label: "Excellent", Min: 19, Max: 25},
		{Level: 3, Label: "Good", Min: 13, Max: 18},
		{Level: 2, Label: "Basic", Min: 6, Max: 12},
		{Level: 1, Label: "Poor", Min: 0, Max: 5},
	}, Bands(25))

	five := Bands(5)
	assert.Len(t, five, 4)
	assert.Equal(t, "4-5", five[0].Range())
	assert.Equal(t, "3", five[1].Range())

	assert.Nil(t, Bands(0))
}

func TestBands_ContiguousAndCoverTotal(t *testing.T) {
	for total := 1; total <= 50; total++ {
		bands := Bands(total)
		if assert.NotEmpty(t, bands, "total %d", total) {
			assert.Equal(t, total, bands[0].Max)
			assert.Equal(t, 0, bands[len(bands)-1].Min)
		}
		for i := 1; i < len(bands); i++ {
			assert.Equal(t, bands[i-1].Min-1, bands[i].Max, "total %d", total)
			assert.LessOrEqual(t, bands[i].Min, bands[i].Max)
		}
	}
}
