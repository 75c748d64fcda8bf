package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceFromSamples(t *testing.T) {
	testCases := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"no samples uses default", nil, 0.8},
		{"one sample uses default", []float64{9}, 0.8},
		{"identical samples give full confidence", []float64{7, 7, 7}, 1.0},
		{"small spread", []float64{7, 8}, 0.97},          // variance 0.25
		{"wider spread", []float64{5, 9}, 0.5},           // variance 4, floored
		{"moderate spread", []float64{6, 7, 8}, 0.92},    // variance 2/3
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ConfidenceFromSamples(tc.samples), 1e-9)
		})
	}
}

// Confidence must never increase as variance grows, for a fixed sample count.
func TestConfidence_MonotoneInVariance(t *testing.T) {
	spreads := []float64{0, 0.5, 1, 1.5, 2, 3, 4, 5}
	prev := 1.1
	for _, spread := range spreads {
		c := ConfidenceFromSamples([]float64{5 - spread, 5 + spread})
		assert.LessOrEqual(t, c, prev, "spread %g", spread)
		prev = c
	}
}

func TestMeanVariance(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 7.0, Mean([]float64{6, 7, 8}))
	assert.Equal(t, 0.0, Variance([]float64{5}))
	assert.InDelta(t, 4.0, Variance([]float64{3, 7}), 1e-9)
}

func TestEvaluation_Validate(t *testing.T) {
	valid := &Evaluation{ThoughtID: "t1", OverallScore: 5, Confidence: 0.8, RawScores: []float64{5}}
	assert.NoError(t, valid.Validate())

	t.Run("empty raw scores", func(t *testing.T) {
		ev := &Evaluation{ThoughtID: "t1", OverallScore: 5, Confidence: 0.8}
		assert.True(t, IsKind(ev.Validate(), KindInvariantViolation))
	})
	t.Run("score out of range", func(t *testing.T) {
		ev := &Evaluation{ThoughtID: "t1", OverallScore: 11, Confidence: 0.8, RawScores: []float64{11}}
		assert.True(t, IsKind(ev.Validate(), KindInvariantViolation))
	})
	t.Run("confidence out of range", func(t *testing.T) {
		ev := &Evaluation{ThoughtID: "t1", OverallScore: 5, Confidence: 1.2, RawScores: []float64{5}}
		assert.True(t, IsKind(ev.Validate(), KindInvariantViolation))
	})
}
