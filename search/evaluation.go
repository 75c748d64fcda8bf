package search

import (
	"fmt"
	"math"
)

// DefaultConfidence is assigned when fewer than two scoring samples exist
// (single-sample cache hits included), leaving no variance to measure.
const DefaultConfidence = 0.8

// Evaluation is the scoring record for one thought in one run.
type Evaluation struct {
	ThoughtID string

	// OverallScore is the arithmetic mean of RawScores, in [0,10].
	OverallScore float64

	// Confidence in [0,1], derived from the variance of RawScores.
	Confidence float64

	// EvaluatorOrigin names the category that performed the scoring,
	// or OriginCross for cross-category evaluation.
	EvaluatorOrigin Origin

	// Breakdown holds optional named sub-scores (e.g. per-category
	// averages from cross-evaluation).
	Breakdown map[string]float64

	// RawScores are the individual repeated-measurement samples, in the
	// order they were taken. Never empty.
	RawScores []float64
}

// Validate checks the Evaluation invariants. A violation indicates a
// contract breach by an evaluator implementation and is always fatal.
func (e *Evaluation) Validate() error {
	if len(e.RawScores) == 0 {
		return NewInvariantViolation(fmt.Errorf("evaluation for %s has no raw scores", e.ThoughtID))
	}
	if e.OverallScore < 0 || e.OverallScore > 10 {
		return NewInvariantViolation(fmt.Errorf("evaluation for %s: score %.3f out of [0,10]", e.ThoughtID, e.OverallScore))
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return NewInvariantViolation(fmt.Errorf("evaluation for %s: confidence %.3f out of [0,1]", e.ThoughtID, e.Confidence))
	}
	return nil
}

// Mean returns the arithmetic mean of samples, or 0 for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Variance returns the population variance of samples.
func Variance(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	mean := Mean(samples)
	var sum float64
	for _, s := range samples {
		d := s - mean
		sum += d * d
	}
	return sum / float64(len(samples))
}

// ConfidenceFromSamples derives scoring confidence from sample variance:
// max(0.5, 1 - variance/8), rounded to two decimals. Zero or one sample
// yields DefaultConfidence.
func ConfidenceFromSamples(samples []float64) float64 {
	if len(samples) < 2 {
		return DefaultConfidence
	}
	c := 1 - Variance(samples)/8
	if c < 0.5 {
		c = 0.5
	}
	return math.Round(c*100) / 100
}
