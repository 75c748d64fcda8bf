package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mindtree/cache"
	"github.com/hrygo/mindtree/search"
)

func crossValueConfig() search.SearchConfig {
	cfg := valueConfig()
	cfg.CrossEvaluation = true
	return cfg
}

func TestCrossValue_AgreementTakesMean(t *testing.T) {
	e := New(crossValueConfig(),
		WithScorer(search.OriginCreative, fixedScorer(8)),
		WithScorer(search.OriginPractical, fixedScorer(8.2)),
	)
	batch := batchOf("close call")

	evals, err := e.EvaluateBatch(context.Background(), "p", batch)
	require.NoError(t, err)

	ev := evals[batch[0].ID]
	assert.InDelta(t, 8.1, ev.OverallScore, 1e-9)
	assert.Equal(t, search.OriginCross, ev.EvaluatorOrigin)
	assert.Equal(t, []float64{8, 8.2}, ev.RawScores)
	assert.Greater(t, ev.Breakdown["agreement"], 0.8)
}

func TestCrossValue_DisagreementTakesMinimum(t *testing.T) {
	e := New(crossValueConfig(),
		WithScorer(search.OriginCreative, fixedScorer(9)),
		WithScorer(search.OriginPractical, fixedScorer(3)),
	)
	batch := batchOf("contested")

	evals, err := e.EvaluateBatch(context.Background(), "p", batch)
	require.NoError(t, err)

	ev := evals[batch[0].ID]
	assert.Equal(t, 3.0, ev.OverallScore, "low agreement keeps the conservative score")
	assert.Equal(t, 0.5, ev.Confidence)
	assert.Equal(t, 9.0, ev.Breakdown["creative"])
	assert.Equal(t, 3.0, ev.Breakdown["practical"])
}

func TestCrossValue_RequiresBothScorers(t *testing.T) {
	e := New(crossValueConfig(), WithScorer(search.OriginCreative, fixedScorer(8)))
	_, err := e.EvaluateBatch(context.Background(), "p", batchOf("a"))
	assert.True(t, search.IsKind(err, search.KindEvaluationFailed))
}

func TestCrossValue_CacheHit(t *testing.T) {
	cfg := crossValueConfig()
	cfg.CacheEnabled = true

	scores := cache.NewScoreCache(16, time.Minute)
	scores.Put("p", "known", 7.7)

	e := New(cfg,
		WithScorer(search.OriginCreative, fixedScorer(1)),
		WithScorer(search.OriginPractical, fixedScorer(1)),
		WithScoreCache(scores),
	)
	batch := batchOf("known")

	evals, err := e.EvaluateBatch(context.Background(), "p", batch)
	require.NoError(t, err)

	ev := evals[batch[0].ID]
	assert.Equal(t, 7.7, ev.OverallScore)
	assert.Equal(t, search.DefaultConfidence, ev.Confidence)
	assert.Equal(t, search.OriginCross, ev.EvaluatorOrigin)
}

func TestCombineCrossValue_AgreementBoundary(t *testing.T) {
	t.Run("identical averages agree fully", func(t *testing.T) {
		ev := combineCrossValue("t", 6, 6)
		assert.Equal(t, 6.0, ev.OverallScore)
		assert.Equal(t, 1.0, ev.Breakdown["agreement"])
	})
	t.Run("both zero treated as full agreement", func(t *testing.T) {
		ev := combineCrossValue("t", 0, 0)
		assert.Equal(t, 0.0, ev.OverallScore)
		assert.Equal(t, 1.0, ev.Breakdown["agreement"])
	})
}

func crossVoteConfig() search.SearchConfig {
	cfg := voteConfig()
	cfg.CrossEvaluation = true
	return cfg
}

func TestCrossVote_HighConsensusAveragesCategories(t *testing.T) {
	ranking := []int{2, 0, 1}
	e := New(crossVoteConfig(),
		WithRanker(search.OriginCreative, fixedRanker(ranking)),
		WithRanker(search.OriginPractical, fixedRanker(ranking)),
	)
	batch := batchOf("a", "b", "c")

	evals, err := e.EvaluateBatch(context.Background(), "p", batch)
	require.NoError(t, err)

	winner := evals[batch[2].ID]
	assert.Equal(t, 10.0, winner.OverallScore)
	assert.Equal(t, 1.0, winner.Breakdown["consensus"])
	assert.Equal(t, search.OriginCross, winner.EvaluatorOrigin)
}

func TestCrossVote_LowConsensusBlendsTowardPractical(t *testing.T) {
	e := New(crossVoteConfig(),
		WithRanker(search.OriginCreative, fixedRanker([]int{0, 1, 2})),
		WithRanker(search.OriginPractical, fixedRanker([]int{2, 1, 0})),
	)
	batch := batchOf("a", "b", "c")

	evals, err := e.EvaluateBatch(context.Background(), "p", batch)
	require.NoError(t, err)

	// Creative Borda: a 10, b 20/3, c 10/3. Practical is the mirror image,
	// so consensus is -1 and the 0.4/0.6 blend applies.
	evA := evals[batch[0].ID]
	assert.InDelta(t, 0.4*10+0.6*10.0/3, evA.OverallScore, 1e-9)
	assert.Equal(t, 0.5, evA.Confidence)
	assert.InDelta(t, -1.0, evA.Breakdown["consensus"], 1e-9)

	evB := evals[batch[1].ID]
	assert.InDelta(t, 20.0/3, evB.OverallScore, 1e-9, "middle candidate is unchanged by the blend")
}

func TestCrossVote_RequiresBothRankers(t *testing.T) {
	e := New(crossVoteConfig(), WithRanker(search.OriginCreative, fixedRanker([]int{0})))
	_, err := e.EvaluateBatch(context.Background(), "p", batchOf("a"))
	assert.True(t, search.IsKind(err, search.KindEvaluationFailed))
}

func TestSpearman(t *testing.T) {
	assert.InDelta(t, 1.0, spearman([]float64{1, 2, 3}, []float64{4, 5, 6}), 1e-9)
	assert.InDelta(t, -1.0, spearman([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-9)
	assert.InDelta(t, 1.0, spearman([]float64{5}, []float64{9}), 1e-9, "short vectors correlate by convention")
}

func TestFractionalRanks(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, fractionalRanks([]float64{2, 5, 9}))

	t.Run("ties share averaged ranks", func(t *testing.T) {
		ranks := fractionalRanks([]float64{7, 7, 3})
		assert.Equal(t, []float64{2.5, 2.5, 1}, ranks)
	})
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.5, clampConfidence(-1))
	assert.Equal(t, 0.5, clampConfidence(0.2))
	assert.Equal(t, 0.73, clampConfidence(0.734))
	assert.Equal(t, 1.0, clampConfidence(1.4))
}
