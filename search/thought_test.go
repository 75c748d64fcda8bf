package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigin(t *testing.T) {
	testCases := []struct {
		name    string
		tag     string
		want    Origin
		wantErr bool
	}{
		{"creative", "creative", OriginCreative, false},
		{"practical", "practical", OriginPractical, false},
		{"cross is not a generation origin", "cross", "", true},
		{"unknown tag rejected", "analytical", "", true},
		{"empty tag rejected", "", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOrigin(tc.tag)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestThought_AttachEvaluation(t *testing.T) {
	th := NewThought("try dynamic programming", OriginPractical, 0, "")
	require.False(t, th.Scored())

	ev := &Evaluation{
		ThoughtID:       th.ID,
		OverallScore:    7.5,
		Confidence:      0.9,
		EvaluatorOrigin: OriginPractical,
		RawScores:       []float64{7, 8},
	}
	require.NoError(t, th.AttachEvaluation(ev))
	require.True(t, th.Scored())
	assert.Equal(t, 7.5, *th.Score)
	assert.Equal(t, 0.9, *th.Confidence)

	t.Run("second attach is a contract breach", func(t *testing.T) {
		err := th.AttachEvaluation(ev)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvariantViolation))
	})
}

func TestThought_ValidateShape(t *testing.T) {
	root := NewThought("root step", OriginCreative, 0, "")
	require.NoError(t, root.ValidateShape(nil, 0))

	child := NewThought("child step", OriginPractical, 1, root.ID)
	require.NoError(t, child.ValidateShape(root, 1))

	t.Run("root with a parent id", func(t *testing.T) {
		bad := NewThought("x", OriginCreative, 0, "someone")
		assert.Error(t, bad.ValidateShape(nil, 0))
	})
	t.Run("depth mismatch with parent", func(t *testing.T) {
		bad := NewThought("x", OriginCreative, 3, root.ID)
		assert.Error(t, bad.ValidateShape(root, 3))
	})
	t.Run("wrong parent reference", func(t *testing.T) {
		bad := NewThought("x", OriginCreative, 1, "other")
		assert.Error(t, bad.ValidateShape(root, 1))
	})
	t.Run("empty text", func(t *testing.T) {
		bad := NewThought("", OriginCreative, 0, "")
		assert.Error(t, bad.ValidateShape(nil, 0))
	})
}
