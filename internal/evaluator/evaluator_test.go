package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/pkg/types"
)

func ranked(passages ...string) []types.ScoredPassage {
	out := make([]types.ScoredPassage, len(passages))
	for i, p := range passages {
		out[i] = types.ScoredPassage{Passage: p, Score: float64(len(passages) - i)}
	}
	return out
}

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name     string
		relevant []string
		ranked   []types.ScoredPassage
		want     float64
	}{
		{
			name:     "perfect ranking",
			relevant: []string{"a", "b"},
			ranked:   ranked("a", "b", "c", "d"),
			want:     1.0,
		},
		{
			name:     "relevant last",
			relevant: []string{"a"},
			ranked:   ranked("b", "c", "a"),
			want:     1.0 / 3.0,
		},
		{
			name:     "interleaved",
			relevant: []string{"a", "b"},
			// a at rank 1 (1/1), b at rank 3 (2/3), divided by 2.
			ranked: ranked("a", "c", "b"),
			want:   (1.0 + 2.0/3.0) / 2,
		},
		{
			name:     "relevant passage missing from ranking",
			relevant: []string{"a", "z"},
			ranked:   ranked("a", "b"),
			want:     0.5,
		},
		{
			name:     "empty relevant set",
			relevant: nil,
			ranked:   ranked("a", "b"),
			want:     0,
		},
		{
			name:     "empty ranking",
			relevant: []string{"a"},
			ranked:   nil,
			want:     0,
		},
		{
			name:     "duplicate relevant entries count once",
			relevant: []string{"a", "a"},
			ranked:   ranked("a", "b"),
			want:     1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AveragePrecision(tt.relevant, tt.ranked)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestMeanAveragePrecision(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{Query: "q1", Passages: []types.Passage{{Content: "a"}}},
			{Query: "q2", Passages: []types.Passage{{Content: "b"}}},
		},
	}

	// q1 ranks its relevant passage first (AP 1), q2 ranks it second (AP 0.5).
	strategy := func(_ context.Context, _ string) ([]types.ScoredPassage, error) {
		return ranked("a", "b"), nil
	}

	got, err := MeanAveragePrecision(context.Background(), ds, strategy)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)
}

func TestMeanAveragePrecisionEmptyDataset(t *testing.T) {
	got, err := MeanAveragePrecision(context.Background(), &types.Dataset{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMeanAveragePrecisionSkipsEmptyQueries(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{Query: "", Passages: []types.Passage{{Content: "a"}}},
			{Query: "q", Passages: []types.Passage{{Content: "a"}}},
		},
	}

	calls := 0
	strategy := func(_ context.Context, _ string) ([]types.ScoredPassage, error) {
		calls++
		return ranked("a"), nil
	}

	got, err := MeanAveragePrecision(context.Background(), ds, strategy)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestMeanAveragePrecisionStrategyError(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{Query: "q", Passages: []types.Passage{{Content: "a"}}},
		},
	}
	boom := errors.New("provider down")
	strategy := func(_ context.Context, _ string) ([]types.ScoredPassage, error) {
		return nil, boom
	}

	_, err := MeanAveragePrecision(context.Background(), ds, strategy)
	assert.ErrorIs(t, err, boom)
}
