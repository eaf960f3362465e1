package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querylens/querylens/pkg/types"
)

func testDataset() *types.Dataset {
	return &types.Dataset{
		Examples: []types.Example{
			{
				Query: "how do I open a connection?",
				Passages: []types.Passage{
					{Content: "func Open(dsn string) (*DB, error)"},
					{Content: "db, err := Open(dsn)"},
				},
			},
			{
				Query: "where is retry handled?",
				Passages: []types.Passage{
					{Content: "func retryWithBackoff(ctx context.Context)"},
				},
			},
			{
				Query: "how are sessions stored?",
				Passages: []types.Passage{
					{Content: "type SessionStore struct{ db *sql.DB }"},
				},
			},
		},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()

	first, err := Generate(testDataset(), cfg)
	require.NoError(t, err)
	second, err := Generate(testDataset(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Train, second.Train)
	assert.Equal(t, first.Val, second.Val)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestGenerateSeedChangesSplit(t *testing.T) {
	a, err := Generate(testDataset(), Config{Seed: 1, TrainFraction: 0.8, NegativesPerPositive: 1})
	require.NoError(t, err)
	b, err := Generate(testDataset(), Config{Seed: 2, TrainFraction: 0.8, NegativesPerPositive: 1})
	require.NoError(t, err)

	// Same counts either way; the ordering is what the seed drives.
	assert.Equal(t, len(a.Train), len(b.Train))
	assert.Equal(t, len(a.Val), len(b.Val))
}

func TestGenerateLabels(t *testing.T) {
	ds := testDataset()
	split, err := Generate(ds, DefaultConfig())
	require.NoError(t, err)

	relevant := make(map[string]map[string]bool)
	for _, ex := range ds.Examples {
		set := make(map[string]bool)
		for _, content := range ex.RelevantSet() {
			set[content] = true
		}
		relevant[ex.Query] = set
	}

	all := append(append([]types.TrainingPair{}, split.Train...), split.Val...)
	require.NotEmpty(t, all)

	for _, pair := range all {
		switch pair.Label {
		case 1:
			assert.True(t, relevant[pair.Query][pair.Passage],
				"positive pair must come from the query's own relevant set")
		case 0:
			assert.False(t, relevant[pair.Query][pair.Passage],
				"negative pair must come from another example")
		default:
			t.Fatalf("unexpected label %v", pair.Label)
		}
	}
}

func TestGenerateCounts(t *testing.T) {
	split, err := Generate(testDataset(), Config{Seed: 7, TrainFraction: 0.8, NegativesPerPositive: 1})
	require.NoError(t, err)

	// 4 passages across 3 examples, one negative each.
	assert.Equal(t, 4, split.Stats.Positives)
	assert.Equal(t, 4, split.Stats.Negatives)
	assert.Equal(t, 0, split.Stats.SkippedExamples)

	total := len(split.Train) + len(split.Val)
	assert.Equal(t, 8, total)
	// floor(0.8 * 8) = 6
	assert.Len(t, split.Train, 6)
	assert.Len(t, split.Val, 2)
}

func TestGenerateNegativesPerPositive(t *testing.T) {
	split, err := Generate(testDataset(), Config{Seed: 7, TrainFraction: 1.0, NegativesPerPositive: 3})
	require.NoError(t, err)

	assert.Equal(t, 4, split.Stats.Positives)
	assert.Equal(t, 12, split.Stats.Negatives)
	assert.Empty(t, split.Val)
}

func TestGenerateSkipsEmptyExamples(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{Query: "no passages here"},
			{
				Query:    "has one",
				Passages: []types.Passage{{Content: "x := 1"}},
			},
			{
				Query:    "has another",
				Passages: []types.Passage{{Content: "y := 2"}},
			},
		},
	}

	split, err := Generate(ds, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, split.Stats.SkippedExamples)
	assert.Equal(t, 2, split.Stats.Positives)
	for _, pair := range append(append([]types.TrainingPair{}, split.Train...), split.Val...) {
		assert.NotEqual(t, "no passages here", pair.Query)
	}
}

func TestGenerateAllExamplesEmpty(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{Query: "a"},
			{Query: "b"},
		},
	}

	_, err := Generate(ds, DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyRelevantSet)
}

func TestGenerateSingleExampleHasNoNegatives(t *testing.T) {
	ds := &types.Dataset{
		Examples: []types.Example{
			{
				Query: "only one",
				Passages: []types.Passage{
					{Content: "a"},
					{Content: "b"},
				},
			},
		},
	}

	split, err := Generate(ds, Config{Seed: 3, TrainFraction: 1.0, NegativesPerPositive: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, split.Stats.Positives)
	assert.Equal(t, 0, split.Stats.Negatives)
}

func TestGenerateInvalidFraction(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
	}{
		{name: "zero", fraction: 0},
		{name: "negative", fraction: -0.5},
		{name: "above one", fraction: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(testDataset(), Config{Seed: 1, TrainFraction: tt.fraction})
			assert.ErrorIs(t, err, ErrInvalidFraction)
		})
	}
}
