package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedWithEmbedding(t *testing.T, s *Store, content string, vec []float32, importance int) *Memory {
	t.Helper()

	mem, err := s.Create(CreateMemoryInput{Content: content, Importance: intPtr(importance)})
	require.NoError(t, err)
	if vec != nil {
		require.NoError(t, s.StoreEmbedding(mem.ID, vec, "test-model"))
	}
	return mem
}

func TestSearchKeyword(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(CreateMemoryInput{Content: "the user prefers dark mode in the editor"})
	require.NoError(t, err)
	_, err = s.Create(CreateMemoryInput{Content: "the project uses PostgreSQL for persistence"})
	require.NoError(t, err)

	results, err := s.SearchKeyword("dark mode", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchKeyword, results[0].MatchType)
	assert.Contains(t, results[0].Memory.Content, "dark mode")
	// bm25 is negated so higher means more relevant.
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchKeyword_MatchesSummaryAndTags(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(CreateMemoryInput{
		Content: "indent with four spaces",
		Summary: strPtr("formatting preference"),
		Tags:    []string{"style", "golang"},
	})
	require.NoError(t, err)

	bySummary, err := s.SearchKeyword("formatting", 10)
	require.NoError(t, err)
	assert.Len(t, bySummary, 1)

	byTag, err := s.SearchKeyword("golang", 10)
	require.NoError(t, err)
	assert.Len(t, byTag, 1)
}

func TestSearchKeyword_NoMatches(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(CreateMemoryInput{Content: "something else entirely"})
	require.NoError(t, err)

	results, err := s.SearchKeyword("quasar", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchSemantic_ThresholdFilters(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "close match", []float32{1, 0, 0}, 5)
	seedWithEmbedding(t, s, "far match", []float32{0, 1, 0}, 5)

	results, err := s.SearchSemantic([]float32{1, 0, 0}, 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "close match", results[0].Memory.Content)
	assert.Equal(t, MatchSemantic, results[0].MatchType)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchSemantic_ImpossibleThreshold(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "perfect match", []float32{1, 0}, 5)

	// Cosine similarity never exceeds 1.0, so nothing can clear 1.1.
	results, err := s.SearchSemantic([]float32{1, 0}, 10, 1.1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchSemantic_SkipsRowsWithoutEmbedding(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "has embedding", []float32{1, 0}, 5)
	_, err := s.Create(CreateMemoryInput{Content: "no embedding"})
	require.NoError(t, err)

	results, err := s.SearchSemantic([]float32{1, 0}, 10, 0.0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "has embedding", results[0].Memory.Content)
}

func TestSearchSemantic_TieBreakByImportance(t *testing.T) {
	s := newTestStore(t)

	// Same vector, same score; importance must decide the order.
	seedWithEmbedding(t, s, "less important", []float32{1, 0}, 3)
	seedWithEmbedding(t, s, "more important", []float32{1, 0}, 9)

	results, err := s.SearchSemantic([]float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "more important", results[0].Memory.Content)
	assert.Equal(t, "less important", results[1].Memory.Content)
}

func TestSearchSemantic_LimitAfterSort(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "a", []float32{1, 0}, 5)
	seedWithEmbedding(t, s, "b", []float32{0.9, 0.1}, 5)
	seedWithEmbedding(t, s, "c", []float32{0.8, 0.2}, 5)

	results, err := s.SearchSemantic([]float32{1, 0}, 2, 0.0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Memory.Content)
}

func TestSearchHybrid_PrefersSemantic(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "the user loves dark mode UI", []float32{1, 0}, 5)

	results, err := s.SearchHybrid("dark mode", []float32{1, 0}, 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchSemantic, results[0].MatchType)
}

func TestSearchHybrid_FallsBackToKeyword(t *testing.T) {
	s := newTestStore(t)

	// Embedding exists but points the other way, so semantic search comes
	// up empty at a strict threshold and the lexical index must answer.
	seedWithEmbedding(t, s, "the user loves dark mode UI", []float32{0, 1}, 5)

	results, err := s.SearchHybrid("dark mode", []float32{1, 0}, 10, 0.99)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchKeyword, results[0].MatchType)
	assert.Contains(t, results[0].Memory.Content, "dark mode")
}

func TestSearchHybrid_NoQueryVector(t *testing.T) {
	s := newTestStore(t)

	seedWithEmbedding(t, s, "keyword only territory", []float32{1, 0}, 5)

	results, err := s.SearchHybrid("territory", nil, 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchKeyword, results[0].MatchType)
}

func TestSearchHybrid_NoMatchesAnywhere(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(CreateMemoryInput{Content: "completely unrelated note"})
	require.NoError(t, err)

	results, err := s.SearchHybrid("xylophone", nil, 10, 0.7)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchHybrid_NeverMerges(t *testing.T) {
	s := newTestStore(t)

	// One memory reachable semantically, another only lexically. A
	// successful semantic pass must not pull in the keyword match.
	seedWithEmbedding(t, s, "semantic hit about caching", []float32{1, 0}, 5)
	_, err := s.Create(CreateMemoryInput{Content: "lexical note mentioning caching"})
	require.NoError(t, err)

	results, err := s.SearchHybrid("caching", []float32{1, 0}, 10, 0.7)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchSemantic, results[0].MatchType)
	assert.Equal(t, "semantic hit about caching", results[0].Memory.Content)
}
