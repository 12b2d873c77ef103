package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/embeddings"
	"github.com/fyrsmithlabs/notesd/internal/files"
	"github.com/fyrsmithlabs/notesd/internal/notes"
	"github.com/fyrsmithlabs/notesd/internal/recordstore"
)

// fakeEmbedder maps known texts to fixed vectors, so distances in tests are
// exact by construction.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no fixture vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

type fixture struct {
	notes    *notes.Service
	registry *files.Registry
	embedder *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := recordstore.NewStore(t.TempDir(), zap.NewNop())
	return &fixture{
		notes:    notes.NewService(store, zap.NewNop()),
		registry: files.NewRegistry(store, zap.NewNop()),
		embedder: &fakeEmbedder{vectors: map[string][]float32{}},
	}
}

func (f *fixture) engine(cfg Config) *Engine {
	return NewEngine(f.notes, f.registry, f.embedder, cfg, zap.NewNop())
}

// Distances are squared L2: the query sits at the origin and every note
// vector is placed to land on its intended distance exactly.
func seedRanking(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	f.embedder.vectors["q"] = []float32{0, 0}
	f.embedder.vectors["note A"] = []float32{1, 0}  // distance 1
	f.embedder.vectors["note B"] = []float32{2, 1}  // distance 5
	f.embedder.vectors["note C"] = []float32{3, 1}  // distance 10

	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{ID: "a", Content: "note A"}))
	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{ID: "b", Content: "note B"}))
	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{ID: "c", Content: "note C"}))
}

func TestQueryRankingAndThreshold(t *testing.T) {
	f := newFixture(t)
	seedRanking(t, f)
	eng := f.engine(Config{Threshold: 6})

	results, err := eng.Query(context.Background(), "alice", "q", 3)
	require.NoError(t, err)

	// A (1) and B (5) clear the threshold of 6, C (10) does not.
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 5.0, results[1].Score, 1e-6)
}

func TestQueryTopKLimitsBeforeThreshold(t *testing.T) {
	f := newFixture(t)
	seedRanking(t, f)
	eng := f.engine(Config{Threshold: 100})

	results, err := eng.Query(context.Background(), "alice", "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestQueryTieKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.embedder.vectors["q"] = []float32{0}
	f.embedder.vectors["first"] = []float32{2}
	f.embedder.vectors["second"] = []float32{-2}

	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{ID: "n1", Content: "first"}))
	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{ID: "n2", Content: "second"}))

	eng := f.engine(Config{Threshold: 10})
	results, err := eng.Query(ctx, "alice", "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "n1", results[0].ID, "equal distances keep insertion order")
	assert.Equal(t, "n2", results[1].ID)
}

func TestQueryEmptyKnowledgeBase(t *testing.T) {
	f := newFixture(t)
	eng := f.engine(Config{})

	_, err := eng.Query(context.Background(), "alice", "anything", 5)
	require.ErrorIs(t, err, ErrEmptyKnowledgeBase)
}

func TestQueryNothingClearsThreshold(t *testing.T) {
	f := newFixture(t)
	seedRanking(t, f)
	eng := f.engine(Config{Threshold: 0.5})

	results, err := eng.Query(context.Background(), "alice", "q", 3)
	require.NoError(t, err, "zero matches is success, not an error")
	assert.Empty(t, results)
}

func TestQueryDefaultTopK(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.embedder.vectors["q"] = []float32{0}
	for i := 0; i < 8; i++ {
		content := fmt.Sprintf("note %d", i)
		f.embedder.vectors[content] = []float32{float32(i) + 1}
		require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{Content: content}))
	}

	eng := f.engine(Config{Threshold: 1e9})
	results, err := eng.Query(ctx, "alice", "q", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestEnrichmentJoinsRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.embedder.vectors["q"] = []float32{0}
	f.embedder.vectors["from the paper"] = []float32{1}

	require.NoError(t, f.registry.Add(ctx, "alice", files.Record{
		ID:    "file-1",
		Title: "The Paper.pdf",
		Meta:  files.Meta{Downloadable: true},
	}))
	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{
		Content: "from the paper",
		FileID:  "file-1",
		Title:   "note title",
	}))

	eng := f.engine(Config{Threshold: 10})
	results, err := eng.Query(ctx, "alice", "q", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].FileDownloadable)
	assert.Equal(t, "The Paper.pdf", results[0].FileTitle)
}

func TestEnrichmentFallbackOnMissingRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.embedder.vectors["q"] = []float32{0}
	f.embedder.vectors["orphaned"] = []float32{1}

	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{
		Content: "orphaned",
		FileID:  "ghost-file",
		Title:   "my own title",
	}))

	eng := f.engine(Config{Threshold: 10})
	results, err := eng.Query(ctx, "alice", "q", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].FileDownloadable)
	assert.Equal(t, "my own title", results[0].FileTitle, "falls back to the note's own title")
}

func TestEmbeddingFailurePropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.notes.Add(ctx, "alice", notes.Note{Content: "something"}))

	f.embedder.err = embeddings.ErrEmbeddingFailed
	eng := f.engine(Config{})

	_, err := eng.Query(ctx, "alice", "q", 5)
	require.Error(t, err)
	require.ErrorIs(t, err, embeddings.ErrEmbeddingFailed)
	assert.False(t, errors.Is(err, ErrEmptyKnowledgeBase))
}
