package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/recordstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(recordstore.NewStore(t.TempDir(), zap.NewNop()), zap.NewNop())
}

func TestAddFillsIDAndTimestamp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "the mitochondria"}))

	got, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEmpty(t, got[0].CreatedAt)
	assert.Equal(t, "the mitochondria", got[0].Content)
}

func TestAddRejectsEmptyContent(t *testing.T) {
	svc := newTestService(t)
	err := svc.Add(context.Background(), "alice", Note{})
	require.ErrorIs(t, err, ErrMissingContent)
}

func TestAddSuppressesDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	note := Note{Content: "same text", FileID: "file-1"}
	require.NoError(t, svc.Add(ctx, "alice", note))

	err := svc.Add(ctx, "alice", note)
	require.ErrorIs(t, err, ErrDuplicateContent)

	got, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, got, 1, "duplicate add must leave exactly one entry")

	// Same content under a different fileId is a distinct note.
	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "same text", FileID: "file-2"}))
	got, err = svc.List(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListFiltersByFileID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "a", FileID: "f1"}))
	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "b", FileID: "f2"}))
	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "c", FileID: "f1"}))

	got, err := svc.List(ctx, "alice", "f1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Content)
	assert.Equal(t, "c", got[1].Content)
}

func TestRemoveByFileIDCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "a", FileID: "f1"}))
	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "b", FileID: "f2"}))
	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "c", FileID: "f1"}))

	require.NoError(t, svc.Remove(ctx, "alice", Selector{FileID: "f1"}))

	got, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f2", got[0].FileID)
}

func TestRemoveByID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{ID: "n1", Content: "a"}))
	require.NoError(t, svc.Add(ctx, "alice", Note{ID: "n2", Content: "b"}))

	require.NoError(t, svc.Remove(ctx, "alice", Selector{ID: "n1"}))

	got, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)
}

func TestRemoveNothingMatched(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "a"}))

	err := svc.Remove(ctx, "alice", Selector{ID: "missing"})
	require.ErrorIs(t, err, ErrNotFound)

	got, err := svc.List(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed remove must not change the collection")
}

func TestRemoveSelectorValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.Remove(ctx, "alice", Selector{})
	require.ErrorIs(t, err, ErrMissingSelector)

	err = svc.Remove(ctx, "alice", Selector{ID: "x", FileID: "y"})
	require.ErrorIs(t, err, ErrMissingSelector)
}

func TestTenantsAreIsolated(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "alice", Note{Content: "private"}))

	got, err := svc.List(ctx, "bob", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
