package files

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	byNews map[int64][]string
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byNews: make(map[int64][]string)}
}

func (f *fakeStore) ReplaceFiles(ctx context.Context, newsID int64, urls []string) error {
	if f.err != nil {
		return f.err
	}
	f.byNews[newsID] = append([]string(nil), urls...)
	return nil
}

func (f *fakeStore) FilesByNewsID(ctx context.Context, newsID int64) ([]string, error) {
	return f.byNews[newsID], nil
}

func (f *fakeStore) FilesByNewsIDs(ctx context.Context, newsIDs []int64) ([]contracts.NewsFiles, error) {
	var out []contracts.NewsFiles
	for _, id := range newsIDs {
		if urls, ok := f.byNews[id]; ok {
			out = append(out, contracts.NewsFiles{NewsID: id, Files: urls})
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteFiles(ctx context.Context, newsID int64) error {
	delete(f.byNews, newsID)
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("records the handed-off set", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)

		err := svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1, Files: []string{"a.png", "b.png"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"a.png", "b.png"}, store.byNews[1])
	})

	t.Run("empty set is a validation error", func(t *testing.T) {
		svc := newTestService(newFakeStore())

		err := svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1})

		assert.Equal(t, contracts.KindValidation, contracts.KindOf(err))
	})

	t.Run("store failure stays transient", func(t *testing.T) {
		store := newFakeStore()
		store.err = assert.AnError
		svc := newTestService(store)

		err := svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1, Files: []string{"a.png"}})

		require.Error(t, err)
		assert.False(t, contracts.IsPermanent(err))
	})
}

func TestGetBatch(t *testing.T) {
	t.Run("news without files are absent", func(t *testing.T) {
		ctx := context.Background()
		store := newFakeStore()
		svc := newTestService(store)
		require.NoError(t, svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1, Files: []string{"a.png"}}))

		out, err := svc.GetBatch(ctx, contracts.GetFilesByNewsIDsRequest{NewsIDs: []int64{1, 2}})

		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, int64(1), out[0].NewsID)
	})
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("update replaces the whole set", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		require.NoError(t, svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1, Files: []string{"a.png"}}))

		out, err := svc.Update(ctx, contracts.UpdateFilesRequest{NewsID: 1, Files: []string{"c.png"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"c.png"}, out.Files)
		assert.Equal(t, []string{"c.png"}, store.byNews[1])
	})

	t.Run("delete drops every record for the news item", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		require.NoError(t, svc.Create(ctx, contracts.CreateFilesRequest{NewsID: 1, Files: []string{"a.png"}}))

		require.NoError(t, svc.Delete(ctx, contracts.DeleteFilesRequest{NewsID: 1}))

		got, err := svc.Get(ctx, contracts.GetFilesByNewsIDRequest{NewsID: 1})
		require.NoError(t, err)
		assert.Empty(t, got.Files)
	})
}
