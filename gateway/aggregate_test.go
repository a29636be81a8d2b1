package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
)

type senderCall struct {
	pattern string
	payload any
}

// fakeSender answers Send from a canned per-pattern response and records
// every call.
type fakeSender struct {
	responses map[string]any
	errs      map[string]error
	calls     []senderCall
	emits     []senderCall
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		responses: make(map[string]any),
		errs:      make(map[string]error),
	}
}

func (f *fakeSender) Send(ctx context.Context, pattern string, payload, out any) error {
	f.calls = append(f.calls, senderCall{pattern: pattern, payload: payload})
	if err := f.errs[pattern]; err != nil {
		return err
	}
	resp, ok := f.responses[pattern]
	if !ok || out == nil {
		return nil
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (f *fakeSender) Emit(ctx context.Context, pattern string, payload any) error {
	f.emits = append(f.emits, senderCall{pattern: pattern, payload: payload})
	return f.errs[pattern]
}

func (f *fakeSender) callsFor(pattern string) []senderCall {
	var out []senderCall
	for _, c := range f.calls {
		if c.pattern == pattern {
			out = append(out, c)
		}
	}
	return out
}

func newTestServer(clients Clients) *Server {
	return NewServer(clients, "test-secret",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestEnrichNews(t *testing.T) {
	ctx := context.Background()

	t.Run("dedupes authors into one batched call", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{
			{ID: 1, Username: "alice"},
			{ID: 2, Username: "bob"},
		}
		files := newFakeSender()
		s := newTestServer(Clients{Auth: auth, Files: files})

		items := []contracts.News{
			{ID: 10, AuthorID: 1},
			{ID: 11, AuthorID: 2},
			{ID: 12, AuthorID: 1},
		}
		enriched, err := s.enrichNews(ctx, items)

		require.NoError(t, err)
		calls := auth.callsFor(contracts.PatternGetUsersByIDs)
		require.Len(t, calls, 1)
		req := calls[0].payload.(contracts.GetUsersByIDsRequest)
		sort.Slice(req.IDs, func(i, j int) bool { return req.IDs[i] < req.IDs[j] })
		assert.Equal(t, []int64{1, 2}, req.IDs)

		assert.Equal(t, "alice", enriched[0].Author.Username)
		assert.Equal(t, "bob", enriched[1].Author.Username)
		assert.Equal(t, "alice", enriched[2].Author.Username)
	})

	t.Run("dangling author id leaves author nil", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{{ID: 1, Username: "alice"}}
		s := newTestServer(Clients{Auth: auth, Files: newFakeSender()})

		enriched, err := s.enrichNews(ctx, []contracts.News{
			{ID: 10, AuthorID: 1},
			{ID: 11, AuthorID: 99},
		})

		require.NoError(t, err)
		assert.NotNil(t, enriched[0].Author)
		assert.Nil(t, enriched[1].Author)
	})

	t.Run("empty input short-circuits without broker calls", func(t *testing.T) {
		auth := newFakeSender()
		files := newFakeSender()
		s := newTestServer(Clients{Auth: auth, Files: files})

		enriched, err := s.enrichNews(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, enriched)
		assert.Empty(t, auth.calls)
		assert.Empty(t, files.calls)
	})

	t.Run("joins files only for items that have them", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{{ID: 1}}
		files := newFakeSender()
		files.responses[contracts.PatternGetFilesByNewsIDsList] = []contracts.NewsFiles{
			{NewsID: 10, Files: []string{"a.png"}},
		}
		s := newTestServer(Clients{Auth: auth, Files: files})

		enriched, err := s.enrichNews(ctx, []contracts.News{
			{ID: 10, AuthorID: 1, HasFiles: true},
			{ID: 11, AuthorID: 1},
		})

		require.NoError(t, err)
		calls := files.callsFor(contracts.PatternGetFilesByNewsIDsList)
		require.Len(t, calls, 1)
		assert.Equal(t, []int64{10}, calls[0].payload.(contracts.GetFilesByNewsIDsRequest).NewsIDs)
		assert.Equal(t, []string{"a.png"}, enriched[0].Files)
		assert.Empty(t, enriched[1].Files)
	})

	t.Run("enrichment failure fails the whole request", func(t *testing.T) {
		auth := newFakeSender()
		auth.errs[contracts.PatternGetUsersByIDs] = assert.AnError
		s := newTestServer(Clients{Auth: auth, Files: newFakeSender()})

		_, err := s.enrichNews(ctx, []contracts.News{{ID: 10, AuthorID: 1}})

		assert.Error(t, err)
	})
}

func TestEnrichComments(t *testing.T) {
	ctx := context.Background()

	t.Run("reply authors join the same single batched call", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{
			{ID: 1, Username: "alice"},
			{ID: 2, Username: "bob"},
			{ID: 3, Username: "carol"},
		}
		s := newTestServer(Clients{Auth: auth})

		comments := []contracts.Comment{
			{ID: 100, AuthorID: 1, Replies: []contracts.Comment{
				{ID: 101, AuthorID: 2},
				{ID: 102, AuthorID: 3},
			}},
			{ID: 103, AuthorID: 2},
		}
		enriched, err := s.enrichComments(ctx, comments)

		require.NoError(t, err)
		calls := auth.callsFor(contracts.PatternGetUsersByIDs)
		require.Len(t, calls, 1)
		req := calls[0].payload.(contracts.GetUsersByIDsRequest)
		sort.Slice(req.IDs, func(i, j int) bool { return req.IDs[i] < req.IDs[j] })
		assert.Equal(t, []int64{1, 2, 3}, req.IDs)

		assert.Equal(t, "alice", enriched[0].Author.Username)
		assert.Equal(t, "bob", enriched[0].Replies[0].Author.Username)
		assert.Equal(t, "carol", enriched[0].Replies[1].Author.Username)
		assert.Equal(t, "bob", enriched[1].Author.Username)
	})

	t.Run("dangling reply author stays nil", func(t *testing.T) {
		auth := newFakeSender()
		auth.responses[contracts.PatternGetUsersByIDs] = []contracts.User{{ID: 1, Username: "alice"}}
		s := newTestServer(Clients{Auth: auth})

		enriched, err := s.enrichComments(ctx, []contracts.Comment{
			{ID: 100, AuthorID: 1, Replies: []contracts.Comment{{ID: 101, AuthorID: 99}}},
		})

		require.NoError(t, err)
		assert.NotNil(t, enriched[0].Author)
		assert.Nil(t, enriched[0].Replies[0].Author)
	})

	t.Run("empty tree short-circuits", func(t *testing.T) {
		auth := newFakeSender()
		s := newTestServer(Clients{Auth: auth})

		enriched, err := s.enrichComments(ctx, nil)

		require.NoError(t, err)
		assert.Empty(t, enriched)
		assert.Empty(t, auth.calls)
	})
}
