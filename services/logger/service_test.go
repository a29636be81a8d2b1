package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	records []contracts.LogRecord
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) InsertLog(ctx context.Context, record contracts.LogRecord) error {
	record.ID = f.nextID
	record.CreatedAt = time.Now()
	f.records = append(f.records, record)
	f.nextID++
	return nil
}

func (f *fakeStore) Logs(ctx context.Context, logType contracts.LogType, limit, offset int) ([]contracts.LogRecord, error) {
	var out []contracts.LogRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if logType == "" || f.records[i].Type == logType {
			out = append(out, f.records[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ClearLogs(ctx context.Context, logType contracts.LogType) (int64, error) {
	var kept []contracts.LogRecord
	var removed int64
	for _, r := range f.records {
		if logType == "" || r.Type == logType {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return removed, nil
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and mirrors by level", func(t *testing.T) {
		store := newFakeStore()
		var buf bytes.Buffer
		svc := NewService(store, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		err := svc.Create(ctx, contracts.NewLogRecord(contracts.ServiceAuth, contracts.LogError, "login failed", "a@b.c"))

		require.NoError(t, err)
		require.Len(t, store.records, 1)
		assert.Contains(t, buf.String(), "level=ERROR")
		assert.Contains(t, buf.String(), "login failed")
	})

	t.Run("action mirrors at info", func(t *testing.T) {
		var buf bytes.Buffer
		svc := NewService(newFakeStore(), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		err := svc.Create(ctx, contracts.NewLogRecord(contracts.ServiceNews, contracts.LogAction, "news created", ""))

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "level=INFO")
	})

	t.Run("unknown type is a validation error", func(t *testing.T) {
		svc := NewService(newFakeStore())

		err := svc.Create(ctx, contracts.LogRecord{Type: "debug", Microservice: "x", Message: "m"})

		assert.Equal(t, contracts.KindValidation, contracts.KindOf(err))
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		svc := NewService(newFakeStore())

		err := svc.Create(ctx, contracts.LogRecord{Type: contracts.LogAction})

		assert.Equal(t, contracts.KindValidation, contracts.KindOf(err))
	})
}

func TestAllAndClear(t *testing.T) {
	ctx := context.Background()

	seeded := func(t *testing.T) (*Service, *fakeStore) {
		t.Helper()
		store := newFakeStore()
		var buf bytes.Buffer
		svc := NewService(store, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		for _, lt := range []contracts.LogType{contracts.LogAction, contracts.LogWarning, contracts.LogError} {
			require.NoError(t, svc.Create(ctx, contracts.NewLogRecord(contracts.ServiceGateway, lt, "m", "")))
		}
		return svc, store
	}

	t.Run("filters by type", func(t *testing.T) {
		svc, _ := seeded(t)

		records, err := svc.All(ctx, contracts.GetAllLogsRequest{Type: contracts.LogWarning})

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, contracts.LogWarning, records[0].Type)
	})

	t.Run("no filter returns everything", func(t *testing.T) {
		svc, _ := seeded(t)

		records, err := svc.All(ctx, contracts.GetAllLogsRequest{})

		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("clear by type keeps the rest", func(t *testing.T) {
		svc, store := seeded(t)

		require.NoError(t, svc.Clear(ctx, contracts.ClearLogsRequest{Type: contracts.LogError}))

		assert.Len(t, store.records, 2)
	})

	t.Run("clear without filter drops everything", func(t *testing.T) {
		svc, store := seeded(t)

		require.NoError(t, svc.Clear(ctx, contracts.ClearLogsRequest{}))

		assert.Empty(t, store.records)
	})
}
