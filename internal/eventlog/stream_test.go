package eventlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/testnet-trader/internal/domain"
)

func TestStream_AppendAssignsSeqAndTimestamp(t *testing.T) {
	at := time.Date(2024, 1, 2, 14, 23, 1, 0, time.UTC)
	s := NewStream(WithClock(func() time.Time { return at }))

	first := s.Append(domain.LevelInfo, "one")
	second := s.Append(domain.LevelWarn, "two")

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, at, first.Timestamp)
	assert.Equal(t, 2, s.Len())
}

func TestStream_Entries(t *testing.T) {
	s := NewStream()
	s.Append(domain.LevelInfo, "a")
	s.Append(domain.LevelWarn, "b")
	s.Append(domain.LevelError, "c")
	s.Append(domain.LevelInfo, "d")

	testCases := []struct {
		name     string
		minLevel domain.LogLevel
		limit    int
		want     []string
	}{
		{name: "all", minLevel: "", limit: 0, want: []string{"a", "b", "c", "d"}},
		{name: "warn and up", minLevel: domain.LevelWarn, limit: 0, want: []string{"b", "c"}},
		{name: "latest two", minLevel: domain.LevelInfo, limit: 2, want: []string{"c", "d"}},
		{name: "errors only", minLevel: domain.LevelError, limit: 5, want: []string{"c"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Entries(tc.minLevel, tc.limit)
			msgs := make([]string, 0, len(got))
			for _, e := range got {
				msgs = append(msgs, e.Message)
			}
			assert.Equal(t, tc.want, msgs)
		})
	}
}

func TestStream_Since(t *testing.T) {
	s := NewStream()
	for i := 0; i < 5; i++ {
		s.Append(domain.LevelInfo, fmt.Sprint(i))
	}

	got := s.Since(3)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(4), got[0].Seq)
	assert.Equal(t, uint64(5), got[1].Seq)
	assert.Nil(t, s.Since(5))
}

func TestStream_ConcurrentAppendsKeepPerCallerOrder(t *testing.T) {
	s := NewStream()
	const writers, perWriter = 8, 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.Append(domain.LevelInfo, fmt.Sprintf("%d:%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	entries := s.Entries("", 0)
	require.Len(t, entries, writers*perWriter)

	next := make(map[int]int)
	for i, e := range entries {
		assert.Equal(t, uint64(i+1), e.Seq)
		var w, n int
		_, err := fmt.Sscanf(e.Message, "%d:%d", &w, &n)
		require.NoError(t, err)
		assert.Equal(t, next[w], n, "writer %d out of order", w)
		next[w] = n + 1
	}
}

func TestStream_Subscribe(t *testing.T) {
	s := NewStream()
	ch, cancel := s.Subscribe(2)

	s.Append(domain.LevelInfo, "a")
	s.Append(domain.LevelWarn, "b")
	s.Append(domain.LevelError, "dropped")

	assert.Equal(t, "a", (<-ch).Message)
	assert.Equal(t, "b", (<-ch).Message)
	assert.Equal(t, uint64(1), s.Dropped())

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	s.Append(domain.LevelInfo, "after cancel")
	assert.Equal(t, uint64(1), s.Dropped())
}

func TestStream_Mirror(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := NewStream(WithMirror(logger))

	s.Append(domain.LevelWarn, "Order rejected")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"msg":"Order rejected"`)
}

type recordingWriter struct {
	mu      sync.Mutex
	entries []domain.LogEntry
	failSeq uint64
}

func (w *recordingWriter) Write(_ context.Context, e domain.LogEntry) error {
	if e.Seq == w.failSeq {
		return errors.New("boom")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	return nil
}

func TestExport(t *testing.T) {
	s := NewStream()
	ch, cancel := s.Subscribe(8)
	w := &recordingWriter{failSeq: 2}

	s.Append(domain.LevelInfo, "a")
	s.Append(domain.LevelInfo, "b")
	s.Append(domain.LevelInfo, "c")
	cancel()

	Export(context.Background(), ch, w, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.Len(t, w.entries, 2)
	assert.Equal(t, "a", w.entries[0].Message)
	assert.Equal(t, "c", w.entries[1].Message)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
