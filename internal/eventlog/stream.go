package eventlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourorg/testnet-trader/internal/domain"
)

// Sink receives log entries. Append must store the entry as one record.
type Sink interface {
	Append(level domain.LogLevel, message string) domain.LogEntry
}

// Stream is an in-memory, append-only log of pipeline events with live
// subscribers.
type Stream struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
	seq     uint64
	subs    map[*subscriber]struct{}
	dropped atomic.Uint64

	now    func() time.Time
	mirror *slog.Logger
}

type subscriber struct {
	ch chan domain.LogEntry
}

type StreamOption func(*Stream)

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) StreamOption {
	return func(s *Stream) { s.now = now }
}

// WithMirror also writes every entry to logger.
func WithMirror(logger *slog.Logger) StreamOption {
	return func(s *Stream) { s.mirror = logger }
}

func NewStream(opts ...StreamOption) *Stream {
	s := &Stream{
		subs: make(map[*subscriber]struct{}),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stream) Append(level domain.LogLevel, message string) domain.LogEntry {
	s.mu.Lock()
	s.seq++
	entry := domain.LogEntry{
		Seq:       s.seq,
		Timestamp: s.now().UTC(),
		Level:     level,
		Message:   message,
	}
	s.entries = append(s.entries, entry)
	// Fan-out stays under the lock so every subscriber sees Seq order.
	for sub := range s.subs {
		select {
		case sub.ch <- entry:
		default:
			s.dropped.Add(1)
		}
	}
	s.mu.Unlock()

	if s.mirror != nil {
		s.mirror.Log(context.Background(), slogLevel(level), message, "seq", entry.Seq)
	}
	return entry
}

// Entries returns up to limit of the most recent entries at or above
// minLevel, oldest first. limit <= 0 means no limit.
func (s *Stream) Entries(minLevel domain.LogLevel, limit int) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.Level.Rank() < minLevel.Rank() {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Since returns every entry with Seq greater than seq.
func (s *Stream) Since(seq uint64) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if seq >= s.seq {
		return nil
	}
	// Seq starts at 1 and has no gaps.
	out := make([]domain.LogEntry, len(s.entries)-int(seq))
	copy(out, s.entries[seq:])
	return out
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Dropped counts entries a subscriber missed because its buffer was full.
func (s *Stream) Dropped() uint64 {
	return s.dropped.Load()
}

// Subscribe returns a channel receiving every entry appended from now on.
// The cancel func closes the channel.
func (s *Stream) Subscribe(buffer int) (<-chan domain.LogEntry, func()) {
	sub := &subscriber{ch: make(chan domain.LogEntry, buffer)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			close(sub.ch)
		})
	}
}

func slogLevel(level domain.LogLevel) slog.Level {
	switch level {
	case domain.LevelWarn:
		return slog.LevelWarn
	case domain.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
