package eventlog

import (
	"context"
	"log/slog"

	"github.com/yourorg/testnet-trader/internal/domain"
)

// EntryWriter ships log entries somewhere outside the process.
type EntryWriter interface {
	Write(ctx context.Context, entry domain.LogEntry) error
}

// Export writes every entry received on entries to w until ctx is done or
// entries is closed. Write failures are logged and skipped.
func Export(ctx context.Context, entries <-chan domain.LogEntry, w EntryWriter, name string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := w.Write(ctx, entry); err != nil {
				logger.Error("log export failed", "exporter", name, "seq", entry.Seq, "err", err)
			}
		}
	}
}
