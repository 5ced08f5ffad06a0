package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/yourorg/testnet-trader/internal/domain"
)

// LogRepo archives pipeline log entries keyed by (session, seq). Every
// process run writes under its own session id.
type LogRepo struct {
	db      *sqlx.DB
	session string
}

func NewLogRepo(db *sqlx.DB, session string) *LogRepo {
	return &LogRepo{db: db, session: session}
}

type logRow struct {
	Session   string          `db:"session_id"`
	Seq       int64           `db:"seq"`
	Level     domain.LogLevel `db:"level"`
	Message   string          `db:"message"`
	Timestamp time.Time       `db:"logged_at"`
}

func (r *LogRepo) Write(ctx context.Context, e domain.LogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_log (session_id, seq, level, message, logged_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id, seq) DO NOTHING`,
		r.session, int64(e.Seq), e.Level, e.Message, e.Timestamp)
	return err
}

// List returns the newest entries at or above minLevel across all sessions.
func (r *LogRepo) List(ctx context.Context, minLevel domain.LogLevel, limit int) ([]domain.LogEntry, error) {
	levels := levelsAtOrAbove(minLevel)
	query, args, err := sqlx.In(`
		SELECT session_id, seq, level, message, logged_at
		FROM event_log
		WHERE level IN (?)
		ORDER BY logged_at DESC, seq DESC
		LIMIT ?`, levels, limit)
	if err != nil {
		return nil, err
	}
	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	entries := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.LogEntry{
			Seq:       uint64(row.Seq),
			Timestamp: row.Timestamp.UTC(),
			Level:     row.Level,
			Message:   row.Message,
		})
	}
	return entries, nil
}

func levelsAtOrAbove(min domain.LogLevel) []string {
	var out []string
	for _, l := range []domain.LogLevel{domain.LevelInfo, domain.LevelWarn, domain.LevelError} {
		if l.Rank() >= min.Rank() {
			out = append(out, string(l))
		}
	}
	return out
}
