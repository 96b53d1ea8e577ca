// Package sqlite keeps quiz history in a local SQLite file for single-node
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arith-quiz-service/internal/domain"
	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS quiz_history (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         TEXT    NOT NULL,
    difficulty      TEXT    NOT NULL,
    mode_label      TEXT    NOT NULL,
    score           INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    percentage      INTEGER NOT NULL,
    taken_at        TEXT    NOT NULL,
    elapsed_seconds INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_history_user_idx ON quiz_history (user_id, id);
`

// HistoryStore persists results with the pure Go modernc SQLite driver.
type HistoryStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*HistoryStore, error) {
	if path == "" {
		path = "file:quiz-history.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.db.Close()
}

func (h *HistoryStore) Append(ctx context.Context, userID string, r domain.HistoryRecord) error {
	query, args, err := sq.Insert("quiz_history").
		Columns("user_id", "difficulty", "mode_label", "score", "total_questions", "percentage", "taken_at", "elapsed_seconds").
		Values(userID, string(r.Difficulty), r.ModeLabel, r.Score, r.TotalQuestions, r.Percentage, r.Date.UTC().Format(time.RFC3339Nano), r.ElapsedSeconds).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	all, err := h.query(ctx, sq.Eq{"user_id": userID})
	if err != nil {
		return nil, err
	}
	if all[userID] == nil {
		return []domain.HistoryRecord{}, nil
	}
	return all[userID], nil
}

func (h *HistoryStore) ListAll(ctx context.Context) (map[string][]domain.HistoryRecord, error) {
	return h.query(ctx, nil)
}

func (h *HistoryStore) query(ctx context.Context, where sq.Sqlizer) (map[string][]domain.HistoryRecord, error) {
	builder := sq.Select("user_id", "difficulty", "mode_label", "score", "total_questions", "percentage", "taken_at", "elapsed_seconds").
		From("quiz_history").
		OrderBy("id ASC")
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.HistoryRecord)
	for rows.Next() {
		var (
			userID, difficulty, takenAt string
			r                           domain.HistoryRecord
		)
		if err := rows.Scan(&userID, &difficulty, &r.ModeLabel, &r.Score, &r.TotalQuestions, &r.Percentage, &takenAt, &r.ElapsedSeconds); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if r.Date, err = time.Parse(time.RFC3339Nano, takenAt); err != nil {
			return nil, fmt.Errorf("parse taken_at %q: %w", takenAt, err)
		}
		r.Difficulty = domain.Difficulty(difficulty)
		out[userID] = append(out[userID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
