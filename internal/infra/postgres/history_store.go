package postgres

import (
	"context"
	"fmt"

	"arith-quiz-service/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var historyColumns = []string{
	"difficulty", "mode_label", "score", "total_questions", "percentage", "taken_at", "elapsed_seconds",
}

// HistoryStore persists results in the quiz_history table.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func insertHistory(userID string, r domain.HistoryRecord) sq.InsertBuilder {
	return psql.Insert("quiz_history").
		Columns(append([]string{"user_id"}, historyColumns...)...).
		Values(userID, string(r.Difficulty), r.ModeLabel, r.Score, r.TotalQuestions, r.Percentage, r.Date.UTC(), r.ElapsedSeconds)
}

func selectHistory() sq.SelectBuilder {
	return psql.Select(append([]string{"user_id"}, historyColumns...)...).
		From("quiz_history").
		OrderBy("id ASC")
}

func (h *HistoryStore) Append(ctx context.Context, userID string, record domain.HistoryRecord) error {
	query, args, err := insertHistory(userID, record).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := h.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	query, args, err := selectHistory().Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	all, err := h.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	records := all[userID]
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}

func (h *HistoryStore) ListAll(ctx context.Context) (map[string][]domain.HistoryRecord, error) {
	query, args, err := selectHistory().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return h.query(ctx, query, args...)
}

func (h *HistoryStore) query(ctx context.Context, query string, args ...interface{}) (map[string][]domain.HistoryRecord, error) {
	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) (map[string][]domain.HistoryRecord, error) {
	out := make(map[string][]domain.HistoryRecord)
	for rows.Next() {
		var (
			userID     string
			difficulty string
			r          domain.HistoryRecord
		)
		if err := rows.Scan(&userID, &difficulty, &r.ModeLabel, &r.Score, &r.TotalQuestions, &r.Percentage, &r.Date, &r.ElapsedSeconds); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Difficulty = domain.Difficulty(difficulty)
		out[userID] = append(out[userID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
