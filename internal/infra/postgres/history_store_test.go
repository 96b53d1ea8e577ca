package postgres

import (
	"testing"
	"time"

	"arith-quiz-service/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertHistoryQuery(t *testing.T) {
	date := time.Date(2024, 11, 22, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	query, args, err := insertHistory("alice", domain.HistoryRecord{
		Difficulty:     domain.Hard,
		ModeLabel:      "Match",
		Score:          8,
		TotalQuestions: 10,
		Percentage:     80,
		Date:           date,
		ElapsedSeconds: 51,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO quiz_history (user_id,difficulty,mode_label,score,total_questions,percentage,taken_at,elapsed_seconds) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)",
		query)
	assert.Equal(t, []interface{}{"alice", "hard", "Match", 8, 10, 80, date.UTC(), 51}, args)
}

func TestSelectHistoryQuery(t *testing.T) {
	query, args, err := selectHistory().Where(sq.Eq{"user_id": "bob"}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT user_id, difficulty, mode_label, score, total_questions, percentage, taken_at, elapsed_seconds FROM quiz_history WHERE user_id = $1 ORDER BY id ASC",
		query)
	assert.Equal(t, []interface{}{"bob"}, args)
}
