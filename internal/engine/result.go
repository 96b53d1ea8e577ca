package engine

import (
	"math"
	"time"

	"arith-quiz-service/internal/domain"
)

// Compile builds the result of a finished session. Elapsed time is measured
// from the start timestamp, not from the countdown.
func Compile(s *Session, now time.Time) domain.SessionResult {
	total := s.TotalQuestions()
	score := s.Score()

	elapsed := int(now.Sub(s.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	return domain.SessionResult{
		SessionID:      s.ID,
		Mode:           s.Mode,
		Difficulty:     s.Difficulty,
		Outcome:        s.State(),
		Score:          score,
		TotalQuestions: total,
		Percentage:     Percentage(score, total),
		ElapsedSeconds: elapsed,
		FinishedAt:     now,
		Review:         s.Review(),
	}
}

// Percentage is round(100*score/total), 0 for an empty round.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

// HistoryRecordFor condenses a result into the record kept in a user's history.
func HistoryRecordFor(r domain.SessionResult, date time.Time) domain.HistoryRecord {
	return domain.HistoryRecord{
		Difficulty:     r.Difficulty,
		ModeLabel:      r.Mode.ShortLabel(),
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		Date:           date,
		ElapsedSeconds: r.ElapsedSeconds,
	}
}
