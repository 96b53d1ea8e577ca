package engine

import (
	"fmt"
	"math"
	"time"

	"arith-quiz-service/internal/domain"
)

// Session is one attempt at a round. It is not safe for concurrent use; its
// owner serialises input and clock callbacks.
type Session struct {
	ID         string
	Mode       domain.Mode
	Difficulty domain.Difficulty
	StartedAt  time.Time
	TimeLimit  time.Duration

	eval   Evaluator
	cursor int
	state  domain.SessionState
}

func newSession(id string, d domain.Difficulty, m domain.Mode, eval Evaluator, startedAt time.Time, limit time.Duration) *Session {
	return &Session{
		ID:         id,
		Mode:       m,
		Difficulty: d,
		StartedAt:  startedAt,
		TimeLimit:  limit,
		eval:       eval,
		state:      domain.StateInProgress,
	}
}

func (s *Session) Evaluator() Evaluator         { return s.eval }
func (s *Session) Cursor() int                  { return s.cursor }
func (s *Session) Score() int                   { return s.eval.Score() }
func (s *Session) State() domain.SessionState   { return s.state }
func (s *Session) Deadline() time.Time          { return s.StartedAt.Add(s.TimeLimit) }
func (s *Session) Expired(now time.Time) bool   { return !now.Before(s.Deadline()) }
func (s *Session) Title() string                { return domain.QuizTitle(s.Difficulty, s.Mode) }
func (s *Session) TotalQuestions() int          { return s.eval.TotalQuestions() }
func (s *Session) Review() []domain.ReviewEntry { return s.eval.Review() }

// Remaining is the wall-clock time left, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	left := s.Deadline().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// AdvanceAllowed reports whether the unit under the cursor is complete.
func (s *Session) AdvanceAllowed() bool {
	return !s.state.Terminated() && s.eval.IsComplete(s.cursor)
}

func (s *Session) checkOpen() error {
	if s.state.Terminated() {
		return fmt.Errorf("%w: session %s is %s", domain.ErrSessionClosed, s.ID, s.state)
	}
	if s.cursor < 0 || s.cursor >= s.eval.Units() {
		return fmt.Errorf("%w: cursor %d out of range", domain.ErrEvaluatorMisuse, s.cursor)
	}
	return nil
}

// RecordAnswer answers the multiple-choice or true/false question under the cursor.
func (s *Session) RecordAnswer(value any) (domain.ScoringOutcome, error) {
	if err := s.checkOpen(); err != nil {
		return domain.ScoringOutcome{}, err
	}
	rec, ok := s.eval.(answerRecorder)
	if !ok {
		return domain.ScoringOutcome{}, fmt.Errorf("%w: %s takes no direct answers", domain.ErrEvaluatorMisuse, s.Mode)
	}
	return rec.RecordAnswer(s.cursor, value)
}

func (s *Session) matcher() (pairMatcher, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	m, ok := s.eval.(pairMatcher)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no matching items", domain.ErrEvaluatorMisuse, s.Mode)
	}
	return m, nil
}

// SelectLeft marks a left item as pending in a matching round.
func (s *Session) SelectLeft(left int) error {
	m, err := s.matcher()
	if err != nil {
		return err
	}
	return m.SelectLeft(left)
}

// ChooseRight matches the pending left item with a right key.
func (s *Session) ChooseRight(key string) (domain.MatchOutcome, error) {
	m, err := s.matcher()
	if err != nil {
		return domain.MatchOutcome{}, err
	}
	return m.ChooseRight(key)
}

// Unassign clears a left item's match.
func (s *Session) Unassign(left int) error {
	m, err := s.matcher()
	if err != nil {
		return err
	}
	return m.Unassign(left)
}

// Advance moves the cursor past a completed unit. finished is true when the
// cursor left the last unit; the session is then completed.
func (s *Session) Advance() (finished bool, err error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if !s.eval.IsComplete(s.cursor) {
		return false, domain.ErrAdvanceNotAllowed
	}
	s.cursor++
	if s.cursor >= s.eval.Units() {
		s.state = domain.StateCompleted
		return true, nil
	}
	return false, nil
}

// Terminate ends an in-progress session with the given state. Calls on a
// terminated session are ignored and return false.
func (s *Session) Terminate(state domain.SessionState) bool {
	if s.state.Terminated() || !state.Terminated() {
		return false
	}
	s.state = state
	return true
}

// View renders the session for the question under the cursor.
func (s *Session) View(now time.Time) domain.SessionView {
	unit := s.cursor
	if last := s.eval.Units() - 1; unit > last {
		unit = last
	}
	remaining := RemainingSeconds(s.Remaining(now))
	if s.state.Terminated() {
		remaining = 0
	}
	return domain.SessionView{
		SessionID:        s.ID,
		Title:            s.Title(),
		Mode:             s.Mode,
		Difficulty:       s.Difficulty,
		State:            s.state,
		Question:         s.eval.View(unit),
		Score:            s.eval.Score(),
		AdvanceAllowed:   s.AdvanceAllowed(),
		RemainingSeconds: remaining,
		Clock:            FormatClock(remaining),
	}
}

// RemainingSeconds rounds a remaining duration up to whole seconds.
func RemainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// FormatClock renders seconds as M:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
