// Package engine builds quiz sessions from a question bank, scores answers for
// each game mode, runs the countdown and compiles the session result.
package engine

import "arith-quiz-service/internal/domain"

// Evaluator is the mode-specific answer model behind a session. A unit is what
// the cursor steps over: one question for multiple choice and true/false, one
// whole round for matching.
type Evaluator interface {
	Units() int
	TotalQuestions() int
	Score() int
	IsComplete(unit int) bool
	View(unit int) domain.QuestionView
	Review() []domain.ReviewEntry
}

// answerRecorder is implemented by evaluators that take one value per question.
type answerRecorder interface {
	RecordAnswer(unit int, value any) (domain.ScoringOutcome, error)
}

// pairMatcher is implemented by evaluators that pair left items with right keys.
type pairMatcher interface {
	SelectLeft(left int) error
	ChooseRight(key string) (domain.MatchOutcome, error)
	Unassign(left int) error
}
