package engine

import (
	"fmt"
	"math"

	"arith-quiz-service/internal/domain"
)

var trueFalseOptions = []string{"True", "False"}

// choiceQuestion is a session copy of a multiple-choice or true/false template.
type choiceQuestion[T comparable] struct {
	prompt  string
	options []string
	correct T
}

// choiceEvaluator scores one value per question. Multiple choice uses option
// indexes, true/false uses booleans.
type choiceEvaluator[T comparable] struct {
	questions []choiceQuestion[T]
	answers   []T
	answered  []bool
	score     int

	// coerce converts a transport value into T for the given question.
	coerce func(q choiceQuestion[T], v any) (T, error)
	// optionIndex maps a value to its position in q.options.
	optionIndex func(v T) int
}

func newMultipleChoiceEvaluator(questions []choiceQuestion[int]) *choiceEvaluator[int] {
	return &choiceEvaluator[int]{
		questions:   questions,
		answers:     make([]int, len(questions)),
		answered:    make([]bool, len(questions)),
		coerce:      coerceOption,
		optionIndex: func(v int) int { return v },
	}
}

func newTrueFalseEvaluator(questions []choiceQuestion[bool]) *choiceEvaluator[bool] {
	return &choiceEvaluator[bool]{
		questions: questions,
		answers:   make([]bool, len(questions)),
		answered:  make([]bool, len(questions)),
		coerce:    coerceTruth,
		optionIndex: func(v bool) int {
			if v {
				return 0
			}
			return 1
		},
	}
}

func coerceOption(q choiceQuestion[int], v any) (int, error) {
	var idx int
	switch n := v.(type) {
	case int:
		idx = n
	case int64:
		idx = int(n)
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: option %v is not an index", domain.ErrInvalidAnswer, v)
		}
		idx = int(n)
	default:
		return 0, fmt.Errorf("%w: expected option index, got %T", domain.ErrInvalidAnswer, v)
	}
	if idx < 0 || idx >= len(q.options) {
		return 0, fmt.Errorf("%w: option %d out of range", domain.ErrInvalidAnswer, idx)
	}
	return idx, nil
}

func coerceTruth(_ choiceQuestion[bool], v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected true or false, got %T", domain.ErrInvalidAnswer, v)
	}
	return b, nil
}

func (e *choiceEvaluator[T]) Units() int          { return len(e.questions) }
func (e *choiceEvaluator[T]) TotalQuestions() int { return len(e.questions) }
func (e *choiceEvaluator[T]) Score() int          { return e.score }

func (e *choiceEvaluator[T]) IsComplete(unit int) bool {
	return unit >= 0 && unit < len(e.answered) && e.answered[unit]
}

// RecordAnswer stores the value for unit. Answering again before advancing
// replaces the earlier answer and its credit.
func (e *choiceEvaluator[T]) RecordAnswer(unit int, value any) (domain.ScoringOutcome, error) {
	if unit < 0 || unit >= len(e.questions) {
		return domain.ScoringOutcome{}, fmt.Errorf("%w: question %d out of range", domain.ErrEvaluatorMisuse, unit)
	}
	q := e.questions[unit]
	v, err := e.coerce(q, value)
	if err != nil {
		return domain.ScoringOutcome{}, err
	}

	if e.answered[unit] && e.answers[unit] == q.correct {
		e.score--
	}
	e.answers[unit] = v
	e.answered[unit] = true

	correct := v == q.correct
	if correct {
		e.score++
	}
	return domain.ScoringOutcome{Correct: correct, Score: e.score, AdvanceAllowed: true}, nil
}

func (e *choiceEvaluator[T]) View(unit int) domain.QuestionView {
	q := e.questions[unit]
	view := domain.QuestionView{
		Index:   unit,
		Count:   len(e.questions),
		Prompt:  q.prompt,
		Options: append([]string(nil), q.options...),
	}
	if e.answered[unit] {
		idx := e.optionIndex(e.answers[unit])
		view.Selected = &idx
	}
	return view
}

func (e *choiceEvaluator[T]) Review() []domain.ReviewEntry {
	out := make([]domain.ReviewEntry, 0, len(e.questions))
	for i, q := range e.questions {
		entry := domain.ReviewEntry{Index: i, Prompt: q.prompt, Answer: domain.Unanswered}
		if e.answered[i] {
			entry.Answered = true
			entry.Answer = q.options[e.optionIndex(e.answers[i])]
			entry.Correct = e.answers[i] == q.correct
		}
		if !entry.Correct {
			entry.CorrectAnswer = q.options[e.optionIndex(q.correct)]
		}
		out = append(out, entry)
	}
	return out
}
