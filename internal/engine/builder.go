package engine

import (
	"fmt"
	"time"

	"arith-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultQuestionCount is the round length for multiple choice and true/false.
	DefaultQuestionCount = 10
	// DefaultTimeLimit is the countdown of every round, retakes included.
	DefaultTimeLimit = 60 * time.Second
)

// Builder materialises sessions from a bank. The bank is only read.
type Builder struct {
	bank          domain.QuestionBank
	rnd           Rand
	clock         clockwork.Clock
	questionCount int
	timeLimit     time.Duration
	newID         func() string
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

func WithRand(r Rand) BuilderOption { return func(b *Builder) { b.rnd = r } }

func WithClock(c clockwork.Clock) BuilderOption { return func(b *Builder) { b.clock = c } }

func WithQuestionCount(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.questionCount = n
		}
	}
}

func WithTimeLimit(d time.Duration) BuilderOption {
	return func(b *Builder) {
		if d > 0 {
			b.timeLimit = d
		}
	}
}

func WithIDGenerator(fn func() string) BuilderOption { return func(b *Builder) { b.newID = fn } }

func NewBuilder(bank domain.QuestionBank, opts ...BuilderOption) *Builder {
	b := &Builder{
		bank:          bank,
		rnd:           DefaultRand,
		clock:         clockwork.NewRealClock(),
		questionCount: DefaultQuestionCount,
		timeLimit:     DefaultTimeLimit,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build draws a fresh session for the tier and mode. Nothing is created when
// either selection is invalid.
func (b *Builder) Build(difficulty domain.Difficulty, mode domain.Mode) (*Session, error) {
	d, err := domain.ParseDifficulty(string(difficulty))
	if err != nil {
		return nil, err
	}
	m, err := domain.ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	var eval Evaluator
	switch m {
	case domain.MultipleChoice:
		eval, err = b.multipleChoice(d)
	case domain.TrueOrFalse:
		eval, err = b.trueFalse(d)
	case domain.Matching:
		eval, err = b.matching(d)
	}
	if err != nil {
		return nil, err
	}
	return newSession(b.newID(), d, m, eval, b.clock.Now(), b.timeLimit), nil
}

func (b *Builder) multipleChoice(d domain.Difficulty) (Evaluator, error) {
	tier := b.bank.MultipleChoice[d]
	if len(tier) < b.questionCount {
		return nil, fmt.Errorf("%w: %s multiple choice has %d of %d questions", domain.ErrBankIncomplete, d, len(tier), b.questionCount)
	}

	questions := make([]choiceQuestion[int], 0, len(tier))
	for _, t := range tier {
		order := make([]int, len(t.Options))
		for i := range order {
			order[i] = i
		}
		Shuffle(b.rnd, order)

		options := make([]string, len(order))
		correct := -1
		for pos, src := range order {
			options[pos] = t.Options[src]
			if src == t.Correct {
				correct = pos
			}
		}
		questions = append(questions, choiceQuestion[int]{prompt: t.Prompt, options: options, correct: correct})
	}
	Shuffle(b.rnd, questions)
	return newMultipleChoiceEvaluator(questions[:b.questionCount]), nil
}

func (b *Builder) trueFalse(d domain.Difficulty) (Evaluator, error) {
	tier := b.bank.TrueOrFalse[d]
	if len(tier) < b.questionCount {
		return nil, fmt.Errorf("%w: %s true/false has %d of %d statements", domain.ErrBankIncomplete, d, len(tier), b.questionCount)
	}

	questions := make([]choiceQuestion[bool], 0, len(tier))
	for _, t := range tier {
		questions = append(questions, choiceQuestion[bool]{
			prompt:  t.Prompt,
			options: append([]string(nil), trueFalseOptions...),
			correct: t.Correct,
		})
	}
	Shuffle(b.rnd, questions)
	return newTrueFalseEvaluator(questions[:b.questionCount]), nil
}

func (b *Builder) matching(d domain.Difficulty) (Evaluator, error) {
	tier := b.bank.Matching[d]
	if len(tier) == 0 {
		return nil, fmt.Errorf("%w: %s has no matching sets", domain.ErrBankIncomplete, d)
	}

	sets := make([]int, len(tier))
	for i := range sets {
		sets[i] = i
	}
	chosen := tier[Shuffle(b.rnd, sets)[0]]

	pairs := append([]domain.MatchingPair(nil), chosen.Pairs...)
	Shuffle(b.rnd, pairs)

	rights := make([]rightEntry, len(pairs))
	for i, p := range pairs {
		rights[i] = rightEntry{item: domain.RightItem{Value: p.Right}, origin: i}
	}
	Shuffle(b.rnd, rights)

	return newMatchingEvaluator(pairs, rights), nil
}
