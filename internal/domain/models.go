package domain

import (
	"fmt"
	"strings"
)

// Difficulty is a question bank tier.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the tiers in selection order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty validates a raw difficulty string.
func ParseDifficulty(raw string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case Easy, Medium, Hard:
		return d, nil
	}
	return "", fmt.Errorf("%w: difficulty %q", ErrInvalidSelection, raw)
}

// Title returns the capitalised tier name used in quiz titles.
func (d Difficulty) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// Mode is a game type.
type Mode string

const (
	MultipleChoice Mode = "multipleChoice"
	TrueOrFalse    Mode = "trueOrFalse"
	Matching       Mode = "matching"
)

// Modes lists the game types in selection order.
var Modes = []Mode{MultipleChoice, TrueOrFalse, Matching}

// ParseMode validates a raw mode string.
func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.TrimSpace(raw))
	switch m {
	case MultipleChoice, TrueOrFalse, Matching:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrInvalidSelection, raw)
}

// Label is the human readable mode name.
func (m Mode) Label() string {
	switch m {
	case MultipleChoice:
		return "Multiple Choice"
	case TrueOrFalse:
		return "True or False"
	case Matching:
		return "Matching"
	}
	return string(m)
}

// ShortLabel is the condensed mode name stored in history records.
func (m Mode) ShortLabel() string {
	switch m {
	case MultipleChoice:
		return "MC"
	case TrueOrFalse:
		return "T/F"
	case Matching:
		return "Match"
	}
	return string(m)
}

// QuizTitle renders the heading shown while a quiz is running, e.g. "Easy - Matching".
func QuizTitle(d Difficulty, m Mode) string {
	return d.Title() + " - " + m.Label()
}

// MultipleChoiceTemplate is a bank question with four options.
type MultipleChoiceTemplate struct {
	Prompt  string   `yaml:"prompt" json:"prompt"`
	Options []string `yaml:"options" json:"options"`
	Correct int      `yaml:"correct" json:"correct"`
}

// TrueFalseTemplate is a bank statement with its truth value.
type TrueFalseTemplate struct {
	Prompt  string `yaml:"prompt" json:"prompt"`
	Correct bool   `yaml:"correct" json:"correct"`
}

// MatchingPair is an expression and the value it evaluates to.
type MatchingPair struct {
	Left  string `yaml:"left" json:"left"`
	Right string `yaml:"right" json:"right"`
}

// MatchingSet is one round of matching pairs.
type MatchingSet struct {
	Pairs []MatchingPair `yaml:"pairs" json:"pairs"`
}

// QuestionBank holds the three catalogs keyed by difficulty. Sessions copy from
// it and never write back.
type QuestionBank struct {
	ID             string                                  `yaml:"id" json:"id"`
	MultipleChoice map[Difficulty][]MultipleChoiceTemplate `yaml:"multipleChoice" json:"multipleChoice"`
	TrueOrFalse    map[Difficulty][]TrueFalseTemplate      `yaml:"trueOrFalse" json:"trueOrFalse"`
	Matching       map[Difficulty][]MatchingSet            `yaml:"matching" json:"matching"`
}

// TierSummary describes how many templates a tier holds for each mode.
type TierSummary struct {
	Difficulty     Difficulty `json:"difficulty"`
	MultipleChoice int        `json:"multipleChoice"`
	TrueOrFalse    int        `json:"trueOrFalse"`
	MatchingSets   int        `json:"matchingSets"`
}

// Tiers summarises the bank for the selection screens.
func (b QuestionBank) Tiers() []TierSummary {
	out := make([]TierSummary, 0, len(Difficulties))
	for _, d := range Difficulties {
		out = append(out, TierSummary{
			Difficulty:     d,
			MultipleChoice: len(b.MultipleChoice[d]),
			TrueOrFalse:    len(b.TrueOrFalse[d]),
			MatchingSets:   len(b.Matching[d]),
		})
	}
	return out
}
