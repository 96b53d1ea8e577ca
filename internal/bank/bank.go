// Package bank parses and validates question bank documents and ships the
// built-in arithmetic bank.
package bank

import (
	_ "embed"
	"fmt"
	"sync"

	"arith-quiz-service/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultID names the built-in bank.
	DefaultID = "arithmetic"
	// OptionsPerQuestion is the fixed option count of a multiple-choice template.
	OptionsPerQuestion = 4
	// PairsPerSet is the fixed pair count of a matching set.
	PairsPerSet = 10
)

//go:embed arithmetic.yaml
var builtinYAML []byte

var builtin = sync.OnceValues(func() (domain.QuestionBank, error) {
	return Parse(builtinYAML)
})

// Builtin returns the embedded arithmetic bank. The embedded document is
// validated by tests, so a parse failure here is a build defect.
func Builtin() domain.QuestionBank {
	b, err := builtin()
	if err != nil {
		panic(fmt.Sprintf("bank: embedded bank invalid: %v", err))
	}
	return b
}

// Parse decodes a YAML (or JSON, which is valid YAML) bank document and validates it.
func Parse(data []byte) (domain.QuestionBank, error) {
	var b domain.QuestionBank
	if err := yaml.Unmarshal(data, &b); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("decode bank: %w", err)
	}
	if b.ID == "" {
		b.ID = DefaultID
	}
	if err := Validate(b); err != nil {
		return domain.QuestionBank{}, err
	}
	return b, nil
}

// Validate checks the structural invariants every session relies on.
func Validate(b domain.QuestionBank) error {
	for _, d := range domain.Difficulties {
		for i, q := range b.MultipleChoice[d] {
			if len(q.Options) != OptionsPerQuestion {
				return fmt.Errorf("%w: %s multiple choice #%d has %d options", domain.ErrBankIncomplete, d, i, len(q.Options))
			}
			if q.Correct < 0 || q.Correct >= OptionsPerQuestion {
				return fmt.Errorf("%w: %s multiple choice #%d correct index %d", domain.ErrBankIncomplete, d, i, q.Correct)
			}
		}
		for i, set := range b.Matching[d] {
			if len(set.Pairs) != PairsPerSet {
				return fmt.Errorf("%w: %s matching set #%d has %d pairs", domain.ErrBankIncomplete, d, i, len(set.Pairs))
			}
		}
	}
	for d := range b.MultipleChoice {
		if _, err := domain.ParseDifficulty(string(d)); err != nil {
			return err
		}
	}
	for d := range b.TrueOrFalse {
		if _, err := domain.ParseDifficulty(string(d)); err != nil {
			return err
		}
	}
	for d := range b.Matching {
		if _, err := domain.ParseDifficulty(string(d)); err != nil {
			return err
		}
	}
	return nil
}
