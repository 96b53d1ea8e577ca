package bank

import (
	"errors"
	"testing"

	"arith-quiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinBankShape(t *testing.T) {
	b, err := Parse(builtinYAML)
	require.NoError(t, err)

	assert.Equal(t, DefaultID, b.ID)
	for _, d := range domain.Difficulties {
		assert.Len(t, b.MultipleChoice[d], 15, "multiple choice %s", d)
		assert.Len(t, b.TrueOrFalse[d], 15, "true/false %s", d)
		assert.Len(t, b.Matching[d], 2, "matching %s", d)
	}
	assert.Equal(t, "What is 3 × 4?", b.MultipleChoice[domain.Easy][2].Prompt)
}

func TestBuiltinReturnsSameBank(t *testing.T) {
	assert.Equal(t, Builtin(), Builtin())
}

func TestParseRejectsWrongOptionCount(t *testing.T) {
	doc := []byte(`
multipleChoice:
  easy:
    - {prompt: "1 + 1", options: ["2", "3"], correct: 0}
`)
	_, err := Parse(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBankIncomplete))
}

func TestParseRejectsCorrectIndexOutOfRange(t *testing.T) {
	doc := []byte(`
multipleChoice:
  hard:
    - {prompt: "1 + 1", options: ["2", "3", "4", "5"], correct: 4}
`)
	_, err := Parse(doc)
	assert.ErrorIs(t, err, domain.ErrBankIncomplete)
}

func TestParseRejectsShortMatchingSet(t *testing.T) {
	doc := []byte(`
matching:
  medium:
    - pairs:
        - {left: "1 + 1", right: "2"}
`)
	_, err := Parse(doc)
	assert.ErrorIs(t, err, domain.ErrBankIncomplete)
}

func TestParseRejectsUnknownTier(t *testing.T) {
	doc := []byte(`
trueOrFalse:
  impossible:
    - {prompt: "1 + 1 = 2", correct: true}
`)
	_, err := Parse(doc)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestParseAcceptsJSON(t *testing.T) {
	doc := []byte(`{"id": "tiny", "trueOrFalse": {"easy": [{"prompt": "2 + 2 = 4", "correct": true}]}}`)
	b, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "tiny", b.ID)
	assert.True(t, b.TrueOrFalse[domain.Easy][0].Correct)
}
