package engine

import (
	"fmt"

	"arith-quiz-service/internal/domain"
)

const rightKeyLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// rightKey labels the right item at display position i.
func rightKey(i int) string {
	if i < len(rightKeyLetters) {
		return rightKeyLetters[i : i+1]
	}
	return fmt.Sprintf("R%d", i+1)
}

// Bijection tracks which right key each left item holds. The forward and
// inverse mappings are always updated together, so no key is held twice.
type Bijection struct {
	leftToKey []string
	keyToLeft map[string]int
}

// NewBijection returns an empty assignment for n left items.
func NewBijection(n int) *Bijection {
	return &Bijection{
		leftToKey: make([]string, n),
		keyToLeft: make(map[string]int, n),
	}
}

// IsKeyFree reports whether no left item holds key.
func (b *Bijection) IsKeyFree(key string) bool {
	_, held := b.keyToLeft[key]
	return !held
}

// Holder returns the left item holding key.
func (b *Bijection) Holder(key string) (int, bool) {
	left, ok := b.keyToLeft[key]
	return left, ok
}

// CurrentAssignment returns the key held by left.
func (b *Bijection) CurrentAssignment(left int) (string, bool) {
	key := b.leftToKey[left]
	return key, key != ""
}

// Bind gives key to left, releasing whatever left held before. It fails with
// ErrRightAlreadyUsed when another left item holds key.
func (b *Bijection) Bind(left int, key string) (released string, err error) {
	if holder, ok := b.keyToLeft[key]; ok && holder != left {
		return "", fmt.Errorf("%w: %s is matched to item %d", domain.ErrRightAlreadyUsed, key, holder+1)
	}
	released = b.Release(left)
	b.leftToKey[left] = key
	b.keyToLeft[key] = left
	return released, nil
}

// Release frees the key held by left and returns it ("" if none).
func (b *Bijection) Release(left int) string {
	key := b.leftToKey[left]
	if key == "" {
		return ""
	}
	delete(b.keyToLeft, key)
	b.leftToKey[left] = ""
	return key
}

// Assigned counts bound left items.
func (b *Bijection) Assigned() int {
	return len(b.keyToLeft)
}

// Complete reports whether every left item holds a key.
func (b *Bijection) Complete() bool {
	return len(b.keyToLeft) == len(b.leftToKey)
}

// Snapshot returns the key per left item, "" where unset.
func (b *Bijection) Snapshot() []string {
	return append([]string(nil), b.leftToKey...)
}

type rightEntry struct {
	item domain.RightItem
	// origin is the index of the pair this value was taken from.
	origin int
}

// matchingEvaluator runs one matching round. Left items keep their session
// order; right items are shuffled separately and addressed by key.
type matchingEvaluator struct {
	pairs    []domain.MatchingPair
	rights   []rightEntry
	keyIndex map[string]int
	links    *Bijection
	selected int
	score    int
}

func newMatchingEvaluator(pairs []domain.MatchingPair, rights []rightEntry) *matchingEvaluator {
	keyIndex := make(map[string]int, len(rights))
	for i := range rights {
		rights[i].item.Key = rightKey(i)
		keyIndex[rights[i].item.Key] = i
	}
	return &matchingEvaluator{
		pairs:    pairs,
		rights:   rights,
		keyIndex: keyIndex,
		links:    NewBijection(len(pairs)),
		selected: -1,
	}
}

func (e *matchingEvaluator) Units() int          { return 1 }
func (e *matchingEvaluator) TotalQuestions() int { return len(e.pairs) }
func (e *matchingEvaluator) Score() int          { return e.score }

func (e *matchingEvaluator) IsComplete(unit int) bool {
	return unit == 0 && e.links.Complete()
}

// SelectLeft moves to LeftSelected(left) from any state.
func (e *matchingEvaluator) SelectLeft(left int) error {
	if left < 0 || left >= len(e.pairs) {
		return fmt.Errorf("%w: left item %d out of range", domain.ErrEvaluatorMisuse, left)
	}
	e.selected = left
	return nil
}

// ChooseRight binds key to the pending left item and returns to NoLeftSelected.
// Rejected calls leave the state untouched.
func (e *matchingEvaluator) ChooseRight(key string) (domain.MatchOutcome, error) {
	if e.selected < 0 {
		return domain.MatchOutcome{}, domain.ErrNoLeftPending
	}
	if _, ok := e.keyIndex[key]; !ok {
		return domain.MatchOutcome{}, fmt.Errorf("%w: unknown right item %q", domain.ErrInvalidAnswer, key)
	}
	left := e.selected
	if _, err := e.links.Bind(left, key); err != nil {
		return domain.MatchOutcome{}, err
	}
	e.selected = -1
	e.rescore()

	complete := e.links.Complete()
	return domain.MatchOutcome{
		Left:           left,
		Key:            key,
		Complete:       complete,
		Score:          e.score,
		AdvanceAllowed: complete,
	}, nil
}

// Unassign frees the key held by left so it can be matched again.
func (e *matchingEvaluator) Unassign(left int) error {
	if left < 0 || left >= len(e.pairs) {
		return fmt.Errorf("%w: left item %d out of range", domain.ErrEvaluatorMisuse, left)
	}
	e.links.Release(left)
	e.rescore()
	return nil
}

// rescore keeps the round's credit equal to the current mapping: the number of
// correct pairs once every left item is bound, zero before that.
func (e *matchingEvaluator) rescore() {
	if !e.links.Complete() {
		e.score = 0
		return
	}
	correct := 0
	for left := range e.pairs {
		if e.isCorrect(left) {
			correct++
		}
	}
	e.score = correct
}

func (e *matchingEvaluator) chosenValue(left int) (string, bool) {
	key, ok := e.links.CurrentAssignment(left)
	if !ok {
		return "", false
	}
	return e.rights[e.keyIndex[key]].item.Value, true
}

func (e *matchingEvaluator) isCorrect(left int) bool {
	value, ok := e.chosenValue(left)
	return ok && value == e.pairs[left].Right
}

// truePartner returns the right item that was split off from left's pair.
func (e *matchingEvaluator) truePartner(left int) domain.RightItem {
	for _, r := range e.rights {
		if r.origin == left {
			return r.item
		}
	}
	return domain.RightItem{}
}

func (e *matchingEvaluator) View(unit int) domain.QuestionView {
	n := len(e.pairs)
	view := domain.QuestionView{
		Index:       unit,
		Count:       1,
		Prompt:      fmt.Sprintf("Match the following math expressions with their answers (1-%d / A-%s)", n, rightKey(n-1)),
		Left:        make([]string, 0, n),
		Right:       make([]domain.RightItem, 0, len(e.rights)),
		Assignments: e.links.Snapshot(),
	}
	for _, p := range e.pairs {
		view.Left = append(view.Left, p.Left)
	}
	for _, r := range e.rights {
		view.Right = append(view.Right, r.item)
	}
	if e.selected >= 0 {
		sel := e.selected
		view.SelectedLeft = &sel
	}
	return view
}

func (e *matchingEvaluator) Review() []domain.ReviewEntry {
	out := make([]domain.ReviewEntry, 0, len(e.pairs))
	for i, p := range e.pairs {
		entry := domain.ReviewEntry{Index: i, Prompt: p.Left, Answer: domain.Unanswered}
		if key, ok := e.links.CurrentAssignment(i); ok {
			value, _ := e.chosenValue(i)
			entry.Answered = true
			entry.Answer = key + ") " + value
			entry.Correct = value == p.Right
		}
		if !entry.Correct {
			partner := e.truePartner(i)
			entry.CorrectAnswer = partner.Key + ") " + partner.Value
		}
		out = append(out, entry)
	}
	return out
}
