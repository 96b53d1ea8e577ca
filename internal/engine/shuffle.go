package engine

import "math/rand/v2"

// Rand is the random source used by every randomisation step.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the goroutine-safe top-level math/rand/v2 generator.
var DefaultRand Rand = globalRand{}

// Shuffle permutes s in place with Fisher-Yates and returns it.
func Shuffle[T any](r Rand, s []T) []T {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
	return s
}
