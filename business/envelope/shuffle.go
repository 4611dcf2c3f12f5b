package envelope

import "math/rand"

// Shuffle returns a seed-determined permutation of amounts. The same seed and
// input always produce the same order, which is what lets a returning visitor
// see the same envelope-to-amount assignment without storing the permutation.
// The input slice is never mutated.
func Shuffle(amounts []int64, seed int64) []int64 {
	out := make([]int64, len(amounts))
	copy(out, amounts)

	rng := rand.New(rand.NewSource(seed))
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}
