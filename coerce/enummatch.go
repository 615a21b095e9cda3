package coerce

import "strings"

// matchEnum selects the best variant for the input string t. Each candidate
// name scores the best of: normalised equality (0), case-insensitive
// containment either way (1), or the Damerau-Levenshtein distance between
// the normal forms. The lowest score wins, ties going to declaration order.
// A winner whose score exceeds ⌊max(3, len(name)/3)⌋ is rejected.
//
// Returns the winning index, or -1 when nothing is close enough.
func matchEnum(t string, names []string) int {
	normT := NormalizeName(t)
	lowerT := strings.ToLower(t)

	best := -1
	bestScore := 0

	for i, name := range names {
		score := variantScore(normT, lowerT, name)
		if best < 0 || score < bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return -1
	}

	limit := max(3, len(names[best])/3)
	if bestScore > limit {
		return -1
	}

	return best
}

func variantScore(normT, lowerT, name string) int {
	normName := NormalizeName(name)
	if normT == normName {
		return 0
	}

	lowerName := strings.ToLower(name)
	if strings.Contains(lowerName, lowerT) || strings.Contains(lowerT, lowerName) {
		return 1
	}

	return damerau(normT, normName)
}

// damerau computes the optimal string alignment distance: insertions,
// deletions, substitutions, and adjacent transpositions each cost one.
func damerau(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}

	if len(rb) == 0 {
		return len(ra)
	}

	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)

			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1) // transposition
			}
		}

		prev2, prev, cur = prev, cur, prev2
	}

	return prev[len(rb)]
}
