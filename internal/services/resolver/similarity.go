package resolver

import "sort"

// Similarity computes the Ratcliff/Obershelp similarity of two strings:
// twice the number of matching characters divided by the total length.
// The result is in [0, 1], with 1 meaning identical strings.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

// matchingChars counts matched characters by recursively finding the longest
// common substring and matching the pieces on either side of it
func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	bestLen, bestA, bestB := 0, 0, 0

	// lengths[j] is the length of the common suffix ending at a[i-1], b[j-1]
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > bestLen {
					bestLen = lengths[j]
					bestA = i - bestLen
					bestB = j - bestLen
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}

	if bestLen == 0 {
		return 0
	}

	return bestLen +
		matchingChars(a[:bestA], b[:bestB]) +
		matchingChars(a[bestA+bestLen:], b[bestB+bestLen:])
}

// match pairs a candidate string with its similarity score
type match struct {
	value string
	score float64
}

// closeMatches returns up to n candidates whose similarity to word meets
// cutoff, ordered best first. Ties keep the candidates' input order.
func closeMatches(word string, candidates []string, n int, cutoff float64) []match {
	if n <= 0 {
		return nil
	}

	scored := make([]match, 0, 8)
	for _, c := range candidates {
		if s := Similarity(word, c); s >= cutoff {
			scored = append(scored, match{value: c, score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
