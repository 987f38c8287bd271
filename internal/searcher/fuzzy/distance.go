// Package fuzzy implements bounded edit distance, the similarity score
// derived from it, and n-gram based lookup of approximate index terms.
//
// Distance is the optimal string alignment variant of Levenshtein
// distance: swapping two adjacent characters counts as one edit, so
// "iphoen" is one edit from "iphone" rather than two.
package fuzzy

import "math"

// Distance returns the edit distance between a and b, counting insertions,
// deletions, substitutions and swaps of two adjacent characters as one
// edit each. When the distance is known to exceed maxDist the computation
// stops early and returns maxDist+1. A negative maxDist means unbounded.
func Distance(a, b string, maxDist int) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if maxDist < 0 {
		maxDist = max(len(ra), len(rb))
	}
	if abs(len(ra)-len(rb)) > maxDist {
		return maxDist + 1
	}

	// Three rolling rows: two back (for adjacent swaps), previous, current.
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		// Row minima never decrease, so nothing below can come back in budget.
		if rowMin > maxDist {
			return maxDist + 1
		}
		prev2, prev, curr = prev, curr, prev2
	}
	if d := prev[len(rb)]; d <= maxDist {
		return d
	}
	return maxDist + 1
}

// Similarity returns 1 - distance/max(len(a), len(b)). Two empty strings
// are fully similar.
func Similarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b, -1))/float64(longest)
}

// SimilarAtLeast reports whether Similarity(a, b) >= threshold. It bounds
// the distance computation by the largest distance the threshold allows.
func SimilarAtLeast(a, b string, threshold float64) bool {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return threshold <= 1
	}
	// The epsilon keeps float rounding from shaving a whole edit off the
	// budget; the final comparison below is exact.
	budget := int(math.Floor((1-threshold)*float64(longest) + 1e-9))
	if budget < 0 {
		return false
	}
	d := Distance(a, b, budget)
	if d > budget {
		return false
	}
	return 1-float64(d)/float64(longest) >= threshold
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
