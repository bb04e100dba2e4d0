package similarity

// Ratio returns the sequence similarity of a and b in [0, 1]: twice the number
// of characters covered by the longest matching blocks divided by the total
// length of both strings. Inputs are normalized with Normalize first.
//
// Ratio(a, a) is 1 for any non-empty a, Ratio is symmetric, and it is 0 when
// either string is empty after normalization.
func Ratio(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	// Block matching picks the first longest match it sees, which depends on
	// argument order. Fixing the order keeps the result symmetric.
	if b < a {
		a, b = b, a
	}

	ra, rb := []rune(a), []rune(b)
	matched := matchingCharacters(ra, rb)
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// UpperBound returns a cheap upper bound on Ratio(a, b) computed from lengths
// alone. Pairs whose bound is under a threshold can be skipped safely.
func UpperBound(a, b string) float64 {
	la := len([]rune(Normalize(a)))
	lb := len([]rune(Normalize(b)))
	if la == 0 || lb == 0 {
		return 0
	}
	return 2 * float64(min(la, lb)) / float64(la+lb)
}

type span struct {
	alo, ahi int
	blo, bhi int
}

// matchingCharacters finds the longest common block, then recurses into the
// pieces left and right of it, and sums the block sizes
func matchingCharacters(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s)
		if k == 0 {
			continue
		}
		total += k

		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longestMatch returns the longest block a[i:i+k] == b[j:j+k] inside s,
// preferring the earliest i and then the earliest j on ties
func longestMatch(a []rune, b2j map[rune][]int, s span) (besti, bestj, bestk int) {
	besti, bestj = s.alo, s.blo

	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}
