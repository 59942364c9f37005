package palette

// BestCombination returns the k-subset of candidates with the largest summed pairwise
// distance. Subsets are enumerated in lexicographic index order and the first best
// one wins, so the result is deterministic. k is capped at len(candidates).
func BestCombination(candidates []Sample, k int, dist Distance) []Sample {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	pair := make([][]float64, n)
	for i := range pair {
		pair[i] = make([]float64, n)
		for j := range i {
			d := dist.Distance(candidates[i].RGB, candidates[j].RGB)
			pair[i][j], pair[j][i] = d, d
		}
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	best := make([]int, k)
	bestScore := -1.0

	for {
		score := 0.0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				score += pair[idx[i]][idx[j]]
			}
		}
		if score > bestScore {
			bestScore = score
			copy(best, idx)
		}

		// Advance to the next combination.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	combo := make([]Sample, k)
	for i, c := range best {
		combo[i] = candidates[c]
	}
	return combo
}
