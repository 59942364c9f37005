package palette

// Reduction is the output of the candidate reducer.
type Reduction struct {
	// Ranked is every histogram entry by count, descending.
	Ranked []Sample

	// Candidates are the top-n ranked entries that reach the minimum count.
	Candidates []Sample

	// HandPicked is set when a handPickedColors rule applied; Picked then holds the
	// ranked entries matching the pinned colours and the search stages are skipped.
	HandPicked bool
	Picked     []Sample
}

// Reduce ranks the histogram and bounds the candidate set, applying rule overrides.
func Reduce(samples []Sample, rule Rule, opts Options) Reduction {
	ranked := rankByCount(samples)
	red := Reduction{Ranked: ranked}

	topN := opts.TopN
	switch rule.Mode {
	case ModeHandPickedColors:
		red.HandPicked = true
		red.Picked = matchColours(ranked, rule)
	case ModeTopNColors:
		if rule.Value > 0 {
			topN = rule.Value
		}
	}

	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}
	for _, s := range top {
		if s.Count >= opts.MinCount {
			red.Candidates = append(red.Candidates, s)
		}
	}
	return red
}

// matchColours returns the ranked entries whose colour exactly equals a pinned colour.
// A rule that matches nothing yields an empty prefix.
func matchColours(ranked []Sample, rule Rule) []Sample {
	var picked []Sample
	for _, s := range ranked {
		for _, c := range rule.Colours {
			if s.RGB == c {
				picked = append(picked, s)
				break
			}
		}
	}
	return picked
}
