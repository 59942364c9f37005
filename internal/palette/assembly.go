package palette

import (
	"math"
	"sort"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Assemble pads the selection to SelectionSize from the unselected ranked entries and,
// when swap is set, breaks up the first pair of near-identical vivid colours among the
// first pickCount entries. It returns the selection followed by every other ranked
// entry by count.
func Assemble(selection, ranked []Sample, pickCount int, swap bool, t Tuning) []Sample {
	top := dedupe(selection)
	remainder := without(ranked, top)

	for len(top) < t.SelectionSize && len(remainder) > 0 {
		top = append(top, remainder[0])
		remainder = remainder[1:]
	}

	if swap {
		top, remainder = swapLookalike(top, remainder, pickCount, t)
	}

	sort.SliceStable(remainder, func(i, j int) bool {
		return remainder[i].Count > remainder[j].Count
	})

	out := make([]Sample, 0, len(top)+len(remainder))
	out = append(out, top...)
	return append(out, remainder...)
}

func swapLookalike(top, remainder []Sample, pickCount int, t Tuning) ([]Sample, []Sample) {
	if len(remainder) == 0 {
		return top, remainder
	}

	n := min(pickCount, len(top))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := top[i], top[j]
			if math.Abs(float64(a.RGB.Sum()-b.RGB.Sum())) > float64(t.SwapSum) {
				continue
			}
			if HueKey(a.RGB, t.HueBinSize) != HueKey(b.RGB, t.HueBinSize) {
				continue
			}
			if colour.RGBToHSL(a.RGB).S <= t.SwapSaturation || colour.RGBToHSL(b.RGB).S <= t.SwapSaturation {
				continue
			}

			lower := j
			if a.Count < b.Count {
				lower = i
			}
			out := top[lower]
			top[lower] = remainder[0]
			remainder = append(remainder[1:], out)
			return top, remainder
		}
	}
	return top, remainder
}
