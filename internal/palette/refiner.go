package palette

import (
	"math"
	"sort"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// HueKey buckets a colour's hue into bins of binSize degrees. The bin that rounds up to
// 360 is folded onto 0 so reds on either side of the wheel share a bucket.
func HueKey(c colour.RGB, binSize int) int {
	h := colour.RGBToHSL(c).H
	key := int(math.Round(h/float64(binSize))) * binSize
	if key >= 360 {
		return 0
	}
	return key
}

// Refine maps the chosen combination onto one representative per hue bucket. The bin
// shrinks from HueBinSize in HueBinStep steps until the combination spans MinHueGroups
// buckets or the bin reaches MinHueBinSize. Within each bucket the brightest candidate
// holding at least GroupShare of the bucket's top count wins.
//
// The returned bin size is the one finally used.
func Refine(combo, candidates []Sample, t Tuning) ([]Sample, int) {
	bin := t.HueBinSize
	if len(combo) == 0 {
		return nil, bin
	}

	keys := hueKeys(combo, bin)
	for len(keys) < t.MinHueGroups && bin > t.MinHueBinSize {
		bin -= t.HueBinStep
		keys = hueKeys(combo, bin)
	}

	refined := make([]Sample, 0, len(keys))
	for _, key := range keys {
		var group []Sample
		top := 0
		for _, c := range candidates {
			if HueKey(c.RGB, bin) == key {
				group = append(group, c)
				top = max(top, c.Count)
			}
		}
		if len(group) == 0 {
			continue
		}

		best := -1
		bestValue := -1.0
		for i, c := range group {
			if float64(c.Count) < t.GroupShare*float64(top) {
				continue
			}
			if v := colour.RGBToHSV(c.RGB).V; v > bestValue {
				best, bestValue = i, v
			}
		}
		if best < 0 {
			continue
		}
		refined = append(refined, group[best])
	}

	refined = dedupe(refined)
	sort.SliceStable(refined, func(i, j int) bool {
		return refined[i].Count > refined[j].Count
	})
	return refined, bin
}

// hueKeys returns the distinct hue keys of samples in first-appearance order.
func hueKeys(samples []Sample, bin int) []int {
	var keys []int
	seen := make(map[int]bool)
	for _, s := range samples {
		k := HueKey(s.RGB, bin)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
