package palette

import (
	"sort"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Order arranges the first three entries for display; later entries are untouched.
//
// Entries are sorted brightest and most saturated first, with entries below minCount
// pushed to the back. A dominant colour (DominanceFactor times every other count) is
// promoted to the front unless it is a dull dark shade or a dark near-twin of another
// entry; an overwhelming one (SuperDominanceFactor) is always promoted. Finally a lead
// entry far rarer than both others moves to the back.
//
// The outcome depends only on which entries are present, so Order is idempotent.
func Order(samples []Sample, minCount int, t Tuning) []Sample {
	out := append([]Sample(nil), samples...)
	head := out[:min(t.SelectionSize, len(out))]
	if len(head) == 0 {
		return out
	}

	less := func(a, b Sample) bool {
		aLow, bLow := a.Count < minCount, b.Count < minCount
		if aLow != bLow {
			return !aLow
		}
		if sa, sb := vividness(a.RGB), vividness(b.RGB); sa != sb {
			return sa > sb
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ID < b.ID
	}
	sort.SliceStable(head, func(i, j int) bool { return less(head[i], head[j]) })

	if d := dominant(head, t.DominanceFactor); d > 0 && shouldPromote(head, d, t) {
		lead := head[d]
		copy(head[1:d+1], head[:d])
		head[0] = lead
	}

	if len(head) >= 3 {
		first := float64(head[0].Count)
		if first < t.LowCountFactor*float64(head[1].Count) && first < t.LowCountFactor*float64(head[2].Count) {
			lead := head[0]
			copy(head, head[1:])
			head[len(head)-1] = lead
			if less(head[1], head[0]) {
				head[0], head[1] = head[1], head[0]
			}
		}
	}
	return out
}

// vividness is HSV value plus saturation.
func vividness(c colour.RGB) float64 {
	hsv := colour.RGBToHSV(c)
	return hsv.V + hsv.S
}

// dominant returns the index of the entry whose count is at least factor times every
// other count, or -1.
func dominant(head []Sample, factor float64) int {
	for i, s := range head {
		if outweighs(head, i, s.Count, factor) {
			return i
		}
	}
	return -1
}

func outweighs(head []Sample, idx, count int, factor float64) bool {
	for j, o := range head {
		if j != idx && float64(count) < factor*float64(o.Count) {
			return false
		}
	}
	return true
}

func shouldPromote(head []Sample, d int, t Tuning) bool {
	if outweighs(head, d, head[d].Count, t.SuperDominanceFactor) {
		return true
	}

	hsl := colour.RGBToHSL(head[d].RGB)
	similarShadeDark := false
	for j, o := range head {
		if j == d {
			continue
		}
		oh := colour.RGBToHSL(o.RGB).H
		if oh != hsl.H && colour.HueDistance(oh, hsl.H) < t.SimilarHue && hsl.L < t.DarkLightness {
			similarShadeDark = true
			break
		}
	}
	boring := hsl.S < t.BoringSaturation || (hsl.S < t.DullSaturation && hsl.L < t.DarkLightness)
	return !similarShadeDark && !boring
}
