package palette

import (
	"math"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Reconcile corrects the refined selection in four passes:
//
//  1. the most frequent colour replaces a selected colour from its hue bucket;
//  2. very dark or grey entries give way to a brighter colour of similar frequency;
//  3. near-identical shades are split up using other top-ranked colours;
//  4. a short selection gains its most saturated, frequent enough candidate.
//
// The result holds no repeated IDs.
func Reconcile(refined []Sample, red Reduction, rule Rule, t Tuning) []Sample {
	sel := append([]Sample(nil), refined...)

	sel = includeMostFrequent(sel, red.Ranked, rule, t)
	if rule.Mode != ModeColorDistance {
		sel = replaceDarkShades(sel, red.Ranked, t)
	}
	sel = splitNearDuplicates(sel, topRanked(red.Ranked, t.ReplacementPool), t)
	if len(sel) < t.SelectionSize {
		sel = appendLeastBoring(sel, topRanked(red.Ranked, t.ReplacementPool), rule, t)
	}
	return dedupe(sel)
}

func includeMostFrequent(sel, ranked []Sample, rule Rule, t Tuning) []Sample {
	if len(ranked) == 0 || containsID(sel, ranked[0].ID) {
		return sel
	}

	bin := t.HueBinSize
	if rule.Mode == ModeMostFrequent && rule.Value > 0 {
		bin = rule.Value
	}

	top := ranked[0]
	key := HueKey(top.RGB, bin)
	for i, s := range sel {
		if HueKey(s.RGB, bin) == key {
			sel[i] = top
			break
		}
	}
	return sel
}

func (t Tuning) isDark(c colour.RGB) bool {
	sum := c.Sum()
	if sum < t.DarkSum {
		return true
	}
	return colour.RGBToHSL(c).S < t.GreySaturation && sum < t.GreySum
}

func replaceDarkShades(sel, ranked []Sample, t Tuning) []Sample {
	for i, entry := range sel {
		if !t.isDark(entry.RGB) {
			continue
		}

		tolerance := t.CountTolerance * float64(entry.Count)
		best := -1
		bestValue := -1.0
		for j, c := range ranked {
			if c.RGB.Sum() <= entry.RGB.Sum() || containsID(sel, c.ID) {
				continue
			}
			if math.Abs(float64(c.Count-entry.Count)) > tolerance {
				continue
			}
			if collidesWithOthers(c, sel, i, t.HueBinSize) {
				continue
			}
			if v := colour.RGBToHSV(c.RGB).V; v > bestValue {
				best, bestValue = j, v
			}
		}
		if best >= 0 {
			sel[i] = ranked[best]
		}
	}
	return sel
}

// collidesWithOthers reports whether c shares a hue bucket with any selected entry
// other than the one at skip.
func collidesWithOthers(c Sample, sel []Sample, skip, bin int) bool {
	key := HueKey(c.RGB, bin)
	for i, s := range sel {
		if i != skip && HueKey(s.RGB, bin) == key {
			return true
		}
	}
	return false
}

func splitNearDuplicates(sel, pool []Sample, t Tuning) []Sample {
	used := make(map[int]bool, len(sel))
	for _, s := range sel {
		used[s.ID] = true
	}

	for i := 0; i < len(sel); i++ {
		for j := i + 1; j < len(sel); j++ {
			a, b := colour.RGBToHSL(sel[i].RGB), colour.RGBToHSL(sel[j].RGB)
			if math.Abs(a.L-b.L)*100 > t.DuplicateLightness || colour.HueDistance(a.H, b.H) > t.DuplicateHue {
				continue
			}

			lower := j
			if sel[i].Count < sel[j].Count {
				lower = i
			}

			keys := make(map[int]bool, len(sel))
			for _, s := range sel {
				keys[HueKey(s.RGB, t.HueBinSize)] = true
			}
			for _, c := range pool {
				if used[c.ID] || !keys[HueKey(c.RGB, t.HueBinSize)] {
					continue
				}
				used[c.ID] = true
				sel[lower] = c
				break
			}
		}
	}
	return sel
}

func appendLeastBoring(sel, pool []Sample, rule Rule, t Tuning) []Sample {
	threshold := t.LeastBoringCount
	if rule.Mode == ModeLeastBoringColor && rule.Value > 0 {
		threshold = rule.Value
	}

	meanSat := 0.0
	for _, s := range sel {
		meanSat += colour.RGBToHSL(s.RGB).S
	}
	if len(sel) > 0 {
		meanSat /= float64(len(sel))
	}

	best := -1
	bestSat := -1.0
	for i, c := range pool {
		if containsID(sel, c.ID) || c.Count <= threshold {
			continue
		}
		hsl := colour.RGBToHSL(c.RGB)
		if hsl.S <= meanSat || duplicatesHSL(sel, hsl) {
			continue
		}
		if hsl.S > bestSat {
			best, bestSat = i, hsl.S
		}
	}
	if best >= 0 {
		sel = append(sel, pool[best])
	}
	return sel
}

// duplicatesHSL reports whether a selected colour has the same hue, saturation and
// lightness after rounding to whole degrees and percent.
func duplicatesHSL(sel []Sample, hsl colour.HSL) bool {
	for _, s := range sel {
		o := colour.RGBToHSL(s.RGB)
		if math.Round(o.H) == math.Round(hsl.H) &&
			math.Round(o.S*100) == math.Round(hsl.S*100) &&
			math.Round(o.L*100) == math.Round(hsl.L*100) {
			return true
		}
	}
	return false
}

func topRanked(ranked []Sample, n int) []Sample {
	if len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}
