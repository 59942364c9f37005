package palette

import (
	"math"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Distance measures how different two colours look.
type Distance interface {
	Distance(a, b colour.RGB) float64
}

// DistanceFor picks the metric for a special-case mode.
func DistanceFor(mode Mode, t Tuning) Distance {
	if mode == ModeColorDistance {
		return Euclidean{}
	}
	return PerceptualHSL{
		MutedLimit:      t.MutedLimit,
		MutedSimilarity: t.MutedSimilarity,
		MutedHueScale:   t.MutedHueScale,
		VividHueScale:   t.VividHueScale,
	}
}

// Euclidean is the straight-line distance in RGB space.
type Euclidean struct{}

// Distance implements Distance.
func (Euclidean) Distance(a, b colour.RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// PerceptualHSL weighs hue, saturation and lightness differences. Hue dominates for
// vivid colours and is damped for pairs of similar dark, muted colours, where hue shifts
// are hard to see.
type PerceptualHSL struct {
	MutedLimit      float64
	MutedSimilarity float64
	MutedHueScale   float64
	VividHueScale   float64
}

// Distance implements Distance.
func (p PerceptualHSL) Distance(a, b colour.RGB) float64 {
	ha, hb := colour.RGBToHSL(a), colour.RGBToHSL(b)

	scale := p.VividHueScale
	if p.muted(ha, hb) {
		scale = p.MutedHueScale
	}

	hue := colour.HueDistance(ha.H, hb.H) / 180 * scale
	sat := math.Abs(ha.S - hb.S)
	light := math.Abs(ha.L - hb.L)
	return math.Sqrt(hue*hue + sat*sat + light*light)
}

func (p PerceptualHSL) muted(a, b colour.HSL) bool {
	return a.S < p.MutedLimit && b.S < p.MutedLimit &&
		a.L < p.MutedLimit && b.L < p.MutedLimit &&
		similarity(a.S, b.S) > p.MutedSimilarity &&
		similarity(a.L, b.L) > p.MutedSimilarity
}

// similarity is the min/max ratio of two non-negative values; equal values are 1.
func similarity(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi == 0 {
		return 1
	}
	return math.Min(a, b) / hi
}
