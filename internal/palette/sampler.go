package palette

import (
	"math"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// Histogram counts quantised colours in first-seen order. The position of a colour
// is its Sample ID.
type Histogram struct {
	samples []Sample
	index   map[colour.RGB]int
	total   int
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{index: make(map[colour.RGB]int)}
}

// Add adds n pixels of colour c.
func (h *Histogram) Add(c colour.RGB, n int) {
	if n <= 0 {
		return
	}
	h.total += n
	if i, ok := h.index[c]; ok {
		h.samples[i].Count += n
		return
	}
	h.index[c] = len(h.samples)
	h.samples = append(h.samples, Sample{ID: len(h.samples), RGB: c, Count: n})
}

// Len returns the number of distinct colours.
func (h *Histogram) Len() int {
	return len(h.samples)
}

// Total returns the number of accepted pixels.
func (h *Histogram) Total() int {
	return h.total
}

// Samples returns a copy of the entries in ID order.
func (h *Histogram) Samples() []Sample {
	return append([]Sample(nil), h.samples...)
}

// Overflow reports whether the histogram has more than limit colours.
func (h *Histogram) Overflow(limit int) bool {
	return h.Len() > limit
}

// SampleImage builds the colour histogram of img. Transparent, near-black and dark
// anti-aliased edge pixels are skipped. When more than MaxHistogramColours remain the
// whole image is scanned again at CoarsePrecision; the passes are never merged.
func SampleImage(img PixelImage, precision int, t Tuning) *Histogram {
	hist := scan(img, precision, t)
	if hist.Overflow(t.MaxHistogramColours) && precision != t.CoarsePrecision {
		hist = scan(img, t.CoarsePrecision, t)
	}
	return hist
}

func scan(img PixelImage, precision int, t Tuning) *Histogram {
	hist := NewHistogram()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 4
			if img.Pix[i+3] == 0 {
				continue
			}

			c := colour.RGB{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2]}
			brightness := c.Brightness()
			if brightness < t.MinBrightness {
				continue
			}
			if brightness < t.EdgeBrightness && img.bordersTransparency(x, y) {
				continue
			}

			hist.Add(quantise(c, precision), 1)
		}
	}
	return hist
}

// bordersTransparency reports whether a 4-neighbour inside the image is fully
// transparent. Pixels outside the image do not count.
func (p PixelImage) bordersTransparency(x, y int) bool {
	neighbours := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
	for _, n := range neighbours {
		nx, ny := n[0], n[1]
		if nx < 0 || ny < 0 || nx >= p.Width || ny >= p.Height {
			continue
		}
		if p.Pix[(ny*p.Width+nx)*4+3] == 0 {
			return true
		}
	}
	return false
}

func quantise(c colour.RGB, precision int) colour.RGB {
	if precision <= 1 {
		return c
	}
	return colour.RGB{
		R: quantiseChannel(c.R, precision),
		G: quantiseChannel(c.G, precision),
		B: quantiseChannel(c.B, precision),
	}
}

func quantiseChannel(v uint8, precision int) uint8 {
	p := float64(precision)
	q := math.Round(float64(v)/p) * p
	return uint8(math.Min(q, 255))
}
