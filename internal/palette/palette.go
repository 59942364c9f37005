// Package palette turns a decoded sprite into a small, ordered, visually diverse colour
// palette.
//
// The pipeline runs in fixed stages, each a pure function over Samples:
//
//	SampleImage -> Reduce -> BestCombination -> Refine -> Reconcile -> Assemble -> Order
//
// Samples carry a stable ID (their index in the histogram) so stages compare entries by
// identity rather than by colour value. Nothing in this package performs I/O or keeps
// state between calls; identical inputs always produce identical results.
package palette

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// ErrInvalidImage is returned when a PixelImage buffer does not match its dimensions.
var ErrInvalidImage = errors.New("invalid pixel image")

// PixelImage is a decoded sprite: row-major, non-premultiplied RGBA, 4 bytes per pixel.
type PixelImage struct {
	Width  int
	Height int
	Pix    []byte
}

// Validate checks the buffer is large enough for the declared dimensions.
func (p PixelImage) Validate() error {
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidImage, p.Width, p.Height)
	}
	if need := p.Width * p.Height * 4; len(p.Pix) < need {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrInvalidImage, p.Width, p.Height, need, len(p.Pix))
	}
	return nil
}

// Sample is one histogram entry.
type Sample struct {
	ID    int
	RGB   colour.RGB
	Count int
}

// Swatch is one entry of an extracted palette.
type Swatch struct {
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
}

// Result is an ordered palette. The first three swatches are the curated selection,
// the rest follow by pixel count.
type Result []Swatch

// Empty reports whether no pixel survived filtering.
func (r Result) Empty() bool {
	return len(r) == 0
}

// Hex returns the swatch colours as hex strings.
func (r Result) Hex() []string {
	hex := make([]string, len(r))
	for i, s := range r {
		hex[i] = s.Hex
	}
	return hex
}

// Extract runs the full pipeline on a decoded sprite. id selects a special-case rule
// from opts.Rules; ids without a rule use the default heuristics.
//
// A fully transparent or fully filtered image yields an empty Result and no error.
func Extract(img PixelImage, id int, opts Options) (Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hist := SampleImage(img, opts.Precision, opts.Tuning)
	log := opts.logger()
	log.Debug("sampled sprite", "id", id, "colours", hist.Len(), "pixels", hist.Total())

	if hist.Len() == 0 {
		return Result{}, nil
	}
	if hist.Overflow(opts.Tuning.MaxHistogramColours) {
		log.Debug("histogram too large for refinement, ranking by frequency", "colours", hist.Len())
		return Frequency(hist, opts.Limit), nil
	}
	return FromHistogram(hist, id, opts), nil
}

// FromHistogram runs the refinement stages on an already-built histogram.
func FromHistogram(hist *Histogram, id int, opts Options) Result {
	opts = opts.withDefaults()
	log := opts.logger()
	if hist.Len() == 0 {
		return Result{}
	}

	rule, _ := opts.Rules.Lookup(id)
	red := Reduce(hist.Samples(), rule, opts)

	var ordered []Sample
	if red.HandPicked {
		log.Trace("hand-picked colours", "id", id, "matched", len(red.Picked))
		ordered = Assemble(red.Picked, red.Ranked, opts.PickCount, false, opts.Tuning)
	} else {
		combo := BestCombination(red.Candidates, opts.PickCount, DistanceFor(rule.Mode, opts.Tuning))
		refined, bin := Refine(combo, red.Candidates, opts.Tuning)
		log.Trace("refined", "id", id, "combo", len(combo), "groups", len(refined), "bin", bin)

		selection := Reconcile(refined, red, rule, opts.Tuning)
		ordered = Assemble(selection, red.Ranked, opts.PickCount, true, opts.Tuning)
	}

	ordered = Order(ordered, opts.MinCount, opts.Tuning)
	return toResult(ordered, hist.Total(), opts.Limit)
}

// Frequency ranks the histogram by pixel count without any refinement.
func Frequency(hist *Histogram, limit int) Result {
	return toResult(rankByCount(hist.Samples()), hist.Total(), limit)
}

func toResult(samples []Sample, total, limit int) Result {
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}
	result := make(Result, len(samples))
	for i, s := range samples {
		result[i] = Swatch{
			Hex:        s.RGB.Hex(),
			Percentage: float64(s.Count) * 100 / float64(total),
		}
	}
	return result
}

// rankByCount returns a copy sorted by count descending; ties keep their input order.
func rankByCount(samples []Sample) []Sample {
	ranked := append([]Sample(nil), samples...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

func containsID(samples []Sample, id int) bool {
	for _, s := range samples {
		if s.ID == id {
			return true
		}
	}
	return false
}

// dedupe drops repeated IDs, keeping the first occurrence.
func dedupe(samples []Sample) []Sample {
	seen := make(map[int]bool, len(samples))
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// without returns the samples whose IDs are not in exclude, preserving order.
func without(samples, exclude []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if !containsID(exclude, s.ID) {
			out = append(out, s)
		}
	}
	return out
}
