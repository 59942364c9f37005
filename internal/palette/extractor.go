package palette

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// ErrUnknownAlgorithm is returned for an unrecognised algorithm name.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Extractor defines the interface for palette extraction algorithms.
type Extractor interface {
	// Extract extracts a palette from a decoded sprite. id selects special-case rules
	// where the algorithm supports them.
	Extract(img image.Image, id int) (Result, error)
}

// Algorithm represents the palette extraction algorithm type.
type Algorithm string

const (
	// AlgorithmSprite runs the full curated pipeline (default).
	AlgorithmSprite Algorithm = "sprite"

	// AlgorithmFrequency ranks filtered colours by pixel count only.
	AlgorithmFrequency Algorithm = "frequency"

	// AlgorithmKMeans clusters the image with k-means. Ignores special cases.
	AlgorithmKMeans Algorithm = "kmeans"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmSprite,
		AlgorithmFrequency,
		AlgorithmKMeans,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	return slices.Contains(ValidAlgorithms(), alg)
}

// NewExtractor creates a new Extractor based on the specified algorithm.
func NewExtractor(alg Algorithm, opts Options) (Extractor, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	switch alg {
	case AlgorithmSprite, "":
		return &SpriteExtractor{opts: opts}, nil
	case AlgorithmFrequency:
		return &FrequencyExtractor{opts: opts}, nil
	case AlgorithmKMeans:
		return &KMeansExtractor{k: max(opts.PickCount, opts.Limit), limit: opts.Limit}, nil
	default:
		return nil, fmt.Errorf("%w: %s (valid algorithms: %v)", ErrUnknownAlgorithm, alg, ValidAlgorithms())
	}
}

// FromImage copies any decoded image into a PixelImage.
func FromImage(img image.Image) PixelImage {
	nrgba := imaging.Clone(img)
	return PixelImage{
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pix:    nrgba.Pix,
	}
}

// SpriteExtractor runs Extract.
type SpriteExtractor struct {
	opts Options
}

// Extract implements Extractor.
func (e *SpriteExtractor) Extract(img image.Image, id int) (Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	return Extract(FromImage(img), id, e.opts)
}

// FrequencyExtractor ranks the sampled histogram by count.
type FrequencyExtractor struct {
	opts Options
}

// Extract implements Extractor.
func (e *FrequencyExtractor) Extract(img image.Image, _ int) (Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	hist := SampleImage(FromImage(img), e.opts.Precision, e.opts.Tuning)
	return Frequency(hist, e.opts.Limit), nil
}

// KMeansExtractor clusters colours with prominentcolor.
type KMeansExtractor struct {
	k     int
	limit int
}

// Extract implements Extractor.
func (e *KMeansExtractor) Extract(img image.Image, _ int) (Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}

	// The default masks drop black, white and green-screen backgrounds, which covers
	// transparent sprite backgrounds decoded as black.
	items, err := prominentcolor.KmeansWithAll(e.k, img, prominentcolor.ArgumentNoCropping,
		prominentcolor.DefaultSize, prominentcolor.GetDefaultMasks())
	if err != nil {
		return nil, fmt.Errorf("failed to cluster colours: %w", err)
	}

	total := 0
	for _, item := range items {
		total += item.Cnt
	}
	if total == 0 {
		return Result{}, nil
	}

	hist := NewHistogram()
	for _, item := range items {
		hist.Add(prominentRGB(item.Color), item.Cnt)
	}
	return Frequency(hist, e.limit), nil
}

func prominentRGB(c prominentcolor.ColorRGB) colour.RGB {
	return colour.RGB{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B)}
}
