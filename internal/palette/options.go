package palette

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultTopN is how many of the most frequent colours are considered candidates.
	DefaultTopN = 6

	// DefaultPickCount is the size of the curated selection.
	DefaultPickCount = 3

	// DefaultMinCount is the pixel count below which a colour is treated as noise.
	DefaultMinCount = 17

	// NoMinCount disables the noise filter: every colour may become a candidate.
	NoMinCount = -1
)

// Tuning holds the empirically tuned thresholds of the pipeline. Palettes are only
// stable across releases with DefaultTuning.
//
// A Tuning is all-or-nothing: start overrides from DefaultTuning rather than a partial
// literal. Validate rejects the zero fields a partial literal leaves behind.
type Tuning struct {
	// Sampler.
	MinBrightness       float64 // pixels darker than this are dropped
	EdgeBrightness      float64 // dark pixels next to transparency are dropped below this
	MaxHistogramColours int     // above this the image is requantised
	CoarsePrecision     int     // requantisation step

	// Distance.
	MutedLimit      float64 // saturation and lightness below this count as muted
	MutedSimilarity float64 // min/max ratio above which two muted colours are alike
	MutedHueScale   float64
	VividHueScale   float64

	// Refiner.
	HueBinSize    int
	MinHueBinSize int
	HueBinStep    int
	MinHueGroups  int
	GroupShare    float64 // representatives need this share of the group's top count

	// Reconciler.
	DarkSum            int
	GreySaturation     float64
	GreySum            int
	CountTolerance     float64
	DuplicateLightness float64 // 0-100 scale
	DuplicateHue       float64 // degrees
	ReplacementPool    int
	LeastBoringCount   int

	// Assembly.
	SelectionSize  int
	SwapSum        int
	SwapSaturation float64

	// Orderer.
	DominanceFactor      float64
	SuperDominanceFactor float64
	SimilarHue           float64
	DarkLightness        float64
	BoringSaturation     float64
	DullSaturation       float64
	LowCountFactor       float64
}

// DefaultTuning returns the tuned thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		MinBrightness:       26.5,
		EdgeBrightness:      35,
		MaxHistogramColours: 30,
		CoarsePrecision:     60,

		MutedLimit:      0.3,
		MutedSimilarity: 0.8,
		MutedHueScale:   0.5,
		VividHueScale:   2.0,

		HueBinSize:    60,
		MinHueBinSize: 10,
		HueBinStep:    5,
		MinHueGroups:  3,
		GroupShare:    0.85,

		DarkSum:            225,
		GreySaturation:     0.1,
		GreySum:            280,
		CountTolerance:     0.3,
		DuplicateLightness: 10,
		DuplicateHue:       10,
		ReplacementPool:    6,
		LeastBoringCount:   25,

		SelectionSize:  3,
		SwapSum:        10,
		SwapSaturation: 0.3,

		DominanceFactor:      1.29,
		SuperDominanceFactor: 3,
		SimilarHue:           10,
		DarkLightness:        0.2,
		BoringSaturation:     0.05,
		DullSaturation:       0.2,
		LowCountFactor:       0.7,
	}
}

// Options configures a pipeline run. The zero value is usable: unset fields take
// their defaults.
type Options struct {
	TopN      int
	PickCount int

	// MinCount is the noise threshold. Zero means DefaultMinCount; NoMinCount (or any
	// negative value) keeps every colour.
	MinCount int

	// Precision is the first-pass quantisation step (1 keeps exact colours).
	Precision int

	// Limit truncates the result; 0 keeps every colour.
	Limit int

	// Rules maps sprite identifiers to special-case overrides.
	Rules Rules

	Tuning Tuning

	// Logger receives stage diagnostics at debug and trace level.
	Logger hclog.Logger
}

// DefaultOptions returns the default configuration without special cases.
func DefaultOptions() Options {
	return Options{
		TopN:      DefaultTopN,
		PickCount: DefaultPickCount,
		MinCount:  DefaultMinCount,
		Precision: 1,
		Tuning:    DefaultTuning(),
	}
}

// Validate validates the options.
func (o Options) Validate() error {
	if o.TopN < 1 {
		return fmt.Errorf("top-n must be at least 1, got %d", o.TopN)
	}
	if o.PickCount < 1 {
		return fmt.Errorf("pick count must be at least 1, got %d", o.PickCount)
	}
	if o.Precision < 1 || o.Precision > 255 {
		return fmt.Errorf("precision must be between 1 and 255, got %d", o.Precision)
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit cannot be negative, got %d", o.Limit)
	}
	if o.Tuning != (Tuning{}) {
		if err := o.Tuning.Validate(); err != nil {
			return fmt.Errorf("invalid tuning: %w", err)
		}
	}
	if err := o.Rules.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the thresholds the stages divide by, loop on or index with.
func (t Tuning) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"max histogram colours", t.MaxHistogramColours},
		{"hue bin size", t.HueBinSize},
		{"minimum hue bin size", t.MinHueBinSize},
		{"hue bin step", t.HueBinStep},
		{"minimum hue groups", t.MinHueGroups},
		{"replacement pool", t.ReplacementPool},
		{"selection size", t.SelectionSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", p.name, p.value)
		}
	}

	if t.CoarsePrecision < 1 || t.CoarsePrecision > 255 {
		return fmt.Errorf("coarse precision must be between 1 and 255, got %d", t.CoarsePrecision)
	}
	if t.HueBinSize > 360 {
		return fmt.Errorf("hue bin size must be at most 360, got %d", t.HueBinSize)
	}
	if t.MinHueBinSize > t.HueBinSize {
		return fmt.Errorf("minimum hue bin size %d exceeds hue bin size %d", t.MinHueBinSize, t.HueBinSize)
	}
	if t.GroupShare <= 0 || t.GroupShare > 1 {
		return fmt.Errorf("group share must be in (0, 1], got %g", t.GroupShare)
	}
	if t.MutedSimilarity <= 0 || t.MutedSimilarity > 1 {
		return fmt.Errorf("muted similarity must be in (0, 1], got %g", t.MutedSimilarity)
	}
	if t.DominanceFactor <= 0 || t.SuperDominanceFactor <= 0 || t.LowCountFactor <= 0 {
		return fmt.Errorf("orderer factors must be positive, got %g/%g/%g",
			t.DominanceFactor, t.SuperDominanceFactor, t.LowCountFactor)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.TopN == 0 {
		o.TopN = DefaultTopN
	}
	if o.PickCount == 0 {
		o.PickCount = DefaultPickCount
	}
	if o.MinCount == 0 {
		o.MinCount = DefaultMinCount
	}
	if o.Precision == 0 {
		o.Precision = 1
	}
	if o.Tuning == (Tuning{}) {
		o.Tuning = DefaultTuning()
	}
	return o
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}
