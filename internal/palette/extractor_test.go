package palette

import (
	"errors"
	"image"
	"image/color"
	"math"
	"reflect"
	"testing"
)

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		alg     Algorithm
		want    Extractor
		wantErr error
	}{
		{alg: AlgorithmSprite, want: &SpriteExtractor{}},
		{alg: "", want: &SpriteExtractor{}},
		{alg: AlgorithmFrequency, want: &FrequencyExtractor{}},
		{alg: AlgorithmKMeans, want: &KMeansExtractor{}},
		{alg: "median-cut", wantErr: ErrUnknownAlgorithm},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			got, err := NewExtractor(tt.alg, DefaultOptions())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewExtractor() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExtractor() unexpected error: %v", err)
			}
			if reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
				t.Errorf("NewExtractor() = %T, want %T", got, tt.want)
			}
		})
	}

	if _, err := NewExtractor(AlgorithmSprite, Options{Limit: -2}); err == nil {
		t.Error("NewExtractor() expected error for invalid options")
	}
}

func TestIsValidAlgorithm(t *testing.T) {
	for _, alg := range ValidAlgorithms() {
		if !IsValidAlgorithm(alg) {
			t.Errorf("IsValidAlgorithm(%q) = false", alg)
		}
	}
	if IsValidAlgorithm("octree") {
		t.Error("IsValidAlgorithm(octree) = true")
	}
}

func TestFromImage(t *testing.T) {
	img := nrgbaOf(sample(0, rgb(10, 20, 30), 2), sample(1, rgb(200, 100, 50), 1))
	got := FromImage(img)

	if got.Width != 3 || got.Height != 1 {
		t.Fatalf("FromImage() size = %dx%d, want 3x1", got.Width, got.Height)
	}
	want := []byte{10, 20, 30, 255, 10, 20, 30, 255, 200, 100, 50, 255}
	if !reflect.DeepEqual(got.Pix, want) {
		t.Errorf("FromImage() pix = %v, want %v", got.Pix, want)
	}

	sub := img.SubImage(image.Rect(2, 0, 3, 1))
	if got := FromImage(sub); got.Width != 1 || !reflect.DeepEqual(got.Pix, want[8:]) {
		t.Errorf("FromImage(sub) = %+v", got)
	}
}

func TestExtractors(t *testing.T) {
	img := nrgbaOf(
		sample(0, rgb(0, 255, 0), 50),
		sample(1, rgb(0, 0, 255), 900),
		sample(2, rgb(255, 0, 0), 1000),
	)

	tests := []struct {
		alg  Algorithm
		want []string
	}{
		{alg: AlgorithmSprite, want: []string{"#ff0000", "#0000ff", "#00ff00"}},
		{alg: AlgorithmFrequency, want: []string{"#ff0000", "#0000ff", "#00ff00"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			e, err := NewExtractor(tt.alg, DefaultOptions())
			if err != nil {
				t.Fatalf("NewExtractor() error: %v", err)
			}
			got, err := e.Extract(img, 0)
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if hex := got.Hex(); !reflect.DeepEqual(hex, tt.want) {
				t.Errorf("Extract() = %v, want %v", hex, tt.want)
			}
		})
	}
}

func TestKMeansExtractor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 44))
	for y := 0; y < 44; y++ {
		c := color.NRGBA{R: 200, G: 40, B: 40, A: 255}
		switch {
		case y >= 35:
			c = color.NRGBA{R: 220, G: 200, B: 40, A: 255}
		case y >= 20:
			c = color.NRGBA{R: 40, G: 40, B: 200, A: 255}
		}
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	e, err := NewExtractor(AlgorithmKMeans, DefaultOptions())
	if err != nil {
		t.Fatalf("NewExtractor() error: %v", err)
	}
	got, err := e.Extract(img, 0)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got.Empty() || len(got) > DefaultPickCount {
		t.Fatalf("Extract() returned %d colours", len(got))
	}

	sum := 0.0
	for _, s := range got {
		sum += s.Percentage
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("percentages sum to %v, want 100", sum)
	}
}

func TestExtractorsRejectNil(t *testing.T) {
	for _, alg := range ValidAlgorithms() {
		e, err := NewExtractor(alg, DefaultOptions())
		if err != nil {
			t.Fatalf("NewExtractor(%s) error: %v", alg, err)
		}
		if _, err := e.Extract(nil, 0); err == nil {
			t.Errorf("%s: Extract(nil) expected error", alg)
		}
	}
}
