package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a colour in HSV space: hue in degrees [0, 360), saturation and value in [0, 1].
type HSV struct {
	H, S, V float64
}

// HSL is a colour in HSL space: hue in degrees [0, 360), saturation and lightness in [0, 1].
type HSL struct {
	H, S, L float64
}

// RGBToHSV converts RGB to HSV.
func RGBToHSV(rgb RGB) HSV {
	h, s, v := rgb.Colorful().Hsv()
	return HSV{H: h, S: s, V: v}
}

// HSVToRGB converts HSV to RGB, clamping out-of-gamut results.
func HSVToRGB(hsv HSV) RGB {
	return fromColorful(colorful.Hsv(normaliseHue(hsv.H), clamp01(hsv.S), clamp01(hsv.V)))
}

// RGBToHSL converts RGB to HSL.
func RGBToHSL(rgb RGB) HSL {
	h, s, l := rgb.Colorful().Hsl()
	return HSL{H: h, S: s, L: l}
}

// HSLToRGB converts HSL to RGB, clamping out-of-gamut results.
func HSLToRGB(hsl HSL) RGB {
	return fromColorful(colorful.Hsl(normaliseHue(hsl.H), clamp01(hsl.S), clamp01(hsl.L)))
}

// HueDistance calculates the angular distance between two hues on the colour wheel.
// Returns a value between 0 and 180 degrees (shortest path around the wheel).
func HueDistance(h1, h2 float64) float64 {
	diff := math.Abs(h1 - h2)
	if diff > 180 {
		diff = 360 - diff // Handle wraparound
	}
	return diff
}

func fromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func normaliseHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
