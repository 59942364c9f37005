package colour

import "math"

const (
	// ContrastThreshold is the luminance above which ContrastText picks black text.
	ContrastThreshold = 0.5

	// SoftContrastThreshold is the lower threshold used by ContrastTextSoft, which
	// prefers black text on mid-tone backgrounds.
	SoftContrastThreshold = 0.3
)

var (
	// Black is pure black text.
	Black = RGB{R: 0, G: 0, B: 0}

	// White is pure white text.
	White = RGB{R: 255, G: 255, B: 255}
)

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(rgb RGB) float64 {
	r := gammaCorrect(float64(rgb.R) / 255.0)
	g := gammaCorrect(float64(rgb.G) / 255.0)
	b := gammaCorrect(float64(rgb.B) / 255.0)

	return 0.2126*r + 0.7152*g + 0.0722*b
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21, where 21 is maximum contrast (black vs white).
func ContrastRatio(c1, c2 RGB) float64 {
	l1 := Luminance(c1)
	l2 := Luminance(c2)

	// Ensure l1 is the lighter colour.
	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// ContrastText returns black or white, whichever reads better on background.
func ContrastText(background RGB) RGB {
	return textFor(background, ContrastThreshold)
}

// ContrastTextSoft is ContrastText with the lower 0.3 threshold.
func ContrastTextSoft(background RGB) RGB {
	return textFor(background, SoftContrastThreshold)
}

func textFor(background RGB, threshold float64) RGB {
	if Luminance(background) > threshold {
		return Black
	}
	return White
}

// BrightnessAdjustment returns a CSS brightness() argument that moves a colour away
// from its own brightness: light colours are darkened, dark colours lightened.
func BrightnessAdjustment(rgb RGB) string {
	if Luminance(rgb) > ContrastThreshold {
		return "80%"
	}
	return "120%"
}
