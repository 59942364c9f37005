// Package colour provides the colour types and colour-space conversions shared by
// the palette engine and its front ends.
package colour

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColourFormat is returned when a colour string cannot be parsed.
var ErrInvalidColourFormat = errors.New("invalid colour format")

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Sum returns R+G+B.
func (rgb RGB) Sum() int {
	return int(rgb.R) + int(rgb.G) + int(rgb.B)
}

// Brightness returns the unweighted channel mean (0-255).
func (rgb RGB) Brightness() float64 {
	return float64(rgb.Sum()) / 3
}

// Colorful converts the colour into go-colorful's float representation.
func (rgb RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
}

// RGBA converts the colour into an opaque color.RGBA.
func (rgb RGB) RGBA() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// ToRGB converts a color.Color to RGB, dropping alpha.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading '#' is optional).
// Any alpha component is ignored; use ParseHexOver to composite it.
func ParseHex(hex string) (RGB, error) {
	rgb, _, err := parseHexAlpha(hex)
	return rgb, err
}

// ParseHexOver parses a hex colour and composites its alpha channel over background.
// Colours without an alpha component are returned unchanged.
func ParseHexOver(hex string, background RGB) (RGB, error) {
	rgb, alpha, err := parseHexAlpha(hex)
	if err != nil {
		return RGB{}, err
	}
	if alpha == 255 {
		return rgb, nil
	}

	a := float64(alpha) / 255.0
	blended := background.Colorful().BlendRgb(rgb.Colorful(), a)
	r, g, b := blended.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func parseHexAlpha(hex string) (RGB, uint8, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")

	var alpha uint8 = 255
	switch len(s) {
	case 3, 6:
	case 8:
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return RGB{}, 0, fmt.Errorf("%w: %q", ErrInvalidColourFormat, hex)
		}
		alpha = uint8(a)
		s = s[:6]
	default:
		return RGB{}, 0, fmt.Errorf("%w: %q (must be 3, 6 or 8 hex digits)", ErrInvalidColourFormat, hex)
	}

	// colorful.Hex accepts either length but tolerates trailing garbage from Sscanf,
	// so every digit is validated first.
	for _, r := range s {
		if !isHexDigit(r) {
			return RGB{}, 0, fmt.Errorf("%w: %q", ErrInvalidColourFormat, hex)
		}
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return RGB{}, 0, fmt.Errorf("%w: %q: %v", ErrInvalidColourFormat, hex, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, alpha, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
