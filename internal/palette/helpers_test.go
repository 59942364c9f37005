package palette

import (
	"image"
	"image/color"

	"github.com/jmylchreest/pokepalette/internal/colour"
)

// rgb is shorthand for test colours.
func rgb(r, g, b uint8) colour.RGB {
	return colour.RGB{R: r, G: g, B: b}
}

// sample builds a Sample with an explicit ID.
func sample(id int, c colour.RGB, count int) Sample {
	return Sample{ID: id, RGB: c, Count: count}
}

// histogramOf builds a histogram whose IDs follow argument order.
func histogramOf(samples ...Sample) *Histogram {
	h := NewHistogram()
	for _, s := range samples {
		h.Add(s.RGB, s.Count)
	}
	return h
}

// pixelImage builds a PixelImage from rows of NRGBA pixels.
func pixelImage(rows ...[][4]uint8) PixelImage {
	img := PixelImage{Height: len(rows)}
	if len(rows) > 0 {
		img.Width = len(rows[0])
	}
	for _, row := range rows {
		for _, px := range row {
			img.Pix = append(img.Pix, px[0], px[1], px[2], px[3])
		}
	}
	return img
}

// spriteOf lays each sample out as Count opaque pixels in a single row.
func spriteOf(samples ...Sample) PixelImage {
	var img PixelImage
	for _, s := range samples {
		for range s.Count {
			img.Pix = append(img.Pix, s.RGB.R, s.RGB.G, s.RGB.B, 255)
		}
		img.Width += s.Count
	}
	img.Height = 1
	return img
}

// nrgbaOf is spriteOf as an image.Image.
func nrgbaOf(samples ...Sample) *image.NRGBA {
	sprite := spriteOf(samples...)
	img := image.NewNRGBA(image.Rect(0, 0, sprite.Width, sprite.Height))
	for x := 0; x < sprite.Width; x++ {
		p := sprite.Pix[x*4 : x*4+4]
		img.SetNRGBA(x, 0, color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
	}
	return img
}

func ids(samples []Sample) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = s.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
