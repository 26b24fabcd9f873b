package render

import (
	"github.com/lucasb-eyer/go-colorful"
	"image/color"
)

var (
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// ShelfPalette returns n visually distinct colors, hues are spread evenly
// around the color wheel starting from green so the first shelf matches the
// single color style
func ShelfPalette(n int) []color.RGBA {

	if n <= 0 {
		return nil
	}

	palette := make([]color.RGBA, n)
	step := 360.0 / float64(n)

	for i := range palette {
		hue := 120.0 + step*float64(i)

		if hue >= 360 {
			hue -= 360
		}

		r, g, b := colorful.Hsv(hue, 1, 1).RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}

	return palette
}
