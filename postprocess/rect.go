package postprocess

import (
	"image"
	"math"
)

// Rect is an axis aligned rectangle defined by its edges.  Depending on where
// it sits in the pipeline the values are either normalized to [0,1] relative
// to the prepared image, or pixels in the (untranslated) view space.
type Rect struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Right  float32 `json:"right"`
	Bottom float32 `json:"bottom"`
}

// Width returns the horizontal extent of the rectangle
func (r Rect) Width() float32 {
	return r.Right - r.Left
}

// Height returns the vertical extent of the rectangle
func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Area returns the area of the rectangle
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Canonical returns the rectangle with its edges ordered so Left <= Right and
// Top <= Bottom
func (r Rect) Canonical() Rect {

	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}

	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}

	return r
}

// Clamp restricts every edge of the rectangle to the range min and max.  NaN
// edges are clamped to min.
func (r Rect) Clamp(min, max float32) Rect {
	return Rect{
		Left:   clampF32(r.Left, min, max),
		Top:    clampF32(r.Top, min, max),
		Right:  clampF32(r.Right, min, max),
		Bottom: clampF32(r.Bottom, min, max),
	}
}

// Union returns the smallest rectangle enclosing both r and o
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   minF32(r.Left, o.Left),
		Top:    minF32(r.Top, o.Top),
		Right:  maxF32(r.Right, o.Right),
		Bottom: maxF32(r.Bottom, o.Bottom),
	}
}

// Offset returns the rectangle translated by dx, dy
func (r Rect) Offset(dx, dy float32) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Image converts the rectangle to integer pixel coordinates, rounding each
// edge to the nearest pixel
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(float64(r.Left))),
		int(math.Round(float64(r.Top))),
		int(math.Round(float64(r.Right))),
		int(math.Round(float64(r.Bottom))),
	)
}

// clampF32 restricts val to be within the range min and max
func clampF32(val, min, max float32) float32 {

	if val != val || val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
