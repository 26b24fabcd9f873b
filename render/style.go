package render

import (
	"gocv.io/x/gocv"
	"image/color"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering label text using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the rectangle it names
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.6,
		Color:     Black,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

// Style defines how a scene is drawn over an image
type Style struct {
	// BoxColor is the stroke color of each detection
	BoxColor color.RGBA
	// ShelfColor is the stroke color of each shelf, unless DistinctShelves
	// is set
	ShelfColor color.RGBA
	// DistinctShelves strokes every shelf with its own palette color
	DistinctShelves bool
	// StrokeWidth is the line thickness of boxes and shelves in pixels
	StrokeWidth int
	// BoxLabels draws the class label and score above each detection
	BoxLabels bool
	// ShelfLabels draws the item count and occupancy above each shelf
	ShelfLabels bool
	// Font is used for all label text
	Font Font
}

// DefaultStyle returns red detection boxes and green shelves stroked 5 pixels
// wide without labels
func DefaultStyle() Style {
	return Style{
		BoxColor:    Red,
		ShelfColor:  Green,
		StrokeWidth: 5,
		Font:        DefaultFont(),
	}
}
