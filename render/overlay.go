package render

import (
	"fmt"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/postprocess"
	"gocv.io/x/gocv"
	"image"
	"image/color"
)

// label holds the rendering details of a text label
type label struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Overlay draws the detection boxes and then the shelves of the scene onto img, which
// must be the view the scene was laid out over.  Every rectangle is translated
// by the scene paddings once, here.
func Overlay(img *gocv.Mat, scene *shelfdetect.Scene, style Style) {

	// keep a record of all labels for later rendering
	labels := make([]label, 0)

	var palette []color.RGBA

	if style.DistinctShelves {
		palette = ShelfPalette(len(scene.Shelves))
	}

	for _, it := range scene.Items {

		rect := scene.Mapping.Translate(it.Box).Image()
		gocv.Rectangle(img, rect, style.BoxColor, style.StrokeWidth)

		if style.BoxLabels {
			name := it.Label

			if name == "" {
				name = fmt.Sprintf("%d", it.Class)
			}

			text := fmt.Sprintf("%s %.2f", name, it.Score)
			labels = append(labels, placeLabel(rect, style.BoxColor, text, style))
		}
	}

	for i, sh := range scene.Shelves {

		clr := style.ShelfColor

		if palette != nil {
			clr = palette[i]
		}

		rect := scene.Mapping.Translate(sh.Bounds).Image()
		gocv.Rectangle(img, rect, clr, style.StrokeWidth)

		if style.ShelfLabels {
			text := fmt.Sprintf("shelf %d: %d items %.0f%%", i+1, sh.Items,
				sh.Occupancy*100)
			labels = append(labels, placeLabel(rect, clr, text, style))
		}
	}

	// draw all precalculated labels so they are the top most layer on the
	// image and don't get overlapped by other rectangles
	for _, l := range labels {
		// draw box text gets written on
		gocv.Rectangle(img, l.rect, l.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, l.text, l.textPos,
			style.Font.Face, style.Font.Scale, style.Font.Color, style.Font.Thickness,
			style.Font.LineType, false)
	}
}

// placeLabel calculates where the label of a rectangle is drawn
func placeLabel(rect image.Rectangle, clr color.RGBA, text string, style Style) label {

	font := style.Font
	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// Calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case Center:
		centerX = (rect.Min.X + rect.Max.X) / 2

	case Right:
		centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (style.StrokeWidth / 2)

	case Left:
		fallthrough
	default:
		centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (style.StrokeWidth / 2)
	}

	// Adjust the label position so the text is centered horizontally
	textPos := image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad)

	return label{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, rect.Min.Y),
		clr:     clr,
		text:    text,
		textPos: textPos,
	}
}

// TranslatedBoxes returns the detection rectangles of the scene in view
// coordinates, as drawn by Overlay
func TranslatedBoxes(scene *shelfdetect.Scene) []postprocess.Rect {

	boxes := scene.Boxes()

	for i := range boxes {
		boxes[i] = scene.Mapping.Translate(boxes[i])
	}

	return boxes
}
