package render

import (
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"gocv.io/x/gocv"
	"image"
	"image/color"
	"math"
)

// Canvas builds the view a scene was laid out over.  The prepared image is
// scaled by the scene mapping and centered on a background of the given
// color, matching a fit-center image view of ViewWidth x ViewHeight.
func Canvas(prepared gocv.Mat, scene *shelfdetect.Scene, dst *gocv.Mat, bg color.RGBA) error {

	if prepared.Empty() {
		return errors.New("empty prepared image")
	}

	// checked as floats, converting an infinite size to int is undefined
	if !(scene.ViewWidth <= shelfdetect.MaxViewSizeLimit) || !(scene.ViewHeight <= shelfdetect.MaxViewSizeLimit) {
		return errors.Errorf("canvas size %vx%v exceeds %d", scene.ViewWidth, scene.ViewHeight,
			shelfdetect.MaxViewSizeLimit)
	}

	viewW := int(math.Round(float64(scene.ViewWidth)))
	viewH := int(math.Round(float64(scene.ViewHeight)))

	scaledW := int(math.Round(float64(float32(prepared.Cols()) * scene.Mapping.Scale)))
	scaledH := int(math.Round(float64(float32(prepared.Rows()) * scene.Mapping.Scale)))

	if viewW <= 0 || viewH <= 0 || scaledW <= 0 || scaledH <= 0 {
		return errors.Errorf("invalid canvas size %dx%d", viewW, viewH)
	}

	// clamp so rounding never overflows the view
	scaledW = min(scaledW, viewW)
	scaledH = min(scaledH, viewH)

	top := min(max(int(scene.Mapping.TopPadding), 0), viewH-scaledH)
	left := min(max(int(scene.Mapping.LeftPadding), 0), viewW-scaledW)

	scaled := gocv.NewMat()
	defer scaled.Close()

	gocv.Resize(prepared, &scaled, image.Pt(scaledW, scaledH), 0, 0,
		gocv.InterpolationLinear)

	gocv.CopyMakeBorder(scaled, dst, top, viewH-scaledH-top, left,
		viewW-scaledW-left, gocv.BorderConstant, bg)

	return nil
}
