package preprocess

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"image"
)

// ErrImageDecode is returned when the source image is missing, empty or can
// not be decoded
var ErrImageDecode = errors.New("image could not be decoded")

// Preparer defines the struct used for forcing arbitrary images into the
// fixed aspect ratio and resolution of the model input tensor
type Preparer struct {
	// width is the width of the prepared image
	width int
	// height is the height of the prepared image
	height int
	// ratio is the target aspect ratio expressed as width / height
	ratio float32
}

// NewPreparer returns a preparer producing images of the given dimensions
func NewPreparer(width, height int) *Preparer {
	return &Preparer{
		width:  width,
		height: height,
		ratio:  float32(width) / float32(height),
	}
}

// Width returns the width of the prepared image
func (p *Preparer) Width() int {
	return p.width
}

// Height returns the height of the prepared image
func (p *Preparer) Height() int {
	return p.height
}

// Ratio returns the target aspect ratio
func (p *Preparer) Ratio() float32 {
	return p.ratio
}

// CropRect returns the centered region of a w x h source image that has the
// target aspect ratio.  An image already at the target ratio is not cropped,
// a wider image loses columns evenly from both sides and a narrower (taller)
// image loses rows evenly from the top and bottom.
func (p *Preparer) CropRect(w, h int) image.Rectangle {

	srcRatio := float32(w) / float32(h)

	switch {
	case srcRatio == p.ratio:
		return image.Rect(0, 0, w, h)

	case srcRatio > p.ratio:
		newW := int(float32(h) * p.ratio)
		x := (w - newW) / 2
		return image.Rect(x, 0, x+newW, h)

	default:
		newH := int(float32(w) / p.ratio)
		y := (h - newH) / 2
		return image.Rect(0, y, w, y+newH)
	}
}

// Prepare center crops the source image to the target aspect ratio then
// scales it with linear interpolation to exactly the prepared dimensions,
// writing the result to dst.  The source Mat is not modified.
func (p *Preparer) Prepare(src gocv.Mat, dst *gocv.Mat) error {

	if src.Empty() || src.Cols() == 0 || src.Rows() == 0 {
		return errors.Wrap(ErrImageDecode, "empty source image")
	}

	crop := p.CropRect(src.Cols(), src.Rows())

	if crop.Dx() <= 0 || crop.Dy() <= 0 {
		return errors.Wrapf(ErrImageDecode, "source image %dx%d too small to crop",
			src.Cols(), src.Rows())
	}

	region := src.Region(crop)
	defer region.Close()

	gocv.Resize(region, dst, image.Pt(p.width, p.height), 0, 0,
		gocv.InterpolationLinear)

	if dst.Cols() != p.width || dst.Rows() != p.height {
		return errors.Errorf("prepared image is %dx%d, expected %dx%d",
			dst.Cols(), dst.Rows(), p.width, p.height)
	}

	return nil
}
