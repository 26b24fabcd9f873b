package preprocess

import (
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"image"
	"io"
	"os"
)

// LoadFile reads a stored photo from disk, see Decode
func LoadFile(path string, orientation int) (gocv.Mat, error) {

	f, err := os.Open(path)

	if err != nil {
		return gocv.NewMat(), errors.Wrapf(ErrImageDecode, "error opening %s: %v", path, err)
	}

	defer f.Close()

	return Decode(f, orientation)
}

// Decode reads a jpeg, png, gif, webp, bmp or tiff photo, applies any EXIF
// orientation embedded in the file followed by the stored orientation in
// clockwise degrees, and returns the upright image as a BGR Mat.
//
// The two rotations add up.  A stored orientation that merely repeats the
// EXIF tag of the file must be passed as 0 or the photo is rotated twice.
func Decode(r io.Reader, orientation int) (gocv.Mat, error) {

	if NormalizeDegrees(orientation)%90 != 0 {
		return gocv.NewMat(), errors.Wrapf(ErrRotation, "photo orientation %d", orientation)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))

	if err != nil {
		return gocv.NewMat(), errors.Wrapf(ErrImageDecode, "%v", err)
	}

	return FromImage(img, orientation)
}

// FromImage converts a decoded Go image into a BGR Mat rotated clockwise by
// orientation degrees
func FromImage(img image.Image, orientation int) (gocv.Mat, error) {

	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), errors.Wrap(ErrImageDecode, "empty image")
	}

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return gocv.NewMat(), errors.Wrapf(ErrImageDecode, "%v", err)
	}

	if NormalizeDegrees(orientation) == 0 {
		return mat, nil
	}

	defer mat.Close()

	rotated := gocv.NewMat()

	if err := Rotate(mat, &rotated, orientation); err != nil {
		rotated.Close()
		return gocv.NewMat(), err
	}

	return rotated, nil
}
