package preprocess

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrRotation is returned for rotations that are not a multiple of 90 degrees
var ErrRotation = errors.New("rotation must be a multiple of 90 degrees")

// NormalizeDegrees folds a rotation into the range [0,360)
func NormalizeDegrees(degrees int) int {

	degrees %= 360

	if degrees < 0 {
		degrees += 360
	}

	return degrees
}

// Rotate turns the source image clockwise by degrees writing the result to
// dst.  Camera frames and stored photos carry their rotation as metadata and
// must be rotated upright before preparation.
func Rotate(src gocv.Mat, dst *gocv.Mat, degrees int) error {

	switch NormalizeDegrees(degrees) {
	case 0:
		src.CopyTo(dst)
	case 90:
		gocv.Rotate(src, dst, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(src, dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(src, dst, gocv.Rotate90CounterClockwise)
	default:
		return errors.Wrapf(ErrRotation, "got %d", degrees)
	}

	return nil
}
