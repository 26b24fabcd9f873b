package preprocess

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToTensor converts a prepared BGR image into the float32 RGB HWC input
// tensor of the model, with every channel value scaled from [0,255] to [0,1].
// The dst buffer is reused when it has the capacity.
func ToTensor(img gocv.Mat, dst []float32) ([]float32, error) {

	if img.Empty() {
		return dst, errors.Wrap(ErrImageDecode, "empty prepared image")
	}

	if img.Channels() != 3 {
		return dst, errors.Errorf("expected 3 channel image, got %d", img.Channels())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()

	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)

	scaled := gocv.NewMat()
	defer scaled.Close()

	rgb.ConvertToWithParams(&scaled, gocv.MatTypeCV32FC3, 1.0/255.0, 0)

	data, err := scaled.DataPtrFloat32()

	if err != nil {
		return dst, errors.Wrap(err, "error reading tensor data")
	}

	if cap(dst) < len(data) {
		dst = make([]float32, len(data))
	}

	dst = dst[:len(data)]
	copy(dst, data)

	return dst, nil
}
