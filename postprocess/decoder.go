package postprocess

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformedBoxes is returned when the flat box tensor does not hold a
	// whole number of (left, top, right, bottom) quadruples
	ErrMalformedBoxes = errors.New("box tensor length is not a multiple of 4")
	// ErrCapacityExceeded is returned when the per class counts add up to more
	// detections than the box tensor can hold
	ErrCapacityExceeded = errors.New("detection count exceeds box tensor capacity")
)

// boxStride is the number of floats describing a single bounding box
const boxStride = 4

// DecoderParams defines the struct containing the parameters used to decode
// the fixed capacity output tensors of the model
type DecoderParams struct {
	// ScoreThreshold is the minimum confidence score a detection needs to be
	// kept.  A value of zero or less keeps every detection the model counted
	ScoreThreshold float32
}

// DefaultDecoderParams returns the decoder parameters used by the shelf
// detector, which applies no score filtering
func DefaultDecoderParams() DecoderParams {
	return DecoderParams{
		ScoreThreshold: 0,
	}
}

// Decoder turns the raw output tensors of the detector model into a Batch
type Decoder struct {
	// Params are the decoder configuration parameters
	Params DecoderParams
}

// NewDecoder returns an instance of the detection decoder
func NewDecoder(p DecoderParams) *Decoder {
	return &Decoder{
		Params: p,
	}
}

// TotalCount sums the per class detection counts
func TotalCount(counts []uint8) int {

	total := 0

	for _, c := range counts {
		total += int(c)
	}

	return total
}

// Decode slices the flat box tensor into detections.  The number of
// detections is the sum of counts, all remaining tensor capacity is
// discarded.  Labels and scores are optional parallel tensors, when shorter
// than the detection count the missing values are left as zero.
//
// If the counts add up to more detections than boxes can hold, the decodable
// detections are returned together with an error wrapping ErrCapacityExceeded.
func (d *Decoder) Decode(counts []uint8, boxes, labels, scores []float32) (Batch, error) {

	if len(boxes)%boxStride != 0 {
		return nil, errors.Wrapf(ErrMalformedBoxes, "got %d floats", len(boxes))
	}

	total := TotalCount(counts)
	capacity := len(boxes) / boxStride

	var capErr error

	if total > capacity {
		capErr = errors.Wrapf(ErrCapacityExceeded, "counted %d detections, capacity is %d",
			total, capacity)
		total = capacity
	}

	batch := make(Batch, 0, total)

	for k := 0; k < total; k++ {

		det := Detection{
			Box: Rect{
				Left:   boxes[k*boxStride+0],
				Top:    boxes[k*boxStride+1],
				Right:  boxes[k*boxStride+2],
				Bottom: boxes[k*boxStride+3],
			}.Canonical().Clamp(0, 1),
		}

		if k < len(labels) {
			det.Class = int(labels[k])
		}

		if k < len(scores) {
			det.Score = scores[k]
		}

		if d.Params.ScoreThreshold > 0 && det.Score < d.Params.ScoreThreshold {
			continue
		}

		batch = append(batch, det)
	}

	return batch, capErr
}
