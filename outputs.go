package shelfdetect

// Outputs are the fixed capacity buffers an Engine writes the model output
// tensors into
type Outputs struct {
	// Boxes holds MaxDetections x (left, top, right, bottom) normalized
	// coordinates
	Boxes []float32
	// Counts holds the number of detections per count class, their sum is the
	// number of valid boxes
	Counts []uint8
	// Labels holds the class of each box
	Labels []float32
	// Scores holds the confidence of each box
	Scores []float32
}

// NewOutputs allocates output buffers for a model with the given box capacity
// and count tensor length
func NewOutputs(maxDetections, countClasses int) *Outputs {
	return &Outputs{
		Boxes:  make([]float32, maxDetections*4),
		Counts: make([]uint8, countClasses),
		Labels: make([]float32, maxDetections),
		Scores: make([]float32, maxDetections),
	}
}

// Capacity returns the number of boxes the buffers can hold
func (o *Outputs) Capacity() int {
	return len(o.Boxes) / 4
}

// Reset zeroes every buffer so values of a previous invocation can not leak
// into the next
func (o *Outputs) Reset() {
	clear(o.Boxes)
	clear(o.Counts)
	clear(o.Labels)
	clear(o.Scores)
}
