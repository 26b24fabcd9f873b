package shelfdetect

// Engine runs the detector model.  Implementations read the normalized RGB
// input tensor and write the raw output tensors into out.  An Engine is used
// by a single goroutine at a time.
//
// Allocation failures should be reported as an error wrapping
// ErrResourceExhausted, every other failure is treated as an inference error.
type Engine interface {
	Infer(input []float32, out *Outputs) error
	Close() error
}

// EngineFactory creates a new Engine, it is used to populate a Pool where
// every Detector owns its own Engine
type EngineFactory func() (Engine, error)
