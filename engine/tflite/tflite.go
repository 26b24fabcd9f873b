// Package tflite runs the shelf detector model with TensorFlow Lite.
package tflite

import (
	tfl "github.com/mattn/go-tflite"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"go.uber.org/zap"
	"strings"
	"sync"
)

// output tensor indexes of the detector model
const (
	outBoxes  = 0
	outCounts = 1
	outLabels = 2
	outScores = 3
)

// Engine is a shelfdetect.Engine backed by a TensorFlow Lite interpreter
type Engine struct {
	model       *tfl.Model
	options     *tfl.InterpreterOptions
	interpreter *tfl.Interpreter
	// inputLen is the number of floats in the input tensor
	inputLen int
	// sizes are the element counts of the output tensors
	sizes outputSizes
	log      *zap.Logger
	// mu guards lastErr which the error reporter writes from C callbacks
	mu      sync.Mutex
	lastErr string
	close   sync.Once
}

// Option configures optional Engine settings
type Option func(*Engine)

// WithLogger sets the logger interpreter messages are written to
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New loads the model file and allocates an interpreter using numThreads CPU
// threads
func New(modelFile string, numThreads int, opts ...Option) (*Engine, error) {

	e := &Engine{
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.model = tfl.NewModelFromFile(modelFile)

	if e.model == nil {
		return nil, errors.Errorf("error loading model %s", modelFile)
	}

	e.options = tfl.NewInterpreterOptions()
	e.options.SetNumThread(numThreads)
	e.options.SetErrorReporter(e.report, nil)

	e.interpreter = tfl.NewInterpreter(e.model, e.options)

	if e.interpreter == nil {
		e.Close()
		return nil, errors.Wrap(shelfdetect.ErrResourceExhausted, "error creating interpreter")
	}

	if status := e.interpreter.AllocateTensors(); status != tfl.OK {
		e.Close()
		return nil, errors.Wrapf(shelfdetect.ErrResourceExhausted,
			"error allocating tensors: %s", e.takeLastErr())
	}

	input := e.interpreter.GetInputTensor(0)

	if input == nil || input.Type() != tfl.Float32 {
		e.Close()
		return nil, errors.New("model input must be a float32 tensor")
	}

	e.inputLen = 1

	for i := 0; i < input.NumDims(); i++ {
		e.inputLen *= input.Dim(i)
	}

	if n := e.interpreter.GetOutputTensorCount(); n < 2 {
		e.Close()
		return nil, errors.Errorf("model has %d outputs, expected at least boxes and counts", n)
	}

	e.sizes = outputSizes{
		boxes:  elements(e.interpreter.GetOutputTensor(outBoxes)),
		counts: elements(e.interpreter.GetOutputTensor(outCounts)),
	}

	if e.interpreter.GetOutputTensorCount() > outScores {
		e.sizes.labels = elements(e.interpreter.GetOutputTensor(outLabels))
		e.sizes.scores = elements(e.interpreter.GetOutputTensor(outScores))
	}

	e.log.Info("model loaded",
		zap.String("model", modelFile),
		zap.Int("threads", numThreads),
		zap.Int("input_len", e.inputLen),
		zap.Int("outputs", e.interpreter.GetOutputTensorCount()),
		zap.Int("max_detections", e.sizes.boxes/4),
		zap.Int("count_classes", e.sizes.counts),
	)

	return e, nil
}

// Infer copies the input tensor in, invokes the interpreter and copies the
// output tensors into out
func (e *Engine) Infer(input []float32, out *shelfdetect.Outputs) error {

	if len(input) != e.inputLen {
		return errors.Wrapf(shelfdetect.ErrInference, "input has %d values, model expects %d",
			len(input), e.inputLen)
	}

	if err := e.sizes.check(out); err != nil {
		return err
	}

	copy(e.interpreter.GetInputTensor(0).Float32s(), input)

	if status := e.interpreter.Invoke(); status != tfl.OK {
		return classify(e.takeLastErr())
	}

	copy(out.Boxes, e.interpreter.GetOutputTensor(outBoxes).Float32s())

	counts := e.interpreter.GetOutputTensor(outCounts)

	switch counts.Type() {
	case tfl.UInt8:
		copy(out.Counts, counts.UInt8s())
	case tfl.Float32:
		for i, v := range counts.Float32s() {
			out.Counts[i] = toCount(v)
		}
	default:
		return errors.Wrapf(shelfdetect.ErrInference, "unsupported count tensor type %v",
			counts.Type())
	}

	if e.interpreter.GetOutputTensorCount() > outScores {
		copy(out.Labels, e.interpreter.GetOutputTensor(outLabels).Float32s())
		copy(out.Scores, e.interpreter.GetOutputTensor(outScores).Float32s())
	}

	return nil
}

// outputSizes are the element counts of the model output tensors, labels and
// scores are zero when the model does not have them
type outputSizes struct {
	boxes  int
	counts int
	labels int
	scores int
}

// check returns an error wrapping ErrInference unless every output tensor
// fits its buffer exactly
func (s outputSizes) check(out *shelfdetect.Outputs) error {

	mismatch := func(name string, tensor, buffer int) error {
		return errors.Wrapf(shelfdetect.ErrInference,
			"%s output tensor has %d elements, buffer holds %d", name, tensor, buffer)
	}

	switch {
	case s.boxes != len(out.Boxes):
		return mismatch("boxes", s.boxes, len(out.Boxes))
	case s.counts != len(out.Counts):
		return mismatch("counts", s.counts, len(out.Counts))
	case s.labels != 0 && s.labels != len(out.Labels):
		return mismatch("labels", s.labels, len(out.Labels))
	case s.scores != 0 && s.scores != len(out.Scores):
		return mismatch("scores", s.scores, len(out.Scores))
	}

	return nil
}

// elements returns the number of elements of a tensor
func elements(t *tfl.Tensor) int {

	n := 1

	for i := 0; i < t.NumDims(); i++ {
		n *= t.Dim(i)
	}

	return n
}

// Close frees the interpreter, its options and the model
func (e *Engine) Close() error {
	e.close.Do(func() {
		if e.interpreter != nil {
			e.interpreter.Delete()
		}

		if e.options != nil {
			e.options.Delete()
		}

		if e.model != nil {
			e.model.Delete()
		}
	})

	return nil
}

// report receives interpreter error messages
func (e *Engine) report(msg string, _ interface{}) {

	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()

	e.log.Warn("tflite", zap.String("message", msg))
}

// takeLastErr returns and clears the last reported interpreter message
func (e *Engine) takeLastErr() string {

	e.mu.Lock()
	defer e.mu.Unlock()

	msg := e.lastErr
	e.lastErr = ""

	return msg
}

// classify maps an interpreter failure message to an error kind
func classify(msg string) error {

	lower := strings.ToLower(msg)

	if strings.Contains(lower, "alloc") || strings.Contains(lower, "memory") {
		return errors.Wrap(shelfdetect.ErrResourceExhausted, msg)
	}

	return errors.Wrapf(shelfdetect.ErrInference, "invoke failed: %s", msg)
}

// toCount converts a float count to uint8, clamping out of range values
func toCount(v float32) uint8 {

	switch {
	case !(v > 0):
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
