package shelfdetect

import (
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect/postprocess"
	"github.com/shelfvision/go-shelfdetect/preprocess"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"time"
)

// Detector runs the complete pipeline over a single Engine.  A Detector owns
// its output buffers and input tensor so it must not be used by more than one
// goroutine at a time, use a Pool or a Stream to share detectors.
type Detector struct {
	// engine runs the model
	engine Engine
	// outputs are the buffers the engine writes to, reset on every call
	outputs *Outputs
	// tensor is the reused model input buffer
	tensor []float32
	// preparer crops and scales source images to the model input size
	preparer *preprocess.Preparer
	// decoder turns the output buffers into a batch of detections
	decoder *postprocess.Decoder
	// clusterer groups view rectangles into shelves
	clusterer *postprocess.ShelfClusterer
	// labels optionally name the model classes
	labels Labels
	// log is the structured logger
	log *zap.Logger
}

// Option configures optional Detector settings
type Option func(*Detector)

// WithLogger sets the logger used by the Detector
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// WithLabels sets the class names used when laying out a Scene
func WithLabels(l Labels) Option {
	return func(d *Detector) {
		d.labels = l
	}
}

// Result is the outcome of a single detection
type Result struct {
	// Prepared is the cropped and scaled image the model ran on.  The caller
	// owns it and must Close it
	Prepared gocv.Mat
	// Detections are the decoded boxes normalized to the prepared image
	Detections postprocess.Batch
	// Duration is the time taken by the whole pipeline
	Duration time.Duration
}

// Close frees the prepared image
func (r *Result) Close() error {
	return r.Prepared.Close()
}

// Response is delivered by DetectAsync, exactly one of Result or Err is set
type Response struct {
	Result *Result
	Err    error
}

// NewDetector returns a Detector using the given engine, which it takes
// ownership of
func NewDetector(cfg Config, engine Engine, opts ...Option) (*Detector, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if engine == nil {
		return nil, errors.New("detector requires an engine")
	}

	d := &Detector{
		engine:   engine,
		outputs:  NewOutputs(cfg.MaxDetections, cfg.CountClasses),
		tensor:   make([]float32, cfg.InputWidth*cfg.InputHeight*3),
		preparer: preprocess.NewPreparer(cfg.InputWidth, cfg.InputHeight),
		decoder: postprocess.NewDecoder(postprocess.DecoderParams{
			ScoreThreshold: cfg.ScoreThreshold,
		}),
		clusterer: postprocess.NewShelfClusterer(cfg.ShelfThreshold),
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Detect prepares the image, runs the model and decodes its output.  The
// source image is not modified and remains owned by the caller.
//
// The returned error can be classified with Kind.  A model reporting more
// detections than its output capacity is logged and the decodable detections
// are returned.
func (d *Detector) Detect(img gocv.Mat) (*Result, error) {

	start := time.Now()

	// values from a previous invocation must never reach the decoder
	d.outputs.Reset()

	prepared := gocv.NewMat()

	err := d.preparer.Prepare(img, &prepared)

	if err != nil {
		prepared.Close()
		return nil, err
	}

	d.tensor, err = preprocess.ToTensor(prepared, d.tensor)

	if err != nil {
		prepared.Close()
		return nil, err
	}

	if err := d.infer(); err != nil {
		prepared.Close()
		d.log.Error("inference failed", zap.Error(err))
		return nil, err
	}

	batch, err := d.decoder.Decode(d.outputs.Counts, d.outputs.Boxes,
		d.outputs.Labels, d.outputs.Scores)

	if err != nil {
		if !errors.Is(err, postprocess.ErrCapacityExceeded) {
			prepared.Close()
			d.log.Error("error decoding model output", zap.Error(err))
			return nil, err
		}

		d.log.Error("model output truncated", zap.Error(err))
	}

	res := &Result{
		Prepared:   prepared,
		Detections: batch,
		Duration:   time.Since(start),
	}

	d.log.Debug("detection complete",
		zap.Int("detections", len(batch)),
		zap.Duration("duration", res.Duration),
	)

	return res, nil
}

// DetectAsync runs Detect in a new goroutine and delivers exactly one
// Response on the returned channel which is then closed.  The image must stay
// open until the Response is received and the Detector must not be used
// concurrently in the meantime.
func (d *Detector) DetectAsync(img gocv.Mat) <-chan Response {

	ch := make(chan Response, 1)

	go func() {
		defer close(ch)

		res, err := d.Detect(img)
		ch <- Response{Result: res, Err: err}
	}()

	return ch
}

// Layout maps the detections of a result into a view of the given size and
// groups them into shelves.  A view size of zero lays out over the prepared
// image itself.
func (d *Detector) Layout(res *Result, viewWidth, viewHeight float32) (*Scene, error) {

	if viewWidth == 0 && viewHeight == 0 {
		viewWidth = float32(d.preparer.Width())
		viewHeight = float32(d.preparer.Height())
	}

	scene, err := NewScene(res.Detections, postprocess.ViewGeometry{
		ViewWidth:   viewWidth,
		ViewHeight:  viewHeight,
		ImageWidth:  float32(d.preparer.Width()),
		ImageHeight: float32(d.preparer.Height()),
	}, d.clusterer, d.labels)

	if err != nil {
		d.log.Error("error laying out scene", zap.Error(err))
		return nil, err
	}

	return scene, nil
}

// InputSize returns the dimensions of the prepared image
func (d *Detector) InputSize() (int, int) {
	return d.preparer.Width(), d.preparer.Height()
}

// Close releases the engine
func (d *Detector) Close() error {
	return d.engine.Close()
}

// infer runs the engine recovering from any panic so the next invocation can
// proceed normally
func (d *Detector) infer() (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInference, "engine panic: %v", r)
		}
	}()

	err = d.engine.Infer(d.tensor, d.outputs)

	if err == nil || errors.Is(err, ErrResourceExhausted) || errors.Is(err, ErrInference) {
		return err
	}

	return errors.Wrap(ErrInference, err.Error())
}
