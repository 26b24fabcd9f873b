package shelfdetect

import (
	"github.com/shelfvision/go-shelfdetect/preprocess"
	"gocv.io/x/gocv"
	"sync"
)

// Frame is a camera frame together with the clockwise rotation needed to
// display it upright
type Frame struct {
	// Mat is the BGR frame, ownership passes to the Stream on Submit
	Mat gocv.Mat
	// Rotation is the clockwise rotation in degrees
	Rotation int
}

// StreamResult is delivered by a Stream for every accepted frame
type StreamResult struct {
	// Result is the detection result, the receiver must Close it
	Result *Result
	// Scene is the detections laid out over the stream view
	Scene *Scene
	// Err is set when the frame could not be processed
	Err error
}

// Stream runs a Detector over camera frames keeping only the latest.  At most
// one frame is processed at a time, frames submitted while one is in flight
// are dropped.
type Stream struct {
	// det is the detector frames are run on
	det *Detector
	// viewWidth and viewHeight are the view size scenes are laid out over
	viewWidth  float32
	viewHeight float32
	// results delivers one StreamResult per accepted frame
	results chan StreamResult
	// done is closed when the stream is closing
	done chan struct{}
	// mu guards busy and closed
	mu     sync.Mutex
	busy   bool
	closed bool
	wg     sync.WaitGroup
	close  sync.Once
}

// NewStream returns a stream running frames through det, laying them out over
// a view of the given size.  The stream takes exclusive use of det but does
// not close it.
func NewStream(det *Detector, viewWidth, viewHeight float32) *Stream {
	return &Stream{
		det:        det,
		viewWidth:  viewWidth,
		viewHeight: viewHeight,
		results:    make(chan StreamResult, 1),
		done:       make(chan struct{}),
	}
}

// Submit hands a frame to the stream.  It returns false, and closes the
// frame, when a frame is already in flight or the stream is closed.
func (s *Stream) Submit(f Frame) bool {

	s.mu.Lock()

	if s.closed || s.busy {
		s.mu.Unlock()
		f.Mat.Close()
		return false
	}

	s.busy = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.process(f)

	return true
}

// Results returns the channel results are delivered on, it is closed by Close
func (s *Stream) Results() <-chan StreamResult {
	return s.results
}

// Close stops accepting frames, waits for the in flight frame and closes the
// results channel
func (s *Stream) Close() {
	s.close.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.done)
		s.mu.Unlock()

		s.wg.Wait()
		close(s.results)
	})
}

// process runs a single frame and delivers its result
func (s *Stream) process(f Frame) {

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	out := s.run(f)

	select {
	case s.results <- out:
	case <-s.done:
		// nobody left to receive
		if out.Result != nil {
			out.Result.Close()
		}
	}
}

// run rotates the frame upright then detects and lays out its contents
func (s *Stream) run(f Frame) StreamResult {

	defer f.Mat.Close()

	src := f.Mat

	if preprocess.NormalizeDegrees(f.Rotation) != 0 {

		rotated := gocv.NewMat()
		defer rotated.Close()

		if err := preprocess.Rotate(f.Mat, &rotated, f.Rotation); err != nil {
			return StreamResult{Err: err}
		}

		src = rotated
	}

	res, err := s.det.Detect(src)

	if err != nil {
		return StreamResult{Err: err}
	}

	scene, err := s.det.Layout(res, s.viewWidth, s.viewHeight)

	if err != nil {
		res.Close()
		return StreamResult{Err: err}
	}

	return StreamResult{Result: res, Scene: scene}
}
