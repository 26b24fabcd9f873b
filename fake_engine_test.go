package shelfdetect

import (
	"gocv.io/x/gocv"
	"sync"
	"testing"
)

// fakeEngine is a scripted Engine writing fixed outputs
type fakeEngine struct {
	mu sync.Mutex
	// counts and boxes are copied into the outputs on every call
	counts []uint8
	boxes  []float32
	// err is returned instead of writing outputs
	err error
	// panicOnce panics on the next call only
	panicOnce bool
	// once writes outputs on the first call only
	once bool
	// gate blocks Infer until it receives, when set
	gate chan struct{}
	// inputLen records the length of the last input tensor
	inputLen int
	calls    int
	closed   bool
}

func (f *fakeEngine) Infer(input []float32, out *Outputs) error {

	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.inputLen = len(input)

	if f.panicOnce {
		f.panicOnce = false
		panic("delegate crashed")
	}

	if f.err != nil {
		return f.err
	}

	if f.once && f.calls > 1 {
		return nil
	}

	copy(out.Counts, f.counts)
	copy(out.Boxes, f.boxes)

	return nil
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeEngine) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

// testConfig returns the default configuration with a small box capacity
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDetections = 8
	return cfg
}

// newTestDetector returns a detector over the fake engine
func newTestDetector(t *testing.T, eng *fakeEngine, opts ...Option) *Detector {
	t.Helper()

	det, err := NewDetector(testConfig(), eng, opts...)

	if err != nil {
		t.Fatalf("error creating detector: %v", err)
	}

	return det
}

// testImage returns a BGR image of the given size
func testImage(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 120, 200, 0), h, w, gocv.MatTypeCV8UC3)
}
