package shelfdetect

import (
	"github.com/pkg/errors"
	"sync"
)

// Pool is a simple pool of Detectors, each with its own Engine, so requests
// can be served concurrently
type Pool struct {
	// pool of detectors
	detectors chan *Detector
	// size of pool
	size int
	// mu guards closed against a concurrent Return
	mu     sync.Mutex
	closed bool
	close  sync.Once
}

// NewPool creates a pool of size detectors with engines from the factory
func NewPool(size int, cfg Config, factory EngineFactory, opts ...Option) (*Pool, error) {

	if size <= 0 {
		return nil, errors.Errorf("pool size must be positive, got %d", size)
	}

	p := &Pool{
		detectors: make(chan *Detector, size),
		size:      size,
	}

	for i := 0; i < size; i++ {

		engine, err := factory()

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, errors.Wrapf(err, "error creating engine %d", i)
		}

		det, err := NewDetector(cfg, engine, opts...)

		if err != nil {
			_ = engine.Close()
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(det)
	}

	return p, nil
}

// Get a detector from the pool, blocking until one is free.  Returns nil once
// the pool is closed.
func (p *Pool) Get() *Detector {
	return <-p.detectors
}

// Return a detector to the pool.  Detectors returned after the pool is closed
// are closed.
func (p *Pool) Return(det *Detector) {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = det.Close()
		return
	}

	select {
	case p.detectors <- det:
	default:
		// pool is full
		_ = det.Close()
	}
}

// Size returns the number of detectors in the pool
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all detectors in it
func (p *Pool) Close() {
	p.close.Do(func() {
		p.mu.Lock()
		p.closed = true
		// close channel
		close(p.detectors)
		p.mu.Unlock()

		// close all detectors
		for next := range p.detectors {
			_ = next.Close()
		}
	})
}
