package shelfdetect

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPool(t *testing.T) {

	var engines []*fakeEngine

	factory := func() (Engine, error) {
		eng := &fakeEngine{}
		engines = append(engines, eng)
		return eng, nil
	}

	pool, err := NewPool(3, testConfig(), factory)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.Size())
	assert.Len(t, engines, 3)

	a := pool.Get()
	b := pool.Get()
	assert.NotSame(t, a, b)

	pool.Return(a)
	pool.Return(b)

	pool.Close()

	for i, eng := range engines {
		assert.True(t, eng.isClosed(), "engine %d not closed", i)
	}

	// closed pool yields nil and closes late returns
	assert.Nil(t, pool.Get())

	late := &fakeEngine{}
	pool.Return(newTestDetector(t, late))
	assert.True(t, late.isClosed())

	// closing twice is safe
	pool.Close()
}

func TestPoolFactoryError(t *testing.T) {

	var engines []*fakeEngine

	factory := func() (Engine, error) {
		if len(engines) == 2 {
			return nil, errors.New("no delegate")
		}

		eng := &fakeEngine{}
		engines = append(engines, eng)
		return eng, nil
	}

	_, err := NewPool(4, testConfig(), factory)
	require.Error(t, err)

	for i, eng := range engines {
		assert.True(t, eng.isClosed(), "engine %d not closed", i)
	}
}

func TestPoolInvalidSize(t *testing.T) {

	_, err := NewPool(0, testConfig(), func() (Engine, error) { return &fakeEngine{}, nil })

	assert.Error(t, err)
}
