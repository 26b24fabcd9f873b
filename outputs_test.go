package shelfdetect

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestOutputsReset(t *testing.T) {

	out := NewOutputs(3, 4)

	assert.Equal(t, 3, out.Capacity())
	assert.Len(t, out.Counts, 4)

	out.Boxes[5] = 0.5
	out.Counts[1] = 7
	out.Labels[2] = 1
	out.Scores[0] = 0.9

	out.Reset()

	assert.Equal(t, make([]float32, 12), out.Boxes)
	assert.Equal(t, make([]uint8, 4), out.Counts)
	assert.Equal(t, make([]float32, 3), out.Labels)
	assert.Equal(t, make([]float32, 3), out.Scores)
}
