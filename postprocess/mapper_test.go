package postprocess

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

const epsilon = 1e-3

func assertRectInDelta(t *testing.T, want, got Rect) {
	t.Helper()

	assert.InDelta(t, want.Left, got.Left, epsilon, "left")
	assert.InDelta(t, want.Top, got.Top, epsilon, "top")
	assert.InDelta(t, want.Right, got.Right, epsilon, "right")
	assert.InDelta(t, want.Bottom, got.Bottom, epsilon, "bottom")
}

func TestNewMapping(t *testing.T) {

	tests := []struct {
		name  string
		geom  ViewGeometry
		scale float32
		top   float32
		left  float32
	}{
		{"landscape view", ViewGeometry{800, 600, 480, 640}, 0.9375, 0, 175},
		{"portrait view", ViewGeometry{1080, 2400, 480, 640}, 2.25, 480, 0},
		{"exact fit", ViewGeometry{480, 640, 480, 640}, 1, 0, 0},
		{"empty view", ViewGeometry{0, 0, 480, 640}, 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			m, err := NewMapping(tc.geom)

			require.NoError(t, err)
			assert.InDelta(t, tc.scale, m.Scale, epsilon)
			assert.InDelta(t, tc.top, m.TopPadding, epsilon)
			assert.InDelta(t, tc.left, m.LeftPadding, epsilon)
		})
	}
}

func TestMapToView(t *testing.T) {

	batch := Batch{
		{Box: Rect{Left: 0.1, Top: 0.1, Right: 0.5, Bottom: 0.5}},
		{Box: Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}},
	}

	rects, m, err := MapToView(batch, ViewGeometry{800, 600, 480, 640})

	require.NoError(t, err)
	require.Len(t, rects, 2)
	assert.InDelta(t, 0.9375, m.Scale, epsilon)
	assertRectInDelta(t, Rect{Left: 45, Top: 60, Right: 225, Bottom: 300}, rects[0])
	// padding is not baked into the rectangles
	assertRectInDelta(t, Rect{Left: 0, Top: 0, Right: 450, Bottom: 600}, rects[1])
	assertRectInDelta(t, Rect{Left: 220, Top: 60, Right: 400, Bottom: 300}, m.Translate(rects[0]))
}

func TestMapToViewEmptyBatch(t *testing.T) {

	rects, _, err := MapToView(nil, ViewGeometry{800, 600, 480, 640})

	require.NoError(t, err)
	assert.Empty(t, rects)
}

func TestMapToViewDegenerate(t *testing.T) {

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name string
		geom ViewGeometry
	}{
		{"zero image width", ViewGeometry{800, 600, 0, 640}},
		{"zero image height", ViewGeometry{800, 600, 480, 0}},
		{"nan image", ViewGeometry{800, 600, nan, 640}},
		{"negative view", ViewGeometry{-1, 600, 480, 640}},
		{"inf view", ViewGeometry{inf, inf, 480, 640}},
		{"inf view height", ViewGeometry{800, inf, 480, 640}},
		{"inf image", ViewGeometry{800, 600, inf, 640}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			_, _, err := MapToView(Batch{{}}, tc.geom)

			assert.True(t, errors.Is(err, ErrDegenerateGeometry), "got %v", err)
		})
	}
}

func TestMapToViewIdempotent(t *testing.T) {

	batch := Batch{
		{Box: Rect{Left: 0.13, Top: 0.27, Right: 0.31, Bottom: 0.77}},
		{Box: Rect{Left: 0.5, Top: 0.01, Right: 0.93, Bottom: 0.2}},
	}
	geom := ViewGeometry{1080, 1920, 480, 640}

	first, _, err := MapToView(batch, geom)
	require.NoError(t, err)

	second, _, err := MapToView(batch, geom)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
