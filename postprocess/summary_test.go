package postprocess

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestSummarizeOccupancy(t *testing.T) {

	tests := []struct {
		name      string
		members   []Rect
		occupancy float32
	}{
		{
			name: "gap between items",
			members: []Rect{
				{Left: 0, Top: 0, Right: 10, Bottom: 10},
				{Left: 20, Top: 0, Right: 30, Bottom: 10},
			},
			occupancy: 2.0 / 3.0,
		},
		{
			name: "overlapping items counted once",
			members: []Rect{
				{Left: 0, Top: 0, Right: 10, Bottom: 10},
				{Left: 5, Top: 0, Right: 15, Bottom: 10},
			},
			occupancy: 1,
		},
		{
			name: "staggered items",
			members: []Rect{
				{Left: 0, Top: 0, Right: 10, Bottom: 10},
				{Left: 10, Top: 10, Right: 20, Bottom: 20},
			},
			occupancy: 0.5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			g := ShelfGroup{Members: tc.members, Bounds: enclosing(tc.members)}

			sums := Summarize([]ShelfGroup{g})

			require.Len(t, sums, 1)
			assert.Equal(t, len(tc.members), sums[0].Items)
			assert.Equal(t, g.Bounds, sums[0].Bounds)
			assert.InDelta(t, tc.occupancy, sums[0].Occupancy, epsilon)
		})
	}
}

func TestSummarizeHeights(t *testing.T) {

	groups := NewShelfClusterer(DefaultShelfThreshold).Cluster([]Rect{
		{Left: 0, Top: 0, Right: 10, Bottom: 10},
		{Left: 20, Top: 0, Right: 30, Bottom: 20},
		{Left: 0, Top: 500, Right: 10, Bottom: 530},
	})

	sums := Summarize(groups)

	require.Len(t, sums, 2)
	assert.InDelta(t, 15, sums[0].MeanItemHeight, epsilon)
	assert.InDelta(t, 7.0711, sums[0].ItemHeightStdDev, epsilon)

	// a single item has no spread
	assert.InDelta(t, 30, sums[1].MeanItemHeight, epsilon)
	assert.Equal(t, float32(0), sums[1].ItemHeightStdDev)
	assert.InDelta(t, 1, sums[1].Occupancy, epsilon)
}

func TestSummarizeDegenerateShelf(t *testing.T) {

	flat := []Rect{{Left: 0, Top: 5, Right: 10, Bottom: 5}}

	sums := Summarize([]ShelfGroup{{Members: flat, Bounds: flat[0]}})

	require.Len(t, sums, 1)
	assert.Equal(t, float32(0), sums[0].Occupancy)
}
