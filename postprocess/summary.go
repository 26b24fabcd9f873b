package postprocess

import (
	clipper "github.com/ctessum/go.clipper"
	"gonum.org/v1/gonum/stat"
	"math"
)

// clipperScale converts float pixel coordinates to the integer grid clipper
// works on, keeping two decimal places
const clipperScale = 100

// ShelfSummary describes a single shelf for reporting and rendering
type ShelfSummary struct {
	// Bounds encloses every item detected on the shelf
	Bounds Rect `json:"bounds"`
	// Items is the number of detections grouped onto the shelf
	Items int `json:"items"`
	// Occupancy is the fraction of the shelf bounds covered by the union of
	// the item boxes, in the range [0,1]
	Occupancy float32 `json:"occupancy"`
	// MeanItemHeight is the average height of the item boxes
	MeanItemHeight float32 `json:"mean_item_height"`
	// ItemHeightStdDev is the sample standard deviation of the item box
	// heights, zero for single item shelves
	ItemHeightStdDev float32 `json:"item_height_stddev"`
}

// Summarize returns a summary for each shelf group, in group order
func Summarize(groups []ShelfGroup) []ShelfSummary {

	summaries := make([]ShelfSummary, len(groups))

	for i, g := range groups {
		summaries[i] = summarize(g)
	}

	return summaries
}

// summarize calculates the item statistics and occupancy of one shelf
func summarize(g ShelfGroup) ShelfSummary {

	heights := make([]float64, len(g.Members))

	for i, m := range g.Members {
		heights[i] = float64(m.Height())
	}

	sum := ShelfSummary{
		Bounds: g.Bounds,
		Items:  len(g.Members),
	}

	if len(heights) == 0 {
		return sum
	}

	mean, std := stat.MeanStdDev(heights, nil)

	if len(heights) < 2 || math.IsNaN(std) {
		std = 0
	}

	sum.MeanItemHeight = float32(mean)
	sum.ItemHeightStdDev = float32(std)

	if area := float64(g.Bounds.Area()); area > 0 {
		sum.Occupancy = float32(math.Min(1, unionArea(g.Members)/area))
	}

	return sum
}

// unionArea returns the area covered by the rectangles, counting overlapping
// regions once
func unionArea(rects []Rect) float64 {

	c := clipper.NewClipper(clipper.IoNone)
	added := false

	for _, r := range rects {

		if r.Width() <= 0 || r.Height() <= 0 {
			continue
		}

		c.AddPath(rectPath(r), clipper.PtSubject, true)
		added = true
	}

	if !added {
		return 0
	}

	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)

	if !ok {
		return 0
	}

	// outer polygons and holes have opposite orientation so their signed
	// areas cancel correctly
	var area float64

	for _, path := range solution {
		area += signedArea(path)
	}

	return math.Abs(area) / (clipperScale * clipperScale)
}

// rectPath converts a rectangle into a closed clipper polygon
func rectPath(r Rect) clipper.Path {

	l := clipper.CInt(math.Round(float64(r.Left) * clipperScale))
	t := clipper.CInt(math.Round(float64(r.Top) * clipperScale))
	rt := clipper.CInt(math.Round(float64(r.Right) * clipperScale))
	b := clipper.CInt(math.Round(float64(r.Bottom) * clipperScale))

	return clipper.Path{
		&clipper.IntPoint{X: l, Y: t},
		&clipper.IntPoint{X: rt, Y: t},
		&clipper.IntPoint{X: rt, Y: b},
		&clipper.IntPoint{X: l, Y: b},
	}
}

// signedArea calculates the area of a polygon with the shoelace formula
func signedArea(path clipper.Path) float64 {

	n := len(path)

	if n < 3 {
		return 0
	}

	var sum float64

	for i := 0; i < n; i++ {
		p := path[i]
		q := path[(i+1)%n]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}

	return sum / 2
}
