package postprocess

import (
	"sort"
)

const (
	// DefaultShelfThreshold is the maximum difference in pixels between the
	// tops of two consecutive rectangles for them to sit on the same shelf
	DefaultShelfThreshold = 110
	// DefaultShelfMinItems is the number of rectangles that must be exceeded
	// before shelf grouping is attempted
	DefaultShelfMinItems = 2
)

// ShelfGroup is a set of pixel rectangles judged to lie on the same physical
// shelf, together with the rectangle enclosing them
type ShelfGroup struct {
	// Members are the rectangles of the group in ascending top order
	Members []Rect
	// Bounds encloses every member of the group
	Bounds Rect
}

// ShelfClusterer groups detection rectangles into shelves by the vertical
// proximity of their top edges
type ShelfClusterer struct {
	// Threshold is the maximum top edge difference, in the same pixel units as
	// the rectangles, between a rectangle and the last rectangle added to the
	// current shelf
	Threshold float32
	// MinItems is the rectangle count that must be exceeded by Shelves before
	// any grouping is done
	MinItems int
}

// NewShelfClusterer returns a clusterer using the given threshold and the
// default minimum item count
func NewShelfClusterer(threshold float32) *ShelfClusterer {
	return &ShelfClusterer{
		Threshold: threshold,
		MinItems:  DefaultShelfMinItems,
	}
}

// Shelves groups the rectangles when there are more than MinItems of them,
// otherwise no shelves are returned
func (c *ShelfClusterer) Shelves(rects []Rect) []ShelfGroup {

	if len(rects) <= c.MinItems {
		return nil
	}

	return c.Cluster(rects)
}

// Cluster makes a single pass over the rectangles sorted by top edge.  Each
// rectangle joins the current group when its top is within Threshold of the
// top of the rectangle added just before it, otherwise it starts a new group.
// As the comparison is against the previous rectangle and not the first of
// the group, a chain of close rectangles can make a group span more than
// Threshold.
//
// Rectangles with equal tops keep their input order.  The input slice is not
// modified.
func (c *ShelfClusterer) Cluster(rects []Rect) []ShelfGroup {

	if len(rects) == 0 {
		return nil
	}

	sorted := make([]Rect, len(rects))
	copy(sorted, rects)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top < sorted[j].Top
	})

	groups := []ShelfGroup{{Members: []Rect{sorted[0]}}}

	for _, r := range sorted[1:] {

		cur := &groups[len(groups)-1]
		last := cur.Members[len(cur.Members)-1]

		if r.Top-last.Top <= c.Threshold {
			cur.Members = append(cur.Members, r)
			continue
		}

		groups = append(groups, ShelfGroup{Members: []Rect{r}})
	}

	for i := range groups {
		groups[i].Bounds = enclosing(groups[i].Members)
	}

	return groups
}

// enclosing returns the smallest rectangle containing all rects, which must
// not be empty
func enclosing(rects []Rect) Rect {

	bounds := rects[0]

	for _, r := range rects[1:] {
		bounds = bounds.Union(r)
	}

	return bounds
}
