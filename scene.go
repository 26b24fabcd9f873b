package shelfdetect

import (
	"github.com/shelfvision/go-shelfdetect/postprocess"
)

// Item is a single detection laid out in view pixels
type Item struct {
	// Box is the untranslated pixel rectangle of the detection
	Box postprocess.Rect `json:"box"`
	// Class is the class number reported by the model
	Class int `json:"class"`
	// Label is the name of the class when labels are loaded
	Label string `json:"label,omitempty"`
	// Score is the confidence reported by the model
	Score float32 `json:"score"`
}

// Scene is everything a renderer needs to draw the detections of one image
// over a view
type Scene struct {
	// ViewWidth is the width of the destination view
	ViewWidth float32 `json:"view_width"`
	// ViewHeight is the height of the destination view
	ViewHeight float32 `json:"view_height"`
	// ImageWidth is the width of the prepared image
	ImageWidth int `json:"image_width"`
	// ImageHeight is the height of the prepared image
	ImageHeight int `json:"image_height"`
	// Mapping holds the fit-center scale and the paddings a renderer
	// translates by
	Mapping postprocess.Mapping `json:"mapping"`
	// Items are the detections in decode order
	Items []Item `json:"items"`
	// Shelves summarise each shelf, ordered top to bottom
	Shelves []postprocess.ShelfSummary `json:"shelves"`
}

// NewScene maps a decoded batch into the view and groups the resulting
// rectangles into shelves.  Labels may be nil.
func NewScene(batch postprocess.Batch, geom postprocess.ViewGeometry,
	clusterer *postprocess.ShelfClusterer, labels Labels) (*Scene, error) {

	rects, mapping, err := postprocess.MapToView(batch, geom)

	if err != nil {
		return nil, err
	}

	s := &Scene{
		ViewWidth:   geom.ViewWidth,
		ViewHeight:  geom.ViewHeight,
		ImageWidth:  int(geom.ImageWidth),
		ImageHeight: int(geom.ImageHeight),
		Mapping:     mapping,
		Items:       make([]Item, len(batch)),
	}

	for i, det := range batch {
		s.Items[i] = Item{
			Box:   rects[i],
			Class: det.Class,
			Score: det.Score,
		}

		if labels != nil {
			s.Items[i].Label = labels.Name(det.Class)
		}
	}

	s.Shelves = postprocess.Summarize(clusterer.Shelves(rects))

	return s, nil
}

// Boxes returns the untranslated pixel rectangle of every item
func (s *Scene) Boxes() []postprocess.Rect {

	boxes := make([]postprocess.Rect, len(s.Items))

	for i, it := range s.Items {
		boxes[i] = it.Box
	}

	return boxes
}

// ShelfRects returns the untranslated pixel bounds of every shelf
func (s *Scene) ShelfRects() []postprocess.Rect {

	rects := make([]postprocess.Rect, len(s.Shelves))

	for i, sh := range s.Shelves {
		rects[i] = sh.Bounds
	}

	return rects
}
