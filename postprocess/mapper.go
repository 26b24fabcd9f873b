package postprocess

import (
	"github.com/pkg/errors"
	"math"
)

// ErrDegenerateGeometry is returned when the view geometry can not produce a
// finite fit-center scale
var ErrDegenerateGeometry = errors.New("degenerate view geometry")

// ViewGeometry bundles the dimensions of the destination view and of the
// prepared image shown inside it
type ViewGeometry struct {
	// ViewWidth is the width of the destination view in pixels
	ViewWidth float32
	// ViewHeight is the height of the destination view in pixels
	ViewHeight float32
	// ImageWidth is the width of the prepared image in pixels
	ImageWidth float32
	// ImageHeight is the height of the prepared image in pixels
	ImageHeight float32
}

// Mapping holds the fit-center (letterbox) parameters placing the prepared
// image inside the view
type Mapping struct {
	// Scale is the uniform scale factor applied to the prepared image
	Scale float32 `json:"scale"`
	// TopPadding is the vertical centering offset of the scaled image
	TopPadding float32 `json:"top_padding"`
	// LeftPadding is the horizontal centering offset of the scaled image
	LeftPadding float32 `json:"left_padding"`
}

// NewMapping calculates the fit-center scale and centering offsets for the
// given geometry
func NewMapping(g ViewGeometry) (Mapping, error) {

	// negated comparisons so NaN dimensions are rejected too
	if !(g.ImageWidth > 0) || !(g.ImageHeight > 0) || isInf(g.ImageWidth) || isInf(g.ImageHeight) {
		return Mapping{}, errors.Wrapf(ErrDegenerateGeometry, "image size %vx%v",
			g.ImageWidth, g.ImageHeight)
	}

	if !(g.ViewWidth >= 0) || !(g.ViewHeight >= 0) || isInf(g.ViewWidth) || isInf(g.ViewHeight) {
		return Mapping{}, errors.Wrapf(ErrDegenerateGeometry, "view size %vx%v",
			g.ViewWidth, g.ViewHeight)
	}

	scale := minF32(g.ViewWidth/g.ImageWidth, g.ViewHeight/g.ImageHeight)

	return Mapping{
		Scale:       scale,
		TopPadding:  (g.ViewHeight - g.ImageHeight*scale) / 2,
		LeftPadding: (g.ViewWidth - g.ImageWidth*scale) / 2,
	}, nil
}

// isInf reports whether v is positive or negative infinity
func isInf(v float32) bool {
	return math.IsInf(float64(v), 0)
}

// Translate moves a pixel rectangle from the untranslated frame into view
// coordinates by applying the centering offsets.  This is meant for renderers
// only, clustering works on the untranslated values.
func (m Mapping) Translate(r Rect) Rect {
	return r.Offset(m.LeftPadding, m.TopPadding)
}

// MapToView converts the normalized boxes of a batch into pixel rectangles in
// the untranslated view frame.  The centering offsets are returned in the
// Mapping and are not added to the rectangles.
func MapToView(batch Batch, g ViewGeometry) ([]Rect, Mapping, error) {

	m, err := NewMapping(g)

	if err != nil {
		return nil, Mapping{}, err
	}

	rects := make([]Rect, len(batch))

	for i, det := range batch {
		rects[i] = Rect{
			Left:   det.Box.Left * g.ImageWidth * m.Scale,
			Top:    det.Box.Top * g.ImageHeight * m.Scale,
			Right:  det.Box.Right * g.ImageWidth * m.Scale,
			Bottom: det.Box.Bottom * g.ImageHeight * m.Scale,
		}
	}

	return rects, m, nil
}
