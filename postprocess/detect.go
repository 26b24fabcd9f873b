package postprocess

// Detection defines the attributes of a single object detected by the model
type Detection struct {
	// Box is the bounding box of the object in normalized [0,1] coordinates
	// relative to the prepared image
	Box Rect `json:"box"`
	// Class is the label index reported by the model for the object.  It is
	// decoded for reporting only and takes no part in shelf grouping
	Class int `json:"class"`
	// Score is the confidence score reported by the model
	Score float32 `json:"score"`
}

// Batch is the decoded list of detections for one inference call
type Batch []Detection

// Boxes returns the bounding boxes of every detection in the batch
func (b Batch) Boxes() []Rect {

	boxes := make([]Rect, len(b))

	for i, det := range b {
		boxes[i] = det.Box
	}

	return boxes
}
