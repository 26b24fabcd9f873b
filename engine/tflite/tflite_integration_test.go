//go:build integration
// +build integration

package tflite

import (
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/preprocess"
	"os"
	"testing"
)

func TestDetectShelfImage(t *testing.T) {

	modelFile := os.Getenv("SHELFDETECT_MODEL")

	if modelFile == "" {
		t.Fatalf("No Model file provided in SHELFDETECT_MODEL")
	}

	imgFile := os.Getenv("SHELFDETECT_IMAGE")

	if imgFile == "" {
		t.Fatalf("No Image file provided in SHELFDETECT_IMAGE")
	}

	cfg := shelfdetect.DefaultConfig()
	cfg.ModelFile = modelFile

	eng, err := New(modelFile, cfg.NumThreads)

	if err != nil {
		t.Fatalf("New engine failed: %v", err)
	}

	det, err := shelfdetect.NewDetector(cfg, eng)

	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	defer det.Close()

	img, err := preprocess.LoadFile(imgFile, 0)

	if err != nil {
		t.Fatalf("Error reading image from %s: %v", imgFile, err)
	}

	defer img.Close()

	first, err := det.Detect(img)

	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	defer first.Close()

	if len(first.Detections) == 0 {
		t.Errorf("expected detections in %s", imgFile)
	}

	for i, d := range first.Detections {
		if d.Box.Left > d.Box.Right || d.Box.Top > d.Box.Bottom {
			t.Errorf("detection %d has unordered edges: %+v", i, d.Box)
		}
	}

	// same image through the same engine gives the same boxes
	second, err := det.Detect(img)

	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	defer second.Close()

	if len(first.Detections) != len(second.Detections) {
		t.Fatalf("detection count changed between runs: %d != %d",
			len(first.Detections), len(second.Detections))
	}

	for i := range first.Detections {
		if first.Detections[i] != second.Detections[i] {
			t.Errorf("detection %d changed between runs", i)
		}
	}
}
