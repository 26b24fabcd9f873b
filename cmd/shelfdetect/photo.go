package main

import (
	"encoding/json"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect/preprocess"
	"github.com/shelfvision/go-shelfdetect/render"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"os"
)

// photo detects a single photo, prints the scene as JSON and optionally
// writes the overlay
func photo(c *cli.Context, log *zap.Logger) error {

	cfg, err := loadConfig(c)

	if err != nil {
		return err
	}

	viewW, viewH, err := parseView(c.String(flagView), cfg.MaxViewSize)

	if err != nil {
		return err
	}

	det, err := newDetector(cfg, log)

	if err != nil {
		return err
	}

	defer det.Close()

	img, err := preprocess.LoadFile(c.String(flagImage), c.Int(flagOrientation))

	if err != nil {
		return err
	}

	defer img.Close()

	res, err := det.Detect(img)

	if err != nil {
		return err
	}

	defer res.Close()

	scene, err := det.Layout(res, viewW, viewH)

	if err != nil {
		return err
	}

	log.Info("photo detected",
		zap.Int("items", len(scene.Items)),
		zap.Int("shelves", len(scene.Shelves)),
		zap.Duration("took", res.Duration),
	)

	if out := c.String(flagOut); out != "" {
		view := gocv.NewMat()
		defer view.Close()

		if err := render.Canvas(res.Prepared, scene, &view, render.Black); err != nil {
			return err
		}

		render.Overlay(&view, scene, render.DefaultStyle())

		if ok := gocv.IMWrite(out, view); !ok {
			return errors.Errorf("error writing overlay to %s", out)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(scene)
}
