package main

import (
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/engine/tflite"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"strconv"
	"strings"
)

// loadConfig returns the configuration file given by the global flag, or the
// defaults, with the model and labels overrides applied
func loadConfig(c *cli.Context) (shelfdetect.Config, error) {

	cfg := shelfdetect.DefaultConfig()

	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = shelfdetect.LoadConfig(path)

		if err != nil {
			return cfg, err
		}
	}

	if m := c.String(flagModel); m != "" {
		cfg.ModelFile = m
	}

	if l := c.String(flagLabels); l != "" {
		cfg.LabelFile = l
	}

	return cfg, cfg.Validate()
}

// detectorOptions returns the options shared by every detector
func detectorOptions(cfg shelfdetect.Config, log *zap.Logger) ([]shelfdetect.Option, error) {

	opts := []shelfdetect.Option{shelfdetect.WithLogger(log)}

	if cfg.LabelFile != "" {
		labels, err := shelfdetect.LoadLabels(cfg.LabelFile)

		if err != nil {
			return nil, err
		}

		opts = append(opts, shelfdetect.WithLabels(labels))
	}

	return opts, nil
}

// engineFactory returns a factory creating tflite engines for the configured
// model
func engineFactory(cfg shelfdetect.Config, log *zap.Logger) shelfdetect.EngineFactory {
	return func() (shelfdetect.Engine, error) {
		return tflite.New(cfg.ModelFile, cfg.NumThreads, tflite.WithLogger(log))
	}
}

// newDetector returns a single detector running the configured model
func newDetector(cfg shelfdetect.Config, log *zap.Logger) (*shelfdetect.Detector, error) {

	opts, err := detectorOptions(cfg, log)

	if err != nil {
		return nil, err
	}

	eng, err := engineFactory(cfg, log)()

	if err != nil {
		return nil, err
	}

	det, err := shelfdetect.NewDetector(cfg, eng, opts...)

	if err != nil {
		eng.Close()
		return nil, err
	}

	return det, nil
}

// parseView parses a WxH view size with both sides in (0, limit], an empty
// string returns 0x0
func parseView(s string, limit float32) (float32, float32, error) {

	if s == "" {
		return 0, 0, nil
	}

	w, h, ok := strings.Cut(strings.ToLower(s), "x")

	if !ok {
		return 0, 0, errors.Errorf("invalid view %q, expected WxH", s)
	}

	width, err := strconv.ParseFloat(w, 32)

	if err != nil || !(width > 0) || width > float64(limit) {
		return 0, 0, errors.Errorf("invalid view width %q", w)
	}

	height, err := strconv.ParseFloat(h, 32)

	if err != nil || !(height > 0) || height > float64(limit) {
		return 0, 0, errors.Errorf("invalid view height %q", h)
	}

	return float32(width), float32(height), nil
}
