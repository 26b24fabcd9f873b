// Command shelfdetect runs the shelf detector over photos, a camera or as an
// HTTP service.
package main

import (
	"fmt"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

const (
	// Flags.
	flagConfig      = "config"
	flagDebug       = "debug"
	flagModel       = "model"
	flagLabels      = "labels"
	flagImage       = "image"
	flagOut         = "out"
	flagOrientation = "orientation"
	flagView        = "view"
	flagDevice      = "device"
	flagRotation    = "rotation"
	flagAddr        = "addr"
)

func main() {

	var log *zap.Logger

	app := &cli.App{
		Name:  "shelfdetect",
		Usage: "detect products and shelves in retail shelf images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagModel,
				Usage: "detector model `FILE`, overrides the configuration",
			},
			&cli.StringFlag{
				Name:  flagLabels,
				Usage: "class labels `FILE`, overrides the configuration",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error

			if c.Bool(flagDebug) {
				log, err = zap.NewDevelopment()
			} else {
				log, err = zap.NewProduction()
			}

			return err
		},
		After: func(c *cli.Context) error {
			if log != nil {
				_ = log.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "photo",
				Usage:     "detect a single photo",
				UsageText: "shelfdetect photo --image shelf.jpg [--out overlay.jpg] [--view 1080x1920]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagImage,
						Usage:    "photo `FILE` to detect",
						Required: true,
					},
					&cli.StringFlag{
						Name:  flagOut,
						Usage: "write the overlay to `FILE`",
					},
					&cli.IntFlag{
						Name:  flagOrientation,
						Usage: "clockwise rotation in degrees needed to show the photo upright",
					},
					&cli.StringFlag{
						Name:  flagView,
						Usage: "lay the scene out over a `WxH` view, defaults to the model input size",
					},
				},
				Action: func(c *cli.Context) error {
					return photo(c, log)
				},
			},
			{
				Name:  "camera",
				Usage: "detect a live camera and serve the overlay as an MJPEG stream",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagDevice,
						Usage: "camera device id",
					},
					&cli.IntFlag{
						Name:  flagRotation,
						Usage: "clockwise rotation in degrees needed to show frames upright",
					},
					&cli.StringFlag{
						Name:  flagView,
						Usage: "lay scenes out over a `WxH` view, defaults to the model input size",
					},
					&cli.StringFlag{
						Name:  flagAddr,
						Usage: "stream listen address",
						Value: ":8080",
					},
				},
				Action: func(c *cli.Context) error {
					return camera(c, log)
				},
			},
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagAddr,
						Usage: "listen address, overrides the configuration",
					},
				},
				Action: func(c *cli.Context) error {
					return serve(c, log)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
