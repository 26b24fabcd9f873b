package main

import (
	"bytes"
	"context"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/render"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// frameInterval is how often connected clients are checked for a new overlay
const frameInterval = time.Second / 30

// feed holds the latest encoded overlay
type feed struct {
	mu sync.Mutex
	// jpeg is the latest overlay
	jpeg []byte
	// seq increments with every overlay
	seq uint64
}

// set replaces the latest overlay
func (f *feed) set(jpeg []byte) {
	f.mu.Lock()
	f.jpeg = jpeg
	f.seq++
	f.mu.Unlock()
}

// get returns the latest overlay and its sequence number
func (f *feed) get() ([]byte, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jpeg, f.seq
}

// camera reads frames from a capture device, detects the latest frame and
// serves the overlays to browsers as an MJPEG stream
func camera(c *cli.Context, log *zap.Logger) error {

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

	video, err := gocv.VideoCaptureDevice(c.Int(flagDevice))

	if err != nil {
		return errors.Wrapf(err, "error opening camera %d", c.Int(flagDevice))
	}

	defer video.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream := shelfdetect.NewStream(det, viewW, viewH)
	out := &feed{}

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		renderResults(stream, out, log)
	}()

	srv := &http.Server{
		Addr:              c.String(flagAddr),
		Handler:           mjpegHandler(out, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("camera stream listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("camera stream failed", zap.Error(err))
			stop()
		}
	}()

	captureFrames(ctx, video, stream, c.Int(flagRotation), log)

	stream.Close()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// captureFrames submits camera frames to the stream until ctx is cancelled.
// Frames arriving while the detector is busy are dropped by the stream.
func captureFrames(ctx context.Context, video *gocv.VideoCapture, stream *shelfdetect.Stream,
	rotation int, log *zap.Logger) {

	for ctx.Err() == nil {

		img := gocv.NewMat()

		if ok := video.Read(&img); !ok {
			img.Close()
			log.Warn("camera read failed")
			time.Sleep(frameInterval)
			continue
		}

		if img.Empty() {
			img.Close()
			continue
		}

		stream.Submit(shelfdetect.Frame{Mat: img, Rotation: rotation})
	}
}

// renderResults draws every stream result and publishes it to the feed until
// the stream is closed
func renderResults(stream *shelfdetect.Stream, out *feed, log *zap.Logger) {

	style := render.DefaultStyle()
	view := gocv.NewMat()
	defer view.Close()

	for res := range stream.Results() {

		if res.Err != nil {
			log.Warn("frame detection failed", zap.Error(res.Err))
			continue
		}

		err := render.Canvas(res.Result.Prepared, res.Scene, &view, render.Black)

		if err == nil {
			render.Overlay(&view, res.Scene, style)

			var buf *gocv.NativeByteBuffer
			buf, err = gocv.IMEncode(gocv.JPEGFileExt, view)

			if err == nil {
				out.set(bytes.Clone(buf.GetBytes()))
				buf.Close()
			}
		}

		if err != nil {
			log.Warn("frame render failed", zap.Error(err))
		}

		res.Result.Close()
	}
}

// mjpegHandler streams the feed to a browser as multipart jpeg frames
func mjpegHandler(out *feed, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.Info("stream client connected", zap.String("remote", r.RemoteAddr))
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

		flusher, _ := w.(http.Flusher)

		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()

		var last uint64

		for {
			select {
			case <-r.Context().Done():
				log.Info("stream client disconnected", zap.String("remote", r.RemoteAddr))
				return

			case <-ticker.C:
				jpeg, seq := out.get()

				if seq == last || jpeg == nil {
					continue
				}

				last = seq

				w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\n"))
				w.Write(jpeg)
				w.Write([]byte("\r\n"))

				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	})
}
