// Package server exposes the shelf detector over HTTP.
package server

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/cache"
	"github.com/shelfvision/go-shelfdetect/history"
	"github.com/shelfvision/go-shelfdetect/render"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// DefaultMaxUpload is the largest accepted image upload in bytes
const DefaultMaxUpload = 20 << 20

// Detectors hands out exclusive use of a Detector, it is satisfied by
// shelfdetect.Pool
type Detectors interface {
	Get() *shelfdetect.Detector
	Return(*shelfdetect.Detector)
}

// History records and lists detection runs, it is satisfied by
// history.Store
type History interface {
	Record(ctx context.Context, run *history.Run) error
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}

// Server is the HTTP API
type Server struct {
	detectors Detectors
	// cache is optional, nil disables scene caching
	cache *cache.SceneCache
	// history is optional, nil disables run recording
	history   History
	style     render.Style
	maxUpload int64
	// maxView is the largest accepted view width or height
	maxView float32
	log       *zap.Logger
	router    *gin.Engine
}

// Option configures optional Server settings
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCache enables the scene cache
func WithCache(c *cache.SceneCache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithHistory enables run recording and the history endpoint
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithStyle sets the overlay style
func WithStyle(style render.Style) Option {
	return func(s *Server) {
		s.style = style
	}
}

// WithMaxUpload sets the largest accepted upload in bytes
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithMaxViewSize sets the largest accepted view width or height, capped at
// shelfdetect.MaxViewSizeLimit
func WithMaxViewSize(n float32) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxView = min(n, shelfdetect.MaxViewSizeLimit)
		}
	}
}

// New returns a server drawing detectors from the given source
func New(detectors Detectors, opts ...Option) *Server {

	s := &Server{
		detectors: detectors,
		style:     render.DefaultStyle(),
		maxUpload: DefaultMaxUpload,
		maxView:   shelfdetect.DefaultMaxViewSize,
		log:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.newRouter()

	return s
}

// newRouter registers the routes
func (s *Server) newRouter() *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.maxUpload

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/detect", s.detectScene)
		v1.POST("/detect/overlay", s.detectOverlay)
		v1.GET("/history", s.listHistory)
	}

	return r
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves the API on addr until ctx is cancelled, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context, addr string) error {

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server failed")

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.log.Info("http server shutting down")

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "http server shutdown")
		}

		return nil
	}
}

// requestLogger logs every request through zap
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
