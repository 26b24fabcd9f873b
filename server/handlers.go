package server

import (
	"bytes"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/cache"
	"github.com/shelfvision/go-shelfdetect/history"
	"github.com/shelfvision/go-shelfdetect/preprocess"
	"github.com/shelfvision/go-shelfdetect/render"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectResponse is the body of a successful detect request
type DetectResponse struct {
	Scene      *shelfdetect.Scene `json:"scene"`
	Cached     bool               `json:"cached"`
	DurationMS int64              `json:"duration_ms"`
}

// HistoryResponse is the body of a history request
type HistoryResponse struct {
	Runs []history.Run `json:"runs"`
}

// request holds the parsed form of a detect request
type request struct {
	image       []byte
	hash        string
	viewWidth   float32
	viewHeight  float32
	orientation int
}

// health reports liveness
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// detectScene runs detection and returns the laid out scene as JSON
//
// POST /v1/detect  multipart: image, view_width, view_height, orientation
//
// orientation is applied after any EXIF orientation of the image, clients
// must not repeat the EXIF rotation in it
func (s *Server) detectScene(c *gin.Context) {

	req, ok := s.parseRequest(c)

	if !ok {
		return
	}

	var key string

	if s.cache != nil {
		key = s.cache.Key(req.hash, req.viewWidth, req.viewHeight, req.orientation)

		if scene, hit := s.cache.Get(c.Request.Context(), key); hit {
			c.JSON(http.StatusOK, DetectResponse{Scene: scene, Cached: true})
			return
		}
	}

	start := time.Now()

	scene, ok := s.run(c, req, nil)

	if !ok {
		return
	}

	took := time.Since(start)

	if s.cache != nil {
		if err := s.cache.Set(c.Request.Context(), key, scene); err != nil {
			s.log.Warn("error caching scene", zap.Error(err))
		}
	}

	s.record(c, req, scene, took)

	c.JSON(http.StatusOK, DetectResponse{Scene: scene, DurationMS: took.Milliseconds()})
}

// detectOverlay runs detection and returns the view with the scene drawn
// over it as a jpeg
//
// POST /v1/detect/overlay  multipart: image, view_width, view_height, orientation
func (s *Server) detectOverlay(c *gin.Context) {

	req, ok := s.parseRequest(c)

	if !ok {
		return
	}

	start := time.Now()

	var jpeg []byte

	scene, ok := s.run(c, req, func(res *shelfdetect.Result, scene *shelfdetect.Scene) error {

		view := gocv.NewMat()
		defer view.Close()

		if err := render.Canvas(res.Prepared, scene, &view, render.Black); err != nil {
			return err
		}

		render.Overlay(&view, scene, s.style)

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, view)

		if err != nil {
			return errors.Wrap(err, "error encoding overlay")
		}

		defer buf.Close()

		jpeg = bytes.Clone(buf.GetBytes())

		return nil
	})

	if !ok {
		return
	}

	s.record(c, req, scene, time.Since(start))

	c.Data(http.StatusOK, "image/jpeg", jpeg)
}

// listHistory returns the most recent runs
//
// GET /v1/history?limit=20
func (s *Server) listHistory(c *gin.Context) {

	if s.history == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history is not enabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))

	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		return
	}

	runs, err := s.history.Recent(c.Request.Context(), limit)

	if err != nil {
		s.log.Error("error listing history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "history is unavailable"})
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{Runs: runs})
}

// parseRequest reads the uploaded image and view parameters, responding with
// 400 when they are invalid
func (s *Server) parseRequest(c *gin.Context) (*request, bool) {

	fh, err := c.FormFile("image")

	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field image is required"})
		return nil, false
	}

	if fh.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image is too large"})
		return nil, false
	}

	f, err := fh.Open()

	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image could not be read"})
		return nil, false
	}

	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload))

	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image could not be read"})
		return nil, false
	}

	req := &request{
		image: data,
		hash:  cache.ImageHash(data),
	}

	if req.viewWidth, err = formFloat(c, "view_width", s.maxView); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, false
	}

	if req.viewHeight, err = formFloat(c, "view_height", s.maxView); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, false
	}

	if (req.viewWidth == 0) != (req.viewHeight == 0) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "view_width and view_height must be given together"})
		return nil, false
	}

	if v := c.PostForm("orientation"); v != "" {
		req.orientation, err = strconv.Atoi(v)

		if err != nil || preprocess.NormalizeDegrees(req.orientation)%90 != 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "orientation must be a multiple of 90"})
			return nil, false
		}
	}

	return req, true
}

// run decodes the image and detects on a pooled detector.  The optional
// after callback runs while the result is still open.  Failures are
// responded to and reported as false.
func (s *Server) run(c *gin.Context, req *request,
	after func(*shelfdetect.Result, *shelfdetect.Scene) error) (*shelfdetect.Scene, bool) {

	img, err := preprocess.Decode(bytes.NewReader(req.image), req.orientation)

	if err != nil {
		s.fail(c, err)
		return nil, false
	}

	defer img.Close()

	det := s.detectors.Get()

	if det == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server is shutting down"})
		return nil, false
	}

	defer s.detectors.Return(det)

	res, err := det.Detect(img)

	if err != nil {
		s.fail(c, err)
		return nil, false
	}

	defer res.Close()

	scene, err := det.Layout(res, req.viewWidth, req.viewHeight)

	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid view size"})
		return nil, false
	}

	if after != nil {
		if err := after(res, scene); err != nil {
			s.fail(c, err)
			return nil, false
		}
	}

	return scene, true
}

// fail responds with the status and user message of the error kind
func (s *Server) fail(c *gin.Context, err error) {

	status := http.StatusInternalServerError

	switch shelfdetect.Kind(err) {
	case shelfdetect.ErrImageDecode:
		status = http.StatusBadRequest
	case shelfdetect.ErrResourceExhausted:
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("detection failed", zap.Error(err))
	}

	c.JSON(status, ErrorResponse{Error: shelfdetect.UserMessage(err)})
}

// record stores the run in the history, failures are only logged
func (s *Server) record(c *gin.Context, req *request, scene *shelfdetect.Scene, took time.Duration) {

	if s.history == nil {
		return
	}

	run, err := history.NewRun("http", req.hash, scene, took)

	if err == nil {
		err = s.history.Record(c.Request.Context(), run)
	}

	if err != nil {
		s.log.Warn("error recording run", zap.Error(err))
	}
}

// formFloat parses an optional float form value in [0, limit]
func formFloat(c *gin.Context, name string, limit float32) (float32, error) {

	v := c.PostForm(name)

	if v == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(v, 32)

	// the negated comparison also rejects NaN, the limit rejects Inf
	if err != nil || !(f >= 0) || f > float64(limit) {
		return 0, errors.Errorf("%s must be a number between 0 and %v", name, limit)
	}

	return float32(f), nil
}
