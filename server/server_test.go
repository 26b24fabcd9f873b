package server

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/pkg/errors"
	"github.com/shelfvision/go-shelfdetect"
	"github.com/shelfvision/go-shelfdetect/cache"
	"github.com/shelfvision/go-shelfdetect/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

// scriptedEngine writes three boxes, two on one shelf and one below, or
// fails with err
type scriptedEngine struct {
	err error
}

func (e *scriptedEngine) Infer(_ []float32, out *shelfdetect.Outputs) error {

	if e.err != nil {
		return e.err
	}

	copy(out.Counts, []uint8{2, 1, 0, 0})
	copy(out.Boxes, []float32{
		0.1, 0.1, 0.5, 0.5,
		0.5, 0.12, 0.9, 0.5,
		0.1, 0.6, 0.5, 0.9,
	})
	copy(out.Scores, []float32{0.9, 0.8, 0.7})

	return nil
}

func (e *scriptedEngine) Close() error {
	return nil
}

// newTestServer returns a server over a single detector with the engine
func newTestServer(t *testing.T, eng shelfdetect.Engine, opts ...Option) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := shelfdetect.DefaultConfig()
	cfg.MaxDetections = 16

	pool, err := shelfdetect.NewPool(1, cfg, func() (shelfdetect.Engine, error) {
		return eng, nil
	})
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	return New(pool, opts...)
}

// pngImage returns an encoded w x h png
func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

// upload builds a multipart detect request
func upload(t *testing.T, path string, img []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if img != nil {
		fw, err := mw.CreateFormFile("image", "shelf.png")
		require.NoError(t, err)

		_, err = fw.Write(img)
		require.NoError(t, err)
	}

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHealth(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDetect(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, upload(t, "/v1/detect", pngImage(t, 120, 160),
		map[string]string{"view_width": "800", "view_height": "600"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.NotNil(t, resp.Scene)
	assert.False(t, resp.Cached)
	require.Len(t, resp.Scene.Items, 3)
	assert.InDelta(t, 45, resp.Scene.Items[0].Box.Left, 1e-3)
	assert.InDelta(t, 175, resp.Scene.Mapping.LeftPadding, 1e-3)
	assert.Len(t, resp.Scene.Shelves, 2)
}

func TestDetectBadRequests(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{})
	img := pngImage(t, 30, 40)

	tests := []struct {
		name   string
		img    []byte
		fields map[string]string
	}{
		{"missing image", nil, nil},
		{"undecodable image", []byte("definitely not a photo"), nil},
		{"negative view", img, map[string]string{"view_width": "-1", "view_height": "600"}},
		{"infinite view", img, map[string]string{"view_width": "Inf", "view_height": "600"}},
		{"nan view", img, map[string]string{"view_width": "NaN", "view_height": "600"}},
		{"oversized view", img, map[string]string{"view_width": "1e9", "view_height": "1e9"}},
		{"half a view", img, map[string]string{"view_width": "800"}},
		{"bad orientation", img, map[string]string{"orientation": "45"}},
		{"orientation not a number", img, map[string]string{"orientation": "up"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, upload(t, "/v1/detect", tc.img, tc.fields))

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestDetectMaxViewSize(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{}, WithMaxViewSize(1000))
	img := pngImage(t, 30, 40)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, upload(t, "/v1/detect/overlay", img,
		map[string]string{"view_width": "1000", "view_height": "1000"}))

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, upload(t, "/v1/detect/overlay", img,
		map[string]string{"view_width": "1001", "view_height": "1000"}))

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestDetectEngineFailures(t *testing.T) {

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"out of memory", errors.Wrap(shelfdetect.ErrResourceExhausted, "arena"),
			http.StatusServiceUnavailable, "Sorry, we have some memory issue :("},
		{"model failure", errors.New("invoke failed"),
			http.StatusInternalServerError, "Sorry, we have some problems with the model :("},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			s := newTestServer(t, &scriptedEngine{err: tc.err})

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, upload(t, "/v1/detect", pngImage(t, 30, 40), nil))

			assert.Equal(t, tc.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.msg, resp.Error)
		})
	}
}

func TestDetectOverlay(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, upload(t, "/v1/detect/overlay", pngImage(t, 120, 160),
		map[string]string{"view_width": "400", "view_height": "300"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	img, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestDetectCached(t *testing.T) {

	rdb, mock := redismock.NewClientMock()
	defer func() { _ = rdb.Close() }()

	sc := cache.New(rdb, 0, "", nil)
	s := newTestServer(t, &scriptedEngine{err: errors.New("engine must not run")}, WithCache(sc))

	img := pngImage(t, 30, 40)
	key := sc.Key(cache.ImageHash(img), 0, 0, 0)

	cached := &shelfdetect.Scene{ViewWidth: 480, ViewHeight: 640, ImageWidth: 480, ImageHeight: 640}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectGet(key).SetVal(string(data))

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, upload(t, "/v1/detect", img, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp DetectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Cached)
	assert.Equal(t, cached, resp.Scene)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {

	store, err := history.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer store.Close()

	s := newTestServer(t, &scriptedEngine{}, WithHistory(store))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, upload(t, "/v1/detect", pngImage(t, 30, 40), nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/history?limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Len(t, resp.Runs, 1)
	assert.Equal(t, "http", resp.Runs[0].Source)
	assert.Equal(t, 3, resp.Runs[0].Detections)
	assert.Equal(t, cache.ImageHash(pngImage(t, 30, 40)), resp.Runs[0].ImageHash)

	runs, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryDisabled(t *testing.T) {

	s := newTestServer(t, &scriptedEngine{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
