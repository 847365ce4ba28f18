package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Slade66/media-grabber/internal/downloader"
	"github.com/Slade66/media-grabber/internal/extractor"
	"github.com/Slade66/media-grabber/internal/extractor/mocks"
	"github.com/Slade66/media-grabber/internal/media"
	"github.com/Slade66/media-grabber/internal/metrics"
	"github.com/Slade66/media-grabber/internal/status"
	"github.com/Slade66/media-grabber/pkg/task"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const videoURL = "https://www.youtube.com/watch?v=abc"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	dir    string
	ext    *mocks.MockExtractor
	router *gin.Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	ext := &mocks.MockExtractor{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	s := NewServer(downloader.NewProber(ext, m), downloader.NewExecutor(dir, ext, m), 1024, opts...)
	return &fixture{dir: dir, ext: ext, router: s.Router(reg)}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"empty body", "", http.StatusOK, msgNoURL},
		{"missing url", `{}`, http.StatusOK, msgNoURL},
		{"empty url", `{"url": ""}`, http.StatusOK, msgEmptyURL},
		{"whitespace url", `{"url": "   \t "}`, http.StatusOK, msgEmptyURL},
		{"unsupported domain", `{"url": "https://example.com/v.mp4"}`, http.StatusOK, msgUnsupported},
		{"malformed url", `{"url": "::not a url"}`, http.StatusOK, msgUnsupported},
		{"malformed json", `{"url": `, http.StatusBadRequest, msgInvalidBody},
	}

	for _, endpoint := range []string{"/api/info", "/api/download"} {
		for _, tt := range tests {
			t.Run(endpoint+" "+tt.name, func(t *testing.T) {
				f := newFixture(t)

				w := f.do(http.MethodPost, endpoint, tt.body)

				assert.Equal(t, tt.code, w.Code)
				out := decode(t, w)
				assert.Equal(t, false, out["success"])
				assert.Equal(t, tt.message, out["message"])
				f.ext.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
				f.ext.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	}
}

func TestInfoSuccess(t *testing.T) {
	f := newFixture(t)
	title, duration := "Never Gonna Give You Up", 212.0
	f.ext.On("Probe", mock.Anything, videoURL).Return(&extractor.Info{Title: &title, Duration: &duration}, nil)

	w := f.do(http.MethodPost, "/api/info", `{"url": "  `+videoURL+`  "}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, title, out["title"])
	assert.Equal(t, 212.0, out["duration"])
	assert.Equal(t, "", out["thumbnail"])
}

func TestInfoProbeFailure(t *testing.T) {
	f := newFixture(t)
	f.ext.On("Probe", mock.Anything, videoURL).Return(nil, errors.New("HTTP Error 403"))

	w := f.do(http.MethodPost, "/api/info", `{"url": "`+videoURL+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, msgInfoFailed, out["message"])
	assert.NotContains(t, w.Body.String(), "403")
}

func TestDownloadAndServe(t *testing.T) {
	f := newFixture(t)
	content := []byte("\x00\x00\x00\x18ftypmp42 fake video")
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), content, 0644)
		}).Return(nil)

	w := f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	require.Equal(t, true, out["success"])
	filename := out["filename"].(string)
	assert.Equal(t, "/download/"+filename, out["download_url"])
	assert.FileExists(t, filepath.Join(f.dir, filename))

	get := f.do(http.MethodGet, out["download_url"].(string), "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, content, get.Body.Bytes())
	stem := strings.TrimSuffix(filename, media.DefaultExtension)
	assert.Contains(t, get.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, get.Header().Get("Content-Disposition"), "video_"+stem+".mp4")
}

func TestDownloadPassesFormat(t *testing.T) {
	f := newFixture(t)
	f.ext.On("Fetch", mock.Anything, videoURL, "bestaudio", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), []byte("audio"), 0644)
		}).Return(nil)

	w := f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`", "format": "bestaudio"}`)

	assert.Equal(t, true, decode(t, w)["success"])
	f.ext.AssertExpectations(t)
}

func TestDownloadFailureLeavesNoFile(t *testing.T) {
	f := newFixture(t)
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3)+".part", []byte("partial"), 0644)
		}).Return(errors.New("fragment 3 not found"))

	w := f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`)

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, msgDownloadFail, out["message"])
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadWithEmptyOutputFails(t *testing.T) {
	f := newFixture(t)
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), nil, 0644)
		}).Return(nil)

	out := decode(t, f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`))

	assert.Equal(t, false, out["success"])
	assert.Equal(t, msgDownloadFail, out["message"])
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeArchiver struct {
	tasks []*task.ArchiveTask
}

func (a *fakeArchiver) Publish(_ context.Context, t *task.ArchiveTask) error {
	a.tasks = append(a.tasks, t)
	return nil
}

func TestDownloadPublishesArchiveTask(t *testing.T) {
	archiver := &fakeArchiver{}
	f := newFixture(t, WithArchiver(archiver))
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), []byte("video"), 0644)
		}).Return(nil)

	out := decode(t, f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`))

	require.Len(t, archiver.tasks, 1)
	assert.Equal(t, out["filename"], archiver.tasks[0].Filename)
	assert.Equal(t, filepath.Join(f.dir, out["filename"].(string)), archiver.tasks[0].Path)
}

func TestServeFileNotFound(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "sub"), 0755))

	for _, path := range []string{"/download/missing.mp4", "/download/..", "/download/sub"} {
		w := f.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, msgFileNotFound, w.Body.String(), path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain", path)
	}
}

func TestBodyTooLarge(t *testing.T) {
	f := newFixture(t)
	body := `{"url": "` + videoURL + `", "format": "` + strings.Repeat("b", 2048) + `"}`

	w := f.do(http.MethodPost, "/api/info", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, msgTooLarge, out["message"])
}

func TestBodyTooLargeWithoutContentLength(t *testing.T) {
	f := newFixture(t)
	body := `{"url": "` + videoURL + `", "format": "` + strings.Repeat("b", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/download", bytes.NewBufferString(body))
	req.ContentLength = -1
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, msgTooLarge, decode(t, w)["message"])
}

type panickingProber struct{}

func (panickingProber) Probe(context.Context, string) (*media.Metadata, error) {
	panic("extractor exploded")
}

func TestPanicBecomesInternalError(t *testing.T) {
	s := NewServer(panickingProber{}, downloader.NewExecutor(t.TempDir(), &mocks.MockExtractor{}, nil), 1024)
	router := s.Router(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/info", strings.NewReader(`{"url": "`+videoURL+`"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, msgInternalError, out["message"])
}

func TestIndexAndMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Media Grabber</title>")

	w = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grabber_downloads_in_progress")
}

func TestListDownloadsWithoutRegistry(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/downloads", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func newRegistry(t *testing.T) *status.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return status.NewManager(rdb, time.Hour)
}

func TestListDownloadsHidesTokens(t *testing.T) {
	f := newFixture(t, WithRecorder(newRegistry(t)))
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), []byte("video"), 0644)
		}).Return(nil)
	filename := decode(t, f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`))["filename"].(string)

	w := f.do(http.MethodGet, "/api/downloads", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), filename)
	assert.NotContains(t, w.Body.String(), strings.TrimSuffix(filename, media.DefaultExtension))
	assert.NotContains(t, w.Body.String(), videoURL)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, status.StatusCompleted, list[0]["status"])
	assert.Equal(t, float64(100), list[0]["progress"])
	assert.NotContains(t, list[0], "id")
	assert.NotContains(t, list[0], "url")
}

func TestDownloadStatusByToken(t *testing.T) {
	f := newFixture(t, WithRecorder(newRegistry(t)))
	f.ext.On("Fetch", mock.Anything, videoURL, "best", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_ = os.WriteFile(args.String(3), []byte("video"), 0644)
		}).Return(nil)
	filename := decode(t, f.do(http.MethodPost, "/api/download", `{"url": "`+videoURL+`"}`))["filename"].(string)

	w := f.do(http.MethodGet, "/api/downloads/"+filename, "")

	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, filename, out["filename"])
	assert.Equal(t, videoURL, out["url"])
	assert.Equal(t, status.StatusCompleted, out["status"])

	w = f.do(http.MethodGet, "/api/downloads/unknown.mp4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgRecordNotFound, decode(t, w)["message"])
}

func TestCORSHeader(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://client.test")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
