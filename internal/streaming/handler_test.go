// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package streaming

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const scenarioSize = 1430145

// writeVideo creates a file of size bytes with a position-dependent
// pattern so windows can be checked byte for byte.
func writeVideo(t *testing.T, dir, name string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return data
}

func newTestRouter(t *testing.T, opener RangeOpener) (http.Handler, []byte) {
	t.Helper()
	root := t.TempDir()
	data := writeVideo(t, root, "movie.mp4", scenarioSize)
	writeVideo(t, root, "empty.mp4", 0)

	store := NewMemoryVideoStore(
		VideoRecord{ID: "vid-1", Path: "movie.mp4", SizeBytes: scenarioSize},
		VideoRecord{ID: "empty", Path: "empty.mp4"},
		VideoRecord{ID: "gone", Path: "missing.mp4", SizeBytes: 10},
		VideoRecord{ID: "escape", Path: "../outside.mp4", SizeBytes: 10},
	)
	resolver, err := NewCatalogResolver(store, root)
	if err != nil {
		t.Fatal(err)
	}
	if opener == nil {
		opener = FileOpener{}
	}

	responder := NewResponder(resolver, opener, WithChunkSize(4096))
	r := chi.NewRouter()
	r.Get("/stream/{videoId}", responder.ServeHTTP)
	r.Head("/stream/{videoId}", responder.ServeHTTP)
	return r, data
}

func doRequest(h http.Handler, method, path, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResponder_FullContent(t *testing.T) {
	h, data := newTestRouter(t, nil)
	rec := doRequest(h, http.MethodGet, "/stream/vid-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(scenarioSize) {
		t.Errorf("Content-Length = %s, want %d", got, scenarioSize)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %s", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %s", got)
	}
	if rec.Header().Get("Content-Range") != "" {
		t.Error("full response should not carry Content-Range")
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Errorf("body differs from file (%d bytes)", rec.Body.Len())
	}
}

func TestResponder_PartialContentScenario(t *testing.T) {
	h, data := newTestRouter(t, nil)
	rec := doRequest(h, http.MethodGet, "/stream/vid-1", "bytes=20-1430144")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 20-1430144/1430145" {
		t.Errorf("Content-Range = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "1430125" {
		t.Errorf("Content-Length = %s, want 1430125", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data[20:]) {
		t.Errorf("body is not bytes 20..end (%d bytes)", rec.Body.Len())
	}
}

func TestResponder_Windows(t *testing.T) {
	h, data := newTestRouter(t, nil)
	tests := []struct {
		header     string
		start, end int
	}{
		{"bytes=0-0", 0, 0},
		{"bytes=0-4095", 0, 4095},
		{"bytes=4095-4096", 4095, 4096},
		{"bytes=1000000-", 1000000, scenarioSize - 1},
		{"bytes=-10", scenarioSize - 10, scenarioSize - 1},
		{"bytes=1430000-9999999", 1430000, scenarioSize - 1},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			rec := doRequest(h, http.MethodGet, "/stream/vid-1", tt.header)
			if rec.Code != http.StatusPartialContent {
				t.Fatalf("status = %d, want 206", rec.Code)
			}
			wantRange := "bytes " + strconv.Itoa(tt.start) + "-" + strconv.Itoa(tt.end) + "/" + strconv.Itoa(scenarioSize)
			if got := rec.Header().Get("Content-Range"); got != wantRange {
				t.Errorf("Content-Range = %q, want %q", got, wantRange)
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(tt.end-tt.start+1) {
				t.Errorf("Content-Length = %s, want %d", got, tt.end-tt.start+1)
			}
			if !bytes.Equal(rec.Body.Bytes(), data[tt.start:tt.end+1]) {
				t.Error("body does not match window")
			}
		})
	}
}

func TestResponder_NotFound(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	for _, id := range []string{"nope", "gone", "escape"} {
		for _, rangeHeader := range []string{"", "bytes=0-10"} {
			rec := doRequest(h, http.MethodGet, "/stream/"+id, rangeHeader)
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s range=%q status = %d, want 404", id, rangeHeader, rec.Code)
				continue
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.StatusCode != 404 || body.Error != "Not Found" || body.Message == "" {
				t.Errorf("body = %+v", body)
			}
		}
	}
}

func TestResponder_RangeNotSatisfiable(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	for _, header := range []string{"bytes=1430145-", "bytes=50-10", "bytes=0-1,4-5", "pages=1-2"} {
		rec := doRequest(h, http.MethodGet, "/stream/vid-1", header)
		if rec.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Errorf("%q status = %d, want 416", header, rec.Code)
			continue
		}
		if got := rec.Header().Get("Content-Range"); got != "bytes */1430145" {
			t.Errorf("%q Content-Range = %q", header, got)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.StatusCode != 416 || body.Error != "Range Not Satisfiable" {
			t.Errorf("body = %+v", body)
		}
	}
}

func TestResponder_Head(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := doRequest(h, http.MethodHead, "/stream/vid-1", "bytes=20-1430144")
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Length") != "1430125" || rec.Body.Len() != 0 {
		t.Errorf("HEAD Content-Length = %s body = %d bytes", rec.Header().Get("Content-Length"), rec.Body.Len())
	}
}

func TestResponder_EmptyFile(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := doRequest(h, http.MethodGet, "/stream/empty", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Length") != "0" || rec.Body.Len() != 0 {
		t.Errorf("empty file: status=%d length=%s body=%d", rec.Code, rec.Header().Get("Content-Length"), rec.Body.Len())
	}
}

// cancellingOpener cancels the request after the first chunk is read.
type cancellingOpener struct {
	cancel context.CancelFunc
	closed atomic.Bool
}

type cancellingReader struct {
	io.Reader
	o *cancellingOpener
}

func (r *cancellingReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	r.o.cancel()
	return n, err
}

func (r *cancellingReader) Close() error {
	r.o.closed.Store(true)
	return nil
}

func (o *cancellingOpener) OpenRange(_ context.Context, _ string, start, end int64) (io.ReadCloser, error) {
	return &cancellingReader{Reader: io.LimitReader(zeroReader{}, end-start+1), o: o}, nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestResponder_ClientDisconnectStopsCopy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opener := &cancellingOpener{cancel: cancel}
	h, _ := newTestRouter(t, opener)

	req := httptest.NewRequest(http.MethodGet, "/stream/vid-1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.Len() != 4096 {
		t.Errorf("wrote %d bytes after disconnect, want a single 4096-byte chunk", rec.Body.Len())
	}
	if !opener.closed.Load() {
		t.Error("reader was not closed")
	}
}

func TestFileOpener_Window(t *testing.T) {
	dir := t.TempDir()
	data := writeVideo(t, dir, "v.mp4", 100)

	rc, err := FileOpener{}.OpenRange(context.Background(), filepath.Join(dir, "v.mp4"), 10, 19)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, data[10:20]) {
		t.Errorf("window = %v, want %v", got, data[10:20])
	}

	if _, err := (FileOpener{}).OpenRange(context.Background(), filepath.Join(dir, "none.mp4"), 0, 1); err != ErrVideoNotFound {
		t.Errorf("missing file error = %v, want ErrVideoNotFound", err)
	}
}

func TestCatalogResolver_UsesDiskSize(t *testing.T) {
	root := t.TempDir()
	writeVideo(t, root, "a.mp4", 64)
	store := NewMemoryVideoStore(VideoRecord{ID: "a", Path: "a.mp4", SizeBytes: 9999})
	resolver, _ := NewCatalogResolver(store, root)

	file, err := resolver.Resolve(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if file.TotalSizeBytes != 64 {
		t.Errorf("size = %d, want on-disk 64", file.TotalSizeBytes)
	}

	store.Put(VideoRecord{ID: "abs", Path: "/etc/passwd"})
	if _, err := resolver.Resolve(context.Background(), "abs"); err != ErrPathOutsideRoot {
		t.Errorf("absolute path error = %v, want ErrPathOutsideRoot", err)
	}
}
