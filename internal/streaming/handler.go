// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package streaming

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelhouse/internal/logging"
	"github.com/tomtom215/reelhouse/internal/metrics"
)

const (
	// DefaultChunkSize is the copy buffer size.
	DefaultChunkSize = 32 * 1024

	// DefaultContentType is sent for every video body.
	DefaultContentType = "video/mp4"

	// VideoIDParam is the chi URL parameter holding the video id.
	VideoIDParam = "videoId"
)

// ErrorBody is the JSON body of a 404, 416 or 500 stream response.
type ErrorBody struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// Responder serves GET and HEAD /stream/{videoId}.
type Responder struct {
	resolver    VideoResolver
	opener      RangeOpener
	contentType string
	bufPool     sync.Pool
}

// Option configures a Responder.
type Option func(*Responder)

// WithContentType overrides the Content-Type header.
func WithContentType(ct string) Option {
	return func(r *Responder) {
		if ct != "" {
			r.contentType = ct
		}
	}
}

// WithChunkSize sets the copy buffer size.
func WithChunkSize(n int) Option {
	return func(r *Responder) {
		if n > 0 {
			r.bufPool.New = func() interface{} {
				b := make([]byte, n)
				return &b
			}
		}
	}
}

// NewResponder creates a Responder.
func NewResponder(resolver VideoResolver, opener RangeOpener, opts ...Option) *Responder {
	r := &Responder{
		resolver:    resolver,
		opener:      opener,
		contentType: DefaultContentType,
	}
	r.bufPool.New = func() interface{} {
		b := make([]byte, DefaultChunkSize)
		return &b
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP answers with the whole video or the byte window named by Range.
//
// @Summary Stream a video
// @Description Serves video/mp4 bytes. Without a Range header the full file is returned; with "bytes=start-end", "bytes=start-" or "bytes=-suffix" a 206 partial response is returned.
// @Tags Streaming
// @Produce video/mp4
// @Param videoId path string true "Video ID"
// @Param Range header string false "Byte range" example(bytes=0-1023)
// @Success 200 {file} binary "Full content"
// @Success 206 {file} binary "Partial content"
// @Failure 404 {object} ErrorBody "Video not found"
// @Failure 416 {object} ErrorBody "Range not satisfiable"
// @Router /stream/{videoId} [get]
func (s *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := chi.URLParam(r, VideoIDParam)

	file, err := s.resolver.Resolve(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) || errors.Is(err, ErrPathOutsideRoot) {
			writeError(w, http.StatusNotFound, "Video "+strconv.Quote(videoID)+" not found")
			return
		}
		logging.Ctx(ctx).Error().Err(err).Str("video_id", videoID).Msg("Failed to resolve video")
		writeError(w, http.StatusInternalServerError, "Failed to resolve video")
		return
	}

	size := file.TotalSizeBytes
	status := http.StatusOK
	window := FullRange(size)
	if header := r.Header.Get("Range"); header != "" {
		window, err = ParseRange(header, size)
		if err != nil {
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
			writeError(w, http.StatusRequestedRangeNotSatisfiable, err.Error())
			return
		}
		status = http.StatusPartialContent
	}

	var body io.ReadCloser
	if r.Method != http.MethodHead && window.Length() > 0 {
		body, err = s.opener.OpenRange(ctx, file.Path, window.Start, window.End)
		if err != nil {
			if errors.Is(err, ErrVideoNotFound) {
				writeError(w, http.StatusNotFound, "Video "+strconv.Quote(videoID)+" not found")
				return
			}
			logging.Ctx(ctx).Error().Err(err).Str("video_id", videoID).Msg("Failed to open video")
			writeError(w, http.StatusInternalServerError, "Failed to open video")
			return
		}
		defer body.Close()
	}

	h := w.Header()
	h.Set("Content-Type", s.contentType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(window.Length(), 10))
	if status == http.StatusPartialContent {
		h.Set("Content-Range", window.ContentRange(size))
	}
	w.WriteHeader(status)

	if body == nil {
		metrics.RecordStream(status, 0, false)
		return
	}

	written, err := s.copyChunks(w, r, body)
	aborted := err != nil || written < window.Length()
	metrics.RecordStream(status, written, aborted)
	if aborted {
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("video_id", videoID).
			Int64("written", written).
			Int64("expected", window.Length()).
			Msg("Stream stopped early")
	}
}

// copyChunks forwards body to w one buffer at a time and stops as soon
// as the request context is done.
func (s *Responder) copyChunks(w http.ResponseWriter, r *http.Request, body io.Reader) (int64, error) {
	bufp := s.bufPool.Get().(*[]byte)
	defer s.bufPool.Put(bufp)
	buf := *bufp

	ctx := r.Context()
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Del("Content-Length")
	w.WriteHeader(status)
	metrics.RecordStream(status, 0, false)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Message:    message,
		Error:      statusLabel(status),
		StatusCode: status,
	})
}

func statusLabel(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusRequestedRangeNotSatisfiable:
		return "Range Not Satisfiable"
	default:
		return http.StatusText(status)
	}
}
