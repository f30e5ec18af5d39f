// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package streaming serves video files over HTTP with byte-range support.
//
// A request resolves its video id to a file through a VideoResolver,
// computes every response header from the file size and the Range header,
// and only then copies the requested window in fixed-size chunks. Range
// handling follows RFC 9110 for the single-range case:
//
//	bytes=0-499      first 500 bytes
//	bytes=500-       from offset 500 to the end
//	bytes=-500       last 500 bytes
//
// An end beyond the last byte is clamped. Multi-range requests, other
// units, and windows starting at or past the end are answered with 416.
package streaming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrVideoNotFound is returned when a video id has no catalog record
	// or its file is missing.
	ErrVideoNotFound = errors.New("video not found")

	// ErrRangeNotSatisfiable is returned for malformed or out-of-bounds
	// Range headers.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")

	// ErrPathOutsideRoot is returned when a catalog path escapes the
	// media root.
	ErrPathOutsideRoot = errors.New("video path outside media root")
)

const rangeUnitPrefix = "bytes="

// ByteRange is an inclusive byte window of a resource.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the Content-Range header value for a resource of
// the given size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// FullRange returns the window covering a whole non-empty resource.
func FullRange(size int64) ByteRange {
	return ByteRange{Start: 0, End: size - 1}
}

// ParseRange parses a single-range Range header against a resource of
// size bytes.
func ParseRange(header string, size int64) (ByteRange, error) {
	header = strings.TrimSpace(header)
	if len(header) < len(rangeUnitPrefix) || !strings.EqualFold(header[:len(rangeUnitPrefix)], rangeUnitPrefix) {
		return ByteRange{}, fmt.Errorf("%w: unsupported unit in %q", ErrRangeNotSatisfiable, header)
	}
	spec := strings.TrimSpace(header[len(rangeUnitPrefix):])
	if strings.Contains(spec, ",") {
		return ByteRange{}, fmt.Errorf("%w: multiple ranges are not supported", ErrRangeNotSatisfiable)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, fmt.Errorf("%w: missing '-' in %q", ErrRangeNotSatisfiable, spec)
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix form: the last n bytes.
		n, err := parseOffset(endStr)
		if err != nil {
			return ByteRange{}, err
		}
		if n == 0 || size == 0 {
			return ByteRange{}, fmt.Errorf("%w: empty suffix range", ErrRangeNotSatisfiable)
		}
		if n > size {
			n = size
		}
		return ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := parseOffset(startStr)
	if err != nil {
		return ByteRange{}, err
	}
	if start >= size {
		return ByteRange{}, fmt.Errorf("%w: start %d beyond size %d", ErrRangeNotSatisfiable, start, size)
	}

	end := size - 1
	if endStr != "" {
		e, err := parseOffset(endStr)
		if err != nil {
			return ByteRange{}, err
		}
		if e < start {
			return ByteRange{}, fmt.Errorf("%w: end %d before start %d", ErrRangeNotSatisfiable, e, start)
		}
		if e < end {
			end = e
		}
	}
	return ByteRange{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w: invalid offset %q", ErrRangeNotSatisfiable, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid offset %q", ErrRangeNotSatisfiable, s)
	}
	return n, nil
}
