// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// RangeOpener opens an inclusive byte window of a file.
type RangeOpener interface {
	OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error)
}

// FileOpener reads windows from the local filesystem.
type FileOpener struct{}

type sectionReadCloser struct {
	*io.SectionReader
	f *os.File
}

func (s *sectionReadCloser) Close() error {
	return s.f.Close()
}

// OpenRange opens path and returns a reader limited to [start, end].
func (FileOpener) OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if start < 0 || end < start-1 {
		return nil, fmt.Errorf("%w: window %d-%d", ErrRangeNotSatisfiable, start, end)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	return &sectionReadCloser{SectionReader: io.NewSectionReader(f, start, end-start+1), f: f}, nil
}
