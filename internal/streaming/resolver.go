// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package streaming

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tomtom215/reelhouse/internal/logging"
)

// ResolvedVideoFile is the file behind a video id.
type ResolvedVideoFile struct {
	Path           string
	TotalSizeBytes int64
}

// VideoResolver maps a video id to its file.
type VideoResolver interface {
	Resolve(ctx context.Context, videoID string) (ResolvedVideoFile, error)
}

// VideoRecord is a catalog row. Path is relative to the media root.
type VideoRecord struct {
	ID        string
	Path      string
	SizeBytes int64
}

// VideoStore looks up catalog records. GetVideo returns ErrVideoNotFound
// for unknown ids.
type VideoStore interface {
	GetVideo(ctx context.Context, videoID string) (*VideoRecord, error)
}

// CatalogResolver resolves ids through a VideoStore and confines every
// path to a media root.
type CatalogResolver struct {
	store VideoStore
	root  string
}

// NewCatalogResolver creates a resolver rooted at root.
func NewCatalogResolver(store VideoStore, root string) (*CatalogResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root: %w", err)
	}
	return &CatalogResolver{store: store, root: abs}, nil
}

// Resolve returns the file for videoID. The on-disk size wins when it
// disagrees with the catalog.
func (c *CatalogResolver) Resolve(ctx context.Context, videoID string) (ResolvedVideoFile, error) {
	if videoID == "" {
		return ResolvedVideoFile{}, ErrVideoNotFound
	}
	rec, err := c.store.GetVideo(ctx, videoID)
	if err != nil {
		return ResolvedVideoFile{}, err
	}

	path, err := c.confine(rec.Path)
	if err != nil {
		logging.Ctx(ctx).Warn().Str("video_id", videoID).Str("path", rec.Path).Msg("Rejected video path outside media root")
		return ResolvedVideoFile{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Ctx(ctx).Warn().Str("video_id", videoID).Str("path", path).Msg("Catalog entry has no file")
			return ResolvedVideoFile{}, ErrVideoNotFound
		}
		return ResolvedVideoFile{}, fmt.Errorf("failed to stat video file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return ResolvedVideoFile{}, ErrVideoNotFound
	}

	size := info.Size()
	if rec.SizeBytes != size {
		logging.Ctx(ctx).Debug().
			Str("video_id", videoID).
			Int64("catalog_size", rec.SizeBytes).
			Int64("file_size", size).
			Msg("Catalog size differs from file size")
	}
	return ResolvedVideoFile{Path: path, TotalSizeBytes: size}, nil
}

func (c *CatalogResolver) confine(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", ErrPathOutsideRoot
	}
	joined := filepath.Join(c.root, rel)
	r, err := filepath.Rel(c.root, joined)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideRoot
	}
	return joined, nil
}

// MemoryVideoStore is a map-backed VideoStore.
type MemoryVideoStore struct {
	mu     sync.RWMutex
	videos map[string]VideoRecord
}

// NewMemoryVideoStore returns a store holding records.
func NewMemoryVideoStore(records ...VideoRecord) *MemoryVideoStore {
	s := &MemoryVideoStore{videos: make(map[string]VideoRecord, len(records))}
	for _, r := range records {
		s.videos[r.ID] = r
	}
	return s
}

// Put adds or replaces a record.
func (s *MemoryVideoStore) Put(r VideoRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[r.ID] = r
}

func (s *MemoryVideoStore) GetVideo(_ context.Context, videoID string) (*VideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.videos[videoID]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return &r, nil
}
