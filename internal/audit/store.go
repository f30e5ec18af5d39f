// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps events in memory. The oldest tenth is dropped when
// maxLen is reached.
type MemoryStore struct {
	events []Event
	mu     sync.RWMutex
	maxLen int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, 64),
		maxLen: maxLen,
	}
}

func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		drop := s.maxLen / 10
		if drop == 0 {
			drop = 1
		}
		s.events = s.events[drop:]
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.limit()
	results := make([]Event, 0)
	for i := len(s.events) - 1; i >= 0 && len(results) < limit; i-- {
		if matches(&s.events[i], &filter) {
			results = append(results, s.events[i])
		}
	}
	return results, nil
}

func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func matches(e *Event, f *QueryFilter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ActorID != "" && e.Actor.ID != f.ActorID {
		return false
	}
	if f.TargetID != "" && e.Target.ID != f.TargetID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.Timestamp.Before(f.Until) {
		return false
	}
	return true
}
