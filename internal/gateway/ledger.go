// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLedgerClosed is returned by a closed ledger.
var ErrLedgerClosed = errors.New("idempotency ledger is closed")

// Ledger remembers the definitive outcome of each idempotency key.
type Ledger interface {
	// Get returns the stored result, or ok=false when the key is unknown
	// or expired.
	Get(ctx context.Context, key string) (result *ChargeResult, ok bool, err error)

	// Put stores result under key for ttl.
	Put(ctx context.Context, key string, result *ChargeResult, ttl time.Duration) error

	Close() error
}

type memoryEntry struct {
	result    ChargeResult
	expiresAt time.Time
}

// MemoryLedger is an in-process Ledger for tests and single-node setups.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
	now     func() time.Time
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]memoryEntry), now: time.Now}
}

func (l *MemoryLedger) Get(_ context.Context, key string) (*ChargeResult, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, false, ErrLedgerClosed
	}
	e, ok := l.entries[key]
	if !ok || !l.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	result := e.result
	return &result, true, nil
}

func (l *MemoryLedger) Put(_ context.Context, key string, result *ChargeResult, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLedgerClosed
	}
	l.entries[key] = memoryEntry{result: *result, expiresAt: l.now().Add(ttl)}
	return nil
}

func (l *MemoryLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
