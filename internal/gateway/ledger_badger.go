// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelhouse/internal/logging"
)

const ledgerKeyPrefix = "charge:"

// BadgerLedger persists charge outcomes in BadgerDB. Entries expire
// through Badger's native TTL.
type BadgerLedger struct {
	db     *badger.DB
	owned  bool
	mu     sync.RWMutex
	closed bool
}

// OpenBadgerLedger opens (or creates) a ledger database at path.
func OpenBadgerLedger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 64 << 20
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for idempotency ledger: %w", err)
	}
	return &BadgerLedger{db: db, owned: true}, nil
}

// NewBadgerLedger uses an existing database. Close leaves db open.
func NewBadgerLedger(db *badger.DB) *BadgerLedger {
	return &BadgerLedger{db: db}
}

func (l *BadgerLedger) Get(_ context.Context, key string) (*ChargeResult, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, false, ErrLedgerClosed
	}

	var result ChargeResult
	found := false
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ledgerKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &result, true, nil
}

func (l *BadgerLedger) Put(_ context.Context, key string, result *ChargeResult, ttl time.Duration) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLedgerClosed
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(ledgerKeyPrefix+key), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return nil
}

// RunGC reclaims value log space. It returns nil when there was nothing
// to collect.
func (l *BadgerLedger) RunGC() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrLedgerClosed
	}
	for {
		err := l.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return err
		}
		logging.Debug().Msg("Idempotency ledger value log rewritten")
	}
}

func (l *BadgerLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.owned {
		return l.db.Close()
	}
	return nil
}
