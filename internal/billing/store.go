// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// AttemptStore persists dunning attempts.
type AttemptStore interface {
	// CreateBatch inserts all attempts of one invoice in a single
	// transaction. It returns ErrAlreadyScheduled, writing nothing, when
	// the invoice already has a pending attempt.
	CreateBatch(ctx context.Context, attempts []*DunningAttempt) error

	// GetAttempt returns ErrAttemptNotFound for an unknown id.
	GetAttempt(ctx context.Context, id string) (*DunningAttempt, error)

	// ListByInvoice orders by attempt number.
	ListByInvoice(ctx context.Context, invoiceID string) ([]*DunningAttempt, error)

	// ListBySubscription orders by due time, then attempt number.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*DunningAttempt, error)

	HasPending(ctx context.Context, invoiceID string) (bool, error)

	// ListDue returns up to limit pending attempts due at or before now,
	// oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*DunningAttempt, error)

	// TransitionStatus applies s only if the attempt's current status is
	// from. It reports whether the row was updated.
	TransitionStatus(ctx context.Context, id string, from AttemptStatus, s Settlement) (bool, error)

	// SupersedePending marks every pending attempt of the invoice
	// superseded and returns how many were changed.
	SupersedePending(ctx context.Context, invoiceID string, at time.Time) (int, error)
}

// PlanChangeStore persists plan change audit records.
type PlanChangeStore interface {
	SavePlanChange(ctx context.Context, pc *PlanChangeRequest) error

	// GetPlanChange returns ErrPlanChangeNotFound for an unknown id.
	GetPlanChange(ctx context.Context, id string) (*PlanChangeRequest, error)
}

// MemoryStore implements AttemptStore and PlanChangeStore in memory.
type MemoryStore struct {
	mu          sync.RWMutex
	attempts    map[string]*DunningAttempt
	planChanges map[string]*PlanChangeRequest
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts:    make(map[string]*DunningAttempt),
		planChanges: make(map[string]*PlanChangeRequest),
	}
}

func cloneAttempt(a *DunningAttempt) *DunningAttempt {
	c := *a
	c.Actions = append([]Action(nil), a.Actions...)
	if a.AttemptedAt != nil {
		t := *a.AttemptedAt
		c.AttemptedAt = &t
	}
	return &c
}

func (s *MemoryStore) hasPendingLocked(invoiceID string) bool {
	for _, a := range s.attempts {
		if a.InvoiceID == invoiceID && a.Status == StatusPending {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateBatch(_ context.Context, attempts []*DunningAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range attempts {
		if s.hasPendingLocked(a.InvoiceID) {
			return ErrAlreadyScheduled
		}
	}
	for _, a := range attempts {
		s.attempts[a.ID] = cloneAttempt(a)
	}
	return nil
}

func (s *MemoryStore) GetAttempt(_ context.Context, id string) (*DunningAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (s *MemoryStore) filter(keep func(*DunningAttempt) bool) []*DunningAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*DunningAttempt
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, cloneAttempt(a))
		}
	}
	return out
}

func sortByDue(attempts []*DunningAttempt) {
	sort.Slice(attempts, func(i, j int) bool {
		if !attempts[i].NextAttemptAt.Equal(attempts[j].NextAttemptAt) {
			return attempts[i].NextAttemptAt.Before(attempts[j].NextAttemptAt)
		}
		return attempts[i].AttemptNumber < attempts[j].AttemptNumber
	})
}

func (s *MemoryStore) ListByInvoice(_ context.Context, invoiceID string) ([]*DunningAttempt, error) {
	out := s.filter(func(a *DunningAttempt) bool { return a.InvoiceID == invoiceID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttemptNumber != out[j].AttemptNumber {
			return out[i].AttemptNumber < out[j].AttemptNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListBySubscription(_ context.Context, subscriptionID string) ([]*DunningAttempt, error) {
	out := s.filter(func(a *DunningAttempt) bool { return a.SubscriptionID == subscriptionID })
	sortByDue(out)
	return out, nil
}

func (s *MemoryStore) HasPending(_ context.Context, invoiceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasPendingLocked(invoiceID), nil
}

func (s *MemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]*DunningAttempt, error) {
	out := s.filter(func(a *DunningAttempt) bool {
		return a.Status == StatusPending && !a.NextAttemptAt.After(now)
	})
	sortByDue(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) TransitionStatus(_ context.Context, id string, from AttemptStatus, st Settlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok || a.Status != from {
		return false, nil
	}
	attemptedAt := st.AttemptedAt
	a.Status = st.Status
	a.AttemptedAt = &attemptedAt
	a.ErrorMessage = st.ErrorMessage
	a.TransactionID = st.TransactionID
	a.UpdatedAt = st.AttemptedAt
	return true, nil
}

func (s *MemoryStore) SupersedePending(_ context.Context, invoiceID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.attempts {
		if a.InvoiceID == invoiceID && a.Status == StatusPending {
			a.Status = StatusSuperseded
			a.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) SavePlanChange(_ context.Context, pc *PlanChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *pc
	s.planChanges[pc.ID] = &c
	return nil
}

func (s *MemoryStore) GetPlanChange(_ context.Context, id string) (*PlanChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pc, ok := s.planChanges[id]
	if !ok {
		return nil, ErrPlanChangeNotFound
	}
	c := *pc
	return &c, nil
}
