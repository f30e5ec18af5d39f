// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package billing

import "errors"

var (
	// ErrAttemptNotFound is returned for an unknown attempt id. It is
	// never retried.
	ErrAttemptNotFound = errors.New("dunning attempt not found")

	// ErrPlanChangeNotFound is returned for an unknown plan change id.
	ErrPlanChangeNotFound = errors.New("plan change request not found")

	// ErrAlreadyScheduled is returned when an invoice already has pending
	// attempts. No rows are written.
	ErrAlreadyScheduled = errors.New("dunning already scheduled for invoice")

	// ErrAttemptAlreadySettled is returned when a concurrent worker settled
	// the attempt between read and conditional update.
	ErrAttemptAlreadySettled = errors.New("dunning attempt already settled")

	// ErrPersistence wraps attempt and plan change store failures.
	ErrPersistence = errors.New("billing persistence failure")

	// ErrInvalidSchedule is returned by ValidateSchedule.
	ErrInvalidSchedule = errors.New("invalid dunning schedule")

	// ErrInvalidInvoice is returned for an invoice missing required fields.
	ErrInvalidInvoice = errors.New("invalid invoice")

	// ErrInvalidProration is returned for inconsistent proration inputs.
	ErrInvalidProration = errors.New("invalid proration input")
)
