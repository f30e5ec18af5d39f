// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

// Package billing implements dunning and proration for subscriptions.
//
// Dunning: when an invoice payment first fails, ScheduleDunningAttempts
// materializes one DunningAttempt per stage of the DunningSchedule, each
// due a fixed number of calendar days after the failure. The plan is
// inert; the Processor (driven by cron) later picks up due attempts and
// calls ProcessDunningAttempt, which charges through the payment gateway
// and settles the attempt with a conditional status update.
//
// Proration: ComputeProration prices the unused part of a billing period
// on the old and new plan and breaks both amounts into month-aligned
// line items that reconcile to the cent.
package billing

import (
	"fmt"
	"time"
)

// Stage is a step of the dunning escalation.
type Stage string

const (
	StageRetry1    Stage = "retry1"
	StageRetry2    Stage = "retry2"
	StageRetry3    Stage = "retry3"
	StageDowngrade Stage = "downgrade"
	StageCancel    Stage = "cancel"
)

// Action is something a stage asks the rest of the platform to do.
type Action string

const (
	ActionRetry       Action = "retry"
	ActionEmail       Action = "email"
	ActionNotify      Action = "notification"
	ActionUrgentEmail Action = "urgent_email"
	ActionWarning     Action = "warning"
	ActionCancel      Action = "cancel"
)

// StageRule is one row of a DunningSchedule.
type StageRule struct {
	Stage                Stage
	DaysFromFirstFailure int
	Actions              []Action
}

// HasAction reports whether the rule includes a.
func (r StageRule) HasAction(a Action) bool {
	for _, x := range r.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// DunningSchedule is an ordered, immutable list of stage rules. Offsets
// are strictly increasing and the final stage is StageCancel.
type DunningSchedule struct {
	rules []StageRule
}

var defaultRules = []StageRule{
	{Stage: StageRetry1, DaysFromFirstFailure: 1, Actions: []Action{ActionRetry, ActionEmail}},
	{Stage: StageRetry2, DaysFromFirstFailure: 3, Actions: []Action{ActionRetry, ActionEmail, ActionNotify}},
	{Stage: StageRetry3, DaysFromFirstFailure: 7, Actions: []Action{ActionRetry, ActionUrgentEmail}},
	{Stage: StageDowngrade, DaysFromFirstFailure: 10, Actions: []Action{ActionWarning}},
	{Stage: StageCancel, DaysFromFirstFailure: 15, Actions: []Action{ActionCancel}},
}

// DefaultSchedule returns the standard five-stage schedule.
func DefaultSchedule() DunningSchedule {
	s, err := NewSchedule(defaultRules)
	if err != nil {
		panic(err) // defaultRules is a constant table
	}
	return s
}

// NewSchedule validates rules and returns a schedule holding a private copy.
func NewSchedule(rules []StageRule) (DunningSchedule, error) {
	if err := ValidateSchedule(rules); err != nil {
		return DunningSchedule{}, err
	}
	cp := make([]StageRule, len(rules))
	for i, r := range rules {
		cp[i] = StageRule{
			Stage:                r.Stage,
			DaysFromFirstFailure: r.DaysFromFirstFailure,
			Actions:              append([]Action(nil), r.Actions...),
		}
	}
	return DunningSchedule{rules: cp}, nil
}

// ValidateSchedule checks ordering, uniqueness and the terminal stage.
func ValidateSchedule(rules []StageRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: schedule has no stages", ErrInvalidSchedule)
	}
	seen := make(map[Stage]bool, len(rules))
	for i, r := range rules {
		if r.DaysFromFirstFailure < 0 {
			return fmt.Errorf("%w: stage %s has negative offset", ErrInvalidSchedule, r.Stage)
		}
		if i > 0 && r.DaysFromFirstFailure <= rules[i-1].DaysFromFirstFailure {
			return fmt.Errorf("%w: stage %s offset %d does not follow %d",
				ErrInvalidSchedule, r.Stage, r.DaysFromFirstFailure, rules[i-1].DaysFromFirstFailure)
		}
		if seen[r.Stage] {
			return fmt.Errorf("%w: duplicate stage %s", ErrInvalidSchedule, r.Stage)
		}
		seen[r.Stage] = true
	}
	if last := rules[len(rules)-1]; last.Stage != StageCancel {
		return fmt.Errorf("%w: final stage is %s, want %s", ErrInvalidSchedule, last.Stage, StageCancel)
	}
	return nil
}

// Len returns the number of stages.
func (s DunningSchedule) Len() int { return len(s.rules) }

// Rules returns a copy of the rules in order.
func (s DunningSchedule) Rules() []StageRule {
	out := make([]StageRule, len(s.rules))
	for i, r := range s.rules {
		out[i] = StageRule{
			Stage:                r.Stage,
			DaysFromFirstFailure: r.DaysFromFirstFailure,
			Actions:              append([]Action(nil), r.Actions...),
		}
	}
	return out
}

// ActionNames returns each distinct action in first-use order.
func (s DunningSchedule) ActionNames() []string {
	seen := make(map[Action]bool)
	var names []string
	for _, r := range s.rules {
		for _, a := range r.Actions {
			if !seen[a] {
				seen[a] = true
				names = append(names, string(a))
			}
		}
	}
	return names
}

// Rule returns the rule for stage.
func (s DunningSchedule) Rule(stage Stage) (StageRule, bool) {
	for _, r := range s.rules {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageRule{}, false
}

// DueAt returns the calendar date a stage offset lands on. Offsets are
// whole calendar days in UTC, so DST never shifts a due date.
func DueAt(firstFailure time.Time, days int) time.Time {
	return firstFailure.UTC().AddDate(0, 0, days)
}
