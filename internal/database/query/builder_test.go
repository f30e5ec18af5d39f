// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package query

import (
	"testing"
	"time"
)

type kind string

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}
	if wb.Count() != 0 {
		t.Errorf("Expected count 0, got %d", wb.Count())
	}

	whereClause, args := wb.Build()
	if whereClause != "1=1" {
		t.Errorf("Expected '1=1' for empty builder, got %q", whereClause)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}

	prefixed, _ := wb.BuildWithPrefix()
	if prefixed != "WHERE 1=1" {
		t.Errorf("Expected 'WHERE 1=1', got %q", prefixed)
	}
}

func TestWhereBuilder_Helpers(t *testing.T) {
	since := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2021, 1, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		build     func(*WhereBuilder)
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "equals",
			build:     func(wb *WhereBuilder) { wb.AddEquals("actor_id", "u-1") },
			wantWhere: "actor_id = ?",
			wantArgs:  1,
		},
		{
			name:      "equals skips empty",
			build:     func(wb *WhereBuilder) { wb.AddEquals("actor_id", "") },
			wantWhere: "1=1",
		},
		{
			name:      "in",
			build:     func(wb *WhereBuilder) { AddIn(wb, "type", []kind{"a", "b", "c"}) },
			wantWhere: "type IN (?, ?, ?)",
			wantArgs:  3,
		},
		{
			name:      "in skips empty",
			build:     func(wb *WhereBuilder) { AddIn(wb, "type", []kind(nil)) },
			wantWhere: "1=1",
		},
		{
			name:      "full time range",
			build:     func(wb *WhereBuilder) { wb.AddTimeRange("timestamp", since, until) },
			wantWhere: "timestamp >= ? AND timestamp < ?",
			wantArgs:  2,
		},
		{
			name:      "open ended since",
			build:     func(wb *WhereBuilder) { wb.AddTimeRange("timestamp", since, time.Time{}) },
			wantWhere: "timestamp >= ?",
			wantArgs:  1,
		},
		{
			name:      "open ended until",
			build:     func(wb *WhereBuilder) { wb.AddTimeRange("timestamp", time.Time{}, until) },
			wantWhere: "timestamp < ?",
			wantArgs:  1,
		},
		{
			name:      "zero time range",
			build:     func(wb *WhereBuilder) { wb.AddTimeRange("timestamp", time.Time{}, time.Time{}) },
			wantWhere: "1=1",
		},
		{
			name:      "raw clause with multiple args",
			build:     func(wb *WhereBuilder) { wb.AddClause("amount BETWEEN ? AND ?", 1, 10) },
			wantWhere: "amount BETWEEN ? AND ?",
			wantArgs:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			tt.build(wb)

			whereClause, args := wb.Build()
			if whereClause != tt.wantWhere {
				t.Errorf("where = %q, want %q", whereClause, tt.wantWhere)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestWhereBuilder_ArgumentOrder(t *testing.T) {
	since := time.Date(2021, 1, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))

	wb := NewWhereBuilder()
	AddIn(wb, "type", []string{"dunning.scheduled"})
	wb.AddEquals("actor_id", "admin").
		AddEquals("target_id", "inv-1").
		AddTimeRange("timestamp", since, time.Time{})

	whereClause, args := wb.BuildWithPrefix()
	want := "WHERE type IN (?) AND actor_id = ? AND target_id = ? AND timestamp >= ?"
	if whereClause != want {
		t.Fatalf("where = %q, want %q", whereClause, want)
	}
	if wb.Count() != 4 {
		t.Errorf("Count() = %d, want 4", wb.Count())
	}
	if len(args) != 4 {
		t.Fatalf("args = %d, want 4", len(args))
	}
	if args[0] != "dunning.scheduled" || args[1] != "admin" || args[2] != "inv-1" {
		t.Errorf("unexpected args: %v", args[:3])
	}
	bound, ok := args[3].(time.Time)
	if !ok {
		t.Fatalf("args[3] is %T, want time.Time", args[3])
	}
	if bound.Location() != time.UTC || !bound.Equal(since) {
		t.Errorf("since bound = %v, want %v in UTC", bound, since)
	}
}

func BenchmarkWhereBuilder_Build(b *testing.B) {
	since := time.Now().Add(-24 * time.Hour)
	for i := 0; i < b.N; i++ {
		wb := NewWhereBuilder()
		AddIn(wb, "type", []string{"a", "b", "c"})
		wb.AddEquals("actor_id", "u").AddTimeRange("timestamp", since, time.Time{})
		_, _ = wb.Build()
	}
}
