// Reelhouse - Streaming Platform Delivery and Billing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelhouse

package query

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder collects AND-joined conditions and their arguments. Helpers
// skip empty values, so callers pass filters through unconditionally.
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEquals adds "column = ?" unless value is empty.
func (wb *WhereBuilder) AddEquals(column, value string) *WhereBuilder {
	if value == "" {
		return wb
	}
	return wb.AddClause(column+" = ?", value)
}

// AddIn adds "column IN (?, ...)" unless values is empty.
func AddIn[T ~string](wb *WhereBuilder, column string, values []T) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		wb.args = append(wb.args, string(v))
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddTimeRange adds the half-open window since <= column < until. Zero
// bounds are skipped. Times are bound in UTC.
func (wb *WhereBuilder) AddTimeRange(column string, since, until time.Time) *WhereBuilder {
	if !since.IsZero() {
		wb.AddClause(column+" >= ?", since.UTC())
	}
	if !until.IsZero() {
		wb.AddClause(column+" < ?", until.UTC())
	}
	return wb
}

// Build joins the conditions with AND. With no conditions it returns "1=1".
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the clause prefixed with "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of conditions.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no condition was added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
