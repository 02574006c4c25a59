// Package dataframe provides the in-memory record table used by the pipeline.
//
// A DataFrame is an ordered set of equally long, named columns. Each frame
// holds its own reference on every column it exposes: derived frames retain
// shared columns, so every frame must be released independently.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/series"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries. The frame takes
// ownership of the passed series.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if _, dup := columns[name]; !dup {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// FromRecords builds a string-typed frame from row maps. Columns follow the
// given order; a value absent from a row map, or empty, becomes missing.
func FromRecords(columns []string, records []map[string]string, mem memory.Allocator) (*DataFrame, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	list := make([]ISeries, 0, len(columns))
	for _, name := range columns {
		values := make([]string, len(records))
		valid := make([]bool, len(records))
		for i, rec := range records {
			v, ok := rec[name]
			values[i] = v
			valid[i] = ok && strings.TrimSpace(v) != ""
		}
		s, err := series.NewNullable(name, values, valid, mem)
		if err != nil {
			for _, built := range list {
				built.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", name, err)
		}
		list = append(list, s)
	}
	return New(list...), nil
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns.
// Unknown names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			s.Retain()
			selected = append(selected, s)
		}
	}
	return New(selected...)
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	kept := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			s := df.columns[name]
			s.Retain()
			kept = append(kept, s)
		}
	}
	return New(kept...)
}

// WithColumn returns a new DataFrame where s replaces the column of the same
// name in place, or is appended when no such column exists. The new frame
// takes ownership of s.
func (df *DataFrame) WithColumn(s ISeries) (*DataFrame, error) {
	if len(df.order) > 0 && s.Len() != df.Len() {
		return nil, errors.NewValidationError("WithColumn", s.Name(),
			fmt.Sprintf("expected length %d, got %d", df.Len(), s.Len()))
	}

	out := make([]ISeries, 0, len(df.order)+1)
	replaced := false
	for _, name := range df.order {
		if name == s.Name() {
			out = append(out, s)
			replaced = true
			continue
		}
		existing := df.columns[name]
		existing.Retain()
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, s)
	}
	return New(out...), nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, safeDataType(series)))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, series := range df.columns {
		series.Release()
	}
}

// safeDataType safely gets the data type from a series, returning nil if the series has a nil array
func safeDataType(s ISeries) (result arrow.DataType) {
	if s == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()

	return s.DataType()
}
