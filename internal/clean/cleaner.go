package clean

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/series"
	"github.com/paveg/appraise/internal/validation"
)

// Cleaner applies a Schema to record tables. It holds no per-table state and
// is safe for concurrent use.
type Cleaner struct {
	schema Schema
	mem    memory.Allocator
	logger *slog.Logger
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithAllocator sets the allocator for cleaned columns.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *Cleaner) { c.mem = mem }
}

// WithLogger sets the logger used for imputation messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cleaner) { c.logger = logger }
}

// New returns a Cleaner for schema.
func New(schema Schema, opts ...Option) (*Cleaner, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	c := &Cleaner{
		schema: schema,
		mem:    memory.NewGoAllocator(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Schema returns the schema the cleaner applies.
func (c *Cleaner) Schema() Schema {
	return c.schema
}

// Clean returns a new table with every schema column repaired and imputed.
// Columns outside the schema pass through untouched and the row count is
// preserved. Imputation statistics come from df itself, so a single-row
// table can only fill a gap from its own value. The caller releases the
// result.
func (c *Cleaner) Clean(df *dataframe.DataFrame, mode Mode) (*dataframe.DataFrame, error) {
	if df == nil {
		return nil, errors.NewValidationError("Clean", "", "nil table")
	}
	if err := validation.ValidateColumns(df, "Clean", c.schema.Required(mode)...); err != nil {
		return nil, err
	}

	out := df.Drop()
	replace := func(s dataframe.ISeries) error {
		next, err := out.WithColumn(s)
		if err != nil {
			s.Release()
			return err
		}
		out.Release()
		out = next
		return nil
	}

	for _, col := range c.schema.Columns {
		src, _ := out.Column(col.Source)
		s, err := c.cleanColumn(col, src)
		if err != nil {
			out.Release()
			return nil, err
		}
		if err := replace(s); err != nil {
			out.Release()
			return nil, err
		}
	}

	if mode == Training && c.schema.Target != "" {
		src, _ := out.Column(c.schema.Target)
		s, err := c.cleanTarget(src)
		if err != nil {
			out.Release()
			return nil, err
		}
		if err := replace(s); err != nil {
			out.Release()
			return nil, err
		}
	}

	return out, nil
}

func (c *Cleaner) cleanColumn(col Column, src dataframe.ISeries) (dataframe.ISeries, error) {
	switch col.Kind {
	case Quantity, LeadingNumber:
		return c.cleanNumeric(col, src)
	case Label, Categorical, Binned:
		return c.cleanCategorical(col, src)
	default:
		return nil, errors.NewConfigError("Clean", fmt.Sprintf("column %q has unknown kind %s", col.Name(), col.Kind))
	}
}

func (c *Cleaner) cleanNumeric(col Column, src dataframe.ISeries) (dataframe.ISeries, error) {
	values, valid := parseNumeric(src, col.Kind)

	observed := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			observed = append(observed, v)
		}
	}
	if missing := len(values) - len(observed); missing > 0 {
		median, ok := Median(observed)
		if !ok {
			return nil, errors.NewNoObservedValuesError("Clean", col.Name())
		}
		for i := range values {
			if !valid[i] {
				values[i] = median
			}
		}
		c.logger.Debug("imputed missing values", "column", col.Name(), "count", missing, "median", median)
	}

	return series.New(col.Name(), values, c.mem), nil
}

// parseNumeric reads src as floats. Columns that are already float64 are not
// re-parsed so that cleaning a clean table changes nothing, but NaN and
// infinities count as missing and the sign is dropped as the text rules do.
func parseNumeric(src dataframe.ISeries, kind ColumnKind) ([]float64, []bool) {
	n := src.Len()
	values := make([]float64, n)
	valid := make([]bool, n)

	if src.DataType().ID() == arrow.FLOAT64 {
		arr := src.Array()
		defer arr.Release()
		floats := arr.(*array.Float64)
		for i := 0; i < n; i++ {
			if !floats.IsValid(i) {
				continue
			}
			v := floats.Value(i)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[i], valid[i] = math.Abs(v), true
		}
		return values, valid
	}

	parse := ParseQuantity
	if kind == LeadingNumber {
		parse = ParseLeadingNumber
	}
	for i := 0; i < n; i++ {
		if src.IsNull(i) {
			continue
		}
		values[i], valid[i] = parse(src.GetAsString(i))
	}
	return values, valid
}

func (c *Cleaner) cleanCategorical(col Column, src dataframe.ISeries) (dataframe.ISeries, error) {
	n := src.Len()
	values := make([]string, n)
	valid := make([]bool, n)

	for i := 0; i < n; i++ {
		raw := src.GetAsString(i)
		switch col.Kind {
		case Label:
			// Missing text goes through the map like any other value.
			values[i] = col.Labels.Normalize(raw)
		case Binned:
			if src.IsNull(i) {
				continue
			}
			if v, ok := ParseLeadingNumber(raw); ok {
				values[i] = col.Bins.Label(v)
			}
		default:
			if !src.IsNull(i) {
				values[i] = raw
			}
		}
		valid[i] = values[i] != ""
	}

	observed := make([]string, 0, n)
	for i, v := range values {
		if valid[i] {
			observed = append(observed, v)
		}
	}
	if missing := n - len(observed); missing > 0 {
		mode, ok := MostFrequent(observed)
		if !ok {
			return nil, errors.NewNoObservedValuesError("Clean", col.Name())
		}
		for i := range values {
			if !valid[i] {
				values[i] = mode
			}
		}
		c.logger.Debug("imputed missing values", "column", col.Name(), "count", missing, "mode", mode)
	}

	return series.New(col.Name(), values, c.mem), nil
}

func (c *Cleaner) cleanTarget(src dataframe.ISeries) (dataframe.ISeries, error) {
	values, valid := parseNumeric(src, Quantity)
	for i := range values {
		if !valid[i] {
			return nil, errors.NewSchemaError("Clean", c.schema.Target,
				fmt.Sprintf("row %d: missing or unparsable target value", i))
		}
	}
	return series.New(c.schema.Target, values, c.mem), nil
}
