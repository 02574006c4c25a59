// Package encode turns cleaned record tables into fixed-width feature
// matrices. Categorical columns become one-hot indicator blocks and
// numerical columns are appended after them, optionally standardized.
//
// The layout is learned once by Fit and reused unchanged by every Transform:
// a level that was not seen during Fit, or a missing categorical value,
// encodes as an all-zero block instead of failing.
package encode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/cespare/xxhash/v2"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/validation"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Spec declares the feature columns and the target.
type Spec struct {
	// Categorical columns are one-hot encoded in this order.
	Categorical []string `json:"categorical" yaml:"categorical"`
	// Numerical columns follow the indicator blocks in this order.
	Numerical []string `json:"numerical" yaml:"numerical"`
	// Scale standardizes numerical columns with the training mean and
	// population standard deviation.
	Scale bool `json:"scale" yaml:"scale"`
	// Target is the label column read by Fit. Empty means Fit returns no labels.
	Target string `json:"target" yaml:"target"`
}

// Columns lists every feature column in layout order.
func (s Spec) Columns() []string {
	out := make([]string, 0, len(s.Categorical)+len(s.Numerical))
	out = append(out, s.Categorical...)
	return append(out, s.Numerical...)
}

// Validate checks that at least one feature is named and none is repeated.
func (s Spec) Validate() error {
	cols := s.Columns()
	if len(cols) == 0 {
		return errors.NewConfigError("Encode", "no feature columns declared")
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			return errors.NewConfigError("Encode", fmt.Sprintf("column %q declared twice", c))
		}
		if c == s.Target {
			return errors.NewConfigError("Encode", fmt.Sprintf("target %q is also a feature", c))
		}
		seen[c] = true
	}
	return nil
}

// Encoder is a fitted feature layout. It is immutable after Fit and safe for
// concurrent use.
type Encoder struct {
	spec   Spec
	levels map[string][]string
	index  map[string]map[string]int
	offset map[string]int
	mean   []float64
	std    []float64
	names  []string
	hash   uint64
}

// Fit learns the layout from df and returns it with the encoded training
// matrix and, when spec.Target is set, the target vector.
func Fit(df *dataframe.DataFrame, spec Spec) (*Encoder, *mat.Dense, []float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if df == nil || df.Len() == 0 {
		return nil, nil, nil, errors.NewInsufficientDataError("Encode", 0, 1)
	}
	if err := validation.ValidateColumns(df, "Encode", spec.Columns()...); err != nil {
		return nil, nil, nil, err
	}

	e := &Encoder{
		spec:   spec,
		levels: make(map[string][]string, len(spec.Categorical)),
		index:  make(map[string]map[string]int, len(spec.Categorical)),
		offset: make(map[string]int, len(spec.Categorical)),
	}

	for _, name := range spec.Categorical {
		col, _ := df.Column(name)
		idx := make(map[string]int)
		var levels []string
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				continue
			}
			v := col.GetAsString(i)
			if _, ok := idx[v]; !ok {
				idx[v] = len(levels)
				levels = append(levels, v)
			}
		}
		e.offset[name] = len(e.names)
		e.levels[name] = levels
		e.index[name] = idx
		for _, level := range levels {
			e.names = append(e.names, name+"="+level)
		}
	}

	e.mean = make([]float64, len(spec.Numerical))
	e.std = make([]float64, len(spec.Numerical))
	for j, name := range spec.Numerical {
		e.names = append(e.names, name)
		e.mean[j], e.std[j] = 0, 1
		if !spec.Scale {
			continue
		}
		col, _ := df.Column(name)
		values, err := numericColumn(col)
		if err != nil {
			return nil, nil, nil, err
		}
		mean, variance := stat.PopMeanVariance(values, nil)
		e.mean[j] = mean
		if sd := math.Sqrt(variance); sd > 0 {
			e.std[j] = sd
		}
	}

	if len(e.names) == 0 {
		return nil, nil, nil, errors.NewConfigError("Encode", "feature layout is empty: categorical columns have no observed levels")
	}
	e.hash = xxhash.Sum64String(strings.Join(e.names, "\x00"))

	X, err := e.Transform(df)
	if err != nil {
		return nil, nil, nil, err
	}

	var y []float64
	if spec.Target != "" {
		target, ok := df.Column(spec.Target)
		if !ok {
			return nil, nil, nil, errors.NewColumnNotFoundError("Encode", spec.Target)
		}
		if y, err = numericColumn(target); err != nil {
			return nil, nil, nil, err
		}
	}

	return e, X, y, nil
}

// Transform encodes df with the fitted layout. Only the feature columns are
// read; any others, the target included, are ignored.
func (e *Encoder) Transform(df *dataframe.DataFrame) (*mat.Dense, error) {
	if df == nil || df.Len() == 0 {
		return nil, errors.NewInsufficientDataError("Transform", 0, 1)
	}
	if err := validation.ValidateColumns(df, "Encode", e.spec.Columns()...); err != nil {
		return nil, err
	}

	rows := df.Len()
	X := mat.NewDense(rows, len(e.names), nil)

	for _, name := range e.spec.Categorical {
		col, _ := df.Column(name)
		idx, base := e.index[name], e.offset[name]
		for i := 0; i < rows; i++ {
			if col.IsNull(i) {
				continue
			}
			if k, ok := idx[col.GetAsString(i)]; ok {
				X.Set(i, base+k, 1)
			}
		}
	}

	base := len(e.names) - len(e.spec.Numerical)
	for j, name := range e.spec.Numerical {
		col, _ := df.Column(name)
		values, err := numericColumn(col)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			X.Set(i, base+j, (v-e.mean[j])/e.std[j])
		}
	}

	return X, nil
}

// Width returns the number of matrix columns.
func (e *Encoder) Width() int {
	return len(e.names)
}

// FeatureNames returns the matrix column names in order. Indicator columns
// are named "column=level".
func (e *Encoder) FeatureNames() []string {
	return append([]string(nil), e.names...)
}

// Levels returns the fitted levels of a categorical column in first
// occurrence order, or nil for an unknown column.
func (e *Encoder) Levels(column string) []string {
	return append([]string(nil), e.levels[column]...)
}

// Spec returns the feature layout the encoder was fitted with.
func (e *Encoder) Spec() Spec {
	return e.spec
}

// Fingerprint is an xxhash of the feature layout. Two encoders with the same
// fingerprint produce matrices with identical column meaning.
func (e *Encoder) Fingerprint() uint64 {
	return e.hash
}

// numericColumn reads a column as float64. Missing or non-numeric cells are
// rejected: numerical features are expected to be cleaned already.
func numericColumn(col dataframe.ISeries) ([]float64, error) {
	out := make([]float64, col.Len())

	//nolint:exhaustive // remaining types are parsed from text
	switch col.DataType().ID() {
	case arrow.FLOAT64:
		arr := col.Array()
		defer arr.Release()
		floats := arr.(*array.Float64)
		for i := range out {
			if floats.IsNull(i) {
				return nil, missingValue(col.Name(), i)
			}
			out[i] = floats.Value(i)
		}
	case arrow.INT64:
		arr := col.Array()
		defer arr.Release()
		ints := arr.(*array.Int64)
		for i := range out {
			if ints.IsNull(i) {
				return nil, missingValue(col.Name(), i)
			}
			out[i] = float64(ints.Value(i))
		}
	default:
		for i := range out {
			if col.IsNull(i) {
				return nil, missingValue(col.Name(), i)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(col.GetAsString(i)), 64)
			if err != nil {
				return nil, errors.NewValidationError("Encode", col.Name(),
					fmt.Sprintf("row %d: %q is not numeric", i, col.GetAsString(i)))
			}
			out[i] = v
		}
	}
	return out, nil
}

func missingValue(column string, row int) error {
	return errors.NewValidationError("Encode", column, fmt.Sprintf("row %d: missing numeric value", row))
}
