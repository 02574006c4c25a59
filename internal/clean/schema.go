// Package clean repairs raw catalogue columns and imputes missing values so
// that every feature column leaves with a stable type and no gaps.
package clean

import (
	"fmt"

	"github.com/paveg/appraise/internal/errors"
)

// Mode selects which columns Clean requires.
type Mode int

const (
	// Training requires the target column in addition to every feature column.
	Training Mode = iota
	// Prediction requires only the feature source columns.
	Prediction
)

func (m Mode) String() string {
	if m == Prediction {
		return "prediction"
	}
	return "training"
}

// ColumnKind is the repair applied to one column.
type ColumnKind int

const (
	// Quantity strips everything but digits and '.', then parses a float.
	// Missing values take the column median.
	Quantity ColumnKind = iota
	// LeadingNumber takes the first run of digits. Missing values take the median.
	LeadingNumber
	// Label maps text through a LabelMap. Missing values take the mode.
	Label
	// Categorical keeps the text as is. Missing values take the mode.
	Categorical
	// Binned takes the first run of digits and maps it through a Binning.
	// Missing values take the mode.
	Binned
)

var kindNames = map[ColumnKind]string{
	Quantity:      "quantity",
	LeadingNumber: "leading_number",
	Label:         "label",
	Categorical:   "categorical",
	Binned:        "binned",
}

func (k ColumnKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

// IsNumeric reports whether the kind produces a float64 column.
func (k ColumnKind) IsNumeric() bool {
	return k == Quantity || k == LeadingNumber
}

// Column declares how one source column is cleaned.
type Column struct {
	// Source is the raw column read from the dataset.
	Source string
	// Output names the cleaned column. Empty means Source is replaced in place.
	Output string
	Kind   ColumnKind
	Labels LabelMap
	Bins   Binning
}

// Name returns the cleaned column name.
func (c Column) Name() string {
	if c.Output == "" {
		return c.Source
	}
	return c.Output
}

// Schema lists the columns a dataset must provide and how to clean them.
type Schema struct {
	Columns []Column
	// Target is the numeric label column, required in Training mode.
	Target string
}

// Required lists the source columns the mode needs, in schema order.
func (s Schema) Required(mode Mode) []string {
	seen := make(map[string]bool, len(s.Columns)+1)
	out := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		if !seen[c.Source] {
			seen[c.Source] = true
			out = append(out, c.Source)
		}
	}
	if mode == Training && s.Target != "" && !seen[s.Target] {
		out = append(out, s.Target)
	}
	return out
}

// Column looks up a column declaration by its cleaned name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name() == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks that the schema is usable.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.NewConfigError("Schema", "no columns declared")
	}
	outputs := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Source == "" {
			return errors.NewConfigError("Schema", "column with empty source name")
		}
		if outputs[c.Name()] {
			return errors.NewConfigError("Schema", fmt.Sprintf("duplicate output column %q", c.Name()))
		}
		outputs[c.Name()] = true
		if c.Kind == Binned && len(c.Bins.Bins) == 0 {
			return errors.NewConfigError("Schema", fmt.Sprintf("binned column %q has no bins", c.Name()))
		}
		if _, ok := kindNames[c.Kind]; !ok {
			return errors.NewConfigError("Schema", fmt.Sprintf("column %q has unknown kind %d", c.Name(), int(c.Kind)))
		}
	}
	if s.Target != "" && outputs[s.Target] {
		return errors.NewConfigError("Schema", fmt.Sprintf("target %q is also a feature column", s.Target))
	}
	return nil
}
