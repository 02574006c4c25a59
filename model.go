package appraise

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/appraise/internal/clean"
	"github.com/paveg/appraise/internal/dataframe"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/ensemble"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/interactive"
	"github.com/paveg/appraise/internal/profile"
	"gonum.org/v1/gonum/stat"
)

// Quantiles behind the Low, Medium and High choices of numeric fields.
//
//nolint:gochecknoglobals // fixed choice set
var numericChoices = []struct {
	label string
	p     float64
}{
	{"Low", 1.0 / 6},
	{"Medium", 1.0 / 2},
	{"High", 5.0 / 6},
}

// Model is a trained ensemble together with the cleaning rules and feature
// layout it was trained with.
type Model struct {
	profile  profile.Profile
	cleaner  *clean.Cleaner
	encoder  *encode.Encoder
	ensemble *ensemble.Voting
	report   *Report
	// numeric holds the representative raw values per numeric column.
	numeric map[string][]interactive.Option
	mem     memory.Allocator
}

// Title is the display title of the model's profile.
func (m *Model) Title() string {
	return m.profile.Title
}

// Report returns the training report.
func (m *Model) Report() Report {
	return *m.report
}

// Columns lists the raw input columns Predict reads.
func (m *Model) Columns() []string {
	return m.cleaner.Schema().Required(clean.Prediction)
}

// Predict estimates the price of one raw record keyed by source column.
// Absent or empty values are imputed the same way training data is.
func (m *Model) Predict(record map[string]string) (float64, error) {
	df, err := dataframe.FromRecords(m.Columns(), []map[string]string{record}, m.mem)
	if err != nil {
		return 0, err
	}
	defer df.Release()

	cleaned, err := m.cleaner.Clean(df, clean.Prediction)
	if err != nil {
		return 0, fmt.Errorf("cleaning record: %w", err)
	}
	defer cleaned.Release()

	X, err := m.encoder.Transform(cleaned)
	if err != nil {
		return 0, fmt.Errorf("encoding record: %w", err)
	}
	return m.ensemble.PredictOne(X.RawRowView(0))
}

// NewSession starts an interactive session offering one field per feature.
// Categorical fields list the training levels, numeric fields offer Low,
// Medium and High.
func (m *Model) NewSession() (*interactive.Session, error) {
	schema := m.cleaner.Schema()
	features := m.encoder.Spec()

	var fields []interactive.Field
	for _, col := range schema.Columns {
		switch {
		case contains(features.Categorical, col.Name()):
			options, err := levelOptions(col, m.encoder.Levels(col.Name()))
			if err != nil {
				return nil, err
			}
			fields = append(fields, interactive.Field{Name: col.Name(), Column: col.Source, Options: options})
		case contains(features.Numerical, col.Name()):
			fields = append(fields, interactive.Field{Name: col.Name(), Column: col.Source, Options: m.numeric[col.Name()]})
		}
	}
	return interactive.NewSession(fields, m.Predict)
}

// levelOptions maps every training level of col to a raw value that the
// cleaning rules turn back into that level.
func levelOptions(col clean.Column, levels []string) ([]interactive.Option, error) {
	options := make([]interactive.Option, 0, len(levels))
	for _, level := range levels {
		raw, ok := rawValue(col, level)
		if !ok {
			return nil, errors.NewInternalError("NewSession",
				fmt.Errorf("no raw value of %s maps to level %q", col.Source, level))
		}
		options = append(options, interactive.Option{Label: level, Value: raw})
	}
	return options, nil
}

func rawValue(col clean.Column, level string) (string, bool) {
	switch col.Kind {
	case clean.Label:
		candidates := []string{level}
		for _, r := range col.Labels.Rules {
			if r.Label == level {
				candidates = append([]string{r.Substring}, candidates...)
			}
		}
		for _, c := range candidates {
			if col.Labels.Normalize(c) == level {
				return c, true
			}
		}
	case clean.Binned:
		var candidates []float64
		for _, b := range col.Bins.Bins {
			candidates = append(candidates, b.Max, b.Min)
		}
		if n := len(col.Bins.Bins); n > 0 {
			candidates = append(candidates, col.Bins.Bins[n-1].Max+1)
		}
		for _, v := range candidates {
			if col.Bins.Label(v) == level {
				return strconv.FormatFloat(v, 'f', -1, 64), true
			}
		}
	default:
		return level, true
	}
	return "", false
}

// numericOptions computes the Low, Medium and High values of every numeric
// feature from the cleaned training table.
func numericOptions(cleaned *dataframe.DataFrame, prof profile.Profile) (map[string][]interactive.Option, error) {
	out := make(map[string][]interactive.Option, len(prof.Features.Numerical))
	for _, name := range prof.Features.Numerical {
		col, ok := cleaned.Column(name)
		if !ok {
			return nil, errors.NewColumnNotFoundError("NewSession", name)
		}
		values, err := floatValues(col)
		if err != nil {
			return nil, err
		}
		sort.Float64s(values)

		options := make([]interactive.Option, len(numericChoices))
		for i, c := range numericChoices {
			q := stat.Quantile(c.p, stat.Empirical, values, nil)
			options[i] = interactive.Option{Label: c.label, Value: strconv.FormatFloat(q, 'f', -1, 64)}
		}
		out[name] = options
	}
	return out, nil
}

func floatValues(col dataframe.ISeries) ([]float64, error) {
	if col.DataType().ID() != arrow.FLOAT64 || col.NullN() > 0 || col.Len() == 0 {
		return nil, errors.NewValidationError("NewSession", col.Name(), "expected a cleaned numeric column")
	}
	arr := col.Array()
	defer arr.Release()
	return append([]float64(nil), arr.(*array.Float64).Float64Values()...), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
