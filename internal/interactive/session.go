// Package interactive drives single-record price predictions as an explicit
// state machine, independent of how choices are presented.
//
//	AwaitingSelection --Select (last field)--> Complete
//	Complete          --Submit-->              ResultShown
//	ResultShown       --Restart-->             AwaitingSelection (no selections)
//
// Every choice comes from a fixed option list, so a Session only ever builds
// records the pipeline has seen the shape of.
package interactive

import (
	"fmt"
	"strings"

	"github.com/paveg/appraise/internal/errors"
)

// State is the session state.
type State int

const (
	// AwaitingSelection means at least one field has no selection.
	AwaitingSelection State = iota
	// Complete means every field is selected and the record can be submitted.
	Complete
	// ResultShown means a prediction is available.
	ResultShown
)

func (s State) String() string {
	switch s {
	case AwaitingSelection:
		return "awaiting-selection"
	case Complete:
		return "complete"
	case ResultShown:
		return "result-shown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option is one choice for a field. Value is what goes into the record.
type Option struct {
	Label string
	Value string
}

// Field is one required choice. Column is the record column the selected
// option's value is written to.
type Field struct {
	Name    string
	Column  string
	Options []Option
}

func (f Field) option(label string) (Option, bool) {
	for _, o := range f.Options {
		if o.Label == label {
			return o, true
		}
	}
	return Option{}, false
}

// Labels returns the option labels in order.
func (f Field) Labels() []string {
	out := make([]string, len(f.Options))
	for i, o := range f.Options {
		out[i] = o.Label
	}
	return out
}

// PredictFunc turns a one-row record into a price.
type PredictFunc func(record map[string]string) (float64, error)

// Session holds the selections of one user. It is not safe for concurrent
// use; each transition answers one user action.
type Session struct {
	fields   []Field
	predict  PredictFunc
	selected map[string]string
	state    State
	result   float64
}

// NewSession returns a session in AwaitingSelection with nothing selected.
func NewSession(fields []Field, predict PredictFunc) (*Session, error) {
	if len(fields) == 0 {
		return nil, errors.NewConfigError("Session", "no fields to select")
	}
	if predict == nil {
		return nil, errors.NewConfigError("Session", "no predictor")
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, errors.NewConfigError("Session", fmt.Sprintf("duplicate field %q", f.Name))
		}
		if len(f.Options) == 0 {
			return nil, errors.NewConfigError("Session", fmt.Sprintf("field %q has no options", f.Name))
		}
		seen[f.Name] = true
	}
	return &Session{
		fields:   append([]Field(nil), fields...),
		predict:  predict,
		selected: make(map[string]string, len(fields)),
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Fields returns the fields in presentation order.
func (s *Session) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Selection returns the option label chosen for field.
func (s *Session) Selection(field string) (string, bool) {
	v, ok := s.selected[field]
	return v, ok
}

// Pending lists the fields still without a selection, in order.
func (s *Session) Pending() []string {
	var out []string
	for _, f := range s.fields {
		if _, ok := s.selected[f.Name]; !ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Select records option for field. Changing an earlier choice is allowed
// until the record is submitted. Selecting the last missing field moves the
// session to Complete.
func (s *Session) Select(field, option string) error {
	if s.state == ResultShown {
		return s.invalid("Select", "restart before selecting again")
	}
	f, ok := s.field(field)
	if !ok {
		return errors.NewValidationError("Select", field, "unknown field")
	}
	if _, ok := f.option(option); !ok {
		return errors.NewValidationError("Select", field,
			fmt.Sprintf("%q is not one of [%s]", option, strings.Join(f.Labels(), ", ")))
	}
	s.selected[field] = option
	if len(s.selected) == len(s.fields) {
		s.state = Complete
	}
	return nil
}

// Record returns the record built from the current selections.
func (s *Session) Record() map[string]string {
	rec := make(map[string]string, len(s.selected))
	for _, f := range s.fields {
		label, ok := s.selected[f.Name]
		if !ok {
			continue
		}
		o, _ := f.option(label)
		rec[f.Column] = o.Value
	}
	return rec
}

// Submit predicts the price of the selected record and moves to
// ResultShown. On failure the session stays Complete.
func (s *Session) Submit() (float64, error) {
	if s.state != Complete {
		return 0, s.invalid("Submit", "every field must be selected first")
	}
	price, err := s.predict(s.Record())
	if err != nil {
		return 0, fmt.Errorf("predicting price: %w", err)
	}
	s.result = price
	s.state = ResultShown
	return price, nil
}

// Result returns the last prediction while in ResultShown.
func (s *Session) Result() (float64, bool) {
	if s.state != ResultShown {
		return 0, false
	}
	return s.result, true
}

// Restart clears every selection and returns to AwaitingSelection.
func (s *Session) Restart() error {
	if s.state != ResultShown {
		return s.invalid("Restart", "no result to restart from")
	}
	s.selected = make(map[string]string, len(s.fields))
	s.result = 0
	s.state = AwaitingSelection
	return nil
}

func (s *Session) field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Session) invalid(op, msg string) error {
	return errors.NewValidationError(op, "", fmt.Sprintf("invalid in state %s: %s", s.state, msg))
}
