// Package profile declares the built-in dataset profiles: the columns each
// catalogue needs, how they are cleaned and encoded, and the default
// hyperparameter grids searched for each estimator family.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveg/appraise/internal/clean"
	"github.com/paveg/appraise/internal/encode"
	"github.com/paveg/appraise/internal/errors"
	"github.com/paveg/appraise/internal/selection"
)

// FamilySearch is the search plan for one estimator family.
type FamilySearch struct {
	// Family is a registry name such as "random_forest".
	Family string `json:"family" yaml:"family"`
	// Label is the ensemble member name shown in reports.
	Label string         `json:"label" yaml:"label"`
	Grid  selection.Grid `json:"grid" yaml:"grid"`
	NIter int            `json:"n_iter" yaml:"n_iter"`
}

// Profile describes one catalogue.
type Profile struct {
	Name      string
	Title     string
	Schema    clean.Schema
	Features  encode.Spec
	Encodings []string
	Searches  []FamilySearch
}

// Search returns the plan for family.
func (p Profile) Search(family string) (FamilySearch, bool) {
	for _, s := range p.Searches {
		if s.Family == family {
			return s, true
		}
	}
	return FamilySearch{}, false
}

// WithGrid returns a copy of p whose search for family uses grid.
func (p Profile) WithGrid(family string, grid selection.Grid) (Profile, error) {
	out := p
	out.Searches = append([]FamilySearch(nil), p.Searches...)
	for i := range out.Searches {
		if out.Searches[i].Family == family {
			out.Searches[i].Grid = grid
			return out, nil
		}
	}
	return Profile{}, errors.NewConfigError("Profile", fmt.Sprintf("profile %q has no %q search", p.Name, family))
}

// Validate checks that the pieces of the profile agree with each other.
func (p Profile) Validate() error {
	if err := p.Schema.Validate(); err != nil {
		return err
	}
	if err := p.Features.Validate(); err != nil {
		return err
	}
	for _, col := range p.Features.Columns() {
		if _, ok := p.Schema.Column(col); !ok {
			return errors.NewConfigError("Profile", fmt.Sprintf("feature %q is not produced by the cleaning schema", col))
		}
	}
	if p.Features.Target != p.Schema.Target {
		return errors.NewConfigError("Profile", "feature target and schema target differ")
	}
	if len(p.Searches) == 0 {
		return errors.NewConfigError("Profile", "no estimator searches declared")
	}
	for _, s := range p.Searches {
		if err := s.Grid.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var builtin = map[string]Profile{}

func register(p Profile) {
	builtin[p.Name] = p
}

// Get returns a copy of the named built-in profile.
func Get(name string) (Profile, error) {
	p, ok := builtin[name]
	if !ok {
		return Profile{}, errors.NewConfigError("Profile",
			fmt.Sprintf("unknown profile %q (known: %s)", name, strings.Join(Names(), ", ")))
	}
	p.Searches = append([]FamilySearch(nil), p.Searches...)
	return p, nil
}

// Names lists built-in profiles in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
