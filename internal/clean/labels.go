package clean

import "strings"

// Rule maps any input containing Substring to Label.
type Rule struct {
	Substring string `json:"substring" yaml:"substring"`
	Label     string `json:"label" yaml:"label"`
}

// LabelMap collapses free text into a closed label set. Rules are tried in
// order and the first whose substring occurs in the input wins; anything
// else maps to Default. The same value must be used at training and
// prediction time.
type LabelMap struct {
	Rules   []Rule `json:"rules" yaml:"rules"`
	Default string `json:"default" yaml:"default"`
}

// DefaultLabel is the catch-all label used when a LabelMap leaves Default empty.
const DefaultLabel = "Other"

// Normalize returns the canonical label for s.
func (m LabelMap) Normalize(s string) string {
	for _, r := range m.Rules {
		if strings.Contains(s, r.Substring) {
			return r.Label
		}
	}
	return m.fallback()
}

// Labels lists the closed output set: rule labels in rule order, then the default.
func (m LabelMap) Labels() []string {
	seen := make(map[string]bool, len(m.Rules)+1)
	out := make([]string, 0, len(m.Rules)+1)
	for _, r := range m.Rules {
		if !seen[r.Label] {
			seen[r.Label] = true
			out = append(out, r.Label)
		}
	}
	if d := m.fallback(); !seen[d] {
		out = append(out, d)
	}
	return out
}

func (m LabelMap) fallback() string {
	if m.Default == "" {
		return DefaultLabel
	}
	return m.Default
}

// Bin is a half-open numeric range (Min, Max], closed on the left when
// IncludeMin is set.
type Bin struct {
	Label      string  `json:"label" yaml:"label"`
	Min        float64 `json:"min" yaml:"min"`
	Max        float64 `json:"max" yaml:"max"`
	IncludeMin bool    `json:"include_min" yaml:"include_min"`
}

// Contains reports whether v falls in the bin.
func (b Bin) Contains(v float64) bool {
	if b.IncludeMin {
		return v >= b.Min && v <= b.Max
	}
	return v > b.Min && v <= b.Max
}

// Binning assigns a label to a number by the first matching bin; values
// outside every bin get Overflow.
type Binning struct {
	Bins     []Bin  `json:"bins" yaml:"bins"`
	Overflow string `json:"overflow" yaml:"overflow"`
}

// Label returns the bin label for v.
func (b Binning) Label(v float64) string {
	for _, bin := range b.Bins {
		if bin.Contains(v) {
			return bin.Label
		}
	}
	return b.Overflow
}

// Labels lists every label the binning can produce, overflow last.
func (b Binning) Labels() []string {
	out := make([]string, 0, len(b.Bins)+1)
	for _, bin := range b.Bins {
		out = append(out, bin.Label)
	}
	if b.Overflow != "" {
		out = append(out, b.Overflow)
	}
	return out
}
