// Package mapping holds the ordered old-to-new identifier table that drives
// renaming and reference rewriting.
package mapping

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
)

// Pair is one old→new entry.
type Pair struct {
	Old string `json:"old" yaml:"old" toml:"old" mapstructure:"old"`
	New string `json:"new" yaml:"new" toml:"new" mapstructure:"new"`
}

func (p Pair) String() string { return p.Old + " -> " + p.New }

// Mapping is an immutable, ordered set of pairs with unique keys.
type Mapping struct {
	pairs []Pair
	index map[string]int
}

// Issue records an input entry the builder dropped.
type Issue struct {
	Index  int    `json:"index"`
	Old    string `json:"old"`
	New    string `json:"new"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("entry %d (%q -> %q): %s", i.Index, i.Old, i.New, i.Reason)
}

// Reasons reported in Issue.Reason.
const (
	ReasonEmptyOld  = "empty old identifier"
	ReasonEmptyNew  = "empty new identifier"
	ReasonIdentity  = "old and new identifiers are equal"
	ReasonDuplicate = "duplicate old identifier"
)

// Build validates pairs and returns the mapping plus one Issue per dropped
// entry. Malformed entries never abort the build. Identifiers are kept
// verbatim: they are substitution strings first, and only the renamer
// treats them as paths under the root. On duplicate keys the first
// occurrence wins.
func Build(pairs []Pair) (*Mapping, []Issue) {
	m := &Mapping{index: make(map[string]int, len(pairs))}
	var issues []Issue

	for i, p := range pairs {
		issue := func(reason string) {
			issues = append(issues, Issue{Index: i, Old: p.Old, New: p.New, Reason: reason})
		}

		switch {
		case strings.TrimSpace(p.Old) == "":
			issue(ReasonEmptyOld)
			continue
		case strings.TrimSpace(p.New) == "":
			issue(ReasonEmptyNew)
			continue
		case p.Old == p.New:
			issue(ReasonIdentity)
			continue
		}
		if _, dup := m.index[p.Old]; dup {
			issue(ReasonDuplicate)
			continue
		}

		m.index[p.Old] = len(m.pairs)
		m.pairs = append(m.pairs, p)
	}

	return m, issues
}

// MustBuild is Build for fixed tables; it panics on any issue.
func MustBuild(pairs ...Pair) *Mapping {
	m, issues := Build(pairs)
	if len(issues) > 0 {
		panic("mapping: " + issues[0].String())
	}
	return m
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Pairs returns a copy of the entries in input order.
func (m *Mapping) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return append([]Pair(nil), m.pairs...)
}

// Lookup returns the new identifier for old.
func (m *Mapping) Lookup(old string) (string, bool) {
	if m == nil {
		return "", false
	}
	i, ok := m.index[old]
	if !ok {
		return "", false
	}
	return m.pairs[i].New, true
}

// Ordered returns a copy of the entries arranged by order.
func (m *Mapping) Ordered(order Order) []Pair {
	out := m.Pairs()
	if order == OrderLongestFirst || order == "" {
		SortLongestFirst(out)
	}
	return out
}

// SortLongestFirst sorts pairs by descending key length in characters.
// Ties keep their relative order.
func SortLongestFirst(pairs []Pair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return utf8.RuneCountInString(pairs[i].Old) > utf8.RuneCountInString(pairs[j].Old)
	})
}

// SortedByOld returns a copy sorted lexically by old identifier.
func (m *Mapping) SortedByOld() []Pair {
	out := m.Pairs()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Old < out[j].Old })
	return out
}

// Order is the substitution order policy.
type Order string

const (
	// OrderLongestFirst substitutes longer old identifiers before shorter
	// ones, so "index.css.map" is handled before "index.css".
	OrderLongestFirst Order = "longest-first"
	// OrderAsGiven keeps the input order.
	OrderAsGiven Order = "as-given"
)

var _ pflag.Value = (*Order)(nil)

// ParseOrder validates an order name.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderLongestFirst, nil
	case OrderLongestFirst, OrderAsGiven:
		return o, nil
	default:
		return "", fmt.Errorf("unknown order %q (want %s or %s)", s, OrderLongestFirst, OrderAsGiven)
	}
}

func (o *Order) String() string { return string(*o) }

func (o *Order) Set(s string) error {
	parsed, err := ParseOrder(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func (o *Order) Type() string { return "order" }
