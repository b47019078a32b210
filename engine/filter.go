package engine

import (
	"strings"

	"github.com/ftahirops/ptop/fields"
)

// FilterOp is the comparison a predicate applies.
type FilterOp byte

const (
	OpContains FilterOp = '='
	OpEquals   FilterOp = 'e' // written "=="
	OpLess     FilterOp = '<'
	OpGreater  FilterOp = '>'
)

// FilterPredicate is one parsed "[!]FIELD op value" clause. Values are
// compared against the field's rendered, space-trimmed text, so < and >
// order lexically.
type FilterPredicate struct {
	Field      fields.ID
	Op         FilterOp
	Value      string
	Exclude    bool
	IgnoreCase bool
	Raw        string
}

// ParsePredicate parses raw. Field names match headers ignoring case.
func ParsePredicate(raw string, ignoreCase bool) (FilterPredicate, error) {
	p := FilterPredicate{Raw: raw, IgnoreCase: ignoreCase}
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "!") {
		p.Exclude = true
		s = s[1:]
	}
	at := strings.IndexAny(s, "=<>")
	if at <= 0 {
		return p, inputErrorf("filter %q: want FIELD=value, FIELD<value or FIELD>value", raw)
	}
	name := strings.TrimSpace(s[:at])
	id, ok := fields.ByName(name)
	if !ok {
		return p, inputErrorf("filter %q: unknown field %q", raw, name)
	}
	p.Field = id
	p.Op = FilterOp(s[at])
	rest := s[at+1:]
	if p.Op == OpContains && strings.HasPrefix(rest, "=") {
		p.Op = OpEquals
		rest = rest[1:]
	}
	if rest == "" {
		return p, inputErrorf("filter %q: missing value", raw)
	}
	p.Value = rest
	if ignoreCase {
		p.Value = strings.ToLower(rest)
	}
	return p, nil
}

// Match applies the predicate to a field's rendered text.
func (p *FilterPredicate) Match(text string) bool {
	s := strings.TrimSpace(text)
	if p.IgnoreCase {
		s = strings.ToLower(s)
	}
	var ok bool
	switch p.Op {
	case OpContains:
		ok = strings.Contains(s, p.Value)
	case OpEquals:
		ok = s == p.Value
	case OpLess:
		ok = s < p.Value
	case OpGreater:
		ok = s > p.Value
	}
	return ok != p.Exclude
}

// FilterSet is a window's list of predicates, all of which must hold.
type FilterSet struct {
	preds []FilterPredicate
}

// Add parses raw and appends it. An unparsable or duplicate clause is
// rejected and the set is left unchanged.
func (f *FilterSet) Add(raw string, ignoreCase bool) error {
	for i := range f.preds {
		if f.preds[i].Raw == raw {
			return inputErrorf("duplicate filter %q", raw)
		}
	}
	p, err := ParsePredicate(raw, ignoreCase)
	if err != nil {
		return err
	}
	f.preds = append(f.preds, p)
	return nil
}

// Clear drops every predicate.
func (f *FilterSet) Clear() { f.preds = f.preds[:0] }

// Len returns the number of predicates.
func (f *FilterSet) Len() int { return len(f.preds) }

// Predicates returns the active predicates in insertion order.
func (f *FilterSet) Predicates() []FilterPredicate { return f.preds }

// Matches reports whether every predicate holds. text renders a field
// of the row under test.
func (f *FilterSet) Matches(text func(fields.ID) string) bool {
	for i := range f.preds {
		if !f.preds[i].Match(text(f.preds[i].Field)) {
			return false
		}
	}
	return true
}
