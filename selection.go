package swiftxsv

import (
	"fmt"
	"iter"
	"slices"
)

// Selection is a selector bound to a header: an ordered list of 0-based
// column indices, possibly repeating, with constant-time membership.
// A Selection is read-only and safe to share.
type Selection struct {
	indices []int
	member  []bool
}

// Resolve parses text and resolves it against header in one step.
func Resolve(text string, header Record, hasHeaders bool) (*Selection, error) {
	sel, err := ParseSelector(text)
	if err != nil {
		return nil, err
	}
	return sel.Resolve(header, hasHeaders)
}

// Resolve binds s to header. When hasHeaders is false the header only
// supplies the record width: positions resolve, names do not.
func (s *Selector) Resolve(header Record, hasHeaders bool) (*Selection, error) {
	width := len(header)
	var indices []int

	for _, t := range s.Terms {
		switch t := t.(type) {
		case *RangeTerm:
			lo, hi := 0, width-1
			if t.Start != nil {
				i, err := resolveBound(t.Start, header, hasHeaders)
				if err != nil {
					return nil, err
				}
				lo = i
			}
			if t.End != nil {
				i, err := resolveBound(t.End, header, hasHeaders)
				if err != nil {
					return nil, err
				}
				hi = i
			}
			if hi < 0 {
				continue
			}
			if lo <= hi {
				for i := lo; i <= hi; i++ {
					indices = append(indices, i)
				}
			} else {
				for i := lo; i >= hi; i-- {
					indices = append(indices, i)
				}
			}
		default:
			i, err := resolveBound(t, header, hasHeaders)
			if err != nil {
				return nil, err
			}
			indices = append(indices, i)
		}
	}

	if s.Exclude {
		excluded := make([]bool, width)
		for _, i := range indices {
			excluded[i] = true
		}
		indices = indices[:0]
		for i, skip := range excluded {
			if !skip {
				indices = append(indices, i)
			}
		}
	}
	return newSelection(indices, width), nil
}

func resolveBound(t Term, header Record, hasHeaders bool) (int, error) {
	switch t := t.(type) {
	case *IndexTerm:
		if t.Pos < 1 || t.Pos > len(header) {
			return 0, &UnknownColumnError{
				Requested: t.String(),
				Reason:    fmt.Sprintf("position out of range for %d columns", len(header)),
			}
		}
		return t.Pos - 1, nil
	case *NameTerm:
		if !hasHeaders {
			return 0, &UnknownColumnError{Requested: t.String(), Reason: "names need a header row"}
		}
		seen := 0
		for i, f := range header {
			if f != t.Name {
				continue
			}
			if seen == t.Nth {
				return i, nil
			}
			seen++
		}
		return 0, &UnknownColumnError{Requested: t.String()}
	default:
		return 0, &UnknownColumnError{Requested: t.String(), Reason: "ranges cannot be nested"}
	}
}

// NewSelection builds a Selection over records of the given width. Indices
// outside [0, width) are rejected with an *UnknownColumnError.
func NewSelection(indices []int, width int) (*Selection, error) {
	for _, i := range indices {
		if i < 0 || i >= width {
			return nil, &UnknownColumnError{
				Requested: fmt.Sprintf("%d", i+1),
				Reason:    fmt.Sprintf("position out of range for %d columns", width),
			}
		}
	}
	return newSelection(slices.Clone(indices), width), nil
}

func newSelection(indices []int, width int) *Selection {
	member := make([]bool, width)
	for _, i := range indices {
		member[i] = true
	}
	return &Selection{indices: indices, member: member}
}

// Len returns the number of selected indices, counting repeats.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.indices)
}

// Indices returns a copy of the selected indices in selection order.
func (s *Selection) Indices() []int {
	if s == nil {
		return nil
	}
	return slices.Clone(s.indices)
}

// Contains reports whether column i is part of the selection.
func (s *Selection) Contains(i int) bool {
	return s != nil && i >= 0 && i < len(s.member) && s.member[i]
}

// Width returns the record width the selection was resolved against.
func (s *Selection) Width() int {
	if s == nil {
		return 0
	}
	return len(s.member)
}

// Select yields the selected fields of rec in selection order. Indices past
// the end of a narrower record are skipped.
func (s *Selection) Select(rec Record) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == nil {
			return
		}
		for _, i := range s.indices {
			if i >= len(rec) {
				continue
			}
			if !yield(rec[i]) {
				return
			}
		}
	}
}

// First returns the first selected field of rec, if any.
func (s *Selection) First(rec Record) (string, bool) {
	for f := range s.Select(rec) {
		return f, true
	}
	return "", false
}
