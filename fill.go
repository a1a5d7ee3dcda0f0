package swiftxsv

// Fill replaces the selected fields of matching records with the value of
// another column.
//
// A record matches when any field in Match satisfies Pattern (negated by
// Invert). In a matching record every field in Match is replaced by the
// first field of Replace, or by "" when Replace selects nothing. Fields
// outside Match are never touched. Headers pass through unchanged.
type Fill struct {
	Pattern Matcher
	Match   *Selection
	Replace *Selection
	Invert  bool
}

// Header returns header unchanged.
func (f *Fill) Header(header Record) Record { return header }

// Matches reports whether rec qualifies for replacement.
func (f *Fill) Matches(rec Record) bool {
	matched := false
	for field := range f.Match.Select(rec) {
		if f.Pattern.MatchString(field) {
			matched = true
			break
		}
	}
	return matched != f.Invert
}

// Apply returns a new record with the fill applied; rec is not modified.
func (f *Fill) Apply(rec Record) Record {
	out := make(Record, len(rec))
	if !f.Matches(rec) {
		copy(out, rec)
		return out
	}

	// Only the first replacement column is used.
	value, _ := f.Replace.First(rec)
	for i, field := range rec {
		if f.Match.Contains(i) {
			out[i] = value
		} else {
			out[i] = field
		}
	}
	return out
}
