package swiftxsv

// Record is one row of delimited data as an ordered list of fields.
type Record []string

// Clone returns a copy of rec that does not share field storage with it,
// which matters when rec came from a Reader with ReuseRecord set.
func (rec Record) Clone() Record {
	if rec == nil {
		return nil
	}
	out := make(Record, len(rec))
	for i, f := range rec {
		out[i] = string([]byte(f))
	}
	return out
}

// Equal reports whether rec and other hold the same fields in the same order.
func (rec Record) Equal(other Record) bool {
	if len(rec) != len(other) {
		return false
	}
	for i := range rec {
		if rec[i] != other[i] {
			return false
		}
	}
	return true
}
