package swiftxsv

import "strings"

// Trim strips leading and trailing whitespace from every field of a record,
// the header included. It is not scoped by a selection.
type Trim struct{}

// Header trims the header fields.
func (Trim) Header(header Record) Record { return trimFields(header) }

// Apply trims the fields of rec into a new record.
func (Trim) Apply(rec Record) Record { return trimFields(rec) }

func trimFields(rec Record) Record {
	out := make(Record, len(rec))
	for i, f := range rec {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
