package swiftxsv

import (
	"io"
	"log/slog"
	"time"
)

// Source yields records one at a time. Read returns io.EOF after the last record.
type Source interface {
	HasHeaders() bool
	Header() (Record, error)
	Read() (Record, error)
}

// Sink accepts an optional header, then records, then one Flush.
type Sink interface {
	WriteHeader(Record) error
	Write(Record) error
	Flush() error
}

// Transform maps a header and each data record to the record written out.
type Transform interface {
	Header(Record) Record
	Apply(Record) Record
}

// Mode selects how the Driver moves records from source to sink.
type Mode int

const (
	// Streaming reads, transforms, and writes one record at a time.
	Streaming Mode = iota
	// Buffered reads every record before writing anything.
	Buffered
)

func (m Mode) String() string {
	switch m {
	case Streaming:
		return "streaming"
	case Buffered:
		return "buffered"
	default:
		return "unknown"
	}
}

// Stats describes a finished run.
type Stats struct {
	// Records is the number of data records written, excluding the header.
	Records int
}

// Driver runs one pass of a Transform over a Source into a Sink.
// The zero value streams without logging.
type Driver struct {
	Mode   Mode
	Logger *slog.Logger
}

// Run streams src through t into dst with a zero Driver.
func Run(src Source, dst Sink, t Transform) (Stats, error) {
	var d Driver
	return d.Run(src, dst, t)
}

// Run copies src to dst through t. The header, when src has one, is written
// first; an empty header is not written. Every data record must have the
// width of the header (or of the first record without headers); the run
// stops at the first record that does not, with a *WidthError. The sink is
// flushed exactly once, also after a failure, so output up to the failing
// record is kept.
func (d *Driver) Run(src Source, dst Sink, t Transform) (Stats, error) {
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	started := time.Now()

	stats, err := d.copy(src, dst, t, log)
	ferr := dst.Flush()
	if err == nil {
		err = ferr
	}
	if err != nil {
		log.Debug("stream failed", "mode", d.Mode.String(), "records", stats.Records, "err", err)
		return stats, err
	}

	log.Info("stream finished",
		"mode", d.Mode.String(),
		"records", stats.Records,
		"elapsed", time.Since(started),
	)
	return stats, nil
}

func (d *Driver) copy(src Source, dst Sink, t Transform, log *slog.Logger) (Stats, error) {
	var stats Stats

	header, err := src.Header()
	if err != nil {
		return stats, err
	}
	width := len(header)
	log.Debug("stream start", "mode", d.Mode.String(), "headers", src.HasHeaders(), "width", width)

	check := func(rec Record) error {
		if width > 0 && len(rec) != width {
			return &WidthError{Want: width, Got: len(rec)}
		}
		return nil
	}

	if d.Mode == Buffered {
		var all []Record
		for {
			rec, err := src.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return stats, err
			}
			if err := check(rec); err != nil {
				return stats, err
			}
			// The source may reuse its record storage between reads.
			all = append(all, t.Apply(rec.Clone()))
		}
		log.Debug("stream buffered", "records", len(all))

		if src.HasHeaders() {
			if err := dst.WriteHeader(t.Header(header)); err != nil {
				return stats, err
			}
		}
		for _, rec := range all {
			if err := dst.Write(rec); err != nil {
				return stats, err
			}
			stats.Records++
		}
		return stats, nil
	}

	if src.HasHeaders() {
		if err := dst.WriteHeader(t.Header(header)); err != nil {
			return stats, err
		}
	}
	for {
		rec, err := src.Read()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if err := check(rec); err != nil {
			return stats, err
		}
		if err := dst.Write(t.Apply(rec)); err != nil {
			return stats, err
		}
		stats.Records++
	}
}
