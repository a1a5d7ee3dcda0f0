package swiftxsv

import (
	"bytes"
	"io"
	"unsafe"
)

const defaultBufferSize = 1 << 12 // 4096 bytes

// Reader streams records from delimited input. Unless NoHeaders is set the
// first record is the header: Header returns it and Read starts after it.
type Reader struct {
	src io.Reader

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// NoHeaders treats the first record as data. Header still reports that
	// record so positional selectors can be resolved against its width.
	NoHeaders bool
	// ReuseRecord indicates whether Read should reuse the backing array of the returned record.
	ReuseRecord bool
	// FieldsPerRecord is the width every record must have. Zero captures the
	// width of the first record; a negative value disables the check.
	FieldsPerRecord int

	buf    []byte
	pos    int
	end    int
	srcErr error

	fields Record
	data   []byte
	bounds []int
	line   int
	eof    bool

	header     Record
	headerRead bool
	pending    Record
	hasPending bool
}

// NewReader creates a Reader that consumes delimited data from r, panicking if r is nil.
func NewReader(r io.Reader) *Reader {
	if r == nil {
		panic("swiftxsv: reader source cannot be nil")
	}

	return &Reader{
		src:    r,
		Comma:  ',',
		Quote:  '"',
		buf:    make([]byte, defaultBufferSize),
		fields: make(Record, 0, 16),
		data:   make([]byte, 0, 512),
		bounds: make([]int, 0, 32),
		line:   1,
	}
}

// HasHeaders reports whether the first record is a header row.
func (r *Reader) HasHeaders() bool {
	return r != nil && !r.NoHeaders
}

// Header returns the first record of the input, reading it on first use.
// Empty input yields an empty header and a nil error. With NoHeaders set the
// record is also handed out again by the next Read.
func (r *Reader) Header() (Record, error) {
	if r == nil || r.src == nil {
		return Record{}, nil
	}
	if r.headerRead {
		return r.header, nil
	}

	rec, err := r.next()
	if err == io.EOF {
		r.headerRead = true
		r.header = Record{}
		return r.header, nil
	}
	if err != nil {
		return nil, err
	}

	r.headerRead = true
	r.header = rec.Clone()
	if r.NoHeaders {
		r.pending = r.header
		r.hasPending = true
	}
	return r.header, nil
}

// Read returns the next data record; io.EOF signals that no more records remain.
// When the record width differs from FieldsPerRecord, Read returns the record
// together with a *WidthError.
func (r *Reader) Read() (Record, error) {
	if r == nil || r.src == nil {
		return nil, io.EOF
	}
	if !r.headerRead && !r.NoHeaders {
		if _, err := r.Header(); err != nil {
			return nil, err
		}
	}
	if r.hasPending {
		rec := r.pending
		r.pending = nil
		r.hasPending = false
		return rec, nil
	}
	return r.next()
}

// ReadAll exhausts the reader, collecting every data record until io.EOF,
// and returns the first non-EOF error encountered.
func (r *Reader) ReadAll() (records []Record, err error) {
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		if r.ReuseRecord {
			rec = rec.Clone()
		}
		records = append(records, rec)
	}
}

// next parses one record from the stream, skipping blank lines.
func (r *Reader) next() (Record, error) {
	if r.eof {
		return nil, io.EOF
	}

	comma := r.Comma
	if comma == 0 {
		comma = ','
	}
	quote := r.Quote
	if quote == 0 {
		quote = '"'
	}

	r.data = r.data[:0]
	r.bounds = r.bounds[:0]

	start := r.line
	column := 1
	fieldStart := 0
	quoted := false
	inQuotes := false

	for {
		if r.pos >= r.end {
			if err := r.fill(); err != nil {
				if err != io.EOF {
					return nil, err
				}
				r.eof = true
				if inQuotes {
					return nil, r.wrapError(column, ErrUnterminatedQuote)
				}
				if len(r.bounds) == 0 && len(r.data) == 0 && !quoted {
					return nil, io.EOF
				}
				// Flush a trailing field if data ended without a newline.
				r.bounds = append(r.bounds, fieldStart, len(r.data))
				return r.build(start)
			}
		}

		chunk := r.buf[r.pos:r.end]

		if inQuotes {
			i := bytes.IndexByte(chunk, quote)
			if i < 0 {
				r.appendQuoted(chunk, &column)
				r.pos = r.end
				continue
			}
			r.appendQuoted(chunk[:i], &column)
			r.pos += i + 1
			column++

			// A doubled quote inside quotes is an escaped quote.
			next, err := r.peek()
			if err == nil && next == quote {
				r.pos++
				r.data = append(r.data, quote)
				column++
				continue
			}
			if err != nil && err != io.EOF {
				return nil, err
			}
			inQuotes = false
			continue
		}

		i := indexSpecial(chunk, comma, quote)
		if i < 0 {
			r.data = append(r.data, chunk...)
			column += len(chunk)
			r.pos = r.end
			continue
		}
		r.data = append(r.data, chunk[:i]...)
		column += i
		b := chunk[i]
		r.pos += i + 1

		switch b {
		case comma:
			r.bounds = append(r.bounds, fieldStart, len(r.data))
			fieldStart = len(r.data)
			quoted = false
			column++
		case '\n', '\r':
			if b == '\r' {
				// Support CRLF by consuming a following '\n' with the '\r'.
				next, err := r.peek()
				if err == nil && next == '\n' {
					r.pos++
				} else if err != nil && err != io.EOF {
					return nil, err
				}
			}
			r.line++
			column = 1
			if len(r.bounds) == 0 && len(r.data) == 0 && !quoted {
				start = r.line
				continue
			}
			r.bounds = append(r.bounds, fieldStart, len(r.data))
			return r.build(start)
		default:
			// A quote opens a quoted field only at the start of the field.
			if len(r.data) == fieldStart && !quoted {
				inQuotes = true
				quoted = true
				column++
				continue
			}
			return nil, r.wrapError(column, ErrBareQuote)
		}
	}
}

// appendQuoted copies quoted bytes into the record buffer and keeps the line
// and column counters in step with any embedded newlines.
func (r *Reader) appendQuoted(b []byte, column *int) {
	r.data = append(r.data, b...)
	if n := bytes.Count(b, []byte{'\n'}); n > 0 {
		r.line += n
		*column = len(b) - bytes.LastIndexByte(b, '\n')
		return
	}
	*column += len(b)
}

// build maps the accumulated bounds onto the data buffer, respecting
// ReuseRecord, and enforces FieldsPerRecord.
func (r *Reader) build(line int) (Record, error) {
	n := len(r.bounds) / 2

	var s string
	if r.ReuseRecord {
		if len(r.data) > 0 {
			// Zero-copy string construction so fields share one backing buffer.
			s = unsafe.String(unsafe.SliceData(r.data), len(r.data))
		}
		if cap(r.fields) < n {
			r.fields = make(Record, n)
		}
		r.fields = r.fields[:n]
	} else {
		s = string(r.data)
		r.fields = make(Record, n)
	}

	for i := 0; i < n; i++ {
		r.fields[i] = s[r.bounds[2*i]:r.bounds[2*i+1]]
	}

	switch {
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = n
	case r.FieldsPerRecord > 0 && n != r.FieldsPerRecord:
		return r.fields, &WidthError{Line: line, Want: r.FieldsPerRecord, Got: n}
	}
	return r.fields, nil
}

// wrapError attaches the current line and supplied column to err, producing a *ParseError.
func (r *Reader) wrapError(column int, err error) error {
	return &ParseError{Line: r.line, Column: column, Err: err}
}

// fill refills the buffer from src. Errors from src are sticky.
func (r *Reader) fill() error {
	for {
		if r.srcErr != nil {
			return r.srcErr
		}
		n, err := r.src.Read(r.buf)
		r.pos, r.end = 0, n
		if err != nil {
			r.srcErr = err
		}
		if n > 0 {
			return nil
		}
	}
}

// peek returns the next buffered byte, refilling from src as needed.
func (r *Reader) peek() (byte, error) {
	if r.pos >= r.end {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	return r.buf[r.pos], nil
}

// indexSpecial returns the offset of the first delimiter, quote, or line
// terminator in b, or -1.
func indexSpecial(b []byte, comma, quote byte) int {
	for i, c := range b {
		switch c {
		case comma, quote, '\n', '\r':
			return i
		}
	}
	return -1
}
