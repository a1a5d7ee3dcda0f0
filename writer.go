package swiftxsv

import (
	"bufio"
	"errors"
	"io"
)

var (
	errNilWriter      = errors.New("swiftxsv: writer is nil")
	errWriterNoTarget = errors.New("swiftxsv: writer destination cannot be nil")
)

// Writer emits delimited records through an internal buffer. The first error
// it meets is sticky and returned by every later call.
type Writer struct {
	dst *bufio.Writer

	// Comma is the field delimiter. Default is ','.
	Comma byte
	// Quote is the quote character. Default is '"'.
	Quote byte
	// UseCRLF writes records terminated with \r\n when set.
	UseCRLF bool
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool

	err error
}

// NewWriter creates a new Writer with internal buffering tuned for bulk writes.
func NewWriter(w io.Writer) *Writer {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &Writer{
		dst:   bufio.NewWriterSize(w, defaultBufferSize),
		Comma: ',',
		Quote: '"',
	}
}

// Reset updates the underlying writer while preserving the configuration flags.
func (w *Writer) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// WriteHeader writes header as the first line. An empty header is skipped
// so no blank line reaches the output.
func (w *Writer) WriteHeader(header Record) error {
	if len(header) == 0 {
		if w == nil {
			return errNilWriter
		}
		return w.err
	}
	return w.Write(header)
}

// Write emits a single record terminated with the configured newline sequence.
func (w *Writer) Write(record Record) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	comma := w.Comma
	if comma == 0 {
		comma = ','
	}
	quote := w.Quote
	if quote == 0 {
		quote = '"'
	}

	// A lone empty field is quoted, otherwise it reads back as a blank line.
	if len(record) == 1 && record[0] == "" {
		return w.fail(w.writeLine([]byte{quote, quote}))
	}

	for i := range record {
		if i > 0 {
			if err := w.dst.WriteByte(comma); err != nil {
				return w.fail(err)
			}
		}
		if err := w.writeField(record[i], comma, quote); err != nil {
			return w.fail(err)
		}
	}
	return w.fail(w.writeLine(nil))
}

// WriteAll writes multiple records, stopping at the first error.
func (w *Writer) WriteAll(records []Record) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	return w.fail(w.dst.Flush())
}

// Error reports the first error encountered by the writer.
func (w *Writer) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *Writer) fail(err error) error {
	if err != nil && w.err == nil {
		w.err = err
	}
	return err
}

func (w *Writer) writeLine(prefix []byte) error {
	if len(prefix) > 0 {
		if _, err := w.dst.Write(prefix); err != nil {
			return err
		}
	}
	if w.UseCRLF {
		_, err := w.dst.WriteString("\r\n")
		return err
	}
	return w.dst.WriteByte('\n')
}

func (w *Writer) writeField(field string, comma, quote byte) error {
	if !w.AlwaysQuote && !fieldNeedsQuote(field, comma, quote) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte(quote); err != nil {
		return err
	}

	start := 0
	for i := 0; i < len(field); i++ {
		if field[i] != quote {
			continue
		}
		// Write through the quote itself, then double it.
		if _, err := w.dst.WriteString(field[start : i+1]); err != nil {
			return err
		}
		if err := w.dst.WriteByte(quote); err != nil {
			return err
		}
		start = i + 1
	}
	if _, err := w.dst.WriteString(field[start:]); err != nil {
		return err
	}
	return w.dst.WriteByte(quote)
}

func fieldNeedsQuote(field string, comma, quote byte) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case quote, comma, '\n', '\r':
			return true
		}
	}
	return false
}
