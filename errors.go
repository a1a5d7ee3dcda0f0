package swiftxsv

import (
	"errors"
	"fmt"
)

var (
	// ErrBareQuote is returned when an unexpected quote is found in an unquoted field.
	ErrBareQuote = errors.New("swiftxsv: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = errors.New("swiftxsv: unterminated quoted field")
	// ErrRecordWidth is returned when a record does not have the width of the header.
	ErrRecordWidth = errors.New("swiftxsv: record width mismatch")
	// ErrUnknownColumn is returned when a selector term names no column of the header.
	ErrUnknownColumn = errors.New("swiftxsv: unknown column")
	// ErrInvalidSelector is returned for selector text that does not parse.
	ErrInvalidSelector = errors.New("swiftxsv: invalid selector")
	// ErrPattern is returned when a fill pattern does not compile.
	ErrPattern = errors.New("swiftxsv: invalid pattern")
)

// ParseError contains location information for CSV parsing errors.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("swiftxsv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Unwrap.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WidthError reports a record whose field count differs from the expected width.
type WidthError struct {
	Line int
	Want int
	Got  int
}

func (e *WidthError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("swiftxsv: record on line %d has %d fields, want %d", e.Line, e.Got, e.Want)
	}
	return fmt.Sprintf("swiftxsv: record has %d fields, want %d", e.Got, e.Want)
}

// Unwrap returns ErrRecordWidth.
func (e *WidthError) Unwrap() error { return ErrRecordWidth }

// UnknownColumnError reports the selector term that could not be resolved.
type UnknownColumnError struct {
	Requested string
	Reason    string
}

func (e *UnknownColumnError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason != "" {
		return fmt.Sprintf("swiftxsv: unknown column %q: %s", e.Requested, e.Reason)
	}
	return fmt.Sprintf("swiftxsv: unknown column %q", e.Requested)
}

// Unwrap returns ErrUnknownColumn.
func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// SelectorError reports a syntax error in selector text at a byte offset.
type SelectorError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SelectorError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("swiftxsv: invalid selector %q at offset %d: %s", e.Expr, e.Pos, e.Msg)
}

// Unwrap returns ErrInvalidSelector.
func (e *SelectorError) Unwrap() error { return ErrInvalidSelector }

// PatternError wraps the compile failure of a fill pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("swiftxsv: invalid pattern %q: %v", e.Pattern, e.Err)
}

// Is reports ErrPattern as well as the wrapped compile error.
func (e *PatternError) Is(target error) bool { return target == ErrPattern }

// Unwrap returns the regexp compile error.
func (e *PatternError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
