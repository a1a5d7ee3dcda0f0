package swiftxsv_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oleg578/swiftxsv"
)

type memSource struct {
	headers bool
	header  swiftxsv.Record
	records []swiftxsv.Record
	err     error
	pos     int
}

func (m *memSource) HasHeaders() bool { return m.headers }

func (m *memSource) Header() (swiftxsv.Record, error) { return m.header, nil }

func (m *memSource) Read() (swiftxsv.Record, error) {
	if m.pos < len(m.records) {
		rec := m.records[m.pos]
		m.pos++
		return rec, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, io.EOF
}

type recordingSink struct {
	header  swiftxsv.Record
	headers int
	records []swiftxsv.Record
	flushes int
	failAt  int
	err     error
}

func (s *recordingSink) WriteHeader(h swiftxsv.Record) error {
	if len(h) == 0 {
		return nil
	}
	s.headers++
	s.header = h
	return nil
}

func (s *recordingSink) Write(rec swiftxsv.Record) error {
	if s.err != nil && len(s.records) == s.failAt {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Flush() error {
	s.flushes++
	return nil
}

func runCSV(t *testing.T, d *swiftxsv.Driver, input string, noHeaders bool, bind func(swiftxsv.Record, bool) swiftxsv.Transform) (string, swiftxsv.Stats, error) {
	t.Helper()
	rdr := swiftxsv.NewReader(strings.NewReader(input))
	rdr.NoHeaders = noHeaders
	header, err := rdr.Header()
	require.NoError(t, err)

	var out bytes.Buffer
	stats, err := d.Run(rdr, swiftxsv.NewWriter(&out), bind(header, rdr.HasHeaders()))
	return out.String(), stats, err
}

func fillBinder(t *testing.T, match, pattern, replace string, invert bool) func(swiftxsv.Record, bool) swiftxsv.Transform {
	return func(header swiftxsv.Record, hasHeaders bool) swiftxsv.Transform {
		m, err := swiftxsv.Resolve(match, header, hasHeaders)
		require.NoError(t, err)
		r, err := swiftxsv.Resolve(replace, header, hasHeaders)
		require.NoError(t, err)
		re, err := swiftxsv.CompilePattern(pattern, false)
		require.NoError(t, err)
		return &swiftxsv.Fill{Pattern: re, Match: m, Replace: r, Invert: invert}
	}
}

func trimBinder(swiftxsv.Record, bool) swiftxsv.Transform { return swiftxsv.Trim{} }

func TestDriverFill(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input     string
		noHeaders bool
		match     string
		replace   string
		invert    bool
		want      string
		records   int
	}{
		"scenario": {
			input: "A,B\n,x\n", match: "A", replace: "B",
			want: "A,B\nx,x\n", records: 1,
		},
		"scenarioInverted": {
			input: "A,B\n,x\n", match: "A", replace: "B", invert: true,
			want: "A,B\n,x\n", records: 1,
		},
		"headerNotFilled": {
			input: ",B\n,x\ny,z\n", match: "1", replace: "2",
			want: ",B\nx,x\ny,z\n", records: 2,
		},
		"noHeaders": {
			input: ",x\ny,z\n", noHeaders: true, match: "1", replace: "2",
			want: "x,x\ny,z\n", records: 2,
		},
		"quotingPreserved": {
			input: "A,B\n,\"x,y\"\n\"q\"\"\",\n", match: "A", replace: "B",
			want: "A,B\n\"x,y\",\"x,y\"\n\"q\"\"\",\n", records: 2,
		},
		"headerOnly": {
			input: "A,B\n", match: "A", replace: "B",
			want: "A,B\n", records: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, stats, err := runCSV(t, &swiftxsv.Driver{}, tt.input, tt.noHeaders,
				fillBinder(t, tt.match, "^$", tt.replace, tt.invert))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.records, stats.Records)
		})
	}
}

func TestDriverTrim(t *testing.T) {
	t.Parallel()

	const input = " A , B \n 1 ,2\n\t3,  4  \n"
	const want = "A,B\n1,2\n3,4\n"

	for _, mode := range []swiftxsv.Mode{swiftxsv.Streaming, swiftxsv.Buffered} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			got, stats, err := runCSV(t, &swiftxsv.Driver{Mode: mode}, input, false, trimBinder)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, 2, stats.Records)
		})
	}

	t.Run("noHeaders", func(t *testing.T) {
		t.Parallel()
		got, _, err := runCSV(t, &swiftxsv.Driver{}, input, true, trimBinder)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("emptyInput", func(t *testing.T) {
		t.Parallel()
		got, stats, err := runCSV(t, &swiftxsv.Driver{}, "", false, trimBinder)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, stats.Records)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()
		once, _, err := runCSV(t, &swiftxsv.Driver{}, input, false, trimBinder)
		require.NoError(t, err)
		twice, _, err := runCSV(t, &swiftxsv.Driver{}, once, false, trimBinder)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}

func TestDriverEmptyHeaderSuppressed(t *testing.T) {
	t.Parallel()

	src := &memSource{
		headers: true,
		header:  swiftxsv.Record{},
		records: []swiftxsv.Record{{" a "}, {"b "}},
	}
	var out bytes.Buffer
	stats, err := swiftxsv.Run(src, swiftxsv.NewWriter(&out), swiftxsv.Trim{})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out.String())
	assert.Equal(t, 2, stats.Records)
}

func TestDriverOrdering(t *testing.T) {
	t.Parallel()

	const n = 500
	var in []swiftxsv.Record
	for i := range n {
		in = append(in, swiftxsv.Record{fmt.Sprintf(" %d ", i), ""})
	}

	for _, mode := range []swiftxsv.Mode{swiftxsv.Streaming, swiftxsv.Buffered} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()
			src := &memSource{headers: true, header: swiftxsv.Record{"n", "v"}, records: in}
			sink := &recordingSink{}
			d := &swiftxsv.Driver{Mode: mode}
			stats, err := d.Run(src, sink, swiftxsv.Trim{})
			require.NoError(t, err)

			require.Len(t, sink.records, n)
			assert.Equal(t, n, stats.Records)
			for i, rec := range sink.records {
				assert.Equal(t, fmt.Sprint(i), rec[0], spew.Sdump(rec))
			}
			assert.Equal(t, 1, sink.headers)
			assert.Equal(t, 1, sink.flushes)
		})
	}
}

func TestDriverWidthMismatch(t *testing.T) {
	t.Parallel()

	t.Run("reader", func(t *testing.T) {
		t.Parallel()
		got, stats, err := runCSV(t, &swiftxsv.Driver{}, "A,B\n1,2\n3\n4,5\n", false, trimBinder)
		require.ErrorIs(t, err, swiftxsv.ErrRecordWidth)
		// Output up to the failing record is flushed.
		assert.Equal(t, "A,B\n1,2\n", got)
		assert.Equal(t, 1, stats.Records)
	})

	for _, mode := range []swiftxsv.Mode{swiftxsv.Streaming, swiftxsv.Buffered} {
		t.Run("source/"+mode.String(), func(t *testing.T) {
			t.Parallel()
			src := &memSource{
				headers: true,
				header:  swiftxsv.Record{"A", "B"},
				records: []swiftxsv.Record{{"1", "2"}, {"3", "4", "5"}, {"6", "7"}},
			}
			sink := &recordingSink{}
			d := &swiftxsv.Driver{Mode: mode}
			_, err := d.Run(src, sink, swiftxsv.Trim{})

			var werr *swiftxsv.WidthError
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, 2, werr.Want)
			assert.Equal(t, 3, werr.Got)
			assert.Equal(t, 1, sink.flushes)
			assert.LessOrEqual(t, len(sink.records), 1)
		})
	}
}

func TestDriverErrors(t *testing.T) {
	t.Parallel()

	t.Run("sourceError", func(t *testing.T) {
		t.Parallel()
		exp := errors.New("read failed")
		src := &memSource{headers: true, header: swiftxsv.Record{"A"}, records: []swiftxsv.Record{{"a"}}, err: exp}
		sink := &recordingSink{}
		stats, err := swiftxsv.Run(src, sink, swiftxsv.Trim{})
		assert.ErrorIs(t, err, exp)
		assert.Equal(t, 1, stats.Records)
		assert.Equal(t, 1, sink.flushes)
	})

	t.Run("sinkError", func(t *testing.T) {
		t.Parallel()
		exp := errors.New("write failed")
		src := &memSource{headers: false, header: swiftxsv.Record{"a"}, records: []swiftxsv.Record{{"a"}, {"b"}, {"c"}}}
		sink := &recordingSink{err: exp, failAt: 1}
		stats, err := swiftxsv.Run(src, sink, swiftxsv.Trim{})
		assert.ErrorIs(t, err, exp)
		assert.Equal(t, 1, stats.Records)
		assert.Equal(t, 1, sink.flushes)
		assert.Zero(t, sink.headers)
	})

	t.Run("parseError", func(t *testing.T) {
		t.Parallel()
		_, _, err := runCSV(t, &swiftxsv.Driver{}, "A\n\"open\n", false, trimBinder)
		assert.ErrorIs(t, err, swiftxsv.ErrUnterminatedQuote)
	})
}

func TestDriverLogging(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := &swiftxsv.Driver{Mode: swiftxsv.Buffered, Logger: logger}

	_, _, err := runCSV(t, d, "A\n1\n2\n", false, trimBinder)
	require.NoError(t, err)

	var finished map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		if ev["msg"] == "stream finished" {
			finished = ev
		}
	}
	require.NotNil(t, finished, logs.String())
	assert.Equal(t, "buffered", finished["mode"])
	assert.EqualValues(t, 2, finished["records"])
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "streaming", swiftxsv.Streaming.String())
	assert.Equal(t, "buffered", swiftxsv.Buffered.String())
	assert.Equal(t, "unknown", swiftxsv.Mode(7).String())
}
