// Command swiftxsv fills and trims fields of delimited data.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oleg578/swiftxsv"
	"github.com/oleg578/swiftxsv/internal/config"
	"github.com/oleg578/swiftxsv/internal/logging"
)

const usage = `swiftxsv fills and trims fields of delimited data.

Usage:
    swiftxsv fill [options] <select> <regex> <fill-column> [<input>]
    swiftxsv trim [options] [<input>]

fill replaces the fields selected by <select> with the value of
<fill-column> in every record where any selected field matches <regex>.
Only the first column of <fill-column> is used.

    swiftxsv fill Column1 '^$' Column2 file.csv

trim strips leading and trailing whitespace from every field, header
included.

Selectors are comma-separated names, 1-based positions, or ranges
(a-b, -b, a-), optionally prefixed with '!' to select every other column.
Quote names that contain ',' or '-' or look like numbers: '"2019-01"'.

fill options:
    -i, --ignore-case      Case insensitive match.
    -v, --invert-match     Fill records that do not match.

Common options:
    -o, --output <file>    Write output to <file> instead of stdout.
    -n, --no-headers       The first row is data, not a header.
    -d, --delimiter <arg>  Field delimiter for reading (default: ',',
                           or tab for .tsv/.tab files).
        --config <file>    YAML file with default settings.
        --log-level <lvl>  debug, info, warn or error (default: warn).
        --buffered         Read all input before writing output.
`

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	var err error
	switch args[0] {
	case "fill":
		err = runFill(args[1:], stdin, stdout, stderr)
	case "trim":
		err = runTrim(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "swiftxsv: unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stdout, usage)
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "swiftxsv: %v\n\n%s", err, usage)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "swiftxsv: %v\n", err)
		return exitError
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// options are the flags every subcommand accepts.
type options struct {
	configPath string
	logLevel   string
	output     string
	delimiter  string
	noHeaders  bool
	buffered   bool
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.output, "o", "", "output file")
	fs.StringVar(&o.output, "output", "", "output file")
	fs.StringVar(&o.delimiter, "d", "", "field delimiter")
	fs.StringVar(&o.delimiter, "delimiter", "", "field delimiter")
	fs.BoolVar(&o.noHeaders, "n", false, "first row is data")
	fs.BoolVar(&o.noHeaders, "no-headers", false, "first row is data")
	fs.StringVar(&o.configPath, "config", "", "YAML config file")
	fs.StringVar(&o.logLevel, "log-level", "", "log level")
	fs.BoolVar(&o.buffered, "buffered", false, "read all input before writing")
}

// settings merges the config file, if any, with the flags given.
func (o *options) settings() (config.Config, error) {
	cfg := config.Defaults()
	if o.configPath != "" {
		fileCfg, err := config.Load(o.configPath, nil)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}
	return config.Merge(cfg, config.Config{
		Delimiter: o.delimiter,
		NoHeaders: o.noHeaders,
		Output:    o.output,
		LogLevel:  o.logLevel,
		Buffered:  o.buffered,
	}), nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses fs allowing flags and positional arguments to mix.
// Everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, usageError{msg: err.Error()}
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func runFill(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("fill")
	var opts options
	opts.register(fs)
	var ignoreCase, invert bool
	fs.BoolVar(&ignoreCase, "i", false, "case insensitive match")
	fs.BoolVar(&ignoreCase, "ignore-case", false, "case insensitive match")
	fs.BoolVar(&invert, "v", false, "fill records that do not match")
	fs.BoolVar(&invert, "invert-match", false, "fill records that do not match")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 3 || len(pos) > 4 {
		return usageError{msg: "fill needs <select> <regex> <fill-column> [<input>]"}
	}
	input := ""
	if len(pos) == 4 {
		input = pos[3]
	}

	// A bad pattern fails before any input is opened.
	pattern, err := swiftxsv.CompilePattern(pos[1], ignoreCase)
	if err != nil {
		return err
	}

	return execute(opts, input, stdin, stdout, stderr, func(rdr *swiftxsv.Reader) (swiftxsv.Transform, error) {
		header, err := rdr.Header()
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		match, err := swiftxsv.Resolve(pos[0], header, rdr.HasHeaders())
		if err != nil {
			return nil, err
		}
		replace, err := swiftxsv.Resolve(pos[2], header, rdr.HasHeaders())
		if err != nil {
			return nil, err
		}
		return &swiftxsv.Fill{Pattern: pattern, Match: match, Replace: replace, Invert: invert}, nil
	})
}

func runTrim(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := newFlagSet("trim")
	var opts options
	opts.register(fs)

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) > 1 {
		return usageError{msg: "trim takes at most one <input>"}
	}
	input := ""
	if len(pos) == 1 {
		input = pos[0]
	}

	return execute(opts, input, stdin, stdout, stderr, func(*swiftxsv.Reader) (swiftxsv.Transform, error) {
		return swiftxsv.Trim{}, nil
	})
}

// execute opens input and output, binds the transform against the header,
// and runs the driver.
func execute(opts options, input string, stdin io.Reader, stdout, stderr io.Writer, bind func(*swiftxsv.Reader) (swiftxsv.Transform, error)) error {
	cfg, err := opts.settings()
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	delim, err := config.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return usageError{msg: err.Error()}
	}

	src := stdin
	if input != "" && input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}

	rdr := swiftxsv.NewReader(src)
	rdr.Comma = config.DelimiterFor(input, delim)
	rdr.NoHeaders = cfg.NoHeaders

	t, err := bind(rdr)
	if err != nil {
		return err
	}

	dst := stdout
	var outFile *os.File
	if cfg.Output != "" && cfg.Output != "-" {
		outFile, err = os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer outFile.Close()
		dst = outFile
	}

	wtr := swiftxsv.NewWriter(dst)
	wtr.Comma = config.DelimiterFor(cfg.Output, 0)
	wtr.UseCRLF = cfg.CRLF
	wtr.AlwaysQuote = cfg.AlwaysQuote

	mode := swiftxsv.Streaming
	if cfg.Buffered {
		mode = swiftxsv.Buffered
	}
	logger.Debug("run start",
		slog.String("input", displayName(input)),
		slog.String("output", displayName(cfg.Output)),
		slog.String("delimiter", string(rdr.Comma)),
		slog.Bool("headers", rdr.HasHeaders()),
	)

	d := &swiftxsv.Driver{Mode: mode, Logger: logger}
	if _, err := d.Run(rdr, wtr, t); err != nil {
		return err
	}
	if outFile != nil {
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
	}
	return nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "<stdio>"
	}
	return path
}
