// Package config loads swiftxsv run settings from a YAML file and merges
// them with command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	Delimiter   string `yaml:"delimiter"`
	NoHeaders   bool   `yaml:"no_headers"`
	Output      string `yaml:"output"`
	LogLevel    string `yaml:"log_level"`
	CRLF        bool   `yaml:"crlf"`
	AlwaysQuote bool   `yaml:"always_quote"`
	Buffered    bool   `yaml:"buffered"`
}

// Defaults returns the settings used when neither file nor flags set a value.
func Defaults() Config {
	return Config{LogLevel: "warn"}
}

// Load reads a YAML config from path, or from raw when raw is not empty.
// Unknown keys are rejected.
func Load(path string, raw []byte) (Config, error) {
	cfg := Defaults()
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("config: no source provided")
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if _, err := ParseDelimiter(cfg.Delimiter); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge overlays the non-empty string fields of over onto base. Boolean
// fields are switched on by either side.
func Merge(base, over Config) Config {
	out := base
	if over.Delimiter != "" {
		out.Delimiter = over.Delimiter
	}
	if over.Output != "" {
		out.Output = over.Output
	}
	if strings.TrimSpace(over.LogLevel) != "" {
		out.LogLevel = strings.TrimSpace(over.LogLevel)
	}
	out.NoHeaders = base.NoHeaders || over.NoHeaders
	out.CRLF = base.CRLF || over.CRLF
	out.AlwaysQuote = base.AlwaysQuote || over.AlwaysQuote
	out.Buffered = base.Buffered || over.Buffered
	return out
}

// ParseDelimiter converts a delimiter setting to a byte. The empty string
// yields 0 (unset); `\t` and "tab" mean a tab.
func ParseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("config: delimiter must be a single byte, got %q", s)
	}
	switch s[0] {
	case '"', '\n', '\r':
		return 0, fmt.Errorf("config: %q cannot be used as a delimiter", s)
	}
	return s[0], nil
}

// DelimiterFor picks the delimiter for a file: explicit when set, a tab for
// .tsv and .tab files, a comma otherwise.
func DelimiterFor(path string, explicit byte) byte {
	if explicit != 0 {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	}
	return ','
}
