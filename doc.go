// # SwiftXSV: Column Selection and Streaming Record Transforms for Go
//
// SwiftXSV resolves column selectors against a header row and applies per-record transforms to delimited data while streaming, one record at a time. It builds on a low-allocation RFC 4180 reader and a buffered writer.
//
// # Features
//
// - Selector language with names, 1-based positions, open and reversed ranges, quoted names, duplicate-name occurrences (`name[1]`), and exclusion (`!`).
// - `Selection` with ordered, possibly repeating indices and O(1) membership.
// - `Fill` replaces the selected fields of matching records with the value of another column; `Trim` strips boundary whitespace from every field.
// - `Driver` runs the read-transform-write loop in streaming or buffered mode and flushes the sink exactly once.
// - Structured errors: `ParseError`, `SelectorError`, `UnknownColumnError`, `WidthError`, and `PatternError`, each matched with `errors.Is` against its sentinel.
//
// # Getting Started
//
//	rdr := swiftxsv.NewReader(os.Stdin)
//	hdr, err := rdr.Header()
//	// handle err
//	match, err := swiftxsv.Resolve("Column1", hdr, rdr.HasHeaders())
//	// handle err
//	repl, err := swiftxsv.Resolve("Column2", hdr, rdr.HasHeaders())
//	// handle err
//	pat, err := swiftxsv.CompilePattern("^$", false)
//	// handle err
//	fill := &swiftxsv.Fill{Pattern: pat, Match: match, Replace: repl}
//	_, err = swiftxsv.Run(rdr, swiftxsv.NewWriter(os.Stdout), fill)
package swiftxsv
