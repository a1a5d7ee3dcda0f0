package swiftxsv

import "regexp"

// Matcher is the predicate Fill evaluates against selected fields.
// *regexp.Regexp satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// CompilePattern compiles a fill pattern. With ignoreCase set the pattern
// matches case-insensitively, as if prefixed with (?i).
func CompilePattern(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	expr := pattern
	if ignoreCase {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}
