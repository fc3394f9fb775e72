package classsearch

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// packageWildcard fills one package segment; it never crosses a '/'.
	packageWildcard = `[^/\n]*?`
	// classWildcard fills the rest of the simple class name.
	classWildcard = `[^/\n]*?`
	// matchAllExpr captures every listed class path.
	matchAllExpr = `(?im)^/(.*)$`
)

// Matcher re-validates class-name listings against a canonical pattern and extracts
// the matching fully qualified names.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher translates a canonical pattern into a verification matcher.
//
// The expression is anchored per line, case-insensitive, and has exactly one capture
// group spanning the matched class path. Literal pattern text is quoted, so an error is
// only returned when the expression cannot be compiled at all (for example when it is
// too large); callers treat that as "no matches".
func NewMatcher(pattern string) (*Matcher, error) {
	expr := translatePattern(pattern)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile verification pattern %q: %w", pattern, err)
	}
	return &Matcher{re: re}, nil
}

// String returns the regular expression source.
func (m *Matcher) String() string {
	return m.re.String()
}

// FindAll returns the fully qualified names of every line of classNames that matches,
// in listing order. Names are dotted and never start with a dot.
func (m *Matcher) FindAll(classNames string) []string {
	if strings.Contains(classNames, "\r") {
		classNames = strings.ReplaceAll(classNames, "\r\n", "\n")
	}

	matches := m.re.FindAllStringSubmatch(classNames, -1)
	if len(matches) == 0 {
		return nil
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		fqn := strings.ReplaceAll(match[1], "/", ".")
		fqn = strings.TrimLeft(fqn, ".")
		if fqn == "" {
			continue
		}
		names = append(names, fqn)
	}
	return names
}

// translatePattern builds the verification expression for a canonical pattern.
func translatePattern(pattern string) string {
	if strings.Trim(pattern, "*") == "" {
		return matchAllExpr
	}

	pattern = strings.ReplaceAll(pattern, ".", "/")

	var packagePattern, classNamePattern string
	if last := strings.LastIndex(pattern, "/"); last == -1 {
		classNamePattern = pattern
	} else {
		packagePattern = pattern[:last+1]
		classNamePattern = pattern[last+1:]
	}

	return `(?im)^(.*?/` +
		expandWildcards(packagePattern, packageWildcard) +
		expandWildcards(classNamePattern, classWildcard) +
		`)$`
}

// expandWildcards quotes the literal text of s and replaces each '*' with wildcard.
func expandWildcards(s, wildcard string) string {
	if s == "" {
		return ""
	}
	literals := strings.Split(s, "*")
	for i, lit := range literals {
		literals[i] = regexp.QuoteMeta(lit)
	}
	return strings.Join(literals, wildcard)
}
