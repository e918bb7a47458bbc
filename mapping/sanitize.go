package mapping

import (
	"regexp"
	"strconv"

	"github.com/smasher164/xid"
)

// Mapped names and documentation originate from CSV files and end up spliced
// into Java source, so two things have to hold before anything enters the
// store: documentation must not be able to terminate the /* ... */ block it
// will be wrapped in, and names must be legal Java identifiers.
//
// Java allows any character of an identifier to be written as a unicode
// escape with an arbitrary number of 'u's (\uu002f, \uuu002f, ...), so both
// the comment-terminator search and identifier validation have to see
// through that notation.

var (
	unicodeEscapeRegexp = regexp.MustCompile(`\\u+[0-9a-fA-F]{4}`)
	commentEndRegexp    = regexp.MustCompile(`(\*|\\u+002[aA])(?:/|\\u+002[fF])`)
)

// EscapeCommentEnd replaces the slash of every '*/' occurrence with the
// HTML character reference '&#x2f;'. Either character may appear literally
// or as a unicode escape; only the slash's textual form is replaced and the
// asterisk is kept as written.
func EscapeCommentEnd(s string) string {
	return commentEndRegexp.ReplaceAllString(s, "${1}&#x2f;")
}

// UnescapeUnicode decodes every unicode escape (backslash, one or more
// 'u's, four hex digits) into the character at that code point. Input
// without escapes passes through unchanged.
func UnescapeUnicode(s string) string {
	return unicodeEscapeRegexp.ReplaceAllStringFunc(s, func(esc string) string {
		n, err := strconv.ParseUint(esc[len(esc)-4:], 16, 32)
		if err != nil {
			panic("regexp guarantees four hex digits: " + esc)
		}
		return string(rune(n))
	})
}

// IsValidIdentifier reports whether s is a legal Java identifier: an
// identifier-start character followed by identifier-part characters, and
// not a reserved word. With unescape set, unicode escapes are decoded
// first, so `\uu006eewa` is valid while `\uu006eew` is not.
func IsValidIdentifier(s string, unescape bool) bool {
	if unescape {
		s = UnescapeUnicode(s)
	}
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !(xid.Start(r) || r == '$' || r == '_') {
				return false
			}
		} else if !(xid.Continue(r) || r == '$') {
			return false
		}
	}
	_, reserved := javaReservedWords[s]
	return !reserved
}

// Keywords plus the true/false/null literals, none of which may be used as
// an identifier.
var javaReservedWords = map[string]struct{}{
	"abstract":     {},
	"assert":       {},
	"boolean":      {},
	"break":        {},
	"byte":         {},
	"case":         {},
	"catch":        {},
	"char":         {},
	"class":        {},
	"const":        {},
	"continue":     {},
	"default":      {},
	"do":           {},
	"double":       {},
	"else":         {},
	"enum":         {},
	"extends":      {},
	"final":        {},
	"finally":      {},
	"float":        {},
	"for":          {},
	"goto":         {},
	"if":           {},
	"implements":   {},
	"import":       {},
	"instanceof":   {},
	"int":          {},
	"interface":    {},
	"long":         {},
	"native":       {},
	"new":          {},
	"package":      {},
	"private":      {},
	"protected":    {},
	"public":       {},
	"return":       {},
	"short":        {},
	"static":       {},
	"strictfp":     {},
	"super":        {},
	"switch":       {},
	"synchronized": {},
	"this":         {},
	"throw":        {},
	"throws":       {},
	"transient":    {},
	"try":          {},
	"void":         {},
	"volatile":     {},
	"while":        {},
	"true":         {},
	"false":        {},
	"null":         {},
}
