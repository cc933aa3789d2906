package codegen

import (
	"regexp"
	"strings"
	"unicode"
)

// snakeCaseFix undoes one known over-split produced by snakeCase.
type snakeCaseFix struct {
	pattern     *regexp.Regexp
	replacement string
}

// fuse returns a fix that joins an over-split abbreviation such as "i_d" back
// into "id" when it is glued to a preceding word character. The token may
// end the name.
func fuse(token string) snakeCaseFix {
	return snakeCaseFix{
		pattern:     regexp.MustCompile(`(\w)(` + regexp.QuoteMeta(token) + `)(\w|$)`),
		replacement: "${1}" + strings.ReplaceAll(token, "_", "") + "${3}",
	}
}

// snakeCaseFixes is applied in order. Add an entry for each new abbreviation
// that snakeCase splits apart.
var snakeCaseFixes = []snakeCaseFix{
	fuse("a_v"), // get_a_v -> get_av
	fuse("i_d"), // get_deck_i_d -> get_deck_id
}

// MethodName converts a declared RPC name into the Python method name used
// for its wrapper.
func MethodName(name string) string {
	s := snakeCase(name)
	for _, fix := range snakeCaseFixes {
		s = fix.apply(s)
	}
	return s
}

// apply repairs every occurrence of the fix in s. A single regexp pass
// skips a token directly following another, so it repeats until s is
// stable.
func (f snakeCaseFix) apply(s string) string {
	for {
		next := f.pattern.ReplaceAllString(s, f.replacement)
		if next == s {
			return s
		}
		s = next
	}
}

// snakeCase lower-cases the first character and replaces every later
// upper-case letter with an underscore followed by its lower-case form.
// Separators ('-', '.', whitespace) become underscores. Runs of capitals are
// split letter by letter; snakeCaseFixes repairs the ones we care about.
func snakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		switch {
		case r == '-' || r == '.' || unicode.IsSpace(r):
			b.WriteByte('_')
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		case 'A' <= r && r <= 'Z':
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
