package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpperCamel normalizes header text into a field name.
//
// Whitespace, '-' and '_' separate words; each non-empty word is title-cased
// (first letter upper, rest lower) and the words are joined with no
// separator: "order id" -> "OrderId", "UNIT_price" -> "UnitPrice".
// Text with no words normalizes to "".
func UpperCamel(s string) string {
	words := strings.FieldsFunc(s, isWordSeparator)
	if len(words) == 0 {
		return ""
	}

	// A Caser keeps state between calls and must not be shared across goroutines.
	title := cases.Title(language.Und)

	var b strings.Builder
	b.Grow(len(s))
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}

func isWordSeparator(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}
