package search

import (
	"strings"
	"unicode"
)

// stopWords are Portuguese interrogatives and connectives that carry no
// retrieval signal. Only words longer than three characters are candidates, so
// short connectives (de, da, em, ...) never reach this list.
var stopWords = map[string]struct{}{
	"como":   {},
	"qual":   {},
	"quais":  {},
	"quando": {},
	"onde":   {},
	"quem":   {},
	"porque": {},
	"porquê": {},
	"para":   {},
	"pela":   {},
	"pelo":   {},
	"pelas":  {},
	"pelos":  {},
	"sobre":  {},
	"entre":  {},
	"este":   {},
	"esta":   {},
	"esse":   {},
	"essa":   {},
	"isso":   {},
	"isto":   {},
	"aquele": {},
	"aquela": {},
	"mais":   {},
	"menos":  {},
	"muito":  {},
	"também": {},
	"então":  {},
	"pode":   {},
	"fazer":  {},
	"tem":    {},
	"está":   {},
}

// ExtractKeywords returns the lowercase words of query longer than three
// characters that are not stop words, with punctuation stripped. Used by the
// substring fallback tier.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	keywords := make([]string, 0, len(fields))
	for _, w := range fields {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
