package textutil

import "strings"

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping tokens shorter than three characters so stop-words
// like "a" and "of" never count toward similarity.
func Tokenize(text string) []string {
	isSeparator := func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	}
	var terms []string
	for _, token := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len(token) >= 3 {
			terms = append(terms, token)
		}
	}
	return terms
}

// TokenSet returns the unique tokens of text.
func TokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		set[token] = struct{}{}
	}
	return set
}
