// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minKeywordLength = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "day": {},
	"get": {}, "has": {}, "him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "boy": {}, "did": {}, "its": {},
	"let": {}, "put": {}, "say": {}, "she": {}, "too": {}, "use": {},
}

// ExtractKeywords lowercases the task, replaces punctuation with spaces and
// keeps words of at least three characters that are not stop words.
// Duplicates are preserved in order of appearance.
func ExtractKeywords(task string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, task)

	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(w) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
