// Package conversation tracks bounded per-conversation memory and rewrites
// follow-up questions into self-contained search strings.
package conversation

import (
	"strings"
	"unicode"
)

// MaxHistory bounds the number of remembered question turns.
const MaxHistory = 10

// minKeywordLength is the exclusive lower bound on keyword token length.
const minKeywordLength = 3

// Context is the per-conversation memory. It is owned by the caller: passed
// in with each request and echoed back updated. Nothing is stored server-side.
type Context struct {
	History      []string `json:"history"`
	Keywords     []string `json:"keywords"`
	LastQuestion string   `json:"lastQuestion"`
}

// Update returns a new Context with the question appended to the history
// (evicting the oldest turn beyond MaxHistory), the keyword set extended with
// the question's significant words, and LastQuestion set. It is a pure
// function and tolerates any previous value, including the zero Context.
func Update(prev Context, question string) Context {
	next := Context{
		History:      append([]string{}, prev.History...),
		Keywords:     append([]string{}, prev.Keywords...),
		LastQuestion: question,
	}

	next.History = append(next.History, question)
	if len(next.History) > MaxHistory {
		next.History = next.History[len(next.History)-MaxHistory:]
	}

	seen := make(map[string]bool, len(next.Keywords))
	for _, k := range next.Keywords {
		seen[k] = true
	}
	for _, word := range extractKeywords(question) {
		if !seen[word] {
			seen[word] = true
			next.Keywords = append(next.Keywords, word)
		}
	}

	return next
}

// extractKeywords lower-cases the question, strips punctuation and returns
// the words longer than minKeywordLength in order of appearance.
func extractKeywords(question string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, question)

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > minKeywordLength {
			words = append(words, w)
		}
	}
	return words
}
