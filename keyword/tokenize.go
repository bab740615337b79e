// Package keyword has small text tokenization helpers shared by the content
// moderator (token cleaning for tier-3 checks) and the recommendation engine
// (word extraction for interest mining).
package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonTokenChars = regexp.MustCompile(`[^\pL\pN_]+`)
	alphaWord     = regexp.MustCompile(`[a-z]+`)
)

// CleanToken lowercases a whitespace-delimited token and strips everything
// except letters, digits, and underscore, so "Word!!" and "word" compare
// equal against a word list.
func CleanToken(tok string) string {
	return nonTokenChars.ReplaceAllString(strings.ToLower(tok), "")
}

// FoldText lowercases text and applies unicode normalization with combining
// marks removed, so accented variants fold down to their base letters.
func FoldText(text string) string {
	// the transform chain needs to be re-created on every call to prevent a race condition
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(normFunc, strings.ToLower(text))
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		return strings.ToLower(text)
	}
	return folded
}

// ExtractAlphaWords splits free-form text into runs of ASCII letters, after
// lower-casing and unicode folding. Digits and punctuation are dropped
// entirely, so "don't stop2" becomes ["don", "t", "stop"].
func ExtractAlphaWords(text string) []string {
	return alphaWord.FindAllString(FoldText(text), -1)
}
