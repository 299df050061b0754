// Package mask protects inline game markup during translation. Variable
// references like "[player_name]" and text tags like "{i}...{/i}" are
// replaced with opaque numbered tokens before a string is sent to a
// translation backend and substituted back afterwards, so the backend can
// never corrupt them.
package mask

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRE matches the two markup syntaxes handled here: bracket
// variable references and single-level brace tags. Nested braces are not
// parsed; only the innermost balanced pair is matched and anything outside
// it passes through as plain text.
var placeholderRE = regexp.MustCompile(`\[[^\]]+\]|\{[^{}]*\}`)

// newline is the marker carried in place of literal newlines so multi-line
// strings survive line-oriented backend protocols.
const newline = "<NL>"

// Apply replaces every markup match in text with a numbered token <P0>,
// <P1>, ... in left-to-right order and converts literal newlines to the
// internal newline marker. The returned token list maps each token back to
// the original substring it replaced.
func Apply(text string) (string, []Token) {
	var tokens []Token
	masked := placeholderRE.ReplaceAllStringFunc(text, func(m string) string {
		name := fmt.Sprintf("<P%d>", len(tokens))
		tokens = append(tokens, Token{Name: name, Value: m})
		return name
	})
	masked = strings.ReplaceAll(masked, "\n", newline)
	return masked, tokens
}

// Restore substitutes each token back to its original substring and then
// converts newline markers back to literal newlines. Tokens absent from the
// translated text are dropped silently; the backend is instructed to keep
// them but cannot be forced to.
func Restore(text string, tokens []Token) string {
	for _, t := range tokens {
		text = strings.ReplaceAll(text, t.Name, t.Value)
	}
	return strings.ReplaceAll(text, newline, "\n")
}

// Token is one masked markup occurrence.
type Token struct {
	Name  string // token placed into the masked text, e.g. "<P0>"
	Value string // original substring, e.g. "[player_name]"
}
