package minutes

import (
	"fmt"
	"strings"
	"unicode"
)

// urlSchemes are the prefixes that make a token a link target.
var urlSchemes = []string{"http://", "https://", "ftp://", "mailto:", "doi:"}

// linkArrow introduces link text in "-> text URL" and "-> URL text".
const linkArrow = "->"

// token is a word of a line; linked tokens are finished markdown links.
type token struct {
	text   string
	linked bool
}

func isURL(word string) bool {
	lower := strings.ToLower(word)
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(lower, scheme) && len(word) > len(scheme) {
			return true
		}
	}
	return false
}

// splitTrailingPunct separates sentence punctuation glued to a URL.
func splitTrailingPunct(word string) (string, string) {
	end := len(word)
	for end > 0 && strings.ContainsRune(".,;:!?)", rune(word[end-1])) {
		end--
	}
	return word[:end], word[end:]
}

// tokenize splits on whitespace; a back-quoted span is one token even when it
// contains spaces, so nothing inside code is ever linked.
func tokenize(s string) []string {
	var words []string
	var b strings.Builder
	inCode := false
	for _, r := range s {
		switch {
		case r == '`':
			inCode = !inCode
			b.WriteRune(r)
		case unicode.IsSpace(r) && !inCode:
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

// AutoLink turns URLs of a line into markdown links.
//
// "-> URL some text" at the start of a line becomes "See [some text](URL)."
// Elsewhere "-> some text URL" becomes "[some text](URL)", and any remaining
// bare URL becomes "[URL](URL)". An arrow without a following URL is left
// alone.
func AutoLink(s string) string {
	if !strings.Contains(s, linkArrow) && !containsURL(s) {
		return s
	}
	words := tokenize(s)

	if len(words) >= 3 && words[0] == linkArrow && isURL(words[1]) {
		return fmt.Sprintf("See [%s](%s).", strings.Join(words[2:], " "), words[1])
	}

	tokens := make([]token, len(words))
	for i, w := range words {
		tokens[i] = token{text: w}
	}
	tokens = linkArrows(tokens)

	parts := make([]string, len(tokens))
	for i, t := range tokens {
		if !t.linked && isURL(t.text) {
			url, tail := splitTrailingPunct(t.text)
			t.text = fmt.Sprintf("[%s](%s)%s", url, url, tail)
		}
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}

func containsURL(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range urlSchemes {
		if strings.Contains(lower, scheme) {
			return true
		}
	}
	return false
}

// linkArrows replaces every "-> words... URL" run with a single linked token.
func linkArrows(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if tokens[i].linked || tokens[i].text != linkArrow {
			out = append(out, tokens[i])
			continue
		}
		j := i + 1
		for j < len(tokens) && !isURL(tokens[j].text) {
			j++
		}
		if j == len(tokens) {
			// no URL follows: not a link arrow
			return append(out, tokens[i:]...)
		}
		url, tail := splitTrailingPunct(tokens[j].text)
		words := make([]string, 0, j-i-1)
		for _, t := range tokens[i+1 : j] {
			words = append(words, t.text)
		}
		text := strings.Join(words, " ")
		if text == "" {
			text = url
		}
		out = append(out, token{text: fmt.Sprintf("[%s](%s)%s", text, url, tail), linked: true})
		i = j
	}
	return out
}
