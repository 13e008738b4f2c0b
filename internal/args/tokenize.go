// Package args splits raw command text into positional and keyed arguments.
//
// A token is either positional ("value", "\"a quoted phrase\"") or keyed
// ("key=value", "key=\"quoted value\""). Quotes may be straight or curly and
// are stripped after tokenizing.
package args

import (
	"strings"
	"unicode"
)

// quotePairs maps an opening quote to the closing quotes it accepts.
var quotePairs = map[rune][]rune{
	'"': {'"'},
	'“': {'”', '“'},
	'”': {'”'},
	'„': {'“', '”'},
}

func isOpenQuote(r rune) bool {
	_, ok := quotePairs[r]
	return ok
}

func closes(open, r rune) bool {
	for _, c := range quotePairs[open] {
		if c == r {
			return true
		}
	}
	return false
}

// Tokenize parses content into arguments. Empty content yields nil.
func Tokenize(content string) []Arg {
	raw := split(content)
	if len(raw) == 0 {
		return nil
	}
	out := make([]Arg, 0, len(raw))
	for i, token := range raw {
		out = append(out, parseToken(i, token))
	}
	return out
}

// split breaks content on whitespace that is not inside a closed quote pair.
// An opening quote without a matching closer is kept as a literal character.
func split(content string) []string {
	runes := []rune(content)
	var tokens []string
	var sb strings.Builder

	flush := func() {
		if sb.Len() > 0 {
			tokens = append(tokens, sb.String())
			sb.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		if isOpenQuote(r) {
			if end := findClose(runes, i); end > i {
				sb.WriteString(string(runes[i : end+1]))
				i = end
				continue
			}
		}
		sb.WriteRune(r)
	}
	flush()
	return tokens
}

func findClose(runes []rune, open int) int {
	for j := open + 1; j < len(runes); j++ {
		if closes(runes[open], runes[j]) {
			return j
		}
	}
	return -1
}

func parseToken(index int, token string) Arg {
	if key, value, ok := splitKeyValue(token); ok {
		return Arg{
			Index:    index,
			Key:      key,
			KeyLower: strings.ToLower(key),
			Value:    Dequote(value),
		}
	}
	return Arg{Index: index, Value: Dequote(token)}
}

// splitKeyValue recognizes key=value where key is made of letters, digits,
// '_', '-' or '.'.
func splitKeyValue(token string) (string, string, bool) {
	eq := strings.IndexRune(token, '=')
	if eq <= 0 {
		return "", "", false
	}
	key := token[:eq]
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return "", "", false
		}
	}
	return key, token[eq+1:], true
}

// Dequote strips surrounding matching quotes and whitespace until none are
// left, so Dequote(Dequote(s)) == Dequote(s).
func Dequote(s string) string {
	for {
		s = strings.TrimSpace(s)
		runes := []rune(s)
		if len(runes) < 2 || !isOpenQuote(runes[0]) || !closes(runes[0], runes[len(runes)-1]) {
			return s
		}
		s = string(runes[1 : len(runes)-1])
	}
}
