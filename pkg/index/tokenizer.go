package index

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Token string

type Tokenizer struct {
	MaxTokens int
}

var commonIssues = map[rune]rune{
	'ö': 'o',
	'ä': 'a',
	'å': 'a',
	'é': 'e',
	'è': 'e',
	'ê': 'e',
	'ë': 'e',
	'ï': 'i',
	'î': 'i',
	'ô': 'o',
	'ü': 'u',
	'û': 'u',
	'ÿ': 'y',
	'ç': 'c',
	'ñ': 'n',
	'ß': 's',
	'æ': 'a',
	'ø': 'o',
	'Ø': 'o',
}

func NormalizeWord(text string) Token {
	ret := make([]rune, 0, len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			l := unicode.ToLower(r)
			if replacement, ok := commonIssues[l]; ok {
				l = replacement
			}
			ret = append(ret, l)
		}
	}
	return Token(ret)
}

func isSeparator(chr rune) bool {
	return unicode.IsSpace(chr) || strings.ContainsRune(",:.!?;()[]{}\"'/-", chr)
}

// Tokenize splits text into unique normalized tokens in order of first
// appearance.
func (t *Tokenizer) Tokenize(text string) []Token {
	ret := []Token{}
	for _, word := range strings.FieldsFunc(text, isSeparator) {
		normalized := NormalizeWord(word)
		if len(normalized) == 0 || slices.Contains(ret, normalized) {
			continue
		}
		ret = append(ret, normalized)
		if t.MaxTokens > 0 && len(ret) >= t.MaxTokens {
			break
		}
	}
	return ret
}

// EndsWithSeparator reports whether the last word of text is complete.
func EndsWithSeparator(text string) bool {
	if text == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	return isSeparator(last)
}
