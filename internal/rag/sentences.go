package rag

import (
	"strings"
	"unicode"
)

// abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "st": {}, "no": {},
	"dept": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "approx": {}, "jr": {}, "sr": {},
}

// SplitSentences breaks text into trimmed, non-empty sentences.
// A sentence ends at '.', '!' or '?' followed by whitespace and an
// uppercase letter, digit or quote, unless the word before the period is
// a known abbreviation or a single initial. Blank lines always end a sentence.
func SplitSentences(text string) []string {
	var out []string
	for para := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		out = append(out, splitParagraph(strings.Join(strings.Fields(para), " "))...)
	}
	return out
}

func splitParagraph(p string) []string {
	if p == "" {
		return nil
	}

	runes := []rune(p)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// absorb closing punctuation like ?!" or .)
		end := i + 1
		for end < len(runes) && strings.ContainsRune(`.!?"')]`, runes[end]) {
			end++
		}
		if end >= len(runes) {
			break
		}
		if runes[end] != ' ' || end+1 >= len(runes) || !startsSentence(runes[end+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end + 1
		i = end
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\'' || r == '('
}

func isAbbreviation(before []rune) bool {
	j := len(before)
	for j > 0 && before[j-1] != ' ' {
		j--
	}
	word := strings.ToLower(strings.TrimLeft(string(before[j:]), `("'`))
	if r := []rune(word); len(r) == 1 && unicode.IsLetter(r[0]) {
		return true
	}
	_, ok := abbreviations[word]
	return ok
}
