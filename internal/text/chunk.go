package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentenceEnd matches a run of sentence terminators followed by whitespace
// or the end of input, so URLs and decimals are never split.
var sentenceEnd = regexp.MustCompile(`[.!?]+(?:\s+|$)`)

// Split breaks text into chunks of at most maxLength runes at sentence
// boundaries. Whitespace-only input yields no chunks. A sentence longer than
// maxLength is emitted as its own chunk rather than cut.
func Split(input string, maxLength int) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	if maxLength <= 0 || utf8.RuneCountInString(trimmed) <= maxLength {
		return []string{trimmed}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences(trimmed) {
		n := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+n > maxLength {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			currentLen = 0
		}
		current.WriteString(sentence)
		currentLen += n
	}
	if last := strings.TrimSpace(current.String()); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// sentences splits s after every terminator run that ends a word. Each sentence is trimmed
// and followed by its terminators and one space. Trailing text without a
// terminator keeps no added punctuation.
func sentences(s string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(s, -1) {
		body := strings.TrimSpace(s[start:loc[0]])
		if body != "" {
			out = append(out, body+strings.TrimSpace(s[loc[0]:loc[1]])+" ")
		}
		start = loc[1]
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		out = append(out, tail+" ")
	}
	return out
}
