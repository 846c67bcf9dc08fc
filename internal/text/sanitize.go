// Package text normalizes chat text and splits long replies into
// platform-sized chunks.
package text

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// controlChars matches ASCII control characters other than tab and newline.
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	// blankRuns collapses three or more newlines to a paragraph break.
	blankRuns = regexp.MustCompile("\n{3,}")

	// mention matches Telegram-style @username mentions.
	mention = regexp.MustCompile(`@[A-Za-z0-9_]{3,32}`)

	invisibleReplacer = strings.NewReplacer(
		"\u2060", "", // word joiner
		"\uFEFF", "", // byte order mark
		"\u00AD", "", // soft hyphen
		"\u200E", "",
		"\u200F", "",
		"\u2028", "\n",
		"\u2029", "\n\n",
		"\u200B", " ",
		"\u200C", " ",
		"\u2009", " ",
		"\u200A", " ",
		"\u202F", " ",
		"\u3000", " ",
		"\u00A0", " ",
	)
)

func collapseSpaces(line string) string {
	var b strings.Builder
	space := false
	for _, r := range line {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteRune(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return strings.TrimSpace(b.String())
}

// Normalize cleans model output and user input: line endings become LF,
// invisible and control characters are dropped, runs of spaces collapse
// within each line and more than one blank line collapses to one. The
// result is trimmed and may be empty.
func Normalize(input string) string {
	s := strings.ReplaceAll(input, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = invisibleReplacer.Replace(s)
	s = controlChars.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = collapseSpaces(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// StripMentions removes @username mentions and tidies the remaining spaces.
func StripMentions(input string) string {
	return collapseSpaces(mention.ReplaceAllString(input, " "))
}
