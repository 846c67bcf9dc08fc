package text

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	markdown = goldmark.New()
	strict   = bluemonday.StrictPolicy()

	blockTags = regexp.MustCompile(`(?i)<br\s*/?>|</?(?:p|div|pre|blockquote|ul|ol|h[1-6])>`)
	listItems = regexp.MustCompile(`(?i)<li>`)
	anchors   = regexp.MustCompile(`(?is)<a\s+href="([^"]*)"[^>]*>(.*?)</a>`)
)

// PlainText renders model markdown as plain chat text. Emphasis and
// headings lose their markers, list items become "- " lines and links keep
// their target in parentheses unless the label already is the URL. Input
// that fails to render is returned unchanged.
func PlainText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(input), &buf); err != nil {
		return input
	}

	s := anchors.ReplaceAllStringFunc(buf.String(), func(a string) string {
		m := anchors.FindStringSubmatch(a)
		href := html.UnescapeString(m[1])
		label := html.UnescapeString(strict.Sanitize(m[2]))
		if label == "" || label == href || strings.TrimPrefix(href, "mailto:") == label {
			return html.EscapeString(href)
		}
		return m[2] + " (" + html.EscapeString(href) + ")"
	})
	s = blockTags.ReplaceAllString(s, "\n")
	s = listItems.ReplaceAllString(s, "- ")

	return html.UnescapeString(strict.Sanitize(s))
}
