// Package markup turns event text into HTML fragments for hosts that show
// the parsed timeline.
package markup

import (
	"html"
	"strings"

	"marktime/internal/grammar"
)

// ToInnerHTML escapes s and rewrites [text](link) into anchors and @name into
// profile links.
func ToInnerHTML(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range grammar.Link.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(mentions(html.EscapeString(s[last:m[0]])))
		text := s[m[2]:m[3]]
		link := s[m[4]:m[5]]
		b.WriteString(`<a class="underline" href="`)
		b.WriteString(html.EscapeString(AddHTTPIfNeeded(link)))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(text))
		b.WriteString(`</a>`)
		last = m[1]
	}
	b.WriteString(mentions(html.EscapeString(s[last:])))
	return b.String()
}

func mentions(escaped string) string {
	return grammar.At.ReplaceAllString(escaped, `$1<a class="underline" href="/$2">@$2</a>`)
}

// AddHTTPIfNeeded prefixes bare hosts with http://. Absolute and
// root-relative links are left alone.
func AddHTTPIfNeeded(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "/") {
		return s
	}
	return "http://" + s
}
