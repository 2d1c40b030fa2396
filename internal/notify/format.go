package notify

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hepwatch/arxivbot/internal/feed"
)

// Telegram rejects messages over 4096 characters; stay comfortably under it.
const (
	maxMessageLen = 4000
	truncateAt    = 3950
)

// FormatEntry renders one submission as a Telegram HTML message. Author names
// link to their Inspire-HEP profile search, mirroring how the channel's
// readers look people up.
//
// Oversized messages are shrunk by cutting the abstract, never the rendered
// markup: a byte-offset cut on the joined text could split a multi-byte rune
// or an <a> tag, and the API rejects both for good.
func FormatEntry(e feed.Entry) string {
	abstract := strings.TrimSpace(e.Abstract)

	text := renderEntry(e, abstract)
	if len(text) <= maxMessageLen {
		return text
	}

	if keep := len(abstract) - (len(text) - truncateAt); keep > 0 {
		text = renderEntry(e, trimToRune(abstract, keep)+"...")
	} else {
		text = renderEntry(e, "")
	}
	if len(text) > maxMessageLen {
		// Only reachable with pathological title/author lengths.
		text = trimToRune(text, truncateAt) + "..."
	}
	return text
}

func renderEntry(e feed.Entry, abstract string) string {
	var parts []string

	if title := strings.TrimSpace(e.Title); title != "" {
		parts = append(parts, "Title:- "+html.EscapeString(title))
	}
	if len(e.Authors) > 0 {
		linked := make([]string, 0, len(e.Authors))
		for _, name := range e.Authors {
			linked = append(linked, fmt.Sprintf(`<a href="%s">%s</a>`, inspireAuthorURL(name), html.EscapeString(name)))
		}
		parts = append(parts, "Author:- "+strings.Join(linked, ", "))
	}
	if comments := strings.TrimSpace(e.Comments); comments != "" {
		parts = append(parts, "Comment:- "+html.EscapeString(comments))
	}
	if abstract != "" {
		parts = append(parts, "Abstract:- "+html.EscapeString(abstract))
	}
	if e.AbsURL != "" {
		parts = append(parts, fmt.Sprintf(`HTML:- <a href="%s">arXiv</a>`, e.AbsURL))
	}
	if e.PDFURL != "" {
		parts = append(parts, fmt.Sprintf(`PDF:- <a href="%s">PDF</a>`, e.PDFURL))
	}

	return strings.Join(parts, "\n")
}

// trimToRune cuts s to at most n bytes without splitting a rune.
func trimToRune(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}

func inspireAuthorURL(name string) string {
	q := url.QueryEscape(`"` + name + `"`)
	return "https://inspirehep.net/authors?sort=bestmatch&size=25&page=1&q=" + q
}
