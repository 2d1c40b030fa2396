package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoListingHeader means the "New submissions" section could not be located.
var ErrNoListingHeader = errors.New("new submissions header not found")

// ParseListing extracts entries from a listing page in document order.
//
// The page is anchored structurally: the <h3> containing "New submissions"
// starts the section, and the alternating <dt>/<dd> siblings that follow it
// (up to the next <h3>) carry one submission each. Anchoring on element
// boundaries instead of exact markup keeps the parse stable across the minor
// template changes arXiv ships now and then.
func ParseListing(html []byte, baseURL string) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var header *goquery.Selection
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), "New submissions") {
			header = s
			return false
		}
		return true
	})
	if header == nil {
		return nil, ErrNoListingHeader
	}

	base := strings.TrimSuffix(baseURL, "/")
	entries := make([]Entry, 0, 32)
	var pendingDT *goquery.Selection

	header.NextUntil("h3").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "dt":
			pendingDT = s
		case "dd":
			if pendingDT == nil {
				return
			}
			entry, ok := buildEntry(pendingDT, s, base)
			pendingDT = nil
			if ok {
				entries = append(entries, entry)
			}
		}
	})

	return entries, nil
}

// buildEntry assembles one Entry from a dt/dd pair. Entries without a
// derivable identifier are dropped rather than published under an empty key.
func buildEntry(dt, dd *goquery.Selection, base string) (Entry, bool) {
	absHref := dt.Find(`a[href^="/abs/"]`).First().AttrOr("href", "")
	if absHref == "" {
		return Entry{}, false
	}
	id := strings.TrimPrefix(absHref, "/abs/")
	if id == "" {
		return Entry{}, false
	}

	pdfURL := ""
	if pdfHref := dt.Find(`a[href^="/pdf/"]`).First().AttrOr("href", ""); pdfHref != "" {
		pdfURL = base + pdfHref
	} else {
		// The pdf anchor is sometimes omitted; derive it from the id.
		pdfURL = base + "/pdf/" + id + ".pdf"
	}

	var authors []string
	dd.Find("div.list-authors a").Each(func(_ int, a *goquery.Selection) {
		if name := collapseSpace(a.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	abstract := dd.Find(`[class*="abstract"]`).First()
	if abstract.Length() == 0 {
		abstract = dd.Find("p.mathjax").First()
	}

	return Entry{
		ID:       id,
		Title:    stripLabel(dd.Find("div.list-title").First().Text(), "Title:"),
		Authors:  authors,
		Comments: stripLabel(dd.Find("div.list-comments").First().Text(), "Comments:"),
		Abstract: collapseSpace(abstract.Text()),
		AbsURL:   base + absHref,
		PDFURL:   pdfURL,
	}, true
}

func stripLabel(s, label string) string {
	s = collapseSpace(s)
	s = strings.TrimPrefix(s, label)
	return strings.TrimSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
